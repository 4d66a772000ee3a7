package cmd

import (
	"context"
	"sync"
	"testing"
	"time"

	"mediasort/internal"
)

func TestWatchLoop_BurstDoesNotBlockReceives(t *testing.T) {
	const n = 20
	const settle = 100 * time.Millisecond

	created := make(chan string) // unbuffered: a slow receiver shows up as a slow send
	errs := make(chan error)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(n)
	go watchLoop(ctx, created, errs, settle, internal.NewLogger(false), func(string) {
		wg.Done()
	})

	// All sends must complete in far less than n*settle; a receive loop that
	// sleeps inline would take n*settle to accept them.
	start := time.Now()
	for i := 0; i < n; i++ {
		select {
		case created <- "file.jpg":
		case <-time.After(settle * n):
			t.Fatalf("send %d blocked, receive loop is serialized", i)
		}
	}
	if elapsed := time.Since(start); elapsed > settle*(n/2) {
		t.Errorf("sends took %v, receive loop appears to sleep inline", elapsed)
	}

	// Every file is still handled exactly once after its settle delay.
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("not all files were handled")
	}
}
