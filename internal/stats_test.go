package internal

import (
	"sync"
	"testing"
)

func TestStats_ConcurrentCounts(t *testing.T) {
	s := NewStats(300)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(3)
		go func() { defer wg.Done(); s.Moved(10) }()
		go func() { defer wg.Done(); s.Skipped() }()
		go func() { defer wg.Done(); s.Failed() }()
	}
	wg.Wait()

	sn := s.Snapshot()
	if sn.Moved != 100 || sn.Skipped != 100 || sn.Failed != 100 {
		t.Errorf("counters lost updates: moved=%d skipped=%d failed=%d", sn.Moved, sn.Skipped, sn.Failed)
	}
	if sn.Processed != 300 {
		t.Errorf("expected processed 300, got %d", sn.Processed)
	}
	if sn.Processed != sn.Total {
		t.Errorf("processed %d != total %d", sn.Processed, sn.Total)
	}
	if sn.BytesMoved != 1000 {
		t.Errorf("expected 1000 bytes moved, got %d", sn.BytesMoved)
	}
}

func TestSnapshot_Rates(t *testing.T) {
	var sn Snapshot
	if sn.FilesPerSecond() != 0 {
		t.Error("zero elapsed should yield zero rate")
	}
	if sn.BytesPerSecond() != 0 {
		t.Error("zero elapsed should yield zero throughput")
	}
}
