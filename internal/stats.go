package internal

import (
	"sync/atomic"
	"time"
)

// Stats holds the live counters shared by all pipeline workers. Every field
// is atomic so increments from concurrent goroutines are never lost; readers
// tolerate transient skew between counters.
type Stats struct {
	moved      atomic.Int64
	skipped    atomic.Int64
	failed     atomic.Int64
	bytesMoved atomic.Int64

	total int64
	start time.Time
}

func NewStats(total int) *Stats {
	return &Stats{total: int64(total), start: time.Now()}
}

func (s *Stats) Moved(bytes int64) {
	s.moved.Add(1)
	s.bytesMoved.Add(bytes)
}

func (s *Stats) Skipped() { s.skipped.Add(1) }

func (s *Stats) Failed() { s.failed.Add(1) }

// Snapshot is a point-in-time copy of the counters plus derived rates.
type Snapshot struct {
	Moved      int64
	Skipped    int64
	Failed     int64
	Processed  int64
	Total      int64
	BytesMoved int64
	Elapsed    time.Duration
}

func (s *Stats) Snapshot() Snapshot {
	moved := s.moved.Load()
	skipped := s.skipped.Load()
	failed := s.failed.Load()
	return Snapshot{
		Moved:      moved,
		Skipped:    skipped,
		Failed:     failed,
		Processed:  moved + skipped + failed,
		Total:      s.total,
		BytesMoved: s.bytesMoved.Load(),
		Elapsed:    time.Since(s.start),
	}
}

// FilesPerSecond returns the overall processing rate.
func (sn Snapshot) FilesPerSecond() float64 {
	secs := sn.Elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(sn.Processed) / secs
}

// BytesPerSecond returns the move throughput.
func (sn Snapshot) BytesPerSecond() float64 {
	secs := sn.Elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(sn.BytesMoved) / secs
}
