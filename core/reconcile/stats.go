package reconcile

import (
	"sync"
	"time"
)

// Progress percentages reserved for the phases before processing.
const (
	percentInitializing = 5
	percentCaching      = 50
	percentProcessing   = 55
)

// statsTracker accumulates SyncStats under a single mutex.
type statsTracker struct {
	mu    sync.Mutex
	stats SyncStats
	start time.Time
}

func newStatsTracker(start time.Time) *statsTracker {
	return &statsTracker{start: start}
}

func (s *statsTracker) setTotal(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Total = n
}

func (s *statsTracker) record(r SyncResult) SyncStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch r.Status {
	case StatusCreated:
		s.stats.Created++
	case StatusUpdated:
		s.stats.Updated++
	case StatusSkipped:
		s.stats.Skipped++
	default:
		s.stats.Failed++
	}
	s.stats.Processed++
	return s.stats
}

func (s *statsTracker) snapshot() SyncStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// progress derives percent, throughput and ETA for the current stats.
func (s *statsTracker) progress(state State, message string, now time.Time) Progress {
	stats := s.snapshot()
	elapsed := now.Sub(s.start)

	p := Progress{
		State:   state,
		Message: message,
		Stats:   stats,
		Elapsed: elapsed,
	}

	switch state {
	case StateInitializing:
		p.Percent = percentInitializing
	case StateCaching:
		p.Percent = percentCaching
	case StateDone:
		p.Percent = 100
	case StateError:
		p.Percent = 0
	default:
		p.Percent = percentProcessing
		if stats.Total > 0 {
			p.Percent += stats.Processed * (100 - percentProcessing) / stats.Total
		}
	}

	if secs := elapsed.Seconds(); secs > 0 && stats.Processed > 0 {
		p.Rate = float64(stats.Processed) / secs
		remaining := stats.Total - stats.Processed
		if remaining > 0 {
			p.ETA = time.Duration(float64(remaining) / p.Rate * float64(time.Second))
		}
	}

	return p
}
