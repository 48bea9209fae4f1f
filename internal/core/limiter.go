package core

// limiter.go bounds concurrent analysis work and serialises writes per table.
//
// JobLimiter is a semaphore: when every slot is busy a caller waits up to
// maxWait and then gets ErrTooManyJobs. tableLocks hands out one mutex per
// table id so profiling, detection and remediation of a table never overlap.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyJobs is returned when no analysis slot frees up in time.
var ErrTooManyJobs = errors.New("too many concurrent analysis jobs, please try again later")

// DefaultMaxConcurrentJobs is the default limit for parallel analyses.
const DefaultMaxConcurrentJobs = 4

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 30 * time.Second

// JobLimiter caps the number of CPU-bound analysis runs in flight.
type JobLimiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu     sync.RWMutex
	active int
}

// NewJobLimiter creates a limiter with maxConcurrent slots.
func NewJobLimiter(maxConcurrent int, maxWait time.Duration) *JobLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentJobs
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}
	return &JobLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire takes a slot, waiting at most maxWait. Callers must Release.
func (l *JobLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.track(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManyJobs
	}
}

// TryAcquire takes a slot only if one is free right now.
func (l *JobLimiter) TryAcquire() bool {
	select {
	case l.slots <- struct{}{}:
		l.track(1)
		return true
	default:
		return false
	}
}

// Release frees a slot taken by Acquire or TryAcquire.
func (l *JobLimiter) Release() {
	l.track(-1)
	<-l.slots
}

func (l *JobLimiter) track(delta int) {
	l.mu.Lock()
	l.active += delta
	l.mu.Unlock()
}

// ActiveCount returns the number of running jobs.
func (l *JobLimiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// MaxConcurrent returns the slot count.
func (l *JobLimiter) MaxConcurrent() int {
	return cap(l.slots)
}

// Available returns the number of free slots.
func (l *JobLimiter) Available() int {
	return cap(l.slots) - len(l.slots)
}

// WaitForDrain blocks until no jobs are running or ctx is done.
// Used during shutdown.
func (l *JobLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// LimiterStatus is a point-in-time view of a JobLimiter.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state for monitoring.
func (l *JobLimiter) Status() LimiterStatus {
	return LimiterStatus{
		Active:        l.ActiveCount(),
		Available:     l.Available(),
		MaxConcurrent: l.MaxConcurrent(),
	}
}

// tableLocks serialises writers per table id.
type tableLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newTableLocks() *tableLocks {
	return &tableLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the mutex for tableID and returns its unlock func.
func (t *tableLocks) lock(tableID string) func() {
	t.mu.Lock()
	m, ok := t.locks[tableID]
	if !ok {
		m = &sync.Mutex{}
		t.locks[tableID] = m
	}
	t.mu.Unlock()

	m.Lock()
	return m.Unlock
}
