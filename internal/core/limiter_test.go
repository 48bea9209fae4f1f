package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestJobLimiter_AcquireRelease(t *testing.T) {
	limiter := NewJobLimiter(2, time.Second)
	ctx := context.Background()

	if got := limiter.Available(); got != 2 {
		t.Errorf("initial Available = %d, want 2", got)
	}

	for i := 0; i < 2; i++ {
		if err := limiter.Acquire(ctx); err != nil {
			t.Fatalf("Acquire %d failed: %v", i, err)
		}
	}
	if got := limiter.ActiveCount(); got != 2 {
		t.Errorf("ActiveCount = %d, want 2", got)
	}
	if got := limiter.Available(); got != 0 {
		t.Errorf("Available = %d, want 0", got)
	}

	limiter.Release()
	limiter.Release()
	if got := limiter.ActiveCount(); got != 0 {
		t.Errorf("after Release, ActiveCount = %d, want 0", got)
	}
}

func TestJobLimiter_TimesOutWhenFull(t *testing.T) {
	limiter := NewJobLimiter(1, 50*time.Millisecond)
	ctx := context.Background()

	if err := limiter.Acquire(ctx); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer limiter.Release()

	if err := limiter.Acquire(ctx); !errors.Is(err, ErrTooManyJobs) {
		t.Errorf("Acquire on full limiter = %v, want ErrTooManyJobs", err)
	}
}

func TestJobLimiter_ContextCancelled(t *testing.T) {
	limiter := NewJobLimiter(1, time.Minute)
	if !limiter.TryAcquire() {
		t.Fatal("TryAcquire on empty limiter = false, want true")
	}
	defer limiter.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := limiter.Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Acquire with cancelled ctx = %v, want context.Canceled", err)
	}
	if limiter.TryAcquire() {
		t.Error("TryAcquire on full limiter = true, want false")
	}
}

func TestJobLimiter_UnblocksWaiter(t *testing.T) {
	limiter := NewJobLimiter(1, time.Second)
	ctx := context.Background()
	if err := limiter.Acquire(ctx); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() {
		done <- limiter.Acquire(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	limiter.Release()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("waiting Acquire = %v, want nil", err)
		}
		limiter.Release()
	case <-time.After(time.Second):
		t.Fatal("waiter was not unblocked")
	}
}

func TestJobLimiter_WaitForDrain(t *testing.T) {
	limiter := NewJobLimiter(3, time.Second)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := limiter.Acquire(ctx); err != nil {
			t.Fatal(err)
		}
	}

	go func() {
		for i := 0; i < 3; i++ {
			time.Sleep(10 * time.Millisecond)
			limiter.Release()
		}
	}()

	drainCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := limiter.WaitForDrain(drainCtx); err != nil {
		t.Errorf("WaitForDrain = %v, want nil", err)
	}
}

func TestJobLimiter_Defaults(t *testing.T) {
	limiter := NewJobLimiter(0, 0)
	st := limiter.Status()
	if st.MaxConcurrent != DefaultMaxConcurrentJobs {
		t.Errorf("MaxConcurrent = %d, want %d", st.MaxConcurrent, DefaultMaxConcurrentJobs)
	}
	if st.Available != DefaultMaxConcurrentJobs || st.Active != 0 {
		t.Errorf("Status = %+v, want all slots free", st)
	}
}

func TestTableLocks_Serialises(t *testing.T) {
	locks := newTableLocks()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lock("t1")
			defer unlock()

			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Errorf("max concurrent holders = %d, want 1", maxSeen)
	}
}
