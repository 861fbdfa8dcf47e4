package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestRunLimiter_AcquireRelease(t *testing.T) {
	limiter := NewRunLimiter(2, time.Second)
	ctx := context.Background()

	steps := []struct {
		name          string
		op            func()
		wantActive    int
		wantAvailable int
	}{
		{"initial", func() {}, 0, 2},
		{"first acquire", func() { mustAcquire(t, limiter, ctx) }, 1, 1},
		{"second acquire", func() { mustAcquire(t, limiter, ctx) }, 2, 0},
		{"first release", limiter.Release, 1, 1},
		{"second release", limiter.Release, 0, 2},
	}

	for _, s := range steps {
		s.op()
		if got := limiter.ActiveCount(); got != s.wantActive {
			t.Errorf("%s: ActiveCount() = %d, want %d", s.name, got, s.wantActive)
		}
		if got := limiter.Available(); got != s.wantAvailable {
			t.Errorf("%s: Available() = %d, want %d", s.name, got, s.wantAvailable)
		}
	}
}

func mustAcquire(t *testing.T, l *RunLimiter, ctx context.Context) {
	t.Helper()
	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
}

func TestRunLimiter_TimesOutWhenFull(t *testing.T) {
	limiter := NewRunLimiter(1, 100*time.Millisecond)
	ctx := context.Background()
	mustAcquire(t, limiter, ctx)
	defer limiter.Release()

	start := time.Now()
	err := limiter.Acquire(ctx)
	elapsed := time.Since(start)

	if !errors.Is(err, ErrTooManyRuns) {
		t.Errorf("Acquire() error = %v, want ErrTooManyRuns", err)
	}
	if elapsed < 90*time.Millisecond {
		t.Errorf("Acquire() gave up after %v, want about 100ms", elapsed)
	}
}

func TestRunLimiter_ConcurrentAccess(t *testing.T) {
	const maxConcurrent = 3
	limiter := NewRunLimiter(maxConcurrent, time.Second)

	var wg sync.WaitGroup
	var mu sync.Mutex
	peak := 0

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := limiter.Acquire(context.Background()); err != nil {
				t.Errorf("Acquire() error = %v", err)
				return
			}
			defer limiter.Release()

			mu.Lock()
			peak = max(peak, limiter.ActiveCount())
			mu.Unlock()
			time.Sleep(10 * time.Millisecond)
		}()
	}
	wg.Wait()

	if peak > maxConcurrent {
		t.Errorf("peak active = %d, want <= %d", peak, maxConcurrent)
	}
	if got := limiter.ActiveCount(); got != 0 {
		t.Errorf("final ActiveCount() = %d, want 0", got)
	}
}

func TestRunLimiter_TryAcquire(t *testing.T) {
	limiter := NewRunLimiter(1, time.Second)

	if !limiter.TryAcquire() {
		t.Fatal("first TryAcquire() = false, want true")
	}
	if limiter.TryAcquire() {
		t.Error("second TryAcquire() = true, want false")
		limiter.Release()
	}
	limiter.Release()
	if !limiter.TryAcquire() {
		t.Error("TryAcquire() after Release = false, want true")
	}
	limiter.Release()
}

func TestRunLimiter_ContextCancellation(t *testing.T) {
	limiter := NewRunLimiter(1, 5*time.Second)
	mustAcquire(t, limiter, context.Background())
	defer limiter.Release()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- limiter.Acquire(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Acquire() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Error("Acquire() did not return after cancellation")
	}
}

func TestRunLimiter_WaitForDrain(t *testing.T) {
	limiter := NewRunLimiter(2, time.Second)
	mustAcquire(t, limiter, context.Background())
	mustAcquire(t, limiter, context.Background())

	done := make(chan error, 1)
	go func() { done <- limiter.WaitForDrain(context.Background()) }()

	limiter.Release()
	select {
	case <-done:
		t.Fatal("WaitForDrain() returned with a run still active")
	case <-time.After(150 * time.Millisecond):
	}

	limiter.Release()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("WaitForDrain() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Error("WaitForDrain() did not return after all runs released")
	}
}

func TestRunLimiter_WaitForDrainCancelled(t *testing.T) {
	limiter := NewRunLimiter(1, time.Second)
	mustAcquire(t, limiter, context.Background())
	defer limiter.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := limiter.WaitForDrain(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitForDrain() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestRunLimiter_Status(t *testing.T) {
	limiter := NewRunLimiter(3, time.Second)
	mustAcquire(t, limiter, context.Background())
	mustAcquire(t, limiter, context.Background())
	defer limiter.Release()
	defer limiter.Release()

	want := RunLimiterStatus{Active: 2, Available: 1, MaxConcurrent: 3}
	if got := limiter.Status(); got != want {
		t.Errorf("Status() = %+v, want %+v", got, want)
	}
}

func TestRunLimiter_Defaults(t *testing.T) {
	limiter := NewRunLimiter(0, 0)
	if got := limiter.MaxConcurrent(); got != DefaultMaxConcurrentRuns {
		t.Errorf("MaxConcurrent() = %d, want %d", got, DefaultMaxConcurrentRuns)
	}
}
