package runtime

import (
	"errors"
	"sync/atomic"
	"testing"
)

func TestWorkerPoolRunsAllJobs(t *testing.T) {
	var count int64
	jobs := make([]Job, 50)
	for i := range jobs {
		jobs[i] = func() error {
			atomic.AddInt64(&count, 1)
			return nil
		}
	}
	pool := NewWorkerPool(4)
	errs := pool.Run(jobs)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if count != 50 {
		t.Fatalf("count = %d, want 50", count)
	}
}

func TestWorkerPoolCollectsErrors(t *testing.T) {
	jobs := []Job{
		func() error { return nil },
		func() error { return errors.New("boom") },
		func() error { return nil },
	}
	pool := NewWorkerPool(2)
	errs := pool.Run(jobs)
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d: %v", len(errs), errs)
	}
}
