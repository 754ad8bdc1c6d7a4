package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/renatosilveira/politracker/server/internal/models"
)

type fakeStore struct {
	starts int32
	ends   int32
}

func (f *fakeStore) LogJobStart(ctx context.Context, kind string) (int, error) {
	atomic.AddInt32(&f.starts, 1)
	return 1, nil
}

func (f *fakeStore) LogJobEnd(ctx context.Context, id int, status models.JobStatus, message string, recordCount int) error {
	atomic.AddInt32(&f.ends, 1)
	return nil
}

func TestRunNowUnknownJobErrors(t *testing.T) {
	s := New(&fakeStore{}, time.UTC, time.Minute)
	if err := s.RunNow("does-not-exist"); err == nil {
		t.Error("expected error for unknown job id")
	}
}

func TestRunNowSingleFlight(t *testing.T) {
	store := &fakeStore{}
	s := New(store, time.UTC, time.Minute)

	release := make(chan struct{})
	entered := make(chan struct{}, 2)
	var runs int32

	err := s.Register("job1", "Job One", "@yearly", func(ctx context.Context) RunResult {
		atomic.AddInt32(&runs, 1)
		entered <- struct{}{}
		<-release
		return RunResult{Status: models.JobOK, Count: 1}
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := s.RunNow("job1"); err != nil {
		t.Fatalf("first RunNow: %v", err)
	}
	<-entered

	if err := s.RunNow("job1"); err != nil {
		t.Fatalf("second RunNow: %v", err)
	}

	close(release)
	s.wg.Wait()

	if got := atomic.LoadInt32(&runs); got != 1 {
		t.Errorf("expected single-flight to allow exactly 1 run, got %d", got)
	}
}

func TestRunJobRecoversFromPanic(t *testing.T) {
	store := &fakeStore{}
	s := New(store, time.UTC, time.Minute)

	if err := s.Register("panicky", "Panicky Job", "@yearly", func(ctx context.Context) RunResult {
		panic("boom")
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := s.RunNow("panicky"); err != nil {
		t.Fatalf("RunNow: %v", err)
	}
	s.wg.Wait()

	if atomic.LoadInt32(&store.ends) != 1 {
		t.Errorf("expected job-end to be logged even after panic")
	}
}

func TestStartStopIdempotent(t *testing.T) {
	s := New(&fakeStore{}, time.UTC, time.Minute)
	s.Start()
	if !s.IsRunning() {
		t.Error("expected scheduler to report running after Start")
	}
	s.Start() // should be a no-op, not panic or deadlock
	s.Stop(time.Second)
	if s.IsRunning() {
		t.Error("expected scheduler to report stopped after Stop")
	}
}

func TestListJobsEnumeratesRegistered(t *testing.T) {
	s := New(&fakeStore{}, time.UTC, time.Minute)
	if err := s.Register("a", "A", "@yearly", func(ctx context.Context) RunResult { return RunResult{} }); err != nil {
		t.Fatalf("register a: %v", err)
	}
	if err := s.Register("b", "B", "@monthly", func(ctx context.Context) RunResult { return RunResult{} }); err != nil {
		t.Fatalf("register b: %v", err)
	}
	jobs := s.ListJobs()
	if len(jobs) != 2 {
		t.Errorf("expected 2 registered jobs, got %d", len(jobs))
	}
}
