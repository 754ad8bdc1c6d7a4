// Package scheduler is the cron-triggered job registry: each registered
// job carries a timezone-aware cron trigger and an idempotent run
// function, guaranteed single-flight per job id. It replaces the ticker
// polling loop this codebase used to lean on with real cron-spec triggers
// from robfig/cron/v3, while keeping the same mutex-guarded
// Service/running-state idiom for Start/Stop/IsRunning. Each firing is
// tagged with a google/uuid correlation id so a single run's start/end/
// panic log lines can be grepped together.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/renatosilveira/politracker/server/internal/models"
	"github.com/robfig/cron/v3"
)

// RunResult is what a job function reports back to the scheduler, which
// persists it via the store gateway's job log.
type RunResult struct {
	Status  models.JobStatus
	Count   int
	Message string
}

// JobFunc is one job's unit of work. It must itself be cancellation-aware:
// on ctx cancellation it should return promptly with whatever partial
// result it has (status=partial), per §5's cancellation contract.
type JobFunc func(ctx context.Context) RunResult

// Store is the subset of the store gateway the scheduler needs to
// persist job-run logs.
type Store interface {
	LogJobStart(ctx context.Context, kind string) (int, error)
	LogJobEnd(ctx context.Context, id int, status models.JobStatus, message string, recordCount int) error
}

// job is one registered entry.
type job struct {
	id      string
	name    string
	spec    string
	fn      JobFunc
	running int32 // atomic: 1 while an execution of this job id is in flight
	entryID cron.EntryID
}

// Service runs the cron registry. The running flag and mutex mirror the
// ambient Start/Stop/IsRunning idiom used throughout this codebase's other
// long-running services.
type Service struct {
	cron    *cron.Cron
	store   Store
	timeout time.Duration

	mutex   sync.RWMutex
	running bool

	jobsMu sync.Mutex
	jobs   map[string]*job

	wg sync.WaitGroup
}

// New constructs a Service whose cron triggers are evaluated in loc, and
// whose job runs each get a context that is cancelled jobTimeout after the
// run starts (no timeout when jobTimeout <= 0).
func New(store Store, loc *time.Location, jobTimeout time.Duration) *Service {
	return &Service{
		cron:    cron.New(cron.WithLocation(loc), cron.WithChain(cron.Recover(cron.DefaultLogger))),
		store:   store,
		timeout: jobTimeout,
		jobs:    make(map[string]*job),
	}
}

// Register adds a job under id with display name, a standard 5-field cron
// spec (interpreted in the scheduler's configured timezone), and its run
// function. Register must be called before Start.
func (s *Service) Register(id, name, cronSpec string, fn JobFunc) error {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	j := &job{id: id, name: name, spec: cronSpec, fn: fn}
	entryID, err := s.cron.AddFunc(cronSpec, func() { s.runJob(j) })
	if err != nil {
		return fmt.Errorf("registering job %s: %w", id, err)
	}
	j.entryID = entryID
	s.jobs[id] = j
	return nil
}

// runJob is what cron invokes on trigger; it enforces single-flight via
// an atomic CAS on j.running, isolates panics so one job's failure never
// takes down its siblings, and logs the run via the store gateway.
func (s *Service) runJob(j *job) {
	if !atomic.CompareAndSwapInt32(&j.running, 0, 1) {
		log.Printf("scheduler: job %s already running, skipping this firing", j.id)
		return
	}
	s.wg.Add(1)
	defer s.wg.Done()
	defer atomic.StoreInt32(&j.running, 0)

	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	s.executeWithRecovery(ctx, j)
}

func (s *Service) executeWithRecovery(ctx context.Context, j *job) {
	runID := uuid.New().String()
	log.Printf("scheduler: run %s starting job %s", runID, j.id)

	logID, err := s.store.LogJobStart(ctx, j.id)
	if err != nil {
		log.Printf("scheduler: run %s failed to log start for job %s: %v", runID, j.id, err)
	}

	result := func() (res RunResult) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("scheduler: run %s job %s panicked: %v", runID, j.id, r)
				res = RunResult{Status: models.JobError, Message: fmt.Sprintf("panic: %v", r)}
			}
		}()
		return j.fn(ctx)
	}()

	log.Printf("scheduler: run %s finished job %s status=%s records=%d", runID, j.id, result.Status, result.Count)

	if logID != 0 {
		if err := s.store.LogJobEnd(ctx, logID, result.Status, result.Message, result.Count); err != nil {
			log.Printf("scheduler: run %s failed to log end for job %s: %v", runID, j.id, err)
		}
	}
}

// RunNow enqueues a background run of job id respecting the same
// single-flight rule, returning immediately without blocking on
// completion.
func (s *Service) RunNow(id string) error {
	s.jobsMu.Lock()
	j, ok := s.jobs[id]
	s.jobsMu.Unlock()
	if !ok {
		return fmt.Errorf("unknown job id %q", id)
	}
	go s.runJob(j)
	return nil
}

// JobInfo is the enumeration shape ListJobs returns.
type JobInfo struct {
	ID        string
	Name      string
	NextRunAt time.Time
}

// ListJobs enumerates every registered job with its next scheduled
// firing.
func (s *Service) ListJobs() []JobInfo {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	out := make([]JobInfo, 0, len(s.jobs))
	for _, j := range s.jobs {
		var next time.Time
		for _, e := range s.cron.Entries() {
			if e.ID == j.entryID {
				next = e.Next
				break
			}
		}
		out = append(out, JobInfo{ID: j.id, Name: j.name, NextRunAt: next})
	}
	return out
}

// Start begins evaluating cron triggers. Idempotent: a second call while
// already running logs and returns.
func (s *Service) Start() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.running {
		log.Println("scheduler is already running")
		return
	}
	s.cron.Start()
	s.running = true
	log.Println("scheduler started")
}

// Stop halts cron trigger evaluation and waits up to drain for any
// in-flight job executions to finish before returning; jobs still running
// past the deadline are abandoned (not forcibly killed — each job's own
// context timeout governs its actual cancellation).
func (s *Service) Stop(drain time.Duration) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !s.running {
		return
	}

	stopCtx := s.cron.Stop()
	<-stopCtx.Done()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(drain):
		log.Println("scheduler: drain deadline exceeded, some jobs may still be running")
	}

	s.running = false
	log.Println("scheduler stopped")
}

// IsRunning reports whether the cron loop is currently evaluating
// triggers.
func (s *Service) IsRunning() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.running
}
