package scheduler

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/evalforge-dev/evalforge/internal/models"
	"github.com/evalforge-dev/evalforge/internal/store"
)

const (
	// DefaultReconcileInterval is the cadence of the reconciliation tick.
	DefaultReconcileInterval = 5 * time.Minute

	// DefaultGracePeriod delays a job's first firing after scheduling so a
	// restart does not fire every test at once.
	DefaultGracePeriod = 10 * time.Second
)

// Store is the durable state the scheduler reconciles against.
type Store interface {
	ActiveTests() ([]models.SyntheticTest, error)
	Test(id uint) (*models.SyntheticTest, error)
}

// TestRunner executes one test and persists its execution.
type TestRunner interface {
	Run(ctx context.Context, test models.SyntheticTest) (*models.SyntheticExecution, error)
}

// Scheduler keeps exactly one live periodic job per active test, reconciled
// against the store. It is an explicit service instance constructed once at
// process start and passed by reference, never ambient global state.
type Scheduler struct {
	store  Store
	runner TestRunner
	clock  Clock

	reconcileInterval time.Duration
	gracePeriod       time.Duration

	jobs     map[uint]*testJob     // test ID -> job
	inFlight map[uint]*atomic.Bool // test ID -> firing-in-progress flag
	mu       sync.RWMutex
	ctx      context.Context
	cancel   context.CancelFunc
	running  bool
}

// testJob shares its inFlight flag with every past and future job for the
// same test id, so replacing a job cannot let two firings overlap.
type testJob struct {
	testID   uint
	interval int // seconds, as configured at schedule time
	cancel   context.CancelFunc
	inFlight *atomic.Bool
}

type Option func(*Scheduler)

func WithClock(clock Clock) Option {
	return func(s *Scheduler) { s.clock = clock }
}

func WithReconcileInterval(d time.Duration) Option {
	return func(s *Scheduler) { s.reconcileInterval = d }
}

func WithGracePeriod(d time.Duration) Option {
	return func(s *Scheduler) { s.gracePeriod = d }
}

func New(st Store, runner TestRunner, opts ...Option) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Scheduler{
		store:             st,
		runner:            runner,
		clock:             realClock{},
		reconcileInterval: DefaultReconcileInterval,
		gracePeriod:       DefaultGracePeriod,
		jobs:              make(map[uint]*testJob),
		inFlight:          make(map[uint]*atomic.Bool),
		ctx:               ctx,
		cancel:            cancel,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start schedules every currently-active test and begins the periodic
// reconciliation tick. Calling it twice is a no-op.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	ctx := s.ctx
	s.mu.Unlock()

	log.Println("Starting scheduler...")

	tests, err := s.store.ActiveTests()

	if err != nil {
		return err
	}

	for _, test := range tests {
		s.Schedule(test)
	}

	go s.reconcileLoop(ctx)

	log.Printf("Scheduler started with %d tests", len(tests))
	return nil
}

// Stop cancels the reconciliation tick and all per-test jobs, then arms a
// fresh context so a later Start works. Safe to call more than once and safe
// even if Start was never called.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	log.Println("Stopping scheduler...")
	s.cancel()

	for _, job := range s.jobs {
		job.cancel()
	}

	s.jobs = make(map[uint]*testJob)
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.running = false
	log.Println("Scheduler stopped")
}

// Schedule replaces any existing job for the test with a new periodic job at
// the test's interval. Inactive tests and non-positive intervals only remove
// the existing job.
func (s *Scheduler) Schedule(test models.SyntheticTest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, exists := s.jobs[test.ID]; exists {
		existing.cancel()
		delete(s.jobs, test.ID)
	}

	if !test.IsActive || test.Interval <= 0 {
		return
	}

	flag, exists := s.inFlight[test.ID]

	if !exists {
		flag = &atomic.Bool{}
		s.inFlight[test.ID] = flag
	}

	jobCtx, jobCancel := context.WithCancel(s.ctx)

	job := &testJob{
		testID:   test.ID,
		interval: test.Interval,
		cancel:   jobCancel,
		inFlight: flag,
	}

	s.jobs[test.ID] = job

	go s.runJob(jobCtx, job)

	log.Printf("Scheduled test %d (%s) every %d seconds", test.ID, test.Name, test.Interval)
}

// Unschedule removes the test's job if present. Calling it for an unknown id
// is a no-op.
func (s *Scheduler) Unschedule(testID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job, exists := s.jobs[testID]; exists {
		job.cancel()
		delete(s.jobs, testID)
		log.Printf("Unscheduled test %d", testID)
	}
}

// ScheduledIDs returns the ids of all currently scheduled jobs.
func (s *Scheduler) ScheduledIDs() []uint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]uint, 0, len(s.jobs))
	for id := range s.jobs {
		ids = append(ids, id)
	}
	return ids
}

// JobCount returns the number of live jobs.
func (s *Scheduler) JobCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

func (s *Scheduler) runJob(ctx context.Context, job *testJob) {
	select {
	case <-ctx.Done():
		return
	case <-s.clock.After(s.gracePeriod):
	}

	s.fire(job)

	ticker := s.clock.NewTicker(time.Duration(job.interval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.fire(job)
		}
	}
}

// fire runs one firing unless the previous one is still in flight, in which
// case the tick is skipped rather than queued.
func (s *Scheduler) fire(job *testJob) {
	if !job.inFlight.CompareAndSwap(false, true) {
		log.Printf("Test %d is still running, skipping tick", job.testID)
		return
	}

	go func() {
		defer job.inFlight.Store(false)
		s.executeTest(job.testID)
	}()
}

// executeTest is the job body. Every failure is logged and discarded; nothing
// here may crash the scheduler or block future firings of other tests.
func (s *Scheduler) executeTest(testID uint) {
	test, err := s.store.Test(testID)

	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Printf("Test %d not found, removing from schedule", testID)
			s.Unschedule(testID)
			return
		}
		log.Printf("Failed to load test %d: %v", testID, err)
		return
	}

	if !test.IsActive {
		log.Printf("Test %d (%s) is inactive, removing from schedule", test.ID, test.Name)
		s.Unschedule(testID)
		return
	}

	s.mu.RLock()
	ctx := s.ctx
	s.mu.RUnlock()

	execution, err := s.runner.Run(ctx, *test)

	if err != nil {
		log.Printf("Failed to execute test %d (%s): %v", test.ID, test.Name, err)
		return
	}

	log.Printf("Test %d (%s) completed with status %s in %dms", test.ID, test.Name, execution.Status, execution.ResponseTime)
}

func (s *Scheduler) reconcileLoop(ctx context.Context) {
	ticker := s.clock.NewTicker(s.reconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if err := s.Reconcile(); err != nil {
				log.Printf("Reconcile failed: %v", err)
			}
		}
	}
}

// Reconcile aligns the live job set with the store's active tests: jobs for
// ids no longer active are removed, newly active ids are scheduled, and a
// test already scheduled is rescheduled only when its stored interval
// changed. Other field edits take effect on the job's next natural firing.
func (s *Scheduler) Reconcile() error {
	tests, err := s.store.ActiveTests()

	if err != nil {
		return err
	}

	active := make(map[uint]models.SyntheticTest, len(tests))
	for _, test := range tests {
		active[test.ID] = test
	}

	s.mu.RLock()
	scheduled := make(map[uint]int, len(s.jobs))
	for id, job := range s.jobs {
		scheduled[id] = job.interval
	}
	s.mu.RUnlock()

	for id := range scheduled {
		if _, ok := active[id]; !ok {
			s.Unschedule(id)
		}
	}

	for id, test := range active {
		interval, ok := scheduled[id]

		if !ok {
			s.Schedule(test)
			continue
		}

		if interval != test.Interval {
			log.Printf("Test %d interval changed from %ds to %ds, rescheduling", id, interval, test.Interval)
			s.Schedule(test)
		}
	}

	return nil
}
