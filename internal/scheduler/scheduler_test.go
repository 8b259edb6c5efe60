package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/evalforge-dev/evalforge/internal/models"
	"github.com/evalforge-dev/evalforge/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu    sync.Mutex
	tests map[uint]models.SyntheticTest
}

func newFakeStore(tests ...models.SyntheticTest) *fakeStore {
	s := &fakeStore{tests: make(map[uint]models.SyntheticTest)}
	for _, test := range tests {
		s.tests[test.ID] = test
	}
	return s
}

func (s *fakeStore) set(test models.SyntheticTest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tests[test.ID] = test
}

func (s *fakeStore) remove(id uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tests, id)
}

func (s *fakeStore) ActiveTests() ([]models.SyntheticTest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var active []models.SyntheticTest
	for _, test := range s.tests {
		if test.IsActive {
			active = append(active, test)
		}
	}
	return active, nil
}

func (s *fakeStore) Test(id uint) (*models.SyntheticTest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	test, ok := s.tests[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &test, nil
}

type fakeRunner struct {
	mu        sync.Mutex
	calls     []uint
	active    int
	maxActive int
	block     chan struct{} // when set, Run waits on it
}

func (r *fakeRunner) Run(ctx context.Context, test models.SyntheticTest) (*models.SyntheticExecution, error) {
	r.mu.Lock()
	r.calls = append(r.calls, test.ID)
	r.active++
	if r.active > r.maxActive {
		r.maxActive = r.active
	}
	block := r.block
	r.mu.Unlock()

	if block != nil {
		<-block
	}

	r.mu.Lock()
	r.active--
	r.mu.Unlock()

	return &models.SyntheticExecution{
		TestID:     test.ID,
		Status:     models.ExecutionStatusSuccess,
		ExecutedAt: time.Now(),
	}, nil
}

func (r *fakeRunner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *fakeRunner) maxConcurrent() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.maxActive
}

func (r *fakeRunner) release() {
	r.mu.Lock()
	block := r.block
	r.block = nil
	r.mu.Unlock()

	if block != nil {
		close(block)
	}
}

// manualClock hands out channels the test fires explicitly.
type manualClock struct {
	mu      sync.Mutex
	afters  []chan time.Time
	tickers []*manualTicker
}

type manualTicker struct {
	ch chan time.Time
}

func (t *manualTicker) Chan() <-chan time.Time { return t.ch }
func (t *manualTicker) Stop()                  {}

func (c *manualClock) Now() time.Time { return time.Now() }

func (c *manualClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan time.Time, 1)
	c.afters = append(c.afters, ch)
	return ch
}

func (c *manualClock) NewTicker(d time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()

	ticker := &manualTicker{ch: make(chan time.Time, 1)}
	c.tickers = append(c.tickers, ticker)
	return ticker
}

func (c *manualClock) afterCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.afters)
}

func (c *manualClock) fireGrace(i int) {
	c.mu.Lock()
	ch := c.afters[i]
	c.mu.Unlock()
	ch <- time.Now()
}

func (c *manualClock) tickerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tickers)
}

// tick drops the send when the ticker's buffer is full, like time.Ticker.
func (c *manualClock) tick(i int) {
	c.mu.Lock()
	ticker := c.tickers[i]
	c.mu.Unlock()

	select {
	case ticker.ch <- time.Now():
	default:
	}
}

func (c *manualClock) tickLast() {
	c.mu.Lock()
	i := len(c.tickers) - 1
	c.mu.Unlock()
	c.tick(i)
}

func activeTest(id uint, interval int) models.SyntheticTest {
	test := models.SyntheticTest{
		Name:     "checkout",
		TestType: "uptime",
		URL:      "https://example.com",
		Interval: interval,
		IsActive: true,
	}
	test.ID = id
	return test
}

func TestScheduleSkipsInactiveAndZeroInterval(t *testing.T) {
	s := New(newFakeStore(), &fakeRunner{})
	defer s.Stop()

	inactive := activeTest(1, 60)
	inactive.IsActive = false
	s.Schedule(inactive)

	zero := activeTest(2, 0)
	s.Schedule(zero)

	negative := activeTest(3, -30)
	s.Schedule(negative)

	assert.Equal(t, 0, s.JobCount())
}

func TestScheduleTwiceReplacesJob(t *testing.T) {
	s := New(newFakeStore(), &fakeRunner{})
	defer s.Stop()

	test := activeTest(1, 60)
	s.Schedule(test)
	s.Schedule(test)

	assert.Equal(t, 1, s.JobCount())
}

func TestUnscheduleIsIdempotent(t *testing.T) {
	s := New(newFakeStore(), &fakeRunner{})
	defer s.Stop()

	s.Unschedule(42) // no job, no panic

	s.Schedule(activeTest(1, 60))
	s.Unschedule(1)
	s.Unschedule(1)

	assert.Equal(t, 0, s.JobCount())
}

func TestStopWithoutStart(t *testing.T) {
	s := New(newFakeStore(), &fakeRunner{})
	s.Stop()
	s.Stop()
}

func TestStartSchedulesActiveTests(t *testing.T) {
	st := newFakeStore(activeTest(1, 60), activeTest(2, 120))
	inactive := activeTest(3, 60)
	inactive.IsActive = false
	st.set(inactive)

	s := New(st, &fakeRunner{})
	defer s.Stop()

	require.NoError(t, s.Start())
	require.NoError(t, s.Start()) // idempotent

	assert.Equal(t, 2, s.JobCount())
	assert.ElementsMatch(t, []uint{1, 2}, s.ScheduledIDs())
}

func TestJobFiresAfterGracePeriod(t *testing.T) {
	clock := &manualClock{}
	st := newFakeStore(activeTest(1, 60))
	runner := &fakeRunner{}

	s := New(st, runner, WithClock(clock))
	defer s.Stop()

	s.Schedule(st.tests[1])

	require.Eventually(t, func() bool { return clock.afterCount() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, 0, runner.callCount())

	clock.fireGrace(0)

	require.Eventually(t, func() bool { return runner.callCount() == 1 }, time.Second, time.Millisecond)
}

func TestSingleFlightSkipsOverlappingTicks(t *testing.T) {
	clock := &manualClock{}
	st := newFakeStore(activeTest(1, 60))
	runner := &fakeRunner{block: make(chan struct{})}

	s := New(st, runner, WithClock(clock))
	defer s.Stop()

	s.Schedule(st.tests[1])

	require.Eventually(t, func() bool { return clock.afterCount() == 1 }, time.Second, time.Millisecond)
	clock.fireGrace(0)

	require.Eventually(t, func() bool { return runner.callCount() == 1 }, time.Second, time.Millisecond)

	// First firing is still in flight; ticks must be skipped, not queued.
	require.Eventually(t, func() bool { return clock.tickerCount() >= 1 }, time.Second, time.Millisecond)
	clock.tick(0)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, runner.callCount())

	runner.release()

	// The released goroutine clears the flag asynchronously, so keep
	// ticking until a firing goes through.
	require.Eventually(t, func() bool {
		clock.tick(0)
		return runner.callCount() == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, runner.maxConcurrent())
}

func TestSingleFlightSurvivesJobReplacement(t *testing.T) {
	clock := &manualClock{}
	st := newFakeStore(activeTest(1, 60))
	runner := &fakeRunner{block: make(chan struct{})}

	s := New(st, runner, WithClock(clock))
	defer s.Stop()

	s.Schedule(st.tests[1])

	require.Eventually(t, func() bool { return clock.afterCount() == 1 }, time.Second, time.Millisecond)
	clock.fireGrace(0)
	require.Eventually(t, func() bool { return runner.callCount() == 1 }, time.Second, time.Millisecond)

	// Replace the job while the first firing is still running. The
	// replacement's grace firing must be skipped, not run alongside.
	s.Schedule(st.tests[1])

	require.Eventually(t, func() bool { return clock.afterCount() == 2 }, time.Second, time.Millisecond)
	clock.fireGrace(1)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, runner.callCount())
	assert.Equal(t, 1, runner.maxConcurrent())

	runner.release()

	require.Eventually(t, func() bool {
		clock.tickLast()
		return runner.callCount() == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, runner.maxConcurrent())
}

func TestStartAfterStop(t *testing.T) {
	clock := &manualClock{}
	st := newFakeStore(activeTest(1, 60))
	runner := &fakeRunner{}

	s := New(st, runner, WithClock(clock))

	require.NoError(t, s.Start())
	require.Eventually(t, func() bool { return clock.afterCount() == 1 }, time.Second, time.Millisecond)

	s.Stop()
	assert.Equal(t, 0, s.JobCount())

	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Equal(t, 1, s.JobCount())

	require.Eventually(t, func() bool { return clock.afterCount() == 2 }, time.Second, time.Millisecond)
	clock.fireGrace(1)

	require.Eventually(t, func() bool { return runner.callCount() >= 1 }, time.Second, time.Millisecond)
}

func TestExecuteUnschedulesMissingTest(t *testing.T) {
	st := newFakeStore(activeTest(1, 60))
	s := New(st, &fakeRunner{})
	defer s.Stop()

	s.Schedule(st.tests[1])
	require.Equal(t, 1, s.JobCount())

	st.remove(1)
	s.executeTest(1)

	assert.Equal(t, 0, s.JobCount())
}

func TestExecuteUnschedulesInactiveTest(t *testing.T) {
	st := newFakeStore(activeTest(1, 60))
	s := New(st, &fakeRunner{})
	defer s.Stop()

	s.Schedule(st.tests[1])

	deactivated := activeTest(1, 60)
	deactivated.IsActive = false
	st.set(deactivated)

	s.executeTest(1)

	assert.Equal(t, 0, s.JobCount())
}

func TestReconcileAddsAndRemoves(t *testing.T) {
	st := newFakeStore(activeTest(1, 60))
	s := New(st, &fakeRunner{})
	defer s.Stop()

	s.Schedule(st.tests[1])

	// Test 1 goes away, test 2 appears.
	st.remove(1)
	st.set(activeTest(2, 30))

	require.NoError(t, s.Reconcile())

	assert.ElementsMatch(t, []uint{2}, s.ScheduledIDs())
}

func TestReconcileReschedulesOnIntervalChange(t *testing.T) {
	st := newFakeStore(activeTest(1, 60))
	s := New(st, &fakeRunner{})
	defer s.Stop()

	s.Schedule(st.tests[1])

	st.set(activeTest(1, 15))
	require.NoError(t, s.Reconcile())

	s.mu.RLock()
	interval := s.jobs[1].interval
	s.mu.RUnlock()

	assert.Equal(t, 15, interval)
}

func TestReconcileDoesNotReaddUnscheduledInactiveTest(t *testing.T) {
	st := newFakeStore(activeTest(1, 60))
	s := New(st, &fakeRunner{})
	defer s.Stop()

	require.NoError(t, s.Start())
	require.Equal(t, 1, s.JobCount())

	deactivated := activeTest(1, 60)
	deactivated.IsActive = false
	st.set(deactivated)

	s.Unschedule(1)
	require.NoError(t, s.Reconcile())

	assert.Equal(t, 0, s.JobCount())
}
