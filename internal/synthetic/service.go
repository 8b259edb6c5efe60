package synthetic

import (
	"context"
	"time"

	"github.com/evalforge-dev/evalforge/internal/models"
)

// ExecutionStore is the slice of the store the service needs.
type ExecutionStore interface {
	CreateExecution(execution *models.SyntheticExecution) error
}

// Notifier is told about failed executions. Implementations must not block
// the caller for long; delivery failures are their own problem.
type Notifier interface {
	NotifyFailure(test models.SyntheticTest, execution models.SyntheticExecution)
}

// Service runs a synthetic test and records the outcome as an append-only
// execution row.
type Service struct {
	store       ExecutionStore
	executor    *Executor
	notifier    Notifier
	onExecution func()
}

func NewService(store ExecutionStore, executor *Executor, notifier Notifier) *Service {
	return &Service{
		store:    store,
		executor: executor,
		notifier: notifier,
	}
}

// OnExecution registers a hook fired after every persisted execution,
// scheduled or on-demand. Set once at wiring time, before the scheduler
// starts.
func (s *Service) OnExecution(hook func()) {
	s.onExecution = hook
}

// Run executes the test, persists the execution, and fires failure alerts.
func (s *Service) Run(ctx context.Context, test models.SyntheticTest) (*models.SyntheticExecution, error) {
	outcome := s.executor.Execute(ctx, test)

	execution := &models.SyntheticExecution{
		TestID:        test.ID,
		Status:        outcome.Status,
		ResponseTime:  outcome.ResponseTime,
		StatusCode:    outcome.StatusCode,
		ResponseBody:  outcome.ResponseBody,
		ErrorMessage:  outcome.ErrorMessage,
		DNSTime:       outcome.DNSTime,
		ConnectTime:   outcome.ConnectTime,
		SSLTime:       outcome.SSLTime,
		FirstByteTime: outcome.FirstByteTime,
		ExecutedAt:    time.Now(),
	}

	if err := s.store.CreateExecution(execution); err != nil {
		return nil, err
	}

	if execution.Status != models.ExecutionStatusSuccess && s.notifier != nil {
		s.notifier.NotifyFailure(test, *execution)
	}

	if s.onExecution != nil {
		s.onExecution()
	}

	return execution, nil
}
