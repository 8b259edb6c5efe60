package handlers

import (
	"github.com/evalforge-dev/evalforge/internal/evaluation"
	"github.com/evalforge-dev/evalforge/internal/ollama"
	"github.com/evalforge-dev/evalforge/internal/scheduler"
	"github.com/evalforge-dev/evalforge/internal/store"
	"github.com/evalforge-dev/evalforge/internal/synthetic"
)

// Handler carries the services the API operates on. The scheduler and runner
// are injected at construction, never reached through package globals.
type Handler struct {
	store     *store.Store
	scheduler *scheduler.Scheduler
	runner    *evaluation.Runner
	synthetic *synthetic.Service
	executor  *synthetic.Executor
	ollama    *ollama.Client
}

func New(st *store.Store, sched *scheduler.Scheduler, runner *evaluation.Runner, svc *synthetic.Service, executor *synthetic.Executor, client *ollama.Client) *Handler {
	return &Handler{
		store:     st,
		scheduler: sched,
		runner:    runner,
		synthetic: svc,
		executor:  executor,
		ollama:    client,
	}
}
