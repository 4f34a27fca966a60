package scheduler

import (
	"context"
	"errors"
	"testing"

	"vetclinic-api/internal/platform/logger"
)

type countingRunner struct {
	runs int
	err  error
}

func (r *countingRunner) Run(context.Context) error {
	r.runs++
	return r.err
}

func TestStartRunsImmediately(t *testing.T) {
	runner := &countingRunner{}
	s := New(runner, logger.New(logger.Options{Level: logger.Error}))

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	if runner.runs != 1 {
		t.Fatalf("corridas inmediatas = %d, quiero 1", runner.runs)
	}
}

func TestStartSwallowsEngineErrors(t *testing.T) {
	runner := &countingRunner{err: errors.New("query rota")}
	s := New(runner, logger.New(logger.Options{Level: logger.Error}))

	// El error de la corrida se loggea, nunca sube al caller.
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.Stop()
}
