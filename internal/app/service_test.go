package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/edumarket/internal/config"
)

type fakeService struct {
	name     string
	startErr error
	mu       sync.Mutex
	stopped  bool
}

func (s *fakeService) Name() string { return s.name }

func (s *fakeService) Start(ctx context.Context) error {
	if s.startErr != nil {
		return s.startErr
	}
	<-ctx.Done()
	return nil
}

func (s *fakeService) Stop(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	return nil
}

func (s *fakeService) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

func TestRunnerStopsAllServicesAndRunsClosers(t *testing.T) {
	blocking := &fakeService{name: "http"}
	failing := &fakeService{name: "worker", startErr: errors.New("boom")}
	runner := NewRunner(blocking, failing)

	var order []string
	runner.OnShutdown(func() { order = append(order, "first") })
	runner.OnShutdown(func() { order = append(order, "second") })

	err := runner.Run(context.Background(), time.Second, nil)
	if err == nil || err.Error() != "boom" {
		t.Fatalf("runner should return first service error, got %v", err)
	}
	if !blocking.isStopped() || !failing.isStopped() {
		t.Fatalf("all services should be stopped")
	}
	if len(order) != 2 || order[0] != "second" || order[1] != "first" {
		t.Fatalf("closers should run in reverse order, got %v", order)
	}
}

func TestRunnerReturnsNilOnCancel(t *testing.T) {
	runner := NewRunner(&fakeService{name: "http"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := runner.Run(ctx, time.Second, nil); err != nil {
		t.Fatalf("cancelled runner should exit cleanly, got %v", err)
	}
	if names := runner.Names(); len(names) != 1 || names[0] != "http" {
		t.Fatalf("unexpected names: %v", names)
	}
}

func TestNormalizeOptionsAndMode(t *testing.T) {
	opts := normalizeOptions(Options{Mode: " API "})
	if opts.Mode != ModeAPI || opts.Logger == nil || opts.ShutdownTimeout != 10*time.Second {
		t.Fatalf("unexpected normalized options: %+v", opts)
	}
	if normalizeOptions(Options{}).Mode != ModeAll {
		t.Fatalf("empty mode should default to all")
	}
	if isValidMode("scheduler") {
		t.Fatalf("unknown mode should be rejected")
	}
	if _, err := BuildRunner(&config.Config{}, nil, "scheduler"); err == nil {
		t.Fatalf("build runner should reject unknown mode")
	}
	if err := Run(Options{Config: &config.Config{}}); err == nil {
		t.Fatalf("run without db should fail")
	}
}
