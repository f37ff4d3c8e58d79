// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/playwise/internal/eventbus"
	"github.com/tomtom215/playwise/internal/models"
)

type fakeServer struct {
	listenErr error
	stop      chan struct{}
	once      sync.Once
	shutdowns atomic.Int32
}

func newFakeServer(listenErr error) *fakeServer {
	return &fakeServer{listenErr: listenErr, stop: make(chan struct{})}
}

func (f *fakeServer) ListenAndServe() error {
	if f.listenErr != nil {
		return f.listenErr
	}
	<-f.stop
	return http.ErrServerClosed
}

func (f *fakeServer) Shutdown(context.Context) error {
	f.shutdowns.Add(1)
	f.once.Do(func() { close(f.stop) })
	return nil
}

func TestHTTPServerService(t *testing.T) {
	t.Run("graceful shutdown", func(t *testing.T) {
		srv := newFakeServer(nil)
		svc := NewHTTPServerService(srv, time.Second, zerolog.Nop())

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- svc.Serve(ctx) }()

		cancel()
		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Serve() = %v, want context.Canceled", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Serve() did not return")
		}
		if srv.shutdowns.Load() != 1 {
			t.Errorf("Shutdown called %d times, want 1", srv.shutdowns.Load())
		}
	})

	t.Run("listen failure", func(t *testing.T) {
		boom := errors.New("address in use")
		svc := NewHTTPServerService(newFakeServer(boom), 0, zerolog.Nop())
		if err := svc.Serve(context.Background()); !errors.Is(err, boom) {
			t.Errorf("Serve() = %v, want %v", err, boom)
		}
		if svc.shutdownTimeout != 10*time.Second {
			t.Errorf("shutdownTimeout = %v, want 10s", svc.shutdownTimeout)
		}
	})

	t.Run("closed outside supervision", func(t *testing.T) {
		srv := newFakeServer(nil)
		svc := NewHTTPServerService(srv, time.Second, zerolog.Nop())

		done := make(chan error, 1)
		go func() { done <- svc.Serve(context.Background()) }()

		_ = srv.Shutdown(context.Background())
		select {
		case err := <-done:
			if !errors.Is(err, errServerClosed) {
				t.Errorf("Serve() = %v, want errServerClosed", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Serve() did not return")
		}
	})
}

type fakeChecker struct {
	mu       sync.Mutex
	statuses []models.HealthStatus
	calls    int
}

func (f *fakeChecker) GetHealthSnapshot(context.Context) models.HealthSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.statuses[min(f.calls, len(f.statuses)-1)]
	f.calls++
	return models.HealthSnapshot{Status: s}
}

func (f *fakeChecker) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestHealthMonitorService(t *testing.T) {
	checker := &fakeChecker{statuses: []models.HealthStatus{models.StatusHealthy, models.StatusUnhealthy}}
	svc := NewHealthMonitorService(checker, 10*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for checker.Calls() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v, want context.Canceled", err)
	}

	if checker.Calls() < 3 {
		t.Fatalf("checker called %d times, want at least 3", checker.Calls())
	}
	if svc.LastStatus() != models.StatusUnhealthy {
		t.Errorf("LastStatus() = %s, want unhealthy", svc.LastStatus())
	}
	if svc.String() != "health-monitor" {
		t.Errorf("String() = %q", svc.String())
	}
}

type countingPruner struct{ calls atomic.Int32 }

func (p *countingPruner) PruneCaches() int {
	p.calls.Add(1)
	return 1
}

func TestJanitorService(t *testing.T) {
	pruner := &countingPruner{}
	svc := NewJanitorService(pruner, 5*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() = %v, want deadline exceeded", err)
	}
	if pruner.calls.Load() == 0 {
		t.Error("pruner never called")
	}
}

type actionCounts struct {
	mu     sync.Mutex
	counts map[models.ActionType]int
}

func (a *actionCounts) RecordAction(t models.ActionType) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.counts[t]++
}

func (a *actionCounts) get(t models.ActionType) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.counts[t]
}

func TestActionConsumer(t *testing.T) {
	bus := eventbus.NewGoChannel(zerolog.Nop())
	t.Cleanup(func() { _ = bus.Close() })

	counter := &actionCounts{counts: make(map[models.ActionType]int)}
	svc := NewActionConsumer(bus, counter)
	if svc.String() != "action-consumer" {
		t.Errorf("String() = %q", svc.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = svc.Serve(ctx) }()

	// Publish until the subscription is live; gochannel drops messages sent
	// before anyone subscribes.
	deadline := time.Now().Add(2 * time.Second)
	for counter.get(models.ActionLaunch) == 0 && time.Now().Before(deadline) {
		if err := bus.Publish(ctx, eventbus.TopicActionRecorded, "u1", models.UserAction{UserID: "u1", Type: models.ActionLaunch}); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if counter.get(models.ActionLaunch) == 0 {
		t.Fatal("action never counted")
	}
}
