package worker

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/startgg-sync/internal/config"
)

func newIdleScheduler() *Scheduler {
	return NewScheduler(nil, nil, &config.SyncConfig{Interval: time.Hour}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSchedulerStartStop(t *testing.T) {
	s := newIdleScheduler()

	if s.IsRunning() {
		t.Fatal("IsRunning() = true before Start")
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !s.IsRunning() {
		t.Fatal("IsRunning() = false after Start")
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if s.IsRunning() {
		t.Fatal("IsRunning() = true after Stop")
	}
}

func TestSchedulerStartIsIdempotent(t *testing.T) {
	s := newIdleScheduler()

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("first Start() error = %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
}

func TestSchedulerStopWithoutStart(t *testing.T) {
	s := newIdleScheduler()
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
}
