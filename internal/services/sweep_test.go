package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeExpirer struct {
	calls    chan struct{}
	n        int
	err      error
	deadline bool
}

func (e *fakeExpirer) ExpireStale(ctx context.Context) (int, error) {
	_, e.deadline = ctx.Deadline()
	select {
	case e.calls <- struct{}{}:
	default:
	}
	return e.n, e.err
}

func TestSweepScheduler_RunOnce(t *testing.T) {
	exp := &fakeExpirer{calls: make(chan struct{}, 1), n: 3, err: errors.New("partial failure")}
	s := NewSweepScheduler(exp, time.Minute)

	n, err := s.RunOnce(context.Background())
	if n != 3 || err == nil {
		t.Errorf("RunOnce = %d, %v; expected 3 and the expirer error", n, err)
	}
	if !exp.deadline {
		t.Error("RunOnce should bound the sweep with a deadline")
	}
}

func TestSweepScheduler_DefaultInterval(t *testing.T) {
	s := NewSweepScheduler(&fakeExpirer{}, 0)
	if s.interval != time.Minute {
		t.Errorf("interval = %v, expected 1m", s.interval)
	}
}

func TestSweepScheduler_StartRunsOnInterval(t *testing.T) {
	exp := &fakeExpirer{calls: make(chan struct{}, 1)}
	s := NewSweepScheduler(exp, time.Second)

	if err := s.Start(); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("second Start error: %v", err)
	}
	defer s.Stop()

	select {
	case <-exp.calls:
	case <-time.After(5 * time.Second):
		t.Fatal("sweep did not run within 5s")
	}

	s.Stop()
	if s.running {
		t.Error("scheduler should not be running after Stop")
	}
}
