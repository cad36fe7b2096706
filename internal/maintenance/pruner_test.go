package maintenance

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type prunerStub struct {
	calls   atomic.Int32
	removed int64
	err     error
}

func (p *prunerStub) PruneExpiredSessions(context.Context) (int64, error) {
	p.calls.Add(1)
	return p.removed, p.err
}

func TestNewScheduler(t *testing.T) {
	t.Parallel()

	t.Run("registers the prune job", func(t *testing.T) {
		t.Parallel()

		s, err := NewScheduler("@every 1h", &prunerStub{}, nil)
		if err != nil {
			t.Fatalf("NewScheduler returned error: %v", err)
		}
		if s.Jobs() != 1 {
			t.Fatalf("expected 1 job, got %d", s.Jobs())
		}
	})

	t.Run("empty spec disables pruning", func(t *testing.T) {
		t.Parallel()

		s, err := NewScheduler("", &prunerStub{}, nil)
		if err != nil {
			t.Fatalf("NewScheduler returned error: %v", err)
		}
		if s.Jobs() != 0 {
			t.Fatalf("expected no jobs, got %d", s.Jobs())
		}
	})

	t.Run("rejects malformed specs", func(t *testing.T) {
		t.Parallel()

		if _, err := NewScheduler("every tuesday", &prunerStub{}, nil); err == nil {
			t.Fatal("expected error for malformed spec")
		}
	})
}

func TestScheduler_PruneNow(t *testing.T) {
	t.Parallel()

	pruner := &prunerStub{removed: 3}
	s, err := NewScheduler("", pruner, nil)
	if err != nil {
		t.Fatalf("NewScheduler returned error: %v", err)
	}
	s.PruneNow(context.Background())

	failing := &prunerStub{err: errors.New("database is locked")}
	f, err := NewScheduler("", failing, nil)
	if err != nil {
		t.Fatalf("NewScheduler returned error: %v", err)
	}
	f.PruneNow(context.Background())

	if pruner.calls.Load() != 1 || failing.calls.Load() != 1 {
		t.Fatalf("expected one call each, got %d and %d", pruner.calls.Load(), failing.calls.Load())
	}
}

func TestScheduler_RunsOnSchedule(t *testing.T) {
	t.Parallel()

	pruner := &prunerStub{}
	s, err := NewScheduler("@every 1s", pruner, nil)
	if err != nil {
		t.Fatalf("NewScheduler returned error: %v", err)
	}
	s.Start()
	s.Start()

	deadline := time.Now().Add(5 * time.Second)
	for pruner.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
	s.Stop(ctx)

	if pruner.calls.Load() == 0 {
		t.Fatal("expected the prune job to run at least once")
	}
}
