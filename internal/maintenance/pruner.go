// Package maintenance runs periodic housekeeping jobs for the server.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// SessionPruner deletes expired sessions and reports how many were removed.
type SessionPruner interface {
	PruneExpiredSessions(ctx context.Context) (int64, error)
}

// Scheduler wraps a cron runner that prunes expired sessions.
type Scheduler struct {
	cron   *cron.Cron
	pruner SessionPruner
	logger *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewScheduler registers the prune job on spec. An empty spec disables pruning.
func NewScheduler(spec string, pruner SessionPruner, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		pruner: pruner,
		logger: logger.With("component", "maintenance"),
	}
	if spec == "" || pruner == nil {
		return s, nil
	}
	if _, err := s.cron.AddFunc(spec, func() { s.PruneNow(context.Background()) }); err != nil {
		return nil, fmt.Errorf("maintenance: schedule session pruning %q: %w", spec, err)
	}
	return s, nil
}

// PruneNow runs the prune job once.
func (s *Scheduler) PruneNow(ctx context.Context) {
	if s == nil || s.pruner == nil {
		return
	}
	removed, err := s.pruner.PruneExpiredSessions(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "session pruning failed", "error", err)
		return
	}
	if removed > 0 {
		s.logger.InfoContext(ctx, "expired sessions pruned", "removed", removed)
	}
}

// Jobs reports the number of registered jobs.
func (s *Scheduler) Jobs() int {
	if s == nil {
		return 0
	}
	return len(s.cron.Entries())
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.cron.Start()
}

// Stop halts the scheduler and waits for a running job to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
