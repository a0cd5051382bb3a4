// Package jobs holds the directory's background loops.
//
// pending_user_sweeper.go implements PendingUserSweeper, which periodically deletes
// invitations whose expiration has passed. Redemption never depends on it: an expired token
// is rejected by the consume query whether or not the sweeper has run yet.
package jobs

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/talenttree/talenttree/internal/db/repositories"
	"github.com/talenttree/talenttree/internal/safego"
	"github.com/talenttree/talenttree/internal/telemetry"
)

// sweepTimeout bounds one DeleteExpired call.
const sweepTimeout = 30 * time.Second

// PendingUserSweeper periodically purges expired invitations.
type PendingUserSweeper struct {
	repo     *repositories.PendingUserRepository
	interval time.Duration
	now      func() time.Time
	stopChan chan struct{}
	stopOnce sync.Once
	started  atomic.Bool
	done     chan struct{}
}

// NewPendingUserSweeper creates a sweeper that runs every interval (default 1h).
func NewPendingUserSweeper(repo *repositories.PendingUserRepository, interval time.Duration) *PendingUserSweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &PendingUserSweeper{
		repo:     repo,
		interval: interval,
		now:      time.Now,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop in a panic-safe goroutine. It sweeps once immediately,
// then on every tick until ctx is cancelled or Stop is called.
func (s *PendingUserSweeper) Start(ctx context.Context) {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	safego.Go("pending-user-sweeper", func() {
		defer close(s.done)
		s.run(ctx)
	})
}

func (s *PendingUserSweeper) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("pending user sweeper started", "interval", s.interval)
	s.sweep(ctx)

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.stopChan:
			slog.Info("pending user sweeper stopped")
			return
		case <-ctx.Done():
			slog.Info("pending user sweeper context cancelled")
			return
		}
	}
}

// Stop signals the loop to exit and waits for it. It is safe to call more than once and
// before Start.
func (s *PendingUserSweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	if !s.started.Load() {
		return
	}
	select {
	case <-s.done:
	case <-time.After(sweepTimeout):
		slog.Warn("pending user sweeper did not stop in time")
	}
}

// sweep deletes expired invitations once and reports how many went.
func (s *PendingUserSweeper) sweep(ctx context.Context) int64 {
	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	n, err := s.repo.DeleteExpired(ctx, s.now())
	if err != nil {
		slog.Error("failed to sweep expired invitations", "error", err)
		return 0
	}
	if n > 0 {
		telemetry.ExpiredInvitationsSweptTotal.Add(float64(n))
		slog.Info("swept expired invitations", "count", n)
	}
	return n
}
