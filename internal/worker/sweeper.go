// Package worker holds the background jobs started with the server.
package worker

import (
	"context"
	"log/slog"
	"time"

	"groupbuy/internal/pkg/clock"
	"groupbuy/internal/usecase/commands"
	"groupbuy/internal/usecase/shared"
)

// Sweeper periodically expires overdue offers and purges idempotency keys
// past their TTL.
type Sweeper struct {
	offers   commands.OfferCommands
	uow      shared.UnitOfWork
	clock    clock.Clock
	interval time.Duration
}

func NewSweeper(offers commands.OfferCommands, uow shared.UnitOfWork, clk clock.Clock, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		offers:   offers,
		uow:      uow,
		clock:    clk,
		interval: interval,
	}
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	s.Sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("sweeper started", "interval", s.interval.String())
	for {
		select {
		case <-ticker.C:
			s.Sweep(ctx)
		case <-ctx.Done():
			slog.Info("sweeper stopped")
			return
		}
	}
}

func (s *Sweeper) Sweep(ctx context.Context) {
	expired, err := s.offers.ExpireDue(ctx)
	if err != nil {
		slog.Error("offer expiry sweep failed", "error", err.Error())
	} else if expired > 0 {
		slog.Info("expired overdue offers", "count", expired)
	}

	var purged int64
	err = s.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		n, err := tx.Idempotency().DeleteExpired(ctx, s.clock.Now())
		purged = n
		return err
	})
	if err != nil {
		slog.Error("idempotency key purge failed", "error", err.Error())
	} else if purged > 0 {
		slog.Debug("purged expired idempotency keys", "count", purged)
	}
}
