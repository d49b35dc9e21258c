package components

import (
	"context"
	"log/slog"
	"sync"

	"groupbuy/internal/pkg/clock"
	"groupbuy/internal/pkg/config"
	"groupbuy/internal/reconciler"
	"groupbuy/internal/usecase/commands"
	"groupbuy/internal/usecase/queries"
	"groupbuy/internal/usecase/shared"
	"groupbuy/internal/worker"

	"go.uber.org/fx"
)

var WorkerModule = fx.Module("worker",
	fx.Provide(
		func(offers queries.OfferReadStore) *reconciler.Reconciler {
			return reconciler.New(offers)
		},
		func(offers commands.OfferCommands, uow shared.UnitOfWork, clk clock.Clock, cfg config.Config) *worker.Sweeper {
			return worker.NewSweeper(offers, uow, clk, cfg.Engine.SweepInterval)
		},
	),
	fx.Invoke(
		StartReconciler,
		StartSweeper,
	),
)

func StartReconciler(lc fx.Lifecycle, r *reconciler.Reconciler, source shared.ChangeSource) {
	runInBackground(lc, func(ctx context.Context) {
		if err := r.Run(ctx, source); err != nil {
			slog.Error("reconciler exited", "error", err.Error())
		}
	})
}

func StartSweeper(lc fx.Lifecycle, s *worker.Sweeper) {
	runInBackground(lc, s.Run)
}

// runInBackground starts fn with the app and waits for it on stop.
func runInBackground(lc fx.Lifecycle, fn func(ctx context.Context)) {
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			wg.Add(1)
			go func() {
				defer wg.Done()
				fn(ctx)
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			done := make(chan struct{})
			go func() {
				wg.Wait()
				close(done)
			}()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}
