package components

import (
	"groupbuy/internal/pkg/clock"
	"groupbuy/internal/pkg/config"
	"groupbuy/internal/pkg/metrics"
	"groupbuy/internal/usecase/commands"
	"groupbuy/internal/usecase/queries"
	"groupbuy/internal/usecase/shared"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseQueriesModule,
	usecaseCommandsModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewAuthCommands,
		func(uow shared.UnitOfWork, clk clock.Clock, m *metrics.Engine, cfg config.Config) commands.OfferCommands {
			return commands.NewOfferCommands(uow, clk, m, cfg.Engine.SweepBatchSize)
		},
		func(uow shared.UnitOfWork, clk clock.Clock, m *metrics.Engine, cfg config.Config) commands.ReservationCommands {
			return commands.NewReservationCommands(uow, clk, m, cfg.Engine.IdempotencyTTL)
		},
		func(uow shared.UnitOfWork, cache shared.TokenCache, clk clock.Clock, m *metrics.Engine, cfg config.Config) commands.ValidationCommands {
			return commands.NewValidationCommands(uow, cache, clk, m, cfg.Engine.QRCacheTTL)
		},
		func(uow shared.UnitOfWork, clk clock.Clock, m *metrics.Engine, cfg config.Config) commands.PointsCommands {
			return commands.NewPointsCommands(uow, clk, m, cfg.Engine.DayLocation())
		},
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewUserQueries,
		queries.NewOfferQueries,
		queries.NewReservationQueries,
	),
)
