package components

import (
	"groupbuy/internal/handler"
	"groupbuy/internal/handler/api"
	"groupbuy/internal/handler/middleware"
	"groupbuy/internal/pkg/jwt"
	"groupbuy/internal/reconciler"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewAuthHandler,
		api.NewOfferHandler,
		api.NewReservationHandler,
		api.NewValidationHandler,
		api.NewPointsHandler,
		api.NewLiveHandler,
		func(r *reconciler.Reconciler) api.OfferWatcher { return r },
		func(s *jwt.Service) middleware.TokenValidator { return s },
		middleware.NewAuthMiddleware,
	),
	fx.Invoke(handler.NewRouter),
)
