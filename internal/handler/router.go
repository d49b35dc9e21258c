package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/fx"

	"groupbuy/internal/domain/user"
	"groupbuy/internal/handler/api"
	"groupbuy/internal/handler/middleware"
	"groupbuy/internal/pkg/config"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

type Handlers struct {
	fx.In

	Auth        *api.AuthHandler
	Offer       *api.OfferHandler
	Reservation *api.ReservationHandler
	Validation  *api.ValidationHandler
	Points      *api.PointsHandler
	Live        *api.LiveHandler
}

func NewRouter(engine *gin.Engine, cfg config.Config, logger *middleware.Logger, h Handlers, authMiddleware *middleware.AuthMiddleware) {
	setupMiddleware(engine, cfg, logger)
	setupRoutes(engine, h, authMiddleware)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config, logger *middleware.Logger) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	if cfg.Metrics.Enabled {
		// Also serves /metrics from the default registry.
		ginprometheus.NewPrometheus("gin").Use(engine)
	}
	engine.Use(middleware.LoggingMiddleware(logger))
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(engine *gin.Engine, h Handlers, authMiddleware *middleware.AuthMiddleware) {
	engine.GET("/health", healthCheck)

	if gin.Mode() == gin.DebugMode {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	requireAuth := authMiddleware.RequireAuth()
	merchantOnly := authMiddleware.RequireRole(user.RoleMerchant)
	shopperOnly := authMiddleware.RequireRole(user.RoleShopper)

	apiGroup := engine.Group("/api")
	{
		auth := apiGroup.Group("/auth")
		{
			addRoutes(auth, []route{
				{Method: http.MethodPost, Path: "/login", Handler: h.Auth.Login},
			})

			authRequired := auth.Group("")
			authRequired.Use(requireAuth)
			addRoutes(authRequired, []route{
				{Method: http.MethodPost, Path: "/logout", Handler: h.Auth.Logout},
				{Method: http.MethodGet, Path: "/me", Handler: h.Auth.Me},
			})
		}

		offers := apiGroup.Group("/offers")
		offers.Use(authMiddleware.OptionalAuth())
		{
			addRoutes(offers, []route{
				{Method: http.MethodGet, Path: "", Handler: h.Offer.List},
				{Method: http.MethodGet, Path: "/:id", Handler: h.Offer.Get},
				{Method: http.MethodGet, Path: "/:id/live", Handler: h.Live.Stream},
				{Method: http.MethodPost, Path: "", Handler: h.Offer.Create, Mw: []gin.HandlerFunc{requireAuth, merchantOnly}},
				{Method: http.MethodGet, Path: "/:id/reservations", Handler: h.Offer.ListReservations, Mw: []gin.HandlerFunc{requireAuth, merchantOnly}},
				{Method: http.MethodPost, Path: "/:id/reservations", Handler: h.Reservation.Reserve, Mw: []gin.HandlerFunc{requireAuth, shopperOnly}},
				{Method: http.MethodGet, Path: "/:id/reservations/mine", Handler: h.Reservation.GetMine, Mw: []gin.HandlerFunc{requireAuth}},
				{Method: http.MethodDelete, Path: "/:id/reservations/mine", Handler: h.Reservation.Cancel, Mw: []gin.HandlerFunc{requireAuth, shopperOnly}},
			})
		}

		reservations := apiGroup.Group("/reservations")
		reservations.Use(requireAuth)
		{
			addRoutes(reservations, []route{
				{Method: http.MethodGet, Path: "", Handler: h.Reservation.ListMine},
				{Method: http.MethodGet, Path: "/:id/qr.png", Handler: h.Reservation.QRCode},
			})
		}

		validations := apiGroup.Group("/validations")
		validations.Use(requireAuth, merchantOnly)
		{
			addRoutes(validations, []route{
				{Method: http.MethodPost, Path: "", Handler: h.Validation.Validate},
			})
		}

		pts := apiGroup.Group("/points")
		pts.Use(requireAuth)
		{
			addRoutes(pts, []route{
				{Method: http.MethodGet, Path: "", Handler: h.Points.Balance},
				{Method: http.MethodPost, Path: "/share", Handler: h.Points.Share},
				{Method: http.MethodPost, Path: "/daily-open", Handler: h.Points.DailyOpen},
			})
		}
	}
}

// @Summary Health check
// @Description Check if the service is healthy
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
