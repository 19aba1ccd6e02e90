package http

import (
	"time"

	"stablecircle/internal/config"
	"stablecircle/internal/http/handlers"
	"stablecircle/internal/http/middleware"
	"stablecircle/internal/ws"

	"github.com/gin-gonic/gin"
)

// Deps groups what the router needs beyond the API handler.
type Deps struct {
	Health  *handlers.HealthHandler
	WSHub   *ws.Hub
	Limiter *middleware.RedisLimiter
}

func RegisterRoutes(r *gin.Engine, h *handlers.Handler, deps Deps, cfg *config.Config) {
	// Health checks (no rate limiting)
	r.GET("/health", deps.Health.Health)
	r.GET("/healthz", deps.Health.Liveness)
	r.GET("/readyz", deps.Health.Readiness)

	apiWindow := time.Duration(cfg.APIRateWindow) * time.Second
	contributeRL := middleware.RateLimit(deps.Limiter, "contribute", cfg.ContributeRateLimit,
		time.Duration(cfg.ContributeRateWindow)*time.Second, middleware.ByWallet)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.RateLimit(deps.Limiter, "api", cfg.APIRateLimit, apiWindow, middleware.ByIP))
	registerAPIRoutes(v1, h, contributeRL)

	// Legacy /api routes for older clients
	api := r.Group("/api")
	api.Use(middleware.RateLimit(deps.Limiter, "api", cfg.APIRateLimit, apiWindow, middleware.ByIP))
	registerAPIRoutes(api, h, contributeRL)

	r.GET("/ws", ws.HandleWS(deps.WSHub, h.Chat, cfg.AllowedOrigins))
}

func registerAPIRoutes(api *gin.RouterGroup, h *handlers.Handler, contributeRL gin.HandlerFunc) {
	// Auth
	api.GET("/auth/message", h.SignInMessage)
	api.POST("/auth", h.Auth)

	me := api.Group("/me", middleware.JWT())
	{
		me.GET("", h.Me)
		me.GET("/hubs", h.MyHubs)
		me.GET("/balance", h.MyBalance)
		me.PUT("/anonymous", h.SetAnonymous)
	}

	api.POST("/users", middleware.JWT(), h.RegisterUser)
	api.GET("/users/:wallet", h.GetUser)
	api.GET("/users/:wallet/hubs", h.GetUserHubs)
	api.GET("/users/:wallet/contributions", h.GetUserContributions)

	hubs := api.Group("/hubs")
	{
		hubs.POST("", middleware.JWT(), h.CreateHub)
		hubs.POST("/join", middleware.JWT(), h.JoinHub)
		hubs.GET("/invite/:code", h.GetHubByInvite)
		hubs.GET("/:id", h.GetHub)
		hubs.GET("/:id/contributions", h.HubContributions)
		hubs.GET("/:id/rotation", h.HubRotation)
		hubs.GET("/:id/messages", h.HubMessages)
	}

	api.POST("/contributions", middleware.JWT(), contributeRL, h.Contribute)

	api.GET("/leaderboard", h.GetLeaderboard)
	api.GET("/stats", h.GetStats)
	api.GET("/referral", middleware.JWT(), h.GetReferral)
}
