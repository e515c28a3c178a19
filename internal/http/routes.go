package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"rps_webapp/internal/http/handlers"
	"rps_webapp/internal/http/middleware"
	"rps_webapp/internal/ws"
)

// RateLimit is a request budget per identity
type RateLimit struct {
	Max    int
	Window time.Duration
}

type Deps struct {
	Handler *handlers.Handler
	Health  *handlers.HealthHandler
	Gateway *ws.Gateway
	Tokens  middleware.TokenParser
	// Limiter is Redis when configured, in-memory otherwise
	Limiter       middleware.Limiter
	API           RateLimit
	WS            RateLimit
	AllowedOrigin string
	StaticDir     string
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health checks (no rate limiting)
	r.GET("/health", d.Health.Health)
	r.GET("/healthz", d.Health.Liveness)
	r.GET("/readyz", d.Health.Readiness)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.RateLimit(d.Limiter, "api", d.API.Max, d.API.Window))
	{
		v1.POST("/auth/guest", d.Handler.Guest)
		v1.GET("/me/matches", middleware.JWT(d.Tokens), d.Handler.MyMatches)
		v1.GET("/stats", d.Handler.Stats)
		v1.GET("/rooms", d.Handler.ListRooms)
	}

	// WebSocket for rooms
	r.GET("/ws", middleware.RateLimit(d.Limiter, "ws", d.WS.Max, d.WS.Window), ws.HandleWS(d.Gateway, d.Tokens, d.AllowedOrigin))

	// Frontend static files
	if d.StaticDir != "" {
		r.Static("/assets", d.StaticDir+"/assets")
		r.StaticFile("/", d.StaticDir+"/index.html")
		r.NoRoute(func(c *gin.Context) {
			c.File(d.StaticDir + "/index.html")
		})
	}
}
