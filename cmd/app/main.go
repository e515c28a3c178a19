package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"

	"rps_webapp/internal/config"
	"rps_webapp/internal/db"
	"rps_webapp/internal/events"
	"rps_webapp/internal/game"
	httpServer "rps_webapp/internal/http"
	"rps_webapp/internal/http/handlers"
	"rps_webapp/internal/http/middleware"
	"rps_webapp/internal/logger"
	"rps_webapp/internal/migrations"
	"rps_webapp/internal/repository"
	"rps_webapp/internal/room"
	"rps_webapp/internal/service"
	"rps_webapp/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", "error", err)
	}
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	tokens, err := service.NewTokenService(cfg.JWTSecret, 24*time.Hour)
	if err != nil {
		logger.Fatal("token service", "error", err)
	}

	rules, err := game.LoadRuleset(cfg.RulesetFile)
	if err != nil {
		logger.Fatal("load ruleset", "file", cfg.RulesetFile, "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	checks := map[string]handlers.CheckFunc{}

	// Match history (optional)
	var (
		matches  handlers.MatchStore
		recorder ws.MatchRecorder
	)
	if cfg.DatabaseURL != "" {
		m, err := migrations.New(cfg.DatabaseURL, logger.Component("migrate"))
		if err != nil {
			logger.Fatal("migrations", "error", err)
		}
		if err := m.Up(); err != nil {
			logger.Fatal("migrate up", "error", err)
		}
		if err := m.Close(); err != nil {
			logger.Warn("close migrator", "error", err)
		}

		dbPool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("connect database", "error", err)
		}
		defer dbPool.Close()

		repo := repository.NewMatchRepository(dbPool)
		matches, recorder = repo, repo
		checks["database"] = dbPool.Ping
	} else {
		logger.Warn("DATABASE_URL not set, match history disabled")
	}

	// Rate limiting: shared through Redis, per process otherwise
	var limiter middleware.Limiter
	if cfg.RedisAddr != "" {
		client, err := middleware.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Warn("redis unavailable, using in-memory rate limiter", "error", err)
		} else {
			defer client.Close()
			limiter = middleware.NewRedisLimiter(client)
			checks["redis"] = redisCheck(client)
		}
	}
	if limiter == nil {
		mem := middleware.NewMemoryLimiter()
		go pruneLimiter(ctx, mem, max(cfg.APIRateWindow, cfg.WSRateWindow))
		limiter = mem
	}

	// Events (optional)
	var publisher events.Publisher = events.Nop{}
	if cfg.NatsURL != "" {
		p, err := events.NewNATSPublisher(cfg.NatsURL, logger.Component("events"))
		if err != nil {
			logger.Warn("nats unavailable, events disabled", "error", err)
		} else {
			publisher = p
		}
	}
	defer publisher.Close()

	// Rooms
	retention := room.RetainEvict
	var idleTTL time.Duration
	if cfg.RoomRetention == config.RetentionPersist {
		retention = room.RetainPersist
		idleTTL = cfg.RoomIdleTTL
	}

	gateway := ws.NewGateway(ws.Options{
		Coordinator: room.NewCoordinator(room.Options{Ruleset: rules, Retention: retention}),
		Recorder:    recorder,
		Publisher:   publisher,
		Logger:      logger.Component("gateway"),
		IdleTTL:     idleTTL,
	})
	gatewayDone := make(chan struct{})
	go func() {
		gateway.Run(ctx)
		close(gatewayDone)
	}()

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	// CORS for production (frontend on different domain)
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" && (cfg.AllowedOrigin == "" || origin == cfg.AllowedOrigin) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	httpServer.RegisterRoutes(r, httpServer.Deps{
		Handler:       handlers.NewHandler(matches, gateway, tokens, service.NewGuestID),
		Health:        handlers.NewHealthHandler(cfg.Version, checks),
		Gateway:       gateway,
		Tokens:        tokens,
		Limiter:       limiter,
		API:           httpServer.RateLimit{Max: cfg.APIRateLimit, Window: cfg.APIRateWindow},
		WS:            httpServer.RateLimit{Max: cfg.WSRateLimit, Window: cfg.WSRateWindow},
		AllowedOrigin: cfg.AllowedOrigin,
		StaticDir:     cfg.StaticDir,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "retention", cfg.RoomRetention, "moves", rules.Moves())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	// the gateway closes every socket and flushes pending match writes
	<-gatewayDone
	logger.Info("server exited")
}

func redisCheck(client *redis.Client) handlers.CheckFunc {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}

func pruneLimiter(ctx context.Context, m *middleware.MemoryLimiter, window time.Duration) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Prune(window)
		}
	}
}

