package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stablecircle/internal/cache"
	"stablecircle/internal/celo"
	"stablecircle/internal/config"
	"stablecircle/internal/db"
	httpServer "stablecircle/internal/http"
	"stablecircle/internal/http/handlers"
	"stablecircle/internal/http/middleware"
	"stablecircle/internal/logger"
	"stablecircle/internal/repository"
	"stablecircle/internal/repository/memory"
	"stablecircle/internal/scheduler"
	"stablecircle/internal/service"
	"stablecircle/internal/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var version = "dev"

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	service.InitJWT(cfg.JWTSecret)

	var store repository.Store
	if cfg.DatabaseURL != "" {
		pool := db.Connect(cfg.DatabaseURL)
		defer pool.Close()
		store = repository.NewPostgres(pool)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory store; data is lost on restart")
		store = memory.New()
	}

	rdb := middleware.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	var stats service.StatsCache
	if rdb != nil {
		defer rdb.Close()
		stats = cache.NewRedisStats(rdb, cfg.StatsCacheTTL)
	} else {
		stats = cache.NewLocalStats(cfg.StatsCacheTTL)
	}

	var (
		transfer service.TokenTransfer
		balance  handlers.TokenBalance
	)
	if cfg.Celo.UseMockTx {
		logger.Warn("USE_MOCK_TX enabled, contributions are not sent on chain")
		mock := celo.NewMockTransfer()
		transfer, balance = mock, mock
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		client, err := celo.Dial(ctx, celo.Options{
			Network:      cfg.Celo.Network,
			RPCURL:       cfg.Celo.RPCURL,
			TokenAddress: cfg.Celo.TokenAddress,
			VaultAddress: cfg.Celo.VaultAddress,
			PrivateKey:   cfg.Celo.PrivateKey,
		})
		cancel()
		if err != nil {
			logger.Fatal("celo client", "error", err)
		}
		transfer, balance = client, client
	}

	audit := service.NewAuditService(store)
	chat := service.NewChatService(store)
	users := service.NewUserService(store, cfg.Ledger, audit, stats)
	hubs := service.NewHubService(store, users, cfg.Ledger, audit, chat, stats)
	ledger := service.NewLedgerService(store, users, transfer, cfg.Ledger, cfg.RecordRetries, audit, chat, stats)
	board := service.NewLeaderboardService(store, cfg.Ledger, stats)

	wsHub := ws.NewHub()
	chat.SetBroadcaster(wsHub)

	reconciler := scheduler.NewReconcileScheduler(ledger, cfg.ReconcileCron)
	if err := reconciler.Start(); err != nil {
		logger.Fatal("reconcile scheduler", "error", err)
	}
	defer reconciler.Stop()

	if cfg.DevMode {
		logger.Warn("DEV_MODE enabled, wallet signatures are not verified")
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.Metrics())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	corsCfg.AllowCredentials = true
	if len(cfg.AllowedOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsCfg.AllowOriginFunc = func(string) bool { return true }
	}
	r.Use(cors.New(corsCfg))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := &handlers.Handler{
		Users:       users,
		Hubs:        hubs,
		Ledger:      ledger,
		Chat:        chat,
		Leaderboard: board,
		Audit:       audit,
		WalletAuth:  service.NewWalletAuthenticator(cfg.AuthMessageTTL, cfg.DevMode),
		Balance:     balance,
		PublicURL:   cfg.PublicURL,
	}
	httpServer.RegisterRoutes(r, h, httpServer.Deps{
		Health:  handlers.NewHealthHandler(store, version),
		WSHub:   wsHub,
		Limiter: middleware.NewRedisLimiter(rdb),
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
