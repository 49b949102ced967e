// Draw ingestion, enrichment, statistics and prediction pipeline.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/drawsync/pipeline/internal/application/cachemgr"
	"github.com/drawsync/pipeline/internal/application/dailystats"
	"github.com/drawsync/pipeline/internal/application/dedup"
	"github.com/drawsync/pipeline/internal/application/ingest"
	"github.com/drawsync/pipeline/internal/application/lock"
	"github.com/drawsync/pipeline/internal/application/omission"
	"github.com/drawsync/pipeline/internal/application/poller"
	"github.com/drawsync/pipeline/internal/application/prediction"
	"github.com/drawsync/pipeline/internal/application/tracker"
	"github.com/drawsync/pipeline/internal/config"
	"github.com/drawsync/pipeline/internal/domain"
	"github.com/drawsync/pipeline/internal/infrastructure/api/rest"
	"github.com/drawsync/pipeline/internal/infrastructure/cache"
	"github.com/drawsync/pipeline/internal/infrastructure/logger"
	"github.com/drawsync/pipeline/internal/infrastructure/storage"
	"github.com/drawsync/pipeline/internal/infrastructure/tracing"
)

const subscriberBuffer = 64

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load configuration: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.Logging)
	logger.SetDefault(appLogger)

	appLogger.Info("starting pipeline", "port", cfg.Server.Port)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracingProvider, err := tracing.NewProvider(rootCtx, tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		Endpoint:    cfg.Tracing.OTLPEndpoint,
		SampleRate:  cfg.Tracing.SampleRatio,
	})
	if err != nil {
		appLogger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	if tracingProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracingProvider.Shutdown(shutdownCtx); err != nil {
				appLogger.Error("tracing shutdown failed", "error", err)
			}
		}()
	}

	db, err := storage.NewDB(cfg.Database)
	if err != nil {
		appLogger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			appLogger.Error("database close failed", "error", err)
		}
	}()
	appLogger.Info("database connected")

	redisCache, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		appLogger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisCache.Close(); err != nil {
			appLogger.Error("redis close failed", "error", err)
		}
	}()
	appLogger.Info("redis connected")

	health := storage.NewHealthChecker(db, cfg.Database.HealthCheckInterval)
	go health.Run(rootCtx)

	drawRepo := storage.NewDrawRepository(db)
	omissionRepo := storage.NewOmissionRepository(db)
	dailyStatsRepo := storage.NewDailyStatsRepository(db)
	predictionRepo := storage.NewPredictionRepository(db)

	bus := domain.NewBus()
	cacheKeys := cachemgr.NewKeys(cfg.Cache.KeyPrefix)

	seedCtx, seedCancel := context.WithTimeout(rootCtx, 10*time.Second)
	lastIssue, err := drawRepo.LastIssue(seedCtx)
	seedCancel()
	if err != nil {
		appLogger.Error("failed to load last issue", "error", err)
		os.Exit(1)
	}
	drawTracker := tracker.New(lastIssue)
	appLogger.Info("issue tracker seeded", "last_issue", lastIssue)

	dedupStore := dedup.New(redisCache, cfg.Cache.KeyPrefix+"seen:issue:", cfg.Cache.SeenTTL)
	ingestLocker := lock.New(redisCache, cfg.Cache.KeyPrefix+"lock:issue:", cfg.Cache.LockTTL)
	predictionLocker := lock.New(redisCache, cfg.Cache.KeyPrefix+"predict:lock:", cfg.Cache.PredictionLockTTL)

	writer := ingest.NewWriter(drawRepo, bus)
	coordinator := ingest.New(drawTracker, dedupStore, ingestLocker, writer)

	scheduler := poller.NewScheduler(coordinator.Handle)
	for _, src := range cfg.Sources.Sources {
		if src.URL == "" {
			continue
		}
		var source poller.Source
		switch src.Kind {
		case "html":
			source = poller.NewHTMLSource(src.Name, src.URL, src.Selector, src.Timeout)
		default:
			source = poller.NewJSONSource(src.Name, src.URL, src.Timeout)
		}
		if err := scheduler.Add(source, src.PollInterval); err != nil {
			appLogger.Error("failed to register source", "source", src.Name, "error", err)
			os.Exit(1)
		}
		appLogger.Info("source registered", "source", src.Name, "kind", src.Kind, "interval", src.PollInterval)
	}
	scheduler.Start()
	defer scheduler.Stop()

	omissionEngine := omission.New(omissionRepo, drawRepo, cfg.Omission.BootstrapCap, cfg.Omission.BootstrapPageSize)
	bootstrapCtx, bootstrapCancel := context.WithTimeout(rootCtx, 60*time.Second)
	if err := omissionEngine.Bootstrap(bootstrapCtx); err != nil {
		appLogger.Error("omission bootstrap failed", "error", err)
	}
	bootstrapCancel()

	dailyStatsEngine := dailystats.New(dailyStatsRepo, redisCache, cacheKeys, 24*time.Hour)

	llmClient := prediction.NewOpenAIClient(cfg.Prediction.APIKey, cfg.Prediction.BaseURL, cfg.Prediction.Model)
	orchestrator := prediction.New(predictionRepo, drawRepo, llmClient, predictionLocker, bus, cfg.Prediction)
	verifier := prediction.NewVerifier(predictionRepo, bus)

	cacheManager := cachemgr.New(redisCache, cfg.Cache.KeyPrefix)

	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		omissionEngine.Run(rootCtx, bus.SubscribeDrawCommitted(subscriberBuffer))
	}()
	go func() {
		defer wg.Done()
		dailyStatsEngine.Run(rootCtx, bus.SubscribeDrawCommitted(subscriberBuffer))
	}()
	go func() {
		defer wg.Done()
		orchestrator.Run(rootCtx, bus.SubscribeDrawCommitted(subscriberBuffer))
	}()
	go func() {
		defer wg.Done()
		verifier.Run(rootCtx, bus.SubscribeDrawCommitted(subscriberBuffer))
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		cacheManager.Run(rootCtx,
			bus.SubscribeDrawCommitted(subscriberBuffer),
			bus.SubscribePredictionCommitted(subscriberBuffer),
			bus.SubscribeAllPredictionsCommitted(subscriberBuffer),
		)
	}()

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	loggingMiddleware := rest.NewLoggingMiddleware(appLogger)
	recoveryMiddleware := rest.NewRecoveryMiddleware(appLogger)
	bodySizeMiddleware := rest.NewBodySizeMiddleware(appLogger, cfg.Server.MaxBodyBytes)
	rateLimiter := rest.NewRedisRateLimiter(redisCache.Client(), cfg.Redis.KeyPrefix, cfg.Server.RateLimitPerMin, time.Minute, 5*time.Minute)
	router.Use(recoveryMiddleware.Recovery())
	router.Use(loggingMiddleware.RequestLogger())
	router.Use(bodySizeMiddleware.LimitBodySize())
	router.Use(rateLimiter.Middleware())

	if cfg.Server.CORS {
		router.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if c.Request.Method == http.MethodOptions {
				c.AbortWithStatus(http.StatusNoContent)
				return
			}
			c.Next()
		})
	}

	cacheTTLs := rest.CacheTTLs{
		LatestDraws:    cfg.Cache.LatestDrawsTTL,
		Omission:       cfg.Cache.OmissionTTL,
		DailyStats:     cfg.Cache.DailyStatsTTL,
		PredictionList: cfg.Cache.PredictionListTTL,
		WinRate:        cfg.Cache.WinRateTTL,
	}
	handlers := rest.NewHandlers(drawRepo, omissionRepo, dailyStatsRepo, predictionRepo, health, redisCache, redisCache, cacheKeys, cacheTTLs)
	handlers.Register(router)
	appLogger.Info("routes registered")

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		appLogger.Info("http server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		appLogger.Error("server error", "error", err)
		stop()
	case <-rootCtx.Done():
		appLogger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("graceful shutdown failed", "error", err)
		if err := server.Close(); err != nil {
			appLogger.Error("server close failed", "error", err)
		}
	}

	scheduler.Stop()
	wg.Wait()
	appLogger.Info("pipeline stopped")
}
