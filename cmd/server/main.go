package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"hero-server/internal/api"
	authapp "hero-server/internal/app/auth"
	"hero-server/internal/app/feed"
	herosvc "hero-server/internal/app/hero"
	"hero-server/internal/platform/cache"
	"hero-server/internal/platform/config"
	"hero-server/internal/platform/mq"
	"hero-server/internal/platform/observability"
	"hero-server/internal/storage/rediscache"
)

func main() {
	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := observability.NewLogger(cfg.Env)

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.OTLPEndpoint, "hero-server")
	if err != nil {
		logger.Fatal().Err(err).Msg("tracing setup failed")
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("store", cfg.Store).Msg("hero store unavailable")
	}
	defer closeStore()
	logger.Info().Str("store", cfg.Store).Msg("hero store ready")

	var redisClient *redis.Client
	redisClient, err = cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	switch {
	case errors.Is(err, cache.ErrDisabled):
		redisClient = nil
	case err != nil:
		logger.Warn().Err(err).Msg("redis unavailable; continuing without cache")
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	repo := rediscache.Wrap(store, redisClient, cfg.HeroCacheTTL, logger)

	publisher := mq.NewNoopPublisher()
	if cfg.NATSURL != "" {
		publisher, err = mq.NewPublisher(cfg.NATSURL, cfg.NATSPrefix)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable; using noop publisher")
			publisher = mq.NewNoopPublisher()
		}
	}
	hub := feed.NewHub(logger)
	events := mq.Fanout(publisher, hub)
	defer events.Close()

	authSvc := authapp.NewService(cfg.JWTSecret, cfg.JWTTTL)
	if !authSvc.Enabled() {
		logger.Warn().Msg("JWT_SECRET not set; hero writes are unauthenticated")
	}
	heroSvc := herosvc.NewService(repo, events, logger)

	handler := api.NewHandler(logger, heroSvc, authSvc, hub, store.Ping, cfg.CorsOrigin, cfg.MaxRequestBody)
	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handler.Router(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	<-sigCh
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("tracing shutdown failed")
	}
	logger.Info().Msg("server stopped")
}
