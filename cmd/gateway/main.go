package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/TweetMood/internal/config"
	"github.com/Alias1177/TweetMood/internal/logger"
	"github.com/Alias1177/TweetMood/internal/monitoring"
	"github.com/Alias1177/TweetMood/internal/proxy"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	logger.Setup(cfg.LogLevel, cfg.LogPretty)

	gin.SetMode(gin.ReleaseMode)
	router := newRouter(cfg)

	srv := &http.Server{
		Addr:              cfg.GatewayAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", cfg.GatewayAddr).
			Str("prefix", cfg.ProxyPrefix).
			Str("upstream", cfg.UpstreamURL).
			Msg("Starting gateway")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// ждём сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Gateway shutdown failed")
	}
	log.Info().Msg("Gateway stopped")
}

func newRouter(cfg *config.Config) *gin.Engine {
	metrics := monitoring.NewMetricsCollector("tweetmood-gateway")

	gateway, err := proxy.New(cfg.UpstreamURL, proxy.Options{
		Prefix:  cfg.ProxyPrefix,
		Timeout: cfg.RequestTimeout,
		Metrics: metrics,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid upstream configuration")
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		monitoring.RequestIDMiddleware(),
		monitoring.LoggingMiddleware(logger.Component("gateway")),
		metrics.MetricsMiddleware(),
	)

	// Add a simple health check endpoint
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", metrics.Handler())

	gateway.Register(router)
	return router
}
