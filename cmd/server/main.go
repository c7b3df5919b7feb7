package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"fploptimizer/internal/api/handlers"
	"fploptimizer/internal/cache"
	"fploptimizer/internal/config"
	"fploptimizer/internal/fpl"
	"fploptimizer/internal/logger"
	"fploptimizer/internal/pipeline"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.LogLevel, cfg.IsDevelopment())
	log := logger.WithComponent("server")
	log.WithFields(logrus.Fields{
		"environment": cfg.Env,
		"port":        cfg.Port,
		"horizon":     cfg.Solver.Horizon,
	}).Info("Starting FPL optimizer service")

	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	// Redis is strongly recommended but not required: without it every
	// request re-fetches and re-projects.
	var store cache.Store = cache.NoopStore{}
	var pinger handlers.Pinger
	redisStore, err := cache.NewRedisStore(ctx, cfg.RedisURL, cfg.CacheTTL, logger.WithComponent("cache"))
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, running without cache")
	} else {
		store = redisStore
		pinger = redisStore
		defer redisStore.Close()
	}

	client := fpl.NewClient(cfg.FPLBaseURL, logger.WithComponent("fpl"))
	pipe := pipeline.New(cfg, client, store, logger.WithComponent("pipeline"))

	// Refresh the snapshot and projections hourly so interactive requests
	// hit a warm cache.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@hourly", func() {
		refreshCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := pipe.Refresh(refreshCtx); err != nil {
			log.WithError(err).Warn("Scheduled refresh failed")
		}
	}); err != nil {
		log.Fatalf("Failed to schedule refresh: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	optimizeHandler := handlers.NewOptimizeHandler(cfg, pipe, logger.WithComponent("api"))
	projectionsHandler := handlers.NewProjectionsHandler(pipe, logger.WithComponent("api"))
	healthHandler := handlers.NewHealthHandler(pinger, logger.WithComponent("api"))

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/optimize", optimizeHandler.Optimize)
		apiV1.GET("/projections", projectionsHandler.List)
	}

	router.GET("/health", healthHandler.GetHealth)
	router.GET("/ready", healthHandler.GetReady)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("FPL optimizer service started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down FPL optimizer service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Service forced to shutdown: %v", err)
	}

	log.Info("FPL optimizer service exited")
}
