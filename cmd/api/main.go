package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"appchain-calc/internal/api"
	"appchain-calc/internal/app"
	"appchain-calc/internal/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(config.Path(""))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := app.NewLogger(cfg.Server.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	market, err := app.NewMarket(cfg, logger)
	if err != nil {
		logger.Fatal("[API] market pipeline", zap.Error(err))
	}
	defer market.Close()

	router := api.NewRouter(api.Deps{
		Market:     market,
		Presets:    cfg.PresetMap(),
		Settlement: cfg.Settlement(),
		Logger:     logger,
	})

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		// Cold snapshots can wait on every price provider in turn.
		WriteTimeout: cfg.Timeouts.PriceSource*time.Duration(len(cfg.Sources.Providers)+1) + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("[API] listening", zap.String("addr", srv.Addr), zap.String("env", cfg.Server.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("[API] server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("[API] shutting down")
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("[API] shutdown error", zap.Error(err))
	}
}
