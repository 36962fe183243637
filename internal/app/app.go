// Package app builds the market data pipeline from configuration. Both the
// API server and the CLI go through it.
package app

import (
	"fmt"

	"appchain-calc/internal/config"
	"appchain-calc/internal/data"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Market is a cached snapshot source plus the resources behind it.
type Market struct {
	data.Snapshotter
	cleanup []func()
}

// Close releases clients and background goroutines in reverse order.
func (m *Market) Close() {
	for i := len(m.cleanup) - 1; i >= 0; i-- {
		m.cleanup[i]()
	}
	m.cleanup = nil
}

// NewMarket wires providers, the fee oracle and the snapshot cache. With
// cache.redis_url set the snapshot is shared through Redis; otherwise it is
// held in process.
func NewMarket(cfg *config.Config, logger *zap.Logger) (*Market, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Market{}

	client := data.NewHTTPClient(cfg.Timeouts.PriceSource)
	providers, err := data.NewProviders(cfg.Sources.Providers, cfg.Sources.ProviderURLs, client)
	if err != nil {
		return nil, err
	}
	prices := data.NewPriceAggregator(providers, cfg.Timeouts.PriceSource, logger)

	oracle, err := data.NewFeeOracle(cfg.Sources.EthRPCURL, cfg.Sources.CelestiaGasURL, nil, cfg.Timeouts.FeeQuery, logger)
	if err != nil {
		return nil, fmt.Errorf("fee oracle: %w", err)
	}
	m.cleanup = append(m.cleanup, oracle.Close)

	svc := data.NewMarketService(prices, oracle, logger)

	var store data.SnapshotStore
	if cfg.Cache.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.Cache.RedisURL)
		if err != nil {
			m.Close()
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		rdb := redis.NewClient(opt)
		m.cleanup = append(m.cleanup, func() { _ = rdb.Close() })
		store = data.NewRedisCache(rdb, cfg.Cache.TTL, logger)
		logger.Info("[Cache] redis snapshot cache enabled", zap.String("addr", opt.Addr))
	} else {
		mem := data.NewMemoryCache(cfg.Cache.TTL)
		m.cleanup = append(m.cleanup, mem.Close)
		store = mem
	}

	m.Snapshotter = data.NewCachedMarket(svc, store, logger)
	logger.Info("[Market] pipeline ready",
		zap.Strings("providers", prices.Providers()),
		zap.String("ethRpc", cfg.Sources.EthRPCURL),
		zap.String("celestiaGas", cfg.Sources.CelestiaGasURL),
		zap.Duration("cacheTTL", cfg.Cache.TTL),
	)
	return m, nil
}

// NewLogger returns a production logger for env "production" and a
// development logger otherwise.
func NewLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
