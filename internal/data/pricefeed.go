package data

import (
	"context"
	"time"

	"appchain-calc/internal/metrics"
	"appchain-calc/internal/model"

	"go.uber.org/zap"
)

// DefaultPriceSourceTimeout bounds one provider attempt (two quotes).
const DefaultPriceSourceTimeout = 30 * time.Second

// Quotes is one provider's USD price pair.
type Quotes struct {
	ETH float64
	TIA float64
}

// QuoteProvider fetches both asset prices from a single market.
// Implementations own their response parsing and must treat an empty or
// malformed payload as an error.
type QuoteProvider interface {
	Name() string
	FetchQuotes(ctx context.Context) (Quotes, error)
}

// PriceResult is the aggregator output. Source names the provider that
// answered, or model.SourceFallback.
type PriceResult struct {
	EthPrice float64 `json:"ethPrice"`
	TiaPrice float64 `json:"tiaPrice"`
	Source   string  `json:"source"`
}

// FallbackPrices is returned when every provider fails.
func FallbackPrices() PriceResult {
	return PriceResult{
		EthPrice: model.DefaultEthPrice,
		TiaPrice: model.DefaultTiaPrice,
		Source:   model.SourceFallback,
	}
}

// PriceAggregator tries providers one at a time in priority order and
// returns the first complete answer.
type PriceAggregator struct {
	providers []QuoteProvider
	timeout   time.Duration
	log       *zap.Logger
}

// NewPriceAggregator creates an aggregator. A zero timeout selects
// DefaultPriceSourceTimeout.
func NewPriceAggregator(providers []QuoteProvider, timeout time.Duration, logger *zap.Logger) *PriceAggregator {
	if timeout <= 0 {
		timeout = DefaultPriceSourceTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PriceAggregator{
		providers: providers,
		timeout:   timeout,
		log:       logger,
	}
}

// Providers returns the provider names in the order they are tried.
func (a *PriceAggregator) Providers() []string {
	names := make([]string, 0, len(a.providers))
	for _, p := range a.providers {
		names = append(names, p.Name())
	}
	return names
}

// Fetch never fails: provider errors are logged and the next provider is
// tried; if none succeeds the static fallback prices are returned.
func (a *PriceAggregator) Fetch(ctx context.Context) PriceResult {
	a.log.Debug("[PriceFeed] fetching token prices", zap.Strings("providers", a.Providers()))

	for _, p := range a.providers {
		q, err := a.attempt(ctx, p)
		if err != nil {
			a.log.Warn("[PriceFeed] source failed",
				zap.String("source", p.Name()),
				zap.Error(err),
			)
			metrics.PriceSourceAttempts.WithLabelValues(p.Name(), metrics.OutcomeFailure).Inc()
			continue
		}
		metrics.PriceSourceAttempts.WithLabelValues(p.Name(), metrics.OutcomeSuccess).Inc()
		a.log.Info("[PriceFeed] source succeeded",
			zap.String("source", p.Name()),
			zap.Float64("eth", q.ETH),
			zap.Float64("tia", q.TIA),
		)
		return PriceResult{EthPrice: q.ETH, TiaPrice: q.TIA, Source: p.Name()}
	}

	a.log.Warn("[PriceFeed] all sources failed, using fallback prices")
	metrics.PriceFallbacks.Inc()
	return FallbackPrices()
}

func (a *PriceAggregator) attempt(ctx context.Context, p QuoteProvider) (Quotes, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	q, err := p.FetchQuotes(ctx)
	metrics.PriceSourceLatency.WithLabelValues(p.Name()).Observe(time.Since(start).Seconds())
	return q, err
}
