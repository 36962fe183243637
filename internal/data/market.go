package data

import (
	"context"
	"time"

	"appchain-calc/internal/model"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// PriceSource supplies the price half of a snapshot.
type PriceSource interface {
	Fetch(ctx context.Context) PriceResult
}

// FeeSource supplies the fee half of a snapshot.
type FeeSource interface {
	Fetch(ctx context.Context) FeeData
}

// MarketService assembles complete market snapshots from a price source and
// a fee source. Both always answer (possibly with defaults), so neither can
// fail a snapshot.
type MarketService struct {
	prices PriceSource
	fees   FeeSource
	now    func() time.Time
	log    *zap.Logger
}

// NewMarketService wires the two halves together.
func NewMarketService(prices PriceSource, fees FeeSource, logger *zap.Logger) *MarketService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarketService{
		prices: prices,
		fees:   fees,
		now:    time.Now,
		log:    logger,
	}
}

// Snapshot fetches prices and fees concurrently and returns a fresh,
// fully populated MarketData.
func (s *MarketService) Snapshot(ctx context.Context) model.MarketData {
	var (
		pr PriceResult
		fd FeeData
		g  errgroup.Group
	)
	g.Go(func() error {
		pr = s.prices.Fetch(ctx)
		return nil
	})
	g.Go(func() error {
		fd = s.fees.Fetch(ctx)
		return nil
	})
	_ = g.Wait()

	md := model.MarketData{
		EthPrice:        pr.EthPrice,
		TiaPrice:        pr.TiaPrice,
		Source:          pr.Source,
		EthBaseFee:      fd.EthBaseFee,
		BlobMarketPrice: fd.BlobMarketPrice,
		TiaGasPrice:     fd.TiaGasPrice,
		LastUpdated:     s.now(),
	}.Sanitize()
	s.log.Info("[Market] snapshot assembled",
		zap.String("source", md.Source),
		zap.Float64("ethPrice", md.EthPrice),
		zap.Float64("tiaPrice", md.TiaPrice),
		zap.Uint64("ethBaseFee", md.EthBaseFee),
		zap.Uint64("blobMarketPrice", md.BlobMarketPrice),
		zap.Float64("tiaGasPrice", md.TiaGasPrice),
	)
	return md
}
