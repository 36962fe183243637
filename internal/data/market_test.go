package data

import (
	"context"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"appchain-calc/internal/model"

	"github.com/stretchr/testify/assert"
)

type fixedPrices struct {
	res   PriceResult
	delay time.Duration
}

func (f fixedPrices) Fetch(context.Context) PriceResult {
	time.Sleep(f.delay)
	return f.res
}

type fixedFees struct {
	res   FeeData
	delay time.Duration
}

func (f fixedFees) Fetch(context.Context) FeeData {
	time.Sleep(f.delay)
	return f.res
}

func TestMarketService_Snapshot(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := NewMarketService(
		fixedPrices{res: PriceResult{EthPrice: 3600, TiaPrice: 6, Source: SourceKuCoin}},
		fixedFees{res: FeeData{EthBaseFee: 7, BlobMarketPrice: 8, TiaGasPrice: 0.002}},
		nil,
	)
	svc.now = func() time.Time { return ts }

	assert.Equal(t, model.MarketData{
		EthPrice:        3600,
		TiaPrice:        6,
		Source:          SourceKuCoin,
		EthBaseFee:      7,
		BlobMarketPrice: 8,
		TiaGasPrice:     0.002,
		LastUpdated:     ts,
	}, svc.Snapshot(context.Background()))
}

func TestMarketService_SnapshotIsSanitized(t *testing.T) {
	svc := NewMarketService(
		fixedPrices{res: PriceResult{EthPrice: math.NaN(), TiaPrice: 6, Source: SourceOKX}},
		fixedFees{res: FeeData{EthBaseFee: 7, BlobMarketPrice: 8, TiaGasPrice: math.NaN()}},
		nil,
	)

	md := svc.Snapshot(context.Background())
	assert.Equal(t, model.DefaultEthPrice, md.EthPrice)
	assert.Equal(t, model.DefaultTiaGasPrice, md.TiaGasPrice)
	assert.Equal(t, SourceOKX, md.Source)
}

func TestMarketService_FetchesConcurrently(t *testing.T) {
	svc := NewMarketService(
		fixedPrices{res: FallbackPrices(), delay: 150 * time.Millisecond},
		fixedFees{res: DefaultFeeData(), delay: 150 * time.Millisecond},
		nil,
	)
	start := time.Now()
	md := svc.Snapshot(context.Background())
	assert.Less(t, time.Since(start), 290*time.Millisecond)
	assert.True(t, md.IsFallback())
	assert.Equal(t, uint64(model.DefaultEthBaseFee), md.EthBaseFee)
}

type countingSnapshotter struct {
	calls atomic.Int32
	delay time.Duration
}

func (c *countingSnapshotter) Snapshot(context.Context) model.MarketData {
	c.calls.Add(1)
	time.Sleep(c.delay)
	md := model.DefaultMarketData()
	md.Source = SourceBinance
	return md
}

func TestCachedMarket_ReusesSnapshot(t *testing.T) {
	src := &countingSnapshotter{}
	cache := NewMemoryCache(time.Minute)
	defer cache.Close()
	m := NewCachedMarket(src, cache, nil)

	first := m.Snapshot(context.Background())
	second := m.Snapshot(context.Background())
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), src.calls.Load())

	cache.Clear()
	m.Snapshot(context.Background())
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestCachedMarket_CollapsesConcurrentMisses(t *testing.T) {
	src := &countingSnapshotter{delay: 100 * time.Millisecond}
	cache := NewMemoryCache(time.Minute)
	defer cache.Close()
	m := NewCachedMarket(src, cache, nil)

	done := make(chan model.MarketData, 8)
	for i := 0; i < 8; i++ {
		go func() { done <- m.Snapshot(context.Background()) }()
	}
	for i := 0; i < 8; i++ {
		assert.Equal(t, SourceBinance, (<-done).Source)
	}
	assert.LessOrEqual(t, src.calls.Load(), int32(2))
}

func TestCachedMarket_CancelledCallerStillRefreshes(t *testing.T) {
	src := &countingSnapshotter{}
	cache := NewMemoryCache(time.Minute)
	defer cache.Close()
	m := NewCachedMarket(src, cache, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	md := m.Snapshot(ctx)
	assert.Equal(t, SourceBinance, md.Source)

	_, ok := cache.Get(context.Background())
	assert.True(t, ok)
}
