package model

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func f(v float64) *float64 { return &v }

func TestNewMarketData_Sanitizes(t *testing.T) {
	md := NewMarketData(RawMarketData{
		EthPrice:        f(3100.5),
		TiaPrice:        f(math.NaN()),
		EthBaseFee:      f(-12),
		BlobMarketPrice: f(1234.99),
		TiaGasPrice:     f(math.NaN()),
	})

	assert.Equal(t, 3100.5, md.EthPrice)
	assert.Equal(t, DefaultTiaPrice, md.TiaPrice)
	assert.Equal(t, uint64(0), md.EthBaseFee)
	assert.Equal(t, uint64(1234), md.BlobMarketPrice)
	assert.Equal(t, DefaultTiaGasPrice, md.TiaGasPrice)
	assert.Equal(t, SourceManual, md.Source)
	assert.False(t, md.LastUpdated.IsZero())
}

func TestNewMarketData_MissingFields(t *testing.T) {
	md := NewMarketData(RawMarketData{Source: "Binance"})

	assert.Equal(t, DefaultEthPrice, md.EthPrice)
	assert.Equal(t, DefaultTiaPrice, md.TiaPrice)
	assert.Equal(t, uint64(0), md.EthBaseFee)
	assert.Equal(t, uint64(0), md.BlobMarketPrice)
	assert.Equal(t, DefaultTiaGasPrice, md.TiaGasPrice)
	assert.Equal(t, "Binance", md.Source)
}

func TestMarketData_Sanitize(t *testing.T) {
	md := MarketData{
		EthPrice:        math.Inf(1),
		TiaPrice:        6,
		EthBaseFee:      7,
		BlobMarketPrice: 8,
		TiaGasPrice:     math.NaN(),
	}.Sanitize()

	assert.Equal(t, DefaultEthPrice, md.EthPrice)
	assert.Equal(t, 6.0, md.TiaPrice)
	assert.Equal(t, uint64(7), md.EthBaseFee)
	assert.Equal(t, uint64(8), md.BlobMarketPrice)
	assert.Equal(t, DefaultTiaGasPrice, md.TiaGasPrice)
	assert.Equal(t, SourceManual, md.Source)
	assert.Equal(t, time.UTC, md.LastUpdated.Location())
	assert.False(t, md.LastUpdated.IsZero())
}

func TestMarketData_RawRoundTrip(t *testing.T) {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	in := MarketData{
		EthPrice:        3500,
		TiaPrice:        5,
		Source:          "OKX",
		EthBaseFee:      15_000_000_000,
		BlobMarketPrice: 1,
		TiaGasPrice:     0.002,
		LastUpdated:     ts,
	}
	assert.Equal(t, in, NewMarketData(in.Raw()))
}

func TestWeiFromFloat(t *testing.T) {
	assert.Equal(t, uint64(0), WeiFromFloat(nil))
	assert.Equal(t, uint64(0), WeiFromFloat(f(math.NaN())))
	assert.Equal(t, uint64(0), WeiFromFloat(f(-1)))
	assert.Equal(t, uint64(7), WeiFromFloat(f(7.9)))
	assert.Equal(t, uint64(math.MaxUint64), WeiFromFloat(f(1e30)))
}

func TestDefaultMarketData(t *testing.T) {
	md := DefaultMarketData()
	assert.True(t, md.IsFallback())
	assert.Equal(t, uint64(15_000_000_000), md.EthBaseFee)
	assert.Equal(t, uint64(1_000_000_000), md.BlobMarketPrice)
	assert.Equal(t, 0.004, md.TiaGasPrice)
}

func TestParseSettlementModel(t *testing.T) {
	m, err := ParseSettlementModel("")
	assert.NoError(t, err)
	assert.Equal(t, SettlementBatch, m)

	m, err = ParseSettlementModel("revenue_share")
	assert.NoError(t, err)
	assert.Equal(t, SettlementRevenueShare, m)

	_, err = ParseSettlementModel("vibes")
	assert.Error(t, err)
}
