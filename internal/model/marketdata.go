package model

import (
	"math"
	"time"
)

// Static defaults used whenever a live value is unavailable.
const (
	DefaultEthPrice        = 3500.0
	DefaultTiaPrice        = 5.0
	DefaultEthBaseFee      = 15 * WeiPerGwei
	DefaultBlobMarketPrice = 1 * WeiPerGwei
	DefaultTiaGasPrice     = 0.004

	// SourceFallback marks prices that came from the static defaults rather
	// than any market.
	SourceFallback = "Fallback (Final)"
	// SourceManual marks caller-supplied market data.
	SourceManual = "Manual"
)

// MarketData is a fully populated snapshot of prices and fee parameters.
// Values are sanitized on construction; treat a MarketData as immutable.
//
// Units:
// - EthPrice, TiaPrice: USD
// - EthBaseFee, BlobMarketPrice: wei per gas
// - TiaGasPrice: utia per gas
type MarketData struct {
	EthPrice        float64   `json:"ethPrice"`
	TiaPrice        float64   `json:"tiaPrice"`
	Source          string    `json:"source"`
	EthBaseFee      uint64    `json:"ethBaseFee"`
	BlobMarketPrice uint64    `json:"blobMarketPrice"`
	TiaGasPrice     float64   `json:"tiaGasPrice"`
	LastUpdated     time.Time `json:"lastUpdated"`
}

// RawMarketData is the loosely typed shape callers send. Any field may be
// missing, fractional, negative or NaN.
type RawMarketData struct {
	EthPrice        *float64   `json:"ethPrice,omitempty" yaml:"eth_price"`
	TiaPrice        *float64   `json:"tiaPrice,omitempty" yaml:"tia_price"`
	Source          string     `json:"source,omitempty" yaml:"source"`
	EthBaseFee      *float64   `json:"ethBaseFee,omitempty" yaml:"eth_base_fee"`
	BlobMarketPrice *float64   `json:"blobMarketPrice,omitempty" yaml:"blob_market_price"`
	TiaGasPrice     *float64   `json:"tiaGasPrice,omitempty" yaml:"tia_gas_price"`
	LastUpdated     *time.Time `json:"lastUpdated,omitempty" yaml:"last_updated"`
}

// DefaultMarketData returns the last-resort snapshot.
func DefaultMarketData() MarketData {
	return MarketData{
		EthPrice:        DefaultEthPrice,
		TiaPrice:        DefaultTiaPrice,
		Source:          SourceFallback,
		EthBaseFee:      DefaultEthBaseFee,
		BlobMarketPrice: DefaultBlobMarketPrice,
		TiaGasPrice:     DefaultTiaGasPrice,
		LastUpdated:     time.Now().UTC(),
	}
}

// NewMarketData is the single place where caller-supplied market values are
// coerced into engine-safe ones:
//   - fees: missing, NaN or negative become 0; fractions are floored
//   - TiaGasPrice: missing or NaN becomes DefaultTiaGasPrice
//   - prices: missing or NaN become the fallback prices
func NewMarketData(raw RawMarketData) MarketData {
	md := MarketData{
		EthPrice:        priceOr(raw.EthPrice, DefaultEthPrice),
		TiaPrice:        priceOr(raw.TiaPrice, DefaultTiaPrice),
		Source:          raw.Source,
		EthBaseFee:      WeiFromFloat(raw.EthBaseFee),
		BlobMarketPrice: WeiFromFloat(raw.BlobMarketPrice),
		TiaGasPrice:     TiaGasPriceOrDefault(raw.TiaGasPrice),
	}
	if raw.LastUpdated != nil {
		md.LastUpdated = *raw.LastUpdated
	}
	return md.Sanitize()
}

// Sanitize applies the NewMarketData rules to already typed values. An empty
// Source becomes SourceManual and a zero LastUpdated becomes now.
func (m MarketData) Sanitize() MarketData {
	m.EthPrice = priceOr(&m.EthPrice, DefaultEthPrice)
	m.TiaPrice = priceOr(&m.TiaPrice, DefaultTiaPrice)
	m.TiaGasPrice = TiaGasPriceOrDefault(&m.TiaGasPrice)
	if m.Source == "" {
		m.Source = SourceManual
	}
	if m.LastUpdated.IsZero() {
		m.LastUpdated = time.Now()
	}
	m.LastUpdated = m.LastUpdated.UTC()
	return m
}

// Raw converts a snapshot back into its wire shape.
func (m MarketData) Raw() RawMarketData {
	baseFee := float64(m.EthBaseFee)
	blob := float64(m.BlobMarketPrice)
	updated := m.LastUpdated
	return RawMarketData{
		EthPrice:        &m.EthPrice,
		TiaPrice:        &m.TiaPrice,
		Source:          m.Source,
		EthBaseFee:      &baseFee,
		BlobMarketPrice: &blob,
		TiaGasPrice:     &m.TiaGasPrice,
		LastUpdated:     &updated,
	}
}

// IsFallback reports whether the prices came from the static defaults.
func (m MarketData) IsFallback() bool {
	return m.Source == SourceFallback
}

// WeiFromFloat floors v into a non-negative integer wei amount.
func WeiFromFloat(v *float64) uint64 {
	if v == nil || math.IsNaN(*v) || *v <= 0 {
		return 0
	}
	f := math.Floor(*v)
	if f >= math.MaxUint64 {
		return math.MaxUint64
	}
	return uint64(f)
}

// TiaGasPriceOrDefault guards against NaN reaching the engine.
func TiaGasPriceOrDefault(v *float64) float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return DefaultTiaGasPrice
	}
	return *v
}

func priceOr(v *float64, def float64) float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return def
	}
	return *v
}
