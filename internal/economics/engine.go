// Package economics compares the annual profitability of running a chain as
// an Ethereum L2 (blob DA) against running it as an appchain on Celestia DA.
//
// Everything here is a pure function of its inputs: no I/O, no clocks, no
// shared state. Market data must already be sanitized (see
// model.NewMarketData).
package economics

import (
	"math"
	"math/big"

	"appchain-calc/internal/model"

	"github.com/holiman/uint256"
)

// Breakdown exposes the intermediate DA and settlement figures behind a
// CalculationResult. Wei amounts are daily; USD amounts are annual.
type Breakdown struct {
	TotalDataBytes float64 `json:"totalDataBytes"`

	ReservePrice       uint64       `json:"reservePrice"`
	EffectiveBlobPrice uint64       `json:"effectiveBlobPrice"`
	BlobCount          uint64       `json:"blobCount"`
	BlobCostWeiDaily   *uint256.Int `json:"blobCostWeiDaily"`
	BlobCostUSD        float64      `json:"blobCostUsd"`
	CalldataCostWei    *uint256.Int `json:"calldataCostWeiDaily"`
	CalldataCostUSD    float64      `json:"calldataCostUsd"`

	BatchesDaily          uint64       `json:"batchesDaily"`
	SettlementCostWei     *uint256.Int `json:"settlementCostWeiDaily"`
	SettlementCostUSD     float64      `json:"settlementCostUsd"`
	SettlementModel       string       `json:"settlementModel"`
	CelestiaShareCount    uint64       `json:"celestiaShareCount"`
	CelestiaGasDaily      float64      `json:"celestiaGasDaily"`
	CelestiaCostUtiaDaily float64      `json:"celestiaCostUtiaDaily"`
	CelestiaCostUSD       float64      `json:"celestiaCostUsd"`
}

// Calculate maps a workload and a market snapshot to annual revenue, cost
// and profit for both scenarios. Identical inputs always produce identical
// outputs, and no input made of finite non-negative numbers yields an error
// or a NaN profit.
func Calculate(in model.CalculationInputs) model.CalculationResult {
	res, _ := evaluate(in)
	return res
}

// Explain returns the intermediate figures Calculate works from.
func Explain(in model.CalculationInputs) Breakdown {
	_, b := evaluate(in)
	return b
}

// CalculateWithBreakdown returns what Calculate and Explain would, from a
// single evaluation.
func CalculateWithBreakdown(in model.CalculationInputs) (model.CalculationResult, Breakdown) {
	return evaluate(in)
}

func evaluate(in model.CalculationInputs) (model.CalculationResult, Breakdown) {
	md := in.MarketData
	settlement := in.Settlement
	if settlement == "" {
		settlement = model.SettlementBatch
	}

	b := Breakdown{SettlementModel: string(settlement)}
	b.TotalDataBytes = in.DailyTx * in.DataSizePerTxKB * model.BytesPerKB

	// Ethereum L2 DA: blob gas at max(market, reserve) plus commitment calldata.
	baseFee := uint256.NewInt(md.EthBaseFee)
	b.ReservePrice = ReservePrice(md.EthBaseFee)
	b.EffectiveBlobPrice = max(md.BlobMarketPrice, b.ReservePrice)
	b.BlobCount = BlobCount(b.TotalDataBytes)

	blobs := uint256.NewInt(b.BlobCount)
	b.BlobCostWeiDaily = new(uint256.Int).Mul(blobs, uint256.NewInt(model.GasPerBlob))
	b.BlobCostWeiDaily.Mul(b.BlobCostWeiDaily, uint256.NewInt(b.EffectiveBlobPrice))
	b.BlobCostUSD = annualUSDFromWei(b.BlobCostWeiDaily, md.EthPrice)

	b.CalldataCostWei = new(uint256.Int)
	if settlement == model.SettlementBatch {
		b.CalldataCostWei.Mul(blobs, uint256.NewInt(model.BlobCommitmentCalldataGas))
		b.CalldataCostWei.Mul(b.CalldataCostWei, baseFee)
	}
	b.CalldataCostUSD = annualUSDFromWei(b.CalldataCostWei, md.EthPrice)
	l2CostDA := b.BlobCostUSD + b.CalldataCostUSD

	// Celestia DA.
	b.CelestiaShareCount = ceilCount(b.TotalDataBytes / model.CelestiaShareSize)
	if in.DailyTx > 0 {
		b.CelestiaGasDaily = float64(b.CelestiaShareCount)*model.CelestiaGasPerShare + model.CelestiaFixedGas
	}
	b.CelestiaCostUtiaDaily = b.CelestiaGasDaily * md.TiaGasPrice
	b.CelestiaCostUSD = b.CelestiaCostUtiaDaily / model.UtiaPerTia * md.TiaPrice * model.DaysPerYear

	annualGasRevenue := in.DailyTx * in.AvgGasPrice * model.DaysPerYear
	annualMevRevenue := in.DailyTx * in.AvgTxValue * in.MevRate * model.DaysPerYear

	// L2: the sequencer keeps the MEV; the chain pays settlement plus DA.
	l2Revenue := annualGasRevenue
	b.SettlementCostWei = new(uint256.Int)
	switch settlement {
	case model.SettlementRevenueShare:
		b.SettlementCostUSD = l2Revenue * model.RevenueShareSettlementRate
	default:
		b.BatchesDaily = floorCount(in.DailyTx / model.TxPerBatch)
		b.SettlementCostWei.Mul(uint256.NewInt(b.BatchesDaily), uint256.NewInt(model.L1GasPerBatch))
		b.SettlementCostWei.Mul(b.SettlementCostWei, baseFee)
		b.SettlementCostUSD = annualUSDFromWei(b.SettlementCostWei, md.EthPrice)
	}
	l2TotalCost := b.SettlementCostUSD + l2CostDA
	l2Profit := l2Revenue - l2TotalCost

	appchainMev := 0.0
	if in.CaptureMev {
		appchainMev = annualMevRevenue
	}
	appchainProfit := annualGasRevenue + appchainMev - b.CelestiaCostUSD

	uplift := appchainProfit - l2Profit
	upliftPercent := 0.0
	if l2Profit > 0 {
		upliftPercent = uplift / l2Profit * 100
	}

	return model.CalculationResult{
		L2: model.L2Result{
			Revenue:       l2Revenue,
			CostDA:        l2CostDA,
			CostExecution: b.SettlementCostUSD,
			TotalCost:     l2TotalCost,
			Profit:        l2Profit,
		},
		Appchain: model.AppchainResult{
			RevenueGas: annualGasRevenue,
			RevenueMev: appchainMev,
			CostDA:     b.CelestiaCostUSD,
			Profit:     appchainProfit,
		},
		Comparison: model.Comparison{
			Uplift:        uplift,
			UpliftPercent: upliftPercent,
			SavingsDA:     l2CostDA - b.CelestiaCostUSD,
		},
	}, b
}

// ReservePrice is the blob gas price floor implied by the execution base fee:
// floor(BlobBaseCost * baseFee / GasPerBlob).
func ReservePrice(baseFee uint64) uint64 {
	p := new(uint256.Int).Mul(uint256.NewInt(model.BlobBaseCost), uint256.NewInt(baseFee))
	p.Div(p, uint256.NewInt(model.GasPerBlob))
	return p.Uint64()
}

// BlobCount is the number of blobs needed for totalDataBytes at
// BlobUtilizationRate packing. Partial blobs count as whole blobs.
func BlobCount(totalDataBytes float64) uint64 {
	return ceilCount(totalDataBytes / (float64(model.BlobSizeBytes) * model.BlobUtilizationRate))
}

func annualUSDFromWei(wei *uint256.Int, ethPrice float64) float64 {
	f, _ := new(big.Float).SetInt(wei.ToBig()).Float64()
	return f / model.WeiPerEth * ethPrice * model.DaysPerYear
}

func ceilCount(x float64) uint64 {
	return toCount(math.Ceil(x))
}

func floorCount(x float64) uint64 {
	return toCount(math.Floor(x))
}

// toCount clamps into uint64 range; NaN and negatives count as zero.
func toCount(x float64) uint64 {
	if math.IsNaN(x) || x <= 0 {
		return 0
	}
	if x >= math.MaxUint64 {
		return math.MaxUint64
	}
	return uint64(x)
}
