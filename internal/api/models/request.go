package models

import "appchain-calc/internal/model"

// CalculateRequest represents the request body for POST /api/v1/calculate.
// Either Preset or Workload is required; when both are set, every Workload
// field present in the body overrides the preset, zero included.
type CalculateRequest struct {
	Preset   string            `json:"preset,omitempty"`
	Workload *WorkloadOverride `json:"workload,omitempty"`
	// CaptureMev defaults to true.
	CaptureMev *bool `json:"captureMev,omitempty"`
	// MarketData replaces the live snapshot when present.
	MarketData      *model.RawMarketData `json:"marketData,omitempty"`
	SettlementModel string               `json:"settlementModel,omitempty"`
}

// WorkloadOverride is a partial model.Workload. Nil fields keep the base value.
type WorkloadOverride struct {
	DailyTx         *float64 `json:"dailyTx,omitempty"`
	AvgGasPrice     *float64 `json:"avgGasPrice,omitempty"`
	DataSizePerTxKB *float64 `json:"dataSizePerTxKB,omitempty"`
	MevRate         *float64 `json:"mevRate,omitempty"`
	AvgTxValue      *float64 `json:"avgTxValue,omitempty"`
}

// Apply returns base with the set fields of o replaced. A nil o returns base.
func (o *WorkloadOverride) Apply(base model.Workload) model.Workload {
	if o == nil {
		return base
	}
	set := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	set(&base.DailyTx, o.DailyTx)
	set(&base.AvgGasPrice, o.AvgGasPrice)
	set(&base.DataSizePerTxKB, o.DataSizePerTxKB)
	set(&base.MevRate, o.MevRate)
	set(&base.AvgTxValue, o.AvgTxValue)
	return base
}

// CompareRequest represents the request body for POST /api/v1/compare.
// An empty body ranks every preset against the live snapshot.
type CompareRequest struct {
	Presets         []string             `json:"presets,omitempty"`
	CaptureMev      *bool                `json:"captureMev,omitempty"`
	MarketData      *model.RawMarketData `json:"marketData,omitempty"`
	SettlementModel string               `json:"settlementModel,omitempty"`
}

// CaptureMevOrDefault reports the effective captureMev flag.
func CaptureMevOrDefault(v *bool) bool {
	return v == nil || *v
}
