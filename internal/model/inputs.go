package model

// Workload describes a chain's traffic profile.
//
// Units:
// - DailyTx: transactions per day
// - AvgGasPrice: USD fee paid per transaction
// - DataSizePerTxKB: KB of DA payload per transaction
// - MevRate: fraction of AvgTxValue extractable as MEV (0.01 = 1%)
// - AvgTxValue: USD
type Workload struct {
	DailyTx         float64 `json:"dailyTx" yaml:"daily_tx"`
	AvgGasPrice     float64 `json:"avgGasPrice" yaml:"avg_gas_price"`
	DataSizePerTxKB float64 `json:"dataSizePerTxKB" yaml:"data_size_per_tx_kb"`
	MevRate         float64 `json:"mevRate" yaml:"mev_rate"`
	AvgTxValue      float64 `json:"avgTxValue" yaml:"avg_tx_value"`
}

// CalculationInputs is everything the economics engine consumes.
// Validation of the workload is the caller's responsibility.
type CalculationInputs struct {
	Workload
	CaptureMev bool       `json:"captureMev"`
	MarketData MarketData `json:"marketData"`
	// Settlement defaults to SettlementBatch when empty.
	Settlement SettlementModel `json:"settlementModel,omitempty"`
}
