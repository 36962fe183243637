package model

// L2Result is the rollup-on-blobs scenario. MEV is assumed to be captured by
// the shared sequencer, so Revenue is gas revenue only.
type L2Result struct {
	Revenue       float64 `json:"revenue"`
	CostDA        float64 `json:"costDA"`
	CostExecution float64 `json:"costExecution"`
	TotalCost     float64 `json:"totalCost"`
	Profit        float64 `json:"profit"`
}

// AppchainResult is the sovereign chain posting to Celestia.
type AppchainResult struct {
	RevenueGas float64 `json:"revenueGas"`
	RevenueMev float64 `json:"revenueMev"`
	CostDA     float64 `json:"costDA"`
	Profit     float64 `json:"profit"`
}

// Comparison holds appchain-minus-L2 deltas.
type Comparison struct {
	Uplift        float64 `json:"uplift"`
	UpliftPercent float64 `json:"upliftPercent"`
	SavingsDA     float64 `json:"savingsDA"`
}

// CalculationResult holds annualized USD figures for both scenarios.
type CalculationResult struct {
	L2         L2Result       `json:"l2"`
	Appchain   AppchainResult `json:"appchain"`
	Comparison Comparison     `json:"comparison"`
}
