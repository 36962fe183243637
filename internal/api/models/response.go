package models

import (
	"appchain-calc/internal/analysis"
	"appchain-calc/internal/economics"
	"appchain-calc/internal/model"
)

// CalculateResponse represents the response from a calculation
type CalculateResponse struct {
	Preset     string                  `json:"preset,omitempty"`
	Workload   model.Workload          `json:"workload"`
	CaptureMev bool                    `json:"captureMev"`
	Settlement model.SettlementModel   `json:"settlementModel"`
	MarketData model.MarketData        `json:"marketData"`
	Result     model.CalculationResult `json:"result"`
	Formatted  FormattedResult         `json:"formatted"`
	Breakdown  *economics.Breakdown    `json:"breakdown,omitempty"`
}

// FormattedResult holds display strings for the headline figures
type FormattedResult struct {
	L2Revenue       string `json:"l2Revenue"`
	L2Cost          string `json:"l2Cost"`
	L2Profit        string `json:"l2Profit"`
	AppchainRevenue string `json:"appchainRevenue"`
	AppchainCost    string `json:"appchainCost"`
	AppchainProfit  string `json:"appchainProfit"`
	Uplift          string `json:"uplift"`
	SavingsDA       string `json:"savingsDA"`
}

// NewFormattedResult renders r with economics.FormatCurrency.
func NewFormattedResult(r model.CalculationResult) FormattedResult {
	f := economics.FormatCurrency
	return FormattedResult{
		L2Revenue:       f(r.L2.Revenue),
		L2Cost:          f(r.L2.TotalCost),
		L2Profit:        f(r.L2.Profit),
		AppchainRevenue: f(r.Appchain.RevenueGas + r.Appchain.RevenueMev),
		AppchainCost:    f(r.Appchain.CostDA),
		AppchainProfit:  f(r.Appchain.Profit),
		Uplift:          f(r.Comparison.Uplift),
		SavingsDA:       f(r.Comparison.SavingsDA),
	}
}

// CompareResponse represents the response from ranking presets
type CompareResponse struct {
	MarketData model.MarketData        `json:"marketData"`
	Settlement model.SettlementModel   `json:"settlementModel"`
	Rankings   []analysis.RankedPreset `json:"rankings"`
	Summary    analysis.Summary        `json:"summary"`
}

// PresetsResponse lists the available workload presets
type PresetsResponse struct {
	Presets []model.Preset `json:"presets"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
