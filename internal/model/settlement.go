package model

import "fmt"

// SettlementModel selects how the L2 scenario's settlement (execution) cost
// is estimated. Keep these values stable; they appear in config and CSV.
type SettlementModel string

const (
	// SettlementBatch charges L1GasPerBatch per TxPerBatch transactions at the
	// current base fee, plus blob commitment calldata inside the DA cost.
	SettlementBatch SettlementModel = "batch"
	// SettlementRevenueShare charges a flat share of gas revenue.
	SettlementRevenueShare SettlementModel = "revenue_share"
)

// ParseSettlementModel maps a config/request string to a SettlementModel.
// The empty string selects SettlementBatch.
func ParseSettlementModel(s string) (SettlementModel, error) {
	switch SettlementModel(s) {
	case "", SettlementBatch:
		return SettlementBatch, nil
	case SettlementRevenueShare:
		return SettlementRevenueShare, nil
	default:
		return "", fmt.Errorf("unsupported settlement model: %q", s)
	}
}
