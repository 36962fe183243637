package model

import "sort"

// Preset is a named workload shipped with the calculator.
type Preset struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Workload    `yaml:",inline"`
}

// BuiltinPresets returns the stock workload profiles keyed by ID.
func BuiltinPresets() map[string]Preset {
	return map[string]Preset{
		"pancake": {
			ID:          "pancake",
			Name:        "DeFi Giant",
			Description: "Like PancakeSwap",
			Workload: Workload{
				DailyTx:         150000,
				AvgGasPrice:     0.10,
				DataSizePerTxKB: 0.8,
				MevRate:         0.0005,
				AvgTxValue:      500,
			},
		},
		"gamefi": {
			ID:          "gamefi",
			Name:        "On-Chain Game",
			Description: "Like Kamigotchi",
			Workload: Workload{
				DailyTx:         2000000,
				AvgGasPrice:     0.005,
				DataSizePerTxKB: 0.1,
				MevRate:         0,
				AvgTxValue:      1,
			},
		},
		"perp": {
			ID:          "perp",
			Name:        "Perp DEX",
			Description: "Like GMX",
			Workload: Workload{
				DailyTx:         50000,
				AvgGasPrice:     0.50,
				DataSizePerTxKB: 1.2,
				MevRate:         0.001,
				AvgTxValue:      2000,
			},
		},
		"custom": {
			ID:          "custom",
			Name:        "High Data Volume",
			Description: "For data-intensive apps",
			Workload: Workload{
				DailyTx:         5000000,
				AvgGasPrice:     0.01,
				DataSizePerTxKB: 2.0,
				MevRate:         0,
				AvgTxValue:      50,
			},
		},
	}
}

// SortedPresets returns presets ordered by ID for stable output.
func SortedPresets(presets map[string]Preset) []Preset {
	out := make([]Preset, 0, len(presets))
	for _, p := range presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}
