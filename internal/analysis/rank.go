package analysis

import (
	"sort"

	"appchain-calc/internal/economics"
	"appchain-calc/internal/model"
)

// RankedPreset is one preset priced against a shared market snapshot.
type RankedPreset struct {
	Rank   int                     `json:"rank"`
	Preset model.Preset            `json:"preset"`
	Result model.CalculationResult `json:"result"`
}

// Scenario is the market and settlement context every preset is priced in.
type Scenario struct {
	MarketData model.MarketData
	CaptureMev bool
	Settlement model.SettlementModel
}

// RankByUplift prices every preset and sorts descending by annual uplift.
// Ties are broken by preset ID so output is stable.
func RankByUplift(presets map[string]model.Preset, sc Scenario) []RankedPreset {
	out := make([]RankedPreset, 0, len(presets))
	for _, p := range model.SortedPresets(presets) {
		res := economics.Calculate(model.CalculationInputs{
			Workload:   p.Workload,
			CaptureMev: sc.CaptureMev,
			MarketData: sc.MarketData,
			Settlement: sc.Settlement,
		})
		out = append(out, RankedPreset{Preset: p, Result: res})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Result.Comparison.Uplift > out[j].Result.Comparison.Uplift
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// Summary aggregates a ranking.
type Summary struct {
	Count        int     `json:"count"`
	Best         string  `json:"best,omitempty"`
	Worst        string  `json:"worst,omitempty"`
	TotalUplift  float64 `json:"totalUplift"`
	MeanUplift   float64 `json:"meanUplift"`
	TotalSavings float64 `json:"totalSavingsDA"`
}

// Summarize expects ranked in RankByUplift order.
func Summarize(ranked []RankedPreset) Summary {
	s := Summary{Count: len(ranked)}
	if len(ranked) == 0 {
		return s
	}
	s.Best = ranked[0].Preset.ID
	s.Worst = ranked[len(ranked)-1].Preset.ID
	for _, r := range ranked {
		s.TotalUplift += r.Result.Comparison.Uplift
		s.TotalSavings += r.Result.Comparison.SavingsDA
	}
	s.MeanUplift = s.TotalUplift / float64(len(ranked))
	return s
}
