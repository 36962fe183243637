package analysis

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"appchain-calc/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultScenario() Scenario {
	md := model.DefaultMarketData()
	md.LastUpdated = time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)
	return Scenario{MarketData: md, CaptureMev: true}
}

func TestRankByUplift_BuiltinPresets(t *testing.T) {
	ranked := RankByUplift(model.BuiltinPresets(), defaultScenario())
	require.Len(t, ranked, 4)

	ids := make([]string, len(ranked))
	for i, r := range ranked {
		ids[i] = r.Preset.ID
		assert.Equal(t, i+1, r.Rank)
	}
	assert.Equal(t, []string{"custom", "perp", "gamefi", "pancake"}, ids)
	assert.InDelta(t, 15_338_955.29982, ranked[3].Result.Comparison.Uplift, 1e-3)
}

func TestRankByUplift_StableOnTies(t *testing.T) {
	w := model.Workload{DailyTx: 1000, AvgGasPrice: 0.1, DataSizePerTxKB: 1}
	presets := map[string]model.Preset{
		"b": {ID: "b", Workload: w},
		"a": {ID: "a", Workload: w},
		"c": {ID: "c", Workload: w},
	}
	ranked := RankByUplift(presets, defaultScenario())
	assert.Equal(t, "a", ranked[0].Preset.ID)
	assert.Equal(t, "b", ranked[1].Preset.ID)
	assert.Equal(t, "c", ranked[2].Preset.ID)
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, Summary{}, Summarize(nil))

	ranked := RankByUplift(model.BuiltinPresets(), defaultScenario())
	s := Summarize(ranked)
	assert.Equal(t, 4, s.Count)
	assert.Equal(t, "custom", s.Best)
	assert.Equal(t, "pancake", s.Worst)
	assert.InDelta(t, s.TotalUplift/4, s.MeanUplift, 1e-9)
}

func TestWriteComparisonCSV(t *testing.T) {
	sc := defaultScenario()
	ranked := RankByUplift(model.BuiltinPresets(), sc)

	var buf bytes.Buffer
	require.NoError(t, WriteComparisonCSV(&buf, sc.MarketData, ranked))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, "rank", rows[0][0])
	assert.Len(t, rows[1], len(rows[0]))
	assert.Equal(t, []string{"1", "custom", "High Data Volume"}, rows[1][:3])
	assert.Equal(t, model.SourceFallback, rows[1][len(rows[1])-2])
	assert.Equal(t, "2025-02-03T04:05:06Z", rows[1][len(rows[1])-1])
}

func TestWriteComparisonCSVFile(t *testing.T) {
	sc := defaultScenario()
	path := filepath.Join(t.TempDir(), "report.csv")
	require.NoError(t, WriteComparisonCSVFile(path, sc.MarketData, RankByUplift(model.BuiltinPresets(), sc)))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "pancake,DeFi Giant,150000.000000")

	assert.Error(t, WriteComparisonCSVFile(filepath.Join(t.TempDir(), "missing", "r.csv"), sc.MarketData, nil))
}
