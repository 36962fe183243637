package analysis

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"

	"appchain-calc/internal/model"
)

// WriteComparisonCSVFile writes a ranking to path.
func WriteComparisonCSVFile(path string, md model.MarketData, ranked []RankedPreset) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteComparisonCSV(f, md, ranked); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteComparisonCSV writes one row per preset. Money columns are annual USD.
func WriteComparisonCSV(out io.Writer, md model.MarketData, ranked []RankedPreset) error {
	w := csv.NewWriter(out)

	header := []string{
		"rank",
		"preset",
		"name",
		"daily_tx",
		"data_size_per_tx_kb",
		"l2_revenue",
		"l2_cost_da",
		"l2_cost_execution",
		"l2_total_cost",
		"l2_profit",
		"appchain_revenue_gas",
		"appchain_revenue_mev",
		"appchain_cost_da",
		"appchain_profit",
		"uplift",
		"uplift_percent",
		"savings_da",
		"source",
		"last_updated_utc",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range ranked {
		res := r.Result
		row := []string{
			strconv.Itoa(r.Rank),
			r.Preset.ID,
			r.Preset.Name,
			fmtFloat(r.Preset.DailyTx),
			fmtFloat(r.Preset.DataSizePerTxKB),
			fmtFloat(res.L2.Revenue),
			fmtFloat(res.L2.CostDA),
			fmtFloat(res.L2.CostExecution),
			fmtFloat(res.L2.TotalCost),
			fmtFloat(res.L2.Profit),
			fmtFloat(res.Appchain.RevenueGas),
			fmtFloat(res.Appchain.RevenueMev),
			fmtFloat(res.Appchain.CostDA),
			fmtFloat(res.Appchain.Profit),
			fmtFloat(res.Comparison.Uplift),
			fmtFloat(res.Comparison.UpliftPercent),
			fmtFloat(res.Comparison.SavingsDA),
			md.Source,
			fmtTime(md.LastUpdated),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
