package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"appchain-calc/internal/analysis"
	"appchain-calc/internal/app"
	"appchain-calc/internal/config"
	"appchain-calc/internal/data"
	"appchain-calc/internal/economics"
	"appchain-calc/internal/model"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	configKey     = "config"
	verboseKey    = "verbose"
	offlineKey    = "offline"
	marketFileKey = "market-file"
	settlementKey = "settlement"
	noMevKey      = "no-mev"
	presetKey     = "preset"
	dailyTxKey    = "daily-tx"
	gasPriceKey   = "avg-gas-price"
	dataKBKey     = "data-kb"
	mevRateKey    = "mev-rate"
	txValueKey    = "avg-tx-value"
	explainKey    = "explain"
	jsonKey       = "json"
	outKey        = "out"
)

func newRootCommand(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "calc",
		Short:         "Compare L2 blob DA economics with a Celestia appchain",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	flags := root.PersistentFlags()
	flags.String(configKey, config.Path(""), "Path to YAML config (env CALC_CONFIG)")
	flags.Bool(verboseKey, false, "Log market source activity to stderr")

	root.AddCommand(
		presetsCommand(),
		marketCommand(),
		calculateCommand(),
		compareCommand(),
	)
	return root
}

func presetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List workload presets",
		RunE: func(c *cobra.Command, _ []string) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(c.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tDAILY TX\tGAS $/TX\tKB/TX\tMEV RATE\tTX VALUE $")
			for _, p := range model.SortedPresets(cfg.PresetMap()) {
				fmt.Fprintf(tw, "%s\t%s\t%.0f\t%g\t%g\t%g\t%g\n",
					p.ID, p.Name, p.DailyTx, p.AvgGasPrice, p.DataSizePerTxKB, p.MevRate, p.AvgTxValue)
			}
			return tw.Flush()
		},
	}
}

func marketCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "market",
		Short: "Fetch and print the current market snapshot",
		RunE: func(c *cobra.Command, _ []string) error {
			md, err := resolveMarketData(c)
			if err != nil {
				return err
			}
			if asJSON, _ := c.Flags().GetBool(jsonKey); asJSON {
				enc := json.NewEncoder(c.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(md)
			}
			printMarket(c.OutOrStdout(), md)
			return nil
		},
	}
	addMarketFlags(c)
	c.Flags().Bool(jsonKey, false, "Print the snapshot as JSON")
	return c
}

func calculateCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "calculate",
		Short: "Price one workload in both scenarios",
		RunE:  calculateFunc,
	}
	addMarketFlags(c)
	addScenarioFlags(c)
	flags := c.Flags()
	flags.String(presetKey, "", "Preset ID to start from")
	flags.Float64(dailyTxKey, 0, "Transactions per day")
	flags.Float64(gasPriceKey, 0, "USD fee per transaction")
	flags.Float64(dataKBKey, 0, "DA payload per transaction in KB")
	flags.Float64(mevRateKey, 0, "Extractable MEV as a fraction of tx value")
	flags.Float64(txValueKey, 0, "Average transaction value in USD")
	flags.Bool(explainKey, false, "Print the DA cost breakdown")
	return c
}

func calculateFunc(c *cobra.Command, _ []string) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	flags := c.Flags()

	var w model.Workload
	presetID, _ := flags.GetString(presetKey)
	if presetID != "" {
		p, ok := cfg.PresetMap()[presetID]
		if !ok {
			return fmt.Errorf("unknown preset: %q", presetID)
		}
		w = p.Workload
	}
	for key, dst := range map[string]*float64{
		dailyTxKey:  &w.DailyTx,
		gasPriceKey: &w.AvgGasPrice,
		dataKBKey:   &w.DataSizePerTxKB,
		mevRateKey:  &w.MevRate,
		txValueKey:  &w.AvgTxValue,
	} {
		if flags.Changed(key) {
			*dst, _ = flags.GetFloat64(key)
		}
	}
	if presetID == "" && w == (model.Workload{}) {
		return errors.New("--preset or workload flags are required")
	}
	if err := config.ValidateWorkload(w); err != nil {
		return err
	}

	settlement, captureMev, err := scenario(c, cfg)
	if err != nil {
		return err
	}
	md, err := resolveMarketData(c)
	if err != nil {
		return err
	}

	in := model.CalculationInputs{
		Workload:   w,
		CaptureMev: captureMev,
		MarketData: md,
		Settlement: settlement,
	}
	res, breakdown := economics.CalculateWithBreakdown(in)

	out := c.OutOrStdout()
	printMarket(out, md)
	fmt.Fprintln(out)
	printResult(out, res)
	if explain, _ := flags.GetBool(explainKey); explain {
		fmt.Fprintln(out)
		printBreakdown(out, breakdown)
	}
	return nil
}

func compareCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "compare",
		Short: "Rank every preset by appchain uplift",
		RunE: func(c *cobra.Command, _ []string) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			settlement, captureMev, err := scenario(c, cfg)
			if err != nil {
				return err
			}
			md, err := resolveMarketData(c)
			if err != nil {
				return err
			}

			ranked := analysis.RankByUplift(cfg.PresetMap(), analysis.Scenario{
				MarketData: md,
				CaptureMev: captureMev,
				Settlement: settlement,
			})

			out := c.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RANK\tPRESET\tL2 PROFIT\tAPPCHAIN PROFIT\tUPLIFT\tDA SAVINGS")
			for _, r := range ranked {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
					r.Rank,
					r.Preset.ID,
					economics.FormatCurrency(r.Result.L2.Profit),
					economics.FormatCurrency(r.Result.Appchain.Profit),
					economics.FormatCurrency(r.Result.Comparison.Uplift),
					economics.FormatCurrency(r.Result.Comparison.SavingsDA),
				)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			outPath, _ := c.Flags().GetString(outKey)
			if outPath == "" {
				return nil
			}
			if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
				return err
			}
			if err := analysis.WriteComparisonCSVFile(outPath, md, ranked); err != nil {
				return err
			}
			fmt.Fprintf(out, "Wrote %d rows to %s\n", len(ranked), outPath)
			return nil
		},
	}
	addMarketFlags(c)
	addScenarioFlags(c)
	c.Flags().String(outKey, "", "Optional CSV report path")
	return c
}

func addMarketFlags(c *cobra.Command) {
	flags := c.Flags()
	flags.Bool(offlineKey, false, "Use the static fallback market data instead of live sources")
	flags.String(marketFileKey, "", "Read market data from a JSON file in the /api/market-data shape")
}

func addScenarioFlags(c *cobra.Command) {
	flags := c.Flags()
	flags.String(settlementKey, "", "Settlement model: batch or revenue_share (default from config)")
	flags.Bool(noMevKey, false, "Do not credit MEV revenue to the appchain")
}

func loadConfig(c *cobra.Command) (*config.Config, error) {
	path, _ := c.Flags().GetString(configKey)
	return config.Load(path)
}

func scenario(c *cobra.Command, cfg *config.Config) (model.SettlementModel, bool, error) {
	settlement := cfg.Settlement()
	if s, _ := c.Flags().GetString(settlementKey); s != "" {
		var err error
		if settlement, err = model.ParseSettlementModel(s); err != nil {
			return "", false, err
		}
	}
	noMev, _ := c.Flags().GetBool(noMevKey)
	return settlement, !noMev, nil
}

func resolveMarketData(c *cobra.Command) (model.MarketData, error) {
	flags := c.Flags()
	if path, _ := flags.GetString(marketFileKey); path != "" {
		return data.LoadMarketDataJSON(path)
	}
	if offline, _ := flags.GetBool(offlineKey); offline {
		return model.DefaultMarketData(), nil
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return model.MarketData{}, err
	}
	logger := zap.NewNop()
	if verbose, _ := flags.GetBool(verboseKey); verbose {
		if logger, err = zap.NewDevelopment(); err != nil {
			return model.MarketData{}, err
		}
	}
	market, err := app.NewMarket(cfg, logger)
	if err != nil {
		return model.MarketData{}, err
	}
	defer market.Close()

	ctx := c.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return market.Snapshot(ctx), nil
}

func printMarket(out io.Writer, md model.MarketData) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Source\t%s\n", md.Source)
	fmt.Fprintf(tw, "Updated\t%s\n", md.LastUpdated.Format("2006-01-02T15:04:05Z07:00"))
	fmt.Fprintf(tw, "ETH\t%s\n", economics.FormatCurrency(md.EthPrice))
	fmt.Fprintf(tw, "TIA\t%s\n", economics.FormatCurrency(md.TiaPrice))
	fmt.Fprintf(tw, "ETH base fee\t%.3f gwei\n", float64(md.EthBaseFee)/model.WeiPerGwei)
	fmt.Fprintf(tw, "Blob base fee\t%.3f gwei\n", float64(md.BlobMarketPrice)/model.WeiPerGwei)
	fmt.Fprintf(tw, "Celestia gas\t%g utia\n", md.TiaGasPrice)
	_ = tw.Flush()
}

func printResult(out io.Writer, r model.CalculationResult) {
	f := economics.FormatCurrency
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "\tL2 (blobs)\tAppchain (Celestia)\t")
	fmt.Fprintf(tw, "Gas revenue\t%s\t%s\t\n", f(r.L2.Revenue), f(r.Appchain.RevenueGas))
	fmt.Fprintf(tw, "MEV revenue\t%s\t%s\t\n", f(0), f(r.Appchain.RevenueMev))
	fmt.Fprintf(tw, "DA cost\t%s\t%s\t\n", f(r.L2.CostDA), f(r.Appchain.CostDA))
	fmt.Fprintf(tw, "Settlement cost\t%s\t%s\t\n", f(r.L2.CostExecution), f(0))
	fmt.Fprintf(tw, "Profit\t%s\t%s\t\n", f(r.L2.Profit), f(r.Appchain.Profit))
	_ = tw.Flush()

	fmt.Fprintf(out, "\nUplift: %s (%.1f%%)  DA savings: %s\n",
		f(r.Comparison.Uplift), r.Comparison.UpliftPercent, f(r.Comparison.SavingsDA))
}

func printBreakdown(out io.Writer, b economics.Breakdown) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Data per day\t%.0f bytes\n", b.TotalDataBytes)
	fmt.Fprintf(tw, "Blob reserve price\t%d wei\n", b.ReservePrice)
	fmt.Fprintf(tw, "Effective blob price\t%d wei\n", b.EffectiveBlobPrice)
	fmt.Fprintf(tw, "Blobs per day\t%d\n", b.BlobCount)
	fmt.Fprintf(tw, "Blob cost per day\t%s wei\n", b.BlobCostWeiDaily.Dec())
	fmt.Fprintf(tw, "Calldata cost per day\t%s wei\n", b.CalldataCostWei.Dec())
	fmt.Fprintf(tw, "Settlement model\t%s\n", b.SettlementModel)
	fmt.Fprintf(tw, "Batches per day\t%d\n", b.BatchesDaily)
	fmt.Fprintf(tw, "Settlement cost per day\t%s wei\n", b.SettlementCostWei.Dec())
	fmt.Fprintf(tw, "Celestia shares per day\t%d\n", b.CelestiaShareCount)
	fmt.Fprintf(tw, "Celestia gas per day\t%.0f\n", b.CelestiaGasDaily)
	_ = tw.Flush()
}
