package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"appchain-calc/internal/data"
	"appchain-calc/internal/model"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Sources    SourcesConfig    `yaml:"sources"`
	Timeouts   TimeoutsConfig   `yaml:"timeouts"`
	Cache      CacheConfig      `yaml:"cache"`
	Calculator CalculatorConfig `yaml:"calculator"`
	// Presets are merged over the built-in presets by ID.
	Presets []model.Preset `yaml:"presets"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
	Env  string `yaml:"env"`
}

type SourcesConfig struct {
	EthRPCURL      string `yaml:"eth_rpc_url"`
	CelestiaGasURL string `yaml:"celestia_gas_url"`
	// Providers is the ordered list of price providers to try.
	Providers []string `yaml:"providers"`
	// ProviderURLs overrides exchange base URLs, keyed by provider name.
	ProviderURLs map[string]string `yaml:"provider_urls"`
}

type TimeoutsConfig struct {
	PriceSource time.Duration `yaml:"price_source"`
	FeeQuery    time.Duration `yaml:"fee_query"`
}

type CacheConfig struct {
	TTL      time.Duration `yaml:"ttl"`
	RedisURL string        `yaml:"redis_url"`
}

type CalculatorConfig struct {
	SettlementModel string `yaml:"settlement_model"`
}

// Default returns a config that works with no file and no environment.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080", Env: "development"},
		Sources: SourcesConfig{
			EthRPCURL:      data.DefaultEthRPCURL,
			CelestiaGasURL: data.DefaultCelestiaGasURL,
			Providers:      append([]string(nil), data.DefaultProviderOrder...),
		},
		Timeouts: TimeoutsConfig{
			PriceSource: data.DefaultPriceSourceTimeout,
			FeeQuery:    data.DefaultFeeQueryTimeout,
		},
		Cache:      CacheConfig{TTL: data.DefaultSnapshotTTL},
		Calculator: CalculatorConfig{SettlementModel: string(model.SettlementBatch)},
	}
}

// Path returns the config path from CALC_CONFIG, or fallback.
func Path(fallback string) string {
	if p := os.Getenv("CALC_CONFIG"); p != "" {
		return p
	}
	return fallback
}

// Load reads path (if non-empty), applies environment overrides and validates.
func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not validate it.
// Keys missing from the file keep their Default values.
func LoadUnchecked(path string) (*Config, error) {
	c := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(raw, c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	c.ApplyEnv(os.Getenv)
	return c, nil
}

// ApplyEnv overlays the supported environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("API_PORT"); v != "" {
		c.Server.Port = v
	}
	if v := getenv("API_ENV"); v != "" {
		c.Server.Env = v
	}
	if v := getenv("ETH_RPC_URL"); v != "" {
		c.Sources.EthRPCURL = v
	}
	if v := getenv("CELESTIA_GAS_URL"); v != "" {
		c.Sources.CelestiaGasURL = v
	}
	if v := getenv("REDIS_URL"); v != "" {
		c.Cache.RedisURL = v
	}
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if c.Sources.EthRPCURL == "" {
		return errors.New("sources.eth_rpc_url is required")
	}
	if c.Sources.CelestiaGasURL == "" {
		return errors.New("sources.celestia_gas_url is required")
	}
	for _, name := range c.Sources.Providers {
		if _, err := data.NewProvider(name, "", nil); err != nil {
			return fmt.Errorf("sources.providers: %w", err)
		}
	}
	if c.Timeouts.PriceSource < 0 || c.Timeouts.FeeQuery < 0 {
		return errors.New("timeouts must not be negative")
	}
	if c.Cache.TTL < 0 {
		return errors.New("cache.ttl must not be negative")
	}
	if _, err := model.ParseSettlementModel(c.Calculator.SettlementModel); err != nil {
		return fmt.Errorf("calculator.settlement_model: %w", err)
	}
	for i, p := range c.Presets {
		if strings.TrimSpace(p.ID) == "" {
			return fmt.Errorf("presets[%d]: id is required", i)
		}
		if err := ValidateWorkload(p.Workload); err != nil {
			return fmt.Errorf("preset %q: %w", p.ID, err)
		}
	}
	return nil
}

// Settlement returns the parsed settlement model. Call after Validate.
func (c *Config) Settlement() model.SettlementModel {
	m, _ := model.ParseSettlementModel(c.Calculator.SettlementModel)
	return m
}

// ValidateWorkload rejects workloads the engine cannot price meaningfully.
func ValidateWorkload(w model.Workload) error {
	switch {
	case w.DailyTx < 0:
		return errors.New("daily_tx must not be negative")
	case w.AvgGasPrice < 0:
		return errors.New("avg_gas_price must not be negative")
	case w.DataSizePerTxKB < 0:
		return errors.New("data_size_per_tx_kb must not be negative")
	case w.MevRate < 0 || w.MevRate > 1:
		return errors.New("mev_rate must be between 0 and 1")
	case w.AvgTxValue < 0:
		return errors.New("avg_tx_value must not be negative")
	}
	return nil
}

// PresetMap returns the built-in presets with configured presets merged in.
func (c *Config) PresetMap() map[string]model.Preset {
	out := model.BuiltinPresets()
	for _, p := range c.Presets {
		if base, ok := out[p.ID]; ok {
			out[p.ID] = MergePreset(base, p)
			continue
		}
		out[p.ID] = p
	}
	return out
}

// MergePreset overlays non-zero fields from override onto base.
// A zero override leaves the base value in place.
func MergePreset(base, override model.Preset) model.Preset {
	out := base
	if override.Name != "" {
		out.Name = override.Name
	}
	if override.Description != "" {
		out.Description = override.Description
	}
	if override.DailyTx != 0 {
		out.DailyTx = override.DailyTx
	}
	if override.AvgGasPrice != 0 {
		out.AvgGasPrice = override.AvgGasPrice
	}
	if override.DataSizePerTxKB != 0 {
		out.DataSizePerTxKB = override.DataSizePerTxKB
	}
	if override.MevRate != 0 {
		out.MevRate = override.MevRate
	}
	if override.AvgTxValue != 0 {
		out.AvgTxValue = override.AvgTxValue
	}
	return out
}
