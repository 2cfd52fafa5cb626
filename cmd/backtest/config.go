package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mhornak/meridian/pkg/backtest"
	"github.com/mhornak/meridian/pkg/utility/fixed"
)

const routerEventCapacity = 1000

type dataConfig struct {
	Kind       string  `yaml:"kind"` // binary, duckdb or synthetic
	Path       string  `yaml:"path"`
	StartPrice float64 `yaml:"start_price"`
	Steps      int64   `yaml:"steps"`
}

type engineConfig struct {
	StartingCash      float64 `yaml:"starting_cash"`
	Leverage          float64 `yaml:"leverage"`
	CommissionFlat    float64 `yaml:"commission_flat"`
	CommissionPct     float64 `yaml:"commission_pct"`
	SlippageModel     string  `yaml:"slippage_model"`
	SlippagePct       float64 `yaml:"slippage_pct"`
	SlippageConst     float64 `yaml:"slippage_const"`
	FillPolicy        string  `yaml:"fill_policy"`
	Latency           string  `yaml:"latency"`
	PartialFills      *bool   `yaml:"partial_fills"`
	LiquidityLimit    float64 `yaml:"liquidity_limit"`
	MinFillSize       float64 `yaml:"min_fill_size"`
	MinLotSize        float64 `yaml:"min_lot_size"`
	MaxOrderSize      float64 `yaml:"max_order_size"`
	MarginRequirement float64 `yaml:"margin_requirement"`
	MaxPositionSize   float64 `yaml:"max_position_size"`
	MaxDrawdown       float64 `yaml:"max_drawdown"`
	Seed              int64   `yaml:"seed"`
}

type strategyConfig struct {
	FastPeriod int     `yaml:"fast_period"`
	SlowPeriod int     `yaml:"slow_period"`
	Size       float64 `yaml:"size"`
}

type runConfig struct {
	Symbol    string         `yaml:"symbol"`
	PeriodRaw string         `yaml:"period"`
	Start     time.Time      `yaml:"start"`
	End       time.Time      `yaml:"end"`
	Data      dataConfig     `yaml:"data"`
	Engine    engineConfig   `yaml:"engine"`
	Strategy  strategyConfig `yaml:"strategy"`
	TradeLog  string         `yaml:"trade_log"`

	// Parsed from PeriodRaw, yaml.v3 has no native duration support.
	Period time.Duration `yaml:"-"`
}

func loadRunConfig(path string) (runConfig, error) {
	var cfg runConfig

	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return cfg, fmt.Errorf("unable to read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("unable to parse config %q: %w", path, err)
	}

	if cfg.Symbol == "" {
		return cfg, fmt.Errorf("config %q: symbol is required", path)
	}
	if cfg.Period, err = time.ParseDuration(cfg.PeriodRaw); err != nil {
		return cfg, fmt.Errorf("config %q: invalid period: %w", path, err)
	}
	if cfg.Period <= 0 {
		return cfg, fmt.Errorf("config %q: period must be positive", path)
	}
	return cfg, nil
}

func (c runConfig) engine() (backtest.Config, error) {
	cfg := backtest.DefaultConfig()

	if c.Engine.StartingCash > 0 {
		cfg.StartingCash = fixed.FromFloat64(c.Engine.StartingCash)
	}
	if c.Engine.Leverage > 0 {
		cfg.Leverage = fixed.FromFloat64(c.Engine.Leverage)
	}
	cfg.CommissionFlat = fixed.FromFloat64(c.Engine.CommissionFlat)
	cfg.CommissionPct = fixed.FromFloat64(c.Engine.CommissionPct)
	if c.Engine.SlippageModel != "" {
		cfg.Slippage = backtest.SlippageModel(c.Engine.SlippageModel)
	}
	cfg.SlippagePct = fixed.FromFloat64(c.Engine.SlippagePct)
	cfg.SlippageConst = fixed.FromFloat64(c.Engine.SlippageConst)
	if c.Engine.FillPolicy != "" {
		cfg.Policy = backtest.FillPolicy(c.Engine.FillPolicy)
	}
	if c.Engine.Latency != "" {
		latency, err := time.ParseDuration(c.Engine.Latency)
		if err != nil {
			return cfg, fmt.Errorf("invalid latency: %w", err)
		}
		cfg.Latency = latency
	}
	// Absent fields keep the engine defaults.
	if c.Engine.PartialFills != nil {
		cfg.PartialFills = *c.Engine.PartialFills
	}
	if c.Engine.LiquidityLimit > 0 {
		cfg.LiquidityLimit = fixed.FromFloat64(c.Engine.LiquidityLimit)
	}
	cfg.MinFillSize = fixed.FromFloat64(c.Engine.MinFillSize)
	cfg.MinLotSize = fixed.FromFloat64(c.Engine.MinLotSize)
	cfg.MaxOrderSize = fixed.FromFloat64(c.Engine.MaxOrderSize)
	cfg.MarginRequirement = fixed.FromFloat64(c.Engine.MarginRequirement)
	cfg.MaxPositionSize = fixed.FromFloat64(c.Engine.MaxPositionSize)
	cfg.MaxDrawdown = fixed.FromFloat64(c.Engine.MaxDrawdown)
	cfg.Seed = c.Engine.Seed

	return cfg, nil
}
