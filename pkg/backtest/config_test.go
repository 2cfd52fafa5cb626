package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mhornak/meridian/pkg/utility/fixed"
)

func TestConfig_DefaultIsValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "zero starting cash",
			mutate:  func(cfg *Config) { cfg.StartingCash = fixed.Zero },
			wantErr: "starting cash",
		},
		{
			name:    "negative starting cash",
			mutate:  func(cfg *Config) { cfg.StartingCash = fixed.NegOne },
			wantErr: "starting cash",
		},
		{
			name:    "leverage below one",
			mutate:  func(cfg *Config) { cfg.Leverage = fixed.FromFloat64(0.5) },
			wantErr: "leverage",
		},
		{
			name:    "negative commission",
			mutate:  func(cfg *Config) { cfg.CommissionPct = fixed.NegOne },
			wantErr: "commission",
		},
		{
			name:    "negative slippage",
			mutate:  func(cfg *Config) { cfg.SlippageConst = fixed.NegOne },
			wantErr: "slippage",
		},
		{
			name:    "unknown slippage model",
			mutate:  func(cfg *Config) { cfg.Slippage = "quantum" },
			wantErr: "slippage model",
		},
		{
			name:    "unknown fill policy",
			mutate:  func(cfg *Config) { cfg.Policy = "optimistic" },
			wantErr: "fill policy",
		},
		{
			name:    "negative latency",
			mutate:  func(cfg *Config) { cfg.Latency = -time.Second },
			wantErr: "latency",
		},
		{
			name:    "liquidity limit above one",
			mutate:  func(cfg *Config) { cfg.LiquidityLimit = fixed.Two },
			wantErr: "liquidity limit",
		},
		{
			name: "max order below min lot",
			mutate: func(cfg *Config) {
				cfg.MinLotSize = fixed.FromInt(10, 0)
				cfg.MaxOrderSize = fixed.FromInt(5, 0)
			},
			wantErr: "max order size",
		},
		{
			name:    "margin requirement above one",
			mutate:  func(cfg *Config) { cfg.MarginRequirement = fixed.Two },
			wantErr: "margin requirement",
		},
		{
			name:    "max drawdown above one",
			mutate:  func(cfg *Config) { cfg.MaxDrawdown = fixed.Two },
			wantErr: "max drawdown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
