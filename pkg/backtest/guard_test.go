package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mhornak/meridian/pkg/common"
	"github.com/mhornak/meridian/pkg/utility/fixed"
)

func newTestGuard(mutate func(*Config)) *Guard {
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	return NewGuard(&cfg)
}

func TestGuard_ValidateSignal(t *testing.T) {
	guard := newTestGuard(nil)

	clean := common.Signal{
		Action:   common.SignalActionEntry,
		Size:     fixed.One,
		Symbol:   "EURUSD",
		Metadata: map[string]string{"stop_loss": "1.0500"},
	}
	assert.Empty(t, guard.ValidateSignal(clean))

	dirty := common.Signal{Action: common.SignalActionEntry}
	warnings := guard.ValidateSignal(dirty)
	assert.Contains(t, warnings, "signal size must be positive")
	assert.Contains(t, warnings, "signal has no symbol")
	assert.Contains(t, warnings, "entry signal carries no stop-loss hint")
}

func TestGuard_CheckPositionSize(t *testing.T) {
	guard := newTestGuard(func(cfg *Config) {
		cfg.MaxPositionSize = fixed.FromInt(100, 0)
	})

	assert.True(t, guard.CheckPositionSize(fixed.FromInt(50, 0), fixed.FromInt(50, 0)))
	assert.False(t, guard.CheckPositionSize(fixed.FromInt(50, 0), fixed.FromInt(51, 0)))
	assert.False(t, guard.CheckPositionSize(fixed.FromInt(-50, 0), fixed.FromInt(-51, 0)))

	// Reducing a max-size position stays within the limit.
	assert.True(t, guard.CheckPositionSize(fixed.FromInt(100, 0), fixed.FromInt(-100, 0)))
	assert.True(t, guard.CheckPositionSize(fixed.FromInt(-100, 0), fixed.FromInt(100, 0)))

	unlimited := newTestGuard(nil)
	assert.True(t, unlimited.CheckPositionSize(fixed.FromInt(1_000_000, 0), fixed.One))
}

func TestGuard_CheckLeverage(t *testing.T) {
	guard := newTestGuard(func(cfg *Config) {
		cfg.Leverage = fixed.FromInt(10, 0)
	})

	equity := fixed.FromInt(10_000, 0)
	assert.True(t, guard.CheckLeverage(fixed.FromInt(100_000, 0), equity))
	assert.False(t, guard.CheckLeverage(fixed.FromInt(100_001, 0), equity))
	assert.False(t, guard.CheckLeverage(fixed.One, fixed.Zero))
	assert.True(t, guard.CheckLeverage(fixed.Zero, fixed.Zero))
}

func TestGuard_CheckDrawdownStop(t *testing.T) {
	guard := newTestGuard(func(cfg *Config) {
		cfg.MaxDrawdown = fixed.FromFloat64(0.2)
	})

	peak := fixed.FromInt(100_000, 0)
	assert.False(t, guard.CheckDrawdownStop(peak, fixed.FromInt(90_000, 0)))
	assert.True(t, guard.CheckDrawdownStop(peak, fixed.FromInt(80_000, 0)))
	assert.True(t, guard.CheckDrawdownStop(peak, fixed.FromInt(50_000, 0)))

	disabled := newTestGuard(nil)
	assert.False(t, disabled.CheckDrawdownStop(peak, fixed.Zero))
}

func TestGuard_Drawdown(t *testing.T) {
	assert.Equal(t, "0.1", Drawdown(fixed.FromInt(100, 0), fixed.FromInt(90, 0)).String())
	assert.True(t, Drawdown(fixed.Zero, fixed.FromInt(90, 0)).IsZero())
}
