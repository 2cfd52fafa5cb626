package backtest

import (
	"github.com/mhornak/meridian/pkg/common"
	"github.com/mhornak/meridian/pkg/utility/fixed"
)

// Guard bundles the stateless risk checks consumed by the step loop. Checks
// never mutate state; they report and the caller decides.
type Guard struct {
	cfg *Config
}

func NewGuard(cfg *Config) *Guard {
	return &Guard{cfg: cfg}
}

// ValidateSignal returns advisory warnings for a signal. An empty list means
// the signal is clean.
func (g *Guard) ValidateSignal(signal common.Signal) []string {
	var warnings []string

	if !signal.Size.IsPos() {
		warnings = append(warnings, "signal size must be positive")
	}
	if signal.Symbol == "" {
		warnings = append(warnings, "signal has no symbol")
	}
	if signal.Action == common.SignalActionEntry {
		if _, ok := signal.Metadata["stop_loss"]; !ok {
			warnings = append(warnings, "entry signal carries no stop-loss hint")
		}
	}

	return warnings
}

// CheckPositionSize reports whether the exposure left after applying the
// signed size delta stays within the configured limit. A zero limit disables
// the check.
func (g *Guard) CheckPositionSize(currentSize, delta fixed.Point) bool {
	if g.cfg.MaxPositionSize.IsZero() {
		return true
	}
	return currentSize.Add(delta).Abs().Lte(g.cfg.MaxPositionSize)
}

// CheckLeverage reports whether the notional exposure stays within what the
// configured leverage allows for the given equity.
func (g *Guard) CheckLeverage(notional, equity fixed.Point) bool {
	if !equity.IsPos() {
		return notional.IsZero()
	}
	return notional.Lte(equity.Mul(g.cfg.Leverage))
}

// CheckMargin reports whether the account can fund the signed size change
// at the given price.
func (g *Guard) CheckMargin(account *Account, symbol string, size, price fixed.Point) bool {
	return account.CanOpenPosition(symbol, size, price)
}

// CheckDrawdownStop reports whether the drawdown from peak reached the
// configured stop. True means halt further trading. A zero threshold
// disables the stop.
func (g *Guard) CheckDrawdownStop(peak, current fixed.Point) bool {
	if g.cfg.MaxDrawdown.IsZero() || !peak.IsPos() {
		return false
	}
	drawdown := peak.Sub(current).Div(peak)
	return drawdown.Gte(g.cfg.MaxDrawdown)
}

// Drawdown returns the current drawdown fraction from peak.
func Drawdown(peak, current fixed.Point) fixed.Point {
	if !peak.IsPos() {
		return fixed.Zero
	}
	return peak.Sub(current).Div(peak)
}
