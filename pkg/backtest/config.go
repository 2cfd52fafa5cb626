package backtest

import (
	"fmt"
	"time"

	"github.com/mhornak/meridian/pkg/utility/fixed"
)

type SlippageModel string
type FillPolicy string

const (
	SlippageModelFixed      SlippageModel = "fixed"
	SlippageModelVolatility SlippageModel = "volatility"
	SlippageModelSpread     SlippageModel = "spread"
)

const (
	FillPolicyAggressive   FillPolicy = "aggressive"
	FillPolicyConservative FillPolicy = "conservative"
	FillPolicyRealistic    FillPolicy = "realistic"
)

// Config is validated once at construction and read-only afterwards. It is
// shared by reference across the execution simulator, the account and the
// guards of a single run, and may be shared across independent runs.
type Config struct {
	StartingCash fixed.Point
	Leverage     fixed.Point

	CommissionFlat fixed.Point
	CommissionPct  fixed.Point

	Slippage      SlippageModel
	SlippagePct   fixed.Point
	SlippageConst fixed.Point

	Policy  FillPolicy
	Latency time.Duration

	PartialFills   bool
	LiquidityLimit fixed.Point
	MinFillSize    fixed.Point

	MinLotSize   fixed.Point
	MaxOrderSize fixed.Point

	MarginRequirement fixed.Point

	MaxPositionSize fixed.Point
	MaxDrawdown     fixed.Point

	Seed int64
}

func DefaultConfig() Config {
	return Config{
		StartingCash:   fixed.FromInt(100_000, 0),
		Leverage:       fixed.One,
		Slippage:       SlippageModelFixed,
		Policy:         FillPolicyAggressive,
		PartialFills:   true,
		LiquidityLimit: fixed.FromFloat64(0.1),
	}
}

// Validate returns a hard error on an invalid configuration. This is the only
// condition in the engine that surfaces as an error rather than a rejection.
func (c Config) Validate() error {
	if !c.StartingCash.IsPos() {
		return fmt.Errorf("starting cash must be positive, got %s", c.StartingCash)
	}
	if c.Leverage.Lt(fixed.One) {
		return fmt.Errorf("leverage must be at least 1, got %s", c.Leverage)
	}
	if c.CommissionFlat.IsNeg() || c.CommissionPct.IsNeg() {
		return fmt.Errorf("commission must not be negative")
	}
	if c.SlippagePct.IsNeg() || c.SlippageConst.IsNeg() {
		return fmt.Errorf("slippage parameters must not be negative")
	}
	switch c.Slippage {
	case SlippageModelFixed, SlippageModelVolatility, SlippageModelSpread:
	default:
		return fmt.Errorf("unknown slippage model %q", c.Slippage)
	}
	switch c.Policy {
	case FillPolicyAggressive, FillPolicyConservative, FillPolicyRealistic:
	default:
		return fmt.Errorf("unknown fill policy %q", c.Policy)
	}
	if c.Latency < 0 {
		return fmt.Errorf("latency must not be negative, got %s", c.Latency)
	}
	if c.LiquidityLimit.IsNeg() || c.LiquidityLimit.Gt(fixed.One) {
		return fmt.Errorf("liquidity limit must be within [0, 1], got %s", c.LiquidityLimit)
	}
	if c.MinFillSize.IsNeg() || c.MinLotSize.IsNeg() {
		return fmt.Errorf("fill and lot size floors must not be negative")
	}
	if !c.MaxOrderSize.IsZero() && c.MaxOrderSize.Lt(c.MinLotSize) {
		return fmt.Errorf("max order size %s is below min lot size %s", c.MaxOrderSize, c.MinLotSize)
	}
	if c.MarginRequirement.IsNeg() || c.MarginRequirement.Gt(fixed.One) {
		return fmt.Errorf("margin requirement must be within [0, 1], got %s", c.MarginRequirement)
	}
	if c.MaxPositionSize.IsNeg() {
		return fmt.Errorf("max position size must not be negative, got %s", c.MaxPositionSize)
	}
	if c.MaxDrawdown.IsNeg() || c.MaxDrawdown.Gt(fixed.One) {
		return fmt.Errorf("max drawdown must be within [0, 1], got %s", c.MaxDrawdown)
	}
	return nil
}
