package backtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mhornak/meridian/pkg/common"
	"github.com/mhornak/meridian/pkg/utility/fixed"
)

func newTestRunner(t *testing.T, mutate func(*Config)) *Runner {
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	runner, err := NewRunner(cfg, nil, zap.NewNop())
	require.NoError(t, err)
	return runner
}

func runnerBar(open, high, low, closePrice float64, at time.Time) common.Bar {
	return common.Bar{
		Symbol:    "EURUSD",
		TimeStamp: at,
		Period:    time.Minute,
		Open:      fixed.FromFloat64(open),
		High:      fixed.FromFloat64(high),
		Low:       fixed.FromFloat64(low),
		Close:     fixed.FromFloat64(closePrice),
		Volume:    fixed.FromInt(10_000, 0),
	}
}

func TestRunner_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StartingCash = fixed.Zero

	_, err := NewRunner(cfg, nil, zap.NewNop())
	assert.Error(t, err)
}

func TestRunner_SignalToFill(t *testing.T) {
	runner := newTestRunner(t, nil)
	ctx := context.Background()
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	runner.OnSignal(ctx, common.Signal{
		Id:     1,
		Side:   common.OrderSideBuy,
		Action: common.SignalActionEntry,
		Type:   common.OrderTypeMarket,
		Size:   fixed.FromInt(100, 0),
		Symbol: "EURUSD",
	})
	require.Len(t, runner.Orders().Active(), 1)

	runner.OnBar(ctx, runnerBar(150, 151, 149, 150, start))

	fills := runner.Fills()
	require.Len(t, fills, 1)
	assert.Equal(t, "150", fills[0].Price.String())
	assert.Equal(t, "100", fills[0].Size.String())
	assert.Empty(t, runner.Orders().Active())

	position, ok := runner.Account().Position("EURUSD")
	require.True(t, ok)
	assert.Equal(t, "100", position.Size.String())

	assert.Len(t, runner.Account().EquityCurve(), 1)
	assert.Equal(t, uint64(1), runner.ExecutionStats().FillCount)
}

func TestRunner_RejectedSignalCreatesNoOrder(t *testing.T) {
	runner := newTestRunner(t, nil)

	runner.OnSignal(context.Background(), common.Signal{
		Id:     1,
		Side:   common.OrderSideBuy,
		Action: common.SignalActionEntry,
		Type:   common.OrderTypeMarket,
		Size:   fixed.Zero,
		Symbol: "EURUSD",
	})

	assert.Empty(t, runner.Orders().Active())
	assert.Equal(t, uint64(1), runner.Orders().RejectionCount())
}

func TestRunner_AdmissionBlocksOversizedPosition(t *testing.T) {
	runner := newTestRunner(t, func(cfg *Config) {
		cfg.MaxPositionSize = fixed.FromInt(50, 0)
	})

	runner.OnSignal(context.Background(), common.Signal{
		Id:     1,
		Side:   common.OrderSideBuy,
		Action: common.SignalActionEntry,
		Type:   common.OrderTypeMarket,
		Size:   fixed.FromInt(100, 0),
		Symbol: "EURUSD",
	})

	assert.Empty(t, runner.Orders().Active())
}

func TestRunner_AdmissionBlocksInsufficientMargin(t *testing.T) {
	runner := newTestRunner(t, nil)
	ctx := context.Background()
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	// Establish a last close so the margin check has a price.
	runner.OnBar(ctx, runnerBar(100, 101, 99, 100, start))

	runner.OnSignal(ctx, common.Signal{
		Id:     1,
		Side:   common.OrderSideBuy,
		Action: common.SignalActionEntry,
		Type:   common.OrderTypeMarket,
		Size:   fixed.FromInt(2000, 0), // 200k notional against 100k cash
		Symbol: "EURUSD",
	})

	assert.Empty(t, runner.Orders().Active())
}

func TestRunner_ExitFullyInvestedAccount(t *testing.T) {
	runner := newTestRunner(t, nil)
	ctx := context.Background()
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	runner.OnSignal(ctx, common.Signal{
		Id:     1,
		Side:   common.OrderSideBuy,
		Action: common.SignalActionEntry,
		Type:   common.OrderTypeMarket,
		Size:   fixed.FromInt(100, 0),
		Symbol: "EURUSD",
	})
	runner.OnBar(ctx, runnerBar(999, 1000, 998, 999, start))

	// 100 cash left; the closing sell must not be margin-gated.
	require.Equal(t, "100", runner.Account().Cash().String())

	runner.OnSignal(ctx, common.Signal{
		Id:     2,
		Side:   common.OrderSideSell,
		Action: common.SignalActionExit,
		Type:   common.OrderTypeMarket,
		Size:   fixed.FromInt(100, 0),
		Symbol: "EURUSD",
	})
	require.Len(t, runner.Orders().Active(), 1, "closing order must be admitted")

	runner.OnBar(ctx, runnerBar(999, 1000, 998, 999, start.Add(time.Minute)))

	_, open := runner.Account().Position("EURUSD")
	assert.False(t, open, "closing fill must flatten the position")
	assert.Equal(t, "100000", runner.Account().Cash().String())
}

func TestRunner_ExitMaxSizePosition(t *testing.T) {
	runner := newTestRunner(t, func(cfg *Config) {
		cfg.MaxPositionSize = fixed.FromInt(100, 0)
	})
	ctx := context.Background()
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	runner.OnSignal(ctx, common.Signal{
		Id:     1,
		Side:   common.OrderSideBuy,
		Action: common.SignalActionEntry,
		Type:   common.OrderTypeMarket,
		Size:   fixed.FromInt(100, 0),
		Symbol: "EURUSD",
	})
	runner.OnBar(ctx, runnerBar(150, 151, 149, 150, start))

	position, ok := runner.Account().Position("EURUSD")
	require.True(t, ok)
	require.Equal(t, "100", position.Size.String())

	// Exiting a position already at the cap must pass the size check.
	runner.OnSignal(ctx, common.Signal{
		Id:     2,
		Side:   common.OrderSideSell,
		Action: common.SignalActionExit,
		Type:   common.OrderTypeMarket,
		Size:   fixed.FromInt(100, 0),
		Symbol: "EURUSD",
	})
	require.Len(t, runner.Orders().Active(), 1)

	runner.OnBar(ctx, runnerBar(150, 151, 149, 150, start.Add(time.Minute)))

	_, open := runner.Account().Position("EURUSD")
	assert.False(t, open)
}

func TestRunner_DrawdownHaltStopsRun(t *testing.T) {
	runner := newTestRunner(t, func(cfg *Config) {
		cfg.MaxDrawdown = fixed.FromFloat64(0.1)
	})
	ctx := context.Background()
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	runner.OnSignal(ctx, common.Signal{
		Id:     1,
		Side:   common.OrderSideBuy,
		Action: common.SignalActionEntry,
		Type:   common.OrderTypeMarket,
		Size:   fixed.FromInt(100, 0),
		Symbol: "EURUSD",
	})
	runner.OnBar(ctx, runnerBar(100, 101, 99, 100, start))
	require.False(t, runner.Halted())

	// 100 long marked from 100 down to 50 loses 5000 of 100000 equity peak,
	// another leg down trips the 10% stop.
	runner.OnBar(ctx, runnerBar(50, 51, 39, 40, start.Add(time.Minute)))
	assert.True(t, runner.Halted())

	curveLen := len(runner.Account().EquityCurve())

	// Halted runs ignore further bars and signals.
	runner.OnBar(ctx, runnerBar(40, 41, 39, 40, start.Add(2*time.Minute)))
	assert.Len(t, runner.Account().EquityCurve(), curveLen)

	runner.OnSignal(ctx, common.Signal{
		Id:     2,
		Side:   common.OrderSideBuy,
		Action: common.SignalActionEntry,
		Type:   common.OrderTypeMarket,
		Size:   fixed.One,
		Symbol: "EURUSD",
	})
	assert.Empty(t, runner.Orders().Active())
}

func TestRunner_Deterministic(t *testing.T) {
	run := func() []common.Fill {
		runner := newTestRunner(t, nil)
		ctx := context.Background()
		start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

		for step := 0; step < 10; step++ {
			runner.OnSignal(ctx, common.Signal{
				Id:     common.SignalId(step + 1),
				Side:   common.OrderSideBuy,
				Action: common.SignalActionEntry,
				Type:   common.OrderTypeMarket,
				Size:   fixed.One,
				Symbol: "EURUSD",
			})
			price := 100 + float64(step)
			runner.OnBar(ctx, runnerBar(price, price+1, price-1, price, start.Add(time.Duration(step)*time.Minute)))
		}
		return runner.Fills()
	}

	first := run()
	second := run()

	require.Equal(t, len(first), len(second))
	for idx := range first {
		assert.Equal(t, first[idx].OrderId, second[idx].OrderId)
		assert.True(t, first[idx].Price.Eq(second[idx].Price))
		assert.True(t, first[idx].Size.Eq(second[idx].Size))
	}
}
