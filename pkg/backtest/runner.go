package backtest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mhornak/meridian/pkg/bus"
	"github.com/mhornak/meridian/pkg/common"
	"github.com/mhornak/meridian/pkg/utility"
	"github.com/mhornak/meridian/pkg/utility/fixed"
)

const runnerComponentName = "backtest.runner"

// Runner drives one simulation run. Bars are processed strictly one at a
// time; fills, order updates, accounting and the snapshot of a bar all
// complete before the next bar is considered. Once the drawdown stop trips
// the run accepts no further signals and processes no further bars, but
// recorded fills and snapshots stay queryable.
type Runner struct {
	cfg    *Config
	logger *zap.Logger
	router *bus.Router

	orders   *OrderBook
	executor *Executor
	account  *Account
	guard    *Guard

	fills          []common.Fill
	lastClose      map[string]fixed.Point
	simulationTime time.Time
	halted         bool
}

func NewRunner(cfg Config, router *bus.Router, logger *zap.Logger) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid backtest config: %w", err)
	}

	return &Runner{
		cfg:       &cfg,
		logger:    logger,
		router:    router,
		orders:    NewOrderBook(&cfg, logger),
		executor:  NewExecutor(&cfg, logger),
		account:   NewAccount(&cfg, logger),
		guard:     NewGuard(&cfg),
		lastClose: make(map[string]fixed.Point),
	}, nil
}

// OnSignal converts an inbound signal into an order. Rejections are posted
// as events and logged, never raised.
func (r *Runner) OnSignal(_ context.Context, signal common.Signal) {
	if r.halted {
		r.logger.Warn("run halted, dropping signal", zap.Int64("signal_id", signal.Id))
		return
	}

	for _, warning := range r.guard.ValidateSignal(signal) {
		r.logger.Warn("signal warning",
			zap.Int64("signal_id", signal.Id),
			zap.String("warning", warning))
	}

	if reason, ok := r.admit(signal); !ok {
		r.postRejected(signal, reason)
		return
	}

	result := r.orders.Submit(signal)
	if result.Rejected {
		r.postRejected(signal, result.Reason)
		return
	}
	if result.Order != nil {
		r.postAccepted(*result.Order)
	}
}

// OnBar advances the simulation by one bar.
func (r *Runner) OnBar(_ context.Context, bar common.Bar) {
	if r.halted {
		return
	}

	r.simulationTime = bar.TimeStamp
	r.lastClose[bar.Symbol] = bar.Close

	fills := r.executor.ProcessOrders(r.orders.ActiveBySymbol(bar.Symbol), bar)
	for _, fill := range fills {
		r.orders.ApplyFill(fill.OrderId, fill.Size, fill.TimeStamp)
		fill = r.account.ProcessFill(fill)
		r.fills = append(r.fills, fill)

		if r.router != nil {
			if err := r.router.Post(bus.FillEvent, fill); err != nil {
				r.logger.Warn("unable to post fill event", zap.Error(err))
			}
		}
	}

	r.account.UpdatePrices(map[string]fixed.Point{bar.Symbol: bar.Close})
	snapshot := r.account.CreateSnapshot(bar.TimeStamp)

	if r.router != nil {
		if err := r.router.Post(bus.SnapshotEvent, snapshot); err != nil {
			r.logger.Warn("unable to post snapshot event", zap.Error(err))
		}
	}

	if r.guard.CheckDrawdownStop(r.account.PeakEquity(), snapshot.Equity) {
		r.halt(snapshot)
	}
}

// admit runs the submission-time risk checks for order-creating signals.
// Checks apply to the signed exposure change, so a signal that reduces or
// closes a position is never blocked by the opening gates.
func (r *Runner) admit(signal common.Signal) (string, bool) {
	if signal.Action != common.SignalActionEntry && signal.Action != common.SignalActionExit {
		return "", true
	}

	current := fixed.Zero
	if position, ok := r.account.Position(signal.Symbol); ok {
		current = position.Size
	}
	delta := signal.Size
	if signal.Side == common.OrderSideSell {
		delta = delta.Neg()
	}
	if !r.guard.CheckPositionSize(current, delta) {
		return "position size limit exceeded", false
	}

	price := signal.LimitPrice
	if price.IsZero() {
		price = r.lastClose[signal.Symbol]
	}
	if !price.IsZero() && !r.guard.CheckMargin(r.account, signal.Symbol, delta, price) {
		return "insufficient margin", false
	}

	return "", true
}

func (r *Runner) halt(snapshot common.AccountSnapshot) {
	r.halted = true

	drawdown := Drawdown(r.account.PeakEquity(), snapshot.Equity)
	r.logger.Info("drawdown stop reached, halting run",
		zap.String("drawdown", drawdown.String()),
		zap.String("equity", snapshot.Equity.String()))

	if r.router != nil {
		if err := r.router.Post(bus.HaltEvent, common.Halt{
			Reason:      "max drawdown stop",
			Drawdown:    drawdown,
			Source:      runnerComponentName,
			ExecutionId: utility.GetExecutionID(),
			TraceID:     utility.CreateTraceID(),
			TimeStamp:   r.simulationTime,
		}); err != nil {
			r.logger.Warn("unable to post halt event", zap.Error(err))
		}
	}
}

func (r *Runner) postAccepted(order common.Order) {
	if r.router == nil {
		return
	}
	if err := r.router.Post(bus.OrderAcceptedEvent, common.OrderAccepted{
		OriginalOrder: order,
		Source:        runnerComponentName,
		ExecutionId:   utility.GetExecutionID(),
		TraceID:       utility.CreateTraceID(),
		TimeStamp:     r.simulationTime,
	}); err != nil {
		r.logger.Warn("unable to post order accepted event", zap.Error(err))
	}
}

func (r *Runner) postRejected(signal common.Signal, reason string) {
	r.logger.Warn("signal rejected",
		zap.Int64("signal_id", signal.Id),
		zap.String("reason", reason))

	if r.router == nil {
		return
	}
	if err := r.router.Post(bus.OrderRejectedEvent, common.OrderRejected{
		OriginalSignal: signal,
		Reason:         reason,
		Source:         runnerComponentName,
		ExecutionId:    utility.GetExecutionID(),
		TraceID:        utility.CreateTraceID(),
		TimeStamp:      r.simulationTime,
	}); err != nil {
		r.logger.Warn("unable to post order rejected event", zap.Error(err))
	}
}

func (r *Runner) Halted() bool {
	return r.halted
}

func (r *Runner) Fills() []common.Fill {
	out := make([]common.Fill, len(r.fills))
	copy(out, r.fills)
	return out
}

func (r *Runner) Orders() *OrderBook {
	return r.orders
}

func (r *Runner) Account() *Account {
	return r.account
}

func (r *Runner) ExecutionStats() ExecutionStats {
	return r.executor.Stats()
}
