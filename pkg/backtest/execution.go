package backtest

import (
	"go.uber.org/zap"

	"github.com/mhornak/meridian/pkg/common"
	"github.com/mhornak/meridian/pkg/utility"
	"github.com/mhornak/meridian/pkg/utility/fixed"
)

const executorComponentName = "backtest.execution"

type ExecutionStats struct {
	FillCount       uint64
	PartialCount    uint64
	TotalSlippage   fixed.Point
	TotalCommission fixed.Point
}

// Executor decides whether, at what price and in what size each active order
// fills against the current bar. It owns no order or account state.
type Executor struct {
	cfg    *Config
	logger *zap.Logger

	tradeIdCounter common.TradeId
	stats          ExecutionStats
}

func NewExecutor(cfg *Config, logger *zap.Logger) *Executor {
	return &Executor{
		cfg:    cfg,
		logger: logger,
		stats: ExecutionStats{
			TotalSlippage:   fixed.Zero,
			TotalCommission: fixed.Zero,
		},
	}
}

// ProcessOrders attempts to fill every order whose symbol matches the bar.
// Orders with missing required prices simply never fill.
func (e *Executor) ProcessOrders(orders []*common.Order, bar common.Bar) []common.Fill {
	var fills []common.Fill

	for _, order := range orders {
		if order.Symbol != bar.Symbol || order.Status.IsTerminal() {
			continue
		}

		canFill, price := e.fillCondition(*order, bar)
		if !canFill {
			continue
		}

		size := e.fillSize(*order, bar)
		if !size.IsPos() {
			continue
		}

		slippage := e.slippageAmount(price, bar)
		if order.Side == common.OrderSideBuy {
			price = price.Add(slippage)
		} else {
			price = price.Sub(slippage)
		}

		commission := e.cfg.CommissionFlat.Add(price.Mul(size).Mul(e.cfg.CommissionPct))

		e.tradeIdCounter++
		fill := common.Fill{
			TradeId:    e.tradeIdCounter,
			OrderId:    order.Id,
			SignalId:   order.SignalId,
			Side:       order.Side,
			Price:      price,
			Size:       size,
			Commission: commission,
			Slippage:   slippage,

			Source:      executorComponentName,
			Symbol:      order.Symbol,
			ExecutionId: utility.GetExecutionID(),
			TraceID:     utility.CreateTraceID(),
			TimeStamp:   bar.TimeStamp.Add(e.cfg.Latency),
		}

		e.stats.FillCount++
		if size.Lt(order.RemainingSize()) {
			e.stats.PartialCount++
			fill.Note = "partial"
		}
		e.stats.TotalSlippage = e.stats.TotalSlippage.Add(slippage)
		e.stats.TotalCommission = e.stats.TotalCommission.Add(commission)

		fills = append(fills, fill)
	}

	return fills
}

func (e *Executor) Stats() ExecutionStats {
	return e.stats
}

func (e *Executor) fillCondition(order common.Order, bar common.Bar) (bool, fixed.Point) {
	switch order.Type {
	case common.OrderTypeMarket:
		return true, e.marketPrice(order.Side, bar)

	case common.OrderTypeLimit:
		if !order.LimitPrice.IsPos() {
			return false, fixed.Zero
		}
		return limitFill(order.Side, order.LimitPrice, bar)

	case common.OrderTypeStop:
		if !order.StopPrice.IsPos() {
			return false, fixed.Zero
		}
		return stopFill(order.Side, order.StopPrice, bar)

	case common.OrderTypeStopLimit:
		if !order.StopPrice.IsPos() || !order.LimitPrice.IsPos() {
			return false, fixed.Zero
		}
		if triggered, _ := stopFill(order.Side, order.StopPrice, bar); !triggered {
			return false, fixed.Zero
		}
		return limitFill(order.Side, order.LimitPrice, bar)

	default:
		e.logger.Warn("unknown order type, order will not fill",
			zap.Int64("order_id", order.Id),
			zap.Int("type", int(order.Type)))
		return false, fixed.Zero
	}
}

func (e *Executor) marketPrice(side common.OrderSide, bar common.Bar) fixed.Point {
	switch e.cfg.Policy {
	case FillPolicyConservative:
		return bar.Close
	case FillPolicyRealistic:
		if bar.HasQuotes() {
			if side == common.OrderSideBuy {
				return bar.Ask
			}
			return bar.Bid
		}
		return bar.Open
	default:
		return bar.Open
	}
}

// Limit orders never fill worse than their limit.
func limitFill(side common.OrderSide, limit fixed.Point, bar common.Bar) (bool, fixed.Point) {
	if side == common.OrderSideBuy {
		if bar.Low.Lte(limit) {
			return true, fixed.Min(limit, bar.Open)
		}
		return false, fixed.Zero
	}
	if bar.High.Gte(limit) {
		return true, fixed.Max(limit, bar.Open)
	}
	return false, fixed.Zero
}

// Stops fill at parity or worse than the stop level, modeling slippage
// through the trigger.
func stopFill(side common.OrderSide, stop fixed.Point, bar common.Bar) (bool, fixed.Point) {
	if side == common.OrderSideBuy {
		if bar.High.Gte(stop) {
			return true, fixed.Max(stop, bar.Open)
		}
		return false, fixed.Zero
	}
	if bar.Low.Lte(stop) {
		return true, fixed.Min(stop, bar.Open)
	}
	return false, fixed.Zero
}

func (e *Executor) fillSize(order common.Order, bar common.Bar) fixed.Point {
	remaining := order.RemainingSize()
	if !e.cfg.PartialFills {
		return remaining
	}
	if e.cfg.LiquidityLimit.IsZero() || !bar.Volume.IsPos() {
		return remaining
	}

	liquidityCap := bar.Volume.Mul(e.cfg.LiquidityLimit)
	if remaining.Lte(liquidityCap) {
		return remaining
	}

	// The minimum fill floor deliberately takes precedence over the
	// liquidity cap, clamped to what the order still needs.
	size := fixed.Max(liquidityCap, e.cfg.MinFillSize)
	return fixed.Min(size, remaining)
}

func (e *Executor) slippageAmount(price fixed.Point, bar common.Bar) fixed.Point {
	switch e.cfg.Slippage {
	case SlippageModelVolatility:
		if bar.Low.Gte(bar.High) || bar.Close.IsZero() {
			return fixed.Zero
		}
		barRange := bar.High.Sub(bar.Low).Div(bar.Close)
		return price.Mul(barRange).Mul(e.cfg.SlippagePct)
	case SlippageModelSpread:
		return bar.AskOrClose().Sub(bar.BidOrClose()).Div(fixed.Two)
	default:
		return price.Mul(e.cfg.SlippagePct).Add(e.cfg.SlippageConst)
	}
}
