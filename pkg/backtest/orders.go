package backtest

import (
	"time"

	"go.uber.org/zap"

	"github.com/mhornak/meridian/pkg/common"
	"github.com/mhornak/meridian/pkg/utility"
	"github.com/mhornak/meridian/pkg/utility/fixed"
)

const orderBookComponentName = "backtest.orders"

// SubmitResult distinguishes the three outcomes of a signal submission:
// an order was created (Order != nil), the signal was a no-op (cancel or
// modify with no live target), or the signal was rejected with a reason.
type SubmitResult struct {
	Order    *common.Order
	Rejected bool
	Reason   string
}

// OrderBook owns every order of a run. Orders are handed out by reference
// during a step but only the book mutates them.
type OrderBook struct {
	cfg    *Config
	logger *zap.Logger

	idCounter common.OrderId
	byId      map[common.OrderId]*common.Order
	bySignal  map[common.SignalId]common.OrderId
	active    []*common.Order

	rejectionCount uint64
}

func NewOrderBook(cfg *Config, logger *zap.Logger) *OrderBook {
	return &OrderBook{
		cfg:      cfg,
		logger:   logger,
		byId:     make(map[common.OrderId]*common.Order),
		bySignal: make(map[common.SignalId]common.OrderId),
	}
}

// Submit consumes a signal and produces at most one order. Business-rule
// failures are reported through the result, never as an error.
func (b *OrderBook) Submit(signal common.Signal) SubmitResult {
	switch signal.Action {
	case common.SignalActionEntry, common.SignalActionExit:
		return b.create(signal)
	case common.SignalActionCancel:
		b.cancel(signal)
		return SubmitResult{}
	case common.SignalActionModify:
		b.modify(signal)
		return SubmitResult{}
	default:
		b.logger.Warn("unknown signal action, dropping signal",
			zap.Int64("signal_id", signal.Id),
			zap.Int("action", int(signal.Action)))
		return b.reject("unknown signal action")
	}
}

func (b *OrderBook) create(signal common.Signal) SubmitResult {
	if !signal.Size.IsPos() {
		return b.reject("order size must be positive")
	}
	if signal.Size.Lt(b.cfg.MinLotSize) {
		return b.reject("order size below minimum lot")
	}
	if !b.cfg.MaxOrderSize.IsZero() && signal.Size.Gt(b.cfg.MaxOrderSize) {
		return b.reject("order size above maximum")
	}
	switch signal.Type {
	case common.OrderTypeLimit:
		if !signal.LimitPrice.IsPos() {
			return b.reject("limit order requires a positive limit price")
		}
	case common.OrderTypeStop:
		if !signal.StopPrice.IsPos() {
			return b.reject("stop order requires a positive stop price")
		}
	case common.OrderTypeStopLimit:
		if !signal.StopPrice.IsPos() {
			return b.reject("stop-limit order requires a positive stop price")
		}
		if !signal.LimitPrice.IsPos() {
			return b.reject("stop-limit order requires a positive limit price")
		}
	}

	b.idCounter++
	order := &common.Order{
		Id:         b.idCounter,
		SignalId:   signal.Id,
		Side:       signal.Side,
		Type:       signal.Type,
		Size:       signal.Size,
		FilledSize: fixed.Zero,
		LimitPrice: signal.LimitPrice,
		StopPrice:  signal.StopPrice,
		Status:     common.OrderStatusPending,
		CreatedAt:  signal.TimeStamp,
		UpdatedAt:  signal.TimeStamp,

		Source:      orderBookComponentName,
		Symbol:      signal.Symbol,
		ExecutionId: utility.GetExecutionID(),
		TraceID:     utility.CreateTraceID(),
	}

	b.byId[order.Id] = order
	b.bySignal[signal.Id] = order.Id
	b.active = append(b.active, order)
	return SubmitResult{Order: order}
}

func (b *OrderBook) cancel(signal common.Signal) {
	order := b.lookupBySignal(signal.Id)
	if order == nil || order.Status.IsTerminal() {
		b.logger.Debug("cancel target missing or terminal, ignoring",
			zap.Int64("signal_id", signal.Id))
		return
	}

	order.Status = common.OrderStatusCancelled
	order.UpdatedAt = signal.TimeStamp
	b.removeActive(order.Id)
}

func (b *OrderBook) modify(signal common.Signal) {
	order := b.lookupBySignal(signal.Id)
	if order == nil || order.Status.IsTerminal() {
		b.logger.Debug("modify target missing or terminal, ignoring",
			zap.Int64("signal_id", signal.Id))
		return
	}

	if !signal.LimitPrice.IsZero() {
		order.LimitPrice = signal.LimitPrice
	}
	if !signal.StopPrice.IsZero() {
		order.StopPrice = signal.StopPrice
	}
	if signal.Size.IsPos() {
		// The new size delta applies on top of what has already filled.
		order.Size = order.FilledSize.Add(signal.Size)
	}
	order.UpdatedAt = signal.TimeStamp
}

// ApplyFill increases the filled size of an order and advances its status.
// Unknown order ids are logged and ignored.
func (b *OrderBook) ApplyFill(id common.OrderId, fillSize fixed.Point, timeStamp time.Time) {
	order, ok := b.byId[id]
	if !ok {
		b.logger.Warn("fill for unknown order, ignoring", zap.Int64("order_id", id))
		return
	}
	if order.Status.IsTerminal() {
		b.logger.Warn("fill for terminal order, ignoring",
			zap.Int64("order_id", id),
			zap.String("status", order.Status.String()))
		return
	}

	order.FilledSize = fixed.Min(order.FilledSize.Add(fillSize), order.Size)
	order.UpdatedAt = timeStamp

	if order.FilledSize.Gte(order.Size) {
		order.Status = common.OrderStatusFilled
		b.removeActive(order.Id)
	} else if order.FilledSize.IsPos() {
		order.Status = common.OrderStatusPartial
	}
}

// Active returns the live orders in creation order. The slice is a copy, the
// pointed-to orders are not.
func (b *OrderBook) Active() []*common.Order {
	out := make([]*common.Order, len(b.active))
	copy(out, b.active)
	return out
}

func (b *OrderBook) ActiveBySymbol(symbol string) []*common.Order {
	out := make([]*common.Order, 0, len(b.active))
	for _, order := range b.active {
		if order.Symbol == symbol {
			out = append(out, order)
		}
	}
	return out
}

func (b *OrderBook) ActiveByType(orderType common.OrderType) []*common.Order {
	out := make([]*common.Order, 0, len(b.active))
	for _, order := range b.active {
		if order.Type == orderType {
			out = append(out, order)
		}
	}
	return out
}

func (b *OrderBook) Get(id common.OrderId) (common.Order, bool) {
	order, ok := b.byId[id]
	if !ok {
		return common.Order{}, false
	}
	return *order, true
}

func (b *OrderBook) RejectionCount() uint64 {
	return b.rejectionCount
}

func (b *OrderBook) reject(reason string) SubmitResult {
	b.rejectionCount++
	return SubmitResult{Rejected: true, Reason: reason}
}

func (b *OrderBook) lookupBySignal(id common.SignalId) *common.Order {
	orderId, ok := b.bySignal[id]
	if !ok {
		return nil
	}
	return b.byId[orderId]
}

func (b *OrderBook) removeActive(id common.OrderId) {
	for idx, order := range b.active {
		if order.Id == id {
			b.active = append(b.active[:idx], b.active[idx+1:]...)
			return
		}
	}
}
