package backtest

import (
	"time"

	"go.uber.org/zap"

	"github.com/mhornak/meridian/pkg/common"
	"github.com/mhornak/meridian/pkg/utility"
	"github.com/mhornak/meridian/pkg/utility/fixed"
)

const accountComponentName = "backtest.account"

// Account applies fills to cash and positions, marks open exposure to market
// and builds the equity curve. One position per symbol; a position whose size
// reaches exactly zero is removed in the same operation.
type Account struct {
	cfg    *Config
	logger *zap.Logger

	cash        fixed.Point
	positions   map[string]*common.Position
	symbolOrder []string

	realizedPnL fixed.Point
	peakEquity  fixed.Point
	equityCurve []common.AccountSnapshot

	totalTrades   int
	winningTrades int
	losingTrades  int
}

func NewAccount(cfg *Config, logger *zap.Logger) *Account {
	return &Account{
		cfg:         cfg,
		logger:      logger,
		cash:        cfg.StartingCash,
		positions:   make(map[string]*common.Position),
		realizedPnL: fixed.Zero,
		peakEquity:  cfg.StartingCash,
	}
}

// ProcessFill is the central accounting operation. It returns a copy of the
// fill with the realized P&L attributed to it. A fill against an opposite
// position larger than that position closes it and opens a reversed one for
// the excess, atomically.
func (a *Account) ProcessFill(fill common.Fill) common.Fill {
	a.cash = a.cash.Sub(fill.Commission)
	a.totalTrades++

	signed := fill.Size
	if fill.Side == common.OrderSideSell {
		signed = signed.Neg()
	}

	position, ok := a.positions[fill.Symbol]
	if !ok {
		a.open(fill.Symbol, signed, fill.Price, fill.TimeStamp)
		return fill
	}

	if position.Size.IsPos() == signed.IsPos() {
		// Same direction, blend the average entry price.
		oldAbs := position.Size.Abs()
		addAbs := signed.Abs()
		newAbs := oldAbs.Add(addAbs)
		position.AvgPrice = oldAbs.Mul(position.AvgPrice).Add(addAbs.Mul(fill.Price)).Div(newAbs)
		position.Size = position.Size.Add(signed)
		position.MarkPrice = fill.Price
		position.UnrealizedPnL = position.MarkToMarket(fill.Price)
		a.cash = a.cash.Sub(signed.Mul(fill.Price))
		return fill
	}

	// Opposite direction: reduce, close or reverse.
	openAbs := position.Size.Abs()
	fillAbs := signed.Abs()
	reduceAbs := fixed.Min(openAbs, fillAbs)

	realized := reduceAbs.Mul(fill.Price.Sub(position.AvgPrice))
	if !position.IsLong() {
		realized = reduceAbs.Mul(position.AvgPrice.Sub(fill.Price))
	}

	signedReduce := reduceAbs
	if fill.Side == common.OrderSideSell {
		signedReduce = signedReduce.Neg()
	}
	a.cash = a.cash.Sub(signedReduce.Mul(fill.Price))

	position.Size = position.Size.Add(signedReduce)
	position.RealizedPnL = position.RealizedPnL.Add(realized)
	a.realizedPnL = a.realizedPnL.Add(realized)

	if realized.IsPos() {
		a.winningTrades++
	} else if realized.IsNeg() {
		a.losingTrades++
	}

	if position.Size.IsZero() {
		a.remove(fill.Symbol)
	} else {
		position.MarkPrice = fill.Price
		position.UnrealizedPnL = position.MarkToMarket(fill.Price)
	}

	excess := fillAbs.Sub(reduceAbs)
	if excess.IsPos() {
		signedExcess := excess
		if fill.Side == common.OrderSideSell {
			signedExcess = signedExcess.Neg()
		}
		a.open(fill.Symbol, signedExcess, fill.Price, fill.TimeStamp)
	}

	fill.RealizedPnL = realized
	return fill
}

func (a *Account) open(symbol string, signedSize, price fixed.Point, timeStamp time.Time) {
	a.positions[symbol] = &common.Position{
		Size:          signedSize,
		AvgPrice:      price,
		MarkPrice:     price,
		RealizedPnL:   fixed.Zero,
		UnrealizedPnL: fixed.Zero,
		OpenTime:      timeStamp,

		Source:      accountComponentName,
		Symbol:      symbol,
		ExecutionId: utility.GetExecutionID(),
		TraceID:     utility.CreateTraceID(),
		TimeStamp:   timeStamp,
	}
	a.symbolOrder = append(a.symbolOrder, symbol)
	a.cash = a.cash.Sub(signedSize.Mul(price))
}

func (a *Account) remove(symbol string) {
	delete(a.positions, symbol)
	for idx, s := range a.symbolOrder {
		if s == symbol {
			a.symbolOrder = append(a.symbolOrder[:idx], a.symbolOrder[idx+1:]...)
			return
		}
	}
}

// UpdatePrices marks every position present in the map to its new price.
// Positions not in the map are left unchanged.
func (a *Account) UpdatePrices(prices map[string]fixed.Point) {
	for _, symbol := range a.symbolOrder {
		price, ok := prices[symbol]
		if !ok {
			continue
		}
		position := a.positions[symbol]
		position.MarkPrice = price
		position.UnrealizedPnL = position.MarkToMarket(price)
	}
}

// Equity is computed fresh on every call, never cached.
func (a *Account) Equity() fixed.Point {
	equity := a.cash
	for _, symbol := range a.symbolOrder {
		position := a.positions[symbol]
		equity = equity.Add(position.MarkToMarket(position.MarkPrice))
	}
	return equity
}

func (a *Account) NotionalValue() fixed.Point {
	notional := fixed.Zero
	for _, symbol := range a.symbolOrder {
		notional = notional.Add(a.positions[symbol].Notional())
	}
	return notional
}

func (a *Account) UsedMargin() fixed.Point {
	if a.cfg.MarginRequirement.IsZero() {
		return fixed.Zero
	}
	return a.NotionalValue().Mul(a.cfg.MarginRequirement)
}

func (a *Account) AvailableMargin() fixed.Point {
	equity := a.Equity()
	if a.cfg.Leverage.Gt(fixed.One) {
		return equity.Mul(a.cfg.Leverage).Sub(a.UsedMargin())
	}
	return equity.Sub(a.UsedMargin())
}

// CanOpenPosition reports whether the account can fund the exposure a fill
// of the given signed size would add for the symbol. The size is netted
// against the open position first; reducing or closing needs no new capital.
func (a *Account) CanOpenPosition(symbol string, size, price fixed.Point) bool {
	current := fixed.Zero
	if position, ok := a.positions[symbol]; ok {
		current = position.Size
	}
	opening := current.Add(size).Abs().Sub(current.Abs())
	if !opening.IsPos() {
		return true
	}

	cost := opening.Mul(price)
	if a.cfg.Leverage.Lte(fixed.One) {
		return a.cash.Gte(cost)
	}
	return a.AvailableMargin().Gte(cost.Mul(a.cfg.MarginRequirement))
}

// CreateSnapshot appends an immutable snapshot to the equity curve and
// advances the peak-equity high-water mark.
func (a *Account) CreateSnapshot(timeStamp time.Time) common.AccountSnapshot {
	equity := a.Equity()
	if equity.Gt(a.peakEquity) {
		a.peakEquity = equity
	}

	unrealized := fixed.Zero
	positions := make([]common.Position, 0, len(a.symbolOrder))
	for _, symbol := range a.symbolOrder {
		position := a.positions[symbol]
		copied := *position
		copied.UnrealizedPnL = position.MarkToMarket(position.MarkPrice)
		unrealized = unrealized.Add(copied.UnrealizedPnL)
		positions = append(positions, copied)
	}

	snapshot := common.AccountSnapshot{
		Cash:            a.cash,
		Equity:          equity,
		NotionalValue:   a.NotionalValue(),
		UsedMargin:      a.UsedMargin(),
		AvailableMargin: a.AvailableMargin(),
		UnrealizedPnL:   unrealized,
		RealizedPnL:     a.realizedPnL,
		Positions:       positions,

		Source:      accountComponentName,
		ExecutionId: utility.GetExecutionID(),
		TraceID:     utility.CreateTraceID(),
		TimeStamp:   timeStamp,
	}

	a.equityCurve = append(a.equityCurve, snapshot)
	return snapshot
}

func (a *Account) Cash() fixed.Point {
	return a.cash
}

func (a *Account) RealizedPnL() fixed.Point {
	return a.realizedPnL
}

func (a *Account) PeakEquity() fixed.Point {
	return a.peakEquity
}

func (a *Account) EquityCurve() []common.AccountSnapshot {
	out := make([]common.AccountSnapshot, len(a.equityCurve))
	copy(out, a.equityCurve)
	return out
}

func (a *Account) Position(symbol string) (common.Position, bool) {
	position, ok := a.positions[symbol]
	if !ok {
		return common.Position{}, false
	}
	return *position, true
}

func (a *Account) Positions() []common.Position {
	out := make([]common.Position, 0, len(a.symbolOrder))
	for _, symbol := range a.symbolOrder {
		out = append(out, *a.positions[symbol])
	}
	return out
}

func (a *Account) TradeCounts() (total, winning, losing int) {
	return a.totalTrades, a.winningTrades, a.losingTrades
}
