package main

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/mhornak/meridian/pkg/bus"
	"github.com/mhornak/meridian/pkg/common"
	"github.com/mhornak/meridian/pkg/utility"
	"github.com/mhornak/meridian/pkg/utility/fixed"
)

const strategyComponentName = "backtest.strategy"

// crossoverStrategy is a minimal moving-average crossover advisor. It exists
// to exercise a full run end to end, not to make money.
type crossoverStrategy struct {
	logger *zap.Logger
	router *bus.Router

	fastPeriod int
	slowPeriod int
	size       fixed.Point

	closes   []fixed.Point
	long     bool
	hasState bool

	signalIdCounter atomic.Int64
}

func newCrossoverStrategy(logger *zap.Logger, router *bus.Router, cfg strategyConfig) *crossoverStrategy {
	fast := cfg.FastPeriod
	if fast <= 0 {
		fast = 10
	}
	slow := cfg.SlowPeriod
	if slow <= fast {
		slow = fast * 3
	}
	size := fixed.FromFloat64(cfg.Size)
	if size.IsZero() {
		size = fixed.One
	}

	return &crossoverStrategy{
		logger:     logger,
		router:     router,
		fastPeriod: fast,
		slowPeriod: slow,
		size:       size,
	}
}

func (s *crossoverStrategy) OnBar(_ context.Context, bar common.Bar) {
	s.closes = append(s.closes, bar.Close)
	if len(s.closes) > s.slowPeriod {
		s.closes = s.closes[len(s.closes)-s.slowPeriod:]
	}
	if len(s.closes) < s.slowPeriod {
		return
	}

	fast := fixed.Mean(s.closes[len(s.closes)-s.fastPeriod:])
	slow := fixed.Mean(s.closes)
	long := fast.Gt(slow)

	if !s.hasState {
		s.hasState = true
		s.long = long
		return
	}
	if long == s.long {
		return
	}
	s.long = long

	// Crossover. Close the old exposure and open the new one in a single
	// market order of twice the unit size.
	side := common.OrderSideSell
	if long {
		side = common.OrderSideBuy
	}

	s.post(common.Signal{
		Id:     s.signalIdCounter.Add(1),
		Side:   side,
		Action: common.SignalActionEntry,
		Type:   common.OrderTypeMarket,
		Size:   s.size.Mul(fixed.Two),

		Source:      strategyComponentName,
		Symbol:      bar.Symbol,
		ExecutionId: utility.GetExecutionID(),
		TraceID:     utility.CreateTraceID(),
		TimeStamp:   bar.TimeStamp,
	})
}

func (s *crossoverStrategy) post(signal common.Signal) {
	if err := s.router.Post(bus.SignalEvent, signal); err != nil {
		s.logger.Warn("unable to post signal", zap.Error(err))
	}
}
