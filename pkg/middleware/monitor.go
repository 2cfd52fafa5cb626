package middleware

import (
	"context"

	"go.uber.org/zap"

	"github.com/mhornak/meridian/pkg/bus"
	"github.com/mhornak/meridian/pkg/common"
)

type MonitorFlags uint16

//goland:noinspection GoUnusedConst
const (
	MonitorNone MonitorFlags = 1 << iota
	MonitorAll
	MonitorSignals
	MonitorBars
	MonitorOrdersAccepted
	MonitorOrdersRejected
	MonitorFills
	MonitorSnapshots
	MonitorHalts
)

type Monitor struct {
	logger *zap.Logger
	flags  MonitorFlags
}

func NewMonitor(logger *zap.Logger, flags MonitorFlags) *Monitor {
	return &Monitor{
		logger: logger,
		flags:  flags,
	}
}

func (m *Monitor) WithSignal(handler bus.SignalEventHandler) bus.SignalEventHandler {
	return func(ctx context.Context, signal common.Signal) {
		if m.flags&MonitorSignals != 0 || m.flags&MonitorAll != 0 {
			m.logger.Info("event", zap.Any("signal", signal))
		}
		handler(ctx, signal)
	}
}

func (m *Monitor) WithBar(handler bus.BarEventHandler) bus.BarEventHandler {
	return func(ctx context.Context, bar common.Bar) {
		if m.flags&MonitorBars != 0 || m.flags&MonitorAll != 0 {
			m.logger.Info("event", zap.Any("bar", bar))
		}
		handler(ctx, bar)
	}
}

func (m *Monitor) WithOrderAccepted(handler bus.OrderAcceptanceEventHandler) bus.OrderAcceptanceEventHandler {
	return func(ctx context.Context, accepted common.OrderAccepted) {
		if m.flags&MonitorOrdersAccepted != 0 || m.flags&MonitorAll != 0 {
			m.logger.Info("event", zap.Any("order_accepted", accepted))
		}
		handler(ctx, accepted)
	}
}

func (m *Monitor) WithOrderRejected(handler bus.OrderRejectionEventHandler) bus.OrderRejectionEventHandler {
	return func(ctx context.Context, rejected common.OrderRejected) {
		if m.flags&MonitorOrdersRejected != 0 || m.flags&MonitorAll != 0 {
			m.logger.Info("event", zap.Any("order_rejected", rejected))
		}
		handler(ctx, rejected)
	}
}

func (m *Monitor) WithFill(handler bus.FillEventHandler) bus.FillEventHandler {
	return func(ctx context.Context, fill common.Fill) {
		if m.flags&MonitorFills != 0 || m.flags&MonitorAll != 0 {
			m.logger.Info("event", zap.Any("fill", fill))
		}
		handler(ctx, fill)
	}
}

func (m *Monitor) WithSnapshot(handler bus.SnapshotEventHandler) bus.SnapshotEventHandler {
	return func(ctx context.Context, snapshot common.AccountSnapshot) {
		if m.flags&MonitorSnapshots != 0 || m.flags&MonitorAll != 0 {
			m.logger.Info("event", zap.Any("snapshot", snapshot))
		}
		handler(ctx, snapshot)
	}
}

func (m *Monitor) WithHalt(handler bus.HaltEventHandler) bus.HaltEventHandler {
	return func(ctx context.Context, halt common.Halt) {
		if m.flags&MonitorHalts != 0 || m.flags&MonitorAll != 0 {
			m.logger.Info("event", zap.Any("halt", halt))
		}
		handler(ctx, halt)
	}
}
