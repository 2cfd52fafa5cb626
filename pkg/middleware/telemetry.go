package middleware

import (
	"context"

	"go.uber.org/zap"

	"github.com/mhornak/meridian/pkg/bus"
	"github.com/mhornak/meridian/pkg/common"
)

type Telemetry struct {
	logger *zap.Logger

	signalEventCounter        int64
	barEventCounter           int64
	orderAcceptedEventCounter int64
	orderRejectedEventCounter int64
	fillEventCounter          int64
	snapshotEventCounter      int64
	haltEventCounter          int64
}

func NewTelemetry(logger *zap.Logger) *Telemetry {
	return &Telemetry{
		logger: logger,
	}
}

func (t *Telemetry) WithSignal(handler bus.SignalEventHandler) bus.SignalEventHandler {
	return func(ctx context.Context, signal common.Signal) {
		t.signalEventCounter++
		handler(ctx, signal)
	}
}

func (t *Telemetry) WithBar(handler bus.BarEventHandler) bus.BarEventHandler {
	return func(ctx context.Context, bar common.Bar) {
		t.barEventCounter++
		handler(ctx, bar)
	}
}

func (t *Telemetry) WithOrderAccepted(handler bus.OrderAcceptanceEventHandler) bus.OrderAcceptanceEventHandler {
	return func(ctx context.Context, accepted common.OrderAccepted) {
		t.orderAcceptedEventCounter++
		handler(ctx, accepted)
	}
}

func (t *Telemetry) WithOrderRejected(handler bus.OrderRejectionEventHandler) bus.OrderRejectionEventHandler {
	return func(ctx context.Context, rejected common.OrderRejected) {
		t.orderRejectedEventCounter++
		handler(ctx, rejected)
	}
}

func (t *Telemetry) WithFill(handler bus.FillEventHandler) bus.FillEventHandler {
	return func(ctx context.Context, fill common.Fill) {
		t.fillEventCounter++
		handler(ctx, fill)
	}
}

func (t *Telemetry) WithSnapshot(handler bus.SnapshotEventHandler) bus.SnapshotEventHandler {
	return func(ctx context.Context, snapshot common.AccountSnapshot) {
		t.snapshotEventCounter++
		handler(ctx, snapshot)
	}
}

func (t *Telemetry) WithHalt(handler bus.HaltEventHandler) bus.HaltEventHandler {
	return func(ctx context.Context, halt common.Halt) {
		t.haltEventCounter++
		handler(ctx, halt)
	}
}

func (t *Telemetry) PrintStatistics() {
	t.logger.Info("event statistics",
		zap.Int64("signal_events", t.signalEventCounter),
		zap.Int64("bar_events", t.barEventCounter),
		zap.Int64("order_accepted_events", t.orderAcceptedEventCounter),
		zap.Int64("order_rejected_events", t.orderRejectedEventCounter),
		zap.Int64("fill_events", t.fillEventCounter),
		zap.Int64("snapshot_events", t.snapshotEventCounter),
		zap.Int64("halt_events", t.haltEventCounter))
}
