package middleware

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mhornak/meridian/pkg/bus"
	"github.com/mhornak/meridian/pkg/common"
)

type Performance struct {
	logger *zap.Logger

	totalSignalHandlerDur   time.Duration
	totalBarHandlerDur      time.Duration
	totalFillHandlerDur     time.Duration
	totalSnapshotHandlerDur time.Duration

	signalCount   int64
	barCount      int64
	fillCount     int64
	snapshotCount int64
}

func NewPerformance(logger *zap.Logger) *Performance {
	return &Performance{
		logger: logger,
	}
}

func (p *Performance) WithSignal(handler bus.SignalEventHandler) bus.SignalEventHandler {
	return func(ctx context.Context, signal common.Signal) {
		startTime := time.Now()
		handler(ctx, signal)
		p.totalSignalHandlerDur += time.Since(startTime)
		p.signalCount++
	}
}

func (p *Performance) WithBar(handler bus.BarEventHandler) bus.BarEventHandler {
	return func(ctx context.Context, bar common.Bar) {
		startTime := time.Now()
		handler(ctx, bar)
		p.totalBarHandlerDur += time.Since(startTime)
		p.barCount++
	}
}

func (p *Performance) WithFill(handler bus.FillEventHandler) bus.FillEventHandler {
	return func(ctx context.Context, fill common.Fill) {
		startTime := time.Now()
		handler(ctx, fill)
		p.totalFillHandlerDur += time.Since(startTime)
		p.fillCount++
	}
}

func (p *Performance) WithSnapshot(handler bus.SnapshotEventHandler) bus.SnapshotEventHandler {
	return func(ctx context.Context, snapshot common.AccountSnapshot) {
		startTime := time.Now()
		handler(ctx, snapshot)
		p.totalSnapshotHandlerDur += time.Since(startTime)
		p.snapshotCount++
	}
}

func (p *Performance) PrintStatistics() {
	var fields []zap.Field

	if p.signalCount > 0 {
		fields = append(fields,
			zap.Duration("signal_avg_duration", p.totalSignalHandlerDur/time.Duration(p.signalCount)),
			zap.Duration("signal_total_duration", p.totalSignalHandlerDur))
	}
	if p.barCount > 0 {
		fields = append(fields,
			zap.Duration("bar_avg_duration", p.totalBarHandlerDur/time.Duration(p.barCount)),
			zap.Duration("bar_total_duration", p.totalBarHandlerDur))
	}
	if p.fillCount > 0 {
		fields = append(fields,
			zap.Duration("fill_avg_duration", p.totalFillHandlerDur/time.Duration(p.fillCount)),
			zap.Duration("fill_total_duration", p.totalFillHandlerDur))
	}
	if p.snapshotCount > 0 {
		fields = append(fields,
			zap.Duration("snapshot_avg_duration", p.totalSnapshotHandlerDur/time.Duration(p.snapshotCount)),
			zap.Duration("snapshot_total_duration", p.totalSnapshotHandlerDur))
	}

	p.logger.Info("performance statistics", fields...)
}
