package middleware

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mhornak/meridian/pkg/common"
)

func TestMiddlewareTelemetry_Counters(t *testing.T) {
	telemetry := NewTelemetry(zap.NewNop())

	signals := telemetry.WithSignal(NoopSignal)
	bars := telemetry.WithBar(NoopBar)
	fills := telemetry.WithFill(NoopFill)

	ctx := context.Background()
	signals(ctx, common.Signal{})
	bars(ctx, common.Bar{})
	bars(ctx, common.Bar{})
	fills(ctx, common.Fill{})

	if telemetry.signalEventCounter != 1 {
		t.Errorf("Expected 1 signal event, got %d", telemetry.signalEventCounter)
	}
	if telemetry.barEventCounter != 2 {
		t.Errorf("Expected 2 bar events, got %d", telemetry.barEventCounter)
	}
	if telemetry.fillEventCounter != 1 {
		t.Errorf("Expected 1 fill event, got %d", telemetry.fillEventCounter)
	}
	if telemetry.haltEventCounter != 0 {
		t.Errorf("Expected 0 halt events, got %d", telemetry.haltEventCounter)
	}
}

func TestMiddlewareTelemetry_PassesThrough(t *testing.T) {
	telemetry := NewTelemetry(zap.NewNop())

	var got common.Bar
	handler := telemetry.WithBar(func(ctx context.Context, bar common.Bar) {
		got = bar
	})

	want := common.Bar{Symbol: "EURUSD"}
	handler(context.Background(), want)

	if got.Symbol != want.Symbol {
		t.Errorf("Expected symbol %s, got %s", want.Symbol, got.Symbol)
	}
}

func TestMiddlewarePerformance_WithBar(t *testing.T) {
	performance := NewPerformance(zap.NewNop())

	var handlerCalled bool
	handler := performance.WithBar(func(ctx context.Context, bar common.Bar) {
		handlerCalled = true
		time.Sleep(5 * time.Millisecond)
	})
	handler(context.Background(), common.Bar{})

	if !handlerCalled {
		t.Error("Handler not called")
	}
	if performance.barCount != 1 {
		t.Errorf("Expected barCount=1, got %d", performance.barCount)
	}
	if performance.totalBarHandlerDur < 5*time.Millisecond {
		t.Errorf("Expected duration >= 5ms, got %v", performance.totalBarHandlerDur)
	}
}
