package bus

import (
	"context"

	"github.com/mhornak/meridian/pkg/common"
)

type EventHandler[T any] = func(context.Context, T)

type SignalEventHandler EventHandler[common.Signal]
type BarEventHandler EventHandler[common.Bar]
type OrderAcceptanceEventHandler EventHandler[common.OrderAccepted]
type OrderRejectionEventHandler EventHandler[common.OrderRejected]
type FillEventHandler EventHandler[common.Fill]
type SnapshotEventHandler EventHandler[common.AccountSnapshot]
type HaltEventHandler EventHandler[common.Halt]

func MergeHandlers[T any](handlers ...EventHandler[T]) EventHandler[T] {
	return func(ctx context.Context, event T) {
		for _, handler := range handlers {
			handler(ctx, event)
		}
	}
}
