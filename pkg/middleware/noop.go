package middleware

import (
	"context"

	"github.com/mhornak/meridian/pkg/common"
)

// Noop handlers terminate a decorator chain when no component consumes the
// event directly.

func NoopSignal(context.Context, common.Signal)               {}
func NoopBar(context.Context, common.Bar)                     {}
func NoopOrderAccepted(context.Context, common.OrderAccepted) {}
func NoopOrderRejected(context.Context, common.OrderRejected) {}
func NoopFill(context.Context, common.Fill)                   {}
func NoopSnapshot(context.Context, common.AccountSnapshot)    {}
func NoopHalt(context.Context, common.Halt)                   {}
