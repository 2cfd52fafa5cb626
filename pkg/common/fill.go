package common

import (
	"time"

	"github.com/mhornak/meridian/pkg/utility"
	"github.com/mhornak/meridian/pkg/utility/fixed"
)

type TradeId = int64

// Fill is an immutable record of a partial or complete execution. Fills are
// append-only; once created they are never mutated.
type Fill struct {
	TradeId     TradeId     `json:"trade_id"`
	OrderId     OrderId     `json:"order_id"`
	SignalId    SignalId    `json:"signal_id"`
	Side        OrderSide   `json:"side"`
	Price       fixed.Point `json:"price"`
	Size        fixed.Point `json:"size"`
	Commission  fixed.Point `json:"commission"`
	Slippage    fixed.Point `json:"slippage"`
	RealizedPnL fixed.Point `json:"realized_pnl,omitempty"`
	Note        string      `json:"note,omitempty"`

	Source      string              `json:"src,omitempty"`
	Symbol      string              `json:"symbol,omitempty"`
	ExecutionId utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}
