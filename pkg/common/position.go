package common

import (
	"time"

	"github.com/mhornak/meridian/pkg/utility"
	"github.com/mhornak/meridian/pkg/utility/fixed"
)

// Position is the current net exposure in one symbol. Size is signed,
// positive for long and negative for short. A position with zero size does
// not exist; the account removes it in the same operation that zeroed it.
type Position struct {
	Size          fixed.Point `json:"size"`
	AvgPrice      fixed.Point `json:"avg_price"`
	MarkPrice     fixed.Point `json:"mark_price"`
	RealizedPnL   fixed.Point `json:"realized_pnl"`
	UnrealizedPnL fixed.Point `json:"unrealized_pnl"`
	OpenTime      time.Time   `json:"open_time"`

	Source      string              `json:"src,omitempty"`
	Symbol      string              `json:"symbol,omitempty"`
	ExecutionId utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}

func (p Position) IsLong() bool {
	return p.Size.IsPos()
}

// Notional is |size| * mark price.
func (p Position) Notional() fixed.Point {
	return p.Size.Abs().Mul(p.MarkPrice)
}

// MarkToMarket recomputes the unrealized P&L against the given price.
// size*(mark-avg) carries the correct sign for both directions.
func (p Position) MarkToMarket(price fixed.Point) fixed.Point {
	return p.Size.Mul(price.Sub(p.AvgPrice))
}
