package common

import (
	"time"

	"github.com/mhornak/meridian/pkg/utility"
	"github.com/mhornak/meridian/pkg/utility/fixed"
)

// AccountSnapshot is a point-in-time summary of the account, taken once per
// step and appended to the equity curve. Snapshots are immutable once taken.
type AccountSnapshot struct {
	Cash            fixed.Point `json:"cash"`
	Equity          fixed.Point `json:"equity"`
	NotionalValue   fixed.Point `json:"notional_value"`
	UsedMargin      fixed.Point `json:"used_margin"`
	AvailableMargin fixed.Point `json:"available_margin"`
	UnrealizedPnL   fixed.Point `json:"unrealized_pnl"`
	RealizedPnL     fixed.Point `json:"realized_pnl"`
	Positions       []Position  `json:"positions,omitempty"`

	Source      string              `json:"src,omitempty"`
	ExecutionId utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}

// Halt signals that the drawdown stop tripped and the run must not advance.
// It is a normal control event, not an error.
type Halt struct {
	Reason   string      `json:"reason"`
	Drawdown fixed.Point `json:"drawdown"`

	Source      string              `json:"src,omitempty"`
	ExecutionId utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}
