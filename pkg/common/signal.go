package common

import (
	"time"

	"github.com/mhornak/meridian/pkg/utility"
	"github.com/mhornak/meridian/pkg/utility/fixed"
)

type SignalAction int

const (
	SignalActionEntry SignalAction = iota
	SignalActionExit
	SignalActionModify
	SignalActionCancel
)

type SignalId = int64

// Signal is a strategy's request to trade. It is immutable once created and
// consumed exactly once by the order book.
type Signal struct {
	Id         SignalId          `json:"id"`
	Side       OrderSide         `json:"side"`
	Action     SignalAction      `json:"action"`
	Type       OrderType         `json:"type"`
	Size       fixed.Point       `json:"size"`
	LimitPrice fixed.Point       `json:"limit_price,omitempty"`
	StopPrice  fixed.Point       `json:"stop_price,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`

	Source      string              `json:"src,omitempty"`
	Symbol      string              `json:"symbol,omitempty"`
	ExecutionId utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}

func (a SignalAction) String() string {
	switch a {
	case SignalActionExit:
		return "EXIT"
	case SignalActionModify:
		return "MODIFY"
	case SignalActionCancel:
		return "CANCEL"
	default:
		return "ENTRY"
	}
}
