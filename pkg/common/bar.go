package common

import (
	"time"

	"github.com/mhornak/meridian/pkg/utility"
	"github.com/mhornak/meridian/pkg/utility/fixed"
)

type Bar struct {
	Source      string              `json:"src,omitempty"`
	Symbol      string              `json:"symbol,omitempty"`
	ExecutionId utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
	Period      time.Duration       `json:"period"`
	Open        fixed.Point         `json:"open"`
	High        fixed.Point         `json:"high"`
	Low         fixed.Point         `json:"low"`
	Close       fixed.Point         `json:"close"`
	Volume      fixed.Point         `json:"volume"`

	// Bid/Ask are optional; a zero value means the feed did not carry quotes.
	Bid fixed.Point `json:"bid,omitempty"`
	Ask fixed.Point `json:"ask,omitempty"`
}

// BidOrClose returns the bar's bid quote, falling back to close when the
// feed carries no quote data.
func (b Bar) BidOrClose() fixed.Point {
	if b.Bid.IsZero() {
		return b.Close
	}
	return b.Bid
}

func (b Bar) AskOrClose() fixed.Point {
	if b.Ask.IsZero() {
		return b.Close
	}
	return b.Ask
}

func (b Bar) HasQuotes() bool {
	return !b.Bid.IsZero() && !b.Ask.IsZero()
}
