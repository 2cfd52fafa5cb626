package historical

import (
	"time"

	"github.com/mhornak/meridian/pkg/common"
	"github.com/mhornak/meridian/pkg/utility/fixed"
)

// BinaryBar is the on-disk record layout of one bar. Bid/Ask are zero when
// the feed carried no quotes.
type BinaryBar struct {
	TimeStamp int64
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Bid       float64
	Ask       float64
}

func (b BinaryBar) ToBar(bar *common.Bar, period time.Duration) {
	bar.TimeStamp = time.Unix(0, b.TimeStamp).UTC()
	bar.Period = period
	bar.Open = fixed.FromFloat64(b.Open)
	bar.High = fixed.FromFloat64(b.High)
	bar.Low = fixed.FromFloat64(b.Low)
	bar.Close = fixed.FromFloat64(b.Close)
	bar.Volume = fixed.FromFloat64(b.Volume)
	if b.Bid != 0 {
		bar.Bid = fixed.FromFloat64(b.Bid)
	}
	if b.Ask != 0 {
		bar.Ask = fixed.FromFloat64(b.Ask)
	}
}
