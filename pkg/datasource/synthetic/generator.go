package synthetic

import (
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/mhornak/meridian/pkg/common"
	"github.com/mhornak/meridian/pkg/utility"
	"github.com/mhornak/meridian/pkg/utility/fixed"
)

const barGeneratorComponentName = "datasource.synthetic.generator"

var ErrEof = errors.New("EOF")

// BarGenerator produces a seeded geometric random walk of bars. Two
// generators with the same seed and parameters emit identical sequences,
// which keeps smoke runs and tests reproducible.
type BarGenerator struct {
	symbol string
	rng    *rand.Rand

	period time.Duration
	mu     float64
	sigma  float64

	avgVolume      float64
	volumeVariance float64
	spread         float64

	lastTime  time.Time
	lastPrice float64
	steps     int64
	t         int64

	priceDigits  int
	volumeDigits int
}

func NewBarGenerator(symbol string, seed int64, startTime time.Time, startPrice float64, period time.Duration, steps int64) *BarGenerator {
	return &BarGenerator{
		symbol: symbol,
		rng:    rand.New(rand.NewSource(seed)),

		period: period,
		mu:     0.0,
		sigma:  0.01,

		avgVolume:      1000,
		volumeVariance: 0.5,

		lastTime:  startTime,
		lastPrice: startPrice,
		steps:     steps,

		priceDigits:  5,
		volumeDigits: 0,
	}
}

func (g *BarGenerator) SetDrift(mu, sigma float64) {
	g.mu = mu
	g.sigma = sigma
}

func (g *BarGenerator) SetVolume(avgVolume, variance float64) {
	g.avgVolume = avgVolume
	g.volumeVariance = variance
}

func (g *BarGenerator) SetSpread(spread float64) {
	g.spread = spread
}

func (g *BarGenerator) SetDigits(priceDigits, volumeDigits int) {
	g.priceDigits = priceDigits
	g.volumeDigits = volumeDigits
}

func (g *BarGenerator) GetNext() (common.Bar, error) {
	var bar common.Bar

	if g.t >= g.steps {
		return bar, ErrEof
	}
	g.t++

	open := g.lastPrice
	drift := g.mu - 0.5*g.sigma*g.sigma
	closePrice := open * math.Exp(drift+g.sigma*g.rng.NormFloat64())

	wickUp := 1.0 + g.sigma*0.5*absf(g.rng.NormFloat64())
	wickDown := 1.0 - g.sigma*0.5*absf(g.rng.NormFloat64())

	high := maxf(open, closePrice) * wickUp
	low := minf(open, closePrice) * wickDown

	volume := g.avgVolume * (1.0 + g.volumeVariance*g.rng.NormFloat64())
	if volume < 0 {
		volume = 0
	}

	g.lastPrice = closePrice
	g.lastTime = g.lastTime.Add(g.period)

	bar.TimeStamp = g.lastTime
	bar.Period = g.period
	bar.Open = fixed.FromFloat64(open).Rescale(g.priceDigits)
	bar.High = fixed.FromFloat64(high).Rescale(g.priceDigits)
	bar.Low = fixed.FromFloat64(low).Rescale(g.priceDigits)
	bar.Close = fixed.FromFloat64(closePrice).Rescale(g.priceDigits)
	bar.Volume = fixed.FromFloat64(volume).Rescale(g.volumeDigits)

	if g.spread > 0 {
		half := g.spread / 2
		bar.Bid = fixed.FromFloat64(closePrice - half).Rescale(g.priceDigits)
		bar.Ask = fixed.FromFloat64(closePrice + half).Rescale(g.priceDigits)
	}

	bar.Source = barGeneratorComponentName
	bar.Symbol = g.symbol
	bar.ExecutionId = utility.GetExecutionID()
	bar.TraceID = utility.CreateTraceID()

	return bar, nil
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
