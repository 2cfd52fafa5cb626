package statistics

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/mhornak/meridian/pkg/common"
	"github.com/mhornak/meridian/pkg/utility/fixed"
)

const tradingDaysPerYear = 252

// Report carries the canonical performance statistics of one run. Ratios are
// plain float64 so degenerate cases can use the defined fallbacks, including
// +Inf for the profit factor.
type Report struct {
	StartDate time.Time
	EndDate   time.Time

	InitialEquity float64
	FinalEquity   float64
	NetProfit     float64
	GrossProfit   float64
	GrossLoss     float64

	TotalFills   int
	WinningFills int
	LosingFills  int
	WinRate      float64
	ProfitFactor float64
	AverageTrade float64
	AverageWin   float64
	AverageLoss  float64
	Expectancy   float64

	// Pct fields are percentages, not fractions.
	MaxDrawdown    float64
	MaxDrawdownPct float64
	TotalReturnPct float64
	CAGR           float64
	SharpeRatio    float64
	SortinoRatio   float64
	CalmarRatio    float64

	LongestWinStreak  int
	LongestLossStreak int
	LargestWin        float64
	LargestLoss       float64
	TotalCommission   float64
	TotalSlippageCost float64
}

// Compute is a pure function of the fill list and equity curve. An empty
// equity curve yields the all-zero report with only the date metadata set.
func Compute(fills []common.Fill, curve []common.AccountSnapshot, start, end time.Time) Report {
	report := Report{StartDate: start, EndDate: end}
	if len(curve) == 0 {
		return report
	}

	report.InitialEquity = toFloat(curve[0].Equity)
	report.FinalEquity = toFloat(curve[len(curve)-1].Equity)
	report.NetProfit = report.FinalEquity - report.InitialEquity

	computeFillStats(&report, fills)
	computeDrawdown(&report, curve)

	if report.InitialEquity != 0 {
		report.TotalReturnPct = report.NetProfit / report.InitialEquity * 100
	}
	report.CAGR = cagr(report.InitialEquity, report.FinalEquity, start, end)

	returns := periodReturns(curve)
	report.SharpeRatio = sharpe(returns)
	report.SortinoRatio = sortino(returns)
	if report.MaxDrawdownPct != 0 {
		report.CalmarRatio = report.CAGR / (report.MaxDrawdownPct / 100)
	}

	return report
}

func computeFillStats(report *Report, fills []common.Fill) {
	report.TotalFills = len(fills)

	winStreak, lossStreak := 0, 0
	for _, fill := range fills {
		pnl := toFloat(fill.RealizedPnL)
		report.TotalCommission += toFloat(fill.Commission)
		report.TotalSlippageCost += toFloat(fill.Slippage.Mul(fill.Size))

		switch {
		case pnl > 0:
			report.WinningFills++
			report.GrossProfit += pnl
			winStreak++
			lossStreak = 0
			if pnl > report.LargestWin {
				report.LargestWin = pnl
			}
		case pnl < 0:
			report.LosingFills++
			report.GrossLoss += -pnl
			lossStreak++
			winStreak = 0
			if pnl < report.LargestLoss {
				report.LargestLoss = pnl
			}
		default:
			winStreak = 0
			lossStreak = 0
		}

		if winStreak > report.LongestWinStreak {
			report.LongestWinStreak = winStreak
		}
		if lossStreak > report.LongestLossStreak {
			report.LongestLossStreak = lossStreak
		}
	}

	if report.TotalFills == 0 {
		return
	}

	report.WinRate = float64(report.WinningFills) / float64(report.TotalFills)
	report.AverageTrade = (report.GrossProfit - report.GrossLoss) / float64(report.TotalFills)
	if report.WinningFills > 0 {
		report.AverageWin = report.GrossProfit / float64(report.WinningFills)
	}
	if report.LosingFills > 0 {
		report.AverageLoss = -report.GrossLoss / float64(report.LosingFills)
	}

	switch {
	case report.GrossLoss > 0:
		report.ProfitFactor = report.GrossProfit / report.GrossLoss
	case report.GrossProfit > 0:
		report.ProfitFactor = math.Inf(1)
	}

	lossRate := float64(report.LosingFills) / float64(report.TotalFills)
	report.Expectancy = report.AverageWin*report.WinRate - math.Abs(report.AverageLoss)*lossRate
}

func computeDrawdown(report *Report, curve []common.AccountSnapshot) {
	peak := toFloat(curve[0].Equity)
	maxFraction := 0.0
	for _, snapshot := range curve {
		equity := toFloat(snapshot.Equity)
		if equity > peak {
			peak = equity
		}
		drawdown := peak - equity
		if drawdown > report.MaxDrawdown {
			report.MaxDrawdown = drawdown
		}
		if peak > 0 {
			if fraction := drawdown / peak; fraction > maxFraction {
				maxFraction = fraction
			}
		}
	}
	report.MaxDrawdownPct = maxFraction * 100
}

func cagr(initial, final float64, start, end time.Time) float64 {
	years := end.Sub(start).Hours() / 24 / 365.25
	if initial <= 0 || final <= 0 || years <= 0 {
		return 0
	}
	return math.Pow(final/initial, 1/years) - 1
}

func periodReturns(curve []common.AccountSnapshot) []float64 {
	if len(curve) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(curve)-1)
	for idx := 1; idx < len(curve); idx++ {
		prev := toFloat(curve[idx-1].Equity)
		if prev == 0 {
			continue
		}
		returns = append(returns, (toFloat(curve[idx].Equity)-prev)/prev)
	}
	return returns
}

func sharpe(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	m := mean(returns)
	sd := stdDev(returns, m)
	if sd == 0 {
		return 0
	}
	return m / sd * math.Sqrt(tradingDaysPerYear)
}

func sortino(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	var negatives []float64
	for _, r := range returns {
		if r < 0 {
			negatives = append(negatives, r)
		}
	}
	if len(negatives) == 0 {
		return 0
	}

	sd := stdDev(negatives, mean(negatives))
	if sd == 0 {
		return 0
	}
	return mean(returns) / sd * math.Sqrt(tradingDaysPerYear)
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stdDev(values []float64, m float64) float64 {
	if len(values) < 2 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		diff := v - m
		sum += diff * diff
	}
	return math.Sqrt(sum / float64(len(values)))
}

func toFloat(p fixed.Point) float64 {
	v, _ := p.Float64()
	return v
}

func (report Report) Print(logger *zap.Logger) {
	logger.Info("performance report",
		zap.Float64("initial_equity", report.InitialEquity),
		zap.Float64("final_equity", report.FinalEquity),
		zap.Float64("net_profit", report.NetProfit),
		zap.Float64("total_return_pct", report.TotalReturnPct),
		zap.Float64("cagr", report.CAGR),
		zap.Float64("max_drawdown", report.MaxDrawdown),
		zap.Float64("max_drawdown_pct", report.MaxDrawdownPct),
	)

	logger.Info("trade statistics",
		zap.Int("total_fills", report.TotalFills),
		zap.Int("winning_fills", report.WinningFills),
		zap.Int("losing_fills", report.LosingFills),
		zap.Float64("win_rate", report.WinRate),
		zap.Float64("profit_factor", report.ProfitFactor),
		zap.Float64("expectancy", report.Expectancy),
		zap.Float64("average_win", report.AverageWin),
		zap.Float64("average_loss", report.AverageLoss),
		zap.Int("longest_win_streak", report.LongestWinStreak),
		zap.Int("longest_loss_streak", report.LongestLossStreak),
		zap.Float64("largest_win", report.LargestWin),
		zap.Float64("largest_loss", report.LargestLoss),
		zap.Float64("total_commission", report.TotalCommission),
		zap.Float64("total_slippage_cost", report.TotalSlippageCost),
	)

	logger.Info("risk metrics",
		zap.Float64("sharpe_ratio", report.SharpeRatio),
		zap.Float64("sortino_ratio", report.SortinoRatio),
		zap.Float64("calmar_ratio", report.CalmarRatio),
	)
}
