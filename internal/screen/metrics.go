package screen

import (
	"math"

	"github.com/calspread/screener/internal/contracts"
)

const (
	atrLookback     = 14
	stabilityWindow = 30
	volWindow       = 30
	tradingDays     = 252

	// Historical-volatility IV approximations are clamped to a plausible
	// band so a flat or erratic synthetic series cannot produce nonsense.
	approxIVFloor = 10.0
	approxIVCeil  = 100.0
)

// ATRPercent computes the Average True Range over the trailing lookback
// window as a fraction of the current price. Fewer than two bars yields
// zero; a shorter-than-lookback series uses what is available.
func ATRPercent(bars []contracts.Bar, currentPrice float64) float64 {
	if len(bars) < 2 || currentPrice <= 0 {
		return 0
	}

	start := len(bars) - atrLookback
	if start < 1 {
		start = 1
	}

	var sum float64
	var n int
	for i := start; i < len(bars); i++ {
		prevClose := bars[i-1].Close
		tr := bars[i].High - bars[i].Low
		if hc := math.Abs(bars[i].High - prevClose); hc > tr {
			tr = hc
		}
		if lc := math.Abs(bars[i].Low - prevClose); lc > tr {
			tr = lc
		}
		sum += tr
		n++
	}
	if n == 0 {
		return 0
	}
	return (sum / float64(n)) / currentPrice
}

// Stability30d measures price steadiness as the standard deviation of
// daily close-to-close returns over the trailing ~30 sessions. Lower is
// steadier. Fewer than two closes yields zero.
func Stability30d(closes []float64) float64 {
	window := closes
	if len(window) > stabilityWindow {
		window = window[len(window)-stabilityWindow:]
	}
	return stdev(dailyReturns(window))
}

// ApproxIV estimates implied volatility from historical price movement:
// the annualized standard deviation of daily log returns, in vol points,
// clamped to [10, 100].
func ApproxIV(closes []float64) float64 {
	vol := annualizedVol(dailyLogReturns(closes))
	if vol < approxIVFloor {
		return approxIVFloor
	}
	if vol > approxIVCeil {
		return approxIVCeil
	}
	return vol
}

// ApproxIVPercentile ranks the current trailing-window historical
// volatility within the rolling volatility series over the full close
// history. Higher current vol relative to its own past ranks higher.
// Returns a neutral 50 when the series is too short to form at least
// two rolling observations.
func ApproxIVPercentile(closes []float64) float64 {
	returns := dailyLogReturns(closes)
	if len(returns) < volWindow+1 {
		return 50
	}

	vols := make([]float64, 0, len(returns)-volWindow+1)
	for i := volWindow; i <= len(returns); i++ {
		vols = append(vols, annualizedVol(returns[i-volWindow:i]))
	}

	current := vols[len(vols)-1]
	rank := 0
	for _, v := range vols {
		if v <= current {
			rank++
		}
	}
	return float64(rank) / float64(len(vols)) * 100
}

func dailyReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		out = append(out, (closes[i]-closes[i-1])/closes[i-1])
	}
	return out
}

func dailyLogReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] <= 0 || closes[i] <= 0 {
			continue
		}
		out = append(out, math.Log(closes[i]/closes[i-1]))
	}
	return out
}

// annualizedVol converts daily return dispersion to vol points
func annualizedVol(returns []float64) float64 {
	return stdev(returns) * math.Sqrt(tradingDays) * 100
}

func stdev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))

	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}
