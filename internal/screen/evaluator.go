package screen

import (
	"math"
	"time"

	"github.com/calspread/screener/internal/contracts"
	"github.com/calspread/screener/pkg/logger"
)

// maxProximityBonus caps the continuous part of the score per metric.
// Two metrics contribute, so the total bonus stays below one criterion
// step (10 points) and can never flip qualification on its own.
const maxProximityBonus = 5.0

// Evaluator turns a MarketRecord into a ScreeningResult. It is pure:
// no state survives between calls, and the same record, criteria and
// clock always produce the same result.
type Evaluator struct {
	passThreshold int
	logger        *logger.Logger
}

// NewEvaluator creates an evaluator with the given qualification
// threshold (criteria met out of eight).
func NewEvaluator(passThreshold int, log *logger.Logger) *Evaluator {
	return &Evaluator{passThreshold: passThreshold, logger: log}
}

// PassThreshold returns the configured qualification threshold
func (e *Evaluator) PassThreshold() int {
	return e.passThreshold
}

// Evaluate scores one record against the criteria as of now. Records
// without provider-supplied option data get IV and its percentile
// approximated from historical price volatility, flagged as such.
func (e *Evaluator) Evaluate(rec *contracts.MarketRecord, criteria contracts.CriteriaSet, now time.Time) contracts.ScreeningResult {
	closes := rec.Closes()

	atrPct := ATRPercent(rec.Bars, rec.CurrentPrice)
	stability := Stability30d(closes)

	iv := rec.ImpliedVolatility
	ivPercentile := rec.IVPercentile
	ivApproximated := rec.IVApproximated
	if !rec.HasIV {
		iv = ApproxIV(closes)
		ivPercentile = ApproxIVPercentile(closes)
		ivApproximated = true
	}

	hasDividend := rec.DividendYield > 0
	hasEarningsSoon := earningsWithin(rec.NextEarnings, now, criteria.ExcludeEarningsWindowDays)

	outcomes := contracts.CriteriaOutcomes{
		ATRStable:    atrPct <= criteria.ATRThreshold,
		IVRange:      criteria.IVRange.Contains(iv),
		PriceRange:   criteria.PriceRange.Contains(rec.CurrentPrice),
		IVPercentile: ivPercentile <= criteria.IVPercentileMax,
		OpenInterest: rec.OpenInterest != nil && *rec.OpenInterest >= criteria.OpenInterestMin,
		PriceStable:  stability <= criteria.PriceStability30dMax,
		NoDividend:   !criteria.ExcludeDividends || !hasDividend,
		NoEarnings:   criteria.ExcludeEarningsWindowDays == 0 || !hasEarningsSoon,
	}

	count := outcomes.Count()
	score := float64(count)*10 +
		proximityBonus(iv, criteria.IVRange) +
		proximityBonus(atrPct, contracts.Range{Min: 0, Max: criteria.ATRThreshold})

	result := contracts.ScreeningResult{
		Symbol:            rec.Symbol,
		CurrentPrice:      rec.CurrentPrice,
		ATRPercentage:     atrPct,
		ImpliedVolatility: iv,
		IVPercentile:      ivPercentile,
		IVApproximated:    ivApproximated,
		OpenInterest:      rec.OpenInterest,
		PriceStability30d: stability,
		HasDividend:       hasDividend,
		HasEarningsSoon:   hasEarningsSoon,
		CriteriaMet:       outcomes,
		CriteriaMetCount:  count,
		Qualified:         count >= e.passThreshold,
		Score:             score,
		Source:            rec.Source,
		Partial:           rec.Partial,
	}

	e.logger.WithFields(map[string]interface{}{
		"symbol":       rec.Symbol,
		"criteria_met": count,
		"qualified":    result.Qualified,
		"score":        score,
		"source":       rec.Source,
	}).Debug("Evaluated symbol")

	return result
}

// proximityBonus rewards values near the midpoint of the target range,
// linearly from maxProximityBonus at the midpoint down to zero at either
// edge. Values outside the range earn nothing.
func proximityBonus(value float64, target contracts.Range) float64 {
	half := target.Width() / 2
	if half <= 0 || !target.Contains(value) {
		return 0
	}
	return maxProximityBonus * (1 - math.Abs(value-target.Mid())/half)
}

// earningsWithin reports whether earnings fall inside the next
// windowDays from now. A nil date means no scheduled earnings.
func earningsWithin(next *time.Time, now time.Time, windowDays int) bool {
	if next == nil || windowDays <= 0 {
		return false
	}
	cutoff := now.AddDate(0, 0, windowDays)
	return !next.Before(now) && !next.After(cutoff)
}
