package contracts

import "time"

// CriteriaOutcomes holds the eight boolean criterion results in their
// fixed evaluation order. Field order doubles as the stable JSON layout
// consumed by the dashboard and the CSV exporter.
type CriteriaOutcomes struct {
	ATRStable    bool `json:"atr_stable"`
	IVRange      bool `json:"iv_range"`
	PriceRange   bool `json:"price_range"`
	IVPercentile bool `json:"iv_percentile"`
	OpenInterest bool `json:"open_interest"`
	PriceStable  bool `json:"price_stable"`
	NoDividend   bool `json:"no_dividend"`
	NoEarnings   bool `json:"no_earnings"`
}

// CriterionNames lists the criterion keys in evaluation order
var CriterionNames = []string{
	"atr_stable",
	"iv_range",
	"price_range",
	"iv_percentile",
	"open_interest",
	"price_stable",
	"no_dividend",
	"no_earnings",
}

// Flags returns the outcomes in evaluation order
func (o CriteriaOutcomes) Flags() []bool {
	return []bool{
		o.ATRStable, o.IVRange, o.PriceRange, o.IVPercentile,
		o.OpenInterest, o.PriceStable, o.NoDividend, o.NoEarnings,
	}
}

// Count returns the number of criteria met
func (o CriteriaOutcomes) Count() int {
	n := 0
	for _, passed := range o.Flags() {
		if passed {
			n++
		}
	}
	return n
}

// ScreeningResult is the evaluation of one symbol against a CriteriaSet
type ScreeningResult struct {
	Symbol       string  `json:"symbol"`
	CurrentPrice float64 `json:"current_price"`

	// Derived metrics
	ATRPercentage     float64 `json:"atr_percentage"`
	ImpliedVolatility float64 `json:"implied_volatility"`
	IVPercentile      float64 `json:"iv_percentile"`
	IVApproximated    bool    `json:"iv_approximated,omitempty"`
	OpenInterest      *int64  `json:"open_interest,omitempty"`
	PriceStability30d float64 `json:"price_stability_30d"`
	HasDividend       bool    `json:"has_dividend"`
	HasEarningsSoon   bool    `json:"has_earnings_soon"`

	// Decision
	CriteriaMet      CriteriaOutcomes `json:"criteria_met"`
	CriteriaMetCount int              `json:"criteria_met_count"`
	Qualified        bool             `json:"qualified"`
	Score            float64          `json:"score"`

	// Data provenance
	Source  string `json:"data_source"`
	Partial bool   `json:"partial,omitempty"`
}

// ScanStats aggregates a finished scan
type ScanStats struct {
	TotalAnalyzed      int     `json:"total_stocks_analyzed"`
	QualifiedStocks    int     `json:"qualified_stocks"`
	SuccessRate        float64 `json:"success_rate"`         // percent qualified
	AverageCriteriaMet float64 `json:"average_criteria_met"` //
}

// ScreeningReport is the full output of one scan, consumed by the UI,
// the JSON API and the CSV exporter.
type ScreeningReport struct {
	Results     []ScreeningResult `json:"results"`
	Stats       ScanStats         `json:"system_stats"`
	GeneratedAt time.Time         `json:"generated_at"`

	// Per-symbol diagnostics for symbols degraded to sample data,
	// keyed by symbol. Informational only; the scan itself succeeded.
	Degraded map[string]string `json:"degraded,omitempty"`
}

// QualifiedResults returns only the qualified results
func (r *ScreeningReport) QualifiedResults() []ScreeningResult {
	out := make([]ScreeningResult, 0, len(r.Results))
	for _, res := range r.Results {
		if res.Qualified {
			out = append(out, res)
		}
	}
	return out
}
