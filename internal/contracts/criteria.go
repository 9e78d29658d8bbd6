package contracts

import "fmt"

// Range is an inclusive numeric interval
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies inside the interval
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Mid returns the interval midpoint
func (r Range) Mid() float64 {
	return (r.Min + r.Max) / 2
}

// Width returns the interval width
func (r Range) Width() float64 {
	return r.Max - r.Min
}

// CriteriaSet holds the eight screening thresholds. It is an immutable
// value object: a new set replaces the old one wholesale, never mutated
// in place.
type CriteriaSet struct {
	ATRThreshold              float64 `json:"atr_threshold"`              // fraction of price
	IVRange                   Range   `json:"iv_range"`                   // annualized vol points
	PriceRange                Range   `json:"price_range"`                // dollars
	IVPercentileMax           float64 `json:"iv_percentile_max"`          // 0-100
	OpenInterestMin           int64   `json:"open_interest_min"`          // contracts
	PriceStability30dMax      float64 `json:"price_stability_30d"`        // fraction
	ExcludeDividends          bool    `json:"exclude_dividends"`          //
	ExcludeEarningsWindowDays int     `json:"exclude_earnings_window_days"` // 0 disables
}

// DefaultCriteria returns the stock defaults used by the dashboard
func DefaultCriteria() CriteriaSet {
	return CriteriaSet{
		ATRThreshold:              0.05,
		IVRange:                   Range{Min: 20, Max: 40},
		PriceRange:                Range{Min: 50, Max: 150},
		IVPercentileMax:           50,
		OpenInterestMin:           1000,
		PriceStability30dMax:      0.10,
		ExcludeDividends:          true,
		ExcludeEarningsWindowDays: 7,
	}
}

// Validate checks the thresholds for internal consistency
func (c CriteriaSet) Validate() error {
	if c.ATRThreshold <= 0 {
		return NewFetchError("", KindInvalidInput, "atr_threshold must be positive")
	}
	if c.IVRange.Min >= c.IVRange.Max {
		return NewFetchError("", KindInvalidInput,
			fmt.Sprintf("iv_range min %.2f must be below max %.2f", c.IVRange.Min, c.IVRange.Max))
	}
	if c.PriceRange.Min >= c.PriceRange.Max {
		return NewFetchError("", KindInvalidInput,
			fmt.Sprintf("price_range min %.2f must be below max %.2f", c.PriceRange.Min, c.PriceRange.Max))
	}
	if c.IVPercentileMax < 0 || c.IVPercentileMax > 100 {
		return NewFetchError("", KindInvalidInput, "iv_percentile_max must be between 0 and 100")
	}
	if c.OpenInterestMin < 0 {
		return NewFetchError("", KindInvalidInput, "open_interest_min must be non-negative")
	}
	if c.PriceStability30dMax <= 0 {
		return NewFetchError("", KindInvalidInput, "price_stability_30d must be positive")
	}
	if c.ExcludeEarningsWindowDays < 0 {
		return NewFetchError("", KindInvalidInput, "exclude_earnings_window_days must be non-negative")
	}
	return nil
}
