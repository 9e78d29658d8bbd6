package contracts

import (
	"fmt"
	"regexp"
	"sort"
	"time"
)

// Provider identifiers used as record source tags
const (
	SourceAlphaVantage = "alpha_vantage"
	SourceYahoo        = "yahoo"
	SourceEODHD        = "eodhd"
	SourceSample       = "sample"
)

var symbolPattern = regexp.MustCompile(`^[A-Z0-9]{1,10}$`)

// ValidateSymbol checks the ticker format: 1-10 uppercase alphanumerics
func ValidateSymbol(symbol string) error {
	if !symbolPattern.MatchString(symbol) {
		return NewFetchError("", KindInvalidInput,
			fmt.Sprintf("invalid symbol %q (want 1-10 uppercase alphanumerics)", symbol))
	}
	return nil
}

// Bar is one daily OHLCV observation
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Validate checks bar price consistency
func (b Bar) Validate() error {
	if b.Low < 0 || b.High < b.Low {
		return fmt.Errorf("bar %s: high %.4f < low %.4f", b.Date.Format("2006-01-02"), b.High, b.Low)
	}
	if b.Open > b.High || b.Close > b.High {
		return fmt.Errorf("bar %s: open/close above high", b.Date.Format("2006-01-02"))
	}
	if b.Open < b.Low || b.Close < b.Low {
		return fmt.Errorf("bar %s: open/close below low", b.Date.Format("2006-01-02"))
	}
	if b.Volume < 0 {
		return fmt.Errorf("bar %s: negative volume", b.Date.Format("2006-01-02"))
	}
	return nil
}

// MarketRecord is the normalized snapshot for one symbol and period.
// ⭐ SSOT: every provider maps its wire format onto this shape; the
// evaluator and the presentation layer consume nothing else.
type MarketRecord struct {
	Symbol       string  `json:"symbol"`
	CurrentPrice float64 `json:"current_price"`
	Bars         []Bar   `json:"bars"` // chronological, oldest first

	MarketCap int64  `json:"market_cap,omitempty"`
	Sector    string `json:"sector,omitempty"`
	Industry  string `json:"industry,omitempty"`

	DividendYield float64    `json:"dividend_yield"`
	NextEarnings  *time.Time `json:"next_earnings,omitempty"`

	// OpenInterest is nil when the provider has no options data; zero is a
	// real observation and must stay distinguishable from absence.
	OpenInterest *int64 `json:"open_interest,omitempty"`

	// Option-implied volatility when the provider supplies it. When
	// IVApproximated is set, both values were derived from historical
	// price volatility instead.
	ImpliedVolatility float64 `json:"implied_volatility,omitempty"`
	IVPercentile      float64 `json:"iv_percentile,omitempty"`
	IVApproximated    bool    `json:"iv_approximated,omitempty"`
	HasIV             bool    `json:"has_iv"`

	FetchedAt time.Time `json:"fetched_at"`
	Source    string    `json:"source"`
	Period    Period    `json:"period"`

	// Partial marks a series shorter than the requested trailing window
	Partial bool `json:"partial,omitempty"`
}

// NewMarketRecord assembles and validates a record from provider output.
// A malformed series is a BadResponse, never silently accepted.
func NewMarketRecord(provider, symbol string, period Period, price float64, bars []Bar) (*MarketRecord, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	if price <= 0 {
		return nil, NewFetchError(provider, KindBadResponse,
			fmt.Sprintf("%s: non-positive current price %.4f", symbol, price))
	}
	if len(bars) == 0 {
		return nil, NewFetchError(provider, KindBadResponse,
			fmt.Sprintf("%s: empty OHLCV series", symbol))
	}

	for _, b := range bars {
		if err := b.Validate(); err != nil {
			return nil, WrapFetchError(provider, KindBadResponse,
				fmt.Sprintf("%s: invalid OHLCV bar", symbol), err)
		}
	}

	// Providers disagree on ordering; normalize to oldest-first
	sorted := make([]Bar, len(bars))
	copy(sorted, bars)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	return &MarketRecord{
		Symbol:       symbol,
		CurrentPrice: price,
		Bars:         sorted,
		FetchedAt:    time.Now().UTC(),
		Source:       provider,
		Period:       period,
		Partial:      len(sorted) < period.MinBars(),
	}, nil
}

// Closes returns the chronological close series
func (r *MarketRecord) Closes() []float64 {
	closes := make([]float64, len(r.Bars))
	for i, b := range r.Bars {
		closes[i] = b.Close
	}
	return closes
}

// LatestVolume returns the most recent session volume
func (r *MarketRecord) LatestVolume() int64 {
	if len(r.Bars) == 0 {
		return 0
	}
	return r.Bars[len(r.Bars)-1].Volume
}
