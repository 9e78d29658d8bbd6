// Package sample is the terminal data source: a deterministic,
// offline record generator used when every live provider is down or
// unconfigured. Records are tagged Source="sample" and are never
// cached as live data.
package sample

import (
	"context"
	"hash/fnv"
	"math/rand"
	"time"

	"github.com/calspread/screener/internal/contracts"
	"github.com/calspread/screener/pkg/logger"
)

// profile drives the synthetic series for one symbol
type profile struct {
	price           float64
	atrPct          float64
	iv              float64
	ivPercentile    float64
	openInterest    int64
	stability       float64
	hasDividend     bool
	hasEarningsSoon bool
}

// Well-known dashboard symbols keep stable, hand-tuned profiles so a
// fully degraded scan still looks like the familiar demo data set.
var profiles = map[string]profile{
	"XLF":  {price: 64.83, atrPct: 0.017, iv: 22.0, ivPercentile: 30.0, openInterest: 12000, stability: 0.063},
	"SPY":  {price: 79.14, atrPct: 0.014, iv: 18.0, ivPercentile: 25.0, openInterest: 25000, stability: 0.071},
	"QQQ":  {price: 69.02, atrPct: 0.017, iv: 25.0, ivPercentile: 35.0, openInterest: 15000, stability: 0.149},
	"IWM":  {price: 97.92, atrPct: 0.018, iv: 28.0, ivPercentile: 40.0, openInterest: 8000, stability: 0.117},
	"TLT":  {price: 116.98, atrPct: 0.017, iv: 31.0, ivPercentile: 45.0, openInterest: 18000, stability: 0.124},
	"AAPL": {price: 209.11, atrPct: 0.030, iv: 45.0, ivPercentile: 70.0, openInterest: 5000, stability: 0.190, hasDividend: true},
	"TSLA": {price: 39.89, atrPct: 0.025, iv: 55.0, ivPercentile: 85.0, openInterest: 3000, stability: 0.240, hasEarningsSoon: true},
	"AMZN": {price: 128.49, atrPct: 0.028, iv: 38.0, ivPercentile: 60.0, openInterest: 7000, stability: 0.234, hasEarningsSoon: true},
}

// Provider generates synthetic market records
type Provider struct {
	logger *logger.Logger
	now    func() time.Time
}

// New creates the sample provider
func New(log *logger.Logger) *Provider {
	return &Provider{logger: log, now: func() time.Time { return time.Now().UTC() }}
}

// ID returns the provider identifier
func (p *Provider) ID() string { return contracts.SourceSample }

// Fetch builds a deterministic record for the symbol. The same symbol
// and period always produce the same series.
func (p *Provider) Fetch(ctx context.Context, symbol string, period contracts.Period) (*contracts.MarketRecord, error) {
	if err := contracts.ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prof, ok := profiles[symbol]
	rng := rand.New(rand.NewSource(seed(symbol)))
	if !ok {
		prof = syntheticProfile(rng)
	}

	now := p.now()
	bars := generateBars(rng, prof, period, now)

	rec, err := contracts.NewMarketRecord(p.ID(), symbol, period, prof.price, bars)
	if err != nil {
		return nil, err
	}

	oi := prof.openInterest
	rec.OpenInterest = &oi
	rec.ImpliedVolatility = prof.iv
	rec.IVPercentile = prof.ivPercentile
	rec.HasIV = true
	if prof.hasDividend {
		rec.DividendYield = 0.015
	}
	if prof.hasEarningsSoon {
		earnings := now.AddDate(0, 0, 3)
		rec.NextEarnings = &earnings
	}

	p.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"period": string(period),
	}).Debug("Generated sample record")

	return rec, nil
}

// syntheticProfile derives plausible parameters for a symbol outside
// the hand-tuned set
func syntheticProfile(rng *rand.Rand) profile {
	return profile{
		price:           20 + rng.Float64()*280,
		atrPct:          0.01 + rng.Float64()*0.04,
		iv:              15 + rng.Float64()*45,
		ivPercentile:    10 + rng.Float64()*80,
		openInterest:    500 + rng.Int63n(19500),
		stability:       0.03 + rng.Float64()*0.12,
		hasDividend:     rng.Float64() < 0.2,
		hasEarningsSoon: rng.Float64() < 0.2,
	}
}

// generateBars walks a random series backwards-scaled so the final
// close lands exactly on the profile price
func generateBars(rng *rand.Rand, prof profile, period contracts.Period, now time.Time) []contracts.Bar {
	n := period.MinBars()
	if n < 2 {
		n = 2
	}

	closes := make([]float64, n)
	closes[0] = prof.price
	for i := 1; i < n; i++ {
		step := rng.NormFloat64() * prof.stability / 4
		if step > 0.2 {
			step = 0.2
		}
		if step < -0.2 {
			step = -0.2
		}
		closes[i] = closes[i-1] * (1 + step)
	}

	// Rescale so today's close matches the quoted price
	scale := prof.price / closes[n-1]
	for i := range closes {
		closes[i] *= scale
	}

	spread := prof.atrPct / 2
	bars := make([]contracts.Bar, n)
	for i := range bars {
		open := closes[i]
		if i > 0 {
			open = closes[i-1]
		}
		high := open
		if closes[i] > high {
			high = closes[i]
		}
		low := open
		if closes[i] < low {
			low = closes[i]
		}
		bars[i] = contracts.Bar{
			Date:   now.AddDate(0, 0, i-n+1),
			Open:   open,
			High:   high * (1 + spread),
			Low:    low * (1 - spread),
			Close:  closes[i],
			Volume: 500_000 + rng.Int63n(4_500_000),
		}
	}
	return bars
}

func seed(symbol string) int64 {
	h := fnv.New64a()
	h.Write([]byte(symbol))
	return int64(h.Sum64())
}
