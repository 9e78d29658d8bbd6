// Package scan runs the fetch-and-screen pipeline over a symbol list
// and exposes the engine facade consumed by the API, the scheduler and
// the CLI.
package scan

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/calspread/screener/internal/contracts"
	"github.com/calspread/screener/internal/screen"
	"github.com/calspread/screener/pkg/logger"
)

const (
	maxSymbols     = 50
	defaultWorkers = 5
)

// Orchestrator fans the pipeline out over a bounded worker pool.
// The router and its cache/limiter state are the only shared mutable
// resources; each symbol's fetch and evaluation is independent.
type Orchestrator struct {
	fetcher   contracts.RecordFetcher
	evaluator *screen.Evaluator
	period    contracts.Period
	workers   int
	logger    *logger.Logger
}

// NewOrchestrator creates an orchestrator over the given fetcher
func NewOrchestrator(fetcher contracts.RecordFetcher, evaluator *screen.Evaluator, period contracts.Period, workers int, log *logger.Logger) *Orchestrator {
	if workers < 1 {
		workers = defaultWorkers
	}
	return &Orchestrator{
		fetcher:   fetcher,
		evaluator: evaluator,
		period:    period,
		workers:   workers,
		logger:    log,
	}
}

// Run screens the symbol list against the criteria snapshot. Per-symbol
// provider trouble never aborts the scan; cancellation stops dispatching
// new symbols and the report carries whatever finished. The returned
// error is non-nil only for invalid input.
func (o *Orchestrator) Run(ctx context.Context, symbols []string, criteria contracts.CriteriaSet) (*contracts.ScreeningReport, error) {
	cleaned, err := normalizeSymbols(symbols)
	if err != nil {
		return nil, err
	}
	if err := criteria.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	o.logger.WithFields(map[string]interface{}{
		"symbols": len(cleaned),
		"workers": o.workers,
	}).Info("Scan started")

	type slot struct {
		index  int
		symbol string
	}

	jobs := make(chan slot)
	results := make([]*contracts.ScreeningResult, len(cleaned))
	degraded := make([]string, len(cleaned))

	var wg sync.WaitGroup
	for w := 0; w < o.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				res, reason := o.screenOne(ctx, job.symbol, criteria)
				results[job.index] = res
				degraded[job.index] = reason
			}
		}()
	}

dispatch:
	for i, symbol := range cleaned {
		select {
		case <-ctx.Done():
			o.logger.WithField("remaining", len(cleaned)-i).Warn("Scan cancelled, returning partial results")
			break dispatch
		case jobs <- slot{index: i, symbol: symbol}:
		}
	}
	close(jobs)
	wg.Wait()

	report := o.buildReport(cleaned, results, degraded)

	o.logger.WithFields(map[string]interface{}{
		"analyzed":  report.Stats.TotalAnalyzed,
		"qualified": report.Stats.QualifiedStocks,
		"duration":  time.Since(start),
	}).Info("Scan finished")

	return report, nil
}

// screenOne runs fetch+evaluate for one symbol. A nil result means the
// symbol was skipped entirely (cancellation mid-flight).
func (o *Orchestrator) screenOne(ctx context.Context, symbol string, criteria contracts.CriteriaSet) (*contracts.ScreeningResult, string) {
	rec, err := o.fetcher.FetchRecord(ctx, symbol, o.period)
	if err != nil {
		o.logger.WithFields(map[string]interface{}{
			"symbol": symbol,
			"error":  err.Error(),
		}).Warn("Symbol skipped")
		return nil, ""
	}

	result := o.evaluator.Evaluate(rec, criteria, time.Now().UTC())

	var reason string
	if rec.Source == contracts.SourceSample {
		reason = "all live sources failed, using sample data"
	}
	return &result, reason
}

func (o *Orchestrator) buildReport(symbols []string, results []*contracts.ScreeningResult, degraded []string) *contracts.ScreeningReport {
	report := &contracts.ScreeningReport{
		Results:     make([]contracts.ScreeningResult, 0, len(results)),
		GeneratedAt: time.Now().UTC(),
	}

	var criteriaSum int
	for i, res := range results {
		if res == nil {
			continue
		}
		report.Results = append(report.Results, *res)
		criteriaSum += res.CriteriaMetCount
		if res.Qualified {
			report.Stats.QualifiedStocks++
		}
		if degraded[i] != "" {
			if report.Degraded == nil {
				report.Degraded = make(map[string]string)
			}
			report.Degraded[symbols[i]] = degraded[i]
		}
	}

	report.Stats.TotalAnalyzed = len(report.Results)
	if n := report.Stats.TotalAnalyzed; n > 0 {
		report.Stats.SuccessRate = float64(report.Stats.QualifiedStocks) / float64(n) * 100
		report.Stats.AverageCriteriaMet = float64(criteriaSum) / float64(n)
	}
	return report
}

// normalizeSymbols trims, uppercases and dedupes the list preserving
// first-seen order, then applies the 1-50 bound and the ticker format.
func normalizeSymbols(symbols []string) ([]string, error) {
	seen := make(map[string]struct{}, len(symbols))
	cleaned := make([]string, 0, len(symbols))
	for _, s := range symbols {
		symbol := strings.ToUpper(strings.TrimSpace(s))
		if symbol == "" {
			continue
		}
		if _, dup := seen[symbol]; dup {
			continue
		}
		if err := contracts.ValidateSymbol(symbol); err != nil {
			return nil, err
		}
		seen[symbol] = struct{}{}
		cleaned = append(cleaned, symbol)
	}

	if len(cleaned) == 0 {
		return nil, contracts.NewFetchError("", contracts.KindInvalidInput, "no symbols to scan")
	}
	if len(cleaned) > maxSymbols {
		return nil, contracts.NewFetchError("", contracts.KindInvalidInput,
			fmt.Sprintf("too many symbols: %d (max %d)", len(cleaned), maxSymbols))
	}
	return cleaned, nil
}
