// Package jobs holds the concrete scheduled jobs.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/calspread/screener/internal/contracts"
	"github.com/calspread/screener/internal/scan"
	"github.com/calspread/screener/pkg/logger"
)

// ScanEngine is the slice of the engine facade the job needs
type ScanEngine interface {
	RunScan(ctx context.Context, symbols []string, criteria *contracts.CriteriaSet) (*contracts.ScreeningReport, error)
}

// ScanJob periodically re-screens the watchlist and publishes the
// report for the API surface.
type ScanJob struct {
	engine   ScanEngine
	store    *scan.ReportStore
	symbols  []string
	schedule string
	logger   *logger.Logger
}

// NewScanJob creates the periodic scan job
func NewScanJob(engine ScanEngine, store *scan.ReportStore, symbols []string, schedule string, log *logger.Logger) *ScanJob {
	return &ScanJob{
		engine:   engine,
		store:    store,
		symbols:  symbols,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *ScanJob) Name() string {
	return "screening_scan"
}

// Schedule returns the cron schedule expression
func (j *ScanJob) Schedule() string {
	return j.schedule
}

// Run executes one scan against the active criteria
func (j *ScanJob) Run(ctx context.Context) error {
	report, err := j.engine.RunScan(ctx, j.symbols, nil)
	if err != nil {
		return fmt.Errorf("scheduled scan failed: %w", err)
	}

	j.store.Set(report)
	j.publishNextScanTime()

	j.logger.WithFields(map[string]interface{}{
		"analyzed":  report.Stats.TotalAnalyzed,
		"qualified": report.Stats.QualifiedStocks,
	}).Info("Scheduled scan published")

	return nil
}

// publishNextScanTime exposes the next firing time so the dashboard
// can show a countdown
func (j *ScanJob) publishNextScanTime() {
	parser := cron.NewParser(
		cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
	)
	sched, err := parser.Parse(j.schedule)
	if err != nil {
		return
	}
	j.store.SetNextScan(sched.Next(time.Now()))
}
