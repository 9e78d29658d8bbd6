package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calspread/screener/internal/contracts"
	"github.com/calspread/screener/internal/scan"
	"github.com/calspread/screener/pkg/logger"
)

type fakeEngine struct {
	report *contracts.ScreeningReport
	err    error
}

func (f *fakeEngine) RunScan(ctx context.Context, symbols []string, criteria *contracts.CriteriaSet) (*contracts.ScreeningReport, error) {
	return f.report, f.err
}

func TestScanJobPublishesReport(t *testing.T) {
	store := scan.NewReportStore()
	engine := &fakeEngine{report: &contracts.ScreeningReport{GeneratedAt: time.Now()}}

	job := NewScanJob(engine, store, []string{"SPY"}, "@every 30m", logger.NewNop())
	require.NoError(t, job.Run(context.Background()))

	assert.NotNil(t, store.Get())
	next := store.NextScan()
	require.False(t, next.IsZero())
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), next, time.Minute)
}

func TestScanJobPropagatesFailure(t *testing.T) {
	store := scan.NewReportStore()
	job := NewScanJob(&fakeEngine{err: errors.New("scan blew up")}, store,
		[]string{"SPY"}, "@every 30m", logger.NewNop())

	err := job.Run(context.Background())
	assert.Error(t, err)
	assert.Nil(t, store.Get(), "a failed scan publishes nothing")
}
