package scan

import (
	"sync"
	"time"

	"github.com/calspread/screener/internal/contracts"
)

// ReportStore keeps the most recent screening report in memory for the
// API surface and the export endpoints. The scheduler and the refresh
// endpoint both write here.
type ReportStore struct {
	mu       sync.RWMutex
	report   *contracts.ScreeningReport
	nextScan time.Time
}

// NewReportStore creates an empty store
func NewReportStore() *ReportStore {
	return &ReportStore{}
}

// Set replaces the stored report
func (s *ReportStore) Set(report *contracts.ScreeningReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.report = report
}

// Get returns the stored report, or nil when no scan has finished yet
func (s *ReportStore) Get() *contracts.ScreeningReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report
}

// SetNextScan records when the scheduler will run again
func (s *ReportStore) SetNextScan(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextScan = t
}

// NextScan returns the scheduled next scan time, zero when unknown
func (s *ReportStore) NextScan() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextScan
}
