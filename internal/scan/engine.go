package scan

import (
	"context"
	"sync/atomic"

	"github.com/calspread/screener/internal/contracts"
	"github.com/calspread/screener/pkg/logger"
)

// HealthSource reports per-provider status for the diagnostics surface
type HealthSource interface {
	Health() []contracts.ProviderStatus
}

// Engine is the facade the host talks to. It owns the active criteria
// set; scans snapshot it at start, so a concurrent swap never changes
// the rules of a scan already under way.
// ⭐ SSOT: the active CriteriaSet lives here and nowhere else.
type Engine struct {
	orchestrator *Orchestrator
	health       HealthSource
	criteria     atomic.Pointer[contracts.CriteriaSet]
	logger       *logger.Logger
}

// NewEngine creates the engine with the given initial criteria
func NewEngine(orchestrator *Orchestrator, health HealthSource, initial contracts.CriteriaSet, log *logger.Logger) (*Engine, error) {
	if err := initial.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		orchestrator: orchestrator,
		health:       health,
		logger:       log,
	}
	e.criteria.Store(&initial)
	return e, nil
}

// RunScan screens the symbols. A nil criteria uses the active set.
func (e *Engine) RunScan(ctx context.Context, symbols []string, criteria *contracts.CriteriaSet) (*contracts.ScreeningReport, error) {
	snapshot := criteria
	if snapshot == nil {
		snapshot = e.criteria.Load()
	}
	return e.orchestrator.Run(ctx, symbols, *snapshot)
}

// GetProviderHealth returns the per-provider diagnostics snapshot
func (e *Engine) GetProviderHealth() []contracts.ProviderStatus {
	return e.health.Health()
}

// UpdateCriteria validates and atomically swaps the active set.
// In-flight scans keep the snapshot they started with.
func (e *Engine) UpdateCriteria(criteria contracts.CriteriaSet) error {
	if err := criteria.Validate(); err != nil {
		return err
	}
	e.criteria.Store(&criteria)
	e.logger.WithFields(map[string]interface{}{
		"atr_threshold":  criteria.ATRThreshold,
		"iv_range":       [2]float64{criteria.IVRange.Min, criteria.IVRange.Max},
		"price_range":    [2]float64{criteria.PriceRange.Min, criteria.PriceRange.Max},
		"pass_threshold": e.orchestrator.evaluator.PassThreshold(),
	}).Info("Screening criteria updated")
	return nil
}

// ActiveCriteria returns a copy of the current criteria set
func (e *Engine) ActiveCriteria() contracts.CriteriaSet {
	return *e.criteria.Load()
}
