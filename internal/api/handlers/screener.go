package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/calspread/screener/internal/contracts"
	"github.com/calspread/screener/internal/scan"
	"github.com/calspread/screener/pkg/logger"
)

// Engine is the scan facade the handlers depend on
type Engine interface {
	RunScan(ctx context.Context, symbols []string, criteria *contracts.CriteriaSet) (*contracts.ScreeningReport, error)
	GetProviderHealth() []contracts.ProviderStatus
	UpdateCriteria(criteria contracts.CriteriaSet) error
	ActiveCriteria() contracts.CriteriaSet
}

// ScreenerHandler serves the screening API endpoints
// ⭐ SSOT: the dashboard talks to the engine only through this handler.
type ScreenerHandler struct {
	engine  Engine
	store   *scan.ReportStore
	symbols []string
	logger  *logger.Logger
}

// NewScreenerHandler creates a new screener handler. symbols is the
// default watchlist scanned by POST /api/refresh-scan.
func NewScreenerHandler(engine Engine, store *scan.ReportStore, symbols []string, log *logger.Logger) *ScreenerHandler {
	return &ScreenerHandler{
		engine:  engine,
		store:   store,
		symbols: symbols,
		logger:  log,
	}
}

// GetData returns the combined dashboard payload
// GET /api/data
func (h *ScreenerHandler) GetData(w http.ResponseWriter, r *http.Request) {
	report := h.store.Get()
	if report == nil {
		respondError(w, http.StatusServiceUnavailable, "No scan has completed yet")
		return
	}

	payload := map[string]interface{}{
		"screening_criteria": h.engine.ActiveCriteria(),
		"all_stocks":         report.Results,
		"qualified_stocks":   report.QualifiedResults(),
		"system_stats":       report.Stats,
		"generated_at":       report.GeneratedAt,
	}
	if next := h.store.NextScan(); !next.IsZero() {
		payload["next_scan_time"] = next
	}

	respondJSON(w, http.StatusOK, payload)
}

// GetStocks returns the per-symbol results of the last scan
// GET /api/stocks?filter=all|qualified|unqualified
func (h *ScreenerHandler) GetStocks(w http.ResponseWriter, r *http.Request) {
	report := h.store.Get()
	if report == nil {
		respondError(w, http.StatusServiceUnavailable, "No scan has completed yet")
		return
	}

	results := report.Results
	switch r.URL.Query().Get("filter") {
	case "", "all":
	case "qualified":
		results = report.QualifiedResults()
	case "unqualified":
		unqualified := make([]contracts.ScreeningResult, 0, len(results))
		for _, res := range results {
			if !res.Qualified {
				unqualified = append(unqualified, res)
			}
		}
		results = unqualified
	default:
		respondError(w, http.StatusBadRequest, "filter must be all, qualified or unqualified")
		return
	}

	respondJSON(w, http.StatusOK, results)
}

// RefreshScan runs a fresh scan of the default watchlist and stores
// the report
// POST /api/refresh-scan
func (h *ScreenerHandler) RefreshScan(w http.ResponseWriter, r *http.Request) {
	report, err := h.engine.RunScan(r.Context(), h.symbols, nil)
	if err != nil {
		h.logger.WithError(err).Error("Refresh scan failed")
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.store.Set(report)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "success",
		"message":      "Scan completed",
		"system_stats": report.Stats,
		"generated_at": report.GeneratedAt,
	})
}

// GetCriteria returns the active criteria set
// GET /api/screening-criteria
func (h *ScreenerHandler) GetCriteria(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.engine.ActiveCriteria())
}

// UpdateCriteria replaces the active criteria set. The body may carry
// a partial set; omitted fields keep their current values.
// POST /api/screening-criteria
func (h *ScreenerHandler) UpdateCriteria(w http.ResponseWriter, r *http.Request) {
	// Decode over a copy of the active set so partial updates merge
	criteria := h.engine.ActiveCriteria()
	if err := json.NewDecoder(r.Body).Decode(&criteria); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if err := h.engine.UpdateCriteria(criteria); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "success",
		"message":  "Criteria updated",
		"criteria": criteria,
	})
}

// GetProviders returns per-provider health diagnostics
// GET /api/providers
func (h *ScreenerHandler) GetProviders(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.engine.GetProviderHealth())
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
