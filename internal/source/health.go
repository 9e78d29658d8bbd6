package source

import (
	"sort"
	"sync"
	"time"

	"github.com/calspread/screener/internal/contracts"
)

// unhealthyAfter is the consecutive-failure count that flips a provider
// to unhealthy in the diagnostics view
const unhealthyAfter = 3

// HealthTracker records per-provider fetch outcomes for the diagnostics UI
type HealthTracker struct {
	mu     sync.Mutex
	states map[string]*providerState
}

type providerState struct {
	consecutiveFailures int
	lastErrorKind       string
	lastError           string
	lastSuccess         time.Time
	requests            int
	day                 string
}

// NewHealthTracker creates a health tracker
func NewHealthTracker() *HealthTracker {
	return &HealthTracker{states: make(map[string]*providerState)}
}

// RecordSuccess notes a successful fetch from provider
func (h *HealthTracker) RecordSuccess(provider string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := h.state(provider)
	s.consecutiveFailures = 0
	s.lastErrorKind = ""
	s.lastError = ""
	s.lastSuccess = time.Now().UTC()
	s.requests++
}

// RecordFailure notes a terminal fetch failure from provider
func (h *HealthTracker) RecordFailure(provider string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := h.state(provider)
	s.consecutiveFailures++
	s.lastErrorKind = string(contracts.KindOf(err))
	if err != nil {
		s.lastError = err.Error()
	}
	s.requests++
}

// state returns the state for provider, creating it on first use and
// rolling the daily request counter. Caller holds the lock.
func (h *HealthTracker) state(provider string) *providerState {
	s, ok := h.states[provider]
	if !ok {
		s = &providerState{}
		h.states[provider] = s
	}

	today := time.Now().UTC().Format("2006-01-02")
	if s.day != today {
		s.day = today
		s.requests = 0
	}
	return s
}

// Snapshot returns the current status of every observed provider,
// sorted by provider id
func (h *HealthTracker) Snapshot() []contracts.ProviderStatus {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]contracts.ProviderStatus, 0, len(h.states))
	for provider, s := range h.states {
		status := contracts.ProviderStatus{
			Provider:            provider,
			Healthy:             s.consecutiveFailures < unhealthyAfter,
			ConsecutiveFailures: s.consecutiveFailures,
			LastErrorKind:       s.lastErrorKind,
			LastError:           s.lastError,
			RequestsToday:       s.requests,
		}
		if !s.lastSuccess.IsZero() {
			status.LastSuccess = s.lastSuccess.Format(time.RFC3339)
		}
		out = append(out, status)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Provider < out[j].Provider })
	return out
}
