package contracts

import "context"

// Provider fetches a normalized MarketRecord from one external source
// ⭐ SSOT: every data source implements exactly this contract; the router
// never special-cases a concrete provider.
type Provider interface {
	// ID returns the provider identifier used in cache keys and source tags
	ID() string

	// Fetch assembles a MarketRecord for symbol over the trailing period.
	// Failures are *FetchError values carrying the taxonomy kind.
	// Adapters are stateless and must not cache.
	Fetch(ctx context.Context, symbol string, period Period) (*MarketRecord, error)
}

// RecordFetcher is the router-facing contract used by the orchestrator
type RecordFetcher interface {
	FetchRecord(ctx context.Context, symbol string, period Period) (*MarketRecord, error)
}

// ProviderStatus describes one provider for the diagnostics UI
type ProviderStatus struct {
	Provider            string `json:"provider"`
	Healthy             bool   `json:"healthy"`
	ConsecutiveFailures int    `json:"consecutive_failures"`
	LastErrorKind       string `json:"last_error_kind,omitempty"`
	LastError           string `json:"last_error,omitempty"`
	LastSuccess         string `json:"last_success,omitempty"`
	RequestsToday       int    `json:"requests_today"`
}
