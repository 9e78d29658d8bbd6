package source

import (
	"context"
	"fmt"

	"github.com/calspread/screener/internal/contracts"
	"github.com/calspread/screener/pkg/logger"
)

// Router orchestrates the fetch-with-fallback pipeline for one symbol:
// cache → rate limiter → retry → adapter, walking the configured provider
// chain and degrading to synthetic sample data when every live source
// fails. Safe for concurrent use; the cache and the limiters serialize
// their own state without serializing network calls.
// ⭐ SSOT: provider selection and fallback policy live only here
type Router struct {
	chain    []contracts.Provider
	sample   contracts.Provider
	cache    *RecordCache
	limiters map[string]*ProviderLimiter
	retry    *RetryPolicy
	health   *HealthTracker
	logger   *logger.Logger
}

// NewRouter creates a router over an ordered provider chain. sample is the
// terminal synthetic provider and must never fail.
func NewRouter(
	chain []contracts.Provider,
	sample contracts.Provider,
	cache *RecordCache,
	limiters map[string]*ProviderLimiter,
	retry *RetryPolicy,
	health *HealthTracker,
	log *logger.Logger,
) *Router {
	return &Router{
		chain:    chain,
		sample:   sample,
		cache:    cache,
		limiters: limiters,
		retry:    retry,
		health:   health,
		logger:   log,
	}
}

// FetchRecord returns a normalized MarketRecord for symbol over period.
// Provider failures never surface to the caller: the chain falls through
// to sample data, which is tagged and never cached as live data. The only
// returned errors are invalid input and caller cancellation.
func (r *Router) FetchRecord(ctx context.Context, symbol string, period contracts.Period) (*contracts.MarketRecord, error) {
	if err := contracts.ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	if _, err := contracts.ParsePeriod(string(period)); err != nil {
		return nil, err
	}

	for _, provider := range r.chain {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("fetch cancelled: %w", err)
		}

		rec, err := r.tryProvider(ctx, provider, symbol, period)
		if err == nil {
			return rec, nil
		}

		r.logger.WithFields(map[string]interface{}{
			"provider": provider.ID(),
			"symbol":   symbol,
			"kind":     string(contracts.KindOf(err)),
			"error":    err.Error(),
		}).Warn("Provider failed, trying next source")
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fetch cancelled: %w", err)
	}

	r.logger.WithField("symbol", symbol).Warn("All live sources exhausted, using sample data")

	// The sample provider is deterministic and must not fail for a valid
	// symbol. Its records are never cached as live data.
	rec, err := r.sample.Fetch(ctx, symbol, period)
	if err != nil {
		return nil, fmt.Errorf("sample provider failed for %s: %w", symbol, err)
	}
	return rec, nil
}

// tryProvider runs the cache/limiter/retry sequence for one provider
func (r *Router) tryProvider(ctx context.Context, provider contracts.Provider, symbol string, period contracts.Period) (*contracts.MarketRecord, error) {
	key := CacheKey(provider.ID(), symbol, period)

	if rec, ok := r.cache.Get(key); ok {
		r.logger.WithFields(map[string]interface{}{
			"provider": provider.ID(),
			"symbol":   symbol,
		}).Debug("Cache hit")
		return rec, nil
	}

	// Pacing check happens before any network call
	if limiter, ok := r.limiters[provider.ID()]; ok {
		if err := limiter.Allow(ctx); err != nil {
			return nil, err
		}
	}

	rec, err := r.retry.Do(ctx, provider.ID(), func(ctx context.Context) (*contracts.MarketRecord, error) {
		return provider.Fetch(ctx, symbol, period)
	})
	if err != nil {
		r.health.RecordFailure(provider.ID(), err)
		return nil, err
	}

	r.health.RecordSuccess(provider.ID())
	r.cache.Put(key, rec)
	return rec, nil
}

// Health returns the provider status snapshot for diagnostics
func (r *Router) Health() []contracts.ProviderStatus {
	return r.health.Snapshot()
}

// Cache exposes the record cache for maintenance jobs
func (r *Router) Cache() *RecordCache {
	return r.cache
}
