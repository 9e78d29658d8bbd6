package source

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/calspread/screener/internal/contracts"
	"github.com/calspread/screener/pkg/config"
	"github.com/calspread/screener/pkg/logger"
)

// RetryPolicy wraps a single adapter call with bounded retries and
// exponential backoff. Only transient failures (Unavailable, BadResponse)
// are retried; AuthError, RateLimited, NotFound and InvalidInput propagate
// immediately so the router can fall back or fail fast.
type RetryPolicy struct {
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	logger      *logger.Logger
}

// NewRetryPolicy creates a retry policy from config
func NewRetryPolicy(cfg config.Retry, log *logger.Logger) *RetryPolicy {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	baseDelay := cfg.BaseDelay
	if baseDelay <= 0 {
		baseDelay = 2 * time.Second
	}
	maxDelay := cfg.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 30 * time.Second
	}

	return &RetryPolicy{
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		maxDelay:    maxDelay,
		logger:      log,
	}
}

// Do runs fn up to maxAttempts times. Exhausting retries yields a terminal
// Unavailable wrapping the last failure.
func (p *RetryPolicy) Do(ctx context.Context, provider string, fn func(context.Context) (*contracts.MarketRecord, error)) (*contracts.MarketRecord, error) {
	var lastErr error

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		rec, err := fn(ctx)
		if err == nil {
			return rec, nil
		}
		lastErr = err

		var fe *contracts.FetchError
		if !errors.As(err, &fe) || !fe.Retryable() {
			return nil, err
		}

		if attempt == p.maxAttempts {
			break
		}

		delay := p.backoff(attempt)
		p.logger.WithFields(map[string]interface{}{
			"provider": provider,
			"attempt":  attempt,
			"delay":    delay,
			"error":    err.Error(),
		}).Warn("Retrying provider fetch")

		select {
		case <-ctx.Done():
			return nil, contracts.WrapFetchError(provider, contracts.KindUnavailable,
				"fetch cancelled during backoff", ctx.Err())
		case <-time.After(delay):
		}
	}

	return nil, contracts.WrapFetchError(provider, contracts.KindUnavailable,
		"retries exhausted", lastErr)
}

// backoff returns base*2^(attempt-1) capped at maxDelay, plus up to 10%
// jitter so parallel workers do not retry in lockstep.
func (p *RetryPolicy) backoff(attempt int) time.Duration {
	delay := p.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= p.maxDelay {
			delay = p.maxDelay
			break
		}
	}

	jitter := time.Duration(rand.Int63n(int64(delay)/10 + 1))
	return delay + jitter
}
