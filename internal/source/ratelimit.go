package source

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/calspread/screener/internal/contracts"
	"github.com/calspread/screener/pkg/config"
	"github.com/calspread/screener/pkg/logger"
	"github.com/calspread/screener/pkg/redis"
)

// ProviderLimiter enforces two independent ceilings for one provider: a
// minimum inter-request interval and a rolling daily count. A request that
// would exceed either is rejected immediately as RateLimited, never queued;
// the router decides whether to fall back.
// ⭐ SSOT: request pacing per provider lives only here
type ProviderLimiter struct {
	provider string
	interval *rate.Limiter
	logger   *logger.Logger

	mu        sync.Mutex
	day       string // UTC date of the current counter
	usedToday int
	dailyMax  int

	// Optional distributed quota; replaces the in-process daily counter
	// when Redis is enabled, so the ceiling is shared across instances.
	quota *redis.QuotaCounter
}

// NewProviderLimiter creates a limiter from a provider's rate config
func NewProviderLimiter(provider string, cfg config.RateLimit, quota *redis.QuotaCounter, log *logger.Logger) *ProviderLimiter {
	interval := rate.NewLimiter(rate.Inf, 1)
	if cfg.MinInterval > 0 {
		interval = rate.NewLimiter(rate.Every(cfg.MinInterval), 1)
	}

	return &ProviderLimiter{
		provider: provider,
		interval: interval,
		dailyMax: cfg.DailyLimit,
		quota:    quota,
		logger:   log,
	}
}

// Allow consumes one request slot or rejects with RateLimited. The check
// happens before any adapter invocation, so a rejected request makes no
// network call.
func (l *ProviderLimiter) Allow(ctx context.Context) error {
	// Interval first: a request bounced by pacing must not burn a
	// daily-quota token.
	if !l.interval.Allow() {
		l.logger.WithField("provider", l.provider).Debug("Request rejected by pacing interval")
		return contracts.NewFetchError(l.provider, contracts.KindRateLimited,
			"minimum request interval not elapsed")
	}

	return l.allowDaily(ctx)
}

// allowDaily checks the rolling daily ceiling
func (l *ProviderLimiter) allowDaily(ctx context.Context) error {
	if l.dailyMax <= 0 {
		return nil
	}

	if l.quota != nil {
		allowed, remaining, err := l.quota.Allow(ctx, redis.QuotaConfig{
			Provider: l.provider,
			Limit:    l.dailyMax,
			Window:   24 * time.Hour,
		})
		if err != nil {
			// Quota backend trouble falls back to the local counter
			l.logger.WithError(err).WithField("provider", l.provider).
				Warn("Quota backend unavailable, using local counter")
		} else if !allowed {
			return contracts.NewFetchError(l.provider, contracts.KindRateLimited,
				"daily request quota exhausted")
		} else {
			l.logger.WithFields(map[string]interface{}{
				"provider":  l.provider,
				"remaining": remaining,
			}).Debug("Daily quota consumed")
			return nil
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	today := time.Now().UTC().Format("2006-01-02")
	if l.day != today {
		l.day = today
		l.usedToday = 0
	}

	if l.usedToday >= l.dailyMax {
		return contracts.NewFetchError(l.provider, contracts.KindRateLimited,
			fmt.Sprintf("daily request quota of %d exhausted", l.dailyMax))
	}

	l.usedToday++
	return nil
}

// UsedToday returns the local daily counter value
func (l *ProviderLimiter) UsedToday() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.day != time.Now().UTC().Format("2006-01-02") {
		return 0
	}
	return l.usedToday
}
