package source

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calspread/screener/internal/contracts"
	"github.com/calspread/screener/pkg/config"
	"github.com/calspread/screener/pkg/logger"
)

// fakeProvider scripts failures for router tests
type fakeProvider struct {
	id    string
	calls int
	fail  *contracts.FetchError // nil means success
}

func (f *fakeProvider) ID() string { return f.id }

func (f *fakeProvider) Fetch(ctx context.Context, symbol string, period contracts.Period) (*contracts.MarketRecord, error) {
	f.calls++
	if f.fail != nil {
		return nil, f.fail
	}

	bars := make([]contracts.Bar, 30)
	for i := range bars {
		bars[i] = contracts.Bar{
			Date: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Open: 100, High: 102, Low: 99, Close: 101, Volume: 100_000,
		}
	}
	return contracts.NewMarketRecord(f.id, symbol, period, 101, bars)
}

func newTestRouter(chain []contracts.Provider, limiters map[string]*ProviderLimiter) *Router {
	log := logger.NewNop()
	if limiters == nil {
		limiters = map[string]*ProviderLimiter{}
	}
	return NewRouter(
		chain,
		&fakeProvider{id: contracts.SourceSample},
		NewRecordCache(time.Minute, 16, log),
		limiters,
		NewRetryPolicy(config.Retry{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}, log),
		NewHealthTracker(),
		log,
	)
}

func TestRouterPrimarySuccess(t *testing.T) {
	primary := &fakeProvider{id: "alpha_vantage"}
	fallback := &fakeProvider{id: "yahoo"}
	router := newTestRouter([]contracts.Provider{primary, fallback}, nil)

	rec, err := router.FetchRecord(context.Background(), "AAPL", contracts.Period3Mo)
	require.NoError(t, err)

	assert.Equal(t, "alpha_vantage", rec.Source)
	assert.Equal(t, 0, fallback.calls, "fallback must not be touched on primary success")
}

func TestRouterCachesSuccessfulFetch(t *testing.T) {
	primary := &fakeProvider{id: "alpha_vantage"}
	router := newTestRouter([]contracts.Provider{primary}, nil)

	ctx := context.Background()
	_, err := router.FetchRecord(ctx, "AAPL", contracts.Period3Mo)
	require.NoError(t, err)

	_, err = router.FetchRecord(ctx, "AAPL", contracts.Period3Mo)
	require.NoError(t, err)

	assert.Equal(t, 1, primary.calls, "second fetch must be served from cache")
}

func TestRouterFallsBackOnAuthError(t *testing.T) {
	primary := &fakeProvider{
		id:   "alpha_vantage",
		fail: contracts.NewFetchError("alpha_vantage", contracts.KindAuthError, "bad key"),
	}
	fallback := &fakeProvider{id: "yahoo"}
	router := newTestRouter([]contracts.Provider{primary, fallback}, nil)

	rec, err := router.FetchRecord(context.Background(), "AAPL", contracts.Period3Mo)
	require.NoError(t, err)

	assert.Equal(t, "yahoo", rec.Source)
	assert.Equal(t, 1, primary.calls, "auth errors are not retried")
}

func TestRouterTriesNextProviderOnNotFound(t *testing.T) {
	primary := &fakeProvider{
		id:   "alpha_vantage",
		fail: contracts.NewFetchError("alpha_vantage", contracts.KindNotFound, "unknown symbol"),
	}
	fallback := &fakeProvider{id: "yahoo"}
	router := newTestRouter([]contracts.Provider{primary, fallback}, nil)

	rec, err := router.FetchRecord(context.Background(), "OBSCURE", contracts.Period3Mo)
	require.NoError(t, err)

	assert.Equal(t, "yahoo", rec.Source, "a symbol unknown to one provider may exist in another")
	assert.Equal(t, 1, primary.calls)
}

func TestRouterExhaustionYieldsSampleData(t *testing.T) {
	primary := &fakeProvider{
		id:   "alpha_vantage",
		fail: contracts.NewFetchError("alpha_vantage", contracts.KindAuthError, "missing key"),
	}
	fallback := &fakeProvider{
		id:   "yahoo",
		fail: contracts.NewFetchError("yahoo", contracts.KindUnavailable, "down"),
	}
	router := newTestRouter([]contracts.Provider{primary, fallback}, nil)

	rec, err := router.FetchRecord(context.Background(), "AAPL", contracts.Period3Mo)
	require.NoError(t, err, "exhaustion must never raise an error to the caller")

	assert.Equal(t, contracts.SourceSample, rec.Source)
	assert.Equal(t, 2, fallback.calls, "Unavailable is retried before falling through")

	// Sample data must never be cached as live data
	_, ok := router.Cache().Get(CacheKey(contracts.SourceSample, "AAPL", contracts.Period3Mo))
	assert.False(t, ok)
}

func TestRouterRateLimitSkipsAdapterCall(t *testing.T) {
	primary := &fakeProvider{id: "alpha_vantage"}
	fallback := &fakeProvider{id: "yahoo"}

	limiter := NewProviderLimiter("alpha_vantage", config.RateLimit{
		MinInterval: time.Hour,
		DailyLimit:  100,
	}, nil, logger.NewNop())
	limiters := map[string]*ProviderLimiter{"alpha_vantage": limiter}

	router := newTestRouter([]contracts.Provider{primary, fallback}, limiters)

	ctx := context.Background()

	// First request consumes the pacing slot; use a different symbol so the
	// second request misses the cache.
	_, err := router.FetchRecord(ctx, "AAPL", contracts.Period3Mo)
	require.NoError(t, err)
	assert.Equal(t, 1, primary.calls)

	rec, err := router.FetchRecord(ctx, "MSFT", contracts.Period3Mo)
	require.NoError(t, err)

	assert.Equal(t, 1, primary.calls, "rate-limited request must not invoke the adapter")
	assert.Equal(t, "yahoo", rec.Source, "router falls back instead of queueing")
}

func TestRouterRejectsInvalidInput(t *testing.T) {
	router := newTestRouter([]contracts.Provider{&fakeProvider{id: "yahoo"}}, nil)

	_, err := router.FetchRecord(context.Background(), "not-a-ticker", contracts.Period3Mo)
	require.Error(t, err)
	assert.Equal(t, contracts.KindInvalidInput, contracts.KindOf(err))

	_, err = router.FetchRecord(context.Background(), "AAPL", contracts.Period("4d"))
	require.Error(t, err)
	assert.Equal(t, contracts.KindInvalidInput, contracts.KindOf(err))
}

func TestRouterHealthTracksOutcomes(t *testing.T) {
	primary := &fakeProvider{
		id:   "alpha_vantage",
		fail: contracts.NewFetchError("alpha_vantage", contracts.KindAuthError, "bad key"),
	}
	fallback := &fakeProvider{id: "yahoo"}
	router := newTestRouter([]contracts.Provider{primary, fallback}, nil)

	_, err := router.FetchRecord(context.Background(), "AAPL", contracts.Period3Mo)
	require.NoError(t, err)

	statuses := router.Health()
	require.Len(t, statuses, 2)

	// Sorted by provider id
	assert.Equal(t, "alpha_vantage", statuses[0].Provider)
	assert.Equal(t, 1, statuses[0].ConsecutiveFailures)
	assert.Equal(t, string(contracts.KindAuthError), statuses[0].LastErrorKind)
	assert.True(t, statuses[0].Healthy, "one failure is not yet unhealthy")

	assert.Equal(t, "yahoo", statuses[1].Provider)
	assert.Equal(t, 0, statuses[1].ConsecutiveFailures)
	assert.NotEmpty(t, statuses[1].LastSuccess)
}
