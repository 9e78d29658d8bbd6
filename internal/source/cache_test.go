package source

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calspread/screener/internal/contracts"
	"github.com/calspread/screener/pkg/logger"
)

func testRecord(t *testing.T, symbol string) *contracts.MarketRecord {
	t.Helper()

	bars := make([]contracts.Bar, 30)
	for i := range bars {
		bars[i] = contracts.Bar{
			Date:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Open:   100, High: 102, Low: 99, Close: 101, Volume: 500_000,
		}
	}

	rec, err := contracts.NewMarketRecord(contracts.SourceYahoo, symbol, contracts.Period1Mo, 101, bars)
	require.NoError(t, err)
	return rec
}

func TestCacheRoundTrip(t *testing.T) {
	cache := NewRecordCache(time.Minute, 10, logger.NewNop())
	rec := testRecord(t, "AAPL")
	key := CacheKey(contracts.SourceYahoo, "AAPL", contracts.Period1Mo)

	cache.Put(key, rec)

	got, ok := cache.Get(key)
	require.True(t, ok)
	assert.Equal(t, rec, got, "cached record must round-trip unchanged")
}

func TestCacheExpiry(t *testing.T) {
	cache := NewRecordCache(30*time.Millisecond, 10, logger.NewNop())
	key := CacheKey(contracts.SourceYahoo, "AAPL", contracts.Period1Mo)

	cache.Put(key, testRecord(t, "AAPL"))

	_, ok := cache.Get(key)
	require.True(t, ok)

	time.Sleep(50 * time.Millisecond)

	_, ok = cache.Get(key)
	assert.False(t, ok, "entry must miss after TTL expiry")
	assert.Equal(t, 0, cache.Len(), "expired entry is dropped on read")
}

func TestCacheLRUEviction(t *testing.T) {
	cache := NewRecordCache(time.Minute, 2, logger.NewNop())

	keyA := CacheKey(contracts.SourceYahoo, "AAA", contracts.Period1Mo)
	keyB := CacheKey(contracts.SourceYahoo, "BBB", contracts.Period1Mo)
	keyC := CacheKey(contracts.SourceYahoo, "CCC", contracts.Period1Mo)

	cache.Put(keyA, testRecord(t, "AAA"))
	cache.Put(keyB, testRecord(t, "BBB"))

	// Touch A so B becomes least recently used
	_, ok := cache.Get(keyA)
	require.True(t, ok)

	cache.Put(keyC, testRecord(t, "CCC"))

	_, ok = cache.Get(keyB)
	assert.False(t, ok, "least recently used entry must be evicted")

	_, ok = cache.Get(keyA)
	assert.True(t, ok)
	_, ok = cache.Get(keyC)
	assert.True(t, ok)
}

func TestCacheKeySeparatesProviders(t *testing.T) {
	cache := NewRecordCache(time.Minute, 10, logger.NewNop())

	cache.Put(CacheKey(contracts.SourceYahoo, "AAPL", contracts.Period1Mo), testRecord(t, "AAPL"))

	_, ok := cache.Get(CacheKey(contracts.SourceAlphaVantage, "AAPL", contracts.Period1Mo))
	assert.False(t, ok, "providers must have separate cache keys")

	_, ok = cache.Get(CacheKey(contracts.SourceYahoo, "AAPL", contracts.Period3Mo))
	assert.False(t, ok, "periods must have separate cache keys")
}

func TestCachePurgeExpired(t *testing.T) {
	cache := NewRecordCache(10*time.Millisecond, 10, logger.NewNop())

	cache.Put("a", testRecord(t, "AAA"))
	cache.Put("b", testRecord(t, "BBB"))

	time.Sleep(20 * time.Millisecond)

	removed := cache.PurgeExpired()
	assert.Equal(t, 2, removed)
	assert.Equal(t, 0, cache.Len())
}
