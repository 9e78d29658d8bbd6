package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calspread/screener/pkg/config"
)

func TestDisabledClientAllowsEverything(t *testing.T) {
	cfg := &config.Config{}
	cfg.Redis.Enabled = false

	client, err := New(cfg)
	require.NoError(t, err)
	assert.False(t, client.Enabled())

	counter := NewQuotaCounter(client, "screener")
	allowed, remaining, err := counter.Allow(context.Background(), QuotaConfig{
		Provider: "alpha_vantage",
		Limit:    1,
		Window:   24 * time.Hour,
	})
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 1, remaining)
}

func TestQuotaCounterAgainstRedis(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	cfg := &config.Config{}
	cfg.Redis = config.RedisConfig{Host: "localhost", Port: "6379", Enabled: true}

	client, err := New(cfg)
	require.NoError(t, err, "redis connection failed")
	defer client.Close()

	counter := NewQuotaCounter(client, "screener_test")
	quota := QuotaConfig{Provider: "t_" + time.Now().Format("150405.000"), Limit: 2, Window: time.Minute}

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		allowed, _, err := counter.Allow(ctx, quota)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should be allowed", i+1)
	}

	allowed, remaining, err := counter.Allow(ctx, quota)
	require.NoError(t, err)
	assert.False(t, allowed, "third request should exceed the quota")
	assert.Equal(t, 0, remaining)
}
