package sample

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calspread/screener/internal/contracts"
	"github.com/calspread/screener/pkg/logger"
)

func TestFetchKnownSymbol(t *testing.T) {
	p := New(logger.NewNop())

	rec, err := p.Fetch(context.Background(), "XLF", contracts.Period3Mo)
	require.NoError(t, err)

	assert.Equal(t, contracts.SourceSample, rec.Source)
	assert.InDelta(t, 64.83, rec.CurrentPrice, 1e-9)
	assert.True(t, rec.HasIV)
	assert.InDelta(t, 22.0, rec.ImpliedVolatility, 1e-9)
	require.NotNil(t, rec.OpenInterest)
	assert.Equal(t, int64(12000), *rec.OpenInterest)
	assert.False(t, rec.Partial)
	assert.InDelta(t, rec.CurrentPrice, rec.Bars[len(rec.Bars)-1].Close, 1e-6,
		"latest close matches the quoted price")
}

func TestFetchIsDeterministic(t *testing.T) {
	p := New(logger.NewNop())
	ctx := context.Background()

	a, err := p.Fetch(ctx, "UNKNOWN1", contracts.Period3Mo)
	require.NoError(t, err)
	b, err := p.Fetch(ctx, "UNKNOWN1", contracts.Period3Mo)
	require.NoError(t, err)

	assert.Equal(t, a.CurrentPrice, b.CurrentPrice)
	require.Equal(t, len(a.Bars), len(b.Bars))
	for i := range a.Bars {
		assert.Equal(t, a.Bars[i].Close, b.Bars[i].Close)
	}

	c, err := p.Fetch(ctx, "UNKNOWN2", contracts.Period3Mo)
	require.NoError(t, err)
	assert.NotEqual(t, a.CurrentPrice, c.CurrentPrice, "different symbols diverge")
}

func TestFetchUnknownSymbolStaysValid(t *testing.T) {
	p := New(logger.NewNop())

	for _, symbol := range []string{"GOOGL", "MSFT", "NVDA", "X"} {
		rec, err := p.Fetch(context.Background(), symbol, contracts.Period1Y)
		require.NoError(t, err, symbol)

		assert.Greater(t, rec.CurrentPrice, 0.0)
		assert.True(t, rec.HasIV)
		assert.NotNil(t, rec.OpenInterest)
		assert.False(t, rec.Partial)
		for _, bar := range rec.Bars {
			require.NoError(t, bar.Validate())
		}
	}
}

func TestFetchEarningsAndDividendFlags(t *testing.T) {
	p := New(logger.NewNop())
	ctx := context.Background()

	aapl, err := p.Fetch(ctx, "AAPL", contracts.Period3Mo)
	require.NoError(t, err)
	assert.Greater(t, aapl.DividendYield, 0.0)
	assert.Nil(t, aapl.NextEarnings)

	tsla, err := p.Fetch(ctx, "TSLA", contracts.Period3Mo)
	require.NoError(t, err)
	assert.Zero(t, tsla.DividendYield)
	assert.NotNil(t, tsla.NextEarnings)
}

func TestFetchRejectsInvalidSymbol(t *testing.T) {
	p := New(logger.NewNop())

	_, err := p.Fetch(context.Background(), "bad symbol", contracts.Period3Mo)
	assert.Equal(t, contracts.KindInvalidInput, contracts.KindOf(err))
}
