package contracts

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCriteriaIsValid(t *testing.T) {
	cs := DefaultCriteria()
	require.NoError(t, cs.Validate())

	assert.Equal(t, 0.05, cs.ATRThreshold)
	assert.Equal(t, Range{Min: 20, Max: 40}, cs.IVRange)
	assert.Equal(t, Range{Min: 50, Max: 150}, cs.PriceRange)
	assert.Equal(t, int64(1000), cs.OpenInterestMin)
	assert.Equal(t, 7, cs.ExcludeEarningsWindowDays)
}

func TestCriteriaValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CriteriaSet)
	}{
		{"zero atr threshold", func(c *CriteriaSet) { c.ATRThreshold = 0 }},
		{"inverted iv range", func(c *CriteriaSet) { c.IVRange = Range{Min: 40, Max: 20} }},
		{"inverted price range", func(c *CriteriaSet) { c.PriceRange = Range{Min: 150, Max: 50} }},
		{"percentile above 100", func(c *CriteriaSet) { c.IVPercentileMax = 120 }},
		{"negative open interest", func(c *CriteriaSet) { c.OpenInterestMin = -1 }},
		{"zero stability", func(c *CriteriaSet) { c.PriceStability30dMax = 0 }},
		{"negative earnings window", func(c *CriteriaSet) { c.ExcludeEarningsWindowDays = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := DefaultCriteria()
			tt.mutate(&cs)

			err := cs.Validate()
			require.Error(t, err)
			assert.Equal(t, KindInvalidInput, KindOf(err))
		})
	}
}

func TestFetchErrorRetryable(t *testing.T) {
	retryable := map[ErrorKind]bool{
		KindInvalidInput: false,
		KindAuthError:    false,
		KindRateLimited:  false,
		KindUnavailable:  true,
		KindBadResponse:  true,
		KindNotFound:     false,
	}

	for kind, want := range retryable {
		err := NewFetchError("yahoo", kind, "test")
		assert.Equal(t, want, err.Retryable(), "kind %s", kind)
	}
}

func TestKindOfUnwrapsNestedErrors(t *testing.T) {
	inner := NewFetchError("eodhd", KindNotFound, "unknown symbol")
	wrapped := errors.Join(errors.New("outer"), inner)

	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, KindNotFound))

	// Unclassified errors default to transient
	assert.Equal(t, KindUnavailable, KindOf(errors.New("plain")))
}

func TestCriteriaOutcomesCount(t *testing.T) {
	o := CriteriaOutcomes{
		ATRStable:    true,
		PriceRange:   true,
		OpenInterest: true,
		NoEarnings:   true,
	}
	assert.Equal(t, 4, o.Count())
	assert.Len(t, o.Flags(), len(CriterionNames))

	assert.Equal(t, 0, CriteriaOutcomes{}.Count())
	assert.Equal(t, 8, CriteriaOutcomes{true, true, true, true, true, true, true, true}.Count())
}
