package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calspread/screener/internal/contracts"
	"github.com/calspread/screener/pkg/config"
	"github.com/calspread/screener/pkg/httputil"
	"github.com/calspread/screener/pkg/logger"
)

const chartBody = `{
	"chart": {
		"result": [{
			"meta": {"regularMarketPrice": 187.44, "dividendYield": 0.55},
			"timestamp": [1748736000, 1748822400, 1748908800],
			"indicators": {
				"quote": [{
					"open":   [186.0, 184.5, 183.0],
					"high":   [188.2, 186.9, 185.0],
					"low":    [185.1, 183.8, 182.4],
					"close":  [187.44, 186.1, 184.6],
					"volume": [52164500, 48002100, null]
				}]
			}
		}],
		"error": null
	}
}`

const notFoundBody = `{
	"chart": {
		"result": null,
		"error": {"code": "Not Found", "description": "No data found, symbol may be delisted"}
	}
}`

const profileBody = `<html><body>
	<section data-testid="company-overview">
		<dl>
			<dt>Sector:</dt><dd>Technology</dd>
			<dt>Industry:</dt><dd>Consumer Electronics</dd>
		</dl>
	</section>
</body></html>`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return New(config.YahooConfig{
		ChartBaseURL: server.URL,
		QuoteBaseURL: server.URL,
	}, httputil.New(logger.NewNop(), 5*time.Second), logger.NewNop())
}

func dispatch(chart, profile string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/v8/finance/chart/"):
			fmt.Fprint(w, chart)
		case strings.Contains(r.URL.Path, "/profile"):
			fmt.Fprint(w, profile)
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}
}

func TestFetchAssemblesRecord(t *testing.T) {
	client := newTestClient(t, dispatch(chartBody, profileBody))

	rec, err := client.Fetch(context.Background(), "AAPL", contracts.Period3Mo)
	require.NoError(t, err)

	assert.Equal(t, contracts.SourceYahoo, rec.Source)
	assert.InDelta(t, 187.44, rec.CurrentPrice, 1e-9)
	assert.Len(t, rec.Bars, 3)
	assert.Equal(t, int64(0), rec.Bars[2].Volume, "null volume becomes zero")
	assert.Equal(t, "Technology", rec.Sector)
	assert.Equal(t, "Consumer Electronics", rec.Industry)
	assert.InDelta(t, 0.55, rec.DividendYield, 1e-9)
	assert.False(t, rec.HasIV)
}

func TestFetchSurvivesProfileFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/v8/finance/chart/") {
			fmt.Fprint(w, chartBody)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	rec, err := client.Fetch(context.Background(), "AAPL", contracts.Period3Mo)
	require.NoError(t, err, "fundamentals are best effort")
	assert.Empty(t, rec.Sector)
}

func TestFetchUnknownSymbolIsNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, notFoundBody)
	})

	_, err := client.Fetch(context.Background(), "ZZZZZ", contracts.Period3Mo)
	assert.Equal(t, contracts.KindNotFound, contracts.KindOf(err))
}

func TestFetchNullPaddedBarsAreSkipped(t *testing.T) {
	padded := strings.Replace(chartBody, `"open":   [186.0, 184.5, 183.0]`,
		`"open":   [186.0, null, 183.0]`, 1)
	client := newTestClient(t, dispatch(padded, profileBody))

	rec, err := client.Fetch(context.Background(), "AAPL", contracts.Period3Mo)
	require.NoError(t, err)
	assert.Len(t, rec.Bars, 2, "a half-null session is dropped, not zero-filled")
}

func TestFetchRaggedQuoteArraysAreBadResponse(t *testing.T) {
	ragged := strings.Replace(chartBody, `"high":   [188.2, 186.9, 185.0]`,
		`"high":   [188.2]`, 1)
	client := newTestClient(t, dispatch(ragged, profileBody))

	_, err := client.Fetch(context.Background(), "AAPL", contracts.Period3Mo)
	require.Error(t, err, "truncated OHLC arrays must not panic")
	assert.Equal(t, contracts.KindBadResponse, contracts.KindOf(err))
}

func TestFetchServerErrorIsUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Fetch(context.Background(), "AAPL", contracts.Period3Mo)
	assert.Equal(t, contracts.KindUnavailable, contracts.KindOf(err))
}

func TestFetchMalformedChartIsBadResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>rate limited, but as html</html>`)
	})

	_, err := client.Fetch(context.Background(), "AAPL", contracts.Period3Mo)
	assert.Equal(t, contracts.KindBadResponse, contracts.KindOf(err))
}

func TestScrapeProfileParsesOverviewBlock(t *testing.T) {
	client := newTestClient(t, dispatch(chartBody, profileBody))

	sector, industry, err := client.scrapeProfile(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "Technology", sector)
	assert.Equal(t, "Consumer Electronics", industry)
}

func TestScrapeProfileEmptyPageIsBadResponse(t *testing.T) {
	client := newTestClient(t, dispatch(chartBody, `<html><body><p>consent wall</p></body></html>`))

	_, _, err := client.scrapeProfile(context.Background(), "AAPL")
	assert.Equal(t, contracts.KindBadResponse, contracts.KindOf(err))
}
