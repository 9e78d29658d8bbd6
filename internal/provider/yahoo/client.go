// Package yahoo implements the keyless fallback adapter on top of the
// Yahoo Finance chart API, with company fundamentals scraped from the
// public quote pages.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/calspread/screener/internal/contracts"
	"github.com/calspread/screener/internal/provider"
	"github.com/calspread/screener/pkg/config"
	"github.com/calspread/screener/pkg/httputil"
	"github.com/calspread/screener/pkg/logger"
)

const (
	defaultChartBaseURL = "https://query1.finance.yahoo.com"
	defaultQuoteBaseURL = "https://finance.yahoo.com"

	// The chart endpoint serves curl but the HTML pages gate on a
	// browser-looking User-Agent.
	browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
)

// Client handles communication with Yahoo Finance
// ⭐ SSOT: all Yahoo Finance calls go through this client.
type Client struct {
	httpClient   *httputil.Client
	logger       *logger.Logger
	chartBaseURL string
	quoteBaseURL string
}

// New creates a new Yahoo Finance client. No credential is needed.
func New(cfg config.YahooConfig, httpClient *httputil.Client, log *logger.Logger) *Client {
	chartBaseURL := cfg.ChartBaseURL
	if chartBaseURL == "" {
		chartBaseURL = defaultChartBaseURL
	}
	quoteBaseURL := cfg.QuoteBaseURL
	if quoteBaseURL == "" {
		quoteBaseURL = defaultQuoteBaseURL
	}
	return &Client{
		httpClient:   httpClient,
		logger:       log,
		chartBaseURL: chartBaseURL,
		quoteBaseURL: quoteBaseURL,
	}
}

// ID returns the provider identifier
func (c *Client) ID() string { return contracts.SourceYahoo }

// Fetch assembles a MarketRecord from the v8 chart endpoint. Sector
// and industry come from a best-effort profile page scrape.
func (c *Client) Fetch(ctx context.Context, symbol string, period contracts.Period) (*contracts.MarketRecord, error) {
	if err := contracts.ValidateSymbol(symbol); err != nil {
		return nil, err
	}

	price, bars, dividendYield, err := c.fetchChart(ctx, symbol, period)
	if err != nil {
		return nil, err
	}

	rec, err := contracts.NewMarketRecord(c.ID(), symbol, period, price, bars)
	if err != nil {
		return nil, err
	}
	rec.DividendYield = dividendYield

	if sector, industry, err := c.scrapeProfile(ctx, symbol); err != nil {
		c.logger.WithFields(map[string]interface{}{
			"symbol": symbol,
			"error":  err.Error(),
		}).Warn("Profile scrape failed, continuing without fundamentals")
	} else {
		rec.Sector = sector
		rec.Industry = industry
	}

	return rec, nil
}

// chartResponse mirrors the slice of the v8 chart payload we consume
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				DividendYield      float64 `json:"dividendYield"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (c *Client) fetchChart(ctx context.Context, symbol string, period contracts.Period) (float64, []contracts.Bar, float64, error) {
	url := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=1d",
		c.chartBaseURL, symbol, period)

	resp, err := c.httpClient.GetWithHeaders(ctx, url, map[string]string{
		"User-Agent": browserUserAgent,
	})
	if err != nil {
		return 0, nil, 0, provider.ClassifyTransport(c.ID(), err)
	}
	// Yahoo reports unknown symbols as 404 with a JSON error body
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		resp.Body.Close()
		return 0, nil, 0, provider.ClassifyStatus(c.ID(), resp.StatusCode)
	}

	body, err := provider.ReadBody(c.ID(), resp)
	if err != nil {
		return 0, nil, 0, err
	}

	var payload chartResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, nil, 0, contracts.WrapFetchError(c.ID(), contracts.KindBadResponse,
			fmt.Sprintf("%s: malformed chart payload", symbol), err)
	}
	if payload.Chart.Error != nil {
		return 0, nil, 0, contracts.NewFetchError(c.ID(), contracts.KindNotFound,
			fmt.Sprintf("%s: %s", symbol, payload.Chart.Error.Description))
	}
	if len(payload.Chart.Result) == 0 || len(payload.Chart.Result[0].Indicators.Quote) == 0 {
		return 0, nil, 0, contracts.NewFetchError(c.ID(), contracts.KindBadResponse,
			fmt.Sprintf("%s: empty chart result", symbol))
	}

	result := payload.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	// The OHLC arrays must line up with each other; ragged arrays mean
	// a truncated or corrupted payload, not null padding.
	if len(quote.High) != len(quote.Open) || len(quote.Low) != len(quote.Open) ||
		len(quote.Close) != len(quote.Open) {
		return 0, nil, 0, contracts.NewFetchError(c.ID(), contracts.KindBadResponse,
			fmt.Sprintf("%s: ragged chart quote arrays (open=%d high=%d low=%d close=%d)",
				symbol, len(quote.Open), len(quote.High), len(quote.Low), len(quote.Close)))
	}

	bars := make([]contracts.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		// Yahoo pads holidays and the live session with nulls
		if i >= len(quote.Open) || quote.Open[i] == nil || quote.High[i] == nil ||
			quote.Low[i] == nil || quote.Close[i] == nil {
			continue
		}
		var volume int64
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			volume = *quote.Volume[i]
		}
		bars = append(bars, contracts.Bar{
			Date:   time.Unix(ts, 0).UTC(),
			Open:   *quote.Open[i],
			High:   *quote.High[i],
			Low:    *quote.Low[i],
			Close:  *quote.Close[i],
			Volume: volume,
		})
	}

	return result.Meta.RegularMarketPrice, bars, result.Meta.DividendYield, nil
}
