// Package alphavantage implements the primary market-data adapter on
// top of the Alpha Vantage REST API.
package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/calspread/screener/internal/contracts"
	"github.com/calspread/screener/internal/provider"
	"github.com/calspread/screener/pkg/config"
	"github.com/calspread/screener/pkg/httputil"
	"github.com/calspread/screener/pkg/logger"
)

const defaultBaseURL = "https://www.alphavantage.co/query"

// Client handles communication with Alpha Vantage
// ⭐ SSOT: all Alpha Vantage calls go through this client.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	apiKey     string
	baseURL    string
}

// New creates a new Alpha Vantage client
func New(cfg config.AlphaVantageConfig, httpClient *httputil.Client, log *logger.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     log,
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
	}
}

// ID returns the provider identifier
func (c *Client) ID() string { return contracts.SourceAlphaVantage }

// Fetch assembles a MarketRecord from the quote, daily-series and
// company-overview endpoints. Overview failures are tolerated; quote
// and series failures are not.
func (c *Client) Fetch(ctx context.Context, symbol string, period contracts.Period) (*contracts.MarketRecord, error) {
	if err := contracts.ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	if c.apiKey == "" {
		return nil, contracts.NewFetchError(c.ID(), contracts.KindAuthError,
			"ALPHA_VANTAGE_API_KEY is not configured")
	}

	price, err := c.fetchQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	bars, err := c.fetchDailySeries(ctx, symbol, period)
	if err != nil {
		return nil, err
	}

	rec, err := contracts.NewMarketRecord(c.ID(), symbol, period, price, bars)
	if err != nil {
		return nil, err
	}

	// Fundamentals are best-effort: a symbol without an overview (ETFs,
	// indices) still yields a usable record.
	if overview, err := c.fetchOverview(ctx, symbol); err != nil {
		c.logger.WithFields(map[string]interface{}{
			"symbol": symbol,
			"error":  err.Error(),
		}).Warn("Company overview unavailable, continuing without fundamentals")
	} else {
		overview.apply(rec, time.Now().UTC())
	}

	return rec, nil
}

// fetchQuote returns the current price from GLOBAL_QUOTE
func (c *Client) fetchQuote(ctx context.Context, symbol string) (float64, error) {
	body, err := c.getJSON(ctx, "GLOBAL_QUOTE", symbol, nil)
	if err != nil {
		return 0, err
	}

	var payload struct {
		Quote map[string]string `json:"Global Quote"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, contracts.WrapFetchError(c.ID(), contracts.KindBadResponse,
			fmt.Sprintf("%s: malformed quote payload", symbol), err)
	}
	if len(payload.Quote) == 0 {
		return 0, contracts.NewFetchError(c.ID(), contracts.KindNotFound,
			fmt.Sprintf("%s: empty quote", symbol))
	}

	price, err := strconv.ParseFloat(payload.Quote["05. price"], 64)
	if err != nil || price <= 0 {
		return 0, contracts.NewFetchError(c.ID(), contracts.KindBadResponse,
			fmt.Sprintf("%s: unparseable quote price %q", symbol, payload.Quote["05. price"]))
	}
	return price, nil
}

// fetchDailySeries returns trailing OHLCV bars from TIME_SERIES_DAILY,
// trimmed to the requested period.
func (c *Client) fetchDailySeries(ctx context.Context, symbol string, period contracts.Period) ([]contracts.Bar, error) {
	params := url.Values{}
	// compact covers 100 sessions; longer windows need the full dump
	if period.Days() > 100 {
		params.Set("outputsize", "full")
	} else {
		params.Set("outputsize", "compact")
	}

	body, err := c.getJSON(ctx, "TIME_SERIES_DAILY", symbol, params)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Series map[string]struct {
			Open   string `json:"1. open"`
			High   string `json:"2. high"`
			Low    string `json:"3. low"`
			Close  string `json:"4. close"`
			Volume string `json:"5. volume"`
		} `json:"Time Series (Daily)"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, contracts.WrapFetchError(c.ID(), contracts.KindBadResponse,
			fmt.Sprintf("%s: malformed daily series", symbol), err)
	}
	if len(payload.Series) == 0 {
		return nil, contracts.NewFetchError(c.ID(), contracts.KindBadResponse,
			fmt.Sprintf("%s: empty daily series", symbol))
	}

	bars := make([]contracts.Bar, 0, len(payload.Series))
	for dateStr, row := range payload.Series {
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}
		open, err1 := strconv.ParseFloat(row.Open, 64)
		high, err2 := strconv.ParseFloat(row.High, 64)
		low, err3 := strconv.ParseFloat(row.Low, 64)
		closePx, err4 := strconv.ParseFloat(row.Close, 64)
		volume, err5 := strconv.ParseInt(row.Volume, 10, 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
			continue
		}
		bars = append(bars, contracts.Bar{
			Date: date, Open: open, High: high, Low: low, Close: closePx, Volume: volume,
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	if limit := period.Days(); len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}
	return bars, nil
}

// overview holds the company fundamentals from OVERVIEW
type overview struct {
	MarketCap     string `json:"MarketCapitalization"`
	Sector        string `json:"Sector"`
	Industry      string `json:"Industry"`
	DividendYield string `json:"DividendYield"`
	FiscalYearEnd string `json:"FiscalYearEnd"`
}

func (o *overview) apply(rec *contracts.MarketRecord, now time.Time) {
	if mcap, err := strconv.ParseInt(o.MarketCap, 10, 64); err == nil && mcap > 0 {
		rec.MarketCap = mcap
		rec.OpenInterest = estimateOpenInterest(mcap)
	}
	if o.Sector != "" && o.Sector != "None" {
		rec.Sector = o.Sector
	}
	if o.Industry != "" && o.Industry != "None" {
		rec.Industry = o.Industry
	}
	if yield, err := strconv.ParseFloat(o.DividendYield, 64); err == nil && yield > 0 {
		rec.DividendYield = yield
	}
	rec.NextEarnings = nextEarningsFromFiscal(o.FiscalYearEnd, now)
}

func (c *Client) fetchOverview(ctx context.Context, symbol string) (*overview, error) {
	body, err := c.getJSON(ctx, "OVERVIEW", symbol, nil)
	if err != nil {
		return nil, err
	}

	var o overview
	if err := json.Unmarshal(body, &o); err != nil {
		return nil, contracts.WrapFetchError(c.ID(), contracts.KindBadResponse,
			fmt.Sprintf("%s: malformed overview", symbol), err)
	}
	if o.Sector == "" && o.MarketCap == "" {
		return nil, contracts.NewFetchError(c.ID(), contracts.KindNotFound,
			fmt.Sprintf("%s: no overview data", symbol))
	}
	return &o, nil
}

// getJSON issues one API call and screens the vendor's in-band error
// signals before handing the body to the caller.
func (c *Client) getJSON(ctx context.Context, function, symbol string, extra url.Values) ([]byte, error) {
	params := url.Values{}
	params.Set("function", function)
	params.Set("symbol", symbol)
	params.Set("apikey", c.apiKey)
	for k, vs := range extra {
		for _, v := range vs {
			params.Add(k, v)
		}
	}

	resp, err := c.httpClient.Get(ctx, fmt.Sprintf("%s?%s", c.baseURL, params.Encode()))
	if err != nil {
		return nil, provider.ClassifyTransport(c.ID(), err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, provider.ClassifyStatus(c.ID(), resp.StatusCode)
	}

	body, err := provider.ReadBody(c.ID(), resp)
	if err != nil {
		return nil, err
	}
	if err := c.checkAPISignals(symbol, body); err != nil {
		return nil, err
	}
	return body, nil
}

// checkAPISignals detects Alpha Vantage's in-band failure envelopes:
// throttling arrives as "Note"/"Information", unknown symbols and bad
// keys as "Error Message", all with HTTP 200.
func (c *Client) checkAPISignals(symbol string, body []byte) error {
	var signals struct {
		Note        string `json:"Note"`
		Information string `json:"Information"`
		ErrorMsg    string `json:"Error Message"`
	}
	if err := json.Unmarshal(body, &signals); err != nil {
		return nil // not an envelope, let the caller parse it
	}

	if signals.Note != "" || signals.Information != "" {
		return contracts.NewFetchError(c.ID(), contracts.KindRateLimited,
			fmt.Sprintf("%s: API call frequency exceeded", symbol))
	}
	if signals.ErrorMsg != "" {
		if strings.Contains(strings.ToLower(signals.ErrorMsg), "apikey") {
			return contracts.NewFetchError(c.ID(), contracts.KindAuthError,
				fmt.Sprintf("%s: %s", symbol, signals.ErrorMsg))
		}
		return contracts.NewFetchError(c.ID(), contracts.KindNotFound,
			fmt.Sprintf("%s: %s", symbol, signals.ErrorMsg))
	}
	return nil
}

// estimateOpenInterest derives an option open-interest estimate from
// market cap. The free tier has no options data; larger companies
// carry deeper option chains.
func estimateOpenInterest(marketCap int64) *int64 {
	var oi int64
	switch {
	case marketCap > 100_000_000_000:
		oi = 30_000
	case marketCap > 10_000_000_000:
		oi = 15_000
	case marketCap > 1_000_000_000:
		oi = 8_000
	default:
		oi = 4_000
	}
	return &oi
}

// nextEarningsFromFiscal predicts the next earnings date from the
// fiscal year end month: reports land in that month and each third
// month after, around mid-month.
func nextEarningsFromFiscal(fiscalYearEnd string, now time.Time) *time.Time {
	fiscal, err := time.Parse("January", fiscalYearEnd)
	if err != nil {
		return nil
	}

	var best *time.Time
	month := int(fiscal.Month())
	for i := 0; i < 4; i++ {
		candidate := time.Date(now.Year(), time.Month(month), 15, 0, 0, 0, 0, time.UTC)
		if candidate.Before(now) {
			candidate = candidate.AddDate(1, 0, 0)
		}
		if best == nil || candidate.Before(*best) {
			best = &candidate
		}
		month = (month+3-1)%12 + 1
	}
	return best
}
