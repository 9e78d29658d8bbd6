// Package eodhd implements a market-data adapter on top of the EOD
// Historical Data REST API.
package eodhd

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

const defaultBaseURL = "https://eodhd.com/api"

// Client handles communication with EOD Historical Data
// ⭐ SSOT: all EODHD calls go through this client.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	apiToken   string
	baseURL    string
}

// New creates a new EODHD client
func New(cfg config.EODHDConfig, httpClient *httputil.Client, log *logger.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     log,
		apiToken:   cfg.APIToken,
		baseURL:    baseURL,
	}
}

// ID returns the provider identifier
func (c *Client) ID() string { return contracts.SourceEODHD }

// Fetch assembles a MarketRecord from the end-of-day series and the
// real-time quote. A failed quote falls back to the latest close.
func (c *Client) Fetch(ctx context.Context, symbol string, period contracts.Period) (*contracts.MarketRecord, error) {
	if err := contracts.ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	if c.apiToken == "" {
		return nil, contracts.NewFetchError(c.ID(), contracts.KindAuthError,
			"EODHD_API_TOKEN is not configured")
	}

	bars, err := c.fetchEOD(ctx, symbol, period)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, contracts.NewFetchError(c.ID(), contracts.KindNotFound,
			fmt.Sprintf("%s: no end-of-day data", symbol))
	}

	price, err := c.fetchRealTime(ctx, symbol)
	if err != nil {
		c.logger.WithFields(map[string]interface{}{
			"symbol": symbol,
			"error":  err.Error(),
		}).Warn("Real-time quote failed, using latest close")
		price = bars[len(bars)-1].Close
	}

	return contracts.NewMarketRecord(c.ID(), symbol, period, price, bars)
}

// eodBar mirrors one row of the /eod response
type eodBar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

func (c *Client) fetchEOD(ctx context.Context, symbol string, period contracts.Period) ([]contracts.Bar, error) {
	from := time.Now().UTC().AddDate(0, 0, -period.Days()).Format("2006-01-02")
	url := fmt.Sprintf("%s/eod/%s.US?api_token=%s&fmt=json&period=d&from=%s",
		c.baseURL, symbol, c.apiToken, from)

	body, err := c.getJSON(ctx, url)
	if err != nil {
		return nil, err
	}

	var rows []eodBar
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, contracts.WrapFetchError(c.ID(), contracts.KindBadResponse,
			fmt.Sprintf("%s: malformed end-of-day payload", symbol), err)
	}

	bars := make([]contracts.Bar, 0, len(rows))
	for _, row := range rows {
		date, err := time.Parse("2006-01-02", row.Date)
		if err != nil {
			continue
		}
		bars = append(bars, contracts.Bar{
			Date: date, Open: row.Open, High: row.High, Low: row.Low,
			Close: row.Close, Volume: row.Volume,
		})
	}
	return bars, nil
}

func (c *Client) fetchRealTime(ctx context.Context, symbol string) (float64, error) {
	url := fmt.Sprintf("%s/real-time/%s.US?api_token=%s&fmt=json",
		c.baseURL, symbol, c.apiToken)

	body, err := c.getJSON(ctx, url)
	if err != nil {
		return 0, err
	}

	var quote struct {
		Close float64 `json:"close"`
	}
	if err := json.Unmarshal(body, &quote); err != nil {
		return 0, contracts.WrapFetchError(c.ID(), contracts.KindBadResponse,
			fmt.Sprintf("%s: malformed real-time payload", symbol), err)
	}
	if quote.Close <= 0 {
		return 0, contracts.NewFetchError(c.ID(), contracts.KindBadResponse,
			fmt.Sprintf("%s: non-positive real-time price", symbol))
	}
	return quote.Close, nil
}

func (c *Client) getJSON(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.httpClient.Get(ctx, url)
	if err != nil {
		return nil, provider.ClassifyTransport(c.ID(), err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, provider.ClassifyStatus(c.ID(), resp.StatusCode)
	}
	return provider.ReadBody(c.ID(), resp)
}
