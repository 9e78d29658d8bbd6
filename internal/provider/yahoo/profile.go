package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/calspread/screener/internal/contracts"
	"github.com/calspread/screener/internal/provider"
)

// scrapeProfile pulls sector and industry off the public profile page.
// The markup shifts from time to time, so the selectors are loose:
// the company-overview block labels each value with a plain dt/span.
func (c *Client) scrapeProfile(ctx context.Context, symbol string) (sector, industry string, err error) {
	url := fmt.Sprintf("%s/quote/%s/profile", c.quoteBaseURL, symbol)

	resp, err := c.httpClient.GetWithHeaders(ctx, url, map[string]string{
		"User-Agent": browserUserAgent,
	})
	if err != nil {
		return "", "", provider.ClassifyTransport(c.ID(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", provider.ClassifyStatus(c.ID(), resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", "", contracts.WrapFetchError(c.ID(), contracts.KindBadResponse,
			fmt.Sprintf("%s: unparseable profile page", symbol), err)
	}

	doc.Find("dt, span, strong").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		label := strings.TrimSpace(s.Text())
		switch label {
		case "Sector:", "Sector":
			if v := nextValue(s); v != "" && sector == "" {
				sector = v
			}
		case "Industry:", "Industry":
			if v := nextValue(s); v != "" && industry == "" {
				industry = v
			}
		}
		return sector == "" || industry == ""
	})

	if sector == "" && industry == "" {
		return "", "", contracts.NewFetchError(c.ID(), contracts.KindBadResponse,
			fmt.Sprintf("%s: profile page carried no sector/industry", symbol))
	}
	return sector, industry, nil
}

// nextValue returns the text of the sibling element holding the value
// for a label node
func nextValue(s *goquery.Selection) string {
	return strings.TrimSpace(s.Next().Text())
}
