// Package provider holds the outbound market-data adapters and the
// classification helpers they share. Each adapter lives in its own
// subpackage and maps one vendor's wire format and failure signals
// onto contracts.MarketRecord and the FetchError taxonomy.
package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/calspread/screener/internal/contracts"
)

// maxBodySize caps how much of a provider response is read into memory
const maxBodySize = 4 << 20

// ClassifyStatus maps a non-200 HTTP status onto the error taxonomy
func ClassifyStatus(providerID string, status int) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return contracts.NewFetchError(providerID, contracts.KindAuthError,
			fmt.Sprintf("request rejected with status %d", status))
	case status == http.StatusTooManyRequests:
		return contracts.NewFetchError(providerID, contracts.KindRateLimited,
			"request throttled with status 429")
	case status == http.StatusNotFound:
		return contracts.NewFetchError(providerID, contracts.KindNotFound,
			"resource not found")
	case status >= 500:
		return contracts.NewFetchError(providerID, contracts.KindUnavailable,
			fmt.Sprintf("server error status %d", status))
	default:
		return contracts.NewFetchError(providerID, contracts.KindBadResponse,
			fmt.Sprintf("unexpected status %d", status))
	}
}

// ClassifyTransport maps a transport-level failure. Timeouts and
// connection errors are Unavailable; caller cancellation passes
// through untouched so the router can distinguish it.
func ClassifyTransport(providerID string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return contracts.WrapFetchError(providerID, contracts.KindUnavailable,
		"request failed", err)
}

// ReadBody drains a response body with a size cap
func ReadBody(providerID string, resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, contracts.WrapFetchError(providerID, contracts.KindBadResponse,
			"failed to read response body", err)
	}
	return body, nil
}
