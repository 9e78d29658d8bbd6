package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"github.com/calspread/screener/internal/contracts"
)

// csvHeader is the stable column order for stock exports, mirroring
// the JSON field layout of ScreeningResult.
var csvHeader = []string{
	"symbol",
	"current_price",
	"atr_percentage",
	"implied_volatility",
	"iv_percentile",
	"open_interest",
	"price_stability_30d",
	"criteria_met_count",
	"qualified",
	"score",
	"data_source",
}

// ExportStocksCSV streams the last report as CSV
// GET /api/export/stocks
func (h *ScreenerHandler) ExportStocksCSV(w http.ResponseWriter, r *http.Request) {
	report := h.store.Get()
	if report == nil {
		respondError(w, http.StatusServiceUnavailable, "No scan has completed yet")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="stocks.csv"`)

	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		h.logger.WithError(err).Error("CSV export failed")
		return
	}

	for _, res := range report.Results {
		if err := writer.Write(csvRow(res)); err != nil {
			h.logger.WithError(err).Error("CSV export failed")
			return
		}
	}
	writer.Flush()
}

func csvRow(res contracts.ScreeningResult) []string {
	openInterest := ""
	if res.OpenInterest != nil {
		openInterest = strconv.FormatInt(*res.OpenInterest, 10)
	}
	return []string{
		res.Symbol,
		fmt.Sprintf("%.2f", res.CurrentPrice),
		fmt.Sprintf("%.4f", res.ATRPercentage),
		fmt.Sprintf("%.1f", res.ImpliedVolatility),
		fmt.Sprintf("%.1f", res.IVPercentile),
		openInterest,
		fmt.Sprintf("%.4f", res.PriceStability30d),
		strconv.Itoa(res.CriteriaMetCount),
		strconv.FormatBool(res.Qualified),
		fmt.Sprintf("%.1f", res.Score),
		res.Source,
	}
}
