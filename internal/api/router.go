package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/calspread/screener/internal/api/handlers"
	"github.com/calspread/screener/pkg/logger"
)

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: all route wiring happens in this function.
func NewRouter(screenerHandler *handlers.ScreenerHandler, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Screening data
	api.HandleFunc("/data", screenerHandler.GetData).Methods("GET")
	api.HandleFunc("/stocks", screenerHandler.GetStocks).Methods("GET")
	api.HandleFunc("/refresh-scan", screenerHandler.RefreshScan).Methods("POST")

	// Criteria management
	api.HandleFunc("/screening-criteria", screenerHandler.GetCriteria).Methods("GET")
	api.HandleFunc("/screening-criteria", screenerHandler.UpdateCriteria).Methods("POST")

	// Diagnostics and export
	api.HandleFunc("/providers", screenerHandler.GetProviders).Methods("GET")
	api.HandleFunc("/export/stocks", screenerHandler.ExportStocksCSV).Methods("GET")

	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "screener-api",
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
