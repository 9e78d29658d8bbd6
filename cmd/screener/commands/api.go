package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/calspread/screener/internal/api"
	"github.com/calspread/screener/internal/api/handlers"
	"github.com/calspread/screener/internal/scheduler"
	"github.com/calspread/screener/internal/scheduler/jobs"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the screening API server",
	Long: `Starts the REST API server backing the dashboard.

This command:
- serves the screening API over HTTP
- runs an initial scan of the default watchlist in the background
- re-scans on a cron schedule (SCAN_CRON, default every 30 minutes)

Endpoints:
  GET  /health                  - Health check
  GET  /api/data                - Combined dashboard payload
  GET  /api/stocks              - Per-symbol results (?filter=qualified)
  POST /api/refresh-scan        - Trigger a fresh scan
  GET  /api/screening-criteria  - Active criteria
  POST /api/screening-criteria  - Update criteria
  GET  /api/providers           - Provider health
  GET  /api/export/stocks       - CSV export

Example:
  go run ./cmd/screener api
  go run ./cmd/screener api --port 8089`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (overrides PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	if apiPort != "" {
		rt.cfg.Port = apiPort
	}

	handler := handlers.NewScreenerHandler(rt.engine, rt.store, rt.cfg.Scan.DefaultSymbols, rt.log)
	server := api.New(rt.cfg, rt.log, api.NewRouter(handler, rt.log))

	// Periodic re-scan
	var sched *scheduler.Scheduler
	if rt.cfg.Scan.CronSpec != "" {
		sched = scheduler.New(rt.log)
		scanJob := jobs.NewScanJob(rt.engine, rt.store, rt.cfg.Scan.DefaultSymbols, rt.cfg.Scan.CronSpec, rt.log)
		if err := sched.AddJob(scanJob); err != nil {
			return fmt.Errorf("schedule scan job: %w", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	// Warm the dashboard without blocking startup
	go func() {
		report, err := rt.engine.RunScan(context.Background(), rt.cfg.Scan.DefaultSymbols, nil)
		if err != nil {
			rt.log.WithError(err).Error("Initial scan failed")
			return
		}
		rt.store.Set(report)
	}()

	go func() {
		if err := server.Start(); err != nil {
			rt.log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("\nServer running on http://localhost:%s\n", rt.cfg.Port)
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	rt.log.Info("Server stopped")
	return nil
}
