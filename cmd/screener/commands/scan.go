package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/calspread/screener/internal/contracts"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan [symbols...]",
	Short: "Run a one-shot screening scan",
	Long: `Fetches market data for the given symbols, evaluates the active
screening criteria and prints the results. Without arguments the
default watchlist (SCAN_DEFAULT_SYMBOLS) is scanned.

Example:
  go run ./cmd/screener scan
  go run ./cmd/screener scan XLF SPY QQQ
  go run ./cmd/screener scan --period 6mo --json AAPL`,
	RunE: runScan,
}

var (
	scanPeriod string
	scanJSON   bool
)

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVar(&scanPeriod, "period", "", "History period: 1mo, 3mo, 6mo, 1y (default SCAN_DEFAULT_PERIOD)")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "Print the full report as JSON")
}

func runScan(cmd *cobra.Command, args []string) error {
	if scanPeriod != "" {
		if _, err := contracts.ParsePeriod(scanPeriod); err != nil {
			return err
		}
		os.Setenv("SCAN_DEFAULT_PERIOD", scanPeriod)
	}

	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	symbols := args
	if len(symbols) == 0 {
		symbols = rt.cfg.Scan.DefaultSymbols
	}

	report, err := rt.engine.RunScan(context.Background(), symbols, nil)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if scanJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	printReport(report)
	return nil
}

func printReport(report *contracts.ScreeningReport) {
	fmt.Println()
	fmt.Println("=== Screening Results ===")
	fmt.Println()
	fmt.Printf("%-8s %10s %7s %7s %8s %9s %6s %7s  %s\n",
		"SYMBOL", "PRICE", "ATR%", "IV", "IV%ILE", "OI", "MET", "SCORE", "SOURCE")
	fmt.Println(strings.Repeat("-", 78))

	for _, r := range report.Results {
		oi := "-"
		if r.OpenInterest != nil {
			oi = fmt.Sprintf("%d", *r.OpenInterest)
		}
		mark := " "
		if r.Qualified {
			mark = "*"
		}
		fmt.Printf("%-8s %10.2f %7.3f %7.1f %8.1f %9s %5d%s %7.1f  %s\n",
			r.Symbol, r.CurrentPrice, r.ATRPercentage, r.ImpliedVolatility,
			r.IVPercentile, oi, r.CriteriaMetCount, mark, r.Score, r.Source)
	}

	fmt.Println()
	fmt.Printf("Analyzed: %d | Qualified: %d | Avg criteria met: %.1f\n",
		report.Stats.TotalAnalyzed, report.Stats.QualifiedStocks,
		report.Stats.AverageCriteriaMet)

	if len(report.Degraded) > 0 {
		fmt.Println()
		fmt.Println("Degraded to sample data:")
		for sym, reason := range report.Degraded {
			fmt.Printf("  %-8s %s\n", sym, reason)
		}
	}
	fmt.Println()
}
