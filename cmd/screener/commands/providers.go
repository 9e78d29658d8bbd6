package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/calspread/screener/internal/contracts"
)

const probeSymbol = "SPY"

// providersCmd represents the providers command
var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Probe configured data providers",
	Long: `Fetches a test symbol through each configured provider directly,
bypassing the fallback chain, and prints the outcome. Useful for
verifying API keys and connectivity before starting the server.

Example:
  go run ./cmd/screener providers
  go run ./cmd/screener providers --symbol AAPL`,
	RunE: runProviders,
}

var probeOverride string

func init() {
	rootCmd.AddCommand(providersCmd)

	providersCmd.Flags().StringVar(&probeOverride, "symbol", probeSymbol, "Symbol used for the probe")
}

func runProviders(cmd *cobra.Command, args []string) error {
	symbol := strings.ToUpper(strings.TrimSpace(probeOverride))
	if err := contracts.ValidateSymbol(symbol); err != nil {
		return err
	}

	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	if len(rt.chain) == 0 {
		fmt.Println("No providers configured; only sample data is available.")
		fmt.Println("Set ALPHA_VANTAGE_API_KEY or EODHD_API_TOKEN, or enable yahoo in SOURCE_CHAIN.")
		return nil
	}

	fmt.Println()
	fmt.Printf("=== Provider Probe (%s) ===\n", symbol)
	fmt.Println()

	for _, provider := range rt.chain {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		start := time.Now()
		rec, err := provider.Fetch(ctx, symbol, contracts.Period3Mo)
		cancel()
		elapsed := time.Since(start).Round(time.Millisecond)

		if err != nil {
			fmt.Printf("  %-14s FAIL  %-14s %v\n",
				provider.ID(), contracts.KindOf(err), err)
			continue
		}
		fmt.Printf("  %-14s OK    price=%.2f bars=%d iv_known=%v (%s)\n",
			provider.ID(), rec.CurrentPrice, len(rec.Bars), rec.HasIV, elapsed)
	}

	fmt.Println()
	fmt.Println("=== Router Health ===")
	fmt.Println()
	for _, st := range rt.router.Health() {
		state := "healthy"
		if !st.Healthy {
			state = "degraded"
		}
		fmt.Printf("  %-14s %-8s failures=%d requests_today=%d",
			st.Provider, state, st.ConsecutiveFailures, st.RequestsToday)
		if st.LastErrorKind != "" {
			fmt.Printf(" last_error=%s", st.LastErrorKind)
		}
		fmt.Println()
	}
	fmt.Println()
	return nil
}
