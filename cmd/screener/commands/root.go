package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "screener",
	Short: "Calendar-spread stock screener",
	Long: `Stock screening engine for the calendar-spread dashboard.

Pulls market data from rate-limited external providers with fallback,
normalizes it, and evaluates every symbol against eight quantitative
screening criteria.

Usage:
  go run ./cmd/screener [command]

Examples:
  go run ./cmd/screener api
  go run ./cmd/screener scan AAPL MSFT SPY
  go run ./cmd/screener providers`,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
