package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "sports-arb",
	Short: "Sports betting arbitrage monitor",
	Long: `Sports betting arbitrage monitor that reconciles odds from a sharp
bookmaker, a betting exchange and a soft-book aggregator into one view
per market outcome, then derives arbitrage opportunities and steam
(sharp price move) signals from it.

Each feed category polls on its own schedule within the provider's rate
limits; a stalled or degraded feed never delays the others.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
