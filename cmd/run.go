package cmd

import (
	"fmt"

	"github.com/dmccall/sports-arb/internal/app"
	"github.com/dmccall/sports-arb/pkg/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the arbitrage monitor",
	Long: `Starts the arbitrage monitor, which will:
1. Poll the sharp feed (early / today / live windows), the exchange and
   the soft-book aggregator, each on its own schedule
2. Reconcile every outcome into a single record
3. Open, track and close arbitrage opportunities
4. Emit steam signals on sharp implied-probability moves`,
	RunE: runMonitor,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	// Best effort: a missing .env just means real env vars.
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	application, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	err = application.Run()
	if err != nil {
		return fmt.Errorf("run app: %w", err)
	}

	return nil
}
