package cmd

import (
	"fmt"
	"time"

	"github.com/dmccall/sports-arb/internal/arb"
	"github.com/dmccall/sports-arb/internal/reconcile"
	"github.com/dmccall/sports-arb/pkg/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan a snapshot file for arbitrage opportunities",
	Long: `Runs one arbitrage pass over a reconciled snapshot file and prints
the qualifying opportunities, without starting any feed loop.

Useful for inspecting what the monitor would open right now, or for
replaying a snapshot taken earlier.`,
	RunE: runScan,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringP("snapshot", "f", "", "Snapshot file to scan (default: SNAPSHOT_PATH)")
	scanCmd.Flags().Bool("ignore-age", false, "Include records regardless of staleness")
}

func runScan(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	path, _ := cmd.Flags().GetString("snapshot")
	if path == "" {
		path = cfg.SnapshotPath
	}
	ignoreAge, _ := cmd.Flags().GetBool("ignore-age")

	records, err := reconcile.LoadSnapshotRecords(path)
	if err != nil {
		return fmt.Errorf("load snapshot %s: %w", path, err)
	}
	if len(records) == 0 {
		fmt.Printf("No records in %s\n", path)
		return nil
	}

	scanCfg := arb.Config{
		Commission:   cfg.ArbCommission,
		MinMargin:    cfg.ArbMinMargin,
		MaxMargin:    cfg.ArbMaxMargin,
		MinVolume:    cfg.ArbMinVolume,
		MinSanePrice: cfg.ArbMinSanePrice,
		MaxRecordAge: cfg.ArbMaxRecordAge,
		Symmetric:    cfg.ArbSymmetric,
	}
	if ignoreAge {
		// Snapshot replays are stale by definition.
		scanCfg.MaxRecordAge = 100 * 365 * 24 * time.Hour
	}

	opportunities := arb.FindOpportunities(records, scanCfg, time.Now())

	fmt.Printf("Scanned %d records from %s\n\n", len(records), path)
	if len(opportunities) == 0 {
		fmt.Println("No opportunities at the configured floors.")
		return nil
	}

	for _, opp := range opportunities {
		fmt.Printf("%-28s %-40s %6.2f%%  back %.2f / lay %.2f  vol %.0f  [%s]\n",
			opp.RecordKey.League,
			opp.RecordKey.Event+" / "+opp.RecordKey.Outcome,
			opp.Margin*100,
			opp.BackPrice,
			opp.LayPrice,
			opp.Volume,
			opp.Direction)
	}
	fmt.Printf("\n%d opportunities\n", len(opportunities))

	return nil
}
