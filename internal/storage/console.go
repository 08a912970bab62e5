package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/dmccall/sports-arb/internal/arb"
	"github.com/dmccall/sports-arb/internal/steam"
	"github.com/dmccall/sports-arb/pkg/types"
	"go.uber.org/zap"
)

// ConsoleStorage implements Storage by pretty-printing signals to the
// console. Record upserts are too chatty to print and are dropped.
type ConsoleStorage struct {
	logger *zap.Logger
}

// NewConsoleStorage creates a new console storage.
func NewConsoleStorage(logger *zap.Logger) *ConsoleStorage {
	logger.Info("console-storage-initialized")
	return &ConsoleStorage{
		logger: logger,
	}
}

// UpsertRecord is a no-op for console storage.
func (c *ConsoleStorage) UpsertRecord(ctx context.Context, rec types.OutcomeRecord) error {
	return nil
}

// InsertOpportunity pretty-prints a newly opened arbitrage window.
func (c *ConsoleStorage) InsertOpportunity(ctx context.Context, o arb.Opportunity) error {
	fmt.Println("\n" + "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("🎯 ARBITRAGE OPPORTUNITY OPENED\n")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("ID:        %s\n", shortID(o.ID))
	fmt.Printf("Event:     %s / %s\n", o.RecordKey.Event, o.RecordKey.Outcome)
	fmt.Printf("League:    %s\n", o.RecordKey.League)
	fmt.Printf("Direction: %s\n", o.Direction)
	fmt.Printf("Time:      %s\n", o.FirstSeen.Format("2006-01-02 15:04:05"))
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("📊 PRICES\n")
	fmt.Printf("  Back:   %.3f\n", o.BackPrice)
	fmt.Printf("  Lay:    %.3f\n", o.LayPrice)
	fmt.Printf("  Volume: %.0f\n", o.Volume)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("💰 MARGIN\n")
	fmt.Printf("  Margin:            %.3f%%\n", o.Margin*100)
	fmt.Printf("  Lay stake per 100: %.2f\n", o.LayStakePer100)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	return nil
}

// UpdateOpportunity is a no-op for console storage; the open banner
// already carries the detection state.
func (c *ConsoleStorage) UpdateOpportunity(ctx context.Context, o arb.Opportunity) error {
	return nil
}

// CloseOpportunity prints the window's final shape.
func (c *ConsoleStorage) CloseOpportunity(ctx context.Context, o arb.Opportunity) error {
	fmt.Printf("\n❎ OPPORTUNITY CLOSED  %s  peak %.3f%%  open for %s\n",
		shortID(o.ID), o.PeakMargin*100, o.Duration().Round(time.Second))
	return nil
}

// InsertSteamSignal prints one emitted signal.
func (c *ConsoleStorage) InsertSteamSignal(ctx context.Context, sig steam.Signal) error {
	arrow := "🔥"
	if sig.Direction == steam.DirectionDrifting {
		arrow = "🧊"
	}
	fmt.Printf("\n%s %s  %s / %s  %.3f → %.3f  (%+.2fpp over %s)\n",
		arrow, sig.Direction, sig.Key.Event, sig.Key.Outcome,
		sig.OldPrice, sig.NewPrice, sig.ShiftPP, sig.Window.Round(time.Second))
	return nil
}

// Close is a no-op for console storage.
func (c *ConsoleStorage) Close() error {
	c.logger.Info("closing-console-storage")
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
