package storage

import (
	"context"

	"github.com/dmccall/sports-arb/internal/arb"
	"github.com/dmccall/sports-arb/internal/steam"
	"github.com/dmccall/sports-arb/pkg/types"
)

// Storage persists reconciled records, the opportunity lifecycle, and the
// steam signal log. Implementations are last-write-wins; the in-memory
// cache remains the authority while the process runs.
type Storage interface {
	// UpsertRecord writes the current reconciled view of one outcome.
	UpsertRecord(ctx context.Context, rec types.OutcomeRecord) error

	// InsertOpportunity records a newly opened arbitrage window.
	InsertOpportunity(ctx context.Context, o arb.Opportunity) error

	// UpdateOpportunity refreshes prices, margin and peak on an open window.
	UpdateOpportunity(ctx context.Context, o arb.Opportunity) error

	// CloseOpportunity finalizes a window with its close time and peak.
	CloseOpportunity(ctx context.Context, o arb.Opportunity) error

	// InsertSteamSignal appends one emitted signal to the log.
	InsertSteamSignal(ctx context.Context, sig steam.Signal) error

	// Close closes the storage connection.
	Close() error
}
