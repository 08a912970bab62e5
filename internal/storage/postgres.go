package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmccall/sports-arb/internal/arb"
	"github.com/dmccall/sports-arb/internal/steam"
	"github.com/dmccall/sports-arb/pkg/types"
	"github.com/goccy/go-json"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// PostgresStorage implements Storage using PostgreSQL.
type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresStorage creates a new PostgreSQL storage.
func NewPostgresStorage(cfg *PostgresConfig) (*PostgresStorage, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	cfg.Logger.Info("postgres-storage-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return &PostgresStorage{
		db:     db,
		logger: cfg.Logger,
	}, nil
}

// UpsertRecord writes the reconciled view of one outcome, keyed by the
// league/event/outcome triple. Last write wins.
func (p *PostgresStorage) UpsertRecord(ctx context.Context, rec types.OutcomeRecord) error {
	softPrices, err := json.Marshal(rec.SoftPrices)
	if err != nil {
		return fmt.Errorf("marshal soft prices: %w", err)
	}

	query := `
		INSERT INTO outcome_records (
			key, record_id, sport, league, event, outcome,
			back_price, lay_price, sharp_price, soft_prices,
			volume, status, start_time, last_updated
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (key) DO UPDATE SET
			record_id = EXCLUDED.record_id,
			back_price = EXCLUDED.back_price,
			lay_price = EXCLUDED.lay_price,
			sharp_price = EXCLUDED.sharp_price,
			soft_prices = EXCLUDED.soft_prices,
			volume = EXCLUDED.volume,
			status = EXCLUDED.status,
			start_time = EXCLUDED.start_time,
			last_updated = EXCLUDED.last_updated
	`

	_, err = p.db.ExecContext(ctx, query,
		rec.Key().String(),
		rec.ID,
		rec.Sport,
		rec.League,
		rec.Event,
		rec.Outcome,
		rec.BackPrice,
		rec.LayPrice,
		rec.SharpPrice,
		softPrices,
		rec.Volume,
		string(rec.Status),
		nullTime(rec.StartTime),
		nullTime(rec.LastUpdated),
	)
	if err != nil {
		return fmt.Errorf("upsert record: %w", err)
	}

	return nil
}

// InsertOpportunity records a newly opened arbitrage window.
func (p *PostgresStorage) InsertOpportunity(ctx context.Context, o arb.Opportunity) error {
	query := `
		INSERT INTO arb_opportunities (
			id, record_id, sport, league, event, outcome, direction,
			back_price, lay_price, volume, margin, peak_margin,
			lay_stake_per_100, first_seen, last_seen
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := p.db.ExecContext(ctx, query,
		o.ID, o.RecordID, o.Sport,
		o.RecordKey.League, o.RecordKey.Event, o.RecordKey.Outcome,
		o.Direction, o.BackPrice, o.LayPrice, o.Volume,
		o.Margin, o.PeakMargin, o.LayStakePer100,
		o.FirstSeen, o.LastSeen,
	)
	if err != nil {
		return fmt.Errorf("insert opportunity: %w", err)
	}

	p.logger.Debug("opportunity-stored",
		zap.String("opportunity-id", o.ID),
		zap.String("event", o.RecordKey.Event),
		zap.Float64("margin", o.Margin))

	return nil
}

// UpdateOpportunity refreshes an open window's prices, margin and peak.
func (p *PostgresStorage) UpdateOpportunity(ctx context.Context, o arb.Opportunity) error {
	query := `
		UPDATE arb_opportunities SET
			back_price = $2, lay_price = $3, volume = $4,
			margin = $5, peak_margin = $6, last_seen = $7
		WHERE id = $1
	`

	_, err := p.db.ExecContext(ctx, query,
		o.ID, o.BackPrice, o.LayPrice, o.Volume,
		o.Margin, o.PeakMargin, o.LastSeen,
	)
	if err != nil {
		return fmt.Errorf("update opportunity: %w", err)
	}
	return nil
}

// CloseOpportunity finalizes a window.
func (p *PostgresStorage) CloseOpportunity(ctx context.Context, o arb.Opportunity) error {
	query := `
		UPDATE arb_opportunities SET
			peak_margin = $2, closed_at = $3, duration_seconds = $4
		WHERE id = $1
	`

	_, err := p.db.ExecContext(ctx, query,
		o.ID, o.PeakMargin, o.ClosedAt, o.Duration().Seconds(),
	)
	if err != nil {
		return fmt.Errorf("close opportunity: %w", err)
	}
	return nil
}

// InsertSteamSignal appends one emitted signal to the log.
func (p *PostgresStorage) InsertSteamSignal(ctx context.Context, sig steam.Signal) error {
	query := `
		INSERT INTO steam_signals (
			record_id, sport, league, event, outcome, direction,
			old_price, new_price, shift_pp, window_seconds, detected_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := p.db.ExecContext(ctx, query,
		sig.RecordID, sig.Sport,
		sig.Key.League, sig.Key.Event, sig.Key.Outcome,
		sig.Direction, sig.OldPrice, sig.NewPrice, sig.ShiftPP,
		sig.Window.Seconds(), sig.At,
	)
	if err != nil {
		return fmt.Errorf("insert steam signal: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (p *PostgresStorage) Close() error {
	p.logger.Info("closing-postgres-storage")
	return p.db.Close()
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
