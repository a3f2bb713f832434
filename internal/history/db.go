// Package history journals switch attempts and detected file changes in a
// sqlite database and exports the switch journal to parquet.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aleister1102/cfgswitch/internal/monitor"
	"github.com/aleister1102/cfgswitch/internal/switcher"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// DB wraps the SQL database connection holding the switch journal and the change log.
type DB struct {
	db     *sql.DB
	logger zerolog.Logger
}

// SwitchRecord is a row of the switch_history table.
type SwitchRecord struct {
	ID          int64     `json:"id"`
	ProfileID   string    `json:"profile_id"`
	State       string    `json:"state"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	DurationMS  int64     `json:"duration_ms"`
	Transitions []string  `json:"transitions"`
	Error       string    `json:"error,omitempty"`
}

// ChangeEvent is a row of the change_events table.
type ChangeEvent struct {
	ID         int64     `json:"id"`
	Tick       uint64    `json:"tick"`
	ObservedAt time.Time `json:"observed_at"`
	Path       string    `json:"path"`
	ChangeType string    `json:"change_type"`
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS switch_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		profile_id TEXT NOT NULL,
		state TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		transitions TEXT NOT NULL,
		error TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS change_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tick INTEGER NOT NULL,
		observed_at INTEGER NOT NULL,
		path TEXT NOT NULL,
		change_type TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_change_events_path ON change_events(path)`,
}

// NewDB opens (creating if needed) the database at dataSourceName and ensures the schema.
func NewDB(dataSourceName string, logger zerolog.Logger) (*DB, error) {
	logger = logger.With().Str("component", "HistoryDB").Logger()
	logger.Debug().Str("db_path", dataSourceName).Msg("Initializing history database connection")

	dbDir := filepath.Dir(dataSourceName)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		logger.Error().Err(err).Str("directory", dbDir).Msg("Failed to create history database directory")
		return nil, fmt.Errorf("failed to create history database directory %s: %w", dbDir, err)
	}

	dbInstance, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		logger.Error().Err(err).Str("db_path", dataSourceName).Msg("Failed to open history database")
		return nil, fmt.Errorf("sql.Open failed for %s: %w", dataSourceName, err)
	}
	// a single connection serializes writers
	dbInstance.SetMaxOpenConns(1)

	db := &DB{db: dbInstance, logger: logger}
	if err := db.InitSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	logger.Debug().Str("path", dataSourceName).Msg("History database ready")
	return db, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// InitSchema creates the tables if they don't already exist.
func (d *DB) InitSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			d.logger.Error().Err(err).Msg("Failed to initialize schema")
			return err
		}
	}
	return nil
}

// RecordSwitch stores a finished switch attempt.
func (d *DB) RecordSwitch(ctx context.Context, attempt *switcher.Attempt) error {
	states := attempt.States()
	names := make([]string, len(states))
	for i, s := range states {
		names[i] = s.String()
	}

	query := `INSERT INTO switch_history (profile_id, state, started_at, finished_at, duration_ms, transitions, error) VALUES (?, ?, ?, ?, ?, ?, ?)`
	errMsg := attempt.ErrorMessage()
	result, err := d.db.ExecContext(ctx, query,
		attempt.ProfileID,
		attempt.State().String(),
		attempt.StartedAt.UnixMilli(),
		attempt.FinishedAt.UnixMilli(),
		attempt.Duration().Milliseconds(),
		strings.Join(names, ","),
		sql.NullString{String: errMsg, Valid: errMsg != ""},
	)
	if err != nil {
		d.logger.Error().Err(err).Str("profile", attempt.ProfileID).Msg("Failed to record switch")
		return fmt.Errorf("failed to insert switch record: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		d.logger.Debug().Int64("db_id", id).Str("profile", attempt.ProfileID).Str("state", attempt.State().String()).Msg("Recorded switch")
	}
	return nil
}

// RecordChangeBatch stores every change of a batch in one transaction.
func (d *DB) RecordChangeBatch(ctx context.Context, batch monitor.ChangeBatch) error {
	if len(batch.Changes) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO change_events (tick, observed_at, path, change_type) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare change insert: %w", err)
	}
	defer stmt.Close()

	for _, change := range batch.Changes {
		if _, err := stmt.ExecContext(ctx, int64(batch.Tick), batch.At.UnixMilli(), change.Path, change.Type.String()); err != nil {
			return fmt.Errorf("failed to insert change for %s: %w", change.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit change batch: %w", err)
	}
	d.logger.Debug().Uint64("tick", batch.Tick).Int("changes", len(batch.Changes)).Msg("Recorded change batch")
	return nil
}

// RecentSwitches returns up to limit switch records, newest first. A limit
// of zero or less returns every record.
func (d *DB) RecentSwitches(ctx context.Context, limit int) ([]SwitchRecord, error) {
	query := `SELECT id, profile_id, state, started_at, finished_at, duration_ms, transitions, error FROM switch_history ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query switch history: %w", err)
	}
	defer rows.Close()

	var records []SwitchRecord
	for rows.Next() {
		var (
			r           SwitchRecord
			started     int64
			finished    int64
			transitions string
			errMsg      sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.ProfileID, &r.State, &started, &finished, &r.DurationMS, &transitions, &errMsg); err != nil {
			return nil, fmt.Errorf("failed to scan switch record: %w", err)
		}
		r.StartedAt = time.UnixMilli(started)
		r.FinishedAt = time.UnixMilli(finished)
		if transitions != "" {
			r.Transitions = strings.Split(transitions, ",")
		}
		r.Error = errMsg.String
		records = append(records, r)
	}
	return records, rows.Err()
}

// RecentChanges returns up to limit change events, newest first.
func (d *DB) RecentChanges(ctx context.Context, limit int) ([]ChangeEvent, error) {
	query := `SELECT id, tick, observed_at, path, change_type FROM change_events ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query change events: %w", err)
	}
	defer rows.Close()

	var events []ChangeEvent
	for rows.Next() {
		var (
			e        ChangeEvent
			tick     int64
			observed int64
		)
		if err := rows.Scan(&e.ID, &tick, &observed, &e.Path, &e.ChangeType); err != nil {
			return nil, fmt.Errorf("failed to scan change event: %w", err)
		}
		e.Tick = uint64(tick)
		e.ObservedAt = time.UnixMilli(observed)
		events = append(events, e)
	}
	return events, rows.Err()
}
