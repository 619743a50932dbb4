package checkpoint

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/dazzyddos/OSINT-AI-Agent/internal/state"
)

// SQLiteStore implements Store on a single SQLite database file.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

const schema = `
CREATE TABLE IF NOT EXISTS investigations (
	id          TEXT PRIMARY KEY,
	target      TEXT NOT NULL,
	state       TEXT NOT NULL,
	updated_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

// NewSQLiteStore opens (or creates) the checkpoint database under baseDir.
func NewSQLiteStore(baseDir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	dbPath := filepath.Join(baseDir, "investigations.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint database: %w", err)
	}

	// WAL mode for better concurrent read access (serve command reads
	// while a scan writes).
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db, dbPath: dbPath}, nil
}

// Save upserts the full serialized investigation under id.
func (s *SQLiteStore) Save(ctx context.Context, id string, inv *state.Investigation) error {
	blob, err := json.Marshal(inv)
	if err != nil {
		return fmt.Errorf("failed to serialize investigation: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO investigations (id, target, state, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			target = excluded.target,
			state = excluded.state,
			updated_at = CURRENT_TIMESTAMP`,
		id, inv.Target, string(blob))
	if err != nil {
		return fmt.Errorf("failed to save checkpoint %s: %w", id, err)
	}
	return nil
}

// Load restores the investigation stored under id, or ErrNotFound.
func (s *SQLiteStore) Load(ctx context.Context, id string) (*state.Investigation, error) {
	var blob string
	err := s.db.QueryRowContext(ctx,
		"SELECT state FROM investigations WHERE id = ?", id).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint %s: %w", id, err)
	}

	var inv state.Investigation
	if err := json.Unmarshal([]byte(blob), &inv); err != nil {
		return nil, fmt.Errorf("failed to deserialize checkpoint %s: %w", id, err)
	}
	return &inv, nil
}

// List returns a summary of every stored investigation, most recent first.
func (s *SQLiteStore) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, target, state, updated_at
		FROM investigations ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var blob string
		if err := rows.Scan(&e.ID, &e.Target, &blob, &e.UpdatedAt); err != nil {
			return nil, err
		}
		var inv state.Investigation
		if json.Unmarshal([]byte(blob), &inv) == nil {
			e.Phases = len(inv.CompletedPhases)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
