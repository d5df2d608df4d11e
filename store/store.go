//go:build sqlite

// Package store persists binary engine checkpoints to SQLite, keyed by run
// and generation, so a host can list and restore historical checkpoints
// without re-deriving them from raw files on disk. Building without the
// sqlite tag excludes this package entirely; the flat binary format saved
// by neat.Engine.Save remains the dependency-free persistence path.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/ncruces/go-strftime"
	_ "modernc.org/sqlite"
)

// Store wraps a SQLite database holding one row per (run, generation)
// checkpoint.
type Store struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

// NewStore opens (creating if necessary) the SQLite database at path and
// ensures its schema exists.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path}
	if err := s.init(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("store: sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("store: opening %s: %w", s.path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("store: pinging %s: %w", s.path, err)
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return fmt.Errorf("store: creating schema: %w", err)
	}

	s.db = db
	return nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS checkpoints (
			run_id TEXT NOT NULL,
			generation INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			payload BLOB NOT NULL,
			PRIMARY KEY (run_id, generation)
		);
	`)
	return err
}

func (s *Store) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store: not initialized")
	}
	return s.db, nil
}

// Save records payload (the raw bytes of an Engine.Save checkpoint) for the
// given run and generation, overwriting any existing row for that pair.
func (s *Store) Save(runID uuid.UUID, generation int, payload []byte) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	now := time.Now()
	_, err = db.ExecContext(context.Background(), `
		INSERT INTO checkpoints (run_id, generation, created_at, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(run_id, generation) DO UPDATE SET
			created_at = excluded.created_at,
			payload = excluded.payload
	`, runID.String(), generation, strftime.Format("%Y-%m-%dT%H:%M:%S", now), payload)
	if err != nil {
		return fmt.Errorf("store: saving checkpoint run=%s generation=%d: %w", runID, generation, err)
	}

	fmt.Printf("store: saved checkpoint run=%s generation=%d size=%s at %s\n",
		runID, generation, humanize.Bytes(uint64(len(payload))), humanize.Time(now))
	return nil
}

// Load reads back the checkpoint payload for the given run and generation.
// The second return value is false if no such checkpoint exists.
func (s *Store) Load(runID uuid.UUID, generation int) ([]byte, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}

	var payload []byte
	err = db.QueryRowContext(context.Background(), `
		SELECT payload FROM checkpoints WHERE run_id = ? AND generation = ?
	`, runID.String(), generation).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("store: loading checkpoint run=%s generation=%d: %w", runID, generation, err)
	}
	return payload, true, nil
}

// Latest returns the highest generation number and its payload for runID.
// The first return value is -1 and the payload nil if the run has no
// checkpoints.
func (s *Store) Latest(runID uuid.UUID) (int, []byte, error) {
	db, err := s.getDB()
	if err != nil {
		return -1, nil, err
	}

	var generation int
	var payload []byte
	err = db.QueryRowContext(context.Background(), `
		SELECT generation, payload FROM checkpoints
		WHERE run_id = ?
		ORDER BY generation DESC
		LIMIT 1
	`, runID.String()).Scan(&generation, &payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return -1, nil, nil
		}
		return -1, nil, fmt.Errorf("store: loading latest checkpoint run=%s: %w", runID, err)
	}
	return generation, payload, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
