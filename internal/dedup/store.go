// Package dedup keeps a ledger of processed webhook delivery IDs so that
// forge redeliveries never produce a second comment or a second transition.
package dedup

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	s := &Store{db: db}
	if err := s.configure(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) configure() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("sqlite pragma %q: %w", p, err)
		}
	}
	return nil
}

func (s *Store) initSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS deliveries (
	id          TEXT PRIMARY KEY,
	received_at INTEGER NOT NULL
);`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("init dedup schema: %w", err)
	}
	return nil
}

// Seen records the delivery ID and reports whether it was already present.
// The insert-or-ignore keeps the check-and-record atomic, so concurrent
// redeliveries of the same ID resolve to exactly one first sighting.
func (s *Store) Seen(deliveryID string) (bool, error) {
	if deliveryID == "" {
		return false, nil
	}
	res, err := s.db.Exec(
		"INSERT OR IGNORE INTO deliveries (id, received_at) VALUES (?, ?)",
		deliveryID, time.Now().UnixMilli(),
	)
	if err != nil {
		return false, fmt.Errorf("record delivery: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("record delivery: %w", err)
	}
	return n == 0, nil
}

// Forget removes a recorded delivery so a redelivery is processed again.
// Called when an event is abandoned before reaching a decision.
func (s *Store) Forget(deliveryID string) error {
	if deliveryID == "" {
		return nil
	}
	if _, err := s.db.Exec("DELETE FROM deliveries WHERE id = ?", deliveryID); err != nil {
		return fmt.Errorf("forget delivery: %w", err)
	}
	return nil
}

// Prune drops ledger entries older than the cutoff.
func (s *Store) Prune(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan).UnixMilli()
	res, err := s.db.Exec("DELETE FROM deliveries WHERE received_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune deliveries: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
