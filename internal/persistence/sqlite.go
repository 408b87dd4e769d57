package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/micom7/graph/internal/infrastructure/database"
)

// SQLiteSlot stores the payload as a row of the slots table. The table is
// created by the embedded migrations; run db.Migrate before first use.
type SQLiteSlot struct {
	db   *database.DB
	name string
}

// NewSQLiteSlot creates a slot backed by db.
func NewSQLiteSlot(db *database.DB, name string) *SQLiteSlot {
	return &SQLiteSlot{db: db, name: name}
}

// Name returns the slot name.
func (s *SQLiteSlot) Name() string { return s.name }

// Load reads the stored payload.
func (s *SQLiteSlot) Load(ctx context.Context) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT data FROM slots WHERE name = ?", s.name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("loading slot %s: %w", s.name, err)
	}
	return data, nil
}

// Save upserts the payload.
func (s *SQLiteSlot) Save(ctx context.Context, data []byte) error {
	if data == nil {
		data = []byte{}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO slots (name, data, size, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			data = excluded.data,
			size = excluded.size,
			updated_at = excluded.updated_at`,
		s.name, data, len(data), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("saving slot %s: %w", s.name, err)
	}
	return nil
}

// Clear deletes the row.
func (s *SQLiteSlot) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM slots WHERE name = ?", s.name); err != nil {
		return fmt.Errorf("clearing slot %s: %w", s.name, err)
	}
	return nil
}

// UpdatedAt reports when the slot was last saved.
func (s *SQLiteSlot) UpdatedAt(ctx context.Context) (time.Time, error) {
	var at string
	err := s.db.QueryRowContext(ctx, "SELECT updated_at FROM slots WHERE name = ?", s.name).Scan(&at)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrSlotEmpty
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("reading slot %s: %w", s.name, err)
	}
	return time.Parse(time.RFC3339Nano, at)
}
