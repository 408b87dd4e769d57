// Package audit keeps a queryable history of editor commits in SQLite.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/micom7/graph/internal/graph"
)

// Page size bounds for List.
const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// Entry is one recorded commit.
type Entry struct {
	ID        string      `json:"id"`
	Op        string      `json:"op"`
	Subject   string      `json:"subject,omitempty"`
	Outcome   string      `json:"outcome"`
	Error     string      `json:"error,omitempty"`
	Stats     graph.Stats `json:"stats"`
	CreatedAt time.Time   `json:"created_at"`
}

// EntryFromEvent converts an editor event into a history entry.
func EntryFromEvent(ev graph.Event) Entry {
	e := Entry{
		Op:        string(ev.Op),
		Subject:   ev.Subject,
		Outcome:   string(ev.Outcome),
		Stats:     ev.Stats,
		CreatedAt: ev.Time.UTC(),
	}
	if ev.Err != nil {
		e.Error = ev.Err.Error()
	}
	return e
}

// Filter controls which entries List returns.
type Filter struct {
	Op      string // optional: exact op, e.g. "device.add"
	Outcome string // optional: applied, rejected or failed
	Subject string // optional: device name or connection ID
	Limit   int    // default DefaultLimit, capped at MaxLimit
	Offset  int
}

// ListResult is one page of history, newest first.
type ListResult struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}

// Repository defines the history storage operations.
type Repository interface {
	Create(ctx context.Context, e *Entry) error
	List(ctx context.Context, filter Filter) (*ListResult, error)
	Prune(ctx context.Context, keep int) (int64, error)
}

// SQLiteRepository stores history in the audit_log table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a history repository on db.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts an entry. ID and CreatedAt are generated when empty.
func (r *SQLiteRepository) Create(ctx context.Context, e *Entry) error {
	if e.ID == "" {
		e.ID = "cmt-" + uuid.NewString()[:8]
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	statsJSON, err := json.Marshal(e.Stats)
	if err != nil {
		return fmt.Errorf("marshalling history stats: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO audit_log (id, op, subject, outcome, error, stats, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Op,
		nullableString(e.Subject), e.Outcome, nullableString(e.Error),
		string(statsJSON),
		e.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting history entry: %w", err)
	}
	return nil
}

// nullableString maps "" to NULL for optional TEXT columns.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// List returns entries matching filter, newest first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) { //nolint:gocognit // dynamic query builder
	if filter.Limit <= 0 {
		filter.Limit = DefaultLimit
	}
	if filter.Limit > MaxLimit {
		filter.Limit = MaxLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	var conditions []string
	var args []any
	if filter.Op != "" {
		conditions = append(conditions, "op = ?")
		args = append(args, filter.Op)
	}
	if filter.Outcome != "" {
		conditions = append(conditions, "outcome = ?")
		args = append(args, filter.Outcome)
	}
	if filter.Subject != "" {
		conditions = append(conditions, "subject = ?")
		args = append(args, filter.Subject)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM audit_log %s", where) //nolint:gosec // WHERE built from parameterised conditions
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting history: %w", err)
	}

	// seq breaks ties between entries created within the same instant.
	query := fmt.Sprintf( //nolint:gosec // WHERE built from parameterised conditions
		"SELECT id, op, subject, outcome, error, stats, created_at FROM audit_log %s ORDER BY seq DESC LIMIT ? OFFSET ?",
		where,
	)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var subject, errText sql.NullString
		var statsJSON, createdAt string

		if err := rows.Scan(&e.ID, &e.Op, &subject, &e.Outcome, &errText, &statsJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning history entry: %w", err)
		}
		e.Subject = subject.String
		e.Error = errText.String
		if statsJSON != "" {
			if err := json.Unmarshal([]byte(statsJSON), &e.Stats); err != nil {
				return nil, fmt.Errorf("decoding stats of %s: %w", e.ID, err)
			}
		}
		t, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing history timestamp %q: %w", createdAt, err)
		}
		e.CreatedAt = t

		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history: %w", err)
	}

	return &ListResult{
		Entries: entries,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}, nil
}

// Prune deletes all but the newest keep entries and returns how many rows
// went. keep <= 0 keeps everything.
func (r *SQLiteRepository) Prune(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM audit_log WHERE seq <= (
			SELECT seq FROM audit_log ORDER BY seq DESC LIMIT 1 OFFSET ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("pruning history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("pruning history: %w", err)
	}
	return n, nil
}
