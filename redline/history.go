package redline

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/redline/dbopen"
	"github.com/hazyhaar/redline/idgen"
)

// HistorySchema creates the comparison log.
const HistorySchema = `
CREATE TABLE IF NOT EXISTS comparisons (
	id          TEXT PRIMARY KEY,
	mode        TEXT NOT NULL,
	source      TEXT NOT NULL,
	target      TEXT NOT NULL,
	output_path TEXT NOT NULL,
	equal       INTEGER NOT NULL DEFAULT 0,
	inserted    INTEGER NOT NULL DEFAULT 0,
	deleted     INTEGER NOT NULL DEFAULT 0,
	replaced    INTEGER NOT NULL DEFAULT 0,
	whitespace  INTEGER NOT NULL DEFAULT 0,
	warnings    TEXT NOT NULL DEFAULT '[]',
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_comparisons_created ON comparisons(created_at);
`

// ErrRecordNotFound is returned by History.Get for an unknown id.
var ErrRecordNotFound = errors.New("comparison not found")

// Record is a stored comparison.
type Record struct {
	Result
	CreatedAt int64 `json:"created_at"` // unix milliseconds
}

// History is the SQLite comparison log.
type History struct {
	DB *sql.DB
}

// OpenHistory opens (creating if needed) the history database at path.
func OpenHistory(path string) (*History, error) {
	db, err := dbopen.Open(path, dbopen.WithMkdirAll(), dbopen.WithSchema(HistorySchema))
	if err != nil {
		return nil, err
	}
	return &History{DB: db}, nil
}

// Close closes the database.
func (h *History) Close() error {
	return h.DB.Close()
}

// Record stores a finished comparison.
func (h *History) Record(ctx context.Context, res *Result) error {
	warnings, err := json.Marshal(res.Warnings)
	if err != nil {
		return err
	}
	if res.Warnings == nil {
		warnings = []byte("[]")
	}
	now := time.Now().UnixMilli()
	return dbopen.RunTx(ctx, h.DB, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO comparisons (id, mode, source, target, output_path,
			                         equal, inserted, deleted, replaced, whitespace, warnings, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			res.ID, res.Mode, res.Source, res.Target, res.OutputPath,
			res.Stats.Equal, res.Stats.Insert, res.Stats.Delete, res.Stats.Replace, res.Stats.Whitespace,
			string(warnings), now,
		)
		return err
	})
}

const recordColumns = `id, mode, source, target, output_path,
	equal, inserted, deleted, replaced, whitespace, warnings, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	r := &Record{}
	var warnings string
	if err := row.Scan(
		&r.ID, &r.Mode, &r.Source, &r.Target, &r.OutputPath,
		&r.Stats.Equal, &r.Stats.Insert, &r.Stats.Delete, &r.Stats.Replace, &r.Stats.Whitespace,
		&warnings, &r.CreatedAt,
	); err != nil {
		return nil, err
	}
	json.Unmarshal([]byte(warnings), &r.Warnings)
	return r, nil
}

// Get returns one comparison by id.
func (h *History) Get(ctx context.Context, id string) (*Record, error) {
	id, err := idgen.Parse(idPrefix, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRecordNotFound, err)
	}
	row := h.DB.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM comparisons WHERE id = ?`, id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	return r, err
}

// Recent returns up to limit comparisons, newest first.
func (h *History) Recent(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := h.DB.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM comparisons ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
