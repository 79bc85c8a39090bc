// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history keeps a SQLite journal of every merge group conjoin has
// processed, so earlier runs can be listed or exported.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/conjoin/pkg/types"
)

const (
	dbFile       = "history.db"
	defaultLimit = 20
)

// Store manages the history SQLite database.
type Store struct {
	db    *sql.DB
	dir   string
	limit int
	now   func() time.Time
}

// NewRunID returns a fresh identifier grouping the results of one run.
func NewRunID() string {
	return uuid.NewString()
}

// Open opens or creates cfg.Dir/history.db and its schema.
func Open(cfg types.HistoryConfig) (*Store, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("history directory not configured")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	limit := cfg.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	s := &Store{
		db:    db,
		dir:   cfg.Dir,
		limit: limit,
		now:   time.Now,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS merges (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			run_id TEXT NOT NULL,
			group_name TEXT NOT NULL,
			source_dir TEXT,
			status TEXT NOT NULL,
			inputs TEXT,
			missing TEXT,
			output_path TEXT,
			pages INTEGER,
			two_sided INTEGER NOT NULL DEFAULT 0,
			message TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_merges_run_id ON merges(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_merges_status ON merges(status)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record appends one group result to the journal.
func (s *Store) Record(ctx context.Context, runID string, twoSided bool, res types.GroupResult) error {
	inputs, err := json.Marshal(res.Inputs)
	if err != nil {
		return fmt.Errorf("encoding inputs: %w", err)
	}
	missing, err := json.Marshal(res.Missing)
	if err != nil {
		return fmt.Errorf("encoding missing files: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO merges (id, run_id, group_name, source_dir, status, inputs, missing,
			output_path, pages, two_sided, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), runID, res.Name, res.SourceDir, string(res.Status),
		string(inputs), string(missing), res.Output, res.Pages, twoSided, res.Message,
		s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting history entry: %w", err)
	}
	return nil
}

// Query filters List results. Zero fields do not filter.
type Query struct {
	Limit  int
	Status types.GroupStatus
	RunID  string
}

// List returns journal entries, newest first.
func (s *Store) List(ctx context.Context, q Query) ([]types.HistoryEntry, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = s.limit
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(
		`SELECT id, run_id, group_name, source_dir, status, inputs, missing,
			output_path, pages, two_sided, message, created_at
		FROM merges WHERE 1=1`)

	if q.Status != "" {
		qb.WriteString(` AND status = ?`)
		args = append(args, string(q.Status))
	}
	if q.RunID != "" {
		qb.WriteString(` AND run_id = ?`)
		args = append(args, q.RunID)
	}

	qb.WriteString(` ORDER BY seq DESC LIMIT ?`)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []types.HistoryEntry
	for rows.Next() {
		var (
			e           types.HistoryEntry
			status      string
			sourceDir   sql.NullString
			inputsJSON  sql.NullString
			missingJSON sql.NullString
			output      sql.NullString
			pages       sql.NullInt64
			message     sql.NullString
			created     string
		)
		if err := rows.Scan(
			&e.ID, &e.RunID, &e.Name, &sourceDir, &status, &inputsJSON, &missingJSON,
			&output, &pages, &e.TwoSided, &message, &created,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		e.Status = types.GroupStatus(status)
		e.SourceDir = sourceDir.String
		e.Output = output.String
		e.Pages = int(pages.Int64)
		e.Message = message.String
		if inputsJSON.Valid {
			if err := json.Unmarshal([]byte(inputsJSON.String), &e.Inputs); err != nil {
				return nil, fmt.Errorf("decoding inputs of entry %s: %w", e.ID, err)
			}
		}
		if missingJSON.Valid {
			if err := json.Unmarshal([]byte(missingJSON.String), &e.Missing); err != nil {
				return nil, fmt.Errorf("decoding missing files of entry %s: %w", e.ID, err)
			}
		}
		if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
			e.CreatedAt = t
		}

		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history rows: %w", err)
	}
	return entries, nil
}
