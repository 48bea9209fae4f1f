package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/dataquality/internal/core"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS dq_tables (
  table_id           TEXT PRIMARY KEY,
  name               TEXT NOT NULL,
  row_count          INTEGER NOT NULL DEFAULT 0,
  column_count       INTEGER NOT NULL DEFAULT 0,
  fix_count          INTEGER NOT NULL DEFAULT 0,
  last_overall_score REAL NOT NULL DEFAULT 0,
  dataset            TEXT NOT NULL,
  profiles           TEXT NOT NULL DEFAULT '{}',
  issues             TEXT NOT NULL DEFAULT '[]',
  actions            TEXT NOT NULL DEFAULT '[]',
  snapshots          TEXT NOT NULL DEFAULT '[]',
  baseline           TEXT NOT NULL DEFAULT '{}',
  updated_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS dq_issue_index (
  issue_id TEXT PRIMARY KEY,
  table_id TEXT NOT NULL REFERENCES dq_tables(table_id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_dq_issue_index_table ON dq_issue_index(table_id);
CREATE INDEX IF NOT EXISTS idx_dq_tables_updated ON dq_tables(updated_at);
`

// SQLite stores table state in a single SQLite file.
type SQLite struct {
	sql *sql.DB
}

// OpenSQLite opens (or creates) the database at path. Use ":memory:" for a
// throwaway database.
func OpenSQLite(path string) (*SQLite, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		// Each connection would get its own empty database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLite{sql: db}, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	if s == nil || s.sql == nil {
		return nil
	}
	return s.sql.Close()
}

// SaveTable implements core.Repository.
func (s *SQLite) SaveTable(ctx context.Context, st *core.TableState) error {
	rec, err := encodeState(st)
	if err != nil {
		return err
	}

	tx, err := s.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
INSERT INTO dq_tables (table_id, name, row_count, column_count, fix_count, last_overall_score,
                       dataset, profiles, issues, actions, snapshots, baseline, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(table_id) DO UPDATE SET
  name = excluded.name,
  row_count = excluded.row_count,
  column_count = excluded.column_count,
  fix_count = excluded.fix_count,
  last_overall_score = excluded.last_overall_score,
  dataset = excluded.dataset,
  profiles = excluded.profiles,
  issues = excluded.issues,
  actions = excluded.actions,
  snapshots = excluded.snapshots,
  baseline = excluded.baseline,
  updated_at = excluded.updated_at`,
		rec.TableID, rec.Name, rec.RowCount, rec.ColumnCount, rec.FixCount, rec.LastOverallScore,
		string(rec.Dataset), string(rec.Profiles), string(rec.Issues),
		string(rec.Actions), string(rec.Snapshots), string(rec.Baseline), rec.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert table %s: %w", rec.TableID, err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM dq_issue_index WHERE table_id = ?`, rec.TableID); err != nil {
		return fmt.Errorf("clear issue index %s: %w", rec.TableID, err)
	}
	for _, id := range rec.IssueIDs {
		if _, err = tx.ExecContext(ctx, `INSERT INTO dq_issue_index(issue_id, table_id) VALUES(?, ?)`, id, rec.TableID); err != nil {
			return fmt.Errorf("write issue index %s: %w", rec.TableID, err)
		}
	}

	err = tx.Commit()
	return err
}

// LoadTable implements core.Repository.
func (s *SQLite) LoadTable(ctx context.Context, tableID string) (*core.TableState, error) {
	rec := &record{TableID: tableID}
	var dataset, profiles, issues, actions, snapshots, baseline string
	err := s.sql.QueryRowContext(ctx, `
SELECT dataset, profiles, issues, actions, snapshots, baseline
FROM dq_tables WHERE table_id = ?`, tableID).
		Scan(&dataset, &profiles, &issues, &actions, &snapshots, &baseline)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("table", tableID)
	}
	if err != nil {
		return nil, fmt.Errorf("load table %s: %w", tableID, err)
	}
	rec.Dataset = []byte(dataset)
	rec.Profiles = []byte(profiles)
	rec.Issues = []byte(issues)
	rec.Actions = []byte(actions)
	rec.Snapshots = []byte(snapshots)
	rec.Baseline = []byte(baseline)
	return decodeState(rec)
}

// DeleteTable implements core.Repository.
func (s *SQLite) DeleteTable(ctx context.Context, tableID string) error {
	res, err := s.sql.ExecContext(ctx, `DELETE FROM dq_tables WHERE table_id = ?`, tableID)
	if err != nil {
		return fmt.Errorf("delete table %s: %w", tableID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("table", tableID)
	}
	return nil
}

// ListTables implements core.Repository.
func (s *SQLite) ListTables(ctx context.Context) ([]core.DatasetInfo, error) {
	rows, err := s.sql.QueryContext(ctx, `
SELECT table_id, name, row_count, column_count, fix_count, last_overall_score, updated_at
FROM dq_tables ORDER BY updated_at DESC, table_id`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	out := []core.DatasetInfo{}
	for rows.Next() {
		var rec record
		if err := rows.Scan(&rec.TableID, &rec.Name, &rec.RowCount, &rec.ColumnCount,
			&rec.FixCount, &rec.LastOverallScore, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		out = append(out, recordInfo(&rec))
	}
	return out, rows.Err()
}

// FindIssueTable implements core.Repository.
func (s *SQLite) FindIssueTable(ctx context.Context, issueID string) (string, error) {
	var tableID string
	err := s.sql.QueryRowContext(ctx, `SELECT table_id FROM dq_issue_index WHERE issue_id = ?`, issueID).Scan(&tableID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", notFound("issue", issueID)
	}
	if err != nil {
		return "", fmt.Errorf("find issue %s: %w", issueID, err)
	}
	return tableID, nil
}
