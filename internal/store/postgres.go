package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/dataquality/internal/core"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS dq_tables (
  table_id           TEXT PRIMARY KEY,
  name               TEXT NOT NULL,
  row_count          INTEGER NOT NULL DEFAULT 0,
  column_count       INTEGER NOT NULL DEFAULT 0,
  fix_count          INTEGER NOT NULL DEFAULT 0,
  last_overall_score DOUBLE PRECISION NOT NULL DEFAULT 0,
  dataset            JSONB NOT NULL,
  profiles           JSONB NOT NULL DEFAULT '{}',
  issues             JSONB NOT NULL DEFAULT '[]',
  actions            JSONB NOT NULL DEFAULT '[]',
  snapshots          JSONB NOT NULL DEFAULT '[]',
  baseline           JSONB NOT NULL DEFAULT '{}',
  updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS dq_issue_index (
  issue_id TEXT PRIMARY KEY,
  table_id TEXT NOT NULL REFERENCES dq_tables(table_id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_dq_issue_index_table ON dq_issue_index(table_id);
CREATE INDEX IF NOT EXISTS idx_dq_tables_updated ON dq_tables(updated_at DESC);
`

// Postgres stores table state in PostgreSQL using JSONB documents.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an open pool and ensures the schema exists.
func NewPostgres(ctx context.Context, pool *pgxpool.Pool) (*Postgres, error) {
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// SaveTable implements core.Repository.
func (p *Postgres) SaveTable(ctx context.Context, st *core.TableState) error {
	rec, err := encodeState(st)
	if err != nil {
		return err
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	_, err = tx.Exec(ctx, `
INSERT INTO dq_tables (table_id, name, row_count, column_count, fix_count, last_overall_score,
                       dataset, profiles, issues, actions, snapshots, baseline, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (table_id) DO UPDATE SET
  name = EXCLUDED.name,
  row_count = EXCLUDED.row_count,
  column_count = EXCLUDED.column_count,
  fix_count = EXCLUDED.fix_count,
  last_overall_score = EXCLUDED.last_overall_score,
  dataset = EXCLUDED.dataset,
  profiles = EXCLUDED.profiles,
  issues = EXCLUDED.issues,
  actions = EXCLUDED.actions,
  snapshots = EXCLUDED.snapshots,
  baseline = EXCLUDED.baseline,
  updated_at = EXCLUDED.updated_at`,
		rec.TableID, rec.Name, rec.RowCount, rec.ColumnCount, rec.FixCount, rec.LastOverallScore,
		string(rec.Dataset), string(rec.Profiles), string(rec.Issues),
		string(rec.Actions), string(rec.Snapshots), string(rec.Baseline), rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert table %s: %w", rec.TableID, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM dq_issue_index WHERE table_id = $1`, rec.TableID); err != nil {
		return fmt.Errorf("clear issue index %s: %w", rec.TableID, err)
	}
	if len(rec.IssueIDs) > 0 {
		rows := make([][]any, len(rec.IssueIDs))
		for i, id := range rec.IssueIDs {
			rows[i] = []any{id, rec.TableID}
		}
		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"dq_issue_index"},
			[]string{"issue_id", "table_id"},
			pgx.CopyFromRows(rows),
		); err != nil {
			return fmt.Errorf("write issue index %s: %w", rec.TableID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// LoadTable implements core.Repository.
func (p *Postgres) LoadTable(ctx context.Context, tableID string) (*core.TableState, error) {
	rec := &record{TableID: tableID}
	err := p.pool.QueryRow(ctx, `
SELECT dataset, profiles, issues, actions, snapshots, baseline
FROM dq_tables WHERE table_id = $1`, tableID).
		Scan(&rec.Dataset, &rec.Profiles, &rec.Issues, &rec.Actions, &rec.Snapshots, &rec.Baseline)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("table", tableID)
	}
	if err != nil {
		return nil, fmt.Errorf("load table %s: %w", tableID, err)
	}
	return decodeState(rec)
}

// DeleteTable implements core.Repository. The issue index cascades.
func (p *Postgres) DeleteTable(ctx context.Context, tableID string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM dq_tables WHERE table_id = $1`, tableID)
	if err != nil {
		return fmt.Errorf("delete table %s: %w", tableID, err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("table", tableID)
	}
	return nil
}

// ListTables implements core.Repository.
func (p *Postgres) ListTables(ctx context.Context) ([]core.DatasetInfo, error) {
	rows, err := p.pool.Query(ctx, `
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
func (p *Postgres) FindIssueTable(ctx context.Context, issueID string) (string, error) {
	var tableID string
	err := p.pool.QueryRow(ctx, `SELECT table_id FROM dq_issue_index WHERE issue_id = $1`, issueID).Scan(&tableID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", notFound("issue", issueID)
	}
	if err != nil {
		return "", fmt.Errorf("find issue %s: %w", issueID, err)
	}
	return tableID, nil
}

// Ping checks connectivity for health endpoints.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}
