// Package store implements core.Repository over memory, PostgreSQL and SQLite.
//
// The SQL backends keep one row per table with the dataset, profiles, issues
// and lineage lists stored as JSON documents, plus an issue index used to
// resolve an issue id to its table. Every save rewrites both in a single
// transaction so readers never observe a half-written table.
package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/JonMunkholm/dataquality/internal/core"
)

// record is the column layout shared by the SQL backends.
type record struct {
	TableID          string
	Name             string
	RowCount         int
	ColumnCount      int
	FixCount         int
	LastOverallScore float64
	UpdatedAt        time.Time

	Dataset   []byte
	Profiles  []byte
	Issues    []byte
	Actions   []byte
	Snapshots []byte
	Baseline  []byte

	IssueIDs []string
}

func encodeState(st *core.TableState) (*record, error) {
	if st == nil || st.Dataset == nil {
		return nil, fmt.Errorf("encode table: missing dataset")
	}
	info := st.Dataset.Info()
	rec := &record{
		TableID:          info.TableID,
		Name:             info.Name,
		RowCount:         info.RowCount,
		ColumnCount:      info.ColumnCount,
		FixCount:         info.FixCount,
		LastOverallScore: info.LastOverallScore,
		UpdatedAt:        info.UpdatedAt,
	}

	parts := []struct {
		dst *[]byte
		v   any
	}{
		{&rec.Dataset, st.Dataset},
		{&rec.Profiles, st.Profiles},
		{&rec.Issues, st.Issues},
		{&rec.Actions, st.Actions},
		{&rec.Snapshots, st.Snapshots},
		{&rec.Baseline, st.Baseline},
	}
	for _, p := range parts {
		b, err := json.Marshal(p.v)
		if err != nil {
			return nil, fmt.Errorf("encode table %s: %w", rec.TableID, err)
		}
		*p.dst = b
	}

	rec.IssueIDs = make([]string, 0, len(st.Issues))
	for _, is := range st.Issues {
		rec.IssueIDs = append(rec.IssueIDs, is.ID)
	}
	return rec, nil
}

func decodeState(rec *record) (*core.TableState, error) {
	st := &core.TableState{}
	parts := []struct {
		src []byte
		v   any
	}{
		{rec.Dataset, &st.Dataset},
		{rec.Profiles, &st.Profiles},
		{rec.Issues, &st.Issues},
		{rec.Actions, &st.Actions},
		{rec.Snapshots, &st.Snapshots},
		{rec.Baseline, &st.Baseline},
	}
	for _, p := range parts {
		if len(p.src) == 0 {
			continue
		}
		if err := json.Unmarshal(p.src, p.v); err != nil {
			return nil, fmt.Errorf("decode table %s: %w", rec.TableID, err)
		}
	}
	if st.Dataset == nil {
		return nil, fmt.Errorf("decode table %s: missing dataset", rec.TableID)
	}
	return st, nil
}

func recordInfo(rec *record) core.DatasetInfo {
	return core.DatasetInfo{
		TableID:          rec.TableID,
		Name:             rec.Name,
		RowCount:         rec.RowCount,
		ColumnCount:      rec.ColumnCount,
		FixCount:         rec.FixCount,
		LastOverallScore: rec.LastOverallScore,
		UpdatedAt:        rec.UpdatedAt,
	}
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, core.ErrNotFound)
}
