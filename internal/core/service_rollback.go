package core

import (
	"context"
	"fmt"
	"log/slog"
)

// ResetTable discards the cleaned overlay and re-analyzes the original rows.
// The reset is recorded in the lineage log like any other action; the fix
// counter is left as is.
func (s *Service) ResetTable(ctx context.Context, tableID string) (*AnalysisResult, error) {
	unlock := s.locks.lock(tableID)
	defer unlock()

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("reset %s: %w", tableID, err)
	}
	defer s.limiter.Release()

	st, err := s.load(ctx, tableID)
	if err != nil {
		return nil, err
	}
	ds := st.Dataset
	current := ds.Current()
	before := CalculateKPIs(st.Profiles, st.Issues, len(current), ds.LastOverallScore)

	profiles, issues, err := s.analyze(ctx, tableID, ds.Original, ds.Columns, st.Issues)
	if err != nil {
		return nil, fmt.Errorf("reset %s: %w", tableID, err)
	}
	after := CalculateKPIs(profiles, issues, len(ds.Original), before.OverallScore)

	now := s.now()
	res := ExecuteResult{
		Rows:           ds.Original,
		AppliedCount:   len(current),
		CandidateCount: len(current),
		Summary:        fmt.Sprintf("Discarded cleaned overlay; restored %d original rows", len(ds.Original)),
	}
	opt := RemediationOption{Action: ActionReset, Method: MethodOriginal}
	action := newAction(tableID, nil, opt, res, metaFromContext(ctx), now)
	snap := newSnapshot(tableID, action.ID, before, after, now)

	next := st.clone()
	next.Dataset.Cleaned = nil
	next.Dataset.LastOverallScore = after.OverallScore
	next.Dataset.UpdatedAt = now
	next.Profiles = profiles
	next.Issues = issues
	s.pushLineage(next, action, snap)

	if err := s.repo.SaveTable(ctx, next); err != nil {
		return nil, fmt.Errorf("reset %s: save: %w", tableID, err)
	}

	slog.Info("table reset", "table_id", tableID, "rows", len(ds.Original), "actor", action.Actor)
	return &AnalysisResult{
		Table:    next.Dataset.Info(),
		Profiles: profiles.Ordered(),
		Issues:   issues,
		KPIs:     after,
	}, nil
}
