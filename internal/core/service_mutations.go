package core

import (
	"context"
	"fmt"
	"log/slog"
	"math"
)

// SetScoringConfig merges patch into the live configuration. Invalid results
// are rejected with ErrInvalidConfig and leave the configuration unchanged.
//
// Stored issues keep the score and severity they were given under the old
// thresholds. Only a later scoring pass applies the new values: Analyze,
// ApplyRemediation, ResetTable, clearing an override, or RescoreOpenIssues
// when the rescore scheduler is enabled.
func (s *Service) SetScoringConfig(patch ScoringConfigPatch) (ScoringConfig, error) {
	cfg, err := s.scoring.Update(patch)
	if err != nil {
		return cfg, fmt.Errorf("set scoring config: %w", err)
	}
	slog.Info("scoring config updated",
		"high_threshold", cfg.HighThreshold,
		"medium_threshold", cfg.MediumThreshold,
		"decay_max_days", cfg.DecayMaxDays,
		"decay_min_factor", cfg.DecayMinFactor,
	)
	return cfg, nil
}

// OverrideRequest sets a manual severity and/or score on an issue.
type OverrideRequest struct {
	Severity Severity `json:"severity,omitempty"`
	Score    *float64 `json:"score,omitempty"`
	Reason   string   `json:"reason"`
}

// Validate checks that at least one value is set and both are in range.
func (r OverrideRequest) Validate() error {
	if r.Severity == "" && r.Score == nil {
		return fmt.Errorf("%w: override needs a severity or a score", ErrInvalidInput)
	}
	if r.Severity != "" && !r.Severity.Valid() {
		return fmt.Errorf("%w: unknown severity %q", ErrInvalidInput, r.Severity)
	}
	if r.Score != nil {
		v := *r.Score
		if math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("%w: override score must be between 0 and 1", ErrInvalidInput)
		}
	}
	return nil
}

// SetIssueOverride replaces any existing override on the issue.
func (s *Service) SetIssueOverride(ctx context.Context, issueID string, req OverrideRequest) (*Issue, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	return s.updateIssue(ctx, issueID, func(is *Issue) bool {
		o := &Override{
			Severity: req.Severity,
			Reason:   req.Reason,
			Actor:    GetActorFromContext(ctx),
			At:       s.now(),
		}
		if req.Score != nil {
			v := *req.Score
			o.Score = &v
		}
		is.Override = o
		s.rescore(is, s.scoring.Get(), s.now())
		slog.Info("issue override set",
			"issue_id", is.ID,
			"severity", is.Severity,
			"score", is.Score,
			"actor", o.Actor,
		)
		return true
	})
}

// ClearIssueOverride removes the override and rescores the issue from its
// stored inputs. Clearing an issue without an override is a no-op.
func (s *Service) ClearIssueOverride(ctx context.Context, issueID string) (*Issue, error) {
	return s.updateIssue(ctx, issueID, func(is *Issue) bool {
		if is.Override == nil {
			return false
		}
		is.Override = nil
		s.rescore(is, s.scoring.Get(), s.now())
		slog.Info("issue override cleared", "issue_id", is.ID, "score", is.Score)
		return true
	})
}

// SetIssueStatus moves an issue through its workflow.
func (s *Service) SetIssueStatus(ctx context.Context, issueID string, status IssueStatus) (*Issue, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	return s.updateIssue(ctx, issueID, func(is *Issue) bool {
		if is.Status == status {
			return false
		}
		is.Status = status
		return true
	})
}

// updateIssue applies fn to one issue under the table lock and saves the
// table when fn reports a change.
func (s *Service) updateIssue(ctx context.Context, issueID string, fn func(is *Issue) bool) (*Issue, error) {
	tableID, err := s.locate(ctx, issueID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(tableID)
	defer unlock()

	st, i, err := s.loadIssue(ctx, tableID, issueID)
	if err != nil {
		return nil, err
	}

	next := st.clone()
	is := &next.Issues[i]
	if !fn(is) {
		out := *is
		return &out, nil
	}
	if err := s.repo.SaveTable(ctx, next); err != nil {
		return nil, fmt.Errorf("update issue %s: %w", issueID, err)
	}
	out := *is
	return &out, nil
}

// DeleteTable removes a table and its history.
func (s *Service) DeleteTable(ctx context.Context, tableID string) error {
	unlock := s.locks.lock(tableID)
	defer unlock()

	if err := s.repo.DeleteTable(ctx, tableID); err != nil {
		if isNotFound(err) {
			return tableNotFound(tableID)
		}
		return fmt.Errorf("delete table %s: %w", tableID, err)
	}
	slog.Info("table deleted", "table_id", tableID)
	return nil
}
