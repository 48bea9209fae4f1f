package core

import (
	"context"
	"fmt"
	"log/slog"
)

// RemediationResult is returned by ApplyRemediation.
type RemediationResult struct {
	AppliedCount int               `json:"appliedCount"`
	Summary      string            `json:"summary"`
	Action       RemediationAction `json:"action"`
	Snapshot     KPISnapshot       `json:"snapshot"`
	Issues       []Issue           `json:"issues"`
}

// ApplyRemediation executes a catalog option against the table's current
// rows. The cleaned copy, the refreshed issues and the lineage entries are
// committed together; on any error nothing is saved.
func (s *Service) ApplyRemediation(ctx context.Context, tableID, issueID, optionID string) (*RemediationResult, error) {
	unlock := s.locks.lock(tableID)
	defer unlock()

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("apply remediation: %w", err)
	}
	defer s.limiter.Release()

	st, i, err := s.loadIssue(ctx, tableID, issueID)
	if err != nil {
		return nil, err
	}
	issue := st.Issues[i]
	ds := st.Dataset
	current := ds.Current()

	opt, ok := FindOption(Options(issue, st.Profiles, current), optionID)
	if !ok {
		return nil, fmt.Errorf("apply remediation: %w: %q for %s issue", ErrInvalidOption, optionID, issue.Type)
	}

	res, err := Execute(ds.Original, current, issue, opt)
	if err != nil {
		return nil, fmt.Errorf("apply remediation: %w", err)
	}

	before := CalculateKPIs(st.Profiles, st.Issues, len(current), ds.LastOverallScore)

	profiles, issues, err := s.analyze(ctx, tableID, res.Rows, ds.Columns, st.Issues)
	if err != nil {
		return nil, fmt.Errorf("apply remediation: %w", err)
	}
	issues = settleRemediated(issues, issue, opt)

	after := CalculateKPIs(profiles, issues, len(res.Rows), before.OverallScore)

	now := s.now()
	action := newAction(tableID, &issue, opt, res, metaFromContext(ctx), now)
	snap := newSnapshot(tableID, action.ID, before, after, now)

	next := st.clone()
	next.Dataset.Cleaned = res.Rows
	next.Dataset.FixCount++
	next.Dataset.LastOverallScore = after.OverallScore
	next.Dataset.UpdatedAt = now
	next.Profiles = profiles
	next.Issues = issues
	s.pushLineage(next, action, snap)

	if err := s.repo.SaveTable(ctx, next); err != nil {
		return nil, fmt.Errorf("apply remediation: save: %w", err)
	}

	slog.Info("remediation applied",
		"table_id", tableID,
		"issue_id", issueID,
		"option", optionID,
		"applied", res.AppliedCount,
		"candidates", res.CandidateCount,
		"overall_before", before.OverallScore,
		"overall_after", after.OverallScore,
		"actor", action.Actor,
	)

	return &RemediationResult{
		AppliedCount: res.AppliedCount,
		Summary:      res.Summary,
		Action:       action,
		Snapshot:     snap,
		Issues:       issues,
	}, nil
}

// settleRemediated decides the remediated issue's place in the new issue
// list. If detection found it again it stays (open); otherwise it is kept
// as resolved so the lineage entry can still point at it. Flagging never
// resolves an issue.
func settleRemediated(issues []Issue, remediated Issue, opt RemediationOption) []Issue {
	for _, is := range issues {
		if is.ID == remediated.ID {
			return issues
		}
	}
	if opt.Action == ActionFlag {
		remediated.Status = StatusOpen
	} else {
		remediated.Status = StatusResolved
	}
	return append(issues, remediated)
}

// Suggestion is optional advisory text for an issue.
type Suggestion struct {
	IssueID string `json:"issueId"`
	Text    string `json:"text"`
	Source  string `json:"source,omitempty"`
}

// SuggestFix asks the configured Advisor for a narrative suggestion. The
// call is bounded by the advisory timeout; provider failures are logged and
// produce an empty suggestion rather than an error.
func (s *Service) SuggestFix(ctx context.Context, issueID string) (*Suggestion, error) {
	tableID, err := s.locate(ctx, issueID)
	if err != nil {
		return nil, err
	}
	st, i, err := s.loadIssue(ctx, tableID, issueID)
	if err != nil {
		return nil, err
	}

	out := &Suggestion{IssueID: issueID}
	if s.advisor == nil {
		return out, nil
	}

	issue := st.Issues[i]
	req := SuggestionRequest{
		TableName: st.Dataset.Name,
		RowCount:  len(st.Dataset.Current()),
		Issue:     issue,
		Options:   Options(issue, st.Profiles, st.Dataset.Current()),
	}
	if p, ok := st.Profiles[issue.Column]; ok {
		req.Profile = &p
	}

	actx, cancel := context.WithTimeout(ctx, s.advisoryTimeout)
	defer cancel()

	text, err := s.advisor.Suggest(actx, req)
	if err != nil {
		slog.Warn("advisory suggestion failed", "issue_id", issueID, "error", err)
		return out, nil
	}
	out.Text = text
	out.Source = "advisor"
	return out, nil
}
