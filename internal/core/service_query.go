package core

import (
	"context"
	"fmt"
	"sort"
)

// ListTables returns a summary of every stored table.
func (s *Service) ListTables(ctx context.Context) ([]DatasetInfo, error) {
	infos, err := s.repo.ListTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return infos, nil
}

// GetDataset returns the stored dataset including the cleaned overlay.
func (s *Service) GetDataset(ctx context.Context, tableID string) (*Dataset, error) {
	st, err := s.load(ctx, tableID)
	if err != nil {
		return nil, err
	}
	return st.Dataset, nil
}

// GetProfiles returns the latest column profiles in column order.
func (s *Service) GetProfiles(ctx context.Context, tableID string) ([]ColumnProfile, error) {
	st, err := s.load(ctx, tableID)
	if err != nil {
		return nil, err
	}
	return st.Profiles.Ordered(), nil
}

// IssueFilter narrows ListIssues. Empty fields match everything.
type IssueFilter struct {
	Status   IssueStatus
	Severity Severity
	Type     IssueType
	Column   string
}

func (f IssueFilter) match(is Issue) bool {
	return (f.Status == "" || is.Status == f.Status) &&
		(f.Severity == "" || is.Severity == f.Severity) &&
		(f.Type == "" || is.Type == f.Type) &&
		(f.Column == "" || is.Column == f.Column)
}

// ListIssues returns the table's issues, highest score first.
func (s *Service) ListIssues(ctx context.Context, tableID string, filter IssueFilter) ([]Issue, error) {
	st, err := s.load(ctx, tableID)
	if err != nil {
		return nil, err
	}

	out := make([]Issue, 0, len(st.Issues))
	for _, is := range st.Issues {
		if filter.match(is) {
			out = append(out, is)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out, nil
}

// GetIssue returns a single issue by id.
func (s *Service) GetIssue(ctx context.Context, issueID string) (*Issue, error) {
	tableID, err := s.locate(ctx, issueID)
	if err != nil {
		return nil, err
	}
	st, i, err := s.loadIssue(ctx, tableID, issueID)
	if err != nil {
		return nil, err
	}
	is := st.Issues[i]
	return &is, nil
}

// ListRemediationOptions returns the catalog entries for an issue, with
// examples rendered against the table's current state.
func (s *Service) ListRemediationOptions(ctx context.Context, issueID string) ([]RemediationOption, error) {
	tableID, err := s.locate(ctx, issueID)
	if err != nil {
		return nil, err
	}
	st, i, err := s.loadIssue(ctx, tableID, issueID)
	if err != nil {
		return nil, err
	}
	return Options(st.Issues[i], st.Profiles, st.Dataset.Current()), nil
}

// GetKPIs computes the quality index of the table's current state.
func (s *Service) GetKPIs(ctx context.Context, tableID string) (KPISet, error) {
	st, err := s.load(ctx, tableID)
	if err != nil {
		return KPISet{}, err
	}
	return currentKPIs(st), nil
}

func currentKPIs(st *TableState) KPISet {
	return CalculateKPIs(st.Profiles, st.Issues, len(st.Dataset.Current()), st.Dataset.LastOverallScore)
}

// GetComparison contrasts the ingested dataset with its current state.
func (s *Service) GetComparison(ctx context.Context, tableID string) (*Comparison, error) {
	st, err := s.load(ctx, tableID)
	if err != nil {
		return nil, err
	}
	snaps := st.Snapshots
	if snaps == nil {
		snaps = []KPISnapshot{}
	}
	return &Comparison{
		TableID:   tableID,
		Original:  st.Baseline,
		Current:   currentKPIs(st),
		Snapshots: snaps,
	}, nil
}

// ListActions returns the lineage log, most recent first.
func (s *Service) ListActions(ctx context.Context, tableID string) ([]RemediationAction, error) {
	st, err := s.load(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if st.Actions == nil {
		return []RemediationAction{}, nil
	}
	return st.Actions, nil
}

// ScoringConfig returns the live scoring configuration.
func (s *Service) ScoringConfig() ScoringConfig {
	return s.scoring.Get()
}
