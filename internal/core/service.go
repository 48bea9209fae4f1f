package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// AnalysisTimeout bounds a single profile and detect pass.
var AnalysisTimeout = 5 * time.Minute

// DefaultAdvisoryTimeout bounds a call to the suggestion provider.
const DefaultAdvisoryTimeout = 15 * time.Second

// Advisor produces a free-text remediation suggestion for an issue. It is
// optional and may fail; failures never affect detection or remediation.
type Advisor interface {
	Suggest(ctx context.Context, req SuggestionRequest) (string, error)
}

// SuggestionRequest is the context handed to an Advisor.
type SuggestionRequest struct {
	TableName string              `json:"tableName"`
	RowCount  int                 `json:"rowCount"`
	Issue     Issue               `json:"issue"`
	Profile   *ColumnProfile      `json:"profile,omitempty"`
	Options   []RemediationOption `json:"options"`
}

// ServiceConfig wires optional collaborators. Zero values get defaults.
type ServiceConfig struct {
	Scoring         *ScoringConfigStore
	Advisor         Advisor
	LineageCapacity int
	MaxConcurrent   int
	MaxWait         time.Duration
	AdvisoryTimeout time.Duration
	Clock           func() time.Time
}

// Service is the entry point for every engine operation.
type Service struct {
	repo            Repository
	scoring         *ScoringConfigStore
	advisor         Advisor
	lineageCapacity int
	advisoryTimeout time.Duration
	now             func() time.Time

	limiter *JobLimiter
	locks   *tableLocks
}

// NewService creates a Service backed by repo.
func NewService(repo Repository, cfg ServiceConfig) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("new service: repository is required")
	}
	if cfg.Scoring == nil {
		store, err := NewScoringConfigStore(DefaultScoringConfig())
		if err != nil {
			return nil, fmt.Errorf("new service: %w", err)
		}
		cfg.Scoring = store
	}
	if cfg.LineageCapacity < 1 {
		cfg.LineageCapacity = DefaultLineageCapacity
	}
	if cfg.AdvisoryTimeout <= 0 {
		cfg.AdvisoryTimeout = DefaultAdvisoryTimeout
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	return &Service{
		repo:            repo,
		scoring:         cfg.Scoring,
		advisor:         cfg.Advisor,
		lineageCapacity: cfg.LineageCapacity,
		advisoryTimeout: cfg.AdvisoryTimeout,
		now:             cfg.Clock,
		limiter:         NewJobLimiter(cfg.MaxConcurrent, cfg.MaxWait),
		locks:           newTableLocks(),
	}, nil
}

// Limiter exposes the analysis limiter for status reporting and shutdown.
func (s *Service) Limiter() *JobLimiter {
	return s.limiter
}

// Profile computes column profiles for rows.
func (s *Service) Profile(rows []Row) Profiles {
	return Profile(rows)
}

// Detect runs all detectors and returns unscored candidates.
func (s *Service) Detect(rows []Row, profiles Profiles) []Issue {
	return Detect(rows, profiles)
}

// Score scores a candidate with the live configuration.
func (s *Service) Score(candidate Issue, totalRows int, detectedAt time.Time) ScoreResult {
	return Score(ScoreInputFor(candidate, totalRows, detectedAt), s.scoring.Get(), s.now())
}

// AnalysisResult is the outcome of an ingest or analysis pass.
type AnalysisResult struct {
	Table    DatasetInfo     `json:"table"`
	Profiles []ColumnProfile `json:"profiles"`
	Issues   []Issue         `json:"issues"`
	KPIs     KPISet          `json:"kpis"`
}

// Ingest stores a new dataset and runs the first analysis pass over it.
// columns fixes the column order; when empty it is derived from rows.
func (s *Service) Ingest(ctx context.Context, name string, columns []string, rows []Row) (*Dataset, error) {
	if len(columns) == 0 {
		columns = ColumnsOf(rows)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("ingest %q: %w", name, ErrNoColumns)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("ingest %q: %w", name, err)
	}
	defer s.limiter.Release()

	now := s.now()
	ds := &Dataset{
		TableID:   uuid.NewString(),
		Name:      name,
		Columns:   columns,
		Original:  copyRows(rows),
		CreatedAt: now,
		UpdatedAt: now,
	}

	profiles, issues, err := s.analyze(ctx, ds.TableID, ds.Original, columns, nil)
	if err != nil {
		return nil, fmt.Errorf("ingest %q: %w", name, err)
	}
	kpis := CalculateKPIs(profiles, issues, len(ds.Original), 0)
	ds.LastOverallScore = kpis.OverallScore

	state := &TableState{
		Dataset:   ds,
		Profiles:  profiles,
		Issues:    issues,
		Actions:   []RemediationAction{},
		Snapshots: []KPISnapshot{},
		Baseline:  kpis,
	}
	if err := s.repo.SaveTable(ctx, state); err != nil {
		return nil, fmt.Errorf("ingest %q: save: %w", name, err)
	}

	slog.Info("dataset ingested",
		"table_id", ds.TableID,
		"name", name,
		"rows", len(ds.Original),
		"columns", len(columns),
		"issues", len(issues),
		"overall_score", kpis.OverallScore,
	)
	return ds, nil
}

// Analyze re-profiles and re-detects the table's current rows. Issues that
// are found again keep their id, detection time, status and override.
func (s *Service) Analyze(ctx context.Context, tableID string) (*AnalysisResult, error) {
	unlock := s.locks.lock(tableID)
	defer unlock()

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("analyze %s: %w", tableID, err)
	}
	defer s.limiter.Release()

	st, err := s.load(ctx, tableID)
	if err != nil {
		return nil, err
	}

	rows := st.Dataset.Current()
	profiles, issues, err := s.analyze(ctx, tableID, rows, st.Dataset.Columns, st.Issues)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", tableID, err)
	}
	kpis := CalculateKPIs(profiles, issues, len(rows), st.Dataset.LastOverallScore)

	next := st.clone()
	next.Profiles = profiles
	next.Issues = issues
	next.Dataset.LastOverallScore = kpis.OverallScore
	next.Dataset.UpdatedAt = s.now()
	if err := s.repo.SaveTable(ctx, next); err != nil {
		return nil, fmt.Errorf("analyze %s: save: %w", tableID, err)
	}

	slog.Info("table analyzed", "table_id", tableID, "rows", len(rows), "issues", len(issues))
	return &AnalysisResult{
		Table:    next.Dataset.Info(),
		Profiles: profiles.Ordered(),
		Issues:   issues,
		KPIs:     kpis,
	}, nil
}

// analyze runs profile, detect and score over rows. prev is the issue list
// of the previous pass and supplies identity for issues found again.
func (s *Service) analyze(ctx context.Context, tableID string, rows []Row, columns []string, prev []Issue) (Profiles, []Issue, error) {
	ctx, cancel := context.WithTimeout(ctx, AnalysisTimeout)
	defer cancel()

	now := s.now()
	profiles := ProfileColumns(rows, columns)
	candidates, err := DetectContext(ctx, DetectInput{Rows: rows, Profiles: profiles, Now: now})
	if err != nil {
		return nil, nil, err
	}

	carried := carryIndex(prev)
	cfg := s.scoring.Get()
	issues := make([]Issue, 0, len(candidates))
	for _, is := range candidates {
		is.TableID = tableID
		if old, ok := carried[is.fingerprint()]; ok {
			is.ID = old.ID
			is.DetectedAt = old.DetectedAt
			is.Override = old.Override
			is.Status = old.Status
			if is.Status == StatusResolved {
				is.Status = StatusOpen
			}
		} else {
			is.ID = uuid.NewString()
			is.DetectedAt = now
			is.Status = StatusOpen
		}
		is.Inputs = ScoreInputFor(is, len(rows), is.DetectedAt)
		s.rescore(&is, cfg, now)
		issues = append(issues, is)
	}
	return profiles, issues, nil
}

// carryIndex maps fingerprints to the previous issue. Unresolved issues win
// over resolved ones with the same fingerprint.
func carryIndex(prev []Issue) map[string]Issue {
	idx := make(map[string]Issue, len(prev))
	for _, is := range prev {
		fp := is.fingerprint()
		if old, ok := idx[fp]; ok && old.Status != StatusResolved {
			continue
		}
		idx[fp] = is
	}
	return idx
}

// rescore recomputes the issue's score from its stored inputs and then
// applies any manual override on top.
func (s *Service) rescore(is *Issue, cfg ScoringConfig, now time.Time) {
	res := Score(is.Inputs, cfg, now)
	applyScore(is, res)
	applyOverride(is, cfg)
	slog.Debug("issue scored",
		"issue_id", is.ID,
		"type", is.Type,
		"column", is.Column,
		"score", is.Score,
		"severity", is.Severity,
		"factors", res.Breakdown.Factors,
	)
}

// applyOverride makes a manual override visible in the issue's score and severity.
func applyOverride(is *Issue, cfg ScoringConfig) {
	if is.Override == nil {
		return
	}
	if is.Override.Score != nil {
		is.Score = *is.Override.Score
		is.Severity = cfg.SeverityFor(is.Score)
	}
	if is.Override.Severity != "" {
		is.Severity = is.Override.Severity
	}
}

// load fetches a table, mapping a missing table to ErrTableNotFound.
func (s *Service) load(ctx context.Context, tableID string) (*TableState, error) {
	st, err := s.repo.LoadTable(ctx, tableID)
	if err != nil {
		if isNotFound(err) {
			return nil, tableNotFound(tableID)
		}
		return nil, fmt.Errorf("load table %s: %w", tableID, err)
	}
	return st, nil
}

// locate finds the table that owns issueID.
func (s *Service) locate(ctx context.Context, issueID string) (string, error) {
	tableID, err := s.repo.FindIssueTable(ctx, issueID)
	if err != nil {
		if isNotFound(err) {
			return "", issueNotFound(issueID)
		}
		return "", fmt.Errorf("find issue %s: %w", issueID, err)
	}
	return tableID, nil
}

// loadIssue loads the owning table and the issue's position in it.
func (s *Service) loadIssue(ctx context.Context, tableID, issueID string) (*TableState, int, error) {
	st, err := s.load(ctx, tableID)
	if err != nil {
		return nil, -1, err
	}
	i := st.issueIndex(issueID)
	if i < 0 {
		return nil, -1, issueNotFound(issueID)
	}
	return st, i, nil
}

// pushLineage appends an action and its snapshot to the bounded history.
func (s *Service) pushLineage(st *TableState, action RemediationAction, snap KPISnapshot) {
	st.Actions = RingFrom(s.lineageCapacity, st.Actions).Push(action).Items()
	st.Snapshots = RingFrom(s.lineageCapacity, st.Snapshots).Push(snap).Items()
}
