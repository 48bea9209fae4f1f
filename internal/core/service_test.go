package core_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/dataquality/internal/core"
	"github.com/JonMunkholm/dataquality/internal/store"
)

// testClock is a settable clock shared with the service under test.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestService(t *testing.T, cfg core.ServiceConfig) (*core.Service, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)}
	cfg.Clock = clock.Now
	svc, err := core.NewService(store.NewMemory(), cfg)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, clock
}

func customerRows() ([]string, []core.Row) {
	return []string{"id", "name", "email", "amount"}, []core.Row{
		{"id": 1, "name": "ann", "email": "ann@example.com", "amount": 10.0},
		{"id": 2, "name": "bob", "email": "bob@example.com", "amount": nil},
		{"id": 3, "name": "cid", "email": "not-an-email", "amount": 30.0},
		{"id": 4, "name": "dan", "email": "dan@example.com", "amount": 20.0},
	}
}

func ingestCustomers(t *testing.T, svc *core.Service) *core.Dataset {
	t.Helper()
	cols, rows := customerRows()
	ds, err := svc.Ingest(context.Background(), "customers", cols, rows)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	return ds
}

func issueByTitle(t *testing.T, svc *core.Service, tableID, title string) core.Issue {
	t.Helper()
	issues, err := svc.ListIssues(context.Background(), tableID, core.IssueFilter{})
	if err != nil {
		t.Fatalf("ListIssues: %v", err)
	}
	for _, is := range issues {
		if is.Title == title {
			return is
		}
	}
	t.Fatalf("no issue %q", title)
	return core.Issue{}
}

func TestService_IngestDetectsAndScores(t *testing.T) {
	svc, _ := newTestService(t, core.ServiceConfig{})
	ds := ingestCustomers(t, svc)
	ctx := context.Background()

	issues, err := svc.ListIssues(ctx, ds.TableID, core.IssueFilter{})
	if err != nil {
		t.Fatalf("ListIssues: %v", err)
	}
	if len(issues) != 2 {
		t.Fatalf("len(issues) = %d, want 2: %+v", len(issues), issues)
	}
	for i, is := range issues {
		if is.ID == "" || is.TableID != ds.TableID {
			t.Errorf("issue %d missing identity: %+v", i, is)
		}
		if is.Score < 0 || is.Score > 1 || !is.Severity.Valid() {
			t.Errorf("issue %d score/severity = %v/%q", i, is.Score, is.Severity)
		}
		if i > 0 && issues[i-1].Score < is.Score {
			t.Errorf("issues not sorted by score: %v before %v", issues[i-1].Score, is.Score)
		}
	}

	missing := issueByTitle(t, svc, ds.TableID, "Missing values in amount")
	if missing.ImpactScore != 25 || missing.RecordCount != 1 {
		t.Errorf("missing impact/count = %v/%d, want 25/1", missing.ImpactScore, missing.RecordCount)
	}
	if want := 4.0 / 25; math.Abs(missing.Score-want) > 1e-9 {
		t.Errorf("missing Score = %v, want %v", missing.Score, want)
	}

	filtered, _ := svc.ListIssues(ctx, ds.TableID, core.IssueFilter{Type: core.IssueInvalid})
	if len(filtered) != 1 || filtered[0].Column != "email" {
		t.Errorf("invalid filter = %+v, want the email issue", filtered)
	}

	profiles, err := svc.GetProfiles(ctx, ds.TableID)
	if err != nil || len(profiles) != 4 || profiles[0].Name != "id" {
		t.Errorf("GetProfiles = %v, %v", profiles, err)
	}

	tables, err := svc.ListTables(ctx)
	if err != nil || len(tables) != 1 || tables[0].RowCount != 4 {
		t.Errorf("ListTables = %+v, %v", tables, err)
	}
}

func TestService_IngestNoColumns(t *testing.T) {
	svc, _ := newTestService(t, core.ServiceConfig{})
	if _, err := svc.Ingest(context.Background(), "empty", nil, nil); !errors.Is(err, core.ErrNoColumns) {
		t.Errorf("err = %v, want ErrNoColumns", err)
	}

	ds, err := svc.Ingest(context.Background(), "header-only", []string{"a", "b"}, nil)
	if err != nil {
		t.Fatalf("Ingest header-only: %v", err)
	}
	kpis, err := svc.GetKPIs(context.Background(), ds.TableID)
	if err != nil {
		t.Fatalf("GetKPIs: %v", err)
	}
	if kpis.RowCount != 0 || kpis.IssueCounts.Total != 0 {
		t.Errorf("KPIs = %+v, want empty table", kpis)
	}
}

func TestService_ApplyRemediation(t *testing.T) {
	svc, _ := newTestService(t, core.ServiceConfig{})
	ds := ingestCustomers(t, svc)
	missing := issueByTitle(t, svc, ds.TableID, "Missing values in amount")
	email := issueByTitle(t, svc, ds.TableID, "Invalid email addresses in email")

	ctx := core.ContextWithActor(context.Background(), "alice")
	res, err := svc.ApplyRemediation(ctx, ds.TableID, missing.ID, "impute-mean")
	if err != nil {
		t.Fatalf("ApplyRemediation: %v", err)
	}
	if res.AppliedCount != 1 {
		t.Errorf("AppliedCount = %d, want 1", res.AppliedCount)
	}
	if res.Action.Actor != "alice" || res.Action.IssueID != missing.ID || res.Action.OptionID != "impute-mean" {
		t.Errorf("Action = %+v", res.Action)
	}
	if res.Snapshot.Improvement != core.Diff(res.Snapshot.Before, res.Snapshot.After) {
		t.Errorf("Improvement = %+v, want after minus before", res.Snapshot.Improvement)
	}
	if res.Snapshot.After.Completeness <= res.Snapshot.Before.Completeness {
		t.Errorf("Completeness %v -> %v, want improvement", res.Snapshot.Before.Completeness, res.Snapshot.After.Completeness)
	}

	stored, err := svc.GetDataset(context.Background(), ds.TableID)
	if err != nil {
		t.Fatalf("GetDataset: %v", err)
	}
	if stored.Original[1]["amount"] != nil {
		t.Errorf("original row changed: %v", stored.Original[1])
	}
	if got := stored.Cleaned[1]["amount"]; got != 20.0 {
		t.Errorf("cleaned amount = %v, want 20", got)
	}
	if stored.FixCount != 1 || !stored.HasOverlay() {
		t.Errorf("FixCount/HasOverlay = %d/%v, want 1/true", stored.FixCount, stored.HasOverlay())
	}

	resolved, err := svc.GetIssue(context.Background(), missing.ID)
	if err != nil {
		t.Fatalf("GetIssue remediated: %v", err)
	}
	if resolved.Status != core.StatusResolved {
		t.Errorf("remediated Status = %q, want %q", resolved.Status, core.StatusResolved)
	}
	again, err := svc.GetIssue(context.Background(), email.ID)
	if err != nil || again.Status != core.StatusOpen {
		t.Errorf("email issue after remediation = %+v, %v; want same id still open", again, err)
	}

	actions, _ := svc.ListActions(context.Background(), ds.TableID)
	if len(actions) != 1 || len(actions[0].Changes) != 1 {
		t.Fatalf("actions = %+v, want one action with one change", actions)
	}
	if c := actions[0].Changes[0]; c.Row != "2" || c.Column != "amount" || c.After != 20.0 {
		t.Errorf("change = %+v", c)
	}

	cmp, err := svc.GetComparison(context.Background(), ds.TableID)
	if err != nil {
		t.Fatalf("GetComparison: %v", err)
	}
	if len(cmp.Snapshots) != 1 || cmp.Current.Completeness != 100 || cmp.Original.Completeness == 100 {
		t.Errorf("comparison = %+v", cmp)
	}
}

func TestService_ApplyRemediationErrors(t *testing.T) {
	svc, _ := newTestService(t, core.ServiceConfig{})
	ds := ingestCustomers(t, svc)
	missing := issueByTitle(t, svc, ds.TableID, "Missing values in amount")
	ctx := context.Background()

	tests := []struct {
		name    string
		tableID string
		issueID string
		option  string
		want    error
	}{
		{"option not offered", ds.TableID, missing.ID, "hash", core.ErrInvalidOption},
		{"unknown option", ds.TableID, missing.ID, "nope", core.ErrInvalidOption},
		{"unknown issue", ds.TableID, "missing-issue", "impute-mean", core.ErrIssueNotFound},
		{"unknown table", "missing-table", missing.ID, "impute-mean", core.ErrTableNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ApplyRemediation(ctx, tt.tableID, tt.issueID, tt.option)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	stored, _ := svc.GetDataset(ctx, ds.TableID)
	if stored.HasOverlay() || stored.FixCount != 0 {
		t.Errorf("failed remediations changed the table: FixCount %d overlay %v", stored.FixCount, stored.HasOverlay())
	}
	if actions, _ := svc.ListActions(ctx, ds.TableID); len(actions) != 0 {
		t.Errorf("failed remediations wrote lineage: %+v", actions)
	}
}

func TestService_FlagKeepsIssueOpen(t *testing.T) {
	svc, _ := newTestService(t, core.ServiceConfig{LineageCapacity: 2})
	ds := ingestCustomers(t, svc)
	missing := issueByTitle(t, svc, ds.TableID, "Missing values in amount")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := svc.ApplyRemediation(ctx, ds.TableID, missing.ID, "manual-review")
		if err != nil {
			t.Fatalf("ApplyRemediation %d: %v", i, err)
		}
		if res.AppliedCount != missing.RecordCount {
			t.Errorf("AppliedCount = %d, want %d", res.AppliedCount, missing.RecordCount)
		}
	}

	is, err := svc.GetIssue(ctx, missing.ID)
	if err != nil || !is.IsOpen() {
		t.Errorf("flagged issue = %+v, %v; want open", is, err)
	}
	actions, _ := svc.ListActions(ctx, ds.TableID)
	if len(actions) != 2 {
		t.Errorf("len(actions) = %d, want capacity 2", len(actions))
	}
	cmp, _ := svc.GetComparison(ctx, ds.TableID)
	if len(cmp.Snapshots) != 2 {
		t.Errorf("len(snapshots) = %d, want capacity 2", len(cmp.Snapshots))
	}
	stored, _ := svc.GetDataset(ctx, ds.TableID)
	if stored.FixCount != 3 {
		t.Errorf("FixCount = %d, want 3", stored.FixCount)
	}
}

func TestService_ResetTable(t *testing.T) {
	svc, _ := newTestService(t, core.ServiceConfig{})
	ds := ingestCustomers(t, svc)
	missing := issueByTitle(t, svc, ds.TableID, "Missing values in amount")
	ctx := context.Background()

	if _, err := svc.ApplyRemediation(ctx, ds.TableID, missing.ID, "delete-row"); err != nil {
		t.Fatalf("ApplyRemediation: %v", err)
	}
	res, err := svc.ResetTable(ctx, ds.TableID)
	if err != nil {
		t.Fatalf("ResetTable: %v", err)
	}
	if res.Table.RowCount != 4 {
		t.Errorf("RowCount after reset = %d, want 4", res.Table.RowCount)
	}

	stored, _ := svc.GetDataset(ctx, ds.TableID)
	if stored.HasOverlay() || stored.FixCount != 1 {
		t.Errorf("after reset overlay=%v FixCount=%d, want false/1", stored.HasOverlay(), stored.FixCount)
	}
	actions, _ := svc.ListActions(ctx, ds.TableID)
	if len(actions) != 2 || actions[0].Action != core.ActionReset {
		t.Fatalf("actions = %+v, want reset first", actions)
	}

	again := issueByTitle(t, svc, ds.TableID, "Missing values in amount")
	if again.ID != missing.ID || again.Status != core.StatusOpen {
		t.Errorf("missing issue after reset = %+v, want same id reopened", again)
	}
}

func TestService_AnalyzeKeepsIdentity(t *testing.T) {
	svc, clock := newTestService(t, core.ServiceConfig{})
	ds := ingestCustomers(t, svc)
	missing := issueByTitle(t, svc, ds.TableID, "Missing values in amount")

	clock.Advance(time.Hour)
	res, err := svc.Analyze(context.Background(), ds.TableID)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	found := false
	for _, is := range res.Issues {
		if is.ID == missing.ID {
			found = true
			if !is.DetectedAt.Equal(missing.DetectedAt) {
				t.Errorf("DetectedAt = %v, want %v", is.DetectedAt, missing.DetectedAt)
			}
		}
	}
	if !found {
		t.Error("re-analysis assigned a new id to an unchanged issue")
	}
}

func TestService_OverrideRoundTrip(t *testing.T) {
	svc, _ := newTestService(t, core.ServiceConfig{})
	ds := ingestCustomers(t, svc)
	missing := issueByTitle(t, svc, ds.TableID, "Missing values in amount")
	ctx := core.ContextWithActor(context.Background(), "bob")

	score := 0.9
	got, err := svc.SetIssueOverride(ctx, missing.ID, core.OverrideRequest{Score: &score, Reason: "finance relies on it"})
	if err != nil {
		t.Fatalf("SetIssueOverride: %v", err)
	}
	if got.Score != 0.9 || got.Severity != core.SeverityHigh {
		t.Errorf("overridden = %v/%q, want 0.9/high", got.Score, got.Severity)
	}
	if got.Override == nil || got.Override.Actor != "bob" {
		t.Errorf("Override = %+v, want actor bob", got.Override)
	}

	got, err = svc.SetIssueOverride(ctx, missing.ID, core.OverrideRequest{Severity: core.SeverityMedium})
	if err != nil {
		t.Fatalf("SetIssueOverride severity: %v", err)
	}
	if got.Severity != core.SeverityMedium || got.Score != missing.Score {
		t.Errorf("severity override = %v/%q, want %v/medium", got.Score, got.Severity, missing.Score)
	}

	cleared, err := svc.ClearIssueOverride(ctx, missing.ID)
	if err != nil {
		t.Fatalf("ClearIssueOverride: %v", err)
	}
	if cleared.Override != nil || cleared.Score != missing.Score || cleared.Severity != missing.Severity {
		t.Errorf("cleared = %v/%q/%v, want %v/%q/nil", cleared.Score, cleared.Severity, cleared.Override, missing.Score, missing.Severity)
	}

	if _, err := svc.SetIssueOverride(ctx, missing.ID, core.OverrideRequest{}); !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("empty override err = %v, want ErrInvalidInput", err)
	}
	if _, err := svc.ClearIssueOverride(ctx, "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("clear unknown err = %v, want ErrNotFound", err)
	}
}

func TestService_SetIssueStatus(t *testing.T) {
	svc, _ := newTestService(t, core.ServiceConfig{})
	ds := ingestCustomers(t, svc)
	email := issueByTitle(t, svc, ds.TableID, "Invalid email addresses in email")
	ctx := context.Background()

	if _, err := svc.SetIssueStatus(ctx, email.ID, "bogus"); !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("bogus status err = %v, want ErrInvalidInput", err)
	}
	before, _ := svc.GetKPIs(ctx, ds.TableID)
	if _, err := svc.SetIssueStatus(ctx, email.ID, core.StatusDismissed); err != nil {
		t.Fatalf("SetIssueStatus: %v", err)
	}
	after, _ := svc.GetKPIs(ctx, ds.TableID)
	if after.IssueCounts.Total != before.IssueCounts.Total-1 {
		t.Errorf("open issues %d -> %d, want one fewer", before.IssueCounts.Total, after.IssueCounts.Total)
	}
	if after.Validity <= before.Validity {
		t.Errorf("Validity %v -> %v, want increase once dismissed", before.Validity, after.Validity)
	}
}

func TestService_ScoringConfig(t *testing.T) {
	svc, _ := newTestService(t, core.ServiceConfig{})
	ds := ingestCustomers(t, svc)
	ctx := context.Background()

	bad := 0.9
	if _, err := svc.SetScoringConfig(core.ScoringConfigPatch{MediumThreshold: &bad}); !errors.Is(err, core.ErrInvalidConfig) {
		t.Fatalf("err = %v, want ErrInvalidConfig", err)
	}
	if svc.ScoringConfig() != core.DefaultScoringConfig() {
		t.Errorf("rejected patch changed config: %+v", svc.ScoringConfig())
	}

	medium := 0.1
	cfg, err := svc.SetScoringConfig(core.ScoringConfigPatch{MediumThreshold: &medium})
	if err != nil {
		t.Fatalf("SetScoringConfig: %v", err)
	}
	if cfg.MediumThreshold != 0.1 || svc.ScoringConfig().MediumThreshold != 0.1 {
		t.Errorf("MediumThreshold = %v", cfg.MediumThreshold)
	}
	for _, is := range mustIssues(t, svc, ds.TableID) {
		if is.Severity != core.SeverityLow {
			t.Errorf("%s severity = %q before rescore, want low", is.Title, is.Severity)
		}
	}

	n, err := svc.RescoreOpenIssues(ctx)
	if err != nil {
		t.Fatalf("RescoreOpenIssues: %v", err)
	}
	if n != 2 {
		t.Errorf("rescored = %d, want 2", n)
	}
	for _, is := range mustIssues(t, svc, ds.TableID) {
		if is.Severity != core.SeverityMedium {
			t.Errorf("%s severity = %q, want medium", is.Title, is.Severity)
		}
	}
}

func TestService_RescoreDecay(t *testing.T) {
	svc, clock := newTestService(t, core.ServiceConfig{})
	ds := ingestCustomers(t, svc)
	missing := issueByTitle(t, svc, ds.TableID, "Missing values in amount")

	if n, err := svc.RescoreOpenIssues(context.Background()); err != nil || n != 0 {
		t.Errorf("rescore without time passing = %d, %v; want 0", n, err)
	}

	clock.Advance(15 * 24 * time.Hour)
	n, err := svc.RescoreOpenIssues(context.Background())
	if err != nil {
		t.Fatalf("RescoreOpenIssues: %v", err)
	}
	if n != 2 {
		t.Errorf("rescored = %d, want 2", n)
	}
	decayed, _ := svc.GetIssue(context.Background(), missing.ID)
	if want := missing.Score * 0.5; math.Abs(decayed.Score-want) > 1e-9 {
		t.Errorf("decayed Score = %v, want %v", decayed.Score, want)
	}
}

func TestService_RescoreScheduler(t *testing.T) {
	svc, _ := newTestService(t, core.ServiceConfig{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		svc.StartRescoreScheduler(ctx, time.Millisecond)
		close(done)
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}

	// A disabled scheduler returns immediately.
	svc.StartRescoreScheduler(context.Background(), 0)
}

type fakeAdvisor struct {
	text string
	err  error
	req  core.SuggestionRequest
}

func (f *fakeAdvisor) Suggest(_ context.Context, req core.SuggestionRequest) (string, error) {
	f.req = req
	return f.text, f.err
}

func TestService_SuggestFix(t *testing.T) {
	advisor := &fakeAdvisor{text: "Impute the mean."}
	svc, _ := newTestService(t, core.ServiceConfig{Advisor: advisor})
	ds := ingestCustomers(t, svc)
	missing := issueByTitle(t, svc, ds.TableID, "Missing values in amount")

	s, err := svc.SuggestFix(context.Background(), missing.ID)
	if err != nil {
		t.Fatalf("SuggestFix: %v", err)
	}
	if s.Text != "Impute the mean." || s.Source != "advisor" {
		t.Errorf("Suggestion = %+v", s)
	}
	if advisor.req.TableName != "customers" || advisor.req.Profile == nil || len(advisor.req.Options) == 0 {
		t.Errorf("advisor request = %+v", advisor.req)
	}

	advisor.err = errors.New("provider down")
	s, err = svc.SuggestFix(context.Background(), missing.ID)
	if err != nil {
		t.Fatalf("SuggestFix with failing advisor: %v", err)
	}
	if s.Text != "" {
		t.Errorf("Text = %q, want empty on provider failure", s.Text)
	}
}

func TestService_DeleteTable(t *testing.T) {
	svc, _ := newTestService(t, core.ServiceConfig{})
	ds := ingestCustomers(t, svc)
	missing := issueByTitle(t, svc, ds.TableID, "Missing values in amount")
	ctx := context.Background()

	if err := svc.DeleteTable(ctx, ds.TableID); err != nil {
		t.Fatalf("DeleteTable: %v", err)
	}
	if _, err := svc.GetDataset(ctx, ds.TableID); !errors.Is(err, core.ErrTableNotFound) {
		t.Errorf("GetDataset err = %v, want ErrTableNotFound", err)
	}
	if _, err := svc.GetIssue(ctx, missing.ID); !errors.Is(err, core.ErrIssueNotFound) {
		t.Errorf("GetIssue err = %v, want ErrIssueNotFound", err)
	}
	if err := svc.DeleteTable(ctx, ds.TableID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second DeleteTable err = %v, want ErrNotFound", err)
	}
}

func TestService_ListRemediationOptions(t *testing.T) {
	svc, _ := newTestService(t, core.ServiceConfig{})
	ds := ingestCustomers(t, svc)
	email := issueByTitle(t, svc, ds.TableID, "Invalid email addresses in email")

	opts, err := svc.ListRemediationOptions(context.Background(), email.ID)
	if err != nil {
		t.Fatalf("ListRemediationOptions: %v", err)
	}
	want := []string{"hash", "mask", "delete-row"}
	if len(opts) != len(want) {
		t.Fatalf("options = %+v, want %v", opts, want)
	}
	for i, id := range want {
		if opts[i].ID != id {
			t.Errorf("option %d = %q, want %q", i, opts[i].ID, id)
		}
	}
}

func TestService_ConcurrentRemediation(t *testing.T) {
	svc, _ := newTestService(t, core.ServiceConfig{MaxConcurrent: 2, MaxWait: 5 * time.Second})
	ds := ingestCustomers(t, svc)
	missing := issueByTitle(t, svc, ds.TableID, "Missing values in amount")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.ApplyRemediation(context.Background(), ds.TableID, missing.ID, "manual-review"); err != nil {
				t.Errorf("ApplyRemediation: %v", err)
			}
		}()
	}
	wg.Wait()

	stored, _ := svc.GetDataset(context.Background(), ds.TableID)
	if stored.FixCount != 8 {
		t.Errorf("FixCount = %d, want 8", stored.FixCount)
	}
}

func mustIssues(t *testing.T, svc *core.Service, tableID string) []core.Issue {
	t.Helper()
	issues, err := svc.ListIssues(context.Background(), tableID, core.IssueFilter{})
	if err != nil {
		t.Fatalf("ListIssues: %v", err)
	}
	return issues
}
