package web

import (
	"bytes"
	"encoding/json"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JonMunkholm/dataquality/internal/config"
	"github.com/JonMunkholm/dataquality/internal/core"
	"github.com/JonMunkholm/dataquality/internal/store"
)

const sampleTable = `{
	"name": "orders",
	"rows": [
		{"customer": "ann", "amount": 10},
		{"customer": "bob", "amount": null},
		{"customer": "cid", "amount": 30}
	]
}`

func testConfig() *config.Config {
	return &config.Config{
		Upload: config.UploadConfig{MaxFileSize: 1 << 20},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	svc, err := core.NewService(store.NewMemory(), core.ServiceConfig{})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return NewServer(svc, cfg)
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	return doWithKey(t, s, method, path, body, "")
}

func doWithKey(t *testing.T, s *Server, method, path, body, key string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func createTable(t *testing.T, s *Server) tableResponse {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/api/tables", sampleTable)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /api/tables status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	return decode[tableResponse](t, rec)
}

func missingAmountIssue(t *testing.T, s *Server, tableID string) core.Issue {
	t.Helper()
	return missingAmountIssueWithKey(t, s, tableID, "")
}

func missingAmountIssueWithKey(t *testing.T, s *Server, tableID, key string) core.Issue {
	t.Helper()
	rec := doWithKey(t, s, http.MethodGet, "/api/tables/"+tableID+"/issues?type=missing&column=amount", "", key)
	if rec.Code != http.StatusOK {
		t.Fatalf("list issues status = %d: %s", rec.Code, rec.Body.String())
	}
	issues := decode[[]core.Issue](t, rec)
	if len(issues) != 1 {
		t.Fatalf("missing issues = %d, want 1", len(issues))
	}
	return issues[0]
}

func TestCreateAndGetTable(t *testing.T) {
	s := newTestServer(t, testConfig())
	created := createTable(t, s)

	if created.Name != "orders" {
		t.Errorf("Name = %q, want %q", created.Name, "orders")
	}
	if created.RowCount != 3 {
		t.Errorf("RowCount = %d, want 3", created.RowCount)
	}
	if len(created.Columns) != 2 || created.Columns[0] != "customer" {
		t.Errorf("Columns = %v, want [customer amount]", created.Columns)
	}

	rec := do(t, s, http.MethodGet, "/api/tables/"+created.TableID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET table status = %d", rec.Code)
	}
	got := decode[tableResponse](t, rec)
	if got.TableID != created.TableID {
		t.Errorf("TableID = %q, want %q", got.TableID, created.TableID)
	}

	rec = do(t, s, http.MethodGet, "/api/tables", "")
	list := decode[[]core.DatasetInfo](t, rec)
	if len(list) != 1 {
		t.Errorf("ListTables len = %d, want 1", len(list))
	}
}

func TestUploadCSV(t *testing.T) {
	s := newTestServer(t, testConfig())

	var body bytes.Buffer
	mp := multipart.NewWriter(&body)
	fw, _ := mp.CreateFormFile("file", "people.csv")
	fw.Write([]byte("\xEF\xBB\xBFname,email\nann,ann@example.com\nbob,not-an-email\n"))
	mp.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/tables/upload", &body)
	req.Header.Set("Content-Type", mp.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	got := decode[tableResponse](t, rec)
	if got.Name != "people" {
		t.Errorf("Name = %q, want %q", got.Name, "people")
	}
	if got.RowCount != 2 {
		t.Errorf("RowCount = %d, want 2", got.RowCount)
	}
}

func TestUploadWithoutFile(t *testing.T) {
	s := newTestServer(t, testConfig())

	var body bytes.Buffer
	mp := multipart.NewWriter(&body)
	mp.WriteField("name", "x")
	mp.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/tables/upload", &body)
	req.Header.Set("Content-Type", mp.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if resp := decode[ErrorResponse](t, rec); resp.Code != "ING004" {
		t.Errorf("Code = %q, want ING004", resp.Code)
	}
}

func TestErrorStatuses(t *testing.T) {
	s := newTestServer(t, testConfig())
	tbl := createTable(t, s)
	issue := missingAmountIssue(t, s, tbl.TableID)

	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		wantCode int
		wantErr  string
	}{
		{"unknown table", http.MethodGet, "/api/tables/nope", "", http.StatusNotFound, "TBL001"},
		{"unknown issue", http.MethodGet, "/api/issues/nope", "", http.StatusNotFound, "DQ001"},
		{"option not offered", http.MethodPost, "/api/tables/" + tbl.TableID + "/issues/" + issue.ID + "/remediate",
			`{"optionId":"hash"}`, http.StatusUnprocessableEntity, "REM001"},
		{"missing option id", http.MethodPost, "/api/tables/" + tbl.TableID + "/issues/" + issue.ID + "/remediate",
			`{}`, http.StatusBadRequest, "DQ002"},
		{"invalid scoring config", http.MethodPatch, "/api/scoring-config",
			`{"mediumThreshold":0.9,"highThreshold":0.5}`, http.StatusBadRequest, "CFG001"},
		{"unknown scoring field", http.MethodPatch, "/api/scoring-config", `{"bogus":1}`, http.StatusBadRequest, "DQ002"},
		{"bad override", http.MethodPut, "/api/issues/" + issue.ID + "/override", `{"severity":"urgent"}`, http.StatusBadRequest, "DQ002"},
		{"bad status filter", http.MethodGet, "/api/tables/" + tbl.TableID + "/issues?status=later", "", http.StatusBadRequest, "DQ002"},
		{"malformed json", http.MethodPost, "/api/tables", `{"rows": [`, http.StatusBadRequest, "ING001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, tt.method, tt.path, tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if resp := decode[ErrorResponse](t, rec); resp.Code != tt.wantErr {
				t.Errorf("Code = %q, want %q", resp.Code, tt.wantErr)
			}
		})
	}
}

func TestRemediationFlow(t *testing.T) {
	s := newTestServer(t, testConfig())
	tbl := createTable(t, s)
	issue := missingAmountIssue(t, s, tbl.TableID)

	rec := do(t, s, http.MethodGet, "/api/issues/"+issue.ID+"/options", "")
	opts := decode[[]core.RemediationOption](t, rec)
	if len(opts) == 0 || opts[0].ID != core.OptionImputeMean {
		t.Fatalf("options = %+v, want impute-mean first", opts)
	}

	rec = do(t, s, http.MethodPost, "/api/tables/"+tbl.TableID+"/issues/"+issue.ID+"/remediate",
		`{"optionId":"impute-mean"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("remediate status = %d: %s", rec.Code, rec.Body.String())
	}
	res := decode[core.RemediationResult](t, rec)
	if res.AppliedCount != 1 {
		t.Errorf("AppliedCount = %d, want 1", res.AppliedCount)
	}

	rec = do(t, s, http.MethodGet, "/api/tables/"+tbl.TableID+"/lineage", "")
	actions := decode[[]core.RemediationAction](t, rec)
	if len(actions) != 1 || actions[0].OptionID != core.OptionImputeMean {
		t.Errorf("lineage = %+v, want one impute-mean action", actions)
	}

	rec = do(t, s, http.MethodGet, "/api/tables/"+tbl.TableID+"/comparison", "")
	cmp := decode[core.Comparison](t, rec)
	if len(cmp.Snapshots) != 1 {
		t.Errorf("snapshots = %d, want 1", len(cmp.Snapshots))
	}
	if cmp.Current.Completeness <= cmp.Original.Completeness {
		t.Errorf("completeness %v -> %v, want improvement", cmp.Original.Completeness, cmp.Current.Completeness)
	}

	rec = do(t, s, http.MethodGet, "/api/tables/"+tbl.TableID+"/rows?version=original", "")
	page := decode[map[string]any](t, rec)
	if page["total"].(float64) != 3 {
		t.Errorf("original total = %v, want 3", page["total"])
	}

	rec = do(t, s, http.MethodPost, "/api/tables/"+tbl.TableID+"/reset", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("reset status = %d: %s", rec.Code, rec.Body.String())
	}
	rec = do(t, s, http.MethodGet, "/api/tables/"+tbl.TableID, "")
	if got := decode[tableResponse](t, rec); got.HasOverlay {
		t.Error("HasOverlay = true after reset, want false")
	}
}

func TestOverrideRoundTrip(t *testing.T) {
	s := newTestServer(t, testConfig())
	tbl := createTable(t, s)
	issue := missingAmountIssue(t, s, tbl.TableID)

	rec := do(t, s, http.MethodPut, "/api/issues/"+issue.ID+"/override", `{"severity":"high","reason":"finance"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("override status = %d: %s", rec.Code, rec.Body.String())
	}
	got := decode[core.Issue](t, rec)
	if got.Severity != core.SeverityHigh || got.Override == nil {
		t.Errorf("after override severity = %q override = %v", got.Severity, got.Override)
	}

	for i := 0; i < 2; i++ {
		rec = do(t, s, http.MethodDelete, "/api/issues/"+issue.ID+"/override", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("clear #%d status = %d", i+1, rec.Code)
		}
	}
	got = decode[core.Issue](t, rec)
	if got.Override != nil || got.Severity != issue.Severity || math.Abs(got.Score-issue.Score) > 1e-3 {
		t.Errorf("after clear = (%q, %v, %v), want (%q, %v, nil)", got.Severity, got.Score, got.Override, issue.Severity, issue.Score)
	}
}

func TestScoringConfigPatch(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := do(t, s, http.MethodPatch, "/api/scoring-config", `{"highThreshold":0.8}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d: %s", rec.Code, rec.Body.String())
	}
	cfg := decode[core.ScoringConfig](t, rec)
	if cfg.HighThreshold != 0.8 {
		t.Errorf("HighThreshold = %v, want 0.8", cfg.HighThreshold)
	}
	if cfg.MediumThreshold != core.DefaultScoringConfig().MediumThreshold {
		t.Errorf("MediumThreshold = %v, want unchanged", cfg.MediumThreshold)
	}
}

func TestSuggestionWithoutAdvisor(t *testing.T) {
	s := newTestServer(t, testConfig())
	tbl := createTable(t, s)
	issue := missingAmountIssue(t, s, tbl.TableID)

	rec := do(t, s, http.MethodGet, "/api/issues/"+issue.ID+"/suggestion", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decode[core.Suggestion](t, rec); got.Text != "" {
		t.Errorf("Text = %q, want empty", got.Text)
	}
}

func TestAPIKeyRequired(t *testing.T) {
	cfg := testConfig()
	cfg.Security = config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"alice:secret"}}
	s := newTestServer(t, cfg)

	rec := do(t, s, http.MethodGet, "/api/tables", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("without key status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	rec = doWithKey(t, s, http.MethodPost, "/api/tables", sampleTable, "secret")
	if rec.Code != http.StatusCreated {
		t.Fatalf("with key status = %d: %s", rec.Code, rec.Body.String())
	}
	tbl := decode[tableResponse](t, rec)
	issue := missingAmountIssueWithKey(t, s, tbl.TableID, "secret")

	rec = doWithKey(t, s, http.MethodPost, "/api/tables/"+tbl.TableID+"/issues/"+issue.ID+"/remediate",
		`{"optionId":"delete-row"}`, "secret")
	if rec.Code != http.StatusOK {
		t.Fatalf("remediate status = %d: %s", rec.Code, rec.Body.String())
	}
	if res := decode[core.RemediationResult](t, rec); res.Action.Actor != "alice" {
		t.Errorf("Actor = %q, want %q", res.Action.Actor, "alice")
	}

	rec = do(t, s, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestReport(t *testing.T) {
	s := newTestServer(t, testConfig())
	tbl := createTable(t, s)

	rec := do(t, s, http.MethodGet, "/tables/"+tbl.TableID+"/report", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("report status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"<h1>orders</h1>", "Quality index", "Missing values in amount"} {
		if !strings.Contains(body, want) {
			t.Errorf("report missing %q", want)
		}
	}

	rec = do(t, s, http.MethodGet, "/tables/nope/report", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown report status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if !strings.Contains(rec.Body.String(), "TBL001") {
		t.Errorf("unknown report body = %q, want TBL001", rec.Body.String())
	}
}
