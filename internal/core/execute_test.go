package core

import (
	"errors"
	"reflect"
	"testing"
)

func option(id string) RemediationOption {
	return optionTemplates[id]
}

func TestExecute_ImputeMean(t *testing.T) {
	original := []Row{{"amount": 10.0}, {"amount": nil}, {"amount": 30.0}}
	current := copyRows(original)
	issue := Issue{Type: IssueMissing, Column: "amount", AffectedRows: []int{2}, RecordCount: 1}

	res, err := Execute(original, current, issue, option(OptionImputeMean))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got := res.Rows[1]["amount"]; got != 20.0 {
		t.Errorf("imputed value = %v, want 20", got)
	}
	if res.AppliedCount != 1 || res.CandidateCount != 1 {
		t.Errorf("counts = %d/%d, want 1/1", res.AppliedCount, res.CandidateCount)
	}
	want := Change{Row: "2", Column: "amount", Action: ActionImpute, Before: nil, After: 20.0, Reason: "column mean"}
	if len(res.Changes) != 1 || !reflect.DeepEqual(res.Changes[0], want) {
		t.Errorf("Changes = %+v, want [%+v]", res.Changes, want)
	}
	if current[1]["amount"] != nil {
		t.Errorf("Execute mutated its input: %v", current[1])
	}
}

func TestExecute_StatsFromOriginal(t *testing.T) {
	original := []Row{{"v": 10.0}, {"v": nil}, {"v": 30.0}}
	// The overlay has drifted; the fill value must still come from the original.
	current := []Row{{"v": 1000.0}, {"v": nil}, {"v": 30.0}}
	issue := Issue{Type: IssueMissing, Column: "v", AffectedRows: []int{2}, RecordCount: 1}

	res, err := Execute(original, current, issue, option(OptionImputeMean))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got := res.Rows[1]["v"]; got != 20.0 {
		t.Errorf("imputed value = %v, want 20", got)
	}
}

func TestExecute_ImputeMode(t *testing.T) {
	original := []Row{{"c": "red"}, {"c": nil}, {"c": "blue"}, {"c": "red"}}
	issue := Issue{Type: IssueMissing, Column: "c", AffectedRows: []int{2}, RecordCount: 1}

	res, err := Execute(original, original, issue, option(OptionImputeMode))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got := res.Rows[1]["c"]; got != "red" {
		t.Errorf("imputed value = %v, want red", got)
	}
	if original[1]["c"] != nil {
		t.Error("Execute mutated the original rows")
	}
}

func TestExecute_NoStatistics(t *testing.T) {
	original := []Row{{"v": nil}, {"v": "x"}}
	issue := Issue{Type: IssueMissing, Column: "v", AffectedRows: []int{1}, RecordCount: 1}

	res, err := Execute(original, original, issue, option(OptionImputeMean))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.AppliedCount != 0 || len(res.Changes) != 0 {
		t.Errorf("AppliedCount = %d, Changes = %v, want none", res.AppliedCount, res.Changes)
	}
	if len(res.Rows) != 2 {
		t.Errorf("len(Rows) = %d, want 2", len(res.Rows))
	}
}

func TestExecute_DeleteRow(t *testing.T) {
	rows := []Row{{"a": 1}, {"a": 2}, {"a": 3}, {"a": 4}}
	issue := Issue{Type: IssueInvalid, Column: "a", AffectedRows: []int{2, 4, 99, 2}, RecordCount: 3}

	res, err := Execute(rows, rows, issue, option(OptionDeleteRow))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	want := []Row{{"a": 1}, {"a": 3}}
	if !reflect.DeepEqual(res.Rows, want) {
		t.Errorf("Rows = %v, want %v", res.Rows, want)
	}
	if res.AppliedCount != 2 {
		t.Errorf("AppliedCount = %d, want 2", res.AppliedCount)
	}
	if c := res.Changes[0]; c.Row != "2" || c.Column != "*" || c.After != nil {
		t.Errorf("first change = %+v, want whole-row delete of row 2", c)
	}
	if len(rows) != 4 {
		t.Error("Execute mutated its input")
	}
}

func TestExecute_Dedupe(t *testing.T) {
	rows := []Row{
		{"k": "a", "v": 1},
		{"k": "b", "v": 2},
		{"k": "a", "v": 1},
		{"k": "a", "v": 1},
	}
	exact := Issue{
		Type:         IssueDuplicate,
		AffectedRows: []int{3, 4},
		RecordCount:  2,
		Detail:       DuplicateDetail{Scope: DuplicateExact},
	}

	tests := []struct {
		name     string
		option   string
		wantRows []int
	}{
		{"keep first", OptionKeepFirst, []int{1, 2}},
		{"keep last", OptionKeepLast, []int{2, 4}},
		{"delete all", OptionDeleteAll, []int{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Execute(rows, rows, exact, option(tt.option))
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			var want []Row
			for _, r := range tt.wantRows {
				want = append(want, rows[r-1])
			}
			if !reflect.DeepEqual(res.Rows, want) {
				t.Errorf("Rows = %v, want %v", res.Rows, want)
			}
			if res.AppliedCount != 2 {
				t.Errorf("AppliedCount = %d, want 2", res.AppliedCount)
			}
		})
	}
}

func TestExecute_DeleteAllIdempotent(t *testing.T) {
	rows := []Row{{"a": 1}, {"a": 1}, {"a": 2}}
	issue := Issue{Type: IssueDuplicate, AffectedRows: []int{2}, RecordCount: 1, Detail: DuplicateDetail{Scope: DuplicateExact}}

	first, err := Execute(rows, rows, issue, option(OptionDeleteAll))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	second, err := Execute(rows, first.Rows, issue, option(OptionDeleteAll))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if second.AppliedCount != 0 {
		t.Errorf("second AppliedCount = %d, want 0", second.AppliedCount)
	}
	if !reflect.DeepEqual(second.Rows, first.Rows) {
		t.Errorf("second Rows = %v, want %v", second.Rows, first.Rows)
	}
}

func TestExecute_DedupeByKey(t *testing.T) {
	rows := []Row{
		{"id": 1, "name": "ann"},
		{"id": 1, "name": "anne"},
		{"id": nil, "name": "x"},
		{"id": nil, "name": "y"},
	}
	issue := Issue{
		Type:         IssueDuplicate,
		Column:       "id",
		AffectedRows: []int{2},
		RecordCount:  1,
		Detail:       DuplicateDetail{Scope: DuplicateKey, KeyColumns: []string{"id"}},
	}
	res, err := Execute(rows, rows, issue, option(OptionKeepLast))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	want := []Row{rows[1], rows[2], rows[3]}
	if !reflect.DeepEqual(res.Rows, want) {
		t.Errorf("Rows = %v, want %v", res.Rows, want)
	}
}

func TestExecute_DedupePartial(t *testing.T) {
	rows := []Row{
		{"id": 1, "name": "ann", "city": "oslo"},
		{"id": 2, "name": "ann", "city": "oslo"},
		{"id": 3, "name": "bob", "city": "rome"},
	}
	issue := Issue{
		Type:         IssueDuplicate,
		AffectedRows: []int{2},
		RecordCount:  1,
		Detail:       DuplicateDetail{Scope: DuplicatePartial, KeyColumns: []string{"id"}},
	}
	res, err := Execute(rows, rows, issue, option(OptionKeepFirst))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	want := []Row{rows[0], rows[2]}
	if !reflect.DeepEqual(res.Rows, want) {
		t.Errorf("Rows = %v, want %v", res.Rows, want)
	}
}

func TestExecute_Flag(t *testing.T) {
	rows := []Row{{"a": 1}, {"a": 2}}
	issue := Issue{Type: IssueOutlier, Column: "a", AffectedRows: []int{2}, RecordCount: 1}

	res, err := Execute(rows, rows, issue, option(OptionManualReview))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !reflect.DeepEqual(res.Rows, rows) {
		t.Errorf("flag changed data: %v", res.Rows)
	}
	if res.AppliedCount != issue.RecordCount {
		t.Errorf("AppliedCount = %d, want %d", res.AppliedCount, issue.RecordCount)
	}
	if len(res.Changes) != 1 || res.Changes[0].Action != ActionFlag || res.Changes[0].Row != "*" {
		t.Errorf("Changes = %+v, want one flag entry", res.Changes)
	}
}

func TestExecute_ReplaceNull(t *testing.T) {
	rows := []Row{{"s": "ok"}, {"s": "TBD"}}
	issue := Issue{Type: IssueInvalid, Column: "s", AffectedRows: []int{2}, RecordCount: 1}

	res, err := Execute(rows, rows, issue, option(OptionReplaceNull))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if v, ok := res.Rows[1]["s"]; !ok || v != nil {
		t.Errorf("replaced cell = (%v, %v), want (nil, true)", v, ok)
	}
	if res.Changes[0].Before != "TBD" {
		t.Errorf("Before = %v, want TBD", res.Changes[0].Before)
	}
}

func TestExecute_HashAndMask(t *testing.T) {
	rows := []Row{{"email": "alice@example.com"}, {"email": nil}, {"email": "bad"}}
	issue := Issue{Type: IssueInvalid, Column: "email", AffectedRows: []int{1, 2, 3}, RecordCount: 3}

	hashed, err := Execute(rows, rows, issue, option(OptionHash))
	if err != nil {
		t.Fatalf("Execute hash: %v", err)
	}
	if got := hashed.Rows[0]["email"]; got != hashValue("alice@example.com") {
		t.Errorf("hashed = %v", got)
	}
	if hashed.Rows[1]["email"] != nil {
		t.Error("null cell was hashed")
	}
	if hashed.AppliedCount != 2 {
		t.Errorf("AppliedCount = %d, want 2", hashed.AppliedCount)
	}

	masked, err := Execute(rows, rows, issue, option(OptionMask))
	if err != nil {
		t.Fatalf("Execute mask: %v", err)
	}
	if got := masked.Rows[0]["email"]; got != "a****@*******.**m" {
		t.Errorf("masked = %v, want a****@*******.**m", got)
	}
	if got := masked.Rows[2]["email"]; got != "b*d" {
		t.Errorf("masked = %v, want b*d", got)
	}
}

func TestExecute_Cap(t *testing.T) {
	var rows []Row
	for i := 0; i < 20; i++ {
		rows = append(rows, Row{"v": 10.0})
	}
	rows = append(rows, Row{"v": 1000.0})
	stats := numericSummary(columnFloats(rows, "v"))
	upper := stats.Mean + outlierSigma*stats.StdDev

	issue := Issue{
		Type:         IssueOutlier,
		Column:       "v",
		AffectedRows: []int{1, 21},
		RecordCount:  2,
	}
	res, err := Execute(rows, rows, issue, option(OptionCap))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got := res.Rows[20]["v"]; got != upper {
		t.Errorf("capped = %v, want %v", got, upper)
	}
	// Row 1 is inside the bounds and must not be logged.
	if res.AppliedCount != 1 || len(res.Changes) != 1 {
		t.Errorf("AppliedCount = %d, Changes = %d, want 1/1", res.AppliedCount, len(res.Changes))
	}
}

func TestExecute_ReplaceMean(t *testing.T) {
	rows := []Row{{"v": 2.0}, {"v": 4.0}, {"v": 600.0}}
	issue := Issue{Type: IssueOutlier, Column: "v", AffectedRows: []int{3}, RecordCount: 1}
	res, err := Execute(rows, rows, issue, option(OptionReplaceMean))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got := res.Rows[2]["v"]; got != 202.0 {
		t.Errorf("replaced = %v, want 202", got)
	}
	if res.Changes[0].Action != ActionReplace {
		t.Errorf("Action = %q, want %q", res.Changes[0].Action, ActionReplace)
	}
}

func TestExecute_Unsupported(t *testing.T) {
	rows := []Row{{"a": 1}}
	tests := []struct {
		name  string
		issue Issue
		opt   RemediationOption
	}{
		{"unknown pair", Issue{Column: "a"}, RemediationOption{Action: ActionImpute, Method: MethodHash}},
		{"column transform without column", Issue{}, option(OptionImputeMean)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Execute(rows, rows, tt.issue, tt.opt)
			if !errors.Is(err, ErrUnsupportedMethod) {
				t.Errorf("err = %v, want ErrUnsupportedMethod", err)
			}
		})
	}
}

func TestMaskValue(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"a", "*"},
		{"ab", "**"},
		{"abc", "a*c"},
		{"555-123-4567", "5**-***-***7"},
	}
	for _, tt := range tests {
		if got := maskValue(tt.in); got != tt.want {
			t.Errorf("maskValue(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHashValue(t *testing.T) {
	a, b := hashValue("x"), hashValue("x")
	if a != b || len(a) != hashLength {
		t.Errorf("hashValue = %q/%q, want stable %d-char digest", a, b, hashLength)
	}
	if hashValue("y") == a {
		t.Error("different inputs produced the same digest")
	}
}
