package core

import (
	"reflect"
	"testing"
)

func TestTableStateCopy(t *testing.T) {
	score := 0.5
	rows := []Row{{"a": 1.0}, {"a": nil}}
	st := &TableState{
		Dataset:  &Dataset{TableID: "t", Columns: []string{"a"}, Original: rows},
		Profiles: ProfileColumns(rows, []string{"a"}),
		Issues: []Issue{{
			ID:           "i",
			AffectedRows: []int{2},
			Override:     &Override{Score: &score},
		}},
		Actions:   []RemediationAction{{ID: "x", Changes: []Change{{Row: "2", Column: "a"}}}},
		Snapshots: []KPISnapshot{{ID: "s", Before: KPISet{IssueCounts: IssueCounts{ByType: map[IssueType]int{IssueMissing: 1}}}}},
		Baseline:  KPISet{IssueCounts: IssueCounts{ByType: map[IssueType]int{IssueMissing: 1}}},
	}

	cp := st.Copy()
	if !reflect.DeepEqual(cp, st) {
		t.Fatalf("Copy = %+v, want %+v", cp, st)
	}
	if cp.Dataset.Cleaned != nil {
		t.Errorf("Cleaned = %v, want nil", cp.Dataset.Cleaned)
	}

	cp.Dataset.Original[0]["a"] = 9.0
	cp.Dataset.Columns[0] = "b"
	cp.Issues[0].AffectedRows[0] = 5
	*cp.Issues[0].Override.Score = 0.9
	cp.Actions[0].Changes[0].Row = "*"
	cp.Snapshots[0].Before.IssueCounts.ByType[IssueMissing] = 3
	cp.Baseline.IssueCounts.ByType[IssueMissing] = 3
	n := cp.Profiles["a"]
	n.Numeric.Mean = 42

	if st.Dataset.Original[0]["a"] != 1.0 || st.Dataset.Columns[0] != "a" {
		t.Errorf("dataset changed through copy: %+v", st.Dataset)
	}
	if st.Issues[0].AffectedRows[0] != 2 || *st.Issues[0].Override.Score != 0.5 {
		t.Errorf("issue changed through copy: %+v", st.Issues[0])
	}
	if st.Actions[0].Changes[0].Row != "2" {
		t.Errorf("change Row = %q, want 2", st.Actions[0].Changes[0].Row)
	}
	if st.Snapshots[0].Before.IssueCounts.ByType[IssueMissing] != 1 || st.Baseline.IssueCounts.ByType[IssueMissing] != 1 {
		t.Error("KPI counts changed through copy")
	}
	if st.Profiles["a"].Numeric.Mean != 1 {
		t.Errorf("profile Mean = %v, want 1", st.Profiles["a"].Numeric.Mean)
	}
	if (*TableState)(nil).Copy() != nil {
		t.Error("nil Copy != nil")
	}
}
