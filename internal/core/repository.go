package core

import "context"

// TableState is everything stored for one table. Repositories replace it
// wholesale on every write; nothing inside is mutated after it is saved.
type TableState struct {
	Dataset  *Dataset `json:"dataset"`
	Profiles Profiles `json:"profiles"`
	Issues   []Issue  `json:"issues"`

	// Lineage, most recent first and bounded by the service's capacity.
	Actions   []RemediationAction `json:"actions"`
	Snapshots []KPISnapshot       `json:"snapshots"`

	// Baseline is the quality index of the dataset as ingested.
	Baseline KPISet `json:"baseline"`
}

// TableID returns the id of the stored dataset.
func (t *TableState) TableID() string {
	if t == nil || t.Dataset == nil {
		return ""
	}
	return t.Dataset.TableID
}

// issueIndex returns the position of issueID in Issues or -1.
func (t *TableState) issueIndex(issueID string) int {
	for i := range t.Issues {
		if t.Issues[i].ID == issueID {
			return i
		}
	}
	return -1
}

// clone returns a shallow copy with its own issue slice and dataset header,
// ready to be modified and saved.
func (t *TableState) clone() *TableState {
	next := *t
	if t.Dataset != nil {
		ds := *t.Dataset
		next.Dataset = &ds
	}
	next.Issues = append([]Issue(nil), t.Issues...)
	return &next
}

// Copy returns a deep copy of the state: rows, profiles, issues and lineage
// share no mutable memory with t. Issue details are shared because they are
// only ever replaced, never modified.
func (t *TableState) Copy() *TableState {
	if t == nil {
		return nil
	}
	next := &TableState{
		Baseline: copyKPISet(t.Baseline),
	}
	if t.Dataset != nil {
		ds := *t.Dataset
		ds.Columns = append([]string(nil), t.Dataset.Columns...)
		ds.Original = copyRows(t.Dataset.Original)
		if t.Dataset.Cleaned != nil {
			ds.Cleaned = copyRows(t.Dataset.Cleaned)
		}
		next.Dataset = &ds
	}
	if t.Profiles != nil {
		next.Profiles = make(Profiles, len(t.Profiles))
		for name, p := range t.Profiles {
			if p.Numeric != nil {
				n := *p.Numeric
				p.Numeric = &n
			}
			if p.Text != nil {
				tx := *p.Text
				p.Text = &tx
			}
			p.TopValues = append([]ValueCount(nil), p.TopValues...)
			next.Profiles[name] = p
		}
	}
	if t.Issues != nil {
		next.Issues = make([]Issue, len(t.Issues))
		for i, is := range t.Issues {
			is.AffectedRows = append([]int(nil), is.AffectedRows...)
			is.ExampleValues = append([]string(nil), is.ExampleValues...)
			is.Breakdown.Boosts = append([]Boost(nil), is.Breakdown.Boosts...)
			is.Breakdown.Factors = append([]string(nil), is.Breakdown.Factors...)
			if is.Override != nil {
				o := *is.Override
				if o.Score != nil {
					v := *o.Score
					o.Score = &v
				}
				is.Override = &o
			}
			next.Issues[i] = is
		}
	}
	if t.Actions != nil {
		next.Actions = make([]RemediationAction, len(t.Actions))
		for i, a := range t.Actions {
			a.Changes = append([]Change(nil), a.Changes...)
			next.Actions[i] = a
		}
	}
	if t.Snapshots != nil {
		next.Snapshots = make([]KPISnapshot, len(t.Snapshots))
		for i, snap := range t.Snapshots {
			snap.Before = copyKPISet(snap.Before)
			snap.After = copyKPISet(snap.After)
			next.Snapshots[i] = snap
		}
	}
	return next
}

func copyKPISet(k KPISet) KPISet {
	if k.IssueCounts.ByType != nil {
		byType := make(map[IssueType]int, len(k.IssueCounts.ByType))
		for t, n := range k.IssueCounts.ByType {
			byType[t] = n
		}
		k.IssueCounts.ByType = byType
	}
	return k
}

// Repository persists table state keyed by table id. Implementations must
// make SaveTable atomic: readers see either the old or the new state.
// Lookups of unknown ids return an error wrapping ErrNotFound.
type Repository interface {
	SaveTable(ctx context.Context, state *TableState) error
	LoadTable(ctx context.Context, tableID string) (*TableState, error)
	DeleteTable(ctx context.Context, tableID string) error
	ListTables(ctx context.Context) ([]DatasetInfo, error)

	// FindIssueTable returns the id of the table that owns issueID.
	FindIssueTable(ctx context.Context, issueID string) (string, error)
}
