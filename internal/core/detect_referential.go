package core

import "fmt"

// Foreign key values outside this range cannot reference a real record.
const (
	foreignKeyLower = 0
	foreignKeyUpper = 100000
)

// detectReferential flags numeric foreign-key-looking columns whose values
// fall outside the plausible identifier range.
func detectReferential(in DetectInput) []Issue {
	var issues []Issue
	total := len(in.Rows)
	for _, p := range in.Profiles.Ordered() {
		if p.Type != TypeNumeric {
			continue
		}
		entity, ok := ForeignKeyEntity(p.Name)
		if !ok {
			continue
		}
		rows, examples := columnScan(in.Rows, p.Name, func(v any) bool {
			f, ok := ToFloat(v)
			return ok && !IsNull(v) && (f < foreignKeyLower || f > foreignKeyUpper)
		})
		if len(rows) == 0 {
			continue
		}
		issue := newIssue(IssueReferential, p.Name, rows, total)
		issue.Title = fmt.Sprintf("Orphaned references in %s", p.Name)
		issue.Description = fmt.Sprintf("%d values in %s cannot reference an existing %s record.",
			issue.RecordCount, p.Name, entity)
		issue.ExampleValues = examples
		issue.ExpectedFormat = fmt.Sprintf("A %s identifier between %d and %d", entity, foreignKeyLower, foreignKeyUpper)
		issue.Detail = ReferentialDetail{Referenced: entity, Lower: foreignKeyLower, Upper: foreignKeyUpper}
		issues = append(issues, issue)
	}
	return issues
}
