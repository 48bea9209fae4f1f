package core

import "fmt"

// detectMissing reports one issue per column that has null cells.
func detectMissing(in DetectInput) []Issue {
	var issues []Issue
	total := len(in.Rows)
	for _, p := range in.Profiles.Ordered() {
		if p.NullCount == 0 {
			continue
		}
		tokens := make(map[string]int)
		rows, examples := columnScan(in.Rows, p.Name, func(v any) bool {
			if !IsNull(v) {
				return false
			}
			tokens[DisplayValue(v)]++
			return true
		})

		issue := newIssue(IssueMissing, p.Name, rows, total)
		issue.Title = fmt.Sprintf("Missing values in %s", p.Name)
		issue.Description = fmt.Sprintf("%d of %d rows (%.1f%%) have no value for %s.",
			issue.RecordCount, total, issue.ImpactScore, p.Name)
		issue.ExampleValues = examples
		issue.ExpectedFormat = expectedFormatFor(p)
		issue.Detail = MissingDetail{NullTokens: tokens}
		issues = append(issues, issue)
	}
	return issues
}

// expectedFormatFor describes what a well-formed cell in the column looks like.
func expectedFormatFor(p ColumnProfile) string {
	switch p.Type {
	case TypeNumeric:
		return "A numeric value"
	case TypeDate:
		return "A date such as 2024-01-15"
	case TypeBoolean:
		return "true/false or yes/no"
	}
	switch p.Format {
	case FormatEmail:
		return "An email address such as name@example.com"
	case FormatPhone:
		return "A phone number with 10-15 digits"
	case FormatURL:
		return "A URL starting with http:// or https://"
	case FormatISODate:
		return "A date in YYYY-MM-DD format"
	case FormatUSDate:
		return "A date in MM/DD/YYYY format"
	}
	return "A non-empty value"
}
