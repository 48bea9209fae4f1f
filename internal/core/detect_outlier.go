package core

import (
	"fmt"
	"math"
)

// outlierSigma is how many standard deviations from the mean a value may lie.
const outlierSigma = 3.0

// detectOutliers flags numeric values more than three standard deviations
// from the column mean. Columns without a known spread are skipped.
func detectOutliers(in DetectInput) []Issue {
	var issues []Issue
	total := len(in.Rows)
	for _, p := range in.Profiles.Ordered() {
		if p.Type != TypeNumeric || !p.Numeric.HasSpread() {
			continue
		}
		m, sd := p.Numeric.Mean, p.Numeric.StdDev
		lower, upper := m-outlierSigma*sd, m+outlierSigma*sd

		rows, examples := columnScan(in.Rows, p.Name, func(v any) bool {
			if IsNull(v) {
				return false
			}
			f, ok := ToFloat(v)
			return ok && math.Abs(f-m) > outlierSigma*sd
		})
		if len(rows) == 0 {
			continue
		}

		issue := newIssue(IssueOutlier, p.Name, rows, total)
		issue.Title = fmt.Sprintf("Outliers in %s", p.Name)
		issue.Description = fmt.Sprintf("%d values in %s lie more than 3 standard deviations from the mean (%.2f ± %.2f).",
			issue.RecordCount, p.Name, m, outlierSigma*sd)
		issue.ExampleValues = examples
		issue.ExpectedFormat = fmt.Sprintf("A value between %.2f and %.2f", lower, upper)
		issue.Detail = OutlierDetail{Mean: m, StdDev: sd, Lower: lower, Upper: upper}
		issues = append(issues, issue)
	}
	return issues
}
