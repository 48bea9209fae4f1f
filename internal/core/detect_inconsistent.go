package core

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"
)

const (
	// minWhitespaceRows is how many padded values a column needs before it is reported.
	minWhitespaceRows = 5

	// earliestPlausibleYear bounds date columns from below.
	earliestPlausibleYear = 1900
)

// detectInconsistencies looks for columns whose values disagree with each
// other in format, letter case, padding or date range.
func detectInconsistencies(in DetectInput) []Issue {
	var issues []Issue
	for _, p := range in.Profiles.Ordered() {
		switch p.Type {
		case TypeString:
			issues = appendIf(issues, formatInconsistency(in.Rows, p, ValueFormat, FormatText))
			issues = appendIf(issues, caseInconsistency(in.Rows, p))
			issues = appendIf(issues, whitespaceInconsistency(in.Rows, p))
		case TypeDate:
			issues = appendIf(issues, formatInconsistency(in.Rows, p, dateFamilyOf, "other"))
			issues = appendIf(issues, dateRangeInconsistency(in.Rows, p, in.Now))
		}
	}
	return issues
}

func appendIf(issues []Issue, issue *Issue) []Issue {
	if issue == nil {
		return issues
	}
	return append(issues, *issue)
}

func dateFamilyOf(v any) string {
	if !IsDateLike(v) {
		return "other"
	}
	return dateFamily(v)
}

// variantSplit tallies a per-value classification and returns the dominant
// variant plus the rows that deviate from it. Values classified as ignore
// take no part.
func variantSplit(rows []Row, column string, classify func(v any) string, ignore string) (string, map[string]int, []int, []string) {
	variants := make(map[string]int)
	labels := make([]string, len(rows))
	for i, r := range rows {
		v := r[column]
		if IsNull(v) {
			continue
		}
		label := classify(v)
		labels[i] = label
		if label != ignore {
			variants[label]++
		}
	}
	if len(variants) < 2 {
		return "", variants, nil, nil
	}

	dominant := dominantKey(variants)
	var (
		hits []int
		ex   exampleCollector
	)
	for i, label := range labels {
		if label == "" || label == ignore || label == dominant {
			continue
		}
		hits = append(hits, i+1)
		ex.add(rows[i][column])
	}
	return dominant, variants, hits, ex.values
}

// dominantKey returns the key with the highest count, ties broken alphabetically.
func dominantKey(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	best := ""
	for _, k := range keys {
		if best == "" || counts[k] > counts[best] {
			best = k
		}
	}
	return best
}

// formatInconsistency reports columns mixing more than one recognized format.
func formatInconsistency(rows []Row, p ColumnProfile, classify func(v any) string, ignore string) *Issue {
	dominant, variants, hits, examples := variantSplit(rows, p.Name, classify, ignore)
	if len(hits) == 0 {
		return nil
	}
	issue := newIssue(IssueInconsistent, p.Name, hits, len(rows))
	issue.Title = fmt.Sprintf("Inconsistent formats in %s", p.Name)
	issue.Description = fmt.Sprintf("%s mixes %d formats; %d values differ from the dominant %s format.",
		p.Name, len(variants), issue.RecordCount, dominant)
	issue.ExampleValues = examples
	issue.ExpectedFormat = fmt.Sprintf("Every value in %s format", dominant)
	issue.Detail = InconsistentDetail{Kind: InconsistentFormat, Dominant: dominant, Variants: variants}
	return &issue
}

// letterCase classifies a value as lower, upper or mixed case.
func letterCase(v any) string {
	s := ValueString(v)
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			break
		}
	}
	switch {
	case !hasLetter:
		return "none"
	case s == strings.ToLower(s):
		return "lower"
	case s == strings.ToUpper(s):
		return "upper"
	}
	return "mixed"
}

// caseInconsistency reports mixed-case values coexisting with all-lower or
// all-upper values in the same column.
func caseInconsistency(rows []Row, p ColumnProfile) *Issue {
	dominant, variants, hits, examples := variantSplit(rows, p.Name, letterCase, "none")
	if len(hits) == 0 || variants["mixed"] == 0 || (variants["lower"] == 0 && variants["upper"] == 0) {
		return nil
	}
	issue := newIssue(IssueInconsistent, p.Name, hits, len(rows))
	issue.Title = fmt.Sprintf("Inconsistent capitalization in %s", p.Name)
	issue.Description = fmt.Sprintf("%d values in %s do not follow the dominant %s-case style.",
		issue.RecordCount, p.Name, dominant)
	issue.ExampleValues = examples
	issue.ExpectedFormat = fmt.Sprintf("Consistent %s-case values", dominant)
	issue.Detail = InconsistentDetail{Kind: InconsistentCase, Dominant: dominant, Variants: variants}
	return &issue
}

// whitespaceInconsistency reports columns with more than a handful of
// padded or double-spaced values.
func whitespaceInconsistency(rows []Row, p ColumnProfile) *Issue {
	hits, examples := columnScan(rows, p.Name, func(v any) bool {
		s, ok := v.(string)
		if !ok || IsNull(v) {
			return false
		}
		return s != strings.TrimSpace(s) || strings.Contains(s, "  ")
	})
	if len(hits) <= minWhitespaceRows {
		return nil
	}
	issue := newIssue(IssueInconsistent, p.Name, hits, len(rows))
	issue.Title = fmt.Sprintf("Whitespace issues in %s", p.Name)
	issue.Description = fmt.Sprintf("%d values in %s have leading, trailing or repeated spaces.", issue.RecordCount, p.Name)
	issue.ExampleValues = quoteAll(examples)
	issue.ExpectedFormat = "Trimmed values with single spaces"
	issue.Detail = InconsistentDetail{Kind: InconsistentWhitespace, Variants: map[string]int{"padded": len(hits)}}
	return &issue
}

// dateRangeInconsistency reports dates in the future or implausibly far in the past.
func dateRangeInconsistency(rows []Row, p ColumnProfile, now time.Time) *Issue {
	var future, ancient int
	hits, examples := columnScan(rows, p.Name, func(v any) bool {
		if IsNull(v) {
			return false
		}
		t, ok := ParseDate(v)
		if !ok {
			return false
		}
		switch {
		case t.After(now):
			future++
			return true
		case t.Year() < earliestPlausibleYear:
			ancient++
			return true
		}
		return false
	})
	if len(hits) == 0 {
		return nil
	}
	issue := newIssue(IssueInconsistent, p.Name, hits, len(rows))
	issue.Title = fmt.Sprintf("Dates out of range in %s", p.Name)
	issue.Description = fmt.Sprintf("%d dates in %s are in the future and %d are before %d.",
		future, p.Name, ancient, earliestPlausibleYear)
	issue.ExampleValues = examples
	issue.ExpectedFormat = fmt.Sprintf("A date between %d and today", earliestPlausibleYear)
	issue.Detail = InconsistentDetail{Kind: InconsistentDateRange, Variants: map[string]int{"future": future, "before_1900": ancient}}
	return &issue
}

func quoteAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = fmt.Sprintf("%q", v)
	}
	return out
}
