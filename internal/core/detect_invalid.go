package core

import (
	"fmt"
	"regexp"
	"strings"
)

// placeholderRegex matches whole-cell placeholder tokens left by upstream systems.
var placeholderRegex = regexp.MustCompile(`(?i)^(bad_\w*|invalid\w*|n/?a|tbd|todo|xxx+|placeholder|dummy|unknown|\?+|-+)$`)

// invalidRule is one validation applied to a column.
type invalidRule struct {
	rule     InvalidRule
	applies  func(p ColumnProfile, rows []Row) bool
	rejects  func(v any) bool
	title    string
	expected string
	pattern  string
}

var invalidRules = []invalidRule{
	{
		rule:     RuleNumeric,
		applies:  func(p ColumnProfile, _ []Row) bool { return p.Type == TypeNumeric },
		rejects:  func(v any) bool { _, ok := ToFloat(v); return !ok },
		title:    "Non-numeric values in %s",
		expected: "A numeric value",
		pattern:  numericRegex.String(),
	},
	{
		rule:     RuleDate,
		applies:  func(p ColumnProfile, _ []Row) bool { return p.Type == TypeDate },
		rejects:  func(v any) bool { _, ok := ParseDate(v); return !ok },
		title:    "Unparseable dates in %s",
		expected: "A date such as 2024-01-15",
	},
	{
		rule: RuleEmail,
		applies: func(p ColumnProfile, _ []Row) bool {
			return p.Format == FormatEmail || strings.Contains(strings.ToLower(p.Name), "email")
		},
		rejects:  func(v any) bool { return !IsValidEmail(ValueString(v)) },
		title:    "Invalid email addresses in %s",
		expected: "An email address such as name@example.com",
		pattern:  emailRegex.String(),
	},
	{
		rule:     RulePhone,
		applies:  func(p ColumnProfile, _ []Row) bool { return strings.Contains(strings.ToLower(p.Name), "phone") },
		rejects:  func(v any) bool { return !IsValidPhone(ValueString(v)) },
		title:    "Invalid phone numbers in %s",
		expected: "A phone number with 10-15 digits, optionally prefixed with +",
		pattern:  phoneRegex.String(),
	},
	{
		rule: RuleTypeMismatch,
		applies: func(p ColumnProfile, rows []Row) bool {
			if p.Type != TypeString || !IsNumericNamedColumn(p.Name) {
				return false
			}
			share, ok := numericShare(rows, p.Name)
			return ok && share > 0.5
		},
		rejects:  func(v any) bool { _, ok := ToFloat(v); return !ok },
		title:    "Data type mismatch in %s",
		expected: "Numeric values",
		pattern:  numericRegex.String(),
	},
	{
		rule:     RulePlaceholder,
		applies:  func(p ColumnProfile, _ []Row) bool { return p.Type == TypeString },
		rejects:  func(v any) bool { return placeholderRegex.MatchString(strings.TrimSpace(ValueString(v))) },
		title:    "Placeholder values in %s",
		expected: "A real value instead of a placeholder",
		pattern:  placeholderRegex.String(),
	},
	{
		rule:    RuleNegative,
		applies: func(p ColumnProfile, _ []Row) bool { return p.Type == TypeNumeric && IsAmountColumn(p.Name) },
		rejects: func(v any) bool {
			f, ok := ToFloat(v)
			return ok && f < 0
		},
		title:    "Negative values in %s",
		expected: "A value of zero or more",
	},
}

// detectInvalid applies every matching validation rule to every column.
// Null cells are the missing detector's concern and are skipped here. A cell
// rejected by one rule is not reported again by a later rule on the same
// column, so each bad cell counts once against the quality metrics.
func detectInvalid(in DetectInput) []Issue {
	var issues []Issue
	total := len(in.Rows)
	for _, p := range in.Profiles.Ordered() {
		if p.NullCount == p.Count {
			continue
		}
		claimed := make(map[int]bool)
		for _, rule := range invalidRules {
			if !rule.applies(p, in.Rows) {
				continue
			}
			var (
				rows []int
				ex   exampleCollector
			)
			for i, r := range in.Rows {
				v := r[p.Name]
				if claimed[i] || IsNull(v) || !rule.rejects(v) {
					continue
				}
				rows = append(rows, i+1)
				ex.add(v)
			}
			if len(rows) == 0 {
				continue
			}
			for _, n := range rows {
				claimed[n-1] = true
			}
			issue := newIssue(IssueInvalid, p.Name, rows, total)
			issue.Title = fmt.Sprintf(rule.title, p.Name)
			issue.Description = fmt.Sprintf("%d of %d rows (%.1f%%) in %s fail the %s check.",
				issue.RecordCount, total, issue.ImpactScore, p.Name, rule.rule)
			issue.ExampleValues = ex.values
			issue.ExpectedFormat = rule.expected
			issue.Detail = InvalidDetail{Rule: rule.rule, Pattern: rule.pattern}
			issues = append(issues, issue)
		}
	}
	return issues
}
