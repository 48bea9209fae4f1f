package core

import (
	"fmt"
	"strings"
)

// minPartialColumns is the fewest non-key columns a partial match must agree on.
const minPartialColumns = 2

// detectDuplicates runs the exact, partial and identifier-column passes.
func detectDuplicates(in DetectInput) []Issue {
	var issues []Issue
	if issue, ok := exactDuplicates(in.Rows); ok {
		issues = append(issues, issue)
	}
	if issue, ok := partialDuplicates(in.Rows, in.Profiles); ok {
		issues = append(issues, issue)
	}
	issues = append(issues, identifierDuplicates(in.Rows, in.Profiles)...)
	return issues
}

// exactDuplicates flags every row identical to an earlier one.
func exactDuplicates(rows []Row) (Issue, bool) {
	first := make(map[string]int, len(rows))
	var (
		pairs []DuplicatePair
		dups  []int
	)
	for i, r := range rows {
		key := canonicalRow(r)
		if orig, ok := first[key]; ok {
			pairs = append(pairs, DuplicatePair{Original: orig + 1, Duplicate: i + 1})
			dups = append(dups, i+1)
			continue
		}
		first[key] = i
	}
	if len(dups) == 0 {
		return Issue{}, false
	}

	issue := newIssue(IssueDuplicate, "", dups, len(rows))
	issue.Title = "Duplicate rows"
	issue.Description = fmt.Sprintf("%d rows (%.1f%%) exactly repeat an earlier row.", issue.RecordCount, issue.ImpactScore)
	issue.ExampleValues = pairExamples(pairs)
	issue.ExpectedFormat = "Each row appears once"
	issue.Detail = DuplicateDetail{Scope: DuplicateExact, Pairs: pairs}
	return issue, true
}

// keyFields returns the key-named columns whose values are present and
// unique across the whole dataset. Unique descriptive columns such as a name
// are not keys and take part in the comparison.
func keyFields(rows []Row, profiles Profiles) []string {
	var keys []string
	for _, p := range profiles.Ordered() {
		if !IsKeyColumn(p.Name) && !IsIdentifierColumn(p.Name) {
			continue
		}
		if len(rows) > 1 && p.NullCount == 0 && p.DistinctCount == p.Count {
			keys = append(keys, p.Name)
		}
	}
	return keys
}

// partialDuplicates groups rows that agree on every column except the key
// fields; such rows are the same record entered under different keys.
func partialDuplicates(rows []Row, profiles Profiles) (Issue, bool) {
	keys := keyFields(rows, profiles)
	if len(keys) == 0 || len(keys) == len(profiles) {
		return Issue{}, false
	}
	compare := nonKeyColumns(profiles, keys)
	if len(compare) < minPartialColumns {
		return Issue{}, false
	}

	groups := groupRows(rows, func(r Row) (string, bool) {
		return canonicalColumns(r, compare), true
	})
	if len(groups) == 0 {
		return Issue{}, false
	}

	var dups []int
	var ex exampleCollector
	for _, g := range groups {
		dups = append(dups, g[1:]...)
		ex.add(fmt.Sprintf("rows %s", joinInts(g)))
	}

	issue := newIssue(IssueDuplicate, "", dups, len(rows))
	issue.Title = "Partial duplicate rows"
	issue.Description = fmt.Sprintf("%d rows (%.1f%%) match an earlier row on every column except %s.",
		issue.RecordCount, issue.ImpactScore, strings.Join(keys, ", "))
	issue.ExampleValues = ex.values
	issue.ExpectedFormat = "Each record appears under one key"
	issue.Detail = DuplicateDetail{Scope: DuplicatePartial, KeyColumns: keys, Groups: groups}
	return issue, true
}

// identifierDuplicates flags repeated values in a record's own identifier column.
func identifierDuplicates(rows []Row, profiles Profiles) []Issue {
	var issues []Issue
	for _, p := range profiles.Ordered() {
		if !IsIdentifierColumn(p.Name) || p.DistinctCount+p.NullCount == p.Count {
			continue
		}
		col := p.Name
		groups := groupRows(rows, func(r Row) (string, bool) {
			v := r[col]
			if IsNull(v) {
				return "", false
			}
			return ValueString(v), true
		})
		if len(groups) == 0 {
			continue
		}

		var (
			dups []int
			ex   exampleCollector
		)
		for _, g := range groups {
			dups = append(dups, g[1:]...)
			ex.add(rows[g[0]-1][col])
		}

		issue := newIssue(IssueDuplicate, col, dups, len(rows))
		issue.Title = fmt.Sprintf("Duplicate identifiers in %s", col)
		issue.Description = fmt.Sprintf("%d rows (%.1f%%) reuse an identifier already present in %s.",
			issue.RecordCount, issue.ImpactScore, col)
		issue.ExampleValues = ex.values
		issue.ExpectedFormat = "Unique value per row"
		issue.Detail = DuplicateDetail{Scope: DuplicateKey, KeyColumns: []string{col}, Groups: groups}
		issues = append(issues, issue)
	}
	return issues
}

// groupRows returns 1-based row groups of size > 1 sharing the same key, in
// order of first occurrence. Rows for which key returns false are skipped.
func groupRows(rows []Row, key func(Row) (string, bool)) [][]int {
	index := make(map[string]int)
	var groups [][]int
	for i, r := range rows {
		k, ok := key(r)
		if !ok {
			continue
		}
		if g, seen := index[k]; seen {
			groups[g] = append(groups[g], i+1)
			continue
		}
		index[k] = len(groups)
		groups = append(groups, []int{i + 1})
	}
	out := groups[:0]
	for _, g := range groups {
		if len(g) > 1 {
			out = append(out, g)
		}
	}
	return out
}

func nonKeyColumns(profiles Profiles, keys []string) []string {
	isKey := make(map[string]bool, len(keys))
	for _, k := range keys {
		isKey[k] = true
	}
	var cols []string
	for _, p := range profiles.Ordered() {
		if !isKey[p.Name] {
			cols = append(cols, p.Name)
		}
	}
	return cols
}

func pairExamples(pairs []DuplicatePair) []string {
	var ex exampleCollector
	for _, p := range pairs {
		ex.add(fmt.Sprintf("row %d = row %d", p.Duplicate, p.Original))
	}
	return ex.values
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprint(x)
	}
	return strings.Join(parts, ", ")
}
