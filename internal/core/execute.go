package core

// execute.go applies a remediation option to a dataset snapshot.
//
// Execute never mutates its inputs: it deep-copies the current rows, applies
// the transform to the copy and returns the cleaned rows together with one
// Change per modification. Statistics used to fill or clamp values (mean,
// mode, standard deviation) are computed over the ORIGINAL column so that
// repeated remediations do not drift. Nothing is committed here; the caller
// stores the result only if Execute succeeds.

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"unicode"
)

// hashLength is the number of hex characters kept from the digest.
const hashLength = 16

// Change is one lineage record of a modification. Row and Column are "*"
// when the change is not cell-specific.
type Change struct {
	Row    string     `json:"row"`
	Column string     `json:"column"`
	Action ActionKind `json:"action"`
	Before any        `json:"before"`
	After  any        `json:"after"`
	Reason string     `json:"reason"`
}

// ExecuteResult is the outcome of applying one option.
type ExecuteResult struct {
	Rows           []Row
	Changes        []Change
	AppliedCount   int
	CandidateCount int
	Summary        string
}

// Execute applies opt to current for the given issue. original is the
// dataset as ingested and supplies column statistics.
func Execute(original, current []Row, issue Issue, opt RemediationOption) (ExecuteResult, error) {
	rows := copyRows(current)

	switch {
	case opt.Action == ActionDelete && opt.Method == MethodRow:
		return deleteRows(rows, issue), nil
	case opt.Action == ActionDelete && opt.Method == MethodDuplicates,
		opt.Action == ActionDeduplicate && opt.Method == MethodKeepFirst:
		return dedupe(rows, issue, opt.Action, false), nil
	case opt.Action == ActionDeduplicate && opt.Method == MethodKeepLast:
		return dedupe(rows, issue, opt.Action, true), nil
	case opt.Action == ActionFlag:
		return flagRows(rows, issue), nil
	}

	if issue.Column == "" {
		return ExecuteResult{}, fmt.Errorf("%w: %s/%s needs a column", ErrUnsupportedMethod, opt.Action, opt.Method)
	}

	switch {
	case opt.Action == ActionImpute && opt.Method == MethodMean,
		opt.Action == ActionReplace && opt.Method == MethodMean:
		stats := numericSummary(columnFloats(original, issue.Column))
		if stats == nil {
			return skipResult(rows, issue, "original column has no numeric values"), nil
		}
		return fillCells(rows, issue, opt.Action, stats.Mean, "column mean"), nil

	case opt.Action == ActionImpute && opt.Method == MethodMode:
		mode, ok := modeValue(original, issue.Column)
		if !ok {
			return skipResult(rows, issue, "original column has no values"), nil
		}
		return fillCells(rows, issue, opt.Action, mode, "most frequent value"), nil

	case opt.Action == ActionReplace && opt.Method == MethodNull:
		return fillCells(rows, issue, opt.Action, nil, "invalid value cleared"), nil

	case opt.Action == ActionTransform && opt.Method == MethodHash:
		return transformCells(rows, issue, hashValue, "value hashed"), nil

	case opt.Action == ActionTransform && opt.Method == MethodMask:
		return transformCells(rows, issue, maskValue, "value masked"), nil

	case opt.Action == ActionCap && opt.Method == MethodStdDev:
		stats := numericSummary(columnFloats(original, issue.Column))
		if stats == nil {
			return skipResult(rows, issue, "original column has no numeric values"), nil
		}
		return capCells(rows, issue, stats), nil
	}

	return ExecuteResult{}, fmt.Errorf("%w: %s/%s", ErrUnsupportedMethod, opt.Action, opt.Method)
}

// targetIndexes converts the issue's 1-based rows into valid 0-based indexes.
func targetIndexes(issue Issue, n int) []int {
	out := make([]int, 0, len(issue.AffectedRows))
	seen := make(map[int]bool, len(issue.AffectedRows))
	for _, r := range issue.AffectedRows {
		i := r - 1
		if i < 0 || i >= n || seen[i] {
			continue
		}
		seen[i] = true
		out = append(out, i)
	}
	return out
}

func rowLabel(i int) string {
	return strconv.Itoa(i + 1)
}

func deleteRows(rows []Row, issue Issue) ExecuteResult {
	targets := targetIndexes(issue, len(rows))
	drop := make(map[int]bool, len(targets))
	for _, i := range targets {
		drop[i] = true
	}
	return removeRows(rows, drop, ActionDelete, len(issue.AffectedRows), fmt.Sprintf("row affected by %s", issue.Title))
}

// removeRows drops the marked indexes and logs the full prior row for each.
func removeRows(rows []Row, drop map[int]bool, action ActionKind, candidates int, reason string) ExecuteResult {
	kept := make([]Row, 0, len(rows)-len(drop))
	var changes []Change
	for i, r := range rows {
		if drop[i] {
			changes = append(changes, Change{
				Row: rowLabel(i), Column: "*", Action: action,
				Before: r, After: nil, Reason: reason,
			})
			continue
		}
		kept = append(kept, r)
	}
	return ExecuteResult{
		Rows:           kept,
		Changes:        changes,
		AppliedCount:   len(changes),
		CandidateCount: candidates,
		Summary:        fmt.Sprintf("Removed %d of %d rows", len(changes), len(rows)),
	}
}

// duplicateKeyFunc returns the grouping key matching how the issue was detected.
func duplicateKeyFunc(rows []Row, issue Issue) func(Row) (string, bool) {
	d, _ := issue.Detail.(DuplicateDetail)
	switch d.Scope {
	case DuplicatePartial:
		isKey := make(map[string]bool, len(d.KeyColumns))
		for _, k := range d.KeyColumns {
			isKey[k] = true
		}
		var compare []string
		for _, c := range ColumnsOf(rows) {
			if !isKey[c] {
				compare = append(compare, c)
			}
		}
		return func(r Row) (string, bool) { return canonicalColumns(r, compare), true }
	case DuplicateKey:
		col := issue.Column
		if col == "" && len(d.KeyColumns) > 0 {
			col = d.KeyColumns[0]
		}
		return func(r Row) (string, bool) {
			v := r[col]
			if IsNull(v) {
				return "", false
			}
			return ValueString(v), true
		}
	}
	return func(r Row) (string, bool) { return canonicalRow(r), true }
}

// dedupe keeps one row per duplicate group: the first, or the last when keepLast.
func dedupe(rows []Row, issue Issue, action ActionKind, keepLast bool) ExecuteResult {
	groups := groupRows(rows, duplicateKeyFunc(rows, issue))
	drop := make(map[int]bool)
	for _, g := range groups {
		victims := g[1:]
		if keepLast {
			victims = g[:len(g)-1]
		}
		for _, r := range victims {
			drop[r-1] = true
		}
	}
	res := removeRows(rows, drop, action, issue.RecordCount, "duplicate of a kept row")
	res.Summary = fmt.Sprintf("Removed %d duplicate rows across %d groups", res.AppliedCount, len(groups))
	return res
}

func flagRows(rows []Row, issue Issue) ExecuteResult {
	col := issue.Column
	if col == "" {
		col = "*"
	}
	return ExecuteResult{
		Rows: rows,
		Changes: []Change{{
			Row: "*", Column: col, Action: ActionFlag,
			Before: nil, After: nil,
			Reason: fmt.Sprintf("%d rows flagged for manual review", issue.RecordCount),
		}},
		AppliedCount:   issue.RecordCount,
		CandidateCount: issue.RecordCount,
		Summary:        fmt.Sprintf("Flagged %d rows for manual review; no data changed", issue.RecordCount),
	}
}

func skipResult(rows []Row, issue Issue, why string) ExecuteResult {
	return ExecuteResult{
		Rows:           rows,
		CandidateCount: issue.RecordCount,
		Summary:        fmt.Sprintf("No changes: %s", why),
	}
}

// fillCells overwrites the affected cells with value.
func fillCells(rows []Row, issue Issue, action ActionKind, value any, reason string) ExecuteResult {
	var changes []Change
	for _, i := range targetIndexes(issue, len(rows)) {
		before := rows[i][issue.Column]
		rows[i][issue.Column] = value
		changes = append(changes, Change{
			Row: rowLabel(i), Column: issue.Column, Action: action,
			Before: before, After: value, Reason: reason,
		})
	}
	return ExecuteResult{
		Rows:           rows,
		Changes:        changes,
		AppliedCount:   len(changes),
		CandidateCount: len(issue.AffectedRows),
		Summary:        fmt.Sprintf("Updated %d cells in %s (%s)", len(changes), issue.Column, reason),
	}
}

// transformCells rewrites non-null affected cells through fn.
func transformCells(rows []Row, issue Issue, fn func(string) string, reason string) ExecuteResult {
	var changes []Change
	for _, i := range targetIndexes(issue, len(rows)) {
		before := rows[i][issue.Column]
		if IsNull(before) {
			continue
		}
		after := fn(ValueString(before))
		rows[i][issue.Column] = after
		changes = append(changes, Change{
			Row: rowLabel(i), Column: issue.Column, Action: ActionTransform,
			Before: before, After: after, Reason: reason,
		})
	}
	return ExecuteResult{
		Rows:           rows,
		Changes:        changes,
		AppliedCount:   len(changes),
		CandidateCount: len(issue.AffectedRows),
		Summary:        fmt.Sprintf("Transformed %d cells in %s (%s)", len(changes), issue.Column, reason),
	}
}

// capCells clamps affected values into mean ± 3σ, logging only real changes.
func capCells(rows []Row, issue Issue, stats *NumericStats) ExecuteResult {
	lower := stats.Mean - outlierSigma*stats.StdDev
	upper := stats.Mean + outlierSigma*stats.StdDev

	var changes []Change
	for _, i := range targetIndexes(issue, len(rows)) {
		before := rows[i][issue.Column]
		f, ok := ToFloat(before)
		if !ok || IsNull(before) {
			continue
		}
		capped := clamp(f, lower, upper)
		if capped == f {
			continue
		}
		rows[i][issue.Column] = capped
		changes = append(changes, Change{
			Row: rowLabel(i), Column: issue.Column, Action: ActionCap,
			Before: before, After: capped,
			Reason: fmt.Sprintf("clamped into [%.2f, %.2f]", lower, upper),
		})
	}
	return ExecuteResult{
		Rows:           rows,
		Changes:        changes,
		AppliedCount:   len(changes),
		CandidateCount: len(issue.AffectedRows),
		Summary:        fmt.Sprintf("Capped %d values in %s to [%.2f, %.2f]", len(changes), issue.Column, lower, upper),
	}
}

// hashValue returns a truncated SHA-256 hex digest.
func hashValue(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:hashLength]
}

// maskValue keeps the first and last characters and any punctuation, and
// replaces every other letter or digit with '*'.
func maskValue(s string) string {
	runes := []rune(s)
	if len(runes) <= 2 {
		out := make([]rune, len(runes))
		for i := range out {
			out[i] = '*'
		}
		return string(out)
	}
	for i := 1; i < len(runes)-1; i++ {
		if unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) {
			runes[i] = '*'
		}
	}
	return string(runes)
}
