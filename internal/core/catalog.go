package core

// catalog.go maps an issue to the ordered list of remediations offered for it.
//
// The mapping depends only on the issue type, whether the column is mostly
// numeric and whether its name suggests personal data. Examples are rendered
// from the live column so the operator sees what each option would do.

import "fmt"

// Option IDs offered by the catalog.
const (
	OptionImputeMean   = "impute-mean"
	OptionImputeMode   = "impute-mode"
	OptionDeleteRow    = "delete-row"
	OptionManualReview = "manual-review"
	OptionKeepFirst    = "keep-first"
	OptionKeepLast     = "keep-last"
	OptionDeleteAll    = "delete-all"
	OptionHash         = "hash"
	OptionMask         = "mask"
	OptionReplaceNull  = "replace-null"
	OptionReplaceMean  = "replace-mean"
	OptionCap          = "cap-3sigma"
)

// numericMajority is the share of non-empty values that must parse as
// numbers for a column to count as numeric.
const numericMajority = 0.8

var optionTemplates = map[string]RemediationOption{
	OptionImputeMean: {
		ID: OptionImputeMean, Title: "Impute with mean", Action: ActionImpute, Method: MethodMean,
		Description: "Fill missing cells with the mean of the original column.",
	},
	OptionImputeMode: {
		ID: OptionImputeMode, Title: "Impute with most frequent value", Action: ActionImpute, Method: MethodMode,
		Description: "Fill missing cells with the most common value of the original column.",
	},
	OptionDeleteRow: {
		ID: OptionDeleteRow, Title: "Delete affected rows", Action: ActionDelete, Method: MethodRow,
		Description: "Remove every affected row from the dataset.",
	},
	OptionManualReview: {
		ID: OptionManualReview, Title: "Flag for manual review", Action: ActionFlag, Method: MethodManualReview,
		Description: "Leave the data unchanged and record the issue for a reviewer.",
	},
	OptionKeepFirst: {
		ID: OptionKeepFirst, Title: "Keep first occurrence", Action: ActionDeduplicate, Method: MethodKeepFirst,
		Description: "Keep the first row of each duplicate group and drop the rest.",
	},
	OptionKeepLast: {
		ID: OptionKeepLast, Title: "Keep last occurrence", Action: ActionDeduplicate, Method: MethodKeepLast,
		Description: "Keep the last row of each duplicate group and drop the rest.",
	},
	OptionDeleteAll: {
		ID: OptionDeleteAll, Title: "Delete all duplicates", Action: ActionDelete, Method: MethodDuplicates,
		Description: "Drop every repeat so each row appears once.",
	},
	OptionHash: {
		ID: OptionHash, Title: "Hash values", Action: ActionTransform, Method: MethodHash,
		Description: "Replace values with a truncated one-way digest. This cannot be undone.",
	},
	OptionMask: {
		ID: OptionMask, Title: "Mask values", Action: ActionTransform, Method: MethodMask,
		Description: "Obscure interior characters while keeping the shape of the value. This cannot be undone.",
	},
	OptionReplaceNull: {
		ID: OptionReplaceNull, Title: "Replace with null", Action: ActionReplace, Method: MethodNull,
		Description: "Clear the invalid cells.",
	},
	OptionReplaceMean: {
		ID: OptionReplaceMean, Title: "Replace with mean", Action: ActionReplace, Method: MethodMean,
		Description: "Overwrite affected cells with the mean of the original column.",
	},
	OptionCap: {
		ID: OptionCap, Title: "Cap at 3 standard deviations", Action: ActionCap, Method: MethodStdDev,
		Description: "Clamp affected values into mean ± 3 standard deviations of the original column.",
	},
}

// catalogFor returns the ordered option IDs for an issue context.
func catalogFor(t IssueType, numeric, pii bool) []string {
	switch t {
	case IssueMissing:
		if numeric {
			return []string{OptionImputeMean, OptionDeleteRow, OptionManualReview}
		}
		return []string{OptionImputeMode, OptionDeleteRow, OptionManualReview}
	case IssueDuplicate:
		return []string{OptionKeepFirst, OptionKeepLast, OptionDeleteAll, OptionManualReview}
	case IssueInvalid:
		if pii {
			return []string{OptionHash, OptionMask, OptionDeleteRow}
		}
		return []string{OptionReplaceNull, OptionDeleteRow, OptionManualReview}
	case IssueOutlier:
		return []string{OptionCap, OptionReplaceMean, OptionDeleteRow, OptionManualReview}
	}
	return []string{OptionDeleteRow, OptionManualReview}
}

// Options returns the remediation options for an issue, with examples
// rendered from the profiles and rows. rows may be nil, in which case the
// numeric test falls back to the column's profiled type.
func Options(issue Issue, profiles Profiles, rows []Row) []RemediationOption {
	profile, hasProfile := profiles[issue.Column]
	numeric := false
	if issue.Column != "" {
		if rows != nil {
			numeric = isNumericMajority(rows, issue.Column)
		} else {
			numeric = hasProfile && profile.Type == TypeNumeric
		}
	}

	ids := catalogFor(issue.Type, numeric, IsPIIColumn(issue.Column))
	out := make([]RemediationOption, 0, len(ids))
	for _, id := range ids {
		opt := optionTemplates[id]
		opt.Example = renderExample(opt, issue, profile, hasProfile)
		out = append(out, opt)
	}
	return out
}

// FindOption returns the option with the given ID from opts.
func FindOption(opts []RemediationOption, id string) (RemediationOption, bool) {
	for _, o := range opts {
		if o.ID == id {
			return o, true
		}
	}
	return RemediationOption{}, false
}

// isNumericMajority reports whether at least 80% of the column's non-empty
// values parse as finite numbers.
func isNumericMajority(rows []Row, column string) bool {
	share, ok := numericShare(rows, column)
	return ok && share >= numericMajority
}

// numericShare returns the fraction of non-null values in column that parse
// as finite numbers. ok is false when the column has no non-null values.
func numericShare(rows []Row, column string) (share float64, ok bool) {
	var nonEmpty, numeric int
	for _, r := range rows {
		v := r[column]
		if IsNull(v) {
			continue
		}
		nonEmpty++
		if _, ok := ToFloat(v); ok {
			numeric++
		}
	}
	if nonEmpty == 0 {
		return 0, false
	}
	return float64(numeric) / float64(nonEmpty), true
}

func renderExample(opt RemediationOption, issue Issue, p ColumnProfile, hasProfile bool) string {
	sample := ""
	if len(issue.ExampleValues) > 0 {
		sample = issue.ExampleValues[0]
	}
	n := issue.RecordCount

	switch opt.ID {
	case OptionImputeMean, OptionReplaceMean:
		if hasProfile && p.Numeric != nil {
			return fmt.Sprintf("%d cells in %s become %.2f", n, issue.Column, p.Numeric.Mean)
		}
		return fmt.Sprintf("%d cells in %s become the column mean", n, issue.Column)
	case OptionImputeMode:
		if hasProfile && len(p.TopValues) > 0 {
			return fmt.Sprintf("%d cells in %s become %q", n, issue.Column, p.TopValues[0].Value)
		}
		return fmt.Sprintf("%d cells in %s become the most frequent value", n, issue.Column)
	case OptionDeleteRow:
		return fmt.Sprintf("%d rows removed (%s)", n, previewRows(issue.AffectedRows))
	case OptionManualReview:
		return fmt.Sprintf("%d rows flagged, no data changed", n)
	case OptionKeepFirst, OptionKeepLast, OptionDeleteAll:
		return duplicateExample(opt.ID, issue)
	case OptionHash:
		if sample != "" {
			return fmt.Sprintf("%q -> %s", sample, hashValue(sample))
		}
	case OptionMask:
		if sample != "" {
			return fmt.Sprintf("%q -> %q", sample, maskValue(sample))
		}
	case OptionReplaceNull:
		if sample != "" {
			return fmt.Sprintf("%q -> null", sample)
		}
	case OptionCap:
		if d, ok := issue.Detail.(OutlierDetail); ok {
			return fmt.Sprintf("values clamped into [%.2f, %.2f]", d.Lower, d.Upper)
		}
	}
	return ""
}

func duplicateExample(id string, issue Issue) string {
	d, ok := issue.Detail.(DuplicateDetail)
	if !ok {
		return fmt.Sprintf("%d duplicate rows removed", issue.RecordCount)
	}
	var group []int
	switch {
	case len(d.Pairs) > 0:
		group = []int{d.Pairs[0].Original, d.Pairs[0].Duplicate}
	case len(d.Groups) > 0:
		group = d.Groups[0]
	default:
		return ""
	}
	switch id {
	case OptionKeepLast:
		return fmt.Sprintf("keep row %d, drop rows %s", group[len(group)-1], joinInts(group[:len(group)-1]))
	default:
		return fmt.Sprintf("keep row %d, drop rows %s", group[0], joinInts(group[1:]))
	}
}

func previewRows(rows []int) string {
	const limit = 5
	if len(rows) <= limit {
		return "rows " + joinInts(rows)
	}
	return "rows " + joinInts(rows[:limit]) + ", ..."
}
