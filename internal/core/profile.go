package core

// profile.go computes per-column statistics for a dataset.
//
// Profiling is a single pass per column: base counts for every column, then
// type-specific statistics once Classify has decided the type. Profiles are
// rebuilt wholesale on every pass and never mutated afterwards.

import (
	"sort"
	"unicode/utf8"
)

const topValueLimit = 5

// Profiles maps column name to its profile.
type Profiles map[string]ColumnProfile

// Ordered returns the profiles sorted by column position.
func (p Profiles) Ordered() []ColumnProfile {
	out := make([]ColumnProfile, 0, len(p))
	for _, cp := range p {
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Profile profiles every column found in rows.
func Profile(rows []Row) Profiles {
	return ProfileColumns(rows, ColumnsOf(rows))
}

// ProfileColumns profiles the given columns in order. An empty dataset
// yields an empty profile set.
func ProfileColumns(rows []Row, columns []string) Profiles {
	profiles := make(Profiles, len(columns))
	if len(rows) == 0 {
		return profiles
	}
	for i, col := range columns {
		profiles[col] = profileColumn(col, i, columnValues(rows, col))
	}
	return profiles
}

// ColumnsOf returns every column name in rows in first-seen order. Keys of a
// single row are taken alphabetically since maps carry no order.
func ColumnsOf(rows []Row) []string {
	seen := make(map[string]bool)
	var columns []string
	for _, r := range rows {
		keys := make([]string, 0, len(r))
		for k := range r {
			if !seen[k] {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			seen[k] = true
			columns = append(columns, k)
		}
	}
	return columns
}

// columnValues returns the column's cell for every row; absent keys are nil.
func columnValues(rows []Row, column string) []any {
	values := make([]any, len(rows))
	for i, r := range rows {
		values[i] = r[column]
	}
	return values
}

func profileColumn(name string, position int, values []any) ColumnProfile {
	p := ColumnProfile{
		Name:     name,
		Position: position,
		Count:    len(values),
		Type:     TypeUnknown,
	}

	distinct := make(map[string]struct{})
	for _, v := range values {
		if IsNull(v) {
			p.NullCount++
			continue
		}
		distinct[ValueString(v)] = struct{}{}
	}
	p.DistinctCount = len(distinct)

	if p.Count > 0 {
		nonNull := p.Count - p.NullCount
		p.Completeness = float64(nonNull) / float64(p.Count)
		p.Sparsity = float64(p.NullCount) / float64(p.Count)
		p.Uniqueness = float64(p.DistinctCount) / float64(p.Count)
	}

	// All-null columns keep base stats only.
	if p.NullCount == p.Count {
		return p
	}

	p.Type, p.Format = Classify(values)

	switch p.Type {
	case TypeNumeric:
		floats := make([]float64, 0, len(values))
		for _, v := range values {
			if f, ok := ToFloat(v); ok && !IsNull(v) {
				floats = append(floats, f)
			}
		}
		p.Numeric = numericSummary(floats)
	case TypeString:
		p.Text = textSummary(values)
	}

	p.TopValues = topValues(values, topValueLimit)
	return p
}

func textSummary(values []any) *TextStats {
	var (
		n     int
		total int
		stats TextStats
	)
	for _, v := range values {
		if IsNull(v) {
			continue
		}
		l := utf8.RuneCountInString(ValueString(v))
		if n == 0 || l < stats.MinLength {
			stats.MinLength = l
		}
		if l > stats.MaxLength {
			stats.MaxLength = l
		}
		total += l
		n++
	}
	if n == 0 {
		return nil
	}
	stats.AvgLength = round1(float64(total) / float64(n))
	return &stats
}
