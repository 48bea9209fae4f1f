package core

import (
	"math"
	"sort"
)

// sortedCopy returns x sorted ascending without touching the input.
func sortedCopy(x []float64) []float64 {
	cp := make([]float64, len(x))
	copy(cp, x)
	sort.Float64s(cp)
	return cp
}

// mean sums in ascending order so the result does not depend on input order.
func mean(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	return sum / float64(n)
}

// sampleStdDev is the n-1 standard deviation; 0 for fewer than two values.
func sampleStdDev(sorted []float64, m float64) float64 {
	n := len(sorted)
	if n < 2 {
		return 0
	}
	ss := 0.0
	for _, v := range sorted {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	mid := n >> 1
	if n&1 == 0 {
		return (sorted[mid-1] + sorted[mid]) * 0.5
	}
	return sorted[mid]
}

// numericSummary computes full-pass statistics for the given values.
func numericSummary(values []float64) *NumericStats {
	if len(values) == 0 {
		return nil
	}
	sorted := sortedCopy(values)
	m := mean(sorted)
	return &NumericStats{
		Min:     sorted[0],
		Max:     sorted[len(sorted)-1],
		Mean:    m,
		Median:  median(sorted),
		StdDev:  sampleStdDev(sorted, m),
		Samples: len(sorted),
	}
}

// columnFloats extracts the numeric values of a column, skipping cells that
// do not coerce.
func columnFloats(rows []Row, column string) []float64 {
	out := make([]float64, 0, len(rows))
	for _, r := range rows {
		v, ok := r[column]
		if !ok || IsNull(v) {
			continue
		}
		if f, ok := ToFloat(v); ok {
			out = append(out, f)
		}
	}
	return out
}

// topValues builds a frequency histogram of non-null values, highest count
// first, ties broken by value.
func topValues(values []any, limit int) []ValueCount {
	counts := make(map[string]int)
	for _, v := range values {
		if IsNull(v) {
			continue
		}
		counts[ValueString(v)]++
	}
	out := make([]ValueCount, 0, len(counts))
	for v, c := range counts {
		out = append(out, ValueCount{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// modeValue returns the most frequent non-null value of a column in its
// original type, ties broken by canonical string.
func modeValue(rows []Row, column string) (any, bool) {
	type entry struct {
		value any
		count int
	}
	counts := make(map[string]*entry)
	for _, r := range rows {
		v, ok := r[column]
		if !ok || IsNull(v) {
			continue
		}
		key := ValueString(v)
		if e, ok := counts[key]; ok {
			e.count++
		} else {
			counts[key] = &entry{value: v, count: 1}
		}
	}
	if len(counts) == 0 {
		return nil, false
	}
	var (
		bestKey string
		best    *entry
	)
	for k, e := range counts {
		if best == nil || e.count > best.count || (e.count == best.count && k < bestKey) {
			bestKey, best = k, e
		}
	}
	return best.value, true
}
