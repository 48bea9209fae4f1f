package core

// convert.go provides value coercion for loosely typed cell values.
//
// Rows arrive from CSV, JSON or a database, so a "number" may be a float64,
// an int or a string with stray whitespace. These helpers answer the
// questions the profiler, detectors and executor keep asking:
//   - Is this cell null?
//   - Does it coerce to a finite number, a date or a boolean?
//   - What is its canonical string form for counting and comparison?
//
// None of them return errors: a value that does not coerce is reported via
// the boolean result and becomes a candidate for detection.

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// numericRegex validates that a string is a valid numeric format after trimming.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// fourDigitYearRegex finds a standalone 4-digit year token. Bare digit runs
// such as "20240115" do not qualify.
var fourDigitYearRegex = regexp.MustCompile(`(^|[^0-9])[12][0-9]{3}([^0-9]|$)`)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would result in dates more than this many years in the future
// are assumed to be in the previous century.
var TwoDigitYearPivot = 20

// Date layouts split by year format for proper 2-digit year handling
var (
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06",
	}
	fourDigitYearLayouts = []string{
		"2006-01-02", "2006-1-2", "2006/01/02", "2006.01.02",
		time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05",
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"2/1/2006", "02/01/2006", "2-1-2006", "02-01-2006", "2.1.2006", "02.01.2006",
		"1/2/2006 15:04", "1/2/2006 15:04:05",
		"Jan 2, 2006", "January 2, 2006", "2 Jan 2006", "2 January 2006",
		"20060102",
	}
)

// nullTokens are string spellings treated as null (compared lowercased).
var nullTokens = map[string]bool{
	"nan":  true,
	"none": true,
	"null": true,
}

// IsNull reports whether v counts as a missing value: nil, a string that is
// empty after trimming, a null token, or a NaN float.
func IsNull(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		s := strings.TrimSpace(x)
		return s == "" || nullTokens[strings.ToLower(s)]
	case float64:
		return math.IsNaN(x)
	case float32:
		return math.IsNaN(float64(x))
	}
	return false
}

// ValueString returns the canonical string form of v used for distinct
// counts, histograms and example values.
func ValueString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}

// DisplayValue renders v for example lists, making empty and null cells visible.
func DisplayValue(v any) string {
	if v == nil {
		return "null"
	}
	s := ValueString(v)
	if strings.TrimSpace(s) == "" {
		return "(empty)"
	}
	return s
}

// ToFloat coerces v to a finite float64.
func ToFloat(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case int32:
		f = float64(x)
	case string:
		s := strings.TrimSpace(x)
		if !numericRegex.MatchString(s) {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ParseDate coerces v to a time. Strings are tried against the 4-digit year
// layouts first, then the 2-digit layouts with pivot year adjustment.
func ParseDate(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, !x.IsZero()
	case string:
		return parseDateString(x)
	}
	return time.Time{}, false
}

func parseDateString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t, true
		}
	}

	return time.Time{}, false
}

// IsDateLike reports whether v parses as a date AND carries a 4-digit year
// token, which keeps bare numbers out of date columns.
func IsDateLike(v any) bool {
	if t, ok := v.(time.Time); ok {
		return !t.IsZero()
	}
	s, ok := v.(string)
	if !ok {
		return false
	}
	if !fourDigitYearRegex.MatchString(s) {
		return false
	}
	_, ok = parseDateString(s)
	return ok
}

// ToBool coerces v to a boolean. Accepts true/false and yes/no.
func ToBool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "yes":
			return true, true
		case "false", "no":
			return false, true
		}
	}
	return false, false
}

// canonicalRow serializes a row with type tags so that two rows produce the
// same key only when they are deeply equal.
func canonicalRow(r Row) string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(strconv.Quote(k))
		b.WriteByte('=')
		b.WriteString(canonicalValue(r[k]))
		b.WriteByte(';')
	}
	return b.String()
}

// canonicalColumns serializes only the named columns; absent keys and nil
// values are distinguished.
func canonicalColumns(r Row, columns []string) string {
	var b strings.Builder
	for _, c := range columns {
		v, ok := r[c]
		if !ok {
			b.WriteString("_;")
			continue
		}
		b.WriteString(canonicalValue(v))
		b.WriteByte(';')
	}
	return b.String()
}

func canonicalValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "z"
	case string:
		return "s" + strconv.Quote(x)
	case float64:
		return "f" + strconv.FormatFloat(x, 'g', -1, 64)
	case int:
		return "i" + strconv.Itoa(x)
	case bool:
		return "b" + strconv.FormatBool(x)
	default:
		return fmt.Sprintf("%T:%v", x, x)
	}
}

// copyRows deep-copies a row slice one level down (cell values are scalars).
func copyRows(rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = copyRow(r)
	}
	return out
}

func copyRow(r Row) Row {
	c := make(Row, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// round1 rounds to one decimal place.
func round1(f float64) float64 {
	return math.Round(f*10) / 10
}

// percent returns part/total as a percentage with one decimal, or 0 for an empty total.
func percent(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return round1(float64(part) / float64(total) * 100)
}
