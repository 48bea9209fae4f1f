package core

// classify.go infers a column's data type and value format from a sample.
//
// Type inference looks at up to typeSampleSize non-null values. A column is
// numeric, date or boolean when at least typeMajority of the sample
// coerces to that type; otherwise it is a string column. String columns are
// further tagged with the first format (email, phone, url, iso_date,
// us_date) that more than half of a smaller sample matches.

import (
	"regexp"
	"strings"
)

const (
	typeSampleSize   = 100
	formatSampleSize = 50
	typeMajority     = 0.8
)

// Format names reported for string columns.
const (
	FormatEmail   = "email"
	FormatPhone   = "phone"
	FormatURL     = "url"
	FormatISODate = "iso_date"
	FormatUSDate  = "us_date"
	FormatText    = "text"
)

var (
	emailRegex      = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phoneRegex      = regexp.MustCompile(`^\+?\d{10,15}$`)
	phoneSeparators = regexp.MustCompile(`[-\s().]`)
	urlRegex        = regexp.MustCompile(`^(?i)(https?://|www\.)[^\s/$.?#][^\s]*$`)
	isoDateRegex    = regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}([T ].*)?$`)
	usDateRegex     = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`)
	euDateRegex     = regexp.MustCompile(`^\d{1,2}[.-]\d{1,2}[.-]\d{4}$`)
)

// formatCheck is one entry of the ordered format table.
type formatCheck struct {
	name  string
	match func(string) bool
}

// formatChecks are tried in order; the first one a majority matches wins.
var formatChecks = []formatCheck{
	{FormatEmail, func(s string) bool { return emailRegex.MatchString(s) }},
	{FormatPhone, IsValidPhone},
	{FormatURL, func(s string) bool { return urlRegex.MatchString(s) }},
	{FormatISODate, func(s string) bool { return isoDateRegex.MatchString(s) }},
	{FormatUSDate, func(s string) bool { return usDateRegex.MatchString(s) }},
}

// IsValidEmail reports whether s looks like an email address.
func IsValidEmail(s string) bool {
	return emailRegex.MatchString(strings.TrimSpace(s))
}

// IsValidPhone reports whether s has 10-15 digits once separators are stripped.
func IsValidPhone(s string) bool {
	return phoneRegex.MatchString(phoneSeparators.ReplaceAllString(strings.TrimSpace(s), ""))
}

// Classify infers the data type and format of a column from its values.
func Classify(values []any) (DataType, string) {
	sample := nonNullSample(values, typeSampleSize)
	if len(sample) == 0 {
		return TypeUnknown, ""
	}

	var numeric, dates, bools, ints int
	for _, v := range sample {
		if f, ok := ToFloat(v); ok {
			numeric++
			if f == float64(int64(f)) {
				ints++
			}
		}
		if IsDateLike(v) {
			dates++
		}
		if _, ok := ToBool(v); ok {
			bools++
		}
	}

	n := float64(len(sample))
	switch {
	case float64(numeric)/n >= typeMajority:
		if ints == numeric {
			return TypeNumeric, "integer"
		}
		return TypeNumeric, "decimal"
	case float64(dates)/n >= typeMajority:
		return TypeDate, dominantDateFamily(sample)
	case float64(bools)/n >= typeMajority:
		return TypeBoolean, "boolean"
	}

	return TypeString, DetectFormat(sample)
}

// DetectFormat returns the first format matched by more than half of up to
// formatSampleSize values, or FormatText.
func DetectFormat(values []any) string {
	sample := nonNullSample(values, formatSampleSize)
	if len(sample) == 0 {
		return FormatText
	}
	for _, check := range formatChecks {
		hits := 0
		for _, v := range sample {
			if check.match(strings.TrimSpace(ValueString(v))) {
				hits++
			}
		}
		if hits*2 > len(sample) {
			return check.name
		}
	}
	return FormatText
}

// ValueFormat returns the first format a single value matches, or FormatText.
func ValueFormat(v any) string {
	s := strings.TrimSpace(ValueString(v))
	for _, check := range formatChecks {
		if check.match(s) {
			return check.name
		}
	}
	return FormatText
}

// dateFamily classifies a date string by layout family: iso, us, eu or other.
func dateFamily(v any) string {
	s, ok := v.(string)
	if !ok {
		return "native"
	}
	s = strings.TrimSpace(s)
	switch {
	case isoDateRegex.MatchString(s):
		return "iso"
	case usDateRegex.MatchString(s):
		return "us"
	case euDateRegex.MatchString(s):
		return "eu"
	}
	return "other"
}

func dominantDateFamily(sample []any) string {
	counts := make(map[string]int)
	for _, v := range sample {
		if IsDateLike(v) {
			counts[dateFamily(v)]++
		}
	}
	best, bestCount := "", 0
	for _, fam := range []string{"iso", "us", "eu", "native", "other"} {
		if counts[fam] > bestCount {
			best, bestCount = fam, counts[fam]
		}
	}
	return best
}

// nonNullSample returns up to limit non-null values in input order.
func nonNullSample(values []any, limit int) []any {
	out := make([]any, 0, min(len(values), limit))
	for _, v := range values {
		if IsNull(v) {
			continue
		}
		out = append(out, v)
		if len(out) == limit {
			break
		}
	}
	return out
}
