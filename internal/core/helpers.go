package core

import (
	"regexp"
	"strings"
	"unicode"
)

// piiNameHints mark columns whose values are personal data.
var piiNameHints = []string{"email", "phone", "ssn", "pii", "gdpr"}

// amountNameHints mark numeric columns that should never be negative.
var amountNameHints = []string{"price", "amount", "quantity", "qty", "cost", "balance", "total", "age"}

// numericNameHints mark columns expected to hold numbers even when stored as text.
var numericNameHints = []string{"count", "number", "qty", "quantity", "amount", "price"}

// identifierNames are column names treated as a record's own identifier.
var identifierNames = map[string]bool{"id": true, "uuid": true, "key": true, "sku": true, "code": true}

var camelKeySuffix = regexp.MustCompile(`[a-z0-9](Id|ID|Key)$`)

// IsKeyColumn reports whether the column name looks like a primary or
// foreign key: id, key, *_id, *_key, or a camel-case ...Id/...Key suffix.
func IsKeyColumn(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "id" || lower == "key" {
		return true
	}
	if strings.HasSuffix(lower, "_id") || strings.HasSuffix(lower, "_key") {
		return true
	}
	return camelKeySuffix.MatchString(strings.TrimSpace(name))
}

// IsPIIColumn reports whether the column name suggests personal data.
func IsPIIColumn(name string) bool {
	lower := strings.ToLower(name)
	for _, hint := range piiNameHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

// IsIdentifierColumn reports whether the column holds the record's own identifier.
func IsIdentifierColumn(name string) bool {
	return identifierNames[strings.ToLower(strings.TrimSpace(name))]
}

// IsAmountColumn reports whether a numeric column name implies non-negative values.
func IsAmountColumn(name string) bool {
	lower := strings.ToLower(name)
	for _, hint := range amountNameHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

// IsNumericNamedColumn reports whether the column name implies numeric
// values: a key column, or a name containing count, number, qty, quantity,
// amount or price.
func IsNumericNamedColumn(name string) bool {
	if IsKeyColumn(name) {
		return true
	}
	lower := strings.ToLower(name)
	for _, hint := range numericNameHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

// ForeignKeyEntity returns the referenced entity for a foreign-key-looking
// column name such as customer_id, productId or orderid. The bare
// identifier names do not count.
func ForeignKeyEntity(name string) (string, bool) {
	trimmed := strings.TrimSpace(name)
	lower := strings.ToLower(trimmed)
	if IsIdentifierColumn(lower) {
		return "", false
	}
	var entity string
	switch {
	case strings.HasSuffix(lower, "_id"):
		entity = lower[:len(lower)-3]
	case strings.HasSuffix(trimmed, "Id") || strings.HasSuffix(trimmed, "ID"):
		entity = lower[:len(lower)-2]
	case strings.HasSuffix(lower, "id") && len(lower) > 4:
		entity = lower[:len(lower)-2]
	default:
		return "", false
	}
	entity = strings.TrimRightFunc(entity, func(r rune) bool { return r == '_' || r == '-' })
	if entity == "" || !unicode.IsLetter(rune(entity[0])) {
		return "", false
	}
	return entity, true
}
