package core

// detail.go defines the per-type payload carried by an Issue.
//
// Detail is a closed union: only the types in this file implement it. Each
// variant holds exactly what its detector found and what the executor needs
// to act on it, so callers switch on the concrete type instead of probing
// optional fields.

import (
	"encoding/json"
	"fmt"
)

// Detail is the type-specific payload of an issue.
type Detail interface {
	issueType() IssueType
}

// MissingDetail counts the null spellings seen in the column.
type MissingDetail struct {
	NullTokens map[string]int `json:"nullTokens"`
}

// DuplicateScope says how rows were matched.
type DuplicateScope string

const (
	// DuplicateExact matches rows that are identical in every column.
	DuplicateExact DuplicateScope = "exact"
	// DuplicatePartial matches rows that agree on every column except the key fields.
	DuplicatePartial DuplicateScope = "partial"
	// DuplicateKey matches rows that repeat a value in an identifier column.
	DuplicateKey DuplicateScope = "key"
)

// DuplicatePair links a repeated row to its first occurrence. Both are 1-based.
type DuplicatePair struct {
	Original  int `json:"original"`
	Duplicate int `json:"duplicate"`
}

// DuplicateDetail describes a duplicate finding. Pairs is only populated for
// exact matches; partial and key matches list their Groups instead.
type DuplicateDetail struct {
	Scope      DuplicateScope  `json:"scope"`
	KeyColumns []string        `json:"keyColumns,omitempty"`
	Pairs      []DuplicatePair `json:"pairs,omitempty"`
	Groups     [][]int         `json:"groups,omitempty"`
}

// InvalidRule names the check that rejected a value.
type InvalidRule string

const (
	RuleNumeric      InvalidRule = "numeric"
	RuleDate         InvalidRule = "date"
	RuleEmail        InvalidRule = "email"
	RulePhone        InvalidRule = "phone"
	RulePlaceholder  InvalidRule = "placeholder"
	RuleNegative     InvalidRule = "negative"
	RuleTypeMismatch InvalidRule = "type_mismatch"
)

// InvalidDetail records which validation rule fired.
type InvalidDetail struct {
	Rule    InvalidRule `json:"rule"`
	Pattern string      `json:"pattern,omitempty"`
}

// OutlierDetail records the bounds used to flag values.
type OutlierDetail struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
	Lower  float64 `json:"lower"`
	Upper  float64 `json:"upper"`
}

// InconsistencyKind names the inconsistency pattern found.
type InconsistencyKind string

const (
	InconsistentFormat     InconsistencyKind = "format"
	InconsistentCase       InconsistencyKind = "case"
	InconsistentWhitespace InconsistencyKind = "whitespace"
	InconsistentDateRange  InconsistencyKind = "date_range"
)

// InconsistentDetail counts the competing variants found in the column.
type InconsistentDetail struct {
	Kind     InconsistencyKind `json:"kind"`
	Dominant string            `json:"dominant,omitempty"`
	Variants map[string]int    `json:"variants,omitempty"`
}

// ReferentialDetail records the range a foreign key value must fall in.
type ReferentialDetail struct {
	Referenced string  `json:"referenced"`
	Lower      float64 `json:"lower"`
	Upper      float64 `json:"upper"`
}

func (MissingDetail) issueType() IssueType      { return IssueMissing }
func (DuplicateDetail) issueType() IssueType    { return IssueDuplicate }
func (InvalidDetail) issueType() IssueType      { return IssueInvalid }
func (OutlierDetail) issueType() IssueType      { return IssueOutlier }
func (InconsistentDetail) issueType() IssueType { return IssueInconsistent }
func (ReferentialDetail) issueType() IssueType  { return IssueReferential }

// detailEnvelope is the JSON form of a Detail.
type detailEnvelope struct {
	Kind IssueType       `json:"kind"`
	Data json.RawMessage `json:"data"`
}

func encodeDetail(d Detail) (*detailEnvelope, error) {
	if d == nil {
		return nil, nil
	}
	data, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return &detailEnvelope{Kind: d.issueType(), Data: data}, nil
}

func decodeDetail(env *detailEnvelope) (Detail, error) {
	if env == nil {
		return nil, nil
	}
	var (
		d   Detail
		err error
	)
	switch env.Kind {
	case IssueMissing:
		var v MissingDetail
		err = json.Unmarshal(env.Data, &v)
		d = v
	case IssueDuplicate:
		var v DuplicateDetail
		err = json.Unmarshal(env.Data, &v)
		d = v
	case IssueInvalid:
		var v InvalidDetail
		err = json.Unmarshal(env.Data, &v)
		d = v
	case IssueOutlier:
		var v OutlierDetail
		err = json.Unmarshal(env.Data, &v)
		d = v
	case IssueInconsistent:
		var v InconsistentDetail
		err = json.Unmarshal(env.Data, &v)
		d = v
	case IssueReferential:
		var v ReferentialDetail
		err = json.Unmarshal(env.Data, &v)
		d = v
	default:
		return nil, fmt.Errorf("unknown detail kind %q", env.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s detail: %w", env.Kind, err)
	}
	return d, nil
}

// MarshalJSON encodes the issue with its Detail wrapped in a kind/data envelope.
func (i Issue) MarshalJSON() ([]byte, error) {
	type plain Issue
	env, err := encodeDetail(i.Detail)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		plain
		Detail *detailEnvelope `json:"detail,omitempty"`
	}{plain(i), env})
}

// UnmarshalJSON decodes an issue written by MarshalJSON.
func (i *Issue) UnmarshalJSON(b []byte) error {
	type plain Issue
	aux := struct {
		*plain
		Detail *detailEnvelope `json:"detail,omitempty"`
	}{plain: (*plain)(i)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	d, err := decodeDetail(aux.Detail)
	if err != nil {
		return err
	}
	i.Detail = d
	return nil
}
