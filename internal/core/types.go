package core

import (
	"time"
)

// Row is a single record keyed by column name. Values are string, float64,
// int, bool, time.Time or nil.
type Row map[string]any

// DataType is the inferred type of a column.
type DataType string

const (
	TypeNumeric DataType = "numeric"
	TypeString  DataType = "string"
	TypeDate    DataType = "date"
	TypeBoolean DataType = "boolean"
	TypeUnknown DataType = "unknown"
)

// Dataset is an ingested table. Original is never modified after ingest;
// remediations replace Cleaned wholesale.
type Dataset struct {
	TableID          string    `json:"tableId"`
	Name             string    `json:"name"`
	Columns          []string  `json:"columns"`
	Original         []Row     `json:"original"`
	Cleaned          []Row     `json:"cleaned,omitempty"`
	FixCount         int       `json:"fixCount"`
	LastOverallScore float64   `json:"lastOverallScore"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Current returns the cleaned overlay if one exists, else the original rows.
func (d *Dataset) Current() []Row {
	if d.Cleaned != nil {
		return d.Cleaned
	}
	return d.Original
}

// HasOverlay reports whether at least one remediation has been applied.
func (d *Dataset) HasOverlay() bool {
	return d.Cleaned != nil
}

// DatasetInfo is a lightweight listing entry for a stored table.
type DatasetInfo struct {
	TableID          string    `json:"tableId"`
	Name             string    `json:"name"`
	RowCount         int       `json:"rowCount"`
	ColumnCount      int       `json:"columnCount"`
	FixCount         int       `json:"fixCount"`
	LastOverallScore float64   `json:"lastOverallScore"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Info summarizes the dataset for listings.
func (d *Dataset) Info() DatasetInfo {
	return DatasetInfo{
		TableID:          d.TableID,
		Name:             d.Name,
		RowCount:         len(d.Current()),
		ColumnCount:      len(d.Columns),
		FixCount:         d.FixCount,
		LastOverallScore: d.LastOverallScore,
		UpdatedAt:        d.UpdatedAt,
	}
}

// NumericStats holds full-pass statistics for numeric columns.
type NumericStats struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Mean    float64 `json:"mean"`
	Median  float64 `json:"median"`
	StdDev  float64 `json:"stdDev"`
	Samples int     `json:"samples"`
}

// HasSpread reports whether the standard deviation is known and non-zero.
func (n *NumericStats) HasSpread() bool {
	return n != nil && n.Samples >= 2 && n.StdDev > 0
}

// TextStats holds length statistics for string columns.
type TextStats struct {
	MinLength int     `json:"minLength"`
	AvgLength float64 `json:"avgLength"`
	MaxLength int     `json:"maxLength"`
}

// ValueCount is one entry of a column's frequency histogram.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// ColumnProfile is the computed statistics and inferred type of one column.
type ColumnProfile struct {
	Name          string        `json:"name"`
	Position      int           `json:"position"`
	Type          DataType      `json:"type"`
	Format        string        `json:"format,omitempty"`
	Count         int           `json:"count"`
	NullCount     int           `json:"nullCount"`
	DistinctCount int           `json:"distinctCount"`
	Completeness  float64       `json:"completeness"`
	Sparsity      float64       `json:"sparsity"`
	Uniqueness    float64       `json:"uniqueness"`
	Numeric       *NumericStats `json:"numeric,omitempty"`
	Text          *TextStats    `json:"text,omitempty"`
	TopValues     []ValueCount  `json:"topValues,omitempty"`
}

// IssueType classifies a detected defect.
type IssueType string

const (
	IssueMissing      IssueType = "missing"
	IssueDuplicate    IssueType = "duplicate"
	IssueInvalid      IssueType = "invalid"
	IssueOutlier      IssueType = "outlier"
	IssueInconsistent IssueType = "inconsistent"
	IssueReferential  IssueType = "referential_integrity"
)

// Severity is the label derived from a score and the configured thresholds.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// IssueStatus is the workflow state of an issue.
type IssueStatus string

const (
	StatusOpen       IssueStatus = "open"
	StatusInProgress IssueStatus = "in_progress"
	StatusResolved   IssueStatus = "resolved"
	StatusDismissed  IssueStatus = "dismissed"
)

// Valid reports whether s is one of the known statuses.
func (s IssueStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved, StatusDismissed:
		return true
	}
	return false
}

// Override is a manual severity/score that supersedes computed values until cleared.
type Override struct {
	Severity Severity  `json:"severity"`
	Score    *float64  `json:"score,omitempty"`
	Reason   string    `json:"reason"`
	Actor    string    `json:"actor,omitempty"`
	At       time.Time `json:"at"`
}

// Issue is a detected defect with its location and severity.
// Detectors return issues without ID, score or timestamps; the service fills
// those in when it stores them.
type Issue struct {
	ID             string         `json:"id"`
	TableID        string         `json:"tableId"`
	Type           IssueType      `json:"type"`
	Column         string         `json:"column,omitempty"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Severity       Severity       `json:"severity"`
	Score          float64        `json:"score"`
	Status         IssueStatus    `json:"status"`
	AffectedRows   []int          `json:"affectedRows"`
	RecordCount    int            `json:"recordCount"`
	ImpactScore    float64        `json:"impactScore"`
	ExampleValues  []string       `json:"exampleValues,omitempty"`
	ExpectedFormat string         `json:"expectedFormat,omitempty"`
	Breakdown      ScoreBreakdown `json:"breakdown"`
	Inputs         ScoreInput     `json:"inputs"`
	DetectedAt     time.Time      `json:"detectedAt"`
	Override       *Override      `json:"override,omitempty"`
	Detail         Detail         `json:"-"`
}

// IsOpen reports whether the issue still counts against quality metrics.
func (i Issue) IsOpen() bool {
	return i.Status == StatusOpen || i.Status == StatusInProgress || i.Status == ""
}

// fingerprint identifies "the same issue" across detection passes.
func (i Issue) fingerprint() string {
	return string(i.Type) + "\x00" + i.Column + "\x00" + i.Title
}

// ActionKind is the family of a remediation transform.
type ActionKind string

const (
	ActionImpute      ActionKind = "impute"
	ActionDelete      ActionKind = "delete"
	ActionReplace     ActionKind = "replace"
	ActionTransform   ActionKind = "transform"
	ActionCap         ActionKind = "cap"
	ActionDeduplicate ActionKind = "deduplicate"
	ActionFlag        ActionKind = "flag"

	// ActionReset only appears in lineage entries written by ResetTable.
	ActionReset ActionKind = "reset"
)

// Method selects the concrete transform within an ActionKind.
type Method string

const (
	MethodMean         Method = "mean"
	MethodMode         Method = "mode"
	MethodRow          Method = "row"
	MethodDuplicates   Method = "duplicates"
	MethodKeepFirst    Method = "keep_first"
	MethodKeepLast     Method = "keep_last"
	MethodNull         Method = "null"
	MethodHash         Method = "hash"
	MethodMask         Method = "mask"
	MethodStdDev       Method = "std_dev"
	MethodManualReview Method = "manual_review"
	MethodOriginal     Method = "original"
)

// RemediationOption is one catalog entry offered for an issue.
type RemediationOption struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Action      ActionKind `json:"action"`
	Method      Method     `json:"method"`
	Example     string     `json:"example,omitempty"`
}

// KPISet is the seven-dimension data quality index for a table.
type KPISet struct {
	Accuracy     float64     `json:"accuracy"`
	Completeness float64     `json:"completeness"`
	Consistency  float64     `json:"consistency"`
	Uniqueness   float64     `json:"uniqueness"`
	Validity     float64     `json:"validity"`
	Timeliness   float64     `json:"timeliness"`
	Integrity    float64     `json:"integrity"`
	OverallScore float64     `json:"overallScore"`
	IssueCounts  IssueCounts `json:"issueCounts"`
	RowCount     int         `json:"rowCount"`
}

// IssueCounts tallies open issues by severity and type.
type IssueCounts struct {
	Total  int               `json:"total"`
	High   int               `json:"high"`
	Medium int               `json:"medium"`
	Low    int               `json:"low"`
	ByType map[IssueType]int `json:"byType,omitempty"`
}

// KPIDelta is after minus before for every dimension.
type KPIDelta struct {
	Accuracy     float64 `json:"accuracy"`
	Completeness float64 `json:"completeness"`
	Consistency  float64 `json:"consistency"`
	Uniqueness   float64 `json:"uniqueness"`
	Validity     float64 `json:"validity"`
	Timeliness   float64 `json:"timeliness"`
	Integrity    float64 `json:"integrity"`
	OverallScore float64 `json:"overallScore"`
	RowCount     int     `json:"rowCount"`
}

// KPISnapshot records the quality index before and after one action.
type KPISnapshot struct {
	ID          string    `json:"id"`
	ActionID    string    `json:"actionId"`
	TableID     string    `json:"tableId"`
	Timestamp   time.Time `json:"timestamp"`
	Before      KPISet    `json:"before"`
	After       KPISet    `json:"after"`
	Improvement KPIDelta  `json:"improvement"`
}

// Comparison contrasts the original dataset with its current state.
type Comparison struct {
	TableID   string        `json:"tableId"`
	Original  KPISet        `json:"original"`
	Current   KPISet        `json:"current"`
	Snapshots []KPISnapshot `json:"snapshots"`
}
