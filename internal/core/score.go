package core

// score.go implements the "matrix + boosts" severity scorer.
//
// The score of an issue is
//
//	clamp(impact*frequency/25 + boosts, 0, 1) * decay
//
// where impact and frequency are 1-5 buckets of the issue's impact percentage
// and the share of affected rows, boosts are additive heuristic adjustments
// and decay attenuates long-open issues down to a configured floor. Score is a
// pure function of its inputs, the configuration and the clock; it never
// fails and coerces non-finite inputs to zero.

import (
	"fmt"
	"math"
	"time"
)

// Scope weights are computed for explanation only and are not multiplied
// into the base score.
const (
	scopeColumn  = 2
	scopeDataset = 4
)

// ScoreInput is everything the scorer needs from an issue. It is stored on
// the issue so that clearing an override can rescore from the same inputs.
type ScoreInput struct {
	Type        IssueType `json:"type"`
	Column      string    `json:"column,omitempty"`
	ImpactScore float64   `json:"impactScore"`
	RecordCount int       `json:"recordCount"`
	TotalRows   int       `json:"totalRows"`
	DetectedAt  time.Time `json:"detectedAt"`
}

// Boost is one labeled additive adjustment.
type Boost struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// ScoreBreakdown explains how a score was reached.
type ScoreBreakdown struct {
	ImpactBucket     int      `json:"impactBucket"`
	FrequencyBucket  int      `json:"frequencyBucket"`
	FrequencyPercent float64  `json:"frequencyPercent"`
	Scope            int      `json:"scope"`
	Base             float64  `json:"base"`
	Boosts           []Boost  `json:"boosts,omitempty"`
	DecayFactor      float64  `json:"decayFactor"`
	AgeDays          float64  `json:"ageDays"`
	Factors          []string `json:"factors,omitempty"`
}

// ScoreResult is the scorer's output.
type ScoreResult struct {
	Score     float64        `json:"score"`
	Severity  Severity       `json:"severity"`
	Breakdown ScoreBreakdown `json:"breakdown"`
}

// ScoreInputFor builds the scorer input for an issue.
func ScoreInputFor(issue Issue, totalRows int, detectedAt time.Time) ScoreInput {
	return ScoreInput{
		Type:        issue.Type,
		Column:      issue.Column,
		ImpactScore: issue.ImpactScore,
		RecordCount: issue.RecordCount,
		TotalRows:   totalRows,
		DetectedAt:  detectedAt,
	}
}

// Score computes score, severity and breakdown for one issue.
func Score(in ScoreInput, cfg ScoringConfig, now time.Time) ScoreResult {
	var b ScoreBreakdown

	impact := finite(in.ImpactScore)
	b.ImpactBucket = bucket(impact)

	if in.TotalRows > 0 && in.RecordCount > 0 {
		b.FrequencyPercent = float64(in.RecordCount) / float64(in.TotalRows) * 100
	}
	b.FrequencyBucket = bucket(b.FrequencyPercent)

	b.Scope = scopeDataset
	if in.Column != "" {
		b.Scope = scopeColumn
	}
	b.Factors = append(b.Factors,
		fmt.Sprintf("impact %.1f%% -> bucket %d", impact, b.ImpactBucket),
		fmt.Sprintf("frequency %.1f%% -> bucket %d", b.FrequencyPercent, b.FrequencyBucket),
		fmt.Sprintf("scope %d (informational)", b.Scope),
	)

	b.Base = float64(b.ImpactBucket*b.FrequencyBucket) / 25

	total := b.Base
	if in.Type == IssueReferential || IsKeyColumn(in.Column) {
		total += addBoost(&b, "primary key violation", finite(cfg.PrimaryKeyViolationBoost))
	}
	if in.Type == IssueInvalid && IsPIIColumn(in.Column) {
		total += addBoost(&b, "compliance risk", finite(cfg.ComplianceRiskBoost))
	}

	b.AgeDays, b.DecayFactor = decay(in.DetectedAt, now, cfg)
	if b.DecayFactor < 1 {
		b.Factors = append(b.Factors, fmt.Sprintf("decay %.2f after %.1f days", b.DecayFactor, b.AgeDays))
	}

	score := clamp(total, 0, 1) * b.DecayFactor
	return ScoreResult{
		Score:     score,
		Severity:  cfg.SeverityFor(score),
		Breakdown: b,
	}
}

// addBoost records a non-zero boost on the breakdown and returns its value.
func addBoost(b *ScoreBreakdown, label string, value float64) float64 {
	if value == 0 {
		return 0
	}
	b.Boosts = append(b.Boosts, Boost{Label: label, Value: value})
	b.Factors = append(b.Factors, fmt.Sprintf("%s boost +%.2f", label, value))
	return value
}

// bucket maps a percentage onto 1-5 in steps of 20.
func bucket(pct float64) int {
	b := int(math.Ceil(pct / 20))
	if b < 1 {
		return 1
	}
	if b > 5 {
		return 5
	}
	return b
}

// decay returns the age in days and the decay factor in [DecayMinFactor, 1].
// Future detection times count as age zero.
func decay(detectedAt, now time.Time, cfg ScoringConfig) (float64, float64) {
	floor := clamp(finite(cfg.DecayMinFactor), 0, 1)
	if detectedAt.IsZero() {
		return 0, 1
	}
	age := now.Sub(detectedAt).Hours() / 24
	if age < 0 || math.IsNaN(age) {
		age = 0
	}
	if cfg.DecayMaxDays <= 0 {
		return age, 1
	}
	factor := 1 - age/cfg.DecayMaxDays
	return age, clamp(math.Max(floor, factor), floor, 1)
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func clamp(f, lo, hi float64) float64 {
	if f < lo {
		return lo
	}
	if f > hi {
		return hi
	}
	return f
}

// applyScore writes a score result onto an issue.
func applyScore(issue *Issue, res ScoreResult) {
	issue.Score = res.Score
	issue.Severity = res.Severity
	issue.Breakdown = res.Breakdown
}
