package core

// validation.go holds the process-wide scoring configuration and its rules.
//
// The configuration is explicitly mutable at runtime, so it lives in a
// ScoringConfigStore that hands out copies and swaps whole values under a
// lock. Updates are partial: only fields present in the patch change, and
// the merged result must pass Validate before it replaces the current one.

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
)

// ScoringConfig tunes the scorer.
type ScoringConfig struct {
	PrimaryKeyViolationBoost float64 `json:"primaryKeyViolationBoost" mapstructure:"primary_key_violation_boost"`
	ComplianceRiskBoost      float64 `json:"complianceRiskBoost" mapstructure:"compliance_risk_boost"`
	DecayMaxDays             float64 `json:"decayMaxDays" mapstructure:"decay_max_days"`
	DecayMinFactor           float64 `json:"decayMinFactor" mapstructure:"decay_min_factor"`
	HighThreshold            float64 `json:"highThreshold" mapstructure:"high_threshold"`
	MediumThreshold          float64 `json:"mediumThreshold" mapstructure:"medium_threshold"`
}

// DefaultScoringConfig returns the built-in scoring configuration. Boosts
// are off until an operator enables them.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		PrimaryKeyViolationBoost: 0,
		ComplianceRiskBoost:      0,
		DecayMaxDays:             30,
		DecayMinFactor:           0.5,
		HighThreshold:            0.70,
		MediumThreshold:          0.35,
	}
}

// SeverityFor maps a score onto a severity using the thresholds.
func (c ScoringConfig) SeverityFor(score float64) Severity {
	switch {
	case score >= c.HighThreshold:
		return SeverityHigh
	case score >= c.MediumThreshold:
		return SeverityMedium
	}
	return SeverityLow
}

// ValidationError represents a single validation error for a field.
type ValidationError struct {
	Field   string  // Config field name
	Value   float64 // The rejected value
	Message string  // Human-readable error message
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// Validate checks the configuration invariants and returns every violation
// wrapped in ErrInvalidConfig.
func (c ScoringConfig) Validate() error {
	var errs []ValidationError

	check := func(field string, v float64, ok bool, msg string) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			errs = append(errs, ValidationError{Field: field, Value: v, Message: "must be a finite number"})
			return
		}
		if !ok {
			errs = append(errs, ValidationError{Field: field, Value: v, Message: msg})
		}
	}

	check("primaryKeyViolationBoost", c.PrimaryKeyViolationBoost,
		c.PrimaryKeyViolationBoost >= 0 && c.PrimaryKeyViolationBoost <= 1, "must be between 0 and 1")
	check("complianceRiskBoost", c.ComplianceRiskBoost,
		c.ComplianceRiskBoost >= 0 && c.ComplianceRiskBoost <= 1, "must be between 0 and 1")
	check("decayMaxDays", c.DecayMaxDays, c.DecayMaxDays >= 0, "must be zero or more")
	check("decayMinFactor", c.DecayMinFactor,
		c.DecayMinFactor >= 0 && c.DecayMinFactor <= 1, "must be between 0 and 1")
	check("mediumThreshold", c.MediumThreshold, c.MediumThreshold >= 0, "must be zero or more")
	check("highThreshold", c.HighThreshold, c.HighThreshold <= 1, "must be at most 1")
	if c.MediumThreshold > c.HighThreshold {
		errs = append(errs, ValidationError{
			Field:   "mediumThreshold",
			Value:   c.MediumThreshold,
			Message: fmt.Sprintf("must not exceed highThreshold (%.2f)", c.HighThreshold),
		})
	}

	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

// ScoringConfigPatch is a partial update; nil fields are left unchanged.
type ScoringConfigPatch struct {
	PrimaryKeyViolationBoost *float64 `json:"primaryKeyViolationBoost,omitempty"`
	ComplianceRiskBoost      *float64 `json:"complianceRiskBoost,omitempty"`
	DecayMaxDays             *float64 `json:"decayMaxDays,omitempty"`
	DecayMinFactor           *float64 `json:"decayMinFactor,omitempty"`
	HighThreshold            *float64 `json:"highThreshold,omitempty"`
	MediumThreshold          *float64 `json:"mediumThreshold,omitempty"`
}

// Apply returns c with the patch's fields merged in.
func (p ScoringConfigPatch) Apply(c ScoringConfig) ScoringConfig {
	set := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	set(&c.PrimaryKeyViolationBoost, p.PrimaryKeyViolationBoost)
	set(&c.ComplianceRiskBoost, p.ComplianceRiskBoost)
	set(&c.DecayMaxDays, p.DecayMaxDays)
	set(&c.DecayMinFactor, p.DecayMinFactor)
	set(&c.HighThreshold, p.HighThreshold)
	set(&c.MediumThreshold, p.MediumThreshold)
	return c
}

// ScoringConfigStore guards the live scoring configuration.
type ScoringConfigStore struct {
	mu  sync.RWMutex
	cfg ScoringConfig
}

// NewScoringConfigStore validates cfg and wraps it in a store.
func NewScoringConfigStore(cfg ScoringConfig) (*ScoringConfigStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &ScoringConfigStore{cfg: cfg}, nil
}

// Get returns a copy of the current configuration.
func (s *ScoringConfigStore) Get() ScoringConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Update merges the patch, validates the result and swaps it in. On error
// the current configuration is unchanged.
func (s *ScoringConfigStore) Update(p ScoringConfigPatch) (ScoringConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := p.Apply(s.cfg)
	if err := next.Validate(); err != nil {
		return s.cfg, err
	}
	s.cfg = next
	return next, nil
}

// IsInvalidConfig reports whether err came from configuration validation.
func IsInvalidConfig(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}
