package core

// kpi.go builds the seven-dimension data quality index.
//
// Completeness comes straight from the profiles. The other dimensions start
// at 100 and lose points for the impact of open issues of the matching type:
//
//	validity     -0.3 per invalid impact point
//	accuracy     -0.2 per invalid, -0.1 per outlier impact point
//	uniqueness   -0.5 per duplicate impact point
//	consistency  -0.3 per inconsistent impact point
//	integrity    95, -0.4 per referential impact point
//	timeliness   90
//
// With no rows or profiles the data-driven dimensions fall back to the
// table's last overall score.

import "math"

// Overall score weights per dimension.
const (
	weightAccuracy     = 0.20
	weightCompleteness = 0.20
	weightConsistency  = 0.15
	weightUniqueness   = 0.10
	weightValidity     = 0.20
	weightTimeliness   = 0.05
	weightIntegrity    = 0.10
)

const (
	defaultTimeliness = 90.0
	defaultIntegrity  = 95.0
	defaultOverall    = 100.0
)

// CalculateKPIs aggregates profiles and issues into a KPISet. Only open
// issues count. lastOverall is used for dimensions that cannot be derived.
func CalculateKPIs(profiles Profiles, issues []Issue, rowCount int, lastOverall float64) KPISet {
	if lastOverall <= 0 || math.IsNaN(lastOverall) {
		lastOverall = defaultOverall
	}

	k := KPISet{
		RowCount:    rowCount,
		Timeliness:  defaultTimeliness,
		Integrity:   defaultIntegrity,
		IssueCounts: IssueCounts{ByType: make(map[IssueType]int)},
	}

	impact := make(map[IssueType]float64)
	for _, is := range issues {
		if !is.IsOpen() {
			continue
		}
		k.IssueCounts.Total++
		k.IssueCounts.ByType[is.Type]++
		switch is.Severity {
		case SeverityHigh:
			k.IssueCounts.High++
		case SeverityMedium:
			k.IssueCounts.Medium++
		default:
			k.IssueCounts.Low++
		}
		impact[is.Type] += math.Min(finite(is.ImpactScore), 100)
	}

	if rowCount == 0 || len(profiles) == 0 {
		k.Accuracy = lastOverall
		k.Completeness = lastOverall
		k.Consistency = lastOverall
		k.Uniqueness = lastOverall
		k.Validity = lastOverall
	} else {
		sum := 0.0
		for _, p := range profiles {
			sum += p.Completeness
		}
		k.Completeness = sum / float64(len(profiles)) * 100
		k.Validity = 100 - 0.3*impact[IssueInvalid]
		k.Accuracy = 100 - 0.2*impact[IssueInvalid] - 0.1*impact[IssueOutlier]
		k.Uniqueness = 100 - 0.5*impact[IssueDuplicate]
		k.Consistency = 100 - 0.3*impact[IssueInconsistent]
	}
	k.Integrity = defaultIntegrity - 0.4*impact[IssueReferential]

	k.Accuracy = score100(k.Accuracy)
	k.Completeness = score100(k.Completeness)
	k.Consistency = score100(k.Consistency)
	k.Uniqueness = score100(k.Uniqueness)
	k.Validity = score100(k.Validity)
	k.Timeliness = score100(k.Timeliness)
	k.Integrity = score100(k.Integrity)

	k.OverallScore = score100(
		weightAccuracy*k.Accuracy +
			weightCompleteness*k.Completeness +
			weightConsistency*k.Consistency +
			weightUniqueness*k.Uniqueness +
			weightValidity*k.Validity +
			weightTimeliness*k.Timeliness +
			weightIntegrity*k.Integrity)
	return k
}

// Diff returns after minus before for every dimension.
func Diff(before, after KPISet) KPIDelta {
	return KPIDelta{
		Accuracy:     after.Accuracy - before.Accuracy,
		Completeness: after.Completeness - before.Completeness,
		Consistency:  after.Consistency - before.Consistency,
		Uniqueness:   after.Uniqueness - before.Uniqueness,
		Validity:     after.Validity - before.Validity,
		Timeliness:   after.Timeliness - before.Timeliness,
		Integrity:    after.Integrity - before.Integrity,
		OverallScore: after.OverallScore - before.OverallScore,
		RowCount:     after.RowCount - before.RowCount,
	}
}

// score100 clamps to [0, 100] and rounds to one decimal.
func score100(f float64) float64 {
	return round1(clamp(finite(f), 0, 100))
}
