package core

// detect.go runs the registered detectors over one profile pass.
//
// Each detector is independent and side-effect free, so they run
// concurrently. Results are concatenated in registration order to keep the
// output deterministic. A panicking detector is logged and contributes no
// issues; detection itself never fails.

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

const maxExampleValues = 3

func init() {
	RegisterDetector("missing", detectMissing)
	RegisterDetector("duplicate", detectDuplicates)
	RegisterDetector("invalid", detectInvalid)
	RegisterDetector("outlier", detectOutliers)
	RegisterDetector("inconsistent", detectInconsistencies)
	RegisterDetector("referential_integrity", detectReferential)
}

// Detect runs every registered detector over rows and returns unscored issues.
func Detect(rows []Row, profiles Profiles) []Issue {
	issues, _ := DetectContext(context.Background(), DetectInput{Rows: rows, Profiles: profiles, Now: time.Now()})
	return issues
}

// DetectContext runs every registered detector concurrently. The only error
// it returns is the context's.
func DetectContext(ctx context.Context, in DetectInput) ([]Issue, error) {
	if in.Now.IsZero() {
		in.Now = time.Now()
	}
	defs := Detectors()
	results := make([][]Issue, len(defs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, def := range defs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = runDetector(def, in)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("detect: %w", err)
	}

	var out []Issue
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

func runDetector(def DetectorDefinition, in DetectInput) (issues []Issue) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("detector panicked", "detector", def.Name, "panic", r)
			issues = nil
		}
	}()
	return def.Detect(in)
}

// newIssue builds an open, unscored issue for the given 1-based rows.
func newIssue(t IssueType, column string, rows []int, totalRows int) Issue {
	sort.Ints(rows)
	return Issue{
		Type:         t,
		Column:       column,
		Status:       StatusOpen,
		AffectedRows: rows,
		RecordCount:  len(rows),
		ImpactScore:  percent(len(rows), totalRows),
	}
}

// exampleCollector keeps the first few distinct display values.
type exampleCollector struct {
	seen   map[string]bool
	values []string
}

func (e *exampleCollector) add(v any) {
	if len(e.values) >= maxExampleValues {
		return
	}
	s := DisplayValue(v)
	if e.seen == nil {
		e.seen = make(map[string]bool)
	}
	if e.seen[s] {
		return
	}
	e.seen[s] = true
	e.values = append(e.values, s)
}

// columnScan collects the 1-based rows whose value in column satisfies match.
func columnScan(rows []Row, column string, match func(v any) bool) ([]int, []string) {
	var (
		hits []int
		ex   exampleCollector
	)
	for i, r := range rows {
		v := r[column]
		if match(v) {
			hits = append(hits, i+1)
			ex.add(v)
		}
	}
	return hits, ex.values
}
