package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/dataquality/internal/core"
)

// render writes v as indented JSON when --format=json, else runs text.
func render(cmd *cobra.Command, v any, text func(p *printer)) error {
	format, _ := cmd.Flags().GetString("format")
	out := cmd.OutOrStdout()
	if strings.EqualFold(format, "json") {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	p := &printer{w: tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)}
	text(p)
	return p.w.Flush()
}

// printer renders engine values as aligned text tables.
type printer struct {
	w *tabwriter.Writer
}

func (p *printer) profiles(profiles []core.ColumnProfile) {
	fmt.Fprintln(p.w, "COLUMN\tTYPE\tFORMAT\tNULLS\tDISTINCT\tCOMPLETENESS\tRANGE")
	for _, c := range profiles {
		rng := ""
		if c.Numeric != nil {
			rng = fmt.Sprintf("%g..%g (mean %.2f)", c.Numeric.Min, c.Numeric.Max, c.Numeric.Mean)
		}
		fmt.Fprintf(p.w, "%s\t%s\t%s\t%d\t%d\t%.1f%%\t%s\n",
			c.Name, c.Type, dash(c.Format), c.NullCount, c.DistinctCount, c.Completeness*100, rng)
	}
}

func (p *printer) issues(issues []core.Issue) {
	if len(issues) == 0 {
		fmt.Fprintln(p.w, "No issues detected.")
		return
	}
	fmt.Fprintln(p.w, "#\tSEVERITY\tSCORE\tTYPE\tCOLUMN\tROWS\tTITLE")
	for i, is := range issues {
		fmt.Fprintf(p.w, "%d\t%s\t%.2f\t%s\t%s\t%d\t%s\n",
			i+1, is.Severity, is.Score, is.Type, dash(is.Column), is.RecordCount, is.Title)
	}
}

func (p *printer) options(issue core.Issue, opts []core.RemediationOption) {
	fmt.Fprintf(p.w, "%s\n\n", issue.Title)
	fmt.Fprintln(p.w, "OPTION\tACTION\tEXAMPLE")
	for _, o := range opts {
		fmt.Fprintf(p.w, "%s\t%s/%s\t%s\n", o.ID, o.Action, o.Method, dash(o.Example))
	}
}

func (p *printer) remediation(res *core.RemediationResult) {
	fmt.Fprintln(p.w, res.Summary)
	fmt.Fprintf(p.w, "applied\t%d of %d\n", res.AppliedCount, res.Action.CandidateCount)
	imp := res.Snapshot.Improvement
	fmt.Fprintf(p.w, "overall\t%.1f -> %.1f\t(%+.1f)\n",
		res.Snapshot.Before.OverallScore, res.Snapshot.After.OverallScore, imp.OverallScore)
	fmt.Fprintf(p.w, "rows\t%d -> %d\n", res.Snapshot.Before.RowCount, res.Snapshot.After.RowCount)
}

func (p *printer) kpis(k core.KPISet) {
	rows := []struct {
		name  string
		value float64
	}{
		{"overall", k.OverallScore},
		{"accuracy", k.Accuracy},
		{"completeness", k.Completeness},
		{"consistency", k.Consistency},
		{"uniqueness", k.Uniqueness},
		{"validity", k.Validity},
		{"timeliness", k.Timeliness},
		{"integrity", k.Integrity},
	}
	for _, r := range rows {
		fmt.Fprintf(p.w, "%s\t%.1f\n", r.name, r.value)
	}
	fmt.Fprintf(p.w, "open issues\t%d (high %d, medium %d, low %d)\n",
		k.IssueCounts.Total, k.IssueCounts.High, k.IssueCounts.Medium, k.IssueCounts.Low)
}

func (p *printer) scoring(cfg core.ScoringConfig, source string) {
	if source == "" {
		source = "defaults"
	}
	fmt.Fprintf(p.w, "source\t%s\n", source)
	fmt.Fprintf(p.w, "primary_key_violation_boost\t%g\n", cfg.PrimaryKeyViolationBoost)
	fmt.Fprintf(p.w, "compliance_risk_boost\t%g\n", cfg.ComplianceRiskBoost)
	fmt.Fprintf(p.w, "decay_max_days\t%g\n", cfg.DecayMaxDays)
	fmt.Fprintf(p.w, "decay_min_factor\t%g\n", cfg.DecayMinFactor)
	fmt.Fprintf(p.w, "high_threshold\t%g\n", cfg.HighThreshold)
	fmt.Fprintf(p.w, "medium_threshold\t%g\n", cfg.MediumThreshold)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// writeRows writes rows as a JSON array when path ends in .json, else as CSV
// with a header row.
func writeRows(path string, columns []string, rows []core.Row) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = writeJSONRows(f, rows)
	} else {
		err = writeCSVRows(f, columns, rows)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

func writeJSONRows(w io.Writer, rows []core.Row) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func writeCSVRows(w io.Writer, columns []string, rows []core.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}
	rec := make([]string, len(columns))
	for _, row := range rows {
		for i, c := range columns {
			rec[i] = core.ValueString(row[c])
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
