package web

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/dataquality/internal/core"
	"github.com/JonMunkholm/dataquality/internal/logging"
)

// reportIssueLimit caps the issues listed on the report page.
const reportIssueLimit = 50

// reportData is everything the HTML report renders.
type reportData struct {
	Table      core.DatasetInfo
	Comparison *core.Comparison
	Profiles   []core.ColumnProfile
	Issues     []core.Issue
	Actions    []core.RemediationAction
}

// handleReport renders a self-contained HTML quality report for one table.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tableID := tableIDParam(r)

	ds, err := s.service.GetDataset(ctx, tableID)
	if err != nil {
		s.respondReportError(w, r, err)
		return
	}
	cmp, err := s.service.GetComparison(ctx, tableID)
	if err != nil {
		s.respondReportError(w, r, err)
		return
	}
	profiles, err := s.service.GetProfiles(ctx, tableID)
	if err != nil {
		s.respondReportError(w, r, err)
		return
	}
	issues, err := s.service.ListIssues(ctx, tableID, core.IssueFilter{})
	if err != nil {
		s.respondReportError(w, r, err)
		return
	}
	actions, err := s.service.ListActions(ctx, tableID)
	if err != nil {
		s.respondReportError(w, r, err)
		return
	}
	if len(issues) > reportIssueLimit {
		issues = issues[:reportIssueLimit]
	}

	data := reportData{
		Table:      ds.Info(),
		Comparison: cmp,
		Profiles:   profiles,
		Issues:     issues,
		Actions:    actions,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := reportPage(data).Render(ctx, w); err != nil {
		logging.ForTable(ctx, tableID).Error("report render failed", "error", err)
	}
}

// respondReportError writes a plain HTML error for the report page.
func (s *Server) respondReportError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := core.MapError(err)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	errorAlert(msg).Render(r.Context(), w)
}

// errorAlert renders a user message as an HTML fragment.
func errorAlert(msg core.UserMessage) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<div class="alert"><strong>%s</strong><p>%s</p><small>%s</small></div>`,
			templ.EscapeString(msg.Message),
			templ.EscapeString(msg.Action),
			templ.EscapeString(msg.Code))
		return err
	})
}

// reportPage is the full HTML document.
func reportPage(d reportData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		title := templ.EscapeString(d.Table.Name)
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>%s quality report</title>%s</head><body>`,
			title, reportStyle); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, `<h1>%s</h1><p>%d rows, %d columns, %d fixes applied</p>`,
			title, d.Table.RowCount, d.Table.ColumnCount, d.Table.FixCount); err != nil {
			return err
		}
		sections := []templ.Component{
			kpiSection(d.Comparison),
			issueSection(d.Issues),
			profileSection(d.Profiles),
			lineageSection(d.Actions),
		}
		for _, c := range sections {
			if err := c.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}

const reportStyle = `<style>
body{font-family:system-ui,sans-serif;margin:2rem;color:#1f2937}
table{border-collapse:collapse;margin-bottom:2rem}
th,td{border:1px solid #d1d5db;padding:.3rem .6rem;text-align:left}
.high{color:#b91c1c}.medium{color:#b45309}.low{color:#15803d}
.up{color:#15803d}.down{color:#b91c1c}
</style>`

func kpiSection(cmp *core.Comparison) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		rows := []struct {
			name              string
			original, current float64
		}{
			{"Overall", cmp.Original.OverallScore, cmp.Current.OverallScore},
			{"Accuracy", cmp.Original.Accuracy, cmp.Current.Accuracy},
			{"Completeness", cmp.Original.Completeness, cmp.Current.Completeness},
			{"Consistency", cmp.Original.Consistency, cmp.Current.Consistency},
			{"Uniqueness", cmp.Original.Uniqueness, cmp.Current.Uniqueness},
			{"Validity", cmp.Original.Validity, cmp.Current.Validity},
			{"Timeliness", cmp.Original.Timeliness, cmp.Current.Timeliness},
			{"Integrity", cmp.Original.Integrity, cmp.Current.Integrity},
		}
		if _, err := io.WriteString(w, `<h2>Quality index</h2><table><tr><th>Dimension</th><th>Original</th><th>Current</th><th>Change</th></tr>`); err != nil {
			return err
		}
		for _, r := range rows {
			delta := r.current - r.original
			class := ""
			switch {
			case delta > 0:
				class = "up"
			case delta < 0:
				class = "down"
			}
			if _, err := fmt.Fprintf(w, `<tr><td>%s</td><td>%.1f</td><td>%.1f</td><td class="%s">%+.1f</td></tr>`,
				r.name, r.original, r.current, class, delta); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</table>`)
		return err
	})
}

func issueSection(issues []core.Issue) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<h2>Issues (%d)</h2>`, len(issues)); err != nil {
			return err
		}
		if len(issues) == 0 {
			_, err := io.WriteString(w, `<p>No issues detected.</p>`)
			return err
		}
		if _, err := io.WriteString(w, `<table><tr><th>Severity</th><th>Score</th><th>Type</th><th>Column</th><th>Title</th><th>Rows</th><th>Status</th></tr>`); err != nil {
			return err
		}
		for _, is := range issues {
			if _, err := fmt.Fprintf(w, `<tr><td class="%s">%s</td><td>%.2f</td><td>%s</td><td>%s</td><td>%s</td><td>%d</td><td>%s</td></tr>`,
				is.Severity, is.Severity, is.Score,
				templ.EscapeString(string(is.Type)),
				templ.EscapeString(is.Column),
				templ.EscapeString(is.Title),
				is.RecordCount,
				is.Status); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</table>`)
		return err
	})
}

func profileSection(profiles []core.ColumnProfile) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<h2>Columns</h2><table><tr><th>Column</th><th>Type</th><th>Format</th><th>Nulls</th><th>Distinct</th><th>Completeness</th></tr>`); err != nil {
			return err
		}
		for _, p := range profiles {
			if _, err := fmt.Fprintf(w, `<tr><td>%s</td><td>%s</td><td>%s</td><td>%d</td><td>%d</td><td>%.1f%%</td></tr>`,
				templ.EscapeString(p.Name), p.Type, templ.EscapeString(p.Format),
				p.NullCount, p.DistinctCount, p.Completeness*100); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</table>`)
		return err
	})
}

func lineageSection(actions []core.RemediationAction) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if len(actions) == 0 {
			return nil
		}
		if _, err := io.WriteString(w, `<h2>Lineage</h2><table><tr><th>When</th><th>Action</th><th>Summary</th><th>Applied</th><th>Actor</th></tr>`); err != nil {
			return err
		}
		for _, a := range actions {
			if _, err := fmt.Fprintf(w, `<tr><td>%s</td><td>%s/%s</td><td>%s</td><td>%d</td><td>%s</td></tr>`,
				a.Timestamp.Format("2006-01-02 15:04:05"), a.Action, a.Method,
				templ.EscapeString(a.Summary), a.AppliedCount, templ.EscapeString(a.Actor)); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</table>`)
		return err
	})
}
