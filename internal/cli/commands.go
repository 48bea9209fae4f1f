package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/dataquality/internal/core"
)

func newProfileCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "profile <file>",
		Short: "Print per-column statistics and inferred types.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd, args[0])
			if err != nil {
				return err
			}
			profiles, err := s.svc.GetProfiles(cmd.Context(), s.table.TableID)
			if err != nil {
				return err
			}
			return render(cmd, profiles, func(p *printer) { p.profiles(profiles) })
		},
	}
}

func newDetectCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect <file>",
		Short: "List detected issues, highest score first.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := issueFilterFlags(cmd)
			if err != nil {
				return err
			}
			s, err := a.open(cmd, args[0])
			if err != nil {
				return err
			}
			issues, err := s.svc.ListIssues(cmd.Context(), s.table.TableID, filter)
			if err != nil {
				return err
			}
			return render(cmd, issues, func(p *printer) { p.issues(issues) })
		},
	}
	cmd.Flags().String("severity", "", "Only show issues with this severity (low, medium, high)")
	cmd.Flags().String("type", "", "Only show issues of this type")
	cmd.Flags().String("column", "", "Only show issues on this column")
	return cmd
}

func newOptionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "options <file>",
		Short: "List the remediation options for one issue.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd, args[0])
			if err != nil {
				return err
			}
			issue, err := s.resolveIssue(cmd)
			if err != nil {
				return err
			}
			opts, err := s.svc.ListRemediationOptions(cmd.Context(), issue.ID)
			if err != nil {
				return err
			}
			return render(cmd, opts, func(p *printer) { p.options(issue, opts) })
		},
	}
	cmd.Flags().String("issue", "1", "Issue rank from detect output, or an issue type:column pair")
	return cmd
}

func newRemediateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remediate <file>",
		Short: "Apply one remediation option and optionally write the cleaned rows.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			optionID, _ := cmd.Flags().GetString("option")
			if optionID == "" {
				return fmt.Errorf("%w: --option is required", core.ErrInvalidInput)
			}
			s, err := a.open(cmd, args[0])
			if err != nil {
				return err
			}
			issue, err := s.resolveIssue(cmd)
			if err != nil {
				return err
			}

			res, err := s.svc.ApplyRemediation(cmd.Context(), s.table.TableID, issue.ID, optionID)
			if err != nil {
				return err
			}

			if out, _ := cmd.Flags().GetString("out"); out != "" {
				ds, err := s.svc.GetDataset(cmd.Context(), s.table.TableID)
				if err != nil {
					return err
				}
				if err := writeRows(out, ds.Columns, ds.Current()); err != nil {
					return err
				}
			}
			return render(cmd, res, func(p *printer) { p.remediation(res) })
		},
	}
	cmd.Flags().String("issue", "1", "Issue rank from detect output, or an issue type:column pair")
	cmd.Flags().String("option", "", "Remediation option id (see the options command)")
	cmd.Flags().StringP("out", "o", "", "Write the cleaned rows to this file (.json or CSV)")
	return cmd
}

func newKPICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "kpi <file>",
		Short: "Print the seven-dimension quality index.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd, args[0])
			if err != nil {
				return err
			}
			kpis, err := s.svc.GetKPIs(cmd.Context(), s.table.TableID)
			if err != nil {
				return err
			}
			return render(cmd, kpis, func(p *printer) { p.kpis(kpis) })
		},
	}
}

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective scoring configuration.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.scoringConfig()
			if err := cfg.Validate(); err != nil {
				return err
			}
			return render(cmd, cfg, func(p *printer) { p.scoring(cfg, a.v.ConfigFileUsed()) })
		},
	}
}

// issueFilterFlags reads the detect filter flags.
func issueFilterFlags(cmd *cobra.Command) (core.IssueFilter, error) {
	sev, _ := cmd.Flags().GetString("severity")
	typ, _ := cmd.Flags().GetString("type")
	col, _ := cmd.Flags().GetString("column")
	f := core.IssueFilter{
		Severity: core.Severity(strings.ToLower(sev)),
		Type:     core.IssueType(strings.ToLower(typ)),
		Column:   col,
	}
	if f.Severity != "" && !f.Severity.Valid() {
		return f, fmt.Errorf("%w: unknown severity %q", core.ErrInvalidInput, sev)
	}
	return f, nil
}

// resolveIssue picks an issue by its 1-based rank in score order or by a
// "type:column" pair.
func (s *session) resolveIssue(cmd *cobra.Command) (core.Issue, error) {
	ref, _ := cmd.Flags().GetString("issue")
	issues, err := s.svc.ListIssues(cmd.Context(), s.table.TableID, core.IssueFilter{})
	if err != nil {
		return core.Issue{}, err
	}

	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(issues) {
			return core.Issue{}, fmt.Errorf("%w: %d (the file has %d issues)", core.ErrIssueNotFound, n, len(issues))
		}
		return issues[n-1], nil
	}

	typ, col, _ := strings.Cut(ref, ":")
	for _, is := range issues {
		if string(is.Type) == typ && is.Column == col {
			return is, nil
		}
	}
	return core.Issue{}, fmt.Errorf("%w: %s", core.ErrIssueNotFound, ref)
}
