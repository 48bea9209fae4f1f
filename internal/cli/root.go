// Package cli implements dqcli, an offline front end to the engine that
// profiles, scans and remediates a single CSV or JSON file.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/JonMunkholm/dataquality/internal/core"
	"github.com/JonMunkholm/dataquality/internal/ingest"
	"github.com/JonMunkholm/dataquality/internal/logging"
	"github.com/JonMunkholm/dataquality/internal/store"
)

// app carries state shared by every subcommand.
type app struct {
	v       *viper.Viper
	cfgFile string
}

// NewRootCommand builds the dqcli command tree.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "dqcli",
		Short: "Profile, scan and clean a tabular file.",
		Long: `dqcli runs the data quality engine against a single CSV or JSON file.

Scoring settings are read from $HOME/.dqcli.yaml (section "scoring") and
DQ_SCORING_* environment variables.`,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.initConfig(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.dqcli.yaml)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "warn", "Set log level. Available: debug, info, warn, error")
	rootCmd.PersistentFlags().StringP("format", "f", "text", "Output format: text or json")
	rootCmd.PersistentFlags().String("delimiter", ",", "CSV field delimiter")
	rootCmd.PersistentFlags().Int64("max-size", ingest.MaxFileSize, "Maximum input size in bytes")

	rootCmd.AddCommand(
		newProfileCmd(a),
		newDetectCmd(a),
		newOptionsCmd(a),
		newRemediateCmd(a),
		newKPICmd(a),
		newConfigCmd(a),
	)
	return rootCmd
}

// Execute runs the command tree and exits non-zero on error.
// This is called by main.main().
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		if core.IsUserFacing(err) {
			fmt.Fprintln(os.Stderr, core.FormatUserError(err))
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// initConfig reads in config file and ENV variables if set.
func (a *app) initConfig(cmd *cobra.Command) error {
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return err
		}
		a.v.AddConfigPath(home)
		a.v.SetConfigName(".dqcli")
		a.v.SetConfigType("yaml")
	}

	a.v.SetEnvPrefix("DQ")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()

	def := core.DefaultScoringConfig()
	a.v.SetDefault("scoring.primary_key_violation_boost", def.PrimaryKeyViolationBoost)
	a.v.SetDefault("scoring.compliance_risk_boost", def.ComplianceRiskBoost)
	a.v.SetDefault("scoring.decay_max_days", def.DecayMaxDays)
	a.v.SetDefault("scoring.decay_min_factor", def.DecayMinFactor)
	a.v.SetDefault("scoring.high_threshold", def.HighThreshold)
	a.v.SetDefault("scoring.medium_threshold", def.MediumThreshold)

	// If a config file is found, read it in. A missing default file is fine.
	if err := a.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || a.cfgFile != "" {
			return fmt.Errorf("read config: %w", err)
		}
	}

	// Init log library
	levelString, _ := cmd.Flags().GetString("loglevel")
	slog.SetDefault(logging.New(cmd.ErrOrStderr(), levelString, "text"))
	return nil
}

// scoringConfig returns the scoring configuration after file and env overrides.
func (a *app) scoringConfig() core.ScoringConfig {
	return core.ScoringConfig{
		PrimaryKeyViolationBoost: a.v.GetFloat64("scoring.primary_key_violation_boost"),
		ComplianceRiskBoost:      a.v.GetFloat64("scoring.compliance_risk_boost"),
		DecayMaxDays:             a.v.GetFloat64("scoring.decay_max_days"),
		DecayMinFactor:           a.v.GetFloat64("scoring.decay_min_factor"),
		HighThreshold:            a.v.GetFloat64("scoring.high_threshold"),
		MediumThreshold:          a.v.GetFloat64("scoring.medium_threshold"),
	}
}

// session is one file ingested into an in-memory service.
type session struct {
	svc   *core.Service
	table *core.Dataset
}

// open reads the file and runs the full analysis on it.
func (a *app) open(cmd *cobra.Command, path string) (*session, error) {
	scoring, err := core.NewScoringConfigStore(a.scoringConfig())
	if err != nil {
		return nil, err
	}
	svc, err := core.NewService(store.NewMemory(), core.ServiceConfig{Scoring: scoring})
	if err != nil {
		return nil, err
	}

	name, table, err := readTable(cmd, path)
	if err != nil {
		return nil, err
	}
	ds, err := svc.Ingest(cmd.Context(), name, table.Columns, table.Rows)
	if err != nil {
		return nil, err
	}
	return &session{svc: svc, table: ds}, nil
}

// readTable parses path as JSON when it ends in .json and as CSV otherwise.
// "-" reads CSV from stdin.
func readTable(cmd *cobra.Command, path string) (string, *ingest.Table, error) {
	maxSize, _ := cmd.Flags().GetInt64("max-size")
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if path == "-" {
		t, err := ingest.ReadCSV(ctx, cmd.InOrStdin(), csvOptions(cmd, maxSize))
		return "stdin", t, err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", nil, err
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if strings.EqualFold(filepath.Ext(path), ".json") {
		docName, t, err := ingest.ReadJSON(ctx, f, maxSize)
		if docName != "" {
			name = docName
		}
		return name, t, err
	}
	t, err := ingest.ReadCSV(ctx, f, csvOptions(cmd, maxSize))
	return name, t, err
}

func csvOptions(cmd *cobra.Command, maxSize int64) ingest.Options {
	opts := ingest.Options{MaxBytes: maxSize}
	if d, _ := cmd.Flags().GetString("delimiter"); d != "" {
		opts.Comma = []rune(d)[0]
	}
	return opts
}
