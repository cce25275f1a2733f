package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/quizprep/internal/config"
	"github.com/abhisek/quizprep/internal/logging"
	"github.com/abhisek/quizprep/internal/store"
	"github.com/abhisek/quizprep/internal/symbols"
)

var rootCmd = &cobra.Command{
	Use:   "quizprep",
	Short: "Normalize and validate generated quiz questions",
	Long: "quizprep rewrites raw Unicode math symbols in generated quiz questions into\n" +
		"markup-math, checks each record against its question type's schema and the\n" +
		"markup-math syntax rules, and reports which records are ready for import.",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadSettings,
}

// settings is resolved once per invocation by loadSettings.
var settings struct {
	cfg     config.Config
	logger  *zap.Logger
	symbols *symbols.Map
}

// Execute runs the root command.
func Execute() error {
	defer func() {
		if settings.logger != nil {
			_ = settings.logger.Sync()
		}
	}()
	return rootCmd.Execute()
}

// ExitCode maps an Execute error to a process exit code: 2 when records
// failed the --fail-on threshold, 1 for anything else.
func ExitCode(err error) int {
	var te *thresholdError
	if errors.As(err, &te) {
		return 2
	}
	return 1
}

// thresholdError reports records at or above the fail-on severity.
type thresholdError struct {
	count    int
	severity string
}

func (e *thresholdError) Error() string {
	return fmt.Sprintf("%d record(s) have %s or more severe issues", e.count, e.severity)
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file (default $XDG_CONFIG_HOME/quizprep/config.yaml)")
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite history database (overrides QUIZPREP_DB env var)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides QUIZPREP_LOG_LEVEL)")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(normalizeCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(symbolsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadSettings layers the config file, environment and global flags.
func loadSettings(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	required := path != ""
	if path == "" {
		p, err := config.DefaultPath()
		if err == nil {
			path = p
		}
	}

	cfg, err := config.Load(path, required)
	if err != nil {
		return err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}

	m, err := cfg.SymbolMap()
	if err != nil {
		return err
	}

	settings.cfg = cfg
	settings.logger = logger
	settings.symbols = m
	logger.Debug("settings loaded",
		zap.String("config", path),
		zap.Int("symbols", m.Len()),
		zap.Int("workers", cfg.Workers))
	return nil
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then the config file or QUIZPREP_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if p := settings.cfg.DB; p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

// stringFlag returns the flag value when the user set it, else fallback.
func stringFlag(cmd *cobra.Command, name, fallback string) string {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	return fallback
}

func intFlag(cmd *cobra.Command, name string, fallback int) int {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetInt(name)
		return v
	}
	return fallback
}
