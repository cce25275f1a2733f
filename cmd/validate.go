package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/quizprep/internal/batch"
	"github.com/abhisek/quizprep/internal/config"
	"github.com/abhisek/quizprep/internal/finding"
	"github.com/abhisek/quizprep/internal/ingest"
	"github.com/abhisek/quizprep/internal/metrics"
	"github.com/abhisek/quizprep/internal/question"
	"github.com/abhisek/quizprep/internal/store"
	"github.com/abhisek/quizprep/internal/validation"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Normalize and validate question record files",
	Long: "Loads question records from JSON, JSON Lines or YAML files (use - for stdin),\n" +
		"normalizes Unicode math symbols, validates every record and prints a report.",
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().String("format", "", "Report format: text or json (default from config, text)")
	validateCmd.Flags().Int("workers", 0, "Records validated in parallel (default one per CPU)")
	validateCmd.Flags().String("out", "", "Write normalized records as a JSON array to this file")
	validateCmd.Flags().Bool("save", false, "Save the run to the history database")
	validateCmd.Flags().String("metrics-file", "", "Write Prometheus metrics to this textfile after the run")
	validateCmd.Flags().String("fail-on", "", "Exit non-zero when a record has an issue this severe: critical, warning or info")
	validateCmd.Flags().String("input-format", "json", "Format of stdin input: json, jsonl or yaml")
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg := settings.cfg
	logger := settings.logger

	format := stringFlag(cmd, "format", cfg.Format)
	if format != config.FormatText && format != config.FormatJSON {
		return fmt.Errorf("unknown format %q (want text or json)", format)
	}
	failOn := cfg.FailOnSeverity()
	if cmd.Flags().Changed("fail-on") {
		name, _ := cmd.Flags().GetString("fail-on")
		sev, err := finding.ParseSeverity(name)
		if err != nil {
			return fmt.Errorf("--fail-on: %w", err)
		}
		failOn = sev
	}
	metricsFile := stringFlag(cmd, "metrics-file", cfg.MetricsFile)

	raws, err := loadRecords(cmd, args)
	if err != nil {
		return err
	}
	logger.Info("records loaded", zap.Int("records", len(raws)), zap.Strings("files", args))

	mgr, err := validation.NewManager(settings.symbols, validation.WithLogger(logger))
	if err != nil {
		return err
	}

	opts := []batch.Option{
		batch.WithWorkers(intFlag(cmd, "workers", cfg.Workers)),
		batch.WithLogger(logger),
	}
	var collector *metrics.Collector
	if metricsFile != "" {
		collector = metrics.New()
		opts = append(opts, batch.WithRecorder(collector))
	}

	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt)
	defer stop()

	out, runErr := batch.New(mgr, opts...).Run(ctx, raws)
	if out == nil {
		return runErr
	}

	w := cmd.OutOrStdout()
	if format == config.FormatJSON {
		err = renderJSON(w, out)
	} else {
		err = renderText(w, out)
	}
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	if path, _ := cmd.Flags().GetString("out"); path != "" {
		if err := writeNormalized(path, out.Results); err != nil {
			return err
		}
		logger.Info("normalized records written", zap.String("path", path))
	}

	if save, _ := cmd.Flags().GetBool("save"); save {
		id, err := saveRun(cmd, strings.Join(args, ","), out)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Saved run %s\n", id)
	}

	if collector != nil {
		if err := collector.WriteTextfile(metricsFile); err != nil {
			return err
		}
	}

	if runErr != nil {
		return runErr
	}

	failing := 0
	for _, res := range out.Results {
		if worst := finding.Max(res.Issues); worst != "" && worst.AtLeast(failOn) {
			failing++
		}
	}
	if failing > 0 {
		return &thresholdError{count: failing, severity: string(failOn)}
	}
	return nil
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// loadRecords reads every input in order into one batch.
func loadRecords(cmd *cobra.Command, args []string) ([]json.RawMessage, error) {
	var all []json.RawMessage
	for _, arg := range args {
		var (
			raws []json.RawMessage
			err  error
		)
		if arg == "-" {
			name, _ := cmd.Flags().GetString("input-format")
			f, ferr := ingest.ParseFormat(name)
			if ferr != nil {
				return nil, ferr
			}
			raws, err = ingest.LoadReader("stdin", cmd.InOrStdin(), f)
		} else {
			raws, err = ingest.LoadFile(arg)
		}
		if err != nil {
			return nil, err
		}
		all = append(all, raws...)
	}
	return all, nil
}

// writeNormalized writes the normalized form of every parseable record.
func writeNormalized(path string, results []validation.Result) error {
	records := make([]*question.Record, 0, len(results))
	for _, res := range results {
		if res.Normalized != nil {
			records = append(records, res.Normalized)
		}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode normalized records: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write normalized records: %w", err)
	}
	return nil
}

func saveRun(cmd *cobra.Command, source string, out *batch.Outcome) (string, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return "", fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return "", fmt.Errorf("open database: %w", err)
	}
	defer s.Close()

	ctx := cmdContext(cmd)
	repo := s.RunRepo()
	run := store.NewRun(source, out)
	if err := repo.Save(ctx, run); err != nil {
		return "", err
	}
	if keep := settings.cfg.HistoryKeep; keep > 0 {
		if err := repo.Prune(ctx, keep); err != nil {
			return "", err
		}
	}
	return run.ID, nil
}
