package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizprep/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect saved validation runs",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		runs, err := s.RunRepo().List(cmdContext(cmd), limit)
		if err != nil {
			return fmt.Errorf("list runs: %w", err)
		}

		w := cmd.OutOrStdout()
		if len(runs) == 0 {
			fmt.Fprintln(w, "No runs saved.")
			return nil
		}

		fmt.Fprintf(w, "%-8s  %-19s  %6s  %6s  %7s  %7s  %s\n",
			"ID", "Started", "Total", "Ready", "Blocked", "Ms", "Source")
		fmt.Fprintln(w, strings.Repeat("─", 90))
		for _, r := range runs {
			id := r.ID
			if len(id) > 8 {
				id = id[:8]
			}
			source := r.Source
			if r.Cancelled {
				source += " (cancelled)"
			}
			fmt.Fprintf(w, "%-8s  %-19s  %6d  %6d  %7d  %7d  %s\n",
				id,
				r.StartedAt.Local().Format("2006-01-02 15:04:05"),
				r.Total,
				r.Ready,
				r.Blocked,
				r.Elapsed.Milliseconds(),
				truncate(source, 40),
			)
		}
		return nil
	},
}

var historyViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "View a saved run and its record issues",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		r, err := s.RunRepo().Get(cmdContext(cmd), args[0])
		if err != nil {
			return fmt.Errorf("get run %s: %w", args[0], err)
		}

		w := cmd.OutOrStdout()
		sep := strings.Repeat("─", 60)

		fmt.Fprintf(w, "ID:        %s\n", r.ID)
		fmt.Fprintf(w, "Started:   %s\n", r.StartedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(w, "Elapsed:   %dms\n", r.Elapsed.Milliseconds())
		fmt.Fprintf(w, "Source:    %s\n", r.Source)
		fmt.Fprintf(w, "Records:   %d (%d ready, %d blocked)\n", r.Total, r.Ready, r.Blocked)
		fmt.Fprintf(w, "Math:      %d (%.1f%%)\n", r.Report.WithMath, r.Report.MathPercent)
		if r.Cancelled {
			fmt.Fprintln(w, "Cancelled: true")
		}

		fmt.Fprintln(w)
		fmt.Fprintln(w, sep)
		fmt.Fprintln(w, "RECORDS")
		fmt.Fprintln(w, sep)
		for _, rec := range r.Records {
			if len(rec.Issues) == 0 {
				continue
			}
			fmt.Fprintf(w, "#%d %s (%s) %s: %d critical, %d warning, %d info\n",
				rec.Position, rec.RecordID, rec.Type, rec.Status, rec.Critical, rec.Warnings, rec.Info)
			for _, is := range rec.Issues {
				fmt.Fprintf(w, "    %s\n", is)
			}
		}
		return nil
	},
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete all but the most recent runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		keep, _ := cmd.Flags().GetInt("keep")
		if keep < 0 {
			return fmt.Errorf("--keep must not be negative")
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.RunRepo().Prune(cmdContext(cmd), keep); err != nil {
			return fmt.Errorf("prune runs: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Kept the %d most recent runs.\n", keep)
		return nil
	},
}

func init() {
	historyListCmd.Flags().Int("limit", 20, "Maximum number of runs to show")
	historyPruneCmd.Flags().Int("keep", 50, "Number of runs to keep")
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyViewCmd)
	historyCmd.AddCommand(historyPruneCmd)
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

func truncate(s string, max int) string {
	if len([]rune(s)) <= max {
		return s
	}
	return string([]rune(s)[:max-1]) + "…"
}
