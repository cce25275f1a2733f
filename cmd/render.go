package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/abhisek/quizprep/internal/batch"
	"github.com/abhisek/quizprep/internal/finding"
	"github.com/abhisek/quizprep/internal/validation"
)

var printer = message.NewPrinter(language.English)

// jsonReport is the --format json document.
type jsonReport struct {
	Cancelled bool                `json:"cancelled"`
	ElapsedMs int64               `json:"elapsed_ms"`
	Summary   batch.Report        `json:"summary"`
	Records   []validation.Result `json:"records"`
}

func renderJSON(w io.Writer, out *batch.Outcome) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonReport{
		Cancelled: out.Cancelled,
		ElapsedMs: out.Elapsed.Milliseconds(),
		Summary:   out.Report,
		Records:   out.Results,
	})
}

func renderText(w io.Writer, out *batch.Outcome) error {
	sep := strings.Repeat("─", 72)

	for _, res := range out.Results {
		if len(res.Issues) == 0 {
			continue
		}
		mark := "✓"
		if res.Blocked() {
			mark = "✗"
		}
		typ := string(res.Type)
		if typ == "" {
			typ = "?"
		}
		fmt.Fprintf(w, "%s %s (%s)\n", mark, res.RecordID, typ)
		for _, is := range res.Issues {
			fmt.Fprintf(w, "    %s\n", is)
		}
	}

	r := out.Report
	fmt.Fprintln(w, sep)
	printer.Fprintf(w, "Records:     %d\n", r.Total)
	printer.Fprintf(w, "Ready:       %d\n", r.Ready)
	printer.Fprintf(w, "Blocked:     %d\n", r.Blocked)
	printer.Fprintf(w, "With math:   %d (%.1f%%)\n", r.WithMath, r.MathPercent)
	printer.Fprintf(w, "Conversions: %d\n", r.ConversionTotal)
	printer.Fprintf(w, "Elapsed:     %dms\n", out.Elapsed.Milliseconds())
	if out.Cancelled {
		fmt.Fprintln(w, "Run cancelled before all records completed.")
	}

	if len(r.BySeverity) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Issues by severity")
		for _, sev := range finding.Severities {
			if n := r.BySeverity[sev]; n > 0 {
				printer.Fprintf(w, "  %-10s %6d\n", sev, n)
			}
		}
	}
	writeCounts(w, "Issues by code", stringKeys(r.ByCode))
	writeCounts(w, "Records by type", r.ByType)
	writeCounts(w, "Records by topic", r.ByTopic)
	writeCounts(w, "Records by difficulty", r.ByDifficulty)
	writeCounts(w, "Symbols converted", r.Conversions)
	writeCounts(w, "Unrecognized symbols", r.Unrecognized)

	if len(r.BlockedIDs) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Blocked: %s\n", strings.Join(r.BlockedIDs, ", "))
	}
	return nil
}

func stringKeys[K ~string](m map[K]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[string(k)] = v
	}
	return out
}

// writeCounts prints a count table, largest first and then by key.
func writeCounts(w io.Writer, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(a, b int) bool {
		if counts[keys[a]] != counts[keys[b]] {
			return counts[keys[a]] > counts[keys[b]]
		}
		return keys[a] < keys[b]
	})

	fmt.Fprintln(w)
	fmt.Fprintln(w, title)
	for _, k := range keys {
		label := k
		if label == "" {
			label = "(none)"
		}
		printer.Fprintf(w, "  %-24s %6d\n", label, counts[k])
	}
}
