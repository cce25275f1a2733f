package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"
)

var symbolsCmd = &cobra.Command{
	Use:   "symbols",
	Short: "List the Unicode to markup-math symbol map",
	RunE: func(cmd *cobra.Command, args []string) error {
		entries := settings.symbols.Entries()
		w := cmd.OutOrStdout()

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		}

		fmt.Fprintf(w, "%-8s  %-16s  %s\n", "Symbol", "Code", "Replacement")
		fmt.Fprintln(w, strings.Repeat("─", 48))
		for _, e := range entries {
			fmt.Fprintf(w, "%-8s  %-16s  %s\n", e.Symbol, codePoints(e.Symbol), e.Replacement)
		}
		fmt.Fprintf(w, "\n%d symbols\n", len(entries))
		return nil
	},
}

func init() {
	symbolsCmd.Flags().Bool("json", false, "Print the map as JSON")
}

// codePoints formats s as space separated U+XXXX code points.
func codePoints(s string) string {
	parts := make([]string, 0, utf8.RuneCountInString(s))
	for _, r := range s {
		parts = append(parts, fmt.Sprintf("U+%04X", r))
	}
	return strings.Join(parts, " ")
}
