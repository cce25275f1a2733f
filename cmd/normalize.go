package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizprep/internal/normalize"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize [text]",
	Short: "Rewrite Unicode math symbols in text as markup-math",
	Long:  "Normalizes the given text, or stdin when no text is given, and prints the result.",
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := argsOrStdin(cmd, args)
		if err != nil {
			return err
		}

		res := normalize.New(settings.symbols).Normalize(text)

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}

		fmt.Fprintln(cmd.OutOrStdout(), res.Text)
		for _, u := range res.Unrecognized {
			fmt.Fprintf(cmd.ErrOrStderr(), "unrecognized symbol %q (U+%04X) at offset %d\n", u.Rune, u.Rune, u.Offset)
		}
		return nil
	},
}

func init() {
	normalizeCmd.Flags().Bool("json", false, "Print the substitutions and unrecognized symbols as JSON")
}

// argsOrStdin joins args with spaces, or reads all of stdin when there
// are none. A single trailing newline from stdin is dropped.
func argsOrStdin(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimSuffix(string(data), "\n"), nil
}
