package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizprep/internal/finding"
	"github.com/abhisek/quizprep/internal/mathsyntax"
)

var checkCmd = &cobra.Command{
	Use:   "check [text]",
	Short: "Check markup-math syntax in text",
	Long:  "Reports delimiter, brace and notation issues in the given text, or stdin when no text is given.",
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := argsOrStdin(cmd, args)
		if err != nil {
			return err
		}

		issues := mathsyntax.New(settings.symbols).Check(text)

		w := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			if issues == nil {
				issues = []finding.Issue{}
			}
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			if err := enc.Encode(issues); err != nil {
				return err
			}
		} else if len(issues) == 0 {
			fmt.Fprintln(w, "No issues.")
		} else {
			for _, is := range issues {
				fmt.Fprintln(w, is)
			}
		}

		if finding.HasCritical(issues) {
			return &thresholdError{count: 1, severity: string(finding.Critical)}
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().Bool("json", false, "Print issues as JSON")
}
