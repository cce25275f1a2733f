package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizprep/internal/batch"
	"github.com/abhisek/quizprep/internal/validation"
)

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestNormalizeCommand(t *testing.T) {
	out, err := execute(t, "normalize", "A 10Ω resistor")
	require.NoError(t, err)
	assert.Equal(t, "A 10$\\Omega$ resistor\n", out)
}

func TestValidateCommand_SaveAndHistory(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "questions.jsonl")
	lines := []string{
		`{"id":"q1","type":"numerical","title":"T","question_text":"A 10Ω resistor...","correct_answer":"5","points":1,"topic":"X","difficulty":"Easy"}`,
		`{"id":"q2","type":"true_false","title":"T","question_text":"X","choices":["True","False"],"correct_answer":"Maybe"}`,
	}
	require.NoError(t, os.WriteFile(input, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	db := filepath.Join(dir, "history.db")
	normalized := filepath.Join(dir, "out.json")

	out, err := execute(t, "validate", "--format", "json", "--save", "--db", db, "--out", normalized, input)
	require.Error(t, err)
	assert.Equal(t, 2, ExitCode(err))

	var report jsonReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 2, report.Summary.Total)
	assert.Equal(t, 1, report.Summary.Ready)
	assert.Equal(t, []string{"q2"}, report.Summary.BlockedIDs)
	require.Len(t, report.Records, 2)
	assert.Equal(t, validation.StatusReady, report.Records[0].Status)

	data, err := os.ReadFile(normalized)
	require.NoError(t, err)
	assert.Contains(t, string(data), `10$\\Omega$`)

	out, err = execute(t, "history", "list", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "     2       1        1")
}

func TestValidateCommand_FailOnFromConfig(t *testing.T) {
	input := filepath.Join(t.TempDir(), "q.json")
	record := `{"id":"q1","type":"numerical","title":"T","question_text":"A \\Omega resistor","correct_answer":"5","points":1,"topic":"X","difficulty":"Easy"}`
	require.NoError(t, os.WriteFile(input, []byte(record), 0o644))

	_, err := execute(t, "validate", "--format", "json", input)
	require.NoError(t, err)

	t.Setenv("QUIZPREP_FAIL_ON", "warning")
	_, err = execute(t, "validate", "--format", "json", input)
	require.Error(t, err)
	assert.Equal(t, 2, ExitCode(err))
	assert.Contains(t, err.Error(), "warning")
}

func TestRenderText(t *testing.T) {
	results := []validation.Result{
		{RecordID: "q1", Position: 1, Type: "numerical", Status: validation.StatusReady},
		{RecordID: "#2", Position: 2, Status: validation.StatusBlocked},
	}
	var buf bytes.Buffer
	require.NoError(t, renderText(&buf, &batch.Outcome{
		Results: results,
		Report:  batch.BuildReport(results),
		Elapsed: 1500 * time.Millisecond,
	}))
	assert.Contains(t, buf.String(), "Records:     2")
	assert.Contains(t, buf.String(), "Elapsed:     1,500ms")
	assert.Contains(t, buf.String(), "Blocked: #2")
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "U+00B0 U+0043", codePoints("°C"))
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
	assert.Equal(t, 1, ExitCode(assert.AnError))
}
