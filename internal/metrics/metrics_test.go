package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizprep/internal/finding"
	"github.com/abhisek/quizprep/internal/normalize"
	"github.com/abhisek/quizprep/internal/validation"
)

func TestCollector_ObserveRecord(t *testing.T) {
	c := New()

	c.ObserveRecord(validation.Result{
		Type:   "numerical",
		Status: validation.StatusReady,
		Issues: []finding.Issue{
			{Severity: finding.Info, Code: finding.CodeUnicodeFound},
			{Severity: finding.Info, Code: finding.CodeUnicodeFound},
		},
		Conversions: []validation.Conversion{
			{Field: "question_text", Substitution: normalize.Substitution{Original: "Ω"}},
			{Field: "question_text", Substitution: normalize.Substitution{Original: "°"}},
		},
	}, time.Millisecond)
	c.ObserveRecord(validation.Result{Status: validation.StatusBlocked}, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.records.WithLabelValues("numerical", "ready")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.records.WithLabelValues("unknown", "blocked")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.issues.WithLabelValues("info", "unicode_found")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.conversions))
}

func TestCollector_WriteTextfile(t *testing.T) {
	c := New()
	c.ObserveRun(5, 2*time.Second, false)

	path := filepath.Join(t.TempDir(), "quizprep.prom")
	require.NoError(t, c.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `quizprep_runs_total{cancelled="false"} 1`)
	assert.Contains(t, string(data), "quizprep_last_run_records 5")
}
