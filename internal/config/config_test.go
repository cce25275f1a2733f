package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizprep/internal/finding"
	"github.com/abhisek/quizprep/internal/symbols"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", false)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, finding.Critical, cfg.FailOnSeverity())
}

func TestLoad_MissingDefaultFileIsFine(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), false)
	require.NoError(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "absent.yaml"), true)
	require.Error(t, err)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
workers: 3
log_level: info
fail_on: warning
format: json
history_keep: 20
symbols:
  - symbol: "ℏ"
    replacement: '\hbar'
`)
	cfg, err := Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, finding.Warning, cfg.FailOnSeverity())
	assert.Equal(t, FormatJSON, cfg.Format)
	assert.Equal(t, 20, cfg.HistoryKeep)

	m, err := cfg.SymbolMap()
	require.NoError(t, err)
	e, width, ok := m.Match([]rune("ℏ"), 0)
	require.True(t, ok)
	assert.Equal(t, 1, width)
	assert.Equal(t, `\hbar`, e.Replacement)
}

func TestLoad_UnknownFieldRejected(t *testing.T) {
	_, err := Load(writeConfig(t, "wrokers: 3\n"), true)
	require.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "workers: 3\nformat: text\n")
	t.Setenv("QUIZPREP_WORKERS", "7")
	t.Setenv("QUIZPREP_FORMAT", "json")
	t.Setenv("QUIZPREP_DB", "/tmp/q.db")

	cfg, err := Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Workers)
	assert.Equal(t, FormatJSON, cfg.Format)
	assert.Equal(t, "/tmp/q.db", cfg.DB)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"negative workers", "workers: -1\n"},
		{"bad log level", "log_level: loud\n"},
		{"bad fail_on", "fail_on: fatal\n"},
		{"bad format", "format: xml\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content), true)
			assert.Error(t, err)
		})
	}

	t.Run("bad env workers", func(t *testing.T) {
		t.Setenv("QUIZPREP_WORKERS", "many")
		_, err := Load("", false)
		assert.Error(t, err)
	})
}

func TestSymbolMap_RejectsCircularReplacement(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Symbols = append(cfg.Symbols, symbols.Entry{Symbol: "ℏ", Replacement: "ℏ-bar"})
	_, err := cfg.SymbolMap()
	assert.Error(t, err)
}
