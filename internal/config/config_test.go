package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadFromDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 50.0, cfg.Server.RateLimitRPS)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Output)

	assert.Equal(t, "data/scores", cfg.Paths.DataDir)
	assert.Equal(t, "data/results", cfg.Paths.ResultsDir)

	assert.Equal(t, 5, cfg.Analysis.CoverageThreshold)
	assert.Equal(t, []int{3, 5, 7, 10}, cfg.Analysis.NeighborCandidates)
	assert.Equal(t, 5, cfg.Analysis.Folds)
	assert.InDelta(t, 0.2, cfg.Analysis.HideFraction, 1e-12)
	assert.InDelta(t, -1.0, cfg.Analysis.StrongDeleteriousMax, 1e-12)
	assert.InDelta(t, -0.5, cfg.Analysis.DeleteriousMax, 1e-12)
	assert.InDelta(t, 0.5, cfg.Analysis.BeneficialMin, 1e-12)
	assert.InDelta(t, 1.0, cfg.Analysis.StrongBeneficialMin, 1e-12)
	assert.InDelta(t, 0.7, cfg.Analysis.HighConsistency, 1e-12)
	assert.Equal(t, 10, cfg.Analysis.TopN)
}

func TestLoadFromYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mavecli.yaml")
	content := `
server:
  port: 9090
analysis:
  coverage_threshold: 2
  neighbor_candidates: [2, 4]
  hide_fraction: 0.3
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 2, cfg.Analysis.CoverageThreshold)
	assert.Equal(t, []int{2, 4}, cfg.Analysis.NeighborCandidates)
	assert.InDelta(t, 0.3, cfg.Analysis.HideFraction, 1e-12)
	// Untouched sections keep their defaults.
	assert.Equal(t, 5, cfg.Analysis.Folds)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mavecli.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o644))

	t.Setenv("MAVE_SERVER_PORT", "7070")
	t.Setenv("MAVE_ANALYSIS_TOP_N", "25")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 25, cfg.Analysis.TopN)
}

func TestLoadFromRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "port out of range",
			content: "server:\n  port: 99999\n",
		},
		{
			name:    "thresholds out of order",
			content: "analysis:\n  deleterious_max: -2.0\n",
		},
		{
			name:    "unknown log level",
			content: "logging:\n  level: loud\n",
		},
		{
			name:    "hide fraction too large",
			content: "analysis:\n  hide_fraction: 1.5\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "mavecli.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := LoadFrom(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadFromMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mavecli.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map\n"), 0o644))

	_, err := LoadFrom(path)
	assert.Error(t, err)
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := &Config{}
	cfg.Paths.DataDir = filepath.Join(base, "scores")
	cfg.Paths.ResultsDir = filepath.Join(base, "results")
	cfg.Paths.LogsDir = filepath.Join(base, "logs")

	require.NoError(t, cfg.EnsureDirectories())

	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.ResultsDir, cfg.Paths.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
