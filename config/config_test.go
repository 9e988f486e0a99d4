package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesSpec(t *testing.T) {
	cfg := Default()
	require.Equal(t, 10, cfg.RestorationMinTokens)
	require.Equal(t, 10, cfg.RearrangementMinTokens)
	require.True(t, cfg.BreakBoundaryRequired)
}

func TestLoadOverridesOnlyGivenFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("restoration_min_tokens: 3\ncheckpoint:\n  driver: sqlite\n  dsn: checkpoints.db\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 3, cfg.RestorationMinTokens)
	require.Equal(t, 10, cfg.RearrangementMinTokens)
	require.Equal(t, "sqlite", cfg.Checkpoint.Driver)
	require.Equal(t, "checkpoints.db", cfg.Checkpoint.DSN)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
