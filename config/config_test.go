package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imagematcher/signalhandler"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 50.0, cfg.Match.Threshold)
	assert.Equal(t, 10, cfg.Match.BatchSize)
	assert.Equal(t, signalhandler.GetOptimalProcs(), cfg.Match.Workers)
	assert.True(t, cfg.Match.FollowSymlinks)
	assert.Equal(t, 400, cfg.Vision.Width)
	assert.Equal(t, 300, cfg.Vision.Height)
	assert.Equal(t, 50, cfg.Vision.ThumbnailWidth)
	assert.False(t, cfg.History.Enabled)
}

func TestLoadYAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imagematcher.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
match:
  threshold: 30
  batch_size: 4
vision:
  width: 200
history:
  enabled: true
`), 0o644))
	t.Setenv("IMAGEMATCHER_BATCH_SIZE", "7")
	t.Setenv("IMAGEMATCHER_DEBUG", "true")
	t.Setenv("IMAGEMATCHER_FOLLOW_SYMLINKS", "false")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30.0, cfg.Match.Threshold)
	assert.Equal(t, 7, cfg.Match.BatchSize)
	assert.Equal(t, 200, cfg.Vision.Width)
	assert.Equal(t, 300, cfg.Vision.Height)
	assert.True(t, cfg.History.Enabled)
	assert.True(t, cfg.Log.Debug)
	assert.False(t, cfg.Match.FollowSymlinks)
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("match: [unclosed"), 0o644))
	_, err := Load(bad)
	assert.Error(t, err)

	outOfRange := filepath.Join(dir, "range.yaml")
	require.NoError(t, os.WriteFile(outOfRange, []byte("match:\n  threshold: 150\n"), 0o644))
	_, err = Load(outOfRange)
	assert.ErrorContains(t, err, "out of range")

	nan := filepath.Join(dir, "nan.yaml")
	require.NoError(t, os.WriteFile(nan, []byte("match:\n  threshold: .nan\n"), 0o644))
	_, err = Load(nan)
	assert.ErrorContains(t, err, "out of range")

	t.Setenv("IMAGEMATCHER_THRESHOLD", "NaN")
	_, err = Load("")
	assert.ErrorContains(t, err, "IMAGEMATCHER_THRESHOLD")

	t.Setenv("IMAGEMATCHER_THRESHOLD", "abc")
	_, err = Load("")
	assert.ErrorContains(t, err, "IMAGEMATCHER_THRESHOLD")
}

func TestEnvIntIgnoresInvalid(t *testing.T) {
	t.Setenv("X_INT", "-3")
	assert.Equal(t, 5, envInt("X_INT", 5))
	t.Setenv("X_INT", "12")
	assert.Equal(t, 12, envInt("X_INT", 5))
}
