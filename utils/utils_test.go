package utils

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePath(t *testing.T) {
	dir := t.TempDir()

	got, err := NormalizePath(filepath.Join(dir, "a", "..", "b.jpg"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "b.jpg"), got)

	rel, err := NormalizePath("x.png")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(rel))

	_, err = NormalizePath("  ")
	assert.Error(t, err)
}

func TestResolvePathFollowsSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	target := filepath.Join(dir, "target")
	require.NoError(t, os.Mkdir(target, 0o755))
	link := filepath.Join(dir, "link")
	require.NoError(t, os.Symlink(target, link))

	got, err := ResolvePath(filepath.Join(link, "q.jpg"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "link", "q.jpg"), got, "missing leaf keeps the normalized path")

	require.NoError(t, os.WriteFile(filepath.Join(target, "q.jpg"), []byte("x"), 0o644))
	got, err = ResolvePath(filepath.Join(link, ".", "q.jpg"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(target, "q.jpg"), got)

	got, err = ResolvePath(link)
	require.NoError(t, err)
	assert.Equal(t, target, got)
}

func TestParseThreshold(t *testing.T) {
	v, err := ParseThreshold("12.5")
	require.NoError(t, err)
	assert.Equal(t, 12.5, v)

	v, err = ParseThreshold("0")
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)

	v, err = ParseThreshold("100")
	require.NoError(t, err)
	assert.Equal(t, 100.0, v)

	for _, bad := range []string{"-1", "100.1", "abc", "", "NaN", "nan", "+Inf"} {
		v, err = ParseThreshold(bad)
		assert.Error(t, err, bad)
		assert.Equal(t, DefaultThreshold, v)
	}
}

func TestDefaultPaths(t *testing.T) {
	assert.Equal(t, "imagematcher.db", filepath.Base(GetDefaultDatabasePath()))
	assert.Equal(t, "imagematcher.yaml", filepath.Base(GetDefaultConfigPath()))
}
