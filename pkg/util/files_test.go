package util

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string, mod time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func TestLatestFileByModTime(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	touch(t, filepath.Join(dir, "news_b.json"), base)
	touch(t, filepath.Join(dir, "news_a.json"), base.Add(time.Hour))
	touch(t, filepath.Join(dir, "other.json"), base.Add(2*time.Hour))

	fi, err := LatestFile(dir, "news_")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "news_a.json"), fi.Path)
}

func TestLatestDatedFileByName(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	touch(t, filepath.Join(dir, "macro_2024-05-02.json"), base)
	touch(t, filepath.Join(dir, "macro_2024-04-30.json"), base.Add(time.Hour))

	fi, err := LatestDatedFile(dir, "macro_")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "macro_2024-05-02.json"), fi.Path)
}

func TestLatestFileNoMatch(t *testing.T) {
	_, err := LatestFile(t.TempDir(), "news_")
	assert.True(t, errors.Is(err, ErrNoMatch))
}

func TestWriteFileAtomicReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	require.NoError(t, WriteFileAtomic(path, []byte(`{"a":1}`), 0o644))
	require.NoError(t, WriteFileAtomic(path, []byte(`{"a":2}`), 0o644))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":2}`, string(b))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
