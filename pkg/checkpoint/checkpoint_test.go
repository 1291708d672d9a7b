package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"twitterkeywordsearch/pkg/logger"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManagerInDir(t.TempDir(), Key(`"golang"`, "popular", "search"), logger.NewTestLogger())
	require.NoError(t, err)
	return m
}

func TestKey(t *testing.T) {
	a := Key(`"golang"`, "popular", "search")
	assert.Len(t, a, 16)
	assert.Equal(t, a, Key(`"golang"`, "popular", "search"))
	assert.NotEqual(t, a, Key(`"golang"`, "recent", "search"))
	assert.NotEqual(t, a, Key(`"golang"`, "popular", "other"))
}

func TestCreateLoadUpdate(t *testing.T) {
	m := newTestManager(t)

	cp, err := m.Load()
	require.NoError(t, err)
	assert.Nil(t, cp, "no checkpoint yet")

	cp, err = m.Create(`"golang"`, "popular", "search", "run-1")
	require.NoError(t, err)
	assert.True(t, m.Exists())

	require.NoError(t, m.UpdateProgress(cp, 1050118621198921699, 100))
	require.NoError(t, m.UpdateProgress(cp, 1050118621198900000, 40))

	loaded, err := m.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, int64(1050118621198900000), loaded.MaxID)
	assert.Equal(t, 2, loaded.PagesProcessed)
	assert.Equal(t, 140, loaded.TotalInserted)
	assert.Equal(t, "run-1", loaded.RunID)
	assert.Equal(t, Version, loaded.Version)

	_, err = os.Stat(m.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file is renamed away")
}

func TestDelete(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Create("q", "recent", "search", "")
	require.NoError(t, err)

	require.NoError(t, m.Delete())
	assert.False(t, m.Exists())
	assert.NoError(t, m.Delete(), "deleting twice is fine")
}

func TestLoadRejectsUnknownVersion(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, os.WriteFile(m.Path(), []byte(`{"version": 99}`), 0o644))

	_, err := m.Load()
	assert.Error(t, err)
}

func TestLoadCorrupt(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, os.WriteFile(m.Path(), []byte(`{not json`), 0o644))

	_, err := m.Load()
	assert.Error(t, err)
}

func TestNewManagerUsesDataHome(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	m, err := NewManager("abc", logger.NewNopLogger())
	require.NoError(t, err)
	assert.Equal(t, "search-abc.checkpoint.json", filepath.Base(m.Path()))
}
