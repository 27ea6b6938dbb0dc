package draft_test

import (
	"os"
	"path/filepath"
	"testing"

	"snipbox/backend/pkg/draft"

	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T, s draft.Store) {
	t.Helper()

	_, ok, err := s.Load()
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Save("ab"))
	require.NoError(t, s.Save("abc"))
	text, ok, err := s.Load()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "abc", text)

	require.NoError(t, s.Clear())
	_, ok, err = s.Load()
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Clear())
}

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	s, err := draft.NewFileStore(dir)
	require.NoError(t, err)
	testStore(t, s)
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := draft.NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Save("héllo ✓"))

	reopened, err := draft.NewFileStore(dir)
	require.NoError(t, err)
	text, ok, err := reopened.Load()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "héllo ✓", text)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, draft.Key, entries[0].Name())
}

func TestFileStore_EmptyDraftIsStored(t *testing.T) {
	s, err := draft.NewFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.Save(""))

	text, ok, err := s.Load()
	require.NoError(t, err)
	require.True(t, ok)
	require.Empty(t, text)
}

func TestMemoryStore(t *testing.T) {
	s := draft.NewMemoryStore()
	testStore(t, s)
	require.Equal(t, 2, s.Saves())
}
