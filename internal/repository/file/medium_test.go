package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediumGetMissingKey(t *testing.T) {
	m, err := New(t.TempDir())
	require.NoError(t, err)

	v, ok, err := m.Get(context.Background(), "suivi_ordonnances")

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, v)
}

func TestMediumSetReplacesValue(t *testing.T) {
	ctx := context.Background()
	m, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, m.Set(ctx, "k", `[{"id":"1"}]`))
	require.NoError(t, m.Set(ctx, "k", `[]`))

	v, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[]`, v)
}

func TestMediumLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	m, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, m.Set(context.Background(), "k", "v"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "k.json", entries[0].Name())
}

func TestMediumSanitizesKeys(t *testing.T) {
	dir := t.TempDir()
	m, err := New(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "a_b.permission.json"), m.Path("a/b.permission"))
}

func TestNewCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")

	_, err := New(dir)
	require.NoError(t, err)

	st, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, st.IsDir())
}
