package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFindByExt(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	for _, name := range []string{"b.srt", "a.SRT", "c.txt", filepath.Join("nested", "d.srt")} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	got, err := FindByExt(dir, "srt")
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "a.SRT"),
		filepath.Join(dir, "b.srt"),
		filepath.Join(dir, "nested", "d.srt"),
	}, got)
}

func TestReplaceExt(t *testing.T) {
	t.Parallel()

	require.Equal(t, filepath.Join("a", "b.txt"), ReplaceExt(filepath.Join("a", "b.srt"), "txt"))
	require.Equal(t, filepath.Join("a", "b.txt"), ReplaceExt(filepath.Join("a", "b.srt"), ".txt"))
}
