package archive

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRoundTrip(t *testing.T) {
	folder := t.TempDir()
	files := []string{
		"01 - Intro.m4a",
		"02 - Main.m4a",
		filepath.Join("disc2", "01 - Outro.m4a"),
	}
	for _, name := range files {
		path := filepath.Join(folder, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte("audio"), 0o640))
	}

	zipPath, err := Create(folder, t.TempDir(), "Some Album", "Some Artist")
	require.NoError(t, err)
	assert.Equal(t, "Some Album - Some Artist.zip", filepath.Base(zipPath))

	r, err := zip.OpenReader(zipPath)
	require.NoError(t, err)
	defer r.Close()

	require.Len(t, r.File, len(files))
	seen := make(map[string]bool)
	for _, f := range r.File {
		seen[f.Name] = true
		assert.False(t, filepath.IsAbs(f.Name), f.Name)
		assert.False(t, strings.Contains(f.Name, ".."), f.Name)
	}
	assert.True(t, seen["01 - Intro.m4a"])
	assert.True(t, seen["disc2/01 - Outro.m4a"])
}

func TestCreateSanitizesName(t *testing.T) {
	folder := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(folder, "a.m4a"), []byte("x"), 0o640))

	zipPath, err := Create(folder, t.TempDir(), "AC/DC Live", "AC/DC")
	require.NoError(t, err)
	assert.Equal(t, "AC_DC Live - AC_DC.zip", filepath.Base(zipPath))
}

func TestCreateEmptyFolder(t *testing.T) {
	zipPath, err := Create(t.TempDir(), t.TempDir(), "Empty", "Nobody")
	require.NoError(t, err)

	r, err := zip.OpenReader(zipPath)
	require.NoError(t, err)
	defer r.Close()
	assert.Empty(t, r.File)
}
