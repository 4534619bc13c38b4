package tags

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tunedrop/tunedrop/internal/config"
	"github.com/tunedrop/tunedrop/internal/model"
)

func newTestExtractor() *Extractor {
	// ffprobe disabled so durations are deterministic.
	return NewExtractor(&config.Config{FFProbePath: ""}, zap.NewNop())
}

func writeGarbage(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("not a real media container"), 0o640))
	return path
}

func TestExtractNeverFails(t *testing.T) {
	e := newTestExtractor()
	path := writeGarbage(t, t.TempDir(), "corrupt.m4a")

	item := e.Extract(path)

	assert.NotEmpty(t, item.Title)
	assert.NotEmpty(t, item.Artist)
	assert.NotEmpty(t, item.Album)
	assert.Equal(t, model.KindAudio, item.Kind)
	assert.GreaterOrEqual(t, item.Duration, 0)
}

func TestExtractFallbackParsesFilename(t *testing.T) {
	e := newTestExtractor()
	path := writeGarbage(t, t.TempDir(), "Queen - Bohemian Rhapsody.flac")

	item := e.Extract(path)

	assert.Equal(t, "Queen", item.Artist)
	assert.Equal(t, "Bohemian Rhapsody", item.Title)
	assert.Equal(t, "Unknown Album", item.Album)
}

func TestExtractFallbackWithoutSeparator(t *testing.T) {
	e := newTestExtractor()
	path := writeGarbage(t, t.TempDir(), "recording.m4a")

	item := e.Extract(path)

	assert.Equal(t, "recording", item.Title)
	assert.Equal(t, "Unknown Artist", item.Artist)
}

func TestExtractVideoKind(t *testing.T) {
	e := newTestExtractor()
	path := writeGarbage(t, t.TempDir(), "clip.mp4")

	item := e.Extract(path)

	assert.Equal(t, model.KindVideo, item.Kind)
}

func TestScanDirFiltersAndOrders(t *testing.T) {
	e := newTestExtractor()
	dir := t.TempDir()
	writeGarbage(t, dir, "02 - b.m4a")
	writeGarbage(t, dir, "01 - a.m4a")
	writeGarbage(t, dir, "cover.jpg")
	writeGarbage(t, dir, "config.yaml")
	sub := filepath.Join(dir, "disc2")
	require.NoError(t, os.Mkdir(sub, 0o750))
	writeGarbage(t, sub, "03 - c.flac")

	items := e.ScanDir(dir)

	require.Len(t, items, 3)
	assert.Equal(t, "a", items[0].Title)
	assert.Equal(t, "b", items[1].Title)
	assert.Equal(t, "c", items[2].Title)
}

func TestScanDirEmptyWorkspace(t *testing.T) {
	e := newTestExtractor()
	assert.Empty(t, e.ScanDir(t.TempDir()))
}
