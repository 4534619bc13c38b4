// Package tags turns downloaded media files into MediaItem records. Tag
// reading is best effort: a corrupt or unsupported file degrades to a
// filename-derived record, never to a failed job.
package tags

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"go.uber.org/zap"

	"github.com/tunedrop/tunedrop/internal/config"
	"github.com/tunedrop/tunedrop/internal/model"
)

const (
	fallbackArtist = "Unknown Artist"
	fallbackAlbum  = "Unknown Album"

	ffprobeTimeout = 10 * time.Second
)

// mediaKinds is the fixed whitelist of container extensions the pipeline
// considers; everything else in the workspace is ignored.
var mediaKinds = map[string]model.MediaKind{
	".m4a":  model.KindAudio,
	".flac": model.KindAudio,
	".mp4":  model.KindVideo,
	".mov":  model.KindVideo,
}

// Extractor reads descriptive tags from media files.
type Extractor struct {
	ffprobe string
	log     *zap.Logger
}

// NewExtractor constructs an Extractor. ffprobe is optional; without it
// durations stay zero.
func NewExtractor(cfg *config.Config, log *zap.Logger) *Extractor {
	return &Extractor{ffprobe: cfg.FFProbePath, log: log}
}

// ScanDir walks dir, extracts every whitelisted media file and returns the
// items in deterministic path order.
func (e *Extractor) ScanDir(dir string) []*model.MediaItem {
	var paths []string
	_ = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if _, ok := mediaKinds[strings.ToLower(filepath.Ext(path))]; ok {
			paths = append(paths, path)
		}
		return nil
	})
	sort.Strings(paths)

	items := make([]*model.MediaItem, 0, len(paths))
	for _, path := range paths {
		items = append(items, e.Extract(path))
	}
	return items
}

// Extract builds a MediaItem for one file. It never fails: unreadable tags
// fall back to a record parsed from the filename.
func (e *Extractor) Extract(path string) *model.MediaItem {
	kind := mediaKinds[strings.ToLower(filepath.Ext(path))]
	item := fallbackItem(path, kind)

	f, err := os.Open(path)
	if err != nil {
		e.log.Warn("open media file failed", zap.String("path", path), zap.Error(err))
		return item
	}
	defer f.Close()

	meta, err := tag.ReadFrom(f)
	if err != nil {
		e.log.Warn("tag read failed, using fallback record",
			zap.String("path", path), zap.Error(err))
		return item
	}

	if title := strings.TrimSpace(meta.Title()); title != "" {
		item.Title = title
	}
	if artist := strings.TrimSpace(meta.Artist()); artist != "" {
		item.Artist = artist
	}
	if album := strings.TrimSpace(meta.Album()); album != "" {
		item.Album = album
	}
	if track, _ := meta.Track(); track > 0 {
		item.TrackNumber = strconv.Itoa(track)
	}
	item.Genre = meta.Genre()
	if year := meta.Year(); year > 0 {
		item.Date = strconv.Itoa(year)
	}
	item.ISRC = rawISRC(meta)
	item.CoverPath = e.extractCover(meta, path)
	item.Duration = e.probeDuration(path)
	return item
}

// fallbackItem derives a record from the bare filename: "artist - title" when
// the separator is present, otherwise the filename as title.
func fallbackItem(path string, kind model.MediaKind) *model.MediaItem {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	item := &model.MediaItem{
		FilePath:    path,
		Title:       base,
		Artist:      fallbackArtist,
		Album:       fallbackAlbum,
		TrackNumber: "0",
		Kind:        kind,
	}
	if artist, title, ok := strings.Cut(base, " - "); ok {
		artist, title = strings.TrimSpace(artist), strings.TrimSpace(title)
		if artist != "" && title != "" {
			item.Artist = artist
			item.Title = title
		}
	}
	return item
}

// extractCover writes the embedded picture to a sibling file and returns its
// path, or "" when no usable picture exists.
func (e *Extractor) extractCover(meta tag.Metadata, path string) string {
	pic := meta.Picture()
	if pic == nil || len(pic.Data) == 0 {
		return ""
	}
	ext := pic.Ext
	if ext == "" {
		ext = "jpg"
	}
	coverPath := strings.TrimSuffix(path, filepath.Ext(path)) + "." + ext
	if err := os.WriteFile(coverPath, pic.Data, 0o640); err != nil {
		e.log.Warn("cover extraction failed", zap.String("path", path), zap.Error(err))
		return ""
	}
	return coverPath
}

// probeDuration asks ffprobe for the container duration in seconds. Failures
// are absorbed; duration stays zero.
func (e *Extractor) probeDuration(path string) int {
	if e.ffprobe == "" {
		return 0
	}
	ctx, cancel := context.WithTimeout(context.Background(), ffprobeTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, e.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "csv=p=0",
		path).Output()
	if err != nil {
		e.log.Debug("ffprobe unavailable", zap.String("path", path), zap.Error(err))
		return 0
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil || seconds < 0 {
		return 0
	}
	return int(seconds)
}

// rawISRC digs the ISRC out of the container-specific raw tag map.
func rawISRC(meta tag.Metadata) string {
	for key, value := range meta.Raw() {
		if !strings.Contains(strings.ToLower(key), "isrc") {
			continue
		}
		switch v := value.(type) {
		case string:
			return strings.TrimSpace(v)
		case []byte:
			return strings.TrimSpace(string(v))
		}
	}
	return ""
}
