// Package deliver routes classified bundles to the configured transport,
// bundling collections into archives or fanning them out item by item, and
// releases the workspace subtree each bundle occupies.
package deliver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/tunedrop/tunedrop/internal/archive"
	"github.com/tunedrop/tunedrop/internal/config"
	"github.com/tunedrop/tunedrop/internal/model"
	"github.com/tunedrop/tunedrop/internal/notify"
	"github.com/tunedrop/tunedrop/internal/remote"
	"github.com/tunedrop/tunedrop/internal/source"
	"github.com/tunedrop/tunedrop/internal/workspace"
)

// DeliveryError wraps a transport-level failure. It propagates and aborts
// the remaining fan-out unless the continue-on-child-failure policy is set.
type DeliveryError struct {
	Bundle model.BundleType
	Err    error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver %s: %v", e.Bundle, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Router dispatches bundles by content type.
type Router struct {
	cfg       *config.Config
	ws        *workspace.Manager
	messenger notify.Messenger
	remote    remote.Syncer
	log       *zap.Logger
}

// NewRouter constructs a Router. remote may be nil when the transport is
// direct.
func NewRouter(cfg *config.Config, ws *workspace.Manager, messenger notify.Messenger, syncer remote.Syncer, log *zap.Logger) *Router {
	return &Router{cfg: cfg, ws: ws, messenger: messenger, remote: syncer, log: log}
}

// Deliver routes one bundle through the configured transport. On success the
// bundle's backing files are gone; on failure the caller's workspace cleanup
// removes whatever is left.
func (r *Router) Deliver(ctx context.Context, job *model.Job, b *model.Bundle) (*model.DeliveryResult, error) {
	switch b.Type {
	case model.BundleTrack:
		return r.deliverItem(ctx, job, b.Item, notify.KindAudio, trackCaption(b.Item))
	case model.BundleVideo:
		return r.deliverItem(ctx, job, b.Item, notify.KindVideo, videoCaption(b.Item))
	case model.BundleAlbum:
		return r.deliverCollection(ctx, job, b, r.cfg.AlbumZip, albumCaption(b), r.fanOutTracks, true)
	case model.BundlePlaylist:
		return r.deliverCollection(ctx, job, b, r.cfg.PlaylistZip, playlistCaption(b), r.fanOutTracks, true)
	case model.BundleArtist:
		return r.deliverCollection(ctx, job, b, r.cfg.ArtistZip, artistCaption(b), r.fanOutAlbums, true)
	default:
		return nil, &DeliveryError{Bundle: b.Type, Err: fmt.Errorf("unsupported bundle type")}
	}
}

// deliverItem sends a single file and then removes it together with any
// derived cover file. Files survive a failed send so the workspace cleanup
// can account for them.
func (r *Router) deliverItem(ctx context.Context, job *model.Job, item *model.MediaItem, kind notify.Kind, caption string) (*model.DeliveryResult, error) {
	result := &model.DeliveryResult{Transport: r.transport()}

	switch r.transport() {
	case model.TransportRemote:
		share, index, err := r.sync(ctx, item.FilePath)
		if err != nil {
			return nil, &DeliveryError{Bundle: bundleKindFor(kind), Err: err}
		}
		result.Link, result.IndexLink = share, index
		if err := r.messenger.SendText(ctx, job.UserID, withLinks(caption, share, index)); err != nil {
			return nil, &DeliveryError{Bundle: bundleKindFor(kind), Err: err}
		}
	default:
		meta := &notify.FileMeta{
			Title:         item.Title,
			Artist:        item.Artist,
			Duration:      item.Duration,
			ThumbnailPath: item.CoverPath,
		}
		if err := r.messenger.SendFile(ctx, job.UserID, item.FilePath, kind, caption, meta); err != nil {
			return nil, &DeliveryError{Bundle: bundleKindFor(kind), Err: err}
		}
	}

	result.Delivered = 1
	r.removeFile(item.FilePath)
	if item.CoverPath != "" {
		r.removeFile(item.CoverPath)
	}
	return result, nil
}

type fanOutFunc func(ctx context.Context, job *model.Job, b *model.Bundle) (int, error)

// deliverCollection applies the per-type policy: archive the whole folder or
// fan out to the children. release controls whether the bundle's backing
// folder is removed once delivery completes; a child sharing its parent's
// folder must not release it.
func (r *Router) deliverCollection(ctx context.Context, job *model.Job, b *model.Bundle, zipIt bool, caption string, fanOut fanOutFunc, release bool) (*model.DeliveryResult, error) {
	result := &model.DeliveryResult{Transport: r.transport()}

	switch {
	case r.transport() == model.TransportRemote:
		share, index, err := r.sync(ctx, b.FolderPath)
		if err != nil {
			return nil, &DeliveryError{Bundle: b.Type, Err: err}
		}
		result.Link, result.IndexLink = share, index
		if err := r.messenger.SendText(ctx, job.UserID, withLinks(caption, share, index)); err != nil {
			return nil, &DeliveryError{Bundle: b.Type, Err: err}
		}
		result.Delivered = 1

	case zipIt:
		zipDir, err := r.ws.ZipDir(job.UserID)
		if err != nil {
			return nil, &DeliveryError{Bundle: b.Type, Err: err}
		}
		zipPath, err := archive.Create(b.FolderPath, zipDir, b.Title, b.Artist)
		if err != nil {
			return nil, &DeliveryError{Bundle: b.Type, Err: err}
		}
		sendErr := r.messenger.SendFile(ctx, job.UserID, zipPath, notify.KindDocument, caption, nil)
		r.removeFile(zipPath)
		if sendErr != nil {
			return nil, &DeliveryError{Bundle: b.Type, Err: sendErr}
		}
		result.Delivered = 1

	default:
		delivered, err := fanOut(ctx, job, b)
		result.Delivered = delivered
		if err != nil {
			return result, err
		}
	}

	if release {
		r.ws.Destroy(b.FolderPath)
	}
	return result, nil
}

// fanOutTracks delivers every item of an album or playlist individually.
func (r *Router) fanOutTracks(ctx context.Context, job *model.Job, b *model.Bundle) (int, error) {
	var delivered int
	var firstErr error
	for _, item := range b.Items {
		kind := notify.KindAudio
		caption := trackCaption(item)
		if item.Kind == model.KindVideo {
			kind = notify.KindVideo
			caption = videoCaption(item)
		}
		if _, err := r.deliverItem(ctx, job, item, kind, caption); err != nil {
			if !r.cfg.ContinueOnChildFailure {
				return delivered, &DeliveryError{Bundle: b.Type, Err: err}
			}
			if firstErr == nil {
				firstErr = err
			}
			r.log.Warn("child delivery failed, continuing",
				zap.String("file", item.FilePath), zap.Error(err))
			continue
		}
		delivered++
	}
	if firstErr != nil {
		return delivered, &DeliveryError{Bundle: b.Type, Err: firstErr}
	}
	return delivered, nil
}

// fanOutAlbums delivers an artist discography album by album, each album
// following the album policy.
func (r *Router) fanOutAlbums(ctx context.Context, job *model.Job, b *model.Bundle) (int, error) {
	var delivered int
	var firstErr error
	for _, child := range b.Children {
		// Fallback-tagged discographies can leave every album in the bundle
		// root; releasing that shared folder after the first album would take
		// the remaining albums with it.
		release := child.FolderPath != b.FolderPath
		res, err := r.deliverCollection(ctx, job, child, r.cfg.AlbumZip, albumCaption(child), r.fanOutTracks, release)
		if err != nil {
			if !r.cfg.ContinueOnChildFailure {
				return delivered, &DeliveryError{Bundle: b.Type, Err: err}
			}
			if firstErr == nil {
				firstErr = err
			}
			r.log.Warn("album delivery failed, continuing",
				zap.String("album", child.Title), zap.Error(err))
			continue
		}
		delivered += res.Delivered
	}
	if firstErr != nil {
		return delivered, &DeliveryError{Bundle: b.Type, Err: firstErr}
	}
	return delivered, nil
}

func (r *Router) transport() model.Transport {
	if strings.EqualFold(r.cfg.Transport, string(model.TransportRemote)) {
		return model.TransportRemote
	}
	return model.TransportDirect
}

func (r *Router) sync(ctx context.Context, localPath string) (string, string, error) {
	if r.remote == nil {
		return "", "", fmt.Errorf("remote transport not configured")
	}
	rel, err := filepath.Rel(r.ws.BasePath(), localPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(localPath)
	}
	return r.remote.Sync(ctx, localPath, filepath.ToSlash(rel))
}

func (r *Router) removeFile(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		r.log.Warn("remove delivered file failed", zap.String("path", path), zap.Error(err))
	}
}

func bundleKindFor(kind notify.Kind) model.BundleType {
	if kind == notify.KindVideo {
		return model.BundleVideo
	}
	return model.BundleTrack
}

func trackCaption(item *model.MediaItem) string {
	return fmt.Sprintf("🎵 %s\n👤 %s\n🎧 %s", item.Title, item.Artist, source.Provider)
}

func videoCaption(item *model.MediaItem) string {
	return fmt.Sprintf("🎬 %s\n👤 %s\n🎧 %s Music Video", item.Title, item.Artist, source.Provider)
}

func albumCaption(b *model.Bundle) string {
	return fmt.Sprintf("💿 %s\n👤 %s\n🎧 %s", b.Title, b.Artist, source.Provider)
}

func playlistCaption(b *model.Bundle) string {
	artist := b.Artist
	if artist == "" {
		artist = "Various Artists"
	}
	return fmt.Sprintf("🎵 %s\n👤 Curated by %s\n🎧 %s Playlist", b.Title, artist, source.Provider)
}

func artistCaption(b *model.Bundle) string {
	return fmt.Sprintf("🎤 %s\n🎧 %s Discography", b.Title, source.Provider)
}

func withLinks(caption, share, index string) string {
	text := caption
	if share != "" {
		text += "\n🔗 " + share
	}
	if index != "" {
		text += "\n📁 " + index
	}
	return text
}
