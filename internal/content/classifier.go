// Package content decides which content shape a finished download represents
// and assembles the typed bundle submitted to delivery.
package content

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/tunedrop/tunedrop/internal/model"
	"github.com/tunedrop/tunedrop/internal/source"
)

// ErrNoMediaFound marks a run that exited cleanly but produced nothing
// usable. It is distinct from an acquisition failure.
var ErrNoMediaFound = errors.New("no media files found in workspace")

// Classify maps (URL shape, item set) to a bundle. Decision order, first
// match wins: music-video marker, playlist marker, artist marker, then album
// when more than one item was found, else track.
func Classify(url, folder string, items []*model.MediaItem) (*model.Bundle, error) {
	if len(items) == 0 {
		return nil, ErrNoMediaFound
	}

	first := items[0]
	switch {
	case hasMarker(url, source.MarkerVideo):
		return &model.Bundle{
			Type:       model.BundleVideo,
			Title:      first.Title,
			Artist:     first.Artist,
			FolderPath: folder,
			Item:       first,
		}, nil
	case hasMarker(url, source.MarkerPlaylist):
		return collection(model.BundlePlaylist, folder, items), nil
	case hasMarker(url, source.MarkerArtist):
		bundle := collection(model.BundleArtist, folder, items)
		bundle.Title = first.Artist
		bundle.Children = groupAlbums(items)
		return bundle, nil
	case len(items) > 1:
		return collection(model.BundleAlbum, folder, items), nil
	default:
		return &model.Bundle{
			Type:       model.BundleTrack,
			Title:      first.Title,
			Artist:     first.Artist,
			FolderPath: folder,
			Item:       first,
		}, nil
	}
}

func hasMarker(url, marker string) bool {
	return strings.Contains(url, "/"+marker+"/")
}

// collection builds a multi-item bundle. The album tag of the first item is
// preferred over its title for the bundle name.
func collection(typ model.BundleType, folder string, items []*model.MediaItem) *model.Bundle {
	first := items[0]
	title := first.Album
	if title == "" {
		title = first.Title
	}
	return &model.Bundle{
		Type:       typ,
		Title:      title,
		Artist:     first.Artist,
		FolderPath: folder,
		Items:      items,
	}
}

// groupAlbums splits an artist discography into album sub-bundles, keeping
// the order albums first appear in the item list.
func groupAlbums(items []*model.MediaItem) []*model.Bundle {
	var order []string
	grouped := make(map[string][]*model.MediaItem)
	for _, item := range items {
		if _, seen := grouped[item.Album]; !seen {
			order = append(order, item.Album)
		}
		grouped[item.Album] = append(grouped[item.Album], item)
	}

	albums := make([]*model.Bundle, 0, len(order))
	for _, name := range order {
		group := grouped[name]
		albums = append(albums, &model.Bundle{
			Type:       model.BundleAlbum,
			Title:      name,
			Artist:     group[0].Artist,
			FolderPath: filepath.Dir(group[0].FilePath),
			Items:      group,
		})
	}
	return albums
}
