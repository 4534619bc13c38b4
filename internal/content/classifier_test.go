package content

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunedrop/tunedrop/internal/model"
)

func audioItems(n int) []*model.MediaItem {
	items := make([]*model.MediaItem, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, &model.MediaItem{
			FilePath: fmt.Sprintf("/work/Album/%02d - Song.m4a", i+1),
			Title:    fmt.Sprintf("Song %d", i+1),
			Artist:   "Some Artist",
			Album:    "Some Album",
			Kind:     model.KindAudio,
		})
	}
	return items
}

func TestClassifyZeroItems(t *testing.T) {
	_, err := Classify("https://music.apple.com/us/album/x/1", "/work", nil)
	assert.ErrorIs(t, err, ErrNoMediaFound)
}

func TestClassifyDecisionOrder(t *testing.T) {
	cases := []struct {
		url   string
		count int
		want  model.BundleType
	}{
		{"https://music.apple.com/us/music-video/bad/401135199", 1, model.BundleVideo},
		{"https://music.apple.com/us/playlist/mix/pl.123", 5, model.BundlePlaylist},
		{"https://music.apple.com/us/playlist/mix/pl.123", 1, model.BundlePlaylist},
		{"https://music.apple.com/us/artist/queen/3296287", 12, model.BundleArtist},
		{"https://music.apple.com/us/album/night/1", 2, model.BundleAlbum},
		{"https://music.apple.com/us/album/night/1", 1, model.BundleTrack},
		{"https://music.apple.com/us/song/single/9", 1, model.BundleTrack},
	}
	for _, tc := range cases {
		bundle, err := Classify(tc.url, "/work", audioItems(tc.count))
		require.NoError(t, err, tc.url)
		assert.Equal(t, tc.want, bundle.Type, "%s with %d items", tc.url, tc.count)
	}
}

func TestClassifyTrackCarriesSingleItem(t *testing.T) {
	items := audioItems(1)
	bundle, err := Classify("https://music.apple.com/us/album/night/1", "/work", items)
	require.NoError(t, err)

	assert.Same(t, items[0], bundle.Item)
	assert.Empty(t, bundle.Items)
	assert.Equal(t, "Song 1", bundle.Title)
	assert.Equal(t, "/work", bundle.FolderPath)
}

func TestClassifyAlbumPrefersAlbumTag(t *testing.T) {
	bundle, err := Classify("https://music.apple.com/us/album/night/1", "/work", audioItems(3))
	require.NoError(t, err)

	assert.Equal(t, "Some Album", bundle.Title)
	assert.Equal(t, "Some Artist", bundle.Artist)
	assert.Len(t, bundle.Items, 3)
}

func TestClassifyArtistGroupsAlbums(t *testing.T) {
	items := []*model.MediaItem{
		{FilePath: "/work/A Night at the Opera/01.m4a", Title: "Death on Two Legs", Artist: "Queen", Album: "A Night at the Opera"},
		{FilePath: "/work/A Night at the Opera/02.m4a", Title: "Lazing", Artist: "Queen", Album: "A Night at the Opera"},
		{FilePath: "/work/News of the World/01.m4a", Title: "We Will Rock You", Artist: "Queen", Album: "News of the World"},
	}
	bundle, err := Classify("https://music.apple.com/us/artist/queen/3296287", "/work", items)
	require.NoError(t, err)

	assert.Equal(t, "Queen", bundle.Title)
	require.Len(t, bundle.Children, 2)
	assert.Equal(t, "A Night at the Opera", bundle.Children[0].Title)
	assert.Len(t, bundle.Children[0].Items, 2)
	assert.Equal(t, "News of the World", bundle.Children[1].Title)
	assert.Equal(t, "/work/News of the World", bundle.Children[1].FolderPath)
}
