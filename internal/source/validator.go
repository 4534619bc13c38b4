// Package source recognizes and normalizes Apple Music URLs before any
// process is spawned on their behalf.
package source

import (
	"errors"
	"regexp"
)

// ErrInvalidSource is returned for URLs that do not match the accepted shape.
var ErrInvalidSource = errors.New("invalid source URL")

// Provider is the display name attached to captions and notices.
const Provider = "Apple Music"

// Content kind markers as they appear in the URL path.
const (
	MarkerAlbum    = "album"
	MarkerSong     = "song"
	MarkerPlaylist = "playlist"
	MarkerVideo    = "music-video"
	MarkerArtist   = "artist"
)

var (
	urlPattern = regexp.MustCompile(`^https://music\.apple\.com/[^/]+/(album|song|playlist|music-video|artist)/.+`)
	idPattern  = regexp.MustCompile(`/(album|song|playlist|music-video|artist)/[^/]+/(\d+)`)
)

// Validate reports whether url is a well-formed content URL: scheme, host and
// one of the known content kinds in the path.
func Validate(url string) bool {
	return urlPattern.MatchString(url)
}

// Check is Validate with the sentinel error, for callers that propagate.
func Check(url string) error {
	if !Validate(url) {
		return ErrInvalidSource
	}
	return nil
}

// ContentID extracts the numeric content identifier for logging and
// traceability. A missing identifier is tolerated and reported as "unknown".
func ContentID(url string) string {
	m := idPattern.FindStringSubmatch(url)
	if m == nil {
		return "unknown"
	}
	return m[2]
}
