package model

// MediaKind separates audio tracks from music videos.
type MediaKind string

const (
	KindAudio MediaKind = "audio"
	KindVideo MediaKind = "video"
)

// MediaItem is one decoded media file. Title, Artist and Album are never
// empty; the extractor substitutes fallback values when tags are unreadable.
// Ownership of the underlying file passes to the delivery router, which
// removes it (and CoverPath, when set) after transmission.
type MediaItem struct {
	FilePath    string
	Title       string
	Artist      string
	Album       string
	Duration    int
	TrackNumber string
	Genre       string
	Date        string
	ISRC        string
	CoverPath   string
	Kind        MediaKind
}

// BundleType enumerates the classified content shapes.
type BundleType string

const (
	BundleTrack    BundleType = "track"
	BundleAlbum    BundleType = "album"
	BundlePlaylist BundleType = "playlist"
	BundleArtist   BundleType = "artist"
	BundleVideo    BundleType = "video"
)

// Bundle is the classified unit submitted to delivery. Track and video
// bundles carry their single item in Item; collections carry Items, and an
// artist bundle additionally groups its items into album Children. FolderPath
// is the job's workspace subtree backing the bundle; the job owns it, the
// router releases it once delivery completes.
type Bundle struct {
	Type       BundleType
	Title      string
	Artist     string
	FolderPath string
	Item       *MediaItem
	Items      []*MediaItem
	Children   []*Bundle
}

// Transport selects how finished content reaches the user.
type Transport string

const (
	TransportDirect Transport = "direct"
	TransportRemote Transport = "remote"
)

// DeliveryResult is the outcome of a transport attempt.
type DeliveryResult struct {
	Transport Transport `json:"transport"`
	Link      string    `json:"link,omitempty"`
	IndexLink string    `json:"indexLink,omitempty"`
	Delivered int       `json:"delivered"`
}
