package remote

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunedrop/tunedrop/internal/signing"
)

func TestIndexLink(t *testing.T) {
	s := &Store{indexBase: "https://dl.example.com/files"}

	link := s.indexLink("Some Album/01 - Intro.m4a")

	assert.Equal(t, "https://dl.example.com/files/Some%20Album/01%20-%20Intro.m4a", link)
}

func TestIndexLinkWithoutBase(t *testing.T) {
	s := &Store{}
	assert.Empty(t, s.indexLink("whatever.m4a"))
}

func TestIndexLinkSigned(t *testing.T) {
	signer := signing.NewSigner([]byte("secret"))
	s := &Store{
		indexBase: "https://dl.example.com",
		signer:    signer,
		ttl:       time.Hour,
	}

	link := s.indexLink("Album/track.m4a")

	require.Contains(t, link, "https://dl.example.com/Album/track.m4a?e=")
	parts := strings.Split(link, "&s=")
	require.Len(t, parts, 2)
	expires := strings.Split(parts[0], "?e=")[1]
	assert.True(t, signer.Validate("Album/track.m4a", expires, parts[1]))
}

func TestObjectKey(t *testing.T) {
	s := &Store{root: "media"}
	assert.Equal(t, "media/Album/track.m4a", s.objectKey("/Album/track.m4a"))

	bare := &Store{}
	assert.Equal(t, "Album/track.m4a", bare.objectKey("Album/track.m4a"))
}
