package signing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSigner(t *testing.T) {
	s := NewSigner([]byte("topsecret"))

	sig := s.Sign("Some Album/01 - Intro.m4a", 1700000000)
	assert.NotEmpty(t, sig)

	assert.True(t, s.Validate("Some Album/01 - Intro.m4a", "1700000000", sig))
	assert.False(t, s.Validate("Other Album/01.m4a", "1700000000", sig))
	assert.False(t, s.Validate("Some Album/01 - Intro.m4a", "42", sig))
	assert.False(t, s.Validate("Some Album/01 - Intro.m4a", "not-a-number", sig))
}

func TestSignerSecretMatters(t *testing.T) {
	a := NewSigner([]byte("one"))
	b := NewSigner([]byte("two"))
	assert.NotEqual(t, a.Sign("p", 1), b.Sign("p", 1))
}
