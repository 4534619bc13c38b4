// Package signing produces HMAC signatures for expiring index links so a
// published link cannot be rewritten to reach another path.
package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
)

// Signer generates and validates path signatures.
type Signer struct {
	secret []byte
}

// NewSigner creates a Signer.
func NewSigner(secret []byte) *Signer {
	return &Signer{secret: secret}
}

// Sign returns the hex signature for a remote path and expiry.
func (s *Signer) Sign(remotePath string, expiresUnix int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s:%d", remotePath, expiresUnix)
	return hex.EncodeToString(mac.Sum(nil))
}

// Validate checks a signature in constant time.
func (s *Signer) Validate(remotePath, expires, signature string) bool {
	exp, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return false
	}
	expected := s.Sign(remotePath, exp)
	return hmac.Equal([]byte(expected), []byte(signature))
}
