package linkstore

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// tokenBytes is the width of the CSPRNG token, 128 bits, matching the
// original's secrets.token_urlsafe(16) in generate_token.py.
const tokenBytes = 16

// newToken returns a fresh 22-character URL-safe token. Collisions are
// not checked for explicitly; at 128 bits of entropy the birthday bound
// makes a collision check pure overhead (spec §4.2 note).
func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("linkstore: generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
