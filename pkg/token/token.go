// Package token mints the opaque access tokens handed to patients. A token
// carries no claims; possession of it is the only authorization for the
// patient-facing consent submission.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// accessTokenBytes gives 128 bits of entropy, encoded as 32 hex characters.
const accessTokenBytes = 16

// AccessTokenLen is the length of an encoded access token.
const AccessTokenLen = accessTokenBytes * 2

// NewAccessToken returns a fresh patient access token. Uniqueness is not
// checked here; the store's unique constraint on the token column is the
// backstop, and callers retry with a new token on a collision.
func NewAccessToken() (string, error) {
	buf := make([]byte, accessTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
