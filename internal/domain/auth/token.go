package auth

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashToken hashes opaque session and reset tokens before storage so a
// leaked table cannot be replayed.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
