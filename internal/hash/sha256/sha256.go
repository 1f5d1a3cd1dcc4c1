// Package sha256 provides SHA-256 hashing of fetched page bodies.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hasher computes hex SHA-256 digests for content addressing.
type Hasher struct{}

// New returns a SHA-256 hasher.
func New() *Hasher {
	return &Hasher{}
}

// Hash hashes the input and returns a hex digest.
func (h *Hasher) Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
