// Package sha256 fingerprints act content so unchanged documents can be
// recognized across harvest runs.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hasher implements eurlex.Hasher with SHA-256 hex digests.
type Hasher struct{}

// New returns a SHA-256 content hasher.
func New() *Hasher {
	return &Hasher{}
}

// Hash returns the hex digest of data. The digest is stored on the act as
// ContentHash.
func (h *Hasher) Hash(data []byte) (string, error) {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
