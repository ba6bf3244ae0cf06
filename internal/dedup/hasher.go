package dedup

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"mirror/internal/constants"
)

// Hasher turns a fingerprint into the key stored in the cache.
type Hasher struct {
	algorithm string
}

func NewHasher(algorithm string) *Hasher {
	return &Hasher{algorithm: strings.ToLower(algorithm)}
}

// Key returns the fingerprint unchanged for "none" (the default), otherwise
// its hex digest.
func (h *Hasher) Key(fingerprint string) string {
	switch h.algorithm {
	case constants.HashSHA256:
		sum := sha256.Sum256([]byte(fingerprint))
		return hex.EncodeToString(sum[:])
	case constants.HashMD5:
		sum := md5.Sum([]byte(fingerprint))
		return hex.EncodeToString(sum[:])
	default:
		return fingerprint
	}
}
