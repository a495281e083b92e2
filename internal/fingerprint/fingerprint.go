// Package fingerprint computes stable content hashes used as secondary
// deduplication keys. The hash covers the raw URL string as delivered by the
// upstream source; no case folding or normalization is applied.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
)

// URLHash returns the lowercase hex SHA-256 digest of the raw URL string.
func URLHash(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}
