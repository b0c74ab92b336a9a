package index

import (
	"crypto/sha256"
	"encoding/hex"
)

const fingerprintPrefix = "sha256:"

// Fingerprint returns a stable identifier for index file contents.
// The same bytes always yield the same fingerprint.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return fingerprintPrefix + hex.EncodeToString(sum[:])
}
