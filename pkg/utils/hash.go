package utils

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint returns a short, fast, non-cryptographic digest of data.
// Used to detect unchanged graph snapshots and for ETags.
func Fingerprint(data []byte) string {
	return strconv.FormatUint(xxhash.Sum64(data), 16)
}
