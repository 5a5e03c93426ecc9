package ratelimit

import (
	"crypto/md5"
	"encoding/hex"
	"io"
)

// storageKey derives the storage key for a (rate, identifier, ...) tuple.
// The canonical rate text and every part feed a single md5 digest, so equal
// inputs always map to the same key and changing any one input changes it.
func storageKey(prefix string, rate Rate, parts ...string) string {
	h := md5.New()

	_, _ = io.WriteString(h, rate.String())

	for _, part := range parts {
		_, _ = io.WriteString(h, part)
	}

	return prefix + hex.EncodeToString(h.Sum(nil))
}
