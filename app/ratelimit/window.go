package ratelimit

import (
	"hash/crc32"
	"time"
)

// expirationFudge extends counter TTLs slightly past their logical window so
// that a key never expires a moment before the next window's first increment.
const expirationFudge = 5 * time.Second

// windowEnd returns the end of the current fixed counting window for the
// identifier, at second granularity.
//
// Subtracting (now mod period) gives a consistent edge from the epoch.
// Adding (crc32(identifier) mod period) jitters that edge per identifier so
// the windows of all identifiers sharing a period do not end at the same
// instant. The result is deterministic for a given (identifier, period)
// within one period, and never behind now.
func windowEnd(identifier string, period time.Duration, now time.Time) time.Time {
	var (
		epoch   = now.Unix()
		seconds = int64(period / time.Second)
	)

	if seconds == 1 {
		return time.Unix(epoch, 0)
	}

	jitter := int64(crc32.ChecksumIEEE([]byte(identifier))) % seconds

	w := epoch - epoch%seconds + jitter
	if w < epoch {
		w += seconds
	}

	return time.Unix(w, 0)
}
