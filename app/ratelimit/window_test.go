package ratelimit

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWindowEnd_OneSecondPeriod(t *testing.T) {
	now := time.Unix(1700000123, 0)

	w := windowEnd("203.0.113.7", time.Second, now)
	assert.Equal(t, now.Unix(), w.Unix())
}

func TestWindowEnd_Deterministic(t *testing.T) {
	now := time.Unix(1700000123, 0)

	first := windowEnd("203.0.113.7", 60*time.Second, now)

	for i := 0; i < 10; i++ {
		assert.Equal(t, first, windowEnd("203.0.113.7", 60*time.Second, now))
	}
}

func TestWindowEnd_StableWithinPeriod(t *testing.T) {
	var (
		period = 60 * time.Second
		now    = time.Unix(1700000000, 0)
		first  = windowEnd("203.0.113.7", period, now)
	)

	// Any instant before the window end resolves to the same window.
	for sec := now.Unix(); sec <= first.Unix(); sec++ {
		w := windowEnd("203.0.113.7", period, time.Unix(sec, 0))
		assert.Equal(t, first.Unix(), w.Unix(), "at %d", sec)
	}
}

func TestWindowEnd_NeverBehindNow(t *testing.T) {
	for i := 0; i < 1000; i++ {
		var (
			identifier = fmt.Sprintf("client-%d", i)
			now        = time.Unix(1700000000+int64(i*7), 0)
			w          = windowEnd(identifier, 60*time.Second, now)
		)

		assert.False(t, w.Before(now), "window end %v behind now %v for %s", w, now, identifier)
		assert.Less(t, w.Unix()-now.Unix(), int64(60))
	}
}

func TestWindowEnd_MonotonicAdvance(t *testing.T) {
	var (
		period = 60 * time.Second
		now    = time.Unix(1700000000, 0)
		first  = windowEnd("203.0.113.7", period, now)
		next   = windowEnd("203.0.113.7", period, first.Add(time.Second))
	)

	// Crossing a window end advances by exactly one period.
	assert.Equal(t, first.Unix()+60, next.Unix())
}

func TestWindowEnd_JitterSpreadsIdentifiers(t *testing.T) {
	var (
		period = 60 * time.Second
		now    = time.Unix(1700000000, 0)
		seen   = make(map[int64]bool)
	)

	for i := 0; i < 100; i++ {
		w := windowEnd(fmt.Sprintf("client-%d", i), period, now)
		seen[w.Unix()] = true
	}

	// A shared window end would defeat the jitter entirely.
	assert.Greater(t, len(seen), 10)
}
