package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRate(t *testing.T) {
	cases := []struct {
		rate     string
		maxCount int64
		period   time.Duration
	}{
		{"100/60s", 100, 60 * time.Second},
		{"1/1s", 1, time.Second},
		{"5/2m", 5, 2 * time.Minute},
		{"1000/1h", 1000, time.Hour},
	}

	for _, c := range cases {
		t.Run(c.rate, func(t *testing.T) {
			r, err := ParseRate(c.rate)
			require.NoError(t, err)
			assert.Equal(t, c.maxCount, r.MaxCount)
			assert.Equal(t, c.period, r.Period)
		})
	}
}

func TestParseRate_Idempotent(t *testing.T) {
	first, err := ParseRate("100/60s")
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		r, err := ParseRate("100/60s")
		require.NoError(t, err)
		assert.Equal(t, first, r)
	}
}

func TestParseRate_Malformed(t *testing.T) {
	for _, rate := range []string{
		"",
		"abc",
		"100",
		"/60s",
		"100/",
		"100/s",
		"100/60",
		"100/60x",
		"0/60s",
		"-5/10s",
		"10/0s",
		"10/-5s",
		"1.5/60s",
	} {
		t.Run(rate, func(t *testing.T) {
			_, err := ParseRate(rate)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedRate)
		})
	}
}

func TestRate_String(t *testing.T) {
	r, err := ParseRate("100/60s")
	require.NoError(t, err)
	assert.Equal(t, "100/60s", r.String())

	// Minutes normalize to seconds in the canonical form.
	r, err = ParseRate("5/2m")
	require.NoError(t, err)
	assert.Equal(t, "5/120s", r.String())
}
