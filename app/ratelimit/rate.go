package ratelimit

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Rate is the parsed form of a "<count>/<period><unit>" limit, e.g.
// "100/60s". Both fields are strictly positive and Period has whole-second
// granularity.
type Rate struct {
	MaxCount int64
	Period   time.Duration
}

// ErrMalformedRate is returned when a rate string cannot be parsed into a
// valid configuration. It only ever occurs at construction time.
var ErrMalformedRate = errors.New("malformed rate")

var periodUnits = map[string]time.Duration{
	"s": time.Second,
	"m": time.Minute,
	"h": time.Hour,
}

// ParseRate parses rates of the exact form "<positiveInt>/<positiveInt><unit>"
// where unit is one of "s", "m" or "h".
func ParseRate(rate string) (Rate, error) {
	count, period, found := strings.Cut(rate, "/")
	if !found {
		return Rate{}, fmt.Errorf("%w: %q is missing a period", ErrMalformedRate, rate)
	}

	maxCount, err := strconv.ParseInt(count, 10, 64)
	if err != nil {
		return Rate{}, fmt.Errorf("%w: invalid count in %q: %v", ErrMalformedRate, rate, err)
	}

	if maxCount <= 0 {
		return Rate{}, fmt.Errorf("%w: count must be positive in %q", ErrMalformedRate, rate)
	}

	if len(period) < 2 {
		return Rate{}, fmt.Errorf("%w: invalid period in %q", ErrMalformedRate, rate)
	}

	unit, ok := periodUnits[period[len(period)-1:]]
	if !ok {
		return Rate{}, fmt.Errorf("%w: unknown period unit in %q", ErrMalformedRate, rate)
	}

	length, err := strconv.ParseInt(period[:len(period)-1], 10, 64)
	if err != nil {
		return Rate{}, fmt.Errorf("%w: invalid period in %q: %v", ErrMalformedRate, rate, err)
	}

	if length <= 0 {
		return Rate{}, fmt.Errorf("%w: period must be positive in %q", ErrMalformedRate, rate)
	}

	return Rate{MaxCount: maxCount, Period: time.Duration(length) * unit}, nil
}

// String renders the canonical "<count>/<seconds>s" form. This exact text is
// part of the storage key preimage, so two Rates with equal counts and equal
// periods always hash identically regardless of the unit they were parsed
// from.
func (r Rate) String() string {
	return fmt.Sprintf("%d/%ds", r.MaxCount, r.seconds())
}

func (r Rate) seconds() int64 {
	return int64(r.Period / time.Second)
}
