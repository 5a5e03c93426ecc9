// Package ratelimit implements distributed request-rate enforcement on top
// of an atomic key-value store. Two strategies are provided: Bucketing
// (fixed windows with per-identifier jitter) and SlidingWindow (approximate
// sliding windows over a timestamped ledger). Strategies hold no mutable
// state of their own; every counter lives in the store, so any number of
// processes can evaluate the same identifier concurrently.
package ratelimit

import (
	"context"
	"errors"
	"time"
)

type (
	// Strategy evaluates a single request attributed to identifier at the
	// given time and reports the resulting rate-limit status. An exceeded
	// limit is a normal Status, never an error; errors mean the decision
	// could not be computed at all.
	Strategy interface {
		Evaluate(ctx context.Context, identifier string, now time.Time) (Status, error)
	}

	// Status is the outcome of one evaluation. It is a plain value; the
	// caller owns it and nothing mutates it afterwards.
	Status struct {
		// Count is the number of requests recorded in the current
		// window, including this one.
		Count int64
		// Rate is the configuration the evaluation ran under.
		Rate Rate
		// TimeLeft is the number of seconds until the current window
		// ends, or NoTimeLeft when the strategy cannot tell.
		TimeLeft int64
	}

	Option func(*options)

	options struct {
		prefix   string
		recorder Recorder
	}
)

// DefaultPrefix namespaces storage keys away from unrelated store usage.
const DefaultPrefix = "rl:"

// NoTimeLeft marks a Status whose window end is unknown or not applicable.
const NoTimeLeft int64 = -1

// ErrUnexpectedReply reports a store transaction whose positional results
// did not have the expected shape.
var ErrUnexpectedReply = errors.New("unexpected store reply")

func (s Status) Limit() int64 {
	return s.Rate.MaxCount
}

// Remaining may be negative once the limit has been exceeded.
func (s Status) Remaining() int64 {
	return s.Rate.MaxCount - s.Count
}

func (s Status) ShouldLimit() bool {
	return s.Count > s.Rate.MaxCount
}

// WithPrefix overrides the storage key namespace.
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// WithRecorder injects a metrics backend for decision counts and latency.
func WithRecorder(recorder Recorder) Option {
	return func(o *options) { o.recorder = recorder }
}

func newOptions(opts []Option) options {
	o := options{prefix: DefaultPrefix, recorder: &NoOpRecorder{}}

	for _, apply := range opts {
		apply(&o)
	}

	return o
}

func newStrategyOptions(rate string, opts []Option) (Rate, options, error) {
	r, err := ParseRate(rate)
	if err != nil {
		return Rate{}, options{}, err
	}

	return r, newOptions(opts), nil
}
