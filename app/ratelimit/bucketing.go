package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rateguard/rateguard/store"
)

// Bucketing counts requests in fixed, per-identifier jittered windows.
// Because the window end is part of the storage key, a new window implicitly
// starts a fresh counter and the previous key ages out via its TTL.
type Bucketing struct {
	store    store.Transactor
	rate     Rate
	prefix   string
	recorder Recorder
}

var _ Strategy = (*Bucketing)(nil)

// NewBucketing parses rate and fails fast on a malformed value; no further
// configuration error can occur per request.
func NewBucketing(s store.Transactor, rate string, opts ...Option) (*Bucketing, error) {
	r, o, err := newStrategyOptions(rate, opts)
	if err != nil {
		return nil, err
	}

	return &Bucketing{store: s, rate: r, prefix: o.prefix, recorder: o.recorder}, nil
}

func (b *Bucketing) Evaluate(ctx context.Context, identifier string, now time.Time) (status Status, err error) {
	defer func(start time.Time) {
		record(b.recorder, "bucketing", start, status, err)
	}(time.Now())

	var (
		window = windowEnd(identifier, b.rate.Period, now)
		key    = storageKey(b.prefix, b.rate, identifier, strconv.FormatInt(window.Unix(), 10))
	)

	// Increment and expiry run as one atomic batch: no concurrent
	// evaluation can observe the counter without its TTL set.
	results, err := b.store.Transact(ctx, func(tx store.Tx) {
		tx.Incr(key)
		tx.Expire(key, b.rate.Period+expirationFudge)
	})
	if err != nil {
		return Status{}, fmt.Errorf("bucketing evaluation for key %q failed: %w", key, err)
	}

	if len(results) != 2 {
		return Status{}, fmt.Errorf("%w: got %d results, want 2", ErrUnexpectedReply, len(results))
	}

	count, ok := results[0].(int64)
	if !ok {
		return Status{}, fmt.Errorf("%w: counter reply is %T", ErrUnexpectedReply, results[0])
	}

	return Status{
		Count:    count,
		Rate:     b.rate,
		TimeLeft: window.Unix() - now.Unix(),
	}, nil
}
