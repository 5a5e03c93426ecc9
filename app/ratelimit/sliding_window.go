package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rateguard/rateguard/store"
)

// SlidingWindow counts requests over a window that moves with the current
// time. Each request is recorded as a "<timestampMs>:<weight>" member in a
// sorted set scored by its millisecond timestamp.
//
// Pruning and counting deliberately use different horizons. The set keeps
// entries for up to 100 periods; that bounds storage growth while tolerating
// clock skew, but it is not the enforcement window. The returned Count only
// sums entries younger than one period.
type SlidingWindow struct {
	store    store.Transactor
	rate     Rate
	prefix   string
	recorder Recorder
}

// retentionPeriods is the storage-hygiene horizon, in multiples of the
// configured period.
const retentionPeriods = 100

var _ Strategy = (*SlidingWindow)(nil)

func NewSlidingWindow(s store.Transactor, rate string, opts ...Option) (*SlidingWindow, error) {
	r, o, err := newStrategyOptions(rate, opts)
	if err != nil {
		return nil, err
	}

	return &SlidingWindow{store: s, rate: r, prefix: o.prefix, recorder: o.recorder}, nil
}

func (s *SlidingWindow) Evaluate(ctx context.Context, identifier string, now time.Time) (status Status, err error) {
	defer func(start time.Time) {
		record(s.recorder, "sliding_window", start, status, err)
	}(time.Now())

	var (
		key     = s.prefix + identifier
		nowMs   = now.UnixMilli()
		seconds = s.rate.seconds()
		horizon = nowMs - seconds*retentionPeriods*1000
	)

	results, err := s.store.Transact(ctx, func(tx store.Tx) {
		tx.ZRemRangeByScore(key, 0, horizon)
		tx.ZAdd(key, nowMs, fmt.Sprintf("%d:1", nowMs))
		tx.ZRange(key)
		tx.Expire(key, time.Duration(seconds*1000+1)*time.Second)
	})
	if err != nil {
		return Status{}, fmt.Errorf("sliding window evaluation for key %q failed: %w", key, err)
	}

	if len(results) != 4 {
		return Status{}, fmt.Errorf("%w: got %d results, want 4", ErrUnexpectedReply, len(results))
	}

	members, ok := results[2].([]string)
	if !ok {
		return Status{}, fmt.Errorf("%w: range reply is %T", ErrUnexpectedReply, results[2])
	}

	return Status{
		Count:    sumWeights(members, nowMs-seconds*1000),
		Rate:     s.rate,
		TimeLeft: NoTimeLeft,
	}, nil
}

// sumWeights adds up the weight suffixes of all entries recorded after the
// cutoff. Entries that survive pruning but fall outside the enforcement
// window do not count; malformed entries are skipped.
func sumWeights(members []string, cutoffMs int64) int64 {
	var count int64

	for _, member := range members {
		stamp, weight, found := strings.Cut(member, ":")
		if !found {
			continue
		}

		ms, err := strconv.ParseInt(stamp, 10, 64)
		if err != nil || ms <= cutoffMs {
			continue
		}

		w, err := strconv.ParseInt(weight, 10, 64)
		if err != nil {
			continue
		}

		count += w
	}

	return count
}
