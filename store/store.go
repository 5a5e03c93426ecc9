// Package store abstracts the shared key-value store used for distributed
// counting. All mutation happens through ordered batches executed as a single
// atomic unit, so concurrent processes can safely increment the same keys.
package store

import (
	"context"
	"time"
)

type (
	// Tx queues commands into an ordered batch. Commands take effect only
	// once the batch executes; results come back positionally from
	// Transactor.Transact, one entry per queued command.
	Tx interface {
		// Incr increments the integer counter at key by 1, creating it
		// at 1 if absent. Result: int64.
		Incr(key string)
		// Expire sets the key's time to live. Result: bool.
		Expire(key string, ttl time.Duration)
		// ZRemRangeByScore removes sorted set members with
		// min <= score <= max. Result: int64 (members removed).
		ZRemRangeByScore(key string, min, max int64)
		// ZAdd inserts a member with the given score. Result: int64.
		ZAdd(key string, score int64, member string)
		// ZRange reads back all members in score order.
		// Result: []string.
		ZRange(key string)
	}

	// Transactor executes a batch of commands atomically. The store
	// guarantees no other client's commands interleave within one batch;
	// whole batches from different clients may interleave freely.
	Transactor interface {
		Transact(ctx context.Context, fn func(Tx)) ([]interface{}, error)
	}
)
