package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

type (
	// MemoryStore is an in-process Transactor with the same batch
	// semantics as RedisStore. State is local to the process, which makes
	// it suitable for tests and single-instance deployments only.
	MemoryStore struct {
		mu       sync.Mutex
		counters map[string]int64
		sets     map[string]map[string]int64
		expiry   map[string]time.Time
		now      func() time.Time
	}

	memoryTx struct {
		store   *MemoryStore
		results []interface{}
	}
)

var _ Transactor = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		counters: make(map[string]int64),
		sets:     make(map[string]map[string]int64),
		expiry:   make(map[string]time.Time),
		now:      time.Now,
	}
}

// SetClock overrides the time source used for key expiry. Tests use it to
// advance time without sleeping.
func (m *MemoryStore) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Transact runs the whole batch under one lock, so no other caller's
// commands can interleave within it.
func (m *MemoryStore) Transact(ctx context.Context, fn func(Tx)) ([]interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memoryTx{store: m}
	fn(tx)

	return tx.results, nil
}

func (m *MemoryStore) evict(key string) {
	if deadline, ok := m.expiry[key]; ok && m.now().After(deadline) {
		delete(m.counters, key)
		delete(m.sets, key)
		delete(m.expiry, key)
	}
}

func (t *memoryTx) Incr(key string) {
	t.store.evict(key)
	t.store.counters[key]++
	t.results = append(t.results, t.store.counters[key])
}

func (t *memoryTx) Expire(key string, ttl time.Duration) {
	_, hasCounter := t.store.counters[key]
	_, hasSet := t.store.sets[key]

	if !hasCounter && !hasSet {
		t.results = append(t.results, false)
		return
	}

	t.store.expiry[key] = t.store.now().Add(ttl)
	t.results = append(t.results, true)
}

func (t *memoryTx) ZRemRangeByScore(key string, min, max int64) {
	t.store.evict(key)

	var removed int64

	for member, score := range t.store.sets[key] {
		if score >= min && score <= max {
			delete(t.store.sets[key], member)
			removed++
		}
	}

	t.results = append(t.results, removed)
}

func (t *memoryTx) ZAdd(key string, score int64, member string) {
	t.store.evict(key)

	set, ok := t.store.sets[key]
	if !ok {
		set = make(map[string]int64)
		t.store.sets[key] = set
	}

	var added int64
	if _, exists := set[member]; !exists {
		added = 1
	}

	set[member] = score
	t.results = append(t.results, added)
}

func (t *memoryTx) ZRange(key string) {
	t.store.evict(key)

	set := t.store.sets[key]
	members := make([]string, 0, len(set))

	for member := range set {
		members = append(members, member)
	}

	sort.Slice(members, func(i, j int) bool {
		if set[members[i]] == set[members[j]] {
			return members[i] < members[j]
		}
		return set[members[i]] < set[members[j]]
	})

	t.results = append(t.results, members)
}
