package storage

import (
	"context"
	"sync"

	"github.com/rqhall/cowchain-farm/internal/port"
)

type memoryRecord struct {
	value       []byte
	deadline    uint64
	hasDeadline bool
}

// MemoryStore is a tick-driven store with an explicit per-record countdown
// and an eviction check on every read. Unlike the Redis adapter it keeps
// "never existed" and "lapsed" distinguishable: a lapsed record reads as
// ErrExpired exactly once, then becomes ErrNotFound.
type MemoryStore struct {
	mu      sync.Mutex
	clock   port.Clock
	records map[string]memoryRecord
}

func NewMemoryStore(clock port.Clock) *MemoryStore {
	return &MemoryStore{
		clock:   clock,
		records: make(map[string]memoryRecord),
	}
}

func (m *MemoryStore) Has(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[key]
	if !ok {
		return false, nil
	}
	if m.lapsed(rec) {
		delete(m.records, key)
		return false, nil
	}
	return true, nil
}

func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[key]
	if !ok {
		return nil, port.ErrNotFound
	}
	if m.lapsed(rec) {
		delete(m.records, key)
		return nil, port.ErrExpired
	}
	return rec.value, nil
}

func (m *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[key]
	if ok && m.lapsed(rec) {
		rec = memoryRecord{}
	}
	rec.value = value
	m.records[key] = rec
	return nil
}

func (m *MemoryStore) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, key)
	return nil
}

func (m *MemoryStore) RenewLifetime(ctx context.Context, key string, ticks uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[key]
	if !ok || m.lapsed(rec) {
		// Renewing a missing or lapsed record is a no-op, matching the
		// Redis adapter's EXPIRE on a missing key.
		return nil
	}
	rec.deadline = m.clock.Now() + ticks
	rec.hasDeadline = true
	m.records[key] = rec
	return nil
}

func (m *MemoryStore) lapsed(rec memoryRecord) bool {
	return rec.hasDeadline && m.clock.Now() > rec.deadline
}
