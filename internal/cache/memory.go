package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Memory defaults.
const (
	DefaultMemorySize = 4096
	DefaultMemoryTTL  = 24 * time.Hour
)

// Memory is an in-process Cache used when no Redis is configured. It holds
// at most size entries, evicting the least recently used, and drops expired
// entries in the background.
type Memory struct {
	lru *expirable.LRU[string, memoryEntry]
	now func() time.Time
}

type memoryEntry struct {
	data    []byte
	expires time.Time // zero means the cache-wide TTL applies
}

// NewMemory creates a cache of at most size entries that live for ttl.
// Non-positive values fall back to the defaults.
func NewMemory(size int, ttl time.Duration) *Memory {
	if size <= 0 {
		size = DefaultMemorySize
	}
	if ttl <= 0 {
		ttl = DefaultMemoryTTL
	}
	return &Memory{
		lru: expirable.NewLRU[string, memoryEntry](size, nil, ttl),
		now: time.Now,
	}
}

// Len returns the number of live entries.
func (m *Memory) Len() int {
	return m.lru.Len()
}

func (m *Memory) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	e, ok := m.lru.Get(key)
	if !ok {
		return false, nil
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		m.lru.Remove(key)
		return false, nil
	}
	if err := json.Unmarshal(e.data, dst); err != nil {
		m.lru.Remove(key)
		return false, nil
	}
	return true, nil
}

// SetJSON stores val. A ttl shorter than the cache-wide TTL is honoured on
// read; longer ones are capped by it.
func (m *Memory) SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}

	e := memoryEntry{data: b}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.lru.Add(key, e)
	return nil
}

func (m *Memory) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		m.lru.Remove(k)
	}
	return nil
}
