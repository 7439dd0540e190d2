package revocation

import (
	"context"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// Memory is an in-process denylist. The LRU evicts entries after maxTTL at
// the latest; each entry also remembers its own expiry so shorter-lived
// tokens drop out on time. When more than size tokens are revoked at once
// the oldest entries are evicted early and those tokens become usable again.
type Memory struct {
	cache   *lru.LRU[string, time.Time]
	now     func() time.Time
	onEvict func()
	closed  atomic.Bool
}

type MemoryOption func(*Memory)

// WithEvictionHook calls fn whenever a still-live revocation is pushed out
// of the cache to make room.
func WithEvictionHook(fn func()) MemoryOption {
	return func(m *Memory) { m.onEvict = fn }
}

// NewMemory returns a denylist holding at most size entries, none of them
// longer than maxTTL. A nil now means time.Now.
func NewMemory(size int, maxTTL time.Duration, now func() time.Time, opts ...MemoryOption) *Memory {
	if now == nil {
		now = time.Now
	}
	m := &Memory{now: now}
	for _, o := range opts {
		o(m)
	}
	m.cache = lru.NewLRU[string, time.Time](size, m.evicted, maxTTL)
	return m
}

func (m *Memory) evicted(_ string, until time.Time) {
	if m.onEvict == nil || m.closed.Load() || !until.After(m.now()) {
		return
	}
	m.onEvict()
}

func (m *Memory) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 || jti == "" {
		return nil
	}
	m.cache.Add(jti, m.now().Add(ttl))
	return nil
}

func (m *Memory) IsRevoked(_ context.Context, jti string) (bool, error) {
	until, ok := m.cache.Get(jti)
	if !ok {
		return false, nil
	}
	if !until.After(m.now()) {
		m.cache.Remove(jti)
		return false, nil
	}
	return true, nil
}

func (m *Memory) Close() error {
	m.closed.Store(true)
	m.cache.Purge()
	return nil
}
