package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	v   V
	ttl time.Duration
	exp time.Time
}

func (e *entry[V]) expired(now time.Time) bool {
	return !e.exp.IsZero() && now.After(e.exp)
}

// TTLCache keeps values until they go unread for their ttl. Every Get
// pushes the expiry forward.
type TTLCache[V any] struct {
	mu  sync.Mutex
	m   map[string]*entry[V]
	now func() time.Time
}

func NewTTLCache[V any]() *TTLCache[V] {
	return &TTLCache[V]{m: make(map[string]*entry[V]), now: time.Now}
}

func (c *TTLCache[V]) Get(key string) (V, bool) {
	var zero V
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.m[key]
	if !ok {
		return zero, false
	}
	now := c.now()
	if e.expired(now) {
		delete(c.m, key)
		return zero, false
	}
	if e.ttl > 0 {
		e.exp = now.Add(e.ttl)
	}
	return e.v, true
}

// Set stores v; a ttl <= 0 never expires.
func (c *TTLCache[V]) Set(key string, v V, ttl time.Duration) {
	e := &entry[V]{v: v, ttl: ttl}
	if ttl > 0 {
		e.exp = c.now().Add(ttl)
	}
	c.mu.Lock()
	c.m[key] = e
	c.mu.Unlock()
}

func (c *TTLCache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
}

// Len counts entries including ones that expired but were not swept yet.
func (c *TTLCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}

// Sweep removes expired entries and returns how many were dropped. onEvict
// runs outside the lock.
func (c *TTLCache[V]) Sweep(onEvict func(key string, v V)) int {
	now := c.now()
	type evicted struct {
		key string
		v   V
	}
	var gone []evicted

	c.mu.Lock()
	for k, e := range c.m {
		if e.expired(now) {
			delete(c.m, k)
			gone = append(gone, evicted{k, e.v})
		}
	}
	c.mu.Unlock()

	if onEvict != nil {
		for _, g := range gone {
			onEvict(g.key, g.v)
		}
	}
	return len(gone)
}

var _ Store[int] = (*TTLCache[int])(nil)
