package cache

import "time"

// Store is a minimal in-process keyed store with per-entry idle TTL.
type Store[V any] interface {
	Get(key string) (V, bool)
	Set(key string, v V, ttl time.Duration)
	Delete(key string)
	Len() int
	Sweep(onEvict func(key string, v V)) int
}
