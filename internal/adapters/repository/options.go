package repository

import (
	"time"

	"github.com/okian/terimu/internal/domain/model"
)

// Option applies a configuration option to the MemStore.
type Option func(*MemStore)

// WithShardCount sets the number of independently locked shards.
func WithShardCount(n int) Option {
	return func(s *MemStore) {
		if n > 0 {
			s.shardCount = n
		}
	}
}

// WithMaxSessions caps open sessions; n <= 0 disables the cap.
func WithMaxSessions(n int) Option {
	return func(s *MemStore) {
		s.maxSessions = n
	}
}

// WithTTL sets how long a session may stay idle before the janitor removes it.
// A zero TTL disables the janitor.
func WithTTL(ttl time.Duration) Option {
	return func(s *MemStore) {
		if ttl >= 0 {
			s.ttl = ttl
		}
	}
}

// WithJanitorInterval sets how often idle sessions are swept.
func WithJanitorInterval(interval time.Duration) Option {
	return func(s *MemStore) {
		if interval > 0 {
			s.janitorInterval = interval
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *MemStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithEvictHook is called, outside any lock, for every session the janitor removes.
func WithEvictHook(fn func(model.Session)) Option {
	return func(s *MemStore) {
		s.onEvict = fn
	}
}
