package repository

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/okian/terimu/internal/domain/model"
	"github.com/okian/terimu/pkg/metrics"
)

// Sharded, in-memory Store implementation.
//
// A session lives in exactly one shard picked by xxhash of its id. All
// mutations of a session happen under that shard's write lock.

type shard struct {
	mu       sync.RWMutex
	sessions map[string]*model.Session
}

// MemStore keeps sessions in process memory.
type MemStore struct {
	shards                []*shard
	shardCount            int
	maxSessions           int
	count                 atomic.Int64
	ttl                   time.Duration
	janitorInterval       time.Duration
	metricsUpdateInterval time.Duration
	now                   func() time.Time
	onEvict               func(model.Session)

	wg        sync.WaitGroup
	stopChan  chan struct{}
	closeOnce sync.Once
}

// NewMemStore constructs the store and starts its janitor and metrics loops.
// Both loops stop when ctx is cancelled or Close is called.
func NewMemStore(ctx context.Context, opts ...Option) *MemStore {
	s := &MemStore{
		shardCount:            8,
		ttl:                   time.Hour,
		janitorInterval:       time.Minute,
		metricsUpdateInterval: 5 * time.Second,
		now:                   time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.shards = make([]*shard, s.shardCount)
	for i := range s.shards {
		s.shards[i] = &shard{sessions: make(map[string]*model.Session)}
	}

	s.stopChan = make(chan struct{})
	if s.ttl > 0 {
		s.every(ctx, s.janitorInterval, s.sweepIdle)
	}

	metrics.UpdateStoreShardCount(s.shardCount)
	s.every(ctx, s.metricsUpdateInterval, s.updateMetrics)

	return s
}

// every runs fn on a ticker until the store stops.
func (s *MemStore) every(ctx context.Context, interval time.Duration, fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
}

// Close stops the background loops.
func (s *MemStore) Close() error {
	s.closeOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

func (s *MemStore) shardFor(id string) *shard {
	return s.shards[xxhash.Sum64String(id)%uint64(len(s.shards))]
}

// Create implements Store.Create.
func (s *MemStore) Create(_ context.Context, sess *model.Session) error {
	if n := s.count.Add(1); s.maxSessions > 0 && n > int64(s.maxSessions) {
		s.count.Add(-1)
		return fmt.Errorf("%w: limit %d", ErrCapacity, s.maxSessions)
	}

	sh := s.shardFor(sess.ID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if _, ok := sh.sessions[sess.ID]; ok {
		s.count.Add(-1)
		return fmt.Errorf("%w: %s", ErrExists, sess.ID)
	}
	cp := *sess
	sh.sessions[sess.ID] = &cp
	return nil
}

// Get implements Store.Get.
func (s *MemStore) Get(_ context.Context, id string) (model.Session, error) {
	sh := s.shardFor(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	sess, ok := sh.sessions[id]
	if !ok {
		return model.Session{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return *sess, nil
}

// Update implements Store.Update.
func (s *MemStore) Update(_ context.Context, id string, fn func(*model.Session) error) (model.Session, error) {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sess, ok := sh.sessions[id]
	if !ok {
		return model.Session{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	cp := *sess
	if err := fn(&cp); err != nil {
		return *sess, err
	}
	*sess = cp
	return cp, nil
}

// Delete implements Store.Delete.
func (s *MemStore) Delete(_ context.Context, id string) error {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if _, ok := sh.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(sh.sessions, id)
	s.count.Add(-1)
	return nil
}

// Count implements Store.Count.
func (s *MemStore) Count(_ context.Context) int {
	return int(s.count.Load())
}

// Sweep implements Store.Sweep.
func (s *MemStore) Sweep(_ context.Context, idleBefore time.Time) []model.Session {
	var evicted []model.Session
	for _, sh := range s.shards {
		sh.mu.Lock()
		for id, sess := range sh.sessions {
			if sess.UpdatedAt.Before(idleBefore) {
				evicted = append(evicted, *sess)
				delete(sh.sessions, id)
				s.count.Add(-1)
			}
		}
		sh.mu.Unlock()
	}
	return evicted
}

func (s *MemStore) sweepIdle() {
	start := time.Now()
	evicted := s.Sweep(context.Background(), s.now().Add(-s.ttl))
	metrics.RecordStoreSweepDuration(float64(time.Since(start).Microseconds()) / 1000)

	if s.onEvict == nil {
		return
	}
	for _, sess := range evicted {
		s.onEvict(sess)
	}
}

func (s *MemStore) updateMetrics() {
	for i, sh := range s.shards {
		sh.mu.RLock()
		n := len(sh.sessions)
		sh.mu.RUnlock()
		metrics.UpdateStoreSessionsPerShard(strconv.Itoa(i), n)
	}
}
