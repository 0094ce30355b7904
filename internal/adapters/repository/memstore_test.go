package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/terimu/internal/domain/model"
)

func newSession(id string, at time.Time) *model.Session {
	return &model.Session{ID: id, StoryID: "te-rimu", Lang: "mi", CreatedAt: at, UpdatedAt: at}
}

// newTestStore disables the janitor so tests drive Sweep themselves.
func newTestStore(t *testing.T, opts ...Option) *MemStore {
	t.Helper()
	opts = append([]Option{WithTTL(0)}, opts...)
	s := NewMemStore(context.Background(), opts...)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestMemStore_BasicOperations(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	now := time.Now()

	if count := store.Count(ctx); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}

	if err := store.Create(ctx, newSession("a", now)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count := store.Count(ctx); count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}

	got, err := store.Get(ctx, "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "a" || got.StoryID != "te-rimu" {
		t.Errorf("unexpected session %+v", got)
	}

	if err := store.Create(ctx, newSession("a", now)); !errors.Is(err, ErrExists) {
		t.Errorf("expected ErrExists, got %v", err)
	}
	if count := store.Count(ctx); count != 1 {
		t.Errorf("duplicate create changed count to %d", count)
	}

	if err := store.Delete(ctx, "a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
	if count := store.Count(ctx); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}
}

func TestMemStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	_ = store.Create(ctx, newSession("a", time.Now()))

	got, _ := store.Get(ctx, "a")
	got.Moves = 99

	again, _ := store.Get(ctx, "a")
	if again.Moves != 0 {
		t.Errorf("mutating a returned copy leaked into the store: moves=%d", again.Moves)
	}
}

func TestMemStore_Update(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	_ = store.Create(ctx, newSession("a", time.Now()))

	updated, err := store.Update(ctx, "a", func(s *model.Session) error {
		s.Moves++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Moves != 1 {
		t.Errorf("expected moves 1, got %d", updated.Moves)
	}

	boom := errors.New("boom")
	kept, err := store.Update(ctx, "a", func(s *model.Session) error {
		s.Moves = 42
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected fn error, got %v", err)
	}
	if kept.Moves != 1 {
		t.Errorf("failed update should return the stored session, got moves=%d", kept.Moves)
	}
	if got, _ := store.Get(ctx, "a"); got.Moves != 1 {
		t.Errorf("failed update must not commit, got moves=%d", got.Moves)
	}

	if _, err := store.Update(ctx, "missing", func(*model.Session) error { return nil }); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemStore_Capacity(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, WithMaxSessions(2))
	now := time.Now()

	for _, id := range []string{"a", "b"} {
		if err := store.Create(ctx, newSession(id, now)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if err := store.Create(ctx, newSession("c", now)); !errors.Is(err, ErrCapacity) {
		t.Fatalf("expected ErrCapacity, got %v", err)
	}
	if count := store.Count(ctx); count != 2 {
		t.Errorf("rejected create changed count to %d", count)
	}

	_ = store.Delete(ctx, "a")
	if err := store.Create(ctx, newSession("c", now)); err != nil {
		t.Errorf("expected room after delete, got %v", err)
	}
}

func TestMemStore_Sweep(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, WithShardCount(4))
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	for i := range 10 {
		_ = store.Create(ctx, newSession(fmt.Sprintf("s-%d", i), base.Add(time.Duration(i)*time.Minute)))
	}

	evicted := store.Sweep(ctx, base.Add(5*time.Minute))
	if len(evicted) != 5 {
		t.Fatalf("expected 5 evicted, got %d", len(evicted))
	}
	for _, s := range evicted {
		if !s.UpdatedAt.Before(base.Add(5 * time.Minute)) {
			t.Errorf("evicted a fresh session %s", s.ID)
		}
	}
	if count := store.Count(ctx); count != 5 {
		t.Errorf("expected 5 remaining, got %d", count)
	}
	if _, err := store.Get(ctx, "s-5"); err != nil {
		t.Errorf("session at the cutoff should survive: %v", err)
	}
}

func TestMemStore_Janitor(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu      sync.Mutex
		evicted []string
	)
	now := time.Now()
	store := NewMemStore(ctx,
		WithTTL(time.Minute),
		WithJanitorInterval(10*time.Millisecond),
		WithClock(func() time.Time { return now }),
		WithEvictHook(func(s model.Session) {
			mu.Lock()
			evicted = append(evicted, s.ID)
			mu.Unlock()
		}),
	)
	defer func() { _ = store.Close() }()

	_ = store.Create(ctx, newSession("old", now.Add(-2*time.Minute)))
	_ = store.Create(ctx, newSession("new", now))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && store.Count(ctx) != 1 {
		time.Sleep(5 * time.Millisecond)
	}

	if count := store.Count(ctx); count != 1 {
		t.Fatalf("expected janitor to leave 1 session, got %d", count)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(evicted) != 1 || evicted[0] != "old" {
		t.Errorf("expected hook for [old], got %v", evicted)
	}
}

func TestMemStore_ConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, WithShardCount(2))
	_ = store.Create(ctx, newSession("a", time.Now()))

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 20 {
				_, _ = store.Update(ctx, "a", func(s *model.Session) error {
					s.Moves++
					return nil
				})
			}
		}()
	}
	wg.Wait()

	got, _ := store.Get(ctx, "a")
	if got.Moves != 1000 {
		t.Errorf("lost updates: expected 1000 moves, got %d", got.Moves)
	}
}

func TestMemStore_CloseIsIdempotent(t *testing.T) {
	store := NewMemStore(context.Background())
	if err := store.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("unexpected error on second close: %v", err)
	}
}
