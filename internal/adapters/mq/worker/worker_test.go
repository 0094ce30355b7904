package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	worker "github.com/okian/terimu/internal/adapters/mq/worker"
	model "github.com/okian/terimu/internal/domain/model"
	logging "github.com/okian/terimu/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing.
type mockQueue struct {
	ch        chan model.Completion
	closeOnce sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{ch: make(chan model.Completion, 64)}
}

func (mq *mockQueue) Dequeue(context.Context) <-chan model.Completion { return mq.ch }

func (mq *mockQueue) Close() error {
	mq.closeOnce.Do(func() { close(mq.ch) })
	return nil
}

func (mq *mockQueue) add(id string) {
	mq.ch <- model.Completion{SessionID: id, StoryID: "te-rimu"}
}

type mockNotifier struct {
	mu        sync.Mutex
	delivered []string
	attempts  map[string]int
	failFirst int // failures before a session succeeds; -1 fails forever
}

func newMockNotifier(failFirst int) *mockNotifier {
	return &mockNotifier{attempts: make(map[string]int), failFirst: failFirst}
}

func (m *mockNotifier) Name() string { return "mock" }

func (m *mockNotifier) Notify(_ context.Context, c model.Completion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts[c.SessionID]++
	if m.failFirst < 0 || m.attempts[c.SessionID] <= m.failFirst {
		return errors.New("endpoint down")
	}
	m.delivered = append(m.delivered, c.SessionID)
	return nil
}

func (m *mockNotifier) deliveredCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.delivered)
}

func (m *mockNotifier) attemptsFor(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts[id]
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a new InMemoryWorker", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		convey.Convey("When a completion is delivered on the first try", func() {
			n := newMockNotifier(0)
			w := worker.NewInMemoryWorker(q, n, worker.WithName("w-1"))
			go w.Run(ctx)
			q.add("s1")

			convey.Convey("Then the notifier should receive it once", func() {
				convey.So(waitFor(func() bool { return n.deliveredCount() == 1 }), convey.ShouldBeTrue)
				convey.So(n.attemptsFor("s1"), convey.ShouldEqual, 1)
				convey.So(w.Shutdown(ctx), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the notifier fails twice and retries allow it", func() {
			n := newMockNotifier(2)
			w := worker.NewInMemoryWorker(q, n, worker.WithRetries(2), worker.WithBackoff(time.Millisecond))
			go w.Run(ctx)
			q.add("s1")

			convey.Convey("Then the third attempt should succeed", func() {
				convey.So(waitFor(func() bool { return n.deliveredCount() == 1 }), convey.ShouldBeTrue)
				convey.So(n.attemptsFor("s1"), convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When the notifier keeps failing", func() {
			n := newMockNotifier(-1)
			w := worker.NewInMemoryWorker(q, n, worker.WithRetries(1), worker.WithBackoff(time.Millisecond))
			go w.Run(ctx)
			q.add("s1")
			q.add("s2")

			convey.Convey("Then each completion gets retries+1 attempts and the worker moves on", func() {
				convey.So(waitFor(func() bool { return n.attemptsFor("s2") == 2 }), convey.ShouldBeTrue)
				convey.So(n.attemptsFor("s1"), convey.ShouldEqual, 2)
				convey.So(n.deliveredCount(), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When the queue channel is closed", func() {
			w := worker.NewInMemoryWorker(q, newMockNotifier(0))
			done := make(chan struct{})
			go func() {
				w.Run(ctx)
				close(done)
			}()
			_ = q.Close()

			convey.Convey("Then the worker should stop", func() {
				select {
				case <-done:
				case <-time.After(time.Second):
					t.Fatal("worker did not stop after queue close")
				}
			})
		})

		convey.Convey("When the context is cancelled", func() {
			w := worker.NewInMemoryWorker(q, newMockNotifier(0))
			go w.Run(ctx)
			cancel()

			convey.Convey("Then shutdown should return promptly", func() {
				sctx, scancel := context.WithTimeout(context.Background(), time.Second)
				defer scancel()
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
			})
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a worker pool", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		n := newMockNotifier(0)

		convey.Convey("When created with a non-positive count", func() {
			p := worker.NewPool(0, q, n)

			convey.Convey("Then it should fall back to a default size", func() {
				convey.So(p.Size(), convey.ShouldBeGreaterThan, 0)
			})
		})

		convey.Convey("When many completions are queued and the pool shuts down", func() {
			p := worker.NewPool(4, q, n, worker.WithRetries(0))
			p.Start(context.Background())
			for i := range 40 {
				q.add(fmt.Sprintf("s-%d", i))
			}

			err := p.Shutdown(context.Background())

			convey.Convey("Then every queued completion should be drained first", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(n.deliveredCount(), convey.ShouldEqual, 40)
			})
		})
	})
}
