// Package service provides the story sequencing service behind the HTTP API.
//
// The service owns every open game. Each gesture is applied to the latest
// board state of its session under the session store's shard lock, so two
// gestures on one game never interleave.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	"github.com/okian/terimu/internal/adapters/mq/queue"
	"github.com/okian/terimu/internal/adapters/mq/worker"
	"github.com/okian/terimu/internal/adapters/notify"
	"github.com/okian/terimu/internal/adapters/repository"
	"github.com/okian/terimu/internal/domain/dedupe"
	"github.com/okian/terimu/internal/domain/model"
	"github.com/okian/terimu/internal/domain/sequencing"
	"github.com/okian/terimu/internal/domain/story"
	"github.com/okian/terimu/internal/domain/types"
	"github.com/okian/terimu/pkg/logger"
	"github.com/okian/terimu/pkg/metrics"
)

// DropCommand is one completed drag gesture.
type DropCommand struct {
	// GestureID is chosen by the client; a repeated id is not re-applied.
	GestureID string
	ItemID    sequencing.ItemID
	Target    sequencing.Target
}

// DropResult reports what a gesture did.
type DropResult struct {
	Move      sequencing.Move
	Duplicate bool
	Session   model.Session
}

// CheckResult is the outcome of a completion check with its localized message.
type CheckResult struct {
	sequencing.Result
	Message string
	Session model.Session
}

// Service implements the API dependencies for the sequencing game.
type Service struct {
	mu sync.RWMutex

	// Core components
	catalog     *story.Catalog
	sessions    repository.Store
	deduper     dedupe.Deduper
	completions queue.Queue
	notifier    worker.Notifier
	workerPool  *worker.Pool

	// Configuration
	workerCount     int
	queueSize       int
	dedupeSize      int
	shardCount      int
	maxSessions     int
	sessionTTL      time.Duration
	janitorInterval time.Duration
	notifyRetries   int
	defaultStory    string
	defaultLang     language.Tag
	shuffleSeed     uint64
	now             func() time.Time

	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of notification workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending completion notifications.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many gesture ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithShardCount sets the number of session store shards.
func WithShardCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.shardCount = count
		}
	}
}

// WithMaxSessions caps open games; n <= 0 means no cap.
func WithMaxSessions(n int) Option {
	return func(s *Service) {
		s.maxSessions = n
	}
}

// WithSessionTTL sets the idle time after which a game is discarded.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl >= 0 {
			s.sessionTTL = ttl
		}
	}
}

// WithJanitorInterval sets how often idle games are swept.
func WithJanitorInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.janitorInterval = interval
		}
	}
}

// WithNotifier sets where completions are delivered. Defaults to a log notifier.
func WithNotifier(n worker.Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithNotifyRetries sets the extra delivery attempts per completion.
func WithNotifyRetries(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.notifyRetries = n
		}
	}
}

// WithDefaultStory sets the story used when a request names none.
func WithDefaultStory(id string) Option {
	return func(s *Service) {
		if id != "" {
			s.defaultStory = id
		}
	}
}

// WithDefaultLang sets the language used when a request names none.
func WithDefaultLang(lang string) Option {
	return func(s *Service) {
		if tag, ok := story.ParseTag(lang); ok {
			s.defaultLang = tag
		}
	}
}

// WithShuffleSeed makes every new board shuffle deterministically. Zero keeps
// the shuffle random.
func WithShuffleSeed(seed uint64) Option {
	return func(s *Service) {
		s.shuffleSeed = seed
	}
}

// WithCatalog replaces the embedded story catalog.
func WithCatalog(c *story.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:     runtime.NumCPU(),
		queueSize:       1024,
		dedupeSize:      100_000,
		shardCount:      8,
		maxSessions:     10_000,
		sessionTTL:      time.Hour,
		janitorInterval: time.Minute,
		notifyRetries:   2,
		defaultStory:    "te-rimu",
		defaultLang:     story.DefaultTag(),
		now:             time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start builds the store, queue and worker pool and begins delivering
// completions. Background loops stop when ctx is cancelled or Stop is called.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	if s.catalog == nil {
		catalog, err := story.LoadEmbedded()
		if err != nil {
			return fmt.Errorf("load stories: %w", err)
		}
		s.catalog = catalog
	}
	if _, err := s.catalog.Story(s.defaultStory); err != nil {
		return fmt.Errorf("default story: %w", err)
	}

	s.logger.Info(ctx, "starting storybook service...")

	s.sessions = repository.NewMemStore(ctx,
		repository.WithShardCount(s.shardCount),
		repository.WithMaxSessions(s.maxSessions),
		repository.WithTTL(s.sessionTTL),
		repository.WithJanitorInterval(s.janitorInterval),
		repository.WithClock(s.now),
		repository.WithEvictHook(s.expired),
	)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.completions = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))

	if s.notifier == nil {
		s.notifier = notify.NewLogNotifier(s.logger.Named("notify"))
	}
	s.workerPool = worker.NewPool(s.workerCount, s.completions, s.notifier,
		worker.WithRetries(s.notifyRetries),
	)
	// Workers outlive ctx so Stop can drain completions queued while the
	// HTTP server finishes in-flight requests.
	s.workerPool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "storybook service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("shards", s.shardCount),
		logger.Int("maxSessions", s.maxSessions),
		logger.Duration("sessionTTL", s.sessionTTL),
		logger.String("notifier", s.notifier.Name()),
	)

	return nil
}

// Stop drains pending notifications and stops background loops.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping storybook service...")

	if s.workerPool != nil {
		if err := s.workerPool.Shutdown(ctx); err != nil {
			s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
		}
	}

	if closer, ok := s.sessions.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	s.started = false
	s.logger.Info(ctx, "storybook service stopped")
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// tagFor maps a requested language onto a supported one.
func (s *Service) tagFor(lang string) language.Tag {
	if tag, ok := story.ParseTag(lang); ok {
		return tag
	}
	return s.defaultLang
}

// CreateSession starts a game of storyID in lang. Empty arguments fall back
// to the configured defaults.
func (s *Service) CreateSession(ctx context.Context, storyID, lang string) (model.Session, error) {
	if err := s.ready(); err != nil {
		return model.Session{}, err
	}
	if storyID == "" {
		storyID = s.defaultStory
	}
	tag := s.tagFor(lang)

	items, err := s.catalog.Items(storyID, tag)
	if err != nil {
		return model.Session{}, err
	}

	var boardOpts []sequencing.Option
	if s.shuffleSeed != 0 {
		boardOpts = append(boardOpts, sequencing.WithSeed(s.shuffleSeed))
	}
	board, err := sequencing.NewBoard(items, boardOpts...)
	if err != nil {
		return model.Session{}, fmt.Errorf("story %s: %w", storyID, err)
	}

	now := s.now()
	sess := &model.Session{
		ID:        uuid.NewString(),
		StoryID:   storyID,
		Lang:      tag.String(),
		Board:     board,
		State:     board.Initialize(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.sessions.Create(ctx, sess); err != nil {
		if errors.Is(err, repository.ErrCapacity) {
			metrics.RecordSessionRejected()
			return model.Session{}, fmt.Errorf("%w (limit %d)", ErrCapacity, s.maxSessions)
		}
		return model.Session{}, err
	}

	metrics.RecordSessionCreated()
	s.logger.Debug(ctx, "session created",
		logger.String("session_id", sess.ID),
		logger.String("story_id", storyID),
		logger.String("lang", sess.Lang),
	)
	return *sess, nil
}

// Session returns the latest state of a game.
func (s *Service) Session(ctx context.Context, id string) (model.Session, error) {
	if err := s.ready(); err != nil {
		return model.Session{}, err
	}
	sess, err := s.sessions.Get(ctx, id)
	return sess, mapStoreErr(id, err)
}

// Drop applies a gesture to the latest board of session id. Invalid items
// and targets resolve to MoveNone rather than an error.
func (s *Service) Drop(ctx context.Context, id string, cmd DropCommand) (DropResult, error) {
	if err := s.ready(); err != nil {
		return DropResult{}, err
	}

	var key string
	if cmd.GestureID != "" {
		key = dedupe.Key(id, cmd.GestureID)
		if s.deduper.SeenAndRecord(ctx, key) {
			metrics.RecordGestureDuplicate()
			sess, err := s.sessions.Get(ctx, id)
			if err != nil {
				return DropResult{}, mapStoreErr(id, err)
			}
			s.logger.Debug(ctx, "duplicate gesture ignored",
				logger.String("session_id", id),
				logger.String("gesture_id", cmd.GestureID),
			)
			return DropResult{Move: sequencing.MoveNone, Duplicate: true, Session: sess}, nil
		}
	}

	var move sequencing.Move
	sess, err := s.sessions.Update(ctx, id, func(sess *model.Session) error {
		sess.State, move = sess.Board.ApplyDrop(sess.State, cmd.ItemID, cmd.Target)
		if move != sequencing.MoveNone {
			sess.Moves++
		}
		sess.Touch(s.now())
		return nil
	})
	if err != nil {
		if key != "" {
			s.deduper.Unrecord(ctx, key)
		}
		return DropResult{}, mapStoreErr(id, err)
	}

	metrics.RecordDrop(move.String())
	return DropResult{Move: move, Session: sess}, nil
}

// Check runs the completion check. The first check that moves a game into
// StatusCompleted queues a completion notification.
func (s *Service) Check(ctx context.Context, id string) (CheckResult, error) {
	if err := s.ready(); err != nil {
		return CheckResult{}, err
	}

	var (
		res       sequencing.Result
		completed bool
	)
	sess, err := s.sessions.Update(ctx, id, func(sess *model.Session) error {
		was := sess.Completed()
		sess.State, res = sess.Board.CheckCompletion(sess.State)
		now := s.now()
		if !was {
			sess.Attempts++
		}
		if res.Success && !was {
			sess.CompletedAt = now
			completed = true
		}
		sess.Touch(now)
		return nil
	})
	if err != nil {
		return CheckResult{}, mapStoreErr(id, err)
	}

	metrics.RecordCheck(res.Verdict.String())
	if completed {
		metrics.RecordCompletion(sess.StoryID, sess.Attempts)
		if !s.completions.Enqueue(ctx, model.CompletionOf(&sess)) {
			s.logger.Warn(ctx, "completion notification dropped",
				logger.String("session_id", sess.ID),
				logger.Int("queue_length", s.completions.Len(ctx)),
			)
		}
	}

	return CheckResult{Result: res, Message: s.message(sess, res.Verdict), Session: sess}, nil
}

func (s *Service) message(sess model.Session, v sequencing.Verdict) string {
	var key string
	switch v {
	case sequencing.VerdictIncomplete:
		key = story.MessageIncomplete
	case sequencing.VerdictIncorrect:
		key = story.MessageIncorrect
	case sequencing.VerdictSuccess:
		key = story.MessageSuccess
	default:
		return ""
	}
	st, err := s.catalog.Story(sess.StoryID)
	if err != nil {
		return ""
	}
	return st.Message(key, language.Make(sess.Lang))
}

// Reset reshuffles every card back into the pool and clears the verdict.
func (s *Service) Reset(ctx context.Context, id string) (model.Session, error) {
	if err := s.ready(); err != nil {
		return model.Session{}, err
	}
	sess, err := s.sessions.Update(ctx, id, func(sess *model.Session) error {
		sess.State = sess.Board.Reset()
		sess.Moves = 0
		sess.Attempts = 0
		sess.CompletedAt = time.Time{}
		sess.Touch(s.now())
		return nil
	})
	return sess, mapStoreErr(id, err)
}

// EndSession discards a game.
func (s *Service) EndSession(ctx context.Context, id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		return mapStoreErr(id, err)
	}
	metrics.RecordSessionEnded(metrics.EndReasonClosed)
	return nil
}

// ListStories returns the catalog localized to lang.
func (s *Service) ListStories(_ context.Context, lang string) []types.StoryView {
	s.mu.RLock()
	catalog := s.catalog
	s.mu.RUnlock()
	if catalog == nil {
		return nil
	}

	tag := s.tagFor(lang)
	stories := catalog.Stories()
	out := make([]types.StoryView, 0, len(stories))
	for _, st := range stories {
		out = append(out, types.StoryView{
			ID:     st.ID,
			Title:  st.Title.In(tag),
			Prompt: st.Prompt.In(tag),
			Cover:  st.Cover,
			Events: len(st.Events),
			Lang:   tag.String(),
		})
	}
	return out
}

// DefaultLang returns the language used when a request names none.
func (s *Service) DefaultLang() string {
	return s.defaultLang.String()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() types.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := types.Stats{
		Shards:      s.shardCount,
		MaxSessions: s.maxSessions,
		WorkerCount: s.workerCount,
		Running:     s.started,
	}
	if s.catalog != nil {
		stats.Stories = len(s.catalog.Stories())
	}

	if s.started {
		ctx := context.Background()
		stats.ActiveSessions = s.sessions.Count(ctx)
		stats.QueueLength = s.completions.Len(ctx)
		stats.QueueCapacity = s.completions.Cap()
		stats.DedupeSize = s.deduper.Size()
	}

	return stats
}

// expired is the store's eviction hook.
func (s *Service) expired(sess model.Session) {
	metrics.RecordSessionEnded(metrics.EndReasonExpired)
	s.logger.Debug(context.Background(), "session expired",
		logger.String("session_id", sess.ID),
		logger.Duration("idle", s.now().Sub(sess.UpdatedAt)),
	)
}

func mapStoreErr(id string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return err
}
