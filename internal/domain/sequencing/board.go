package sequencing

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// Sentinel errors returned by NewBoard.
var (
	ErrNoItems       = errors.New("sequencing: no items")
	ErrDuplicateItem = errors.New("sequencing: duplicate item id")
)

// Shuffler randomizes the order of n elements using swap. *rand.Rand
// satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// globalShuffler uses the goroutine-safe top-level math/rand/v2 source.
type globalShuffler struct{}

func (globalShuffler) Shuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }

// Option applies a configuration option to a Board.
type Option func(*Board)

// WithShuffler sets the source used to scramble the pool.
func WithShuffler(s Shuffler) Option {
	return func(b *Board) {
		if s != nil {
			b.shuffler = s
		}
	}
}

// WithSeed makes pool shuffles reproducible. The resulting board must not be
// shared between goroutines.
func WithSeed(seed uint64) Option {
	return func(b *Board) {
		b.shuffler = rand.New(rand.NewPCG(seed, seed)) //nolint:gosec // game shuffle, not security sensitive
	}
}

// Board holds the correct order for one game and computes transitions.
// A Board has no mutable game state of its own.
type Board struct {
	correct  []Item
	shuffler Shuffler
}

// NewBoard creates a board for the given correct order.
func NewBoard(correct []Item, opts ...Option) (*Board, error) {
	if len(correct) == 0 {
		return nil, ErrNoItems
	}
	seen := make(map[ItemID]struct{}, len(correct))
	for _, it := range correct {
		if _, dup := seen[it.ID]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateItem, it.ID)
		}
		seen[it.ID] = struct{}{}
	}

	b := &Board{
		correct:  append([]Item(nil), correct...),
		shuffler: globalShuffler{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Size returns N, the number of slots and items.
func (b *Board) Size() int { return len(b.correct) }

// CorrectOrder returns a copy of the reference sequence.
func (b *Board) CorrectOrder() []Item {
	return append([]Item(nil), b.correct...)
}

// Initialize returns a fresh state: every item shuffled into the pool and all
// slots empty.
func (b *Board) Initialize() State {
	pool := append([]Item(nil), b.correct...)
	b.shuffler.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	return State{
		Slots:   make([]*Item, len(b.correct)),
		Pool:    pool,
		Status:  StatusInProgress,
		Verdict: VerdictNone,
	}
}

// Reset discards any arrangement and check result. It is Initialize under the
// name the game uses for its reset action.
func (b *Board) Reset() State { return b.Initialize() }
