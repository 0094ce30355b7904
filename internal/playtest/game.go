package playtest

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/go-cmp/cmp"

	"github.com/okian/terimu/internal/domain/types"
)

// Errors raised while playing a game.
var (
	ErrConservation = errors.New("card set changed")
	ErrUnexpected   = errors.New("unexpected move")
	ErrUnsolved     = errors.New("game not solved")
)

const markCorrect = "correct"

// game plays one session. It is not safe for concurrent use.
type game struct {
	client   *Client
	strategy Strategy

	sess    types.SessionView
	cards   []int
	last    types.DropRequest
	gesture int

	drops      int
	checks     int
	duplicates int
}

func newGame(client *Client, strategy Strategy) *game {
	return &game{client: client, strategy: strategy}
}

// play runs a full game: create, solve, replay, check and end.
func (g *game) play(ctx context.Context, storyID, lang string) (err error) {
	g.sess, err = g.client.CreateSession(ctx, storyID, lang)
	if err != nil {
		return err
	}
	defer func() {
		if endErr := g.client.End(ctx, g.sess.ID); endErr != nil && err == nil {
			err = endErr
		}
	}()

	g.cards = sortedIDs(g.sess)
	if len(g.sess.Pool) != len(g.sess.Slots) || g.sess.Status != "in_progress" {
		return fmt.Errorf("%w: new session %s is not a fresh board", ErrUnexpected, g.sess.ID)
	}

	check, err := g.check(ctx)
	if err != nil {
		return err
	}
	if check.Complete || check.Verdict != "incomplete" {
		return fmt.Errorf("%w: empty board checked as %s", ErrUnexpected, check.Verdict)
	}

	switch g.strategy {
	case StrategySwap:
		err = g.solveBySwapping(ctx)
	default:
		err = g.solveByPlacing(ctx)
	}
	if err != nil {
		return err
	}

	if err := g.replay(ctx); err != nil {
		return err
	}

	check, err = g.check(ctx)
	if err != nil {
		return err
	}
	if !check.Success || check.Session.Status != "completed" {
		return fmt.Errorf("%w: verdict %s", ErrUnsolved, check.Verdict)
	}
	return nil
}

// solveByPlacing fills slots left to right, cycling pool cards through each
// slot until it is marked correct. A displaced card returns to the end of
// the pool, so every candidate is tried at most once.
func (g *game) solveByPlacing(ctx context.Context) error {
	for i := range g.sess.Slots {
		target := fmt.Sprintf("slot-%d", i)
		for tries := 0; g.sess.Marks[i] != markCorrect; tries++ {
			if tries >= len(g.cards) || len(g.sess.Pool) == 0 {
				return fmt.Errorf("%w: no card fits slot %d", ErrUnsolved, i)
			}
			if _, err := g.drop(ctx, g.sess.Pool[0].ID, target, "place", "displace"); err != nil {
				return err
			}
		}
	}
	return nil
}

// solveBySwapping fills every slot in pool order, then repairs each slot by
// swapping in cards from later slots.
func (g *game) solveBySwapping(ctx context.Context) error {
	for i := range g.sess.Slots {
		if g.sess.Slots[i] != nil {
			continue
		}
		if _, err := g.drop(ctx, g.sess.Pool[0].ID, fmt.Sprintf("slot-%d", i), "place"); err != nil {
			return err
		}
	}

	check, err := g.check(ctx)
	if err != nil {
		return err
	}
	if !check.Complete {
		return fmt.Errorf("%w: full board checked as %s", ErrUnexpected, check.Verdict)
	}

	for i := range g.sess.Slots {
		target := fmt.Sprintf("slot-%d", i)
		for j := i + 1; g.sess.Marks[i] != markCorrect; j++ {
			if j >= len(g.sess.Slots) {
				return fmt.Errorf("%w: no card fits slot %d", ErrUnsolved, i)
			}
			if _, err := g.drop(ctx, g.sess.Slots[j].ID, target, "swap"); err != nil {
				return err
			}
		}
	}
	return nil
}

// replay resends the last gesture, which the server must ignore.
func (g *game) replay(ctx context.Context) error {
	if g.last.GestureID == "" {
		return nil
	}
	before := g.sess
	view, err := g.client.Drop(ctx, g.sess.ID, g.last)
	if err != nil {
		return err
	}
	if !view.Duplicate {
		return fmt.Errorf("%w: replayed gesture %s was applied again", ErrUnexpected, g.last.GestureID)
	}
	g.duplicates++
	if diff := cmp.Diff(before.Slots, view.Session.Slots); diff != "" {
		return fmt.Errorf("%w: replay changed the slots (-before +after):\n%s", ErrUnexpected, diff)
	}
	return nil
}

func (g *game) drop(ctx context.Context, itemID int, target string, want ...string) (types.DropView, error) {
	g.gesture++
	req := types.DropRequest{
		GestureID: fmt.Sprintf("%s-%d", g.sess.ID, g.gesture),
		ItemID:    itemID,
		Target:    target,
	}
	view, err := g.client.Drop(ctx, g.sess.ID, req)
	if err != nil {
		return view, err
	}
	g.drops++
	g.last = req

	if err := g.conserve(view.Session); err != nil {
		return view, err
	}
	if len(want) > 0 && !slices.Contains(want, view.Move) {
		return view, fmt.Errorf("%w: item %d to %s resolved to %s, want one of %v", ErrUnexpected, itemID, target, view.Move, want)
	}
	g.sess = view.Session
	return view, nil
}

func (g *game) check(ctx context.Context) (types.CheckView, error) {
	view, err := g.client.Check(ctx, g.sess.ID)
	if err != nil {
		return view, err
	}
	g.checks++
	if err := g.conserve(view.Session); err != nil {
		return view, err
	}
	g.sess = view.Session
	return view, nil
}

// conserve verifies that every card is still on the board exactly once.
func (g *game) conserve(v types.SessionView) error {
	if len(v.Slots) != len(g.cards) {
		return fmt.Errorf("%w: %d slots for %d cards", ErrConservation, len(v.Slots), len(g.cards))
	}
	if diff := cmp.Diff(g.cards, sortedIDs(v)); diff != "" {
		return fmt.Errorf("%w (-want +got):\n%s", ErrConservation, diff)
	}
	return nil
}

func sortedIDs(v types.SessionView) []int {
	ids := v.ItemIDs()
	slices.Sort(ids)
	return ids
}
