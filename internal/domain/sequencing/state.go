// Package sequencing implements the story-sequencing board: a fixed row of
// timeline slots plus a pool of unplaced cards, moved around by drag gestures.
//
// Every operation is a pure function of a State value. Callers keep the latest
// State and feed gestures back into the Board; a State is never modified after
// it has been returned.
package sequencing

import "slices"

// ItemID identifies a story card.
type ItemID int

// Item is a single draggable card. Items are created once from the correct
// order and never change.
type Item struct {
	ID    ItemID `json:"id"`
	Text  string `json:"text"`
	Image string `json:"img"`
}

// Status is the coarse game state.
type Status int

const (
	// StatusInProgress is the default state; cards can be moved freely.
	StatusInProgress Status = iota
	// StatusCompleted is entered only when a completion check succeeds.
	StatusCompleted
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	default:
		return "in_progress"
	}
}

// MarshalText renders the status as its lowercase name.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Verdict is the outcome of the most recent completion check.
type Verdict int

const (
	// VerdictNone means no check has run since the last reset.
	VerdictNone Verdict = iota
	// VerdictIncomplete means at least one slot was empty.
	VerdictIncomplete
	// VerdictIncorrect means every slot was filled but the order was wrong.
	VerdictIncorrect
	// VerdictSuccess means the slots matched the correct order exactly.
	VerdictSuccess
)

func (v Verdict) String() string {
	switch v {
	case VerdictIncomplete:
		return "incomplete"
	case VerdictIncorrect:
		return "incorrect"
	case VerdictSuccess:
		return "success"
	default:
		return "none"
	}
}

// MarshalText renders the verdict as its lowercase name.
func (v Verdict) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// State is one immutable snapshot of a board.
//
// Slots has a fixed length; a nil entry is an empty slot. Pool keeps display
// order, which carries no meaning for completion.
type State struct {
	Slots   []*Item
	Pool    []Item
	Status  Status
	Verdict Verdict
}

// Len returns the number of items on the board (slots filled plus pool).
func (s State) Len() int {
	return s.Filled() + len(s.Pool)
}

// Filled returns the number of occupied slots.
func (s State) Filled() int {
	n := 0
	for _, it := range s.Slots {
		if it != nil {
			n++
		}
	}
	return n
}

// SlotOf returns the slot index holding id, or -1.
func (s State) SlotOf(id ItemID) int {
	return slices.IndexFunc(s.Slots, func(it *Item) bool { return it != nil && it.ID == id })
}

// PoolIndexOf returns the pool index of id, or -1.
func (s State) PoolIndexOf(id ItemID) int {
	return slices.IndexFunc(s.Pool, func(it Item) bool { return it.ID == id })
}

// IDs returns every item id on the board: slot occupants left to right, then
// the pool in display order.
func (s State) IDs() []ItemID {
	ids := make([]ItemID, 0, s.Len())
	for _, it := range s.Slots {
		if it != nil {
			ids = append(ids, it.ID)
		}
	}
	for _, it := range s.Pool {
		ids = append(ids, it.ID)
	}
	return ids
}

// clone copies the slot and pool slices so the receiver stays untouched.
func (s State) clone() State {
	out := State{
		Slots:   make([]*Item, len(s.Slots)),
		Pool:    make([]Item, len(s.Pool)),
		Status:  s.Status,
		Verdict: s.Verdict,
	}
	copy(out.Slots, s.Slots)
	copy(out.Pool, s.Pool)
	return out
}
