package sequencing

import "slices"

// Move names the transition a drop resolved to.
type Move int

const (
	// MoveNone leaves the state unchanged.
	MoveNone Move = iota
	// MovePlace puts a pool card into an empty slot.
	MovePlace
	// MoveDisplace puts a pool card into an occupied slot; the occupant goes
	// back to the end of the pool.
	MoveDisplace
	// MoveShift moves a slotted card into an empty slot.
	MoveShift
	// MoveSwap exchanges two slotted cards.
	MoveSwap
	// MoveReorder moves a pool card to another card's pool position.
	MoveReorder
	// MoveReturn sends a slotted card back to the end of the pool.
	MoveReturn
)

var moveNames = [...]string{
	MoveNone:     "none",
	MovePlace:    "place",
	MoveDisplace: "displace",
	MoveShift:    "shift",
	MoveSwap:     "swap",
	MoveReorder:  "reorder",
	MoveReturn:   "return",
}

func (m Move) String() string {
	if m < 0 || int(m) >= len(moveNames) {
		return "unknown"
	}
	return moveNames[m]
}

// MarshalText renders the move as its lowercase name.
func (m Move) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// Moves lists every transition, MoveNone first.
func Moves() []Move {
	return []Move{MoveNone, MovePlace, MoveDisplace, MoveShift, MoveSwap, MoveReorder, MoveReturn}
}

// location is where a card currently sits.
type location struct {
	inSlot bool
	index  int // slot index or pool index
}

func locate(s State, id ItemID) (location, bool) {
	if i := s.SlotOf(id); i >= 0 {
		return location{inSlot: true, index: i}, true
	}
	if i := s.PoolIndexOf(id); i >= 0 {
		return location{index: i}, true
	}
	return location{}, false
}

// plan is a classified drop: which move, from where, to which index.
type plan struct {
	move Move
	from location
	to   int
}

// classify resolves the dragged card and the target into a single move.
func classify(s State, dragged ItemID, t Target) plan {
	src, ok := locate(s, dragged)
	if !ok {
		return plan{}
	}

	switch t.Kind {
	case TargetSlot:
		if t.Slot < 0 || t.Slot >= len(s.Slots) {
			return plan{}
		}
		occupied := s.Slots[t.Slot] != nil
		switch {
		case !src.inSlot && !occupied:
			return plan{move: MovePlace, from: src, to: t.Slot}
		case !src.inSlot:
			return plan{move: MoveDisplace, from: src, to: t.Slot}
		case src.index == t.Slot:
			return plan{}
		case !occupied:
			return plan{move: MoveShift, from: src, to: t.Slot}
		default:
			return plan{move: MoveSwap, from: src, to: t.Slot}
		}

	case TargetPool:
		if !src.inSlot {
			return plan{}
		}
		return plan{move: MoveReturn, from: src}

	case TargetItem:
		if t.Item == dragged {
			return plan{}
		}
		dst, ok := locate(s, t.Item)
		if !ok {
			return plan{}
		}
		switch {
		case src.inSlot && dst.inSlot:
			return plan{move: MoveSwap, from: src, to: dst.index}
		case !src.inSlot && !dst.inSlot:
			return plan{move: MoveReorder, from: src, to: dst.index}
		}
		// A card dropped onto a card in the other container is ignored.
		return plan{}
	}

	return plan{}
}

// ApplyDrop applies a drag that ended on target. Unknown cards, unknown
// targets and cancelled drops return s unchanged with MoveNone.
func (b *Board) ApplyDrop(s State, dragged ItemID, target Target) (State, Move) {
	p := classify(s, dragged, target)
	if p.move == MoveNone {
		return s, MoveNone
	}

	next := s.clone()
	switch p.move {
	case MovePlace:
		card := next.Pool[p.from.index]
		next.Pool = slices.Delete(next.Pool, p.from.index, p.from.index+1)
		next.Slots[p.to] = &card

	case MoveDisplace:
		card := next.Pool[p.from.index]
		occupant := *next.Slots[p.to]
		next.Pool = slices.Delete(next.Pool, p.from.index, p.from.index+1)
		next.Pool = append(next.Pool, occupant)
		next.Slots[p.to] = &card

	case MoveShift:
		next.Slots[p.to] = next.Slots[p.from.index]
		next.Slots[p.from.index] = nil

	case MoveSwap:
		next.Slots[p.from.index], next.Slots[p.to] = next.Slots[p.to], next.Slots[p.from.index]

	case MoveReorder:
		card := next.Pool[p.from.index]
		next.Pool = slices.Delete(next.Pool, p.from.index, p.from.index+1)
		next.Pool = slices.Insert(next.Pool, p.to, card)

	case MoveReturn:
		next.Pool = append(next.Pool, *next.Slots[p.from.index])
		next.Slots[p.from.index] = nil
	}

	return next, p.move
}
