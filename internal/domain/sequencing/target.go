package sequencing

import (
	"strconv"
	"strings"
)

// TargetKind distinguishes what a card was dropped onto.
type TargetKind int

const (
	// TargetNone is a cancelled drop or a drop outside any container.
	TargetNone TargetKind = iota
	// TargetSlot is a timeline slot.
	TargetSlot
	// TargetPool is the card pool.
	TargetPool
	// TargetItem is another card, wherever it currently sits.
	TargetItem
)

// Target describes where a drag ended.
type Target struct {
	Kind TargetKind
	Slot int
	Item ItemID
}

// Descriptor prefixes understood by ParseTarget.
const (
	slotPrefix    = "slot-"
	itemPrefix    = "item-"
	poolName      = "pool"
	poolAliasName = "card-pool"
)

// NoTarget returns the descriptor for a cancelled drop.
func NoTarget() Target { return Target{Kind: TargetNone} }

// SlotTarget returns the descriptor for slot i (0-based).
func SlotTarget(i int) Target { return Target{Kind: TargetSlot, Slot: i} }

// PoolTarget returns the descriptor for the card pool.
func PoolTarget() Target { return Target{Kind: TargetPool} }

// ItemTarget returns the descriptor for dropping onto card id.
func ItemTarget(id ItemID) Target { return Target{Kind: TargetItem, Item: id} }

// ParseTarget reads a textual drop descriptor: "slot-<n>", "pool" (or
// "card-pool"), "item-<id>" or a bare card id. Anything else yields NoTarget.
func ParseTarget(s string) Target {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == poolName || s == poolAliasName:
		return PoolTarget()
	case strings.HasPrefix(s, slotPrefix):
		n, err := strconv.Atoi(strings.TrimPrefix(s, slotPrefix))
		if err != nil || n < 0 {
			return NoTarget()
		}
		return SlotTarget(n)
	case strings.HasPrefix(s, itemPrefix):
		s = strings.TrimPrefix(s, itemPrefix)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return NoTarget()
	}
	return ItemTarget(ItemID(n))
}

// String renders the descriptor in the form ParseTarget accepts.
func (t Target) String() string {
	switch t.Kind {
	case TargetSlot:
		return slotPrefix + strconv.Itoa(t.Slot)
	case TargetPool:
		return poolName
	case TargetItem:
		return itemPrefix + strconv.Itoa(int(t.Item))
	default:
		return "none"
	}
}
