package sequencing

// Result is the answer to a completion check.
type Result struct {
	// Complete reports whether every slot was filled.
	Complete bool `json:"complete"`
	// Success reports whether the slots matched the correct order.
	Success bool    `json:"success"`
	Verdict Verdict `json:"verdict"`
}

// SlotMark is the per-slot display hint. It never affects completion.
type SlotMark int

const (
	// MarkEmpty is an unoccupied slot.
	MarkEmpty SlotMark = iota
	// MarkCorrect is a slot holding the card that belongs there.
	MarkCorrect
	// MarkMisplaced is a slot holding some other card.
	MarkMisplaced
)

func (m SlotMark) String() string {
	switch m {
	case MarkCorrect:
		return "correct"
	case MarkMisplaced:
		return "misplaced"
	default:
		return "empty"
	}
}

// MarshalText renders the mark as its lowercase name.
func (m SlotMark) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// Evaluate compares s against the correct order without changing anything.
func (b *Board) Evaluate(s State) Result {
	if len(s.Slots) != len(b.correct) || s.Filled() != len(b.correct) {
		return Result{Verdict: VerdictIncomplete}
	}
	for i, it := range s.Slots {
		if it.ID != b.correct[i].ID {
			return Result{Complete: true, Verdict: VerdictIncorrect}
		}
	}
	return Result{Complete: true, Success: true, Verdict: VerdictSuccess}
}

// CheckCompletion evaluates s and records the verdict. A successful check
// moves the game to StatusCompleted; any other verdict returns it to
// StatusInProgress.
func (b *Board) CheckCompletion(s State) (State, Result) {
	res := b.Evaluate(s)
	next := s.clone()
	next.Verdict = res.Verdict
	if res.Success {
		next.Status = StatusCompleted
	} else {
		next.Status = StatusInProgress
	}
	return next, res
}

// Marks flags each slot as empty, correct or misplaced.
func (b *Board) Marks(s State) []SlotMark {
	marks := make([]SlotMark, len(s.Slots))
	for i, it := range s.Slots {
		switch {
		case it == nil:
			marks[i] = MarkEmpty
		case i < len(b.correct) && it.ID == b.correct[i].ID:
			marks[i] = MarkCorrect
		default:
			marks[i] = MarkMisplaced
		}
	}
	return marks
}
