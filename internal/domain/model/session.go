// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/okian/terimu/internal/domain/sequencing"
)

// Session is one player's game: the board for a story plus its latest state.
// Each session owns its Board. A seeded Board advances its random source on
// every Reset, so the board is only touched under the store's shard lock.
// State is replaced wholesale on every gesture.
type Session struct {
	ID        string
	StoryID   string
	Lang      string // matched BCP 47 tag, e.g. "mi"
	Board     *sequencing.Board
	State     sequencing.State
	Moves     int // drops that changed the board
	Attempts  int // completion checks since the last reset
	CreatedAt time.Time
	UpdatedAt time.Time
	// CompletedAt is the time of the latest check that moved the game into
	// StatusCompleted. Reset clears it.
	CompletedAt time.Time
}

// Completed reports whether the session has reached StatusCompleted.
func (s *Session) Completed() bool {
	return s.State.Status == sequencing.StatusCompleted
}

// Touch stamps the session as used at now.
func (s *Session) Touch(now time.Time) {
	s.UpdatedAt = now
}

// Completion is emitted each time a check moves a session from in progress
// to completed.
type Completion struct {
	SessionID   string    `json:"session_id"`
	StoryID     string    `json:"story_id"`
	Lang        string    `json:"lang"`
	CompletedAt time.Time `json:"completed_at"`
	Attempts    int       `json:"attempts"`
	Moves       int       `json:"moves"`
}

// CompletionOf builds the notification payload for a completed session.
func CompletionOf(s *Session) Completion {
	return Completion{
		SessionID:   s.ID,
		StoryID:     s.StoryID,
		Lang:        s.Lang,
		CompletedAt: s.CompletedAt,
		Attempts:    s.Attempts,
		Moves:       s.Moves,
	}
}
