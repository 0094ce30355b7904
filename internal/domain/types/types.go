// Package types contains the JSON views shared by the HTTP API and its clients.
package types

import (
	"time"

	"github.com/okian/terimu/internal/domain/model"
	"github.com/okian/terimu/internal/domain/sequencing"
)

// ItemView is a card as rendered to a client.
type ItemView struct {
	ID    int    `json:"id"`
	Text  string `json:"text"`
	Image string `json:"img,omitempty"`
}

// SessionView is the full board a client needs to render a game.
// Slots always has the board's length; an empty slot is null.
type SessionView struct {
	ID        string      `json:"id"`
	StoryID   string      `json:"story_id"`
	Lang      string      `json:"lang"`
	Slots     []*ItemView `json:"slots"`
	Pool      []ItemView  `json:"pool"`
	Marks     []string    `json:"marks"`
	Status    string      `json:"status"`
	Verdict   string      `json:"verdict"`
	Moves     int         `json:"moves"`
	Attempts  int         `json:"attempts"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// CreateSessionRequest starts a game. Empty fields fall back to server defaults.
type CreateSessionRequest struct {
	StoryID string `json:"story_id,omitempty"`
	Lang    string `json:"lang,omitempty"`
}

// DropRequest is one completed drag gesture.
// Target uses the textual form "slot-N", "pool" or "item-N".
type DropRequest struct {
	GestureID string `json:"gesture_id,omitempty"`
	ItemID    int    `json:"item_id"`
	Target    string `json:"target"`
}

// DropView reports the move a gesture resolved to.
type DropView struct {
	Move      string      `json:"move"`
	Duplicate bool        `json:"duplicate"`
	Session   SessionView `json:"session"`
}

// CheckView is the outcome of a completion check.
type CheckView struct {
	Complete bool        `json:"complete"`
	Success  bool        `json:"success"`
	Verdict  string      `json:"verdict"`
	Message  string      `json:"message,omitempty"`
	Session  SessionView `json:"session"`
}

// StoryView is a catalog entry localized to the request language.
type StoryView struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Prompt string `json:"prompt,omitempty"`
	Cover  string `json:"cover,omitempty"`
	Events int    `json:"events"`
	Lang   string `json:"lang"`
}

// StoriesView wraps the catalog listing.
type StoriesView struct {
	Stories []StoryView `json:"stories"`
}

// Stats is the /stats payload.
type Stats struct {
	ActiveSessions int   `json:"active_sessions"`
	Shards         int   `json:"shards"`
	MaxSessions    int   `json:"max_sessions"`
	QueueLength    int   `json:"queue_length"`
	QueueCapacity  int   `json:"queue_capacity"`
	WorkerCount    int   `json:"worker_count"`
	DedupeSize     int64 `json:"dedupe_size"`
	Stories        int   `json:"stories"`
	Running        bool  `json:"running"`
}

// NewItemView converts a board item.
func NewItemView(it sequencing.Item) ItemView {
	return ItemView{ID: int(it.ID), Text: it.Text, Image: it.Image}
}

// NewSessionView renders a session together with its per-slot marks.
func NewSessionView(s *model.Session) SessionView {
	v := SessionView{
		ID:        s.ID,
		StoryID:   s.StoryID,
		Lang:      s.Lang,
		Slots:     make([]*ItemView, len(s.State.Slots)),
		Pool:      make([]ItemView, 0, len(s.State.Pool)),
		Marks:     make([]string, 0, len(s.State.Slots)),
		Status:    s.State.Status.String(),
		Verdict:   s.State.Verdict.String(),
		Moves:     s.Moves,
		Attempts:  s.Attempts,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	for i, it := range s.State.Slots {
		if it != nil {
			iv := NewItemView(*it)
			v.Slots[i] = &iv
		}
	}
	for _, it := range s.State.Pool {
		v.Pool = append(v.Pool, NewItemView(it))
	}
	if s.Board != nil {
		for _, m := range s.Board.Marks(s.State) {
			v.Marks = append(v.Marks, m.String())
		}
	}
	return v
}

// ItemIDs lists every card id in the view, slots first, then pool.
func (v SessionView) ItemIDs() []int {
	ids := make([]int, 0, len(v.Slots)+len(v.Pool))
	for _, it := range v.Slots {
		if it != nil {
			ids = append(ids, it.ID)
		}
	}
	for _, it := range v.Pool {
		ids = append(ids, it.ID)
	}
	return ids
}
