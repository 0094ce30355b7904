// Package repository holds game sessions between gestures.
package repository

import (
	"context"
	"time"

	"github.com/okian/terimu/internal/domain/model"
)

// Store provides read/write access to open sessions.
type Store interface {
	// Create inserts a new session. Returns ErrCapacity when the store is
	// full and ErrExists when the id is already taken.
	Create(ctx context.Context, s *model.Session) error

	// Get returns a copy of the session. Returns ErrNotFound if unknown.
	Get(ctx context.Context, id string) (model.Session, error)

	// Update runs fn on a copy of the session while holding its shard lock and
	// stores the copy if fn returns nil. Gestures on one session are
	// therefore applied one at a time.
	Update(ctx context.Context, id string, fn func(*model.Session) error) (model.Session, error)

	// Delete removes the session. Returns ErrNotFound if unknown.
	Delete(ctx context.Context, id string) error

	// Count returns the number of open sessions.
	Count(ctx context.Context) int

	// Sweep removes sessions last updated before idleBefore and returns them.
	Sweep(ctx context.Context, idleBefore time.Time) []model.Session
}
