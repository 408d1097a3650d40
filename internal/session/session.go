// Package session keeps the per-visitor form counters between requests.
//
// A form session only remembers how many tables and rows the visitor has
// asked for; entered values travel with each request.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("form session not found")

// State is the persisted part of a form session.
type State struct {
	ID        string    `json:"id"`
	Tables    int       `json:"tables"`
	Rows      int       `json:"rows"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New starts a session with one table of one row.
func New(now time.Time) State {
	return State{
		ID:        uuid.NewString(),
		Tables:    1,
		Rows:      1,
		UpdatedAt: now,
	}
}

// Store persists form sessions.
type Store interface {
	Get(ctx context.Context, id string) (State, error)
	Save(ctx context.Context, s State) error
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
	Close() error
}

// ValidID reports whether id looks like a session id issued by New.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
