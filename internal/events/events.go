package events

import (
	"context"
	"sync"
	"time"

	"github.com/Skotchmaster/records/internal/models"
)

type Type string

const (
	UserCreated         Type = "user.created"
	UserDeleted         Type = "user.deleted"
	UserRoleChanged     Type = "user.role_changed"
	UserPasswordChanged Type = "user.password_changed"
	ProfileUpdated      Type = "profile.updated"
	ProfileArchived     Type = "profile.archived"
	ProfileUnarchived   Type = "profile.unarchived"
)

// Event describes a committed change to an identity. It is published after
// the transaction that made the change has committed.
type Event struct {
	Type   Type        `json:"type"`
	UserID string      `json:"user_id"`
	Role   models.Role `json:"role,omitempty"`
	At     time.Time   `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	Err    error
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, e)
	return nil
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *Recorder) Types() []Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Type, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}
