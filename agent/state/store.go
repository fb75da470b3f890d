package state

import (
	"context"
	"errors"
)

var ErrStateNotFound = errors.New("conversation state not found")

// Store is the persistence contract for conversation state. The graph
// core never talks to storage directly; the router does one
// read-modify-write per turn.
type Store interface {
	Load(ctx context.Context, sessionID string) (*Conversation, error)
	Save(ctx context.Context, c *Conversation) error
	Delete(ctx context.Context, sessionID string) error
}
