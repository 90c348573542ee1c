package token

import (
	"context"
	"errors"
	"sync"
)

// ErrNotIssued indicates no token was ever issued for the session.
var ErrNotIssued = errors.New("no token issued for session")

// Store persists one-time tokens keyed by session. Implementations must
// support concurrent access for different sessions without interference.
type Store interface {
	Save(ctx context.Context, sessionID, token string) error
	Get(ctx context.Context, sessionID string) (string, error)
	Delete(ctx context.Context, sessionID string) error
}

// MemoryStore keeps tokens in process memory. Suitable for single-node
// deployments and tests.
type MemoryStore struct {
	entries sync.Map
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save stores the token for the session, replacing any previous one.
func (s *MemoryStore) Save(_ context.Context, sessionID, token string) error {
	s.entries.Store(sessionID, token)
	return nil
}

// Get returns the issued token or ErrNotIssued.
func (s *MemoryStore) Get(_ context.Context, sessionID string) (string, error) {
	value, ok := s.entries.Load(sessionID)
	if !ok {
		return "", ErrNotIssued
	}
	return value.(string), nil
}

// Delete removes the session's token if present.
func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.entries.Delete(sessionID)
	return nil
}
