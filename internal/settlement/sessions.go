package settlement

import (
	"context"
	"sync"
)

// SessionState is the lifecycle of one payment session id in the
// exactly-once marker store. A session is in at most one state; entries are
// never evicted for the life of the process, matching the at-most-once
// delivery contract the webhook retry behaviour depends on.
type SessionState int

const (
	// SessionNew means this caller claimed the session and must process it.
	SessionNew SessionState = iota
	// SessionInProgress means a concurrent delivery is already handling it.
	SessionInProgress
	// SessionProcessed means the session was already handled.
	SessionProcessed
)

// SessionStore is the pluggable exactly-once marker store. Begin must be
// atomic per key: two concurrent claims of a fresh id must resolve to one
// SessionNew and one SessionInProgress.
type SessionStore interface {
	// Begin claims id. SessionNew means the id is now marked in-progress
	// and the caller owns processing it.
	Begin(ctx context.Context, id string) (SessionState, error)
	// Finish marks id processed, terminal for this store.
	Finish(ctx context.Context, id string) error
}

// MemorySessions is the single-instance SessionStore.
type MemorySessions struct {
	mu     sync.Mutex
	states map[string]SessionState
}

func NewMemorySessions() *MemorySessions {
	return &MemorySessions{states: map[string]SessionState{}}
}

func (m *MemorySessions) Begin(_ context.Context, id string) (SessionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if state, ok := m.states[id]; ok {
		return state, nil
	}
	m.states[id] = SessionInProgress
	return SessionNew, nil
}

func (m *MemorySessions) Finish(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[id] = SessionProcessed
	return nil
}
