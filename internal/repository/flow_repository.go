package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Lixing-Zhang/storefront/internal/authflow"
)

var (
	ErrSessionNotFound = errors.New("flow session not found")
	ErrLocked          = errors.New("session is locked by another submission")
)

// FlowRepository defines the interface for auth flow session storage
type FlowRepository interface {
	Get(ctx context.Context, sessionID string) (authflow.FlowState, error)
	Save(ctx context.Context, sessionID string, state authflow.FlowState) error
	Delete(ctx context.Context, sessionID string) error
	// Lock takes the per-session submit lock. It returns ErrLocked when another
	// submission holds it; the returned func releases it.
	Lock(ctx context.Context, sessionID string) (func(), error)
}

type memoryEntry struct {
	state   authflow.FlowState
	expires time.Time
}

// InMemoryFlowRepository implements FlowRepository with in-memory storage
type InMemoryFlowRepository struct {
	ttl     time.Duration
	lockTTL time.Duration
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]memoryEntry
	locks    map[string]time.Time
}

// NewInMemoryFlowRepository creates a repository whose sessions expire after ttl
func NewInMemoryFlowRepository(ttl, lockTTL time.Duration) *InMemoryFlowRepository {
	return &InMemoryFlowRepository{
		ttl:      ttl,
		lockTTL:  lockTTL,
		now:      time.Now,
		sessions: make(map[string]memoryEntry),
		locks:    make(map[string]time.Time),
	}
}

// Get returns the stored state for a session
func (r *InMemoryFlowRepository) Get(ctx context.Context, sessionID string) (authflow.FlowState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.sessions[sessionID]
	if !exists {
		return authflow.FlowState{}, ErrSessionNotFound
	}
	if r.now().After(entry.expires) {
		delete(r.sessions, sessionID)
		return authflow.FlowState{}, ErrSessionNotFound
	}
	return entry.state, nil
}

// Save stores the state and refreshes its expiry
func (r *InMemoryFlowRepository) Save(ctx context.Context, sessionID string, state authflow.FlowState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[sessionID] = memoryEntry{state: state, expires: r.now().Add(r.ttl)}
	return nil
}

// Delete removes a session
func (r *InMemoryFlowRepository) Delete(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, sessionID)
	return nil
}

// Lock takes the submit lock for a session
func (r *InMemoryFlowRepository) Lock(ctx context.Context, sessionID string) (func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if until, held := r.locks[sessionID]; held && now.Before(until) {
		return nil, ErrLocked
	}
	until := now.Add(r.lockTTL)
	r.locks[sessionID] = until

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			// A lock that expired and was taken by someone else is theirs now.
			if r.locks[sessionID].Equal(until) {
				delete(r.locks, sessionID)
			}
		})
	}, nil
}

// Cleanup drops expired sessions and locks every period until ctx is done.
func (r *InMemoryFlowRepository) Cleanup(ctx context.Context, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

// sweep removes every expired entry and reports how many sessions went.
func (r *InMemoryFlowRepository) sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for id, entry := range r.sessions {
		if now.After(entry.expires) {
			delete(r.sessions, id)
			removed++
		}
	}
	for id, until := range r.locks {
		if !now.Before(until) {
			delete(r.locks, id)
		}
	}
	return removed
}
