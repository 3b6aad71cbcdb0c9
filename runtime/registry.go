package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain/chat"
	"iter"
	"sync"
)

// Registry is the presence directory: which connection currently speaks for a user.
// One handle per user, the last Register wins and silently orphans the previous handle.
// Every method is a single critical section; callers persist and dispatch outside of it.
type Registry struct {
	mu       sync.RWMutex
	sessions map[chat.UserID]contract.Handle // map user -> live connection
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[chat.UserID]contract.Handle),
	}
}

// Register inserts or overwrites the connection for a user.
// Overwriting is how a reconnect replaces the previous connection.
func (r *Registry) Register(userID chat.UserID, handle contract.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[userID] = handle
}

// Unregister removes the entry owned by handle and returns the user it spoke for.
// The handle, not the user, is the key: a connection that was overwritten by a
// newer join must not evict the newer one. Unknown handles are a no-op.
func (r *Registry) Unregister(handle contract.Handle) (chat.UserID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for userID, h := range r.sessions {
		if h == handle {
			delete(r.sessions, userID)
			return userID, true
		}
	}
	return "", false
}

// Lookup returns the current connection of a user, if any.
func (r *Registry) Lookup(userID chat.UserID) (contract.Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handle, ok := r.sessions[userID]
	return handle, ok
}

// All yields the users online when All was called.
// The snapshot is taken eagerly so iteration never holds the lock.
func (r *Registry) All() iter.Seq[chat.UserID] {
	r.mu.RLock()
	users := make([]chat.UserID, 0, len(r.sessions))
	for userID := range r.sessions {
		users = append(users, userID)
	}
	r.mu.RUnlock()

	return func(yield func(chat.UserID) bool) {
		for _, userID := range users {
			if !yield(userID) {
				return
			}
		}
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
