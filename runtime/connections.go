package runtime

import (
	"chat-relay/contract"
	"sync"
)

// ConnectionSet holds every live session, joined or not.
// Presence broadcasts are addressed to it rather than to the registry,
// a connection that never joined still hears who comes and goes.
type ConnectionSet struct {
	mu       sync.RWMutex
	sessions map[*Session]struct{}
}

func NewConnectionSet() *ConnectionSet {
	return &ConnectionSet{sessions: make(map[*Session]struct{})}
}

func (c *ConnectionSet) Add(s *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[s] = struct{}{}
}

func (c *ConnectionSet) Remove(s *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, s)
}

// Handles returns a snapshot of the live connection handles.
func (c *ConnectionSet) Handles() []contract.Handle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	handles := make([]contract.Handle, 0, len(c.sessions))
	for s := range c.sessions {
		handles = append(handles, s.handle)
	}
	return handles
}

func (c *ConnectionSet) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions)
}
