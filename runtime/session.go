package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain/chat"
	"chat-relay/errors"
	"sync"
)

// Session is the per-connection state owned by the transport.
// Inbound commands are queued and consumed by a single goroutine started by
// the Lifecycle, so commands of one connection are never reordered.
type Session struct {
	handle        contract.Handle
	authenticated chat.UserID // empty when the transport accepted an anonymous connection

	mu      sync.RWMutex
	claimed chat.UserID // empty until join

	inbound   chan chat.Command
	closing   chan struct{}
	closeOnce sync.Once
	done      chan struct{}
}

func NewSession(handle contract.Handle, authenticated chat.UserID, bufferSize int) *Session {
	return &Session{
		handle:        handle,
		authenticated: authenticated,
		inbound:       make(chan chat.Command, bufferSize),
		closing:       make(chan struct{}),
		done:          make(chan struct{}),
	}
}

func (s *Session) Handle() contract.Handle {
	return s.handle
}

// Authenticated is the identity proven by the transport, if any.
func (s *Session) Authenticated() chat.UserID {
	return s.authenticated
}

// ClaimedUserID is the identity set by the last join, empty before.
func (s *Session) ClaimedUserID() chat.UserID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.claimed
}

// Claim tags the session and returns the previous claim.
func (s *Session) Claim(userID chat.UserID) chat.UserID {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous := s.claimed
	s.claimed = userID
	return previous
}

// mayActAs rejects a session authenticated as someone else.
func (s *Session) mayActAs(userID chat.UserID) bool {
	return s.authenticated == "" || s.authenticated == userID
}

// Enqueue hands a command to the session goroutine.
// It blocks while the queue is full, which slows down the reading side of
// this connection only. Once the session is closing every command is refused.
func (s *Session) Enqueue(cmd chat.Command) error {
	select {
	case <-s.closing:
		return errors.ErrConnectionClosed
	default:
	}
	select {
	case s.inbound <- cmd:
		return nil
	case <-s.closing:
		return errors.ErrConnectionClosed
	}
}

// close stops accepting commands. Safe to call many times.
func (s *Session) close() {
	s.closeOnce.Do(func() { close(s.closing) })
}

// Done is closed once the session is fully disconnected.
func (s *Session) Done() <-chan struct{} {
	return s.done
}
