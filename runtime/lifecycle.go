package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain/chat"
	"chat-relay/observability"
	"log/slog"
	"sync"
)

// Lifecycle bridges transport connect and disconnect to the router.
// Disconnect detection belongs to the transport, there is no timeout here.
type Lifecycle struct {
	log         *slog.Logger
	router      *Router
	connections *ConnectionSet
	metrics     *observability.Metrics
	bufferSize  int
	wg          sync.WaitGroup
}

func NewLifecycle(log *slog.Logger, router *Router, connections *ConnectionSet,
	metrics *observability.Metrics, bufferSize int) *Lifecycle {
	return &Lifecycle{
		log:         log,
		router:      router,
		connections: connections,
		metrics:     metrics,
		bufferSize:  bufferSize,
	}
}

// Connect creates an unclaimed session and starts the goroutine consuming its commands.
// An unclaimed session is never registered, it only hears presence broadcasts.
func (l *Lifecycle) Connect(handle contract.Handle, authenticated chat.UserID) *Session {
	s := NewSession(handle, authenticated, l.bufferSize)
	l.connections.Add(s)
	l.metrics.Connections.Set(float64(l.connections.Len()))
	l.log.Debug("Connection accepted", "handle", handle.ID(), "authenticated", authenticated)

	l.wg.Add(1)
	go l.serve(s)
	return s
}

// Disconnect stops the session and waits until its presence is gone.
// Commands already queued are still handled before the user goes offline.
func (l *Lifecycle) Disconnect(s *Session) {
	s.close()
	<-s.done
}

// Wait blocks until every session goroutine has returned.
func (l *Lifecycle) Wait() {
	l.wg.Wait()
}

func (l *Lifecycle) serve(s *Session) {
	defer l.wg.Done()
	defer close(s.done)

	for {
		select {
		case cmd := <-s.inbound:
			l.router.Handle(s, cmd)
		case <-s.closing:
			l.drain(s)
			l.connections.Remove(s)
			l.metrics.Connections.Set(float64(l.connections.Len()))
			l.router.OnDisconnect(s)
			l.log.Debug("Connection closed", "handle", s.handle.ID())
			return
		}
	}
}

func (l *Lifecycle) drain(s *Session) {
	for {
		select {
		case cmd := <-s.inbound:
			l.router.Handle(s, cmd)
		default:
			return
		}
	}
}
