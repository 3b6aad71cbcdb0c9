package runtime

import (
	"chat-relay/domain/chat"
	"chat-relay/errors"
	"chat-relay/infrastructure/storage"
	"chat-relay/observability"
	"log/slog"
	"sync"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

// recordingHandle is an in-memory connection keeping every event it was sent.
type recordingHandle struct {
	id     string
	mu     sync.Mutex
	events []chat.Event
	closed bool
}

func newHandle() *recordingHandle {
	return &recordingHandle{id: uuid.NewString()}
}

func (h *recordingHandle) ID() string { return h.id }

func (h *recordingHandle) Send(evt chat.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return errors.ErrConnectionClosed
	}
	h.events = append(h.events, evt)
	return nil
}

func (h *recordingHandle) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
}

func (h *recordingHandle) named(name chat.EventName) []chat.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []chat.Event
	for _, evt := range h.events {
		if evt.EventName() == name {
			out = append(out, evt)
		}
	}
	return out
}

type fixture struct {
	registry    *Registry
	connections *ConnectionSet
	store       *storage.MessageRepository
	router      *Router
	lifecycle   *Lifecycle
}

func newFixture(t *testing.T) fixture {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	store, err := storage.NewMessageRepository(db, log)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
		_ = db.Close()
	})

	registry := NewRegistry()
	connections := NewConnectionSet()
	metrics := observability.NewMetrics()
	router := NewRouter(log, registry, store, connections, nil, metrics)
	return fixture{
		registry:    registry,
		connections: connections,
		store:       store,
		router:      router,
		lifecycle:   NewLifecycle(log, router, connections, metrics, 16),
	}
}

// connect registers a bare session in the connection set without a goroutine,
// handlers are then driven synchronously by the test.
func (f fixture) connect(handle *recordingHandle) *Session {
	s := NewSession(handle, "", 16)
	f.connections.Add(s)
	return s
}
