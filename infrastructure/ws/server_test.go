package ws

import (
	"chat-relay/auth"
	"chat-relay/domain/chat"
	"chat-relay/infrastructure/storage"
	"chat-relay/observability"
	"chat-relay/runtime"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type testServer struct {
	url       string
	tokens    *auth.TokenManager
	store     *storage.MessageRepository
	registry  *runtime.Registry
	lifecycle *runtime.Lifecycle
	server    *Server
}

func newTestServer(t *testing.T, opts Options) testServer {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	store, err := storage.NewMessageRepository(db, log)
	require.NoError(t, err)

	metrics := observability.NewMetrics()
	registry := runtime.NewRegistry()
	connections := runtime.NewConnectionSet()
	router := runtime.NewRouter(log, registry, store, connections, nil, metrics)
	lifecycle := runtime.NewLifecycle(log, router, connections, metrics, 16)
	tokens := auth.NewTokenManager("ws-secret", time.Hour)
	server := NewServer(log, lifecycle, tokens, metrics, opts)

	httpServer := httptest.NewServer(server)
	t.Cleanup(func() {
		server.Close()
		httpServer.Close()
		lifecycle.Wait()
		_ = store.Close()
		_ = db.Close()
	})
	return testServer{
		url:       "ws" + strings.TrimPrefix(httpServer.URL, "http"),
		tokens:    tokens,
		store:     store,
		registry:  registry,
		lifecycle: lifecycle,
		server:    server,
	}
}

func defaultOptions() Options {
	return Options{
		AllowedOrigins: []string{"http://localhost:3000"},
		MaxMessageSize: 4096,
		SendBufferSize: 16,
		RateLimit:      rate.Inf,
		RateBurst:      1,
	}
}

func dial(t *testing.T, url string, header http.Header) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if resp != nil {
		_ = resp.Body.Close()
	}
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func emit(t *testing.T, conn *websocket.Conn, event chat.EventName, data any) {
	t.Helper()
	frame, err := Frame(event, data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))
}

// next reads frames until one named event shows up.
func next(t *testing.T, conn *websocket.Conn, event chat.EventName) Received {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		_, frame, err := conn.ReadMessage()
		require.NoError(t, err)
		var received Received
		require.NoError(t, json.Unmarshal(frame, &received))
		if received.Event == event {
			return received
		}
	}
}

func joined(t *testing.T, ts testServer, userID chat.UserID) {
	t.Helper()
	require.Eventually(t, func() bool {
		_, ok := ts.registry.Lookup(userID)
		return ok
	}, 2*time.Second, 5*time.Millisecond)
}

func TestServer_Message_Is_Delivered_Live_And_Stored(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t, defaultOptions())
	u1 := dial(t, ts.url, nil)
	u2 := dial(t, ts.url, nil)

	// Given both users joined
	emit(t, u2, chat.EventJoin, "u2")
	joined(t, ts, "u2")
	emit(t, u1, chat.EventJoin, "u1")
	joined(t, ts, "u1")

	// When u1 sends a message to u2
	emit(t, u1, chat.EventSendMessage, chat.SendMessageCommand{SenderID: "u1", RecipientID: "u2", Content: "hi"})

	// Then u2 receives the persisted message
	received := next(t, u2, chat.EventReceiveMessage)
	var message chat.Message
	req.NoError(json.Unmarshal(received.Data, &message))
	req.Equal(chat.UserID("u1"), message.SenderID)
	req.Equal("hi", message.Content)
	req.NotZero(message.ID)

	history, err := ts.store.Query("u2", "u1")
	req.NoError(err)
	req.Len(history, 1)
	req.Equal(message.ID, history[0].ID)
}

func TestServer_Join_Is_Broadcast_To_The_Joining_Connection(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t, defaultOptions())
	conn := dial(t, ts.url, nil)

	emit(t, conn, chat.EventJoin, "u1")

	received := next(t, conn, chat.EventUserOnline)
	req.JSONEq(`"u1"`, string(received.Data))
}

func TestServer_Malformed_Frames_Keep_The_Connection_Open(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t, defaultOptions())
	conn := dial(t, ts.url, nil)

	// When garbage and an unknown event are sent first
	req.NoError(conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	emit(t, conn, "shout", "hello")
	emit(t, conn, chat.EventJoin, "")

	// Then the connection still serves a valid join
	emit(t, conn, chat.EventJoin, "u1")
	received := next(t, conn, chat.EventUserOnline)
	req.JSONEq(`"u1"`, string(received.Data))
}

func TestServer_Disconnect_Broadcasts_Offline(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t, defaultOptions())
	watcher := dial(t, ts.url, nil)
	leaving := dial(t, ts.url, nil)

	emit(t, leaving, chat.EventJoin, "u1")
	joined(t, ts, "u1")

	// When the socket goes away
	req.NoError(leaving.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	_ = leaving.Close()

	// Then the other connection hears it and the user is absent
	received := next(t, watcher, chat.EventUserOffline)
	req.JSONEq(`"u1"`, string(received.Data))
	_, ok := ts.registry.Lookup("u1")
	req.False(ok)
}

func TestServer_Typing_Reaches_Only_The_Recipient(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t, defaultOptions())
	u1 := dial(t, ts.url, nil)
	u2 := dial(t, ts.url, nil)
	emit(t, u1, chat.EventJoin, "u1")
	emit(t, u2, chat.EventJoin, "u2")
	joined(t, ts, "u1")
	joined(t, ts, "u2")

	emit(t, u1, chat.EventTyping, chat.TypingCommand{RecipientID: "u2", IsTyping: true})

	received := next(t, u2, chat.EventUserTyping)
	req.JSONEq(`{"senderId":"u1","isTyping":true}`, string(received.Data))
}

func TestServer_Token_Binds_The_Identity(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t, defaultOptions())
	token, err := ts.tokens.GenerateToken("u1", []string{"user"})
	req.NoError(err)
	conn := dial(t, ts.url+"?token="+token, nil)

	// When the connection tries to join as somebody else
	emit(t, conn, chat.EventJoin, "u2")
	// And then as itself
	emit(t, conn, chat.EventJoin, "u1")

	// Then only the authenticated identity came online
	received := next(t, conn, chat.EventUserOnline)
	req.JSONEq(`"u1"`, string(received.Data))
	_, ok := ts.registry.Lookup("u2")
	req.False(ok)
}

func TestServer_Refuses_Bad_Handshakes(t *testing.T) {
	opts := defaultOptions()
	opts.RequireToken = true
	ts := newTestServer(t, opts)
	token, err := ts.tokens.GenerateToken("u1", nil)
	require.NoError(t, err)

	tests := []struct {
		name   string
		url    string
		origin string
		status int
	}{
		{"missing token", ts.url, "", http.StatusUnauthorized},
		{"invalid token", ts.url + "?token=forged", "", http.StatusUnauthorized},
		{"disallowed origin", ts.url + "?token=" + token, "http://evil.example", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			header := http.Header{}
			if tt.origin != "" {
				header.Set("Origin", tt.origin)
			}
			_, resp, err := websocket.DefaultDialer.Dial(tt.url, header)
			req.ErrorIs(err, websocket.ErrBadHandshake)
			req.NotNil(resp)
			defer resp.Body.Close()
			req.Equal(tt.status, resp.StatusCode)
		})
	}
}

func TestServer_Rate_Limit_Discards_Frames(t *testing.T) {
	req := require.New(t)
	opts := defaultOptions()
	opts.RateLimit = rate.Every(time.Hour)
	opts.RateBurst = 1
	ts := newTestServer(t, opts)
	conn := dial(t, ts.url, nil)

	// When two joins arrive back to back, only the first is allowed
	emit(t, conn, chat.EventJoin, "u1")
	emit(t, conn, chat.EventJoin, "u2")

	received := next(t, conn, chat.EventUserOnline)
	req.JSONEq(`"u1"`, string(received.Data))
	req.Never(func() bool {
		_, ok := ts.registry.Lookup("u2")
		return ok
	}, 100*time.Millisecond, 10*time.Millisecond)
}

func TestServer_Close_Ends_Every_Session(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t, defaultOptions())
	conn := dial(t, ts.url, nil)
	emit(t, conn, chat.EventJoin, "u1")
	joined(t, ts, "u1")

	ts.server.Close()

	// Then the peer is told goodbye and presence is cleared
	req.NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			req.True(websocket.IsCloseError(err, websocket.CloseNormalClosure))
			break
		}
	}
	req.Eventually(func() bool { return ts.registry.Len() == 0 }, 2*time.Second, 5*time.Millisecond)
}
