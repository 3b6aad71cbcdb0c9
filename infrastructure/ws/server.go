package ws

import (
	"chat-relay/auth"
	"chat-relay/domain/chat"
	"chat-relay/observability"
	"chat-relay/runtime"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

type Options struct {
	AllowedOrigins []string
	MaxMessageSize int64
	SendBufferSize int
	RateLimit      rate.Limit
	RateBurst      int
	// RequireToken refuses anonymous connections. When false a token is
	// still verified if one is presented.
	RequireToken bool
}

// Server upgrades HTTP requests to real-time connections and binds each of
// them to a session of the lifecycle.
type Server struct {
	log       *slog.Logger
	lifecycle *runtime.Lifecycle
	tokens    *auth.TokenManager
	metrics   *observability.Metrics
	opts      Options
	upgrader  websocket.Upgrader

	mu    sync.Mutex
	conns map[*Conn]struct{}
}

func NewServer(log *slog.Logger, lifecycle *runtime.Lifecycle, tokens *auth.TokenManager,
	metrics *observability.Metrics, opts Options) *Server {
	origins := newOriginPolicy(log, opts.AllowedOrigins)
	return &Server{
		log:       log,
		lifecycle: lifecycle,
		tokens:    tokens,
		metrics:   metrics,
		opts:      opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.check,
		},
		conns: make(map[*Conn]struct{}),
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	authenticated, ok := s.authenticate(r)
	if !ok {
		http.Error(w, "not authorized", http.StatusUnauthorized)
		return
	}

	socket, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader already answered the client
		s.log.Warn("Websocket upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}

	conn := newConn(s.log, socket, s.metrics, s.opts)
	s.track(conn)
	defer s.untrack(conn)

	session := s.lifecycle.Connect(conn, authenticated)
	go conn.writePump()
	conn.readPump(session)

	// Presence is gone before the socket is released
	s.lifecycle.Disconnect(session)
	conn.close()
}

func (s *Server) authenticate(r *http.Request) (chat.UserID, bool) {
	token := auth.TokenFromRequest(r)
	if token == "" {
		return "", !s.opts.RequireToken
	}
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		s.log.Debug("Websocket token refused", "remote_addr", r.RemoteAddr, "error", err)
		return "", false
	}
	return chat.UserID(claims.UserID), true
}

// Close says goodbye to every live connection. Each handler then completes
// its disconnect; wait for them with the lifecycle.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		conn.close()
	}
}

func (s *Server) track(conn *Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[conn] = struct{}{}
}

func (s *Server) untrack(conn *Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}
