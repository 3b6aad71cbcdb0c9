// Package httpapi exposes the REST surface: auth, direct messages, posts,
// plus the operational endpoints and the real-time upgrade.
package httpapi

import (
	"chat-relay/auth"
	"chat-relay/observability"
	"chat-relay/services"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

type Options struct {
	AllowedOrigins []string
	MaxUploadBytes int64
}

type API struct {
	log      *slog.Logger
	auth     services.IAuthService
	messages services.IMessageService
	posts    services.IPostService
	tokens   *auth.TokenManager
	metrics  *observability.Metrics
	opts     Options
}

func NewAPI(
	log *slog.Logger,
	authService services.IAuthService,
	messages services.IMessageService,
	posts services.IPostService,
	tokens *auth.TokenManager,
	metrics *observability.Metrics,
	opts Options,
) *API {
	return &API{
		log:      log,
		auth:     authService,
		messages: messages,
		posts:    posts,
		tokens:   tokens,
		metrics:  metrics,
		opts:     opts,
	}
}

// Handler wires every route. realtime serves /ws, media serves the files
// under /media/.
func (a *API) Handler(realtime, media http.Handler) http.Handler {
	r := mux.NewRouter()
	r.Use(countRequests(a.metrics))

	r.HandleFunc("/health", a.health).Methods(http.MethodGet)
	r.Handle("/metrics", a.metrics.Handler()).Methods(http.MethodGet)
	r.Handle("/ws", realtime).Methods(http.MethodGet)
	r.PathPrefix("/media/").Handler(http.StripPrefix("/media/", media)).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	a.registerAuth(api.PathPrefix("/auth").Subrouter())
	a.registerMessages(api.PathPrefix("/messages").Subrouter())
	a.registerPosts(api.PathPrefix("/posts").Subrouter())

	return cors(a.opts.AllowedOrigins)(r)
}

func (a *API) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("API is running"))
}

// private only lets requests carrying a valid token through.
func (a *API) private(h http.HandlerFunc) http.Handler {
	return a.tokens.Middleware(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, messageBody{Message: "Not authorized, no token"})
	})(h)
}
