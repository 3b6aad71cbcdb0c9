package httpapi

import (
	"chat-relay/auth"
	"chat-relay/domain/chat"
	"net/http"

	"github.com/gorilla/mux"
)

type sendMessageRequest struct {
	Recipient chat.UserID `json:"recipient"`
	Content   string      `json:"content"`
}

type markReadResponse struct {
	Updated int `json:"updated"`
}

func (a *API) registerMessages(r *mux.Router) {
	r.Handle("", a.private(a.sendMessage)).Methods(http.MethodPost)
	r.Handle("/", a.private(a.sendMessage)).Methods(http.MethodPost)
	r.Handle("/{userId}", a.private(a.history)).Methods(http.MethodGet)
	r.Handle("/{userId}/read", a.private(a.markRead)).Methods(http.MethodPut)
}

func (a *API) history(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.UserIDFromContext(r.Context())
	messages, err := a.messages.History(caller, chat.UserID(mux.Vars(r)["userId"]))
	if err != nil {
		writeError(a.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

// sendMessage is the HTTP fallback of the real-time sendMessage event.
func (a *API) sendMessage(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.UserIDFromContext(r.Context())
	var req sendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(a.log, w, r, err)
		return
	}
	message, err := a.messages.Send(caller, req.Recipient, req.Content)
	if err != nil {
		writeError(a.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, message)
}

func (a *API) markRead(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.UserIDFromContext(r.Context())
	updated, err := a.messages.MarkRead(caller, chat.UserID(mux.Vars(r)["userId"]))
	if err != nil {
		writeError(a.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, markReadResponse{Updated: updated})
}
