package httpapi

import (
	"chat-relay/auth"
	"net/http"

	"github.com/gorilla/mux"
)

func (a *API) registerAuth(r *mux.Router) {
	r.HandleFunc("/register", a.register).Methods(http.MethodPost)
	r.HandleFunc("/login", a.login).Methods(http.MethodPost)
	r.Handle("/me", a.private(a.me)).Methods(http.MethodGet)
	r.Handle("/users", a.private(a.users)).Methods(http.MethodGet)
}

func (a *API) register(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(a.log, w, r, err)
		return
	}
	result, err := a.auth.Register(req)
	if err != nil {
		writeError(a.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(a.log, w, r, err)
		return
	}
	result, err := a.auth.Login(req)
	if err != nil {
		writeError(a.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) me(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	profile, err := a.auth.Me(userID.String())
	if err != nil {
		writeError(a.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (a *API) users(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	profiles, err := a.auth.Users(userID.String())
	if err != nil {
		writeError(a.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profiles)
}
