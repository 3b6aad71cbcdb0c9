package httpapi

import (
	"chat-relay/auth"
	"chat-relay/errors"
	"chat-relay/services"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// mediaField is the multipart field carrying the post image.
const mediaField = "image"

func (a *API) registerPosts(r *mux.Router) {
	r.HandleFunc("", a.listPosts).Methods(http.MethodGet)
	r.HandleFunc("/", a.listPosts).Methods(http.MethodGet)
	r.HandleFunc("/search", a.searchPosts).Methods(http.MethodGet)
	r.HandleFunc("/{id}", a.getPost).Methods(http.MethodGet)
	r.Handle("", a.private(a.createPost)).Methods(http.MethodPost)
	r.Handle("/", a.private(a.createPost)).Methods(http.MethodPost)
	r.Handle("/{id}", a.private(a.deletePost)).Methods(http.MethodDelete)
	r.Handle("/like/{id}", a.private(a.likePost)).Methods(http.MethodPut)
}

func (a *API) listPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := a.posts.List()
	if err != nil {
		writeError(a.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (a *API) getPost(w http.ResponseWriter, r *http.Request) {
	p, err := a.posts.Get(mux.Vars(r)["id"])
	if err != nil {
		writeError(a.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *API) searchPosts(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	posts, err := a.posts.Search(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		writeError(a.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// createPost accepts JSON or a multipart form with an optional image.
func (a *API) createPost(w http.ResponseWriter, r *http.Request) {
	author, _ := auth.UserIDFromContext(r.Context())
	req, cleanup, err := a.readPost(w, r)
	if err != nil {
		writeError(a.log, w, r, err)
		return
	}
	defer cleanup()

	created, err := a.posts.Create(author.String(), req)
	if err != nil {
		writeError(a.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (a *API) readPost(w http.ResponseWriter, r *http.Request) (services.CreatePostRequest, func(), error) {
	noop := func() {}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var req services.CreatePostRequest
		return req, noop, decodeJSON(r, &req)
	}

	// Form fields get a little room on top of the file itself
	r.Body = http.MaxBytesReader(w, r.Body, a.opts.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(a.opts.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return services.CreatePostRequest{}, noop, errors.ErrMediaTooLarge
		}
		return services.CreatePostRequest{}, noop, fmt.Errorf("%w: %w", errors.ErrInvalidInput, err)
	}
	cleanup := func() { _ = r.MultipartForm.RemoveAll() }

	req := services.CreatePostRequest{
		Title:   r.FormValue("title"),
		Content: r.FormValue("content"),
		Tags:    r.FormValue("tags"),
	}
	file, _, err := r.FormFile(mediaField)
	switch {
	case err == nil:
		req.Media = file
		return req, func() { _ = file.Close(); cleanup() }, nil
	case errors.Is(err, http.ErrMissingFile):
		return req, cleanup, nil
	default:
		cleanup()
		return services.CreatePostRequest{}, noop, fmt.Errorf("%w: %w", errors.ErrInvalidInput, err)
	}
}

func (a *API) deletePost(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.UserIDFromContext(r.Context())
	if err := a.posts.Delete(caller.String(), mux.Vars(r)["id"]); err != nil {
		writeError(a.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "Post removed"})
}

func (a *API) likePost(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.UserIDFromContext(r.Context())
	likes, err := a.posts.ToggleLike(caller.String(), mux.Vars(r)["id"])
	if err != nil {
		writeError(a.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, likes)
}
