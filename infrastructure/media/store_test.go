package media

import (
	"bytes"
	"chat-relay/errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

// Smallest valid GIF header followed by a few bytes of payload.
var gif = append([]byte("GIF89a"), bytes.Repeat([]byte{0x01}, 32)...)

var png = append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, bytes.Repeat([]byte{0x00}, 32)...)

func newStore(t *testing.T, maxBytes int64) *Store {
	t.Helper()
	store, err := NewStore(logs.GetLoggerFromLevel(slog.LevelDebug), t.TempDir(), "http://localhost/media/", maxBytes)
	require.NoError(t, err)
	return store
}

func TestStore_Save_Accepts_Images(t *testing.T) {
	req := require.New(t)
	store := newStore(t, 1024)

	// When a png is uploaded
	url, err := store.Save(bytes.NewReader(png))

	// Then it is stored under a fresh name with its own extension
	req.NoError(err)
	req.True(strings.HasPrefix(url, "http://localhost/media/"))
	req.True(strings.HasSuffix(url, ".png"))
	stored, err := os.ReadFile(filepath.Join(store.dir, filepath.Base(url)))
	req.NoError(err)
	req.Equal(png, stored)
}

func TestStore_Save_Rejects_Unsupported_Media(t *testing.T) {
	req := require.New(t)
	store := newStore(t, 1024)

	_, err := store.Save(strings.NewReader("just some text pretending to be an image"))

	req.ErrorIs(err, errors.ErrUnsupportedMedia)
	entries, err := os.ReadDir(store.dir)
	req.NoError(err)
	req.Empty(entries)
}

func TestStore_Save_Rejects_Oversized_Media(t *testing.T) {
	req := require.New(t)
	store := newStore(t, int64(len(gif)-1))

	_, err := store.Save(bytes.NewReader(gif))
	req.ErrorIs(err, errors.ErrMediaTooLarge)

	// Exactly at the limit is fine
	store = newStore(t, int64(len(gif)))
	_, err = store.Save(bytes.NewReader(gif))
	req.NoError(err)
}

func TestStore_Handler_Serves_Files_Only(t *testing.T) {
	req := require.New(t)
	store := newStore(t, 1024)
	url, err := store.Save(bytes.NewReader(gif))
	req.NoError(err)
	handler := http.StripPrefix("/media/", store.Handler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/media/"+filepath.Base(url), nil))
	req.Equal(http.StatusOK, rec.Code)
	req.Equal(gif, rec.Body.Bytes())

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/media/", nil))
	req.Equal(http.StatusNotFound, rec.Code)
}
