package media

import (
	"chat-relay/domain/mimetypes"
	"chat-relay/errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// Store keeps uploaded post images on the local disk.
// Only png, jpeg and gif are accepted, the type is sniffed from the content
// and never trusted from the client.
type Store struct {
	log      *slog.Logger
	dir      string
	baseURL  string
	maxBytes int64
}

func NewStore(log *slog.Logger, dir, baseURL string, maxBytes int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrStorage, err)
	}
	return &Store{
		log:      log,
		dir:      dir,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		maxBytes: maxBytes,
	}, nil
}

// Save sniffs and writes the upload, returning the public URL of the file.
func (s *Store) Save(r io.Reader) (string, error) {
	// One extra byte tells an upload of exactly maxBytes from a bigger one
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("%w: %w", errors.ErrInvalidInput, err)
	}
	if int64(len(data)) > s.maxBytes {
		return "", fmt.Errorf("%w: more than %d bytes", errors.ErrMediaTooLarge, s.maxBytes)
	}

	detected := mimetype.Detect(data).String()
	image, ok := mimetypes.Image(detected)
	if !ok {
		return "", fmt.Errorf("%w: %s", errors.ErrUnsupportedMedia, detected)
	}

	name := uuid.NewString() + mimetypes.Extension(image)
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("%w: %w", errors.ErrStorage, err)
	}
	s.log.Debug("Media stored", "name", name, "mime_type", image, "size", len(data))
	return s.baseURL + "/" + name, nil
}

// Handler serves stored files under the prefix stripped by the router.
// Directory listings are refused.
func (s *Store) Handler() http.Handler {
	files := http.FileServer(http.Dir(s.dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}
