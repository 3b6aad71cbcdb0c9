//go:generate go run go.uber.org/mock/mockgen -source=post_repository.go -destination=../../mocks/mock_post_repository.go -package=mocks
package storage

import (
	"chat-relay/domain/post"
	"chat-relay/errors"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const (
	postPrefix    = "post:id:"
	postTimeIndex = "post:at:"
)

type IPostRepository interface {
	CreatePost(p post.Post) (post.Post, error)
	GetPost(id uuid.UUID) (post.Post, error)
	ListPosts() ([]post.Post, error)
	DeletePost(id uuid.UUID) error
	ToggleLike(id uuid.UUID, userID string) (post.Post, error)
	Search(ctx context.Context, query string, limit int) ([]post.Post, error)
}

// PostRepository keeps posts in Badger and mirrors title, content and tags
// in a Bluge index for full-text search.
type PostRepository struct {
	db     *badger.DB
	writer *bluge.Writer
	log    *slog.Logger
}

func NewPostRepository(db *badger.DB, writer *bluge.Writer, log *slog.Logger) *PostRepository {
	return &PostRepository{db: db, writer: writer, log: log}
}

type diskPost struct {
	ID        string   `cbor:"id"`
	Title     string   `cbor:"title"`
	Content   string   `cbor:"content"`
	AuthorID  string   `cbor:"author_id"`
	Tags      []string `cbor:"tags"`
	MediaURL  string   `cbor:"media_url"`
	Likes     []string `cbor:"likes"`
	CreatedAt int64    `cbor:"created_at"`
}

// timeKey is "post:at:{created_at_padded}:{uuid}", iterated backwards for newest first.
func timeKey(p post.Post) []byte {
	return []byte(fmt.Sprintf("%s%019d:%s", postTimeIndex, p.CreatedAt.UnixNano(), p.ID))
}

func (r *PostRepository) CreatePost(p post.Post) (post.Post, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.Likes == nil {
		p.Likes = []string{}
	}

	data, err := marshal(fromPost(p))
	if err != nil {
		return post.Post{}, fmt.Errorf("%w: %w", errors.ErrStorage, err)
	}
	err = r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(postPrefix+p.ID.String()), data); err != nil {
			return err
		}
		return txn.Set(timeKey(p), []byte(p.ID.String()))
	})
	if err != nil {
		return post.Post{}, fmt.Errorf("%w: %w", errors.ErrStorage, err)
	}

	if err := r.index(p); err != nil {
		// The post is stored, only search misses it
		r.log.Error("Post not indexed", "post_id", p.ID, "error", err)
	}
	return p, nil
}

func (r *PostRepository) GetPost(id uuid.UUID) (post.Post, error) {
	var p post.Post
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		p, err = getPost(txn, id.String())
		return err
	})
	return p, mapNotFound(err)
}

// ListPosts returns every post, newest first.
func (r *PostRepository) ListPosts() ([]post.Post, error) {
	posts := make([]post.Post, 0)
	prefix := []byte(postTimeIndex)
	err := r.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// '~' sorts after every digit: start from the most recent entry
		for it.Seek(append([]byte(postTimeIndex), '~')); it.ValidForPrefix(prefix); it.Next() {
			id, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			p, err := getPost(txn, string(id))
			if err != nil {
				return err
			}
			posts = append(posts, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrStorage, err)
	}
	return posts, nil
}

func (r *PostRepository) DeletePost(id uuid.UUID) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		p, err := getPost(txn, id.String())
		if err != nil {
			return err
		}
		if err := txn.Delete(timeKey(p)); err != nil {
			return err
		}
		return txn.Delete([]byte(postPrefix + id.String()))
	})
	if err = mapNotFound(err); err != nil {
		return err
	}
	if err := r.writer.Delete(bluge.Identifier(id.String())); err != nil {
		r.log.Error("Post not removed from index", "post_id", id, "error", err)
	}
	return nil
}

// ToggleLike likes or unlikes the post for userID in a single transaction.
func (r *PostRepository) ToggleLike(id uuid.UUID, userID string) (post.Post, error) {
	var p post.Post
	err := r.db.Update(func(txn *badger.Txn) error {
		var err error
		p, err = getPost(txn, id.String())
		if err != nil {
			return err
		}
		p.ToggleLike(userID)
		data, err := marshal(fromPost(p))
		if err != nil {
			return err
		}
		return txn.Set([]byte(postPrefix+id.String()), data)
	})
	return p, mapNotFound(err)
}

// Search runs a full-text match over title, content and tags, best match first.
// Hits whose post vanished from Badger meanwhile are skipped.
func (r *PostRepository) Search(ctx context.Context, query string, limit int) ([]post.Post, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.ErrInvalidInput
	}
	reader, err := r.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrStorage, err)
	}
	defer func() { _ = reader.Close() }()

	q := bluge.NewBooleanQuery().
		AddShould(bluge.NewMatchQuery(query).SetField("title")).
		AddShould(bluge.NewMatchQuery(query).SetField("content")).
		AddShould(bluge.NewMatchQuery(query).SetField("tags")).
		SetMinShould(1)

	dmi, err := reader.Search(ctx, bluge.NewTopNSearch(limit, q))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrStorage, err)
	}

	var ids []string
	match, err := dmi.Next()
	for err == nil && match != nil {
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				ids = append(ids, string(value))
				return false
			}
			return true
		})
		if err != nil {
			break
		}
		match, err = dmi.Next()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrStorage, err)
	}

	posts := make([]post.Post, 0, len(ids))
	err = r.db.View(func(txn *badger.Txn) error {
		for _, id := range ids {
			p, err := getPost(txn, id)
			if stderrors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			posts = append(posts, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrStorage, err)
	}
	return posts, nil
}

func (r *PostRepository) index(p post.Post) error {
	doc := bluge.NewDocument(p.ID.String()).
		AddField(bluge.NewTextField("title", p.Title)).
		AddField(bluge.NewTextField("content", p.Content)).
		AddField(bluge.NewTextField("tags", strings.Join(p.Tags, " ")))
	return r.writer.Update(doc.ID(), doc)
}

func getPost(txn *badger.Txn, id string) (post.Post, error) {
	item, err := txn.Get([]byte(postPrefix + id))
	if err != nil {
		return post.Post{}, err
	}
	var disk diskPost
	if err := item.Value(func(val []byte) error {
		return unmarshal(val, &disk)
	}); err != nil {
		return post.Post{}, err
	}
	return toPost(disk)
}

func fromPost(p post.Post) diskPost {
	return diskPost{
		ID:        p.ID.String(),
		Title:     p.Title,
		Content:   p.Content,
		AuthorID:  p.AuthorID,
		Tags:      p.Tags,
		MediaURL:  p.MediaURL,
		Likes:     p.Likes,
		CreatedAt: p.CreatedAt.UnixNano(),
	}
}

func toPost(disk diskPost) (post.Post, error) {
	id, err := uuid.Parse(disk.ID)
	if err != nil {
		return post.Post{}, err
	}
	tags, likes := disk.Tags, disk.Likes
	if tags == nil {
		tags = []string{}
	}
	if likes == nil {
		likes = []string{}
	}
	return post.Post{
		ID:        id,
		Title:     disk.Title,
		Content:   disk.Content,
		AuthorID:  disk.AuthorID,
		Tags:      tags,
		MediaURL:  disk.MediaURL,
		Likes:     likes,
		CreatedAt: time.Unix(0, disk.CreatedAt).UTC(),
	}, nil
}
