package storage

import (
	"chat-relay/domain/post"
	"chat-relay/errors"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func newPostRepository(t *testing.T) (*PostRepository, func()) {
	db, cleanup := SetupTestDB(t)
	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	return NewPostRepository(db, blugeWriter, logs.GetLoggerFromLevel(slog.LevelDebug)), func() {
		_ = blugeWriter.Close()
		cleanup()
	}
}

func TestPostRepository_List_Newest_First(t *testing.T) {
	req := require.New(t)
	repo, cleanup := newPostRepository(t)
	defer cleanup()

	// Given posts created at different times
	at := time.Now().UTC()
	for _, p := range []post.Post{
		{Title: "old", AuthorID: "u1", CreatedAt: at},
		{Title: "new", AuthorID: "u1", CreatedAt: at.Add(2 * time.Minute)},
		{Title: "middle", AuthorID: "u1", CreatedAt: at.Add(time.Minute)},
	} {
		_, err := repo.CreatePost(p)
		req.NoError(err)
	}

	// When listing
	posts, err := repo.ListPosts()

	// Then the newest comes first
	req.NoError(err)
	titles := make([]string, 0, len(posts))
	for _, p := range posts {
		titles = append(titles, p.Title)
	}
	req.Equal([]string{"new", "middle", "old"}, titles)
}

func TestPostRepository_Get_Delete(t *testing.T) {
	req := require.New(t)
	repo, cleanup := newPostRepository(t)
	defer cleanup()

	// Given a post
	created, err := repo.CreatePost(post.Post{Title: "hello", Content: "world", AuthorID: "u1"})
	req.NoError(err)
	req.NotNil(created.Likes)
	req.NotNil(created.Tags)

	fetched, err := repo.GetPost(created.ID)
	req.NoError(err)
	req.Equal("world", fetched.Content)

	// When deleting it
	req.NoError(repo.DeletePost(created.ID))

	// Then it is gone everywhere
	_, err = repo.GetPost(created.ID)
	req.ErrorIs(err, errors.ErrNotFound)
	posts, err := repo.ListPosts()
	req.NoError(err)
	req.Empty(posts)
	req.ErrorIs(repo.DeletePost(created.ID), errors.ErrNotFound)
}

func TestPostRepository_ToggleLike(t *testing.T) {
	req := require.New(t)
	repo, cleanup := newPostRepository(t)
	defer cleanup()

	created, err := repo.CreatePost(post.Post{Title: "like me", AuthorID: "u1"})
	req.NoError(err)

	// When two users like then the first one unlikes
	_, err = repo.ToggleLike(created.ID, "u2")
	req.NoError(err)
	liked, err := repo.ToggleLike(created.ID, "u3")
	req.NoError(err)
	req.Equal([]string{"u3", "u2"}, liked.Likes)

	unliked, err := repo.ToggleLike(created.ID, "u2")
	req.NoError(err)

	// Then the stored likes follow
	req.Equal([]string{"u3"}, unliked.Likes)
	fetched, err := repo.GetPost(created.ID)
	req.NoError(err)
	req.Equal([]string{"u3"}, fetched.Likes)

	_, err = repo.ToggleLike(uuid.New(), "u2")
	req.ErrorIs(err, errors.ErrNotFound)
}

func TestPostRepository_Search(t *testing.T) {
	req := require.New(t)
	repo, cleanup := newPostRepository(t)
	defer cleanup()

	// Given posts about different topics
	gopher, err := repo.CreatePost(post.Post{Title: "Gophers everywhere", Content: "concurrency is fun", AuthorID: "u1", Tags: []string{"golang"}})
	req.NoError(err)
	_, err = repo.CreatePost(post.Post{Title: "Holidays", Content: "sea and sun", AuthorID: "u2", Tags: []string{"travel"}})
	req.NoError(err)
	tagged, err := repo.CreatePost(post.Post{Title: "Untitled", Content: "nothing here", AuthorID: "u3", Tags: []string{"concurrency"}})
	req.NoError(err)

	// When searching a word found in a content and in a tag
	found, err := repo.Search(context.Background(), "concurrency", 10)

	// Then both posts come back
	req.NoError(err)
	ids := make([]uuid.UUID, 0, len(found))
	for _, p := range found {
		ids = append(ids, p.ID)
	}
	req.ElementsMatch([]uuid.UUID{gopher.ID, tagged.ID}, ids)

	// When the post is deleted
	req.NoError(repo.DeletePost(gopher.ID))
	found, err = repo.Search(context.Background(), "gophers", 10)

	// Then it no longer shows up
	req.NoError(err)
	req.Empty(found)

	_, err = repo.Search(context.Background(), "  ", 10)
	req.ErrorIs(err, errors.ErrInvalidInput)
}
