package services_test

import (
	"chat-relay/domain/post"
	"chat-relay/errors"
	"chat-relay/mocks"
	"chat-relay/services"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type postFixture struct {
	repo   *mocks.MockIPostRepository
	media  *mocks.MockIMediaStore
	censor *mocks.MockCensor
	svc    *services.PostService
}

func newPostFixture(t *testing.T) postFixture {
	ctrl := gomock.NewController(t)
	f := postFixture{
		repo:   mocks.NewMockIPostRepository(ctrl),
		media:  mocks.NewMockIMediaStore(ctrl),
		censor: mocks.NewMockCensor(ctrl),
	}
	f.svc = services.NewPostService(logs.GetLoggerFromLevel(slog.LevelDebug), f.repo, f.media, f.censor)
	return f
}

func TestPostService_Create(t *testing.T) {
	t.Run("should censor, tag and attach media", func(t *testing.T) {
		req := require.New(t)
		f := newPostFixture(t)
		media := strings.NewReader("GIF89a")

		f.censor.EXPECT().Censor("Hello").Return("Hello", nil)
		f.censor.EXPECT().Censor("what a shit day").Return("what a **** day", []string{"shit"})
		f.media.EXPECT().Save(media).Return("http://localhost/media/a.gif", nil)
		f.repo.EXPECT().CreatePost(gomock.Any()).DoAndReturn(func(p post.Post) (post.Post, error) {
			p.ID = uuid.New()
			return p, nil
		})

		created, err := f.svc.Create("author", services.CreatePostRequest{
			Title:   "Hello",
			Content: "what a shit day",
			Tags:    "go, chat,go",
			Media:   media,
		})

		req.NoError(err)
		req.Equal("what a **** day", created.Content)
		req.Equal([]string{"go", "chat"}, created.Tags)
		req.Equal("http://localhost/media/a.gif", created.MediaURL)
		req.Equal("author", created.AuthorID)
	})

	t.Run("should refuse a title longer than 100 characters", func(t *testing.T) {
		req := require.New(t)
		f := newPostFixture(t)
		f.repo.EXPECT().CreatePost(gomock.Any()).Times(0)

		_, err := f.svc.Create("author", services.CreatePostRequest{Title: strings.Repeat("a", 101), Content: "x"})

		req.ErrorIs(err, errors.ErrInvalidInput)
	})

	t.Run("should not store the post when the media is refused", func(t *testing.T) {
		req := require.New(t)
		f := newPostFixture(t)
		f.censor.EXPECT().Censor(gomock.Any()).DoAndReturn(func(s string) (string, []string) { return s, nil }).AnyTimes()
		f.media.EXPECT().Save(gomock.Any()).Return("", errors.ErrUnsupportedMedia)
		f.repo.EXPECT().CreatePost(gomock.Any()).Times(0)

		_, err := f.svc.Create("author", services.CreatePostRequest{Title: "t", Content: "c", Media: strings.NewReader("txt")})

		req.ErrorIs(err, errors.ErrUnsupportedMedia)
	})
}

func TestPostService_Delete(t *testing.T) {
	id := uuid.New()

	t.Run("should let the author delete", func(t *testing.T) {
		req := require.New(t)
		f := newPostFixture(t)
		f.repo.EXPECT().GetPost(id).Return(post.Post{ID: id, AuthorID: "author"}, nil)
		f.repo.EXPECT().DeletePost(id).Return(nil)

		req.NoError(f.svc.Delete("author", id.String()))
	})

	t.Run("should forbid anybody else", func(t *testing.T) {
		req := require.New(t)
		f := newPostFixture(t)
		f.repo.EXPECT().GetPost(id).Return(post.Post{ID: id, AuthorID: "author"}, nil)
		f.repo.EXPECT().DeletePost(gomock.Any()).Times(0)

		req.ErrorIs(f.svc.Delete("intruder", id.String()), errors.ErrForbidden)
	})

	t.Run("should report a malformed id as not found", func(t *testing.T) {
		req := require.New(t)
		f := newPostFixture(t)

		req.ErrorIs(f.svc.Delete("author", "not-a-uuid"), errors.ErrNotFound)
	})
}

func TestPostService_ToggleLike(t *testing.T) {
	req := require.New(t)
	f := newPostFixture(t)
	id := uuid.New()
	f.repo.EXPECT().ToggleLike(id, "u1").Return(post.Post{ID: id, Likes: []string{"u1", "u2"}}, nil)

	likes, err := f.svc.ToggleLike("u1", id.String())

	req.NoError(err)
	req.Equal([]string{"u1", "u2"}, likes)
}

func TestPostService_Search_Default_Limit(t *testing.T) {
	req := require.New(t)
	f := newPostFixture(t)
	ctx := context.Background()
	f.repo.EXPECT().Search(ctx, "golang", 20).Return([]post.Post{}, nil)

	posts, err := f.svc.Search(ctx, "golang", 0)

	req.NoError(err)
	req.Empty(posts)
}
