//go:generate go run go.uber.org/mock/mockgen -source=post_service.go -destination=../mocks/mock_post_service.go -package=mocks
package services

import (
	"chat-relay/contract"
	"chat-relay/domain/post"
	"chat-relay/errors"
	"chat-relay/infrastructure/storage"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const defaultSearchLimit = 20

type IPostService interface {
	List() ([]post.Post, error)
	Get(id string) (post.Post, error)
	Create(authorID string, req CreatePostRequest) (post.Post, error)
	Delete(callerID, id string) error
	ToggleLike(callerID, id string) ([]string, error)
	Search(ctx context.Context, query string, limit int) ([]post.Post, error)
}

// IMediaStore persists an uploaded attachment and returns its public URL.
type IMediaStore interface {
	Save(r io.Reader) (string, error)
}

type CreatePostRequest struct {
	Title   string    `json:"title" validate:"required,max=100"`
	Content string    `json:"content" validate:"required"`
	Tags    string    `json:"tags"`
	Media   io.Reader `json:"-"`
}

type PostService struct {
	log      *slog.Logger
	repo     storage.IPostRepository
	media    IMediaStore
	censor   contract.Censor // optional
	validate *validator.Validate
}

func NewPostService(log *slog.Logger, repo storage.IPostRepository, media IMediaStore, censor contract.Censor) *PostService {
	return &PostService{
		log:      log,
		repo:     repo,
		media:    media,
		censor:   censor,
		validate: validator.New(),
	}
}

func (s *PostService) List() ([]post.Post, error) {
	return s.repo.ListPosts()
}

func (s *PostService) Get(id string) (post.Post, error) {
	postID, err := parseID(id)
	if err != nil {
		return post.Post{}, err
	}
	return s.repo.GetPost(postID)
}

func (s *PostService) Create(authorID string, req CreatePostRequest) (post.Post, error) {
	if err := s.validate.Struct(req); err != nil {
		return post.Post{}, fmt.Errorf("%w: %w", errors.ErrInvalidInput, err)
	}

	p := post.Post{
		Title:    s.clean(req.Title),
		Content:  s.clean(req.Content),
		AuthorID: authorID,
		Tags:     post.ParseTags(req.Tags),
	}
	if req.Media != nil {
		url, err := s.media.Save(req.Media)
		if err != nil {
			return post.Post{}, err
		}
		p.MediaURL = url
	}

	created, err := s.repo.CreatePost(p)
	if err != nil {
		return post.Post{}, err
	}
	s.log.Debug("Post created", "post_id", created.ID, "author_id", authorID)
	return created, nil
}

// Delete removes a post owned by callerID. Anybody else gets ErrForbidden.
func (s *PostService) Delete(callerID, id string) error {
	postID, err := parseID(id)
	if err != nil {
		return err
	}
	p, err := s.repo.GetPost(postID)
	if err != nil {
		return err
	}
	if p.AuthorID != callerID {
		return errors.ErrForbidden
	}
	return s.repo.DeletePost(postID)
}

// ToggleLike returns the likes of the post once the toggle is applied.
func (s *PostService) ToggleLike(callerID, id string) ([]string, error) {
	postID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	p, err := s.repo.ToggleLike(postID, callerID)
	if err != nil {
		return nil, err
	}
	return p.Likes, nil
}

func (s *PostService) Search(ctx context.Context, query string, limit int) ([]post.Post, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	return s.repo.Search(ctx, query, limit)
}

func (s *PostService) clean(text string) string {
	if s.censor == nil {
		return text
	}
	censored, words := s.censor.Censor(text)
	if len(words) > 0 {
		s.log.Info("Post censored", "words", len(words))
	}
	return censored
}

// parseID maps a malformed id to not found, there is no such post anyway.
func parseID(id string) (uuid.UUID, error) {
	postID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: post %q", errors.ErrNotFound, id)
	}
	return postID, nil
}
