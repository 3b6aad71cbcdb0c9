// Package post holds the social feed entries users publish.
package post

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

const MaxTitleLength = 100

type Post struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	AuthorID  string    `json:"authorId"`
	Tags      []string  `json:"tags"`
	MediaURL  string    `json:"mediaUrl,omitempty"`
	Likes     []string  `json:"likes"`
	CreatedAt time.Time `json:"createdAt"`
}

// ParseTags splits a comma separated list, trimming blanks and duplicates.
func ParseTags(raw string) []string {
	tags := lo.Map(strings.Split(raw, ","), func(tag string, _ int) string {
		return strings.TrimSpace(tag)
	})
	return lo.Uniq(lo.Compact(tags))
}

// ToggleLike adds the user in front of the likes, or removes it when already there.
// It reports whether the post is now liked by the user.
func (p *Post) ToggleLike(userID string) bool {
	if idx := slices.Index(p.Likes, userID); idx >= 0 {
		p.Likes = slices.Delete(p.Likes, idx, idx+1)
		return false
	}
	p.Likes = append([]string{userID}, p.Likes...)
	return true
}
