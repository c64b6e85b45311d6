package posts

import (
	"time"

	"github.com/google/uuid"

	"github.com/Rayjuxtnx/restaurant-server/pkg/db/models"
)

// PostDTO represents the blog post payload returned to clients.
type PostDTO struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Body        string     `json:"body"`
	CoverURL    *string    `json:"cover_url,omitempty"`
	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toPostDTO(post *models.Post) *PostDTO {
	return &PostDTO{
		ID:          post.ID,
		Title:       post.Title,
		Slug:        post.Slug,
		Body:        post.Body,
		CoverURL:    post.CoverURL,
		Published:   post.Published,
		PublishedAt: post.PublishedAt,
		CreatedAt:   post.CreatedAt,
		UpdatedAt:   post.UpdatedAt,
	}
}

func toPostDTOs(entries []models.Post) []PostDTO {
	out := make([]PostDTO, 0, len(entries))
	for i := range entries {
		out = append(out, *toPostDTO(&entries[i]))
	}
	return out
}
