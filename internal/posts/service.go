package posts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Rayjuxtnx/restaurant-server/pkg/db/models"
	pkgerrors "github.com/Rayjuxtnx/restaurant-server/pkg/errors"
)

// Service exposes blog post management operations.
type Service interface {
	CreatePost(ctx context.Context, input CreatePostInput) (*PostDTO, error)
	UpdatePost(ctx context.Context, id uuid.UUID, input UpdatePostInput) (*PostDTO, error)
	DeletePost(ctx context.Context, id uuid.UUID) error
	GetPost(ctx context.Context, id uuid.UUID) (*PostDTO, error)
	GetPublishedBySlug(ctx context.Context, slug string) (*PostDTO, error)
	ListPosts(ctx context.Context, filter ListFilter) ([]PostDTO, error)
}

// CreatePostInput holds the validated payload to create a post. An empty Slug
// is derived from the title.
type CreatePostInput struct {
	Title     string
	Slug      string
	Body      string
	CoverURL  *string
	Published bool
}

// UpdatePostInput holds optional mutation values for a post.
type UpdatePostInput struct {
	Title     *string
	Slug      *string
	Body      *string
	CoverURL  *string
	Published *bool
}

type postStore interface {
	Create(ctx context.Context, post *models.Post) (*models.Post, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	FindBySlug(ctx context.Context, slug string) (*models.Post, error)
	List(ctx context.Context, filter ListFilter) ([]models.Post, error)
	Update(ctx context.Context, post *models.Post) (*models.Post, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	store postStore
	now   func() time.Time
}

// NewService constructs a posts service instance.
func NewService(store postStore) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("posts repository required")
	}
	return &service{store: store, now: time.Now}, nil
}

func (s *service) CreatePost(ctx context.Context, input CreatePostInput) (*PostDTO, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if strings.TrimSpace(input.Body) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "body is required")
	}
	slug := Slugify(input.Slug)
	if slug == "" {
		slug = Slugify(title)
	}
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug could not be derived from title")
	}

	post := &models.Post{
		Title:     title,
		Slug:      slug,
		Body:      input.Body,
		CoverURL:  input.CoverURL,
		Published: input.Published,
	}
	if input.Published {
		now := s.now()
		post.PublishedAt = &now
	}
	created, err := s.store.Create(ctx, post)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "slug already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert post")
	}
	return toPostDTO(created), nil
}

func (s *service) UpdatePost(ctx context.Context, id uuid.UUID, input UpdatePostInput) (*PostDTO, error) {
	post, err := s.findPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Title != nil {
		post.Title = strings.TrimSpace(*input.Title)
	}
	if input.Slug != nil {
		post.Slug = Slugify(*input.Slug)
	}
	if input.Body != nil {
		post.Body = *input.Body
	}
	if input.CoverURL != nil {
		post.CoverURL = input.CoverURL
	}
	if input.Published != nil && *input.Published != post.Published {
		post.Published = *input.Published
		if post.Published {
			now := s.now()
			post.PublishedAt = &now
		} else {
			post.PublishedAt = nil
		}
	}
	if post.Title == "" || post.Slug == "" || strings.TrimSpace(post.Body) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title, slug, and body are required")
	}
	updated, err := s.store.Update(ctx, post)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "slug already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update post")
	}
	return toPostDTO(updated), nil
}

func (s *service) DeletePost(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "post not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete post")
	}
	return nil
}

func (s *service) GetPost(ctx context.Context, id uuid.UUID) (*PostDTO, error) {
	post, err := s.findPost(ctx, id)
	if err != nil {
		return nil, err
	}
	return toPostDTO(post), nil
}

// GetPublishedBySlug serves the public site; drafts read as missing.
func (s *service) GetPublishedBySlug(ctx context.Context, slug string) (*PostDTO, error) {
	post, err := s.store.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "post not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find post")
	}
	if !post.Published {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "post not found")
	}
	return toPostDTO(post), nil
}

func (s *service) ListPosts(ctx context.Context, filter ListFilter) ([]PostDTO, error) {
	entries, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list posts")
	}
	return toPostDTOs(entries), nil
}

func (s *service) findPost(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	post, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "post not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find post")
	}
	return post, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique")
}

// Slugify lowercases the input and collapses every non-alphanumeric run into a
// single hyphen.
func Slugify(v string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(v)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteRune('-')
			lastHyphen = true
		}
	}
	return strings.Trim(b.String(), "-")
}
