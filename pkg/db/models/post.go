package models

import (
	"time"

	"github.com/google/uuid"
)

// Post is a blog entry shown on the public site.
type Post struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title       string     `gorm:"column:title;not null"`
	Slug        string     `gorm:"column:slug;not null;uniqueIndex"`
	Body        string     `gorm:"column:body;not null"`
	CoverURL    *string    `gorm:"column:cover_url"`
	Published   bool       `gorm:"column:published;not null;default:false"`
	PublishedAt *time.Time `gorm:"column:published_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
