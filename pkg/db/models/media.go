package models

import (
	"time"

	"github.com/google/uuid"
)

// Media captures metadata for an uploaded object. The bytes live in external
// storage; this table only records what was uploaded and where it ended up.
type Media struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FileName    string    `gorm:"column:file_name;not null"`
	URL         string    `gorm:"column:url;not null"`
	ContentType string    `gorm:"column:content_type;not null"`
	SizeBytes   int64     `gorm:"column:size_bytes;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
