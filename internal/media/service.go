package media

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Rayjuxtnx/restaurant-server/pkg/db/models"
	pkgerrors "github.com/Rayjuxtnx/restaurant-server/pkg/errors"
)

// maxMediaSizeBytes caps registered assets at 25 MiB.
const maxMediaSizeBytes = 25 << 20

var allowedContentTypes = map[string]struct{}{
	"image/png":       {},
	"image/jpeg":      {},
	"image/webp":      {},
	"image/gif":       {},
	"video/mp4":       {},
	"application/pdf": {},
}

// RecordDTO represents a registered media asset.
type RecordDTO struct {
	ID          uuid.UUID `json:"id"`
	FileName    string    `json:"file_name"`
	URL         string    `json:"url"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}

// RegisterInput describes an asset already hosted elsewhere.
type RegisterInput struct {
	FileName    string
	URL         string
	ContentType string
	SizeBytes   int64
}

// Service tracks externally hosted media metadata.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*RecordDTO, error)
	List(ctx context.Context, limit int) ([]RecordDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type recordStore interface {
	Create(ctx context.Context, record *models.Media) (*models.Media, error)
	List(ctx context.Context, limit int) ([]models.Media, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	store recordStore
}

func NewService(store recordStore) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("media repository required")
	}
	return &service{store: store}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*RecordDTO, error) {
	fileName := strings.TrimSpace(input.FileName)
	if fileName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file_name is required")
	}
	if err := validateURL(input.URL); err != nil {
		return nil, err
	}
	contentType, err := normalizeContentType(input.ContentType)
	if err != nil {
		return nil, err
	}
	if input.SizeBytes <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "size_bytes must be positive")
	}
	if input.SizeBytes > maxMediaSizeBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file exceeds the 25MB limit")
	}

	record, err := s.store.Create(ctx, &models.Media{
		FileName:    fileName,
		URL:         input.URL,
		ContentType: contentType,
		SizeBytes:   input.SizeBytes,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert media record")
	}
	return toRecordDTO(record), nil
}

func (s *service) List(ctx context.Context, limit int) ([]RecordDTO, error) {
	records, err := s.store.List(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list media records")
	}
	out := make([]RecordDTO, 0, len(records))
	for i := range records {
		out = append(out, *toRecordDTO(&records[i]))
	}
	return out, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "media record not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete media record")
	}
	return nil
}

func toRecordDTO(record *models.Media) *RecordDTO {
	return &RecordDTO{
		ID:          record.ID,
		FileName:    record.FileName,
		URL:         record.URL,
		ContentType: record.ContentType,
		SizeBytes:   record.SizeBytes,
		CreatedAt:   record.CreatedAt,
	}
}

func validateURL(raw string) error {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return pkgerrors.New(pkgerrors.CodeValidation, "url must be an absolute http(s) URL")
	}
	return nil
}

func normalizeContentType(raw string) (string, error) {
	parsed, _, err := mime.ParseMediaType(strings.TrimSpace(raw))
	if err != nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "content_type is not a valid MIME type")
	}
	if _, ok := allowedContentTypes[parsed]; !ok {
		return "", pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("content_type must be one of: %s", strings.Join(sortedContentTypes(), ", ")))
	}
	return parsed, nil
}

func sortedContentTypes() []string {
	out := make([]string, 0, len(allowedContentTypes))
	for ct := range allowedContentTypes {
		out = append(out, ct)
	}
	sort.Strings(out)
	return out
}
