package menu

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Rayjuxtnx/restaurant-server/pkg/db/models"
	pkgerrors "github.com/Rayjuxtnx/restaurant-server/pkg/errors"
)

// Service exposes menu management operations.
type Service interface {
	CreateItem(ctx context.Context, input CreateItemInput) (*ItemDTO, error)
	UpdateItem(ctx context.Context, id uuid.UUID, input UpdateItemInput) (*ItemDTO, error)
	DeleteItem(ctx context.Context, id uuid.UUID) error
	GetItem(ctx context.Context, id uuid.UUID) (*ItemDTO, error)
	ListItems(ctx context.Context, filter ListFilter) ([]ItemDTO, error)
}

// CreateItemInput holds the validated payload to create a menu item.
type CreateItemInput struct {
	Name        string
	Description *string
	Category    string
	Price       decimal.Decimal
	ImageURL    *string
	Available   bool
}

// UpdateItemInput holds optional mutation values for a menu item.
type UpdateItemInput struct {
	Name        *string
	Description *string
	Category    *string
	Price       *decimal.Decimal
	ImageURL    *string
	Available   *bool
}

type itemStore interface {
	Create(ctx context.Context, item *models.MenuItem) (*models.MenuItem, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.MenuItem, error)
	List(ctx context.Context, filter ListFilter) ([]models.MenuItem, error)
	Update(ctx context.Context, item *models.MenuItem) (*models.MenuItem, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	store itemStore
}

// NewService constructs a menu service instance.
func NewService(store itemStore) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("menu repository required")
	}
	return &service{store: store}, nil
}

func (s *service) CreateItem(ctx context.Context, input CreateItemInput) (*ItemDTO, error) {
	if err := validateItemBasics(input.Name, input.Category, input.Price); err != nil {
		return nil, err
	}
	item := &models.MenuItem{
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Category:    strings.TrimSpace(input.Category),
		Price:       input.Price,
		ImageURL:    input.ImageURL,
		Available:   input.Available,
	}
	created, err := s.store.Create(ctx, item)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert menu item")
	}
	return toItemDTO(created), nil
}

func (s *service) UpdateItem(ctx context.Context, id uuid.UUID, input UpdateItemInput) (*ItemDTO, error) {
	item, err := s.findItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		item.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		item.Description = input.Description
	}
	if input.Category != nil {
		item.Category = strings.TrimSpace(*input.Category)
	}
	if input.Price != nil {
		item.Price = *input.Price
	}
	if input.ImageURL != nil {
		item.ImageURL = input.ImageURL
	}
	if input.Available != nil {
		item.Available = *input.Available
	}
	if err := validateItemBasics(item.Name, item.Category, item.Price); err != nil {
		return nil, err
	}
	updated, err := s.store.Update(ctx, item)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update menu item")
	}
	return toItemDTO(updated), nil
}

func (s *service) DeleteItem(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete menu item")
	}
	return nil
}

func (s *service) GetItem(ctx context.Context, id uuid.UUID) (*ItemDTO, error) {
	item, err := s.findItem(ctx, id)
	if err != nil {
		return nil, err
	}
	return toItemDTO(item), nil
}

func (s *service) ListItems(ctx context.Context, filter ListFilter) ([]ItemDTO, error) {
	items, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list menu items")
	}
	return toItemDTOs(items), nil
}

func (s *service) findItem(ctx context.Context, id uuid.UUID) (*models.MenuItem, error) {
	item, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find menu item")
	}
	return item, nil
}

func validateItemBasics(name, category string, price decimal.Decimal) error {
	if strings.TrimSpace(name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if strings.TrimSpace(category) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "category is required")
	}
	if price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	return nil
}
