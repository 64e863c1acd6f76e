package catalog

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/angelmondragon/storefront-backend/internal/pricing"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

type itemRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Item, error)
	FindByName(ctx context.Context, name string) (*models.Item, error)
	List(ctx context.Context, afterID uint, limit int) ([]models.Item, error)
	Create(ctx context.Context, item *models.Item) error
	Save(ctx context.Context, item *models.Item) error
	Delete(ctx context.Context, id uint) error
}

// Service exposes catalog reads for the storefront and writes for the admin.
type Service interface {
	GetItem(ctx context.Context, id uint) (*models.Item, error)
	ListItems(ctx context.Context, afterID uint, limit int) (ItemPage, error)
	CreateItem(ctx context.Context, input ItemInput) (*models.Item, error)
	UpdateItem(ctx context.Context, id uint, input ItemInput) (*models.Item, error)
	DeleteItem(ctx context.Context, id uint) error
	// EnsureItem creates the item unless one with the same name exists.
	EnsureItem(ctx context.Context, input ItemInput) (*models.Item, bool, error)
}

type service struct {
	repo itemRepository
}

func NewService(repo itemRepository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetItem(ctx context.Context, id uint) (*models.Item, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
	}
	return item, nil
}

func (s *service) ListItems(ctx context.Context, afterID uint, limit int) (ItemPage, error) {
	size := pagination.NormalizeLimit(limit)
	items, err := s.repo.List(ctx, afterID, size+1)
	if err != nil {
		return ItemPage{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list items")
	}
	page := ItemPage{Items: items}
	if len(items) > size {
		page.Items = items[:size]
		page.NextCursor = page.Items[size-1].ID
	}
	if page.Items == nil {
		page.Items = []models.Item{}
	}
	return page, nil
}

func (s *service) CreateItem(ctx context.Context, input ItemInput) (*models.Item, error) {
	input, err := normalizeInput(input)
	if err != nil {
		return nil, err
	}
	item := &models.Item{Name: input.Name, Description: input.Description, Price: input.Price}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create item")
	}
	return item, nil
}

func (s *service) UpdateItem(ctx context.Context, id uint, input ItemInput) (*models.Item, error) {
	input, err := normalizeInput(input)
	if err != nil {
		return nil, err
	}
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	item.Name = input.Name
	item.Description = input.Description
	item.Price = input.Price
	if err := s.repo.Save(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update item")
	}
	return item, nil
}

func (s *service) DeleteItem(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "item not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete item")
	}
	return nil
}

func (s *service) EnsureItem(ctx context.Context, input ItemInput) (*models.Item, bool, error) {
	input, err := normalizeInput(input)
	if err != nil {
		return nil, false, err
	}
	existing, err := s.repo.FindByName(ctx, input.Name)
	if err == nil {
		return existing, false, nil
	}
	if !db.IsNotFound(err) {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find item by name")
	}
	item, err := s.CreateItem(ctx, input)
	if err != nil {
		return nil, false, err
	}
	return item, true, nil
}

func normalizeInput(input ItemInput) (ItemInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	switch {
	case input.Name == "":
		return input, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	case utf8.RuneCountInString(input.Name) > 60:
		return input, pkgerrors.New(pkgerrors.CodeValidation, "name must be at most 60 characters")
	case utf8.RuneCountInString(input.Description) > 1000:
		return input, pkgerrors.New(pkgerrors.CodeValidation, "description must be at most 1000 characters")
	case input.Price < 0:
		return input, pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
	case input.Price > pricing.MaxUnitPrice:
		return input, pkgerrors.Newf(pkgerrors.CodeValidation, "price must be at most %d", pricing.MaxUnitPrice)
	}
	return input, nil
}
