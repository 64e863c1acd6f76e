package catalog

import (
	"context"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository persists catalog items.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) FindByID(ctx context.Context, id uint) (*models.Item, error) {
	return repo.FindByID[models.Item](r.DB(ctx), id)
}

// FindByName returns the first item with the exact name.
func (r *Repository) FindByName(ctx context.Context, name string) (*models.Item, error) {
	var item models.Item
	if err := r.DB(ctx).Where("name = ?", name).Order("id ASC").First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// List returns items ordered by id, starting after afterID.
func (r *Repository) List(ctx context.Context, afterID uint, limit int) ([]models.Item, error) {
	var items []models.Item
	q := r.DB(ctx).Order("id ASC").Limit(limit)
	if afterID > 0 {
		q = q.Where("id > ?", afterID)
	}
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *Repository) Create(ctx context.Context, item *models.Item) error {
	return r.DB(ctx).Create(item).Error
}

func (r *Repository) Save(ctx context.Context, item *models.Item) error {
	return r.DB(ctx).Save(item).Error
}

// Delete removes the item; it reports gorm.ErrRecordNotFound when nothing matched.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	res := r.DB(ctx).Delete(&models.Item{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
