package orders

import (
	"context"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository persists orders and their lines.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("order_items.id ASC") }).
		Preload("Items.Item").
		Preload("Discount").
		Preload("Tax")
}

func (r *Repository) Create(ctx context.Context, order *models.Order) error {
	return r.DB(ctx).Create(order).Error
}

// FindByID loads the order row without lines.
func (r *Repository) FindByID(ctx context.Context, id uint) (*models.Order, error) {
	return repo.FindByID[models.Order](r.DB(ctx), id)
}

// FindDetailed loads the order with lines, items, discount and tax.
func (r *Repository) FindDetailed(ctx context.Context, id uint) (*models.Order, error) {
	return repo.FindByID[models.Order](withDetails(r.DB(ctx)), id)
}

func (r *Repository) FindLine(ctx context.Context, orderID, itemID uint) (*models.OrderItem, error) {
	var line models.OrderItem
	err := r.DB(ctx).
		Preload("Item").
		Where("order_id = ? AND item_id = ?", orderID, itemID).
		First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *Repository) CreateLine(ctx context.Context, line *models.OrderItem) error {
	return r.DB(ctx).Create(line).Error
}

// UpdateLineQuantity sets the quantity of an existing line.
func (r *Repository) UpdateLineQuantity(ctx context.Context, orderID, itemID uint, quantity int) error {
	res := r.DB(ctx).Model(&models.OrderItem{}).
		Where("order_id = ? AND item_id = ?", orderID, itemID).
		Update("quantity", quantity)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) DeleteLine(ctx context.Context, orderID, itemID uint) error {
	res := r.DB(ctx).
		Where("order_id = ? AND item_id = ?", orderID, itemID).
		Delete(&models.OrderItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkPaid flips is_paid once; it reports whether this call changed the row.
func (r *Repository) MarkPaid(ctx context.Context, id uint) (bool, error) {
	res := r.DB(ctx).Model(&models.Order{}).
		Where("id = ? AND is_paid = ?", id, false).
		Update("is_paid", true)
	return res.RowsAffected == 1, res.Error
}

func (r *Repository) SetDiscount(ctx context.Context, orderID uint, discountID *uint) error {
	return r.DB(ctx).Model(&models.Order{}).Where("id = ?", orderID).Update("discount_id", discountID).Error
}

func (r *Repository) SetTax(ctx context.Context, orderID uint, taxID *uint) error {
	return r.DB(ctx).Model(&models.Order{}).Where("id = ?", orderID).Update("tax_id", taxID).Error
}

// List returns orders newest first with details preloaded, filtered by paid
// state when isPaid is set.
func (r *Repository) List(ctx context.Context, isPaid *bool, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	q := withDetails(r.DB(ctx))
	if isPaid != nil {
		q = q.Where("is_paid = ?", *isPaid)
	}
	if cursor != nil {
		q = q.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var out []models.Order
	if err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
