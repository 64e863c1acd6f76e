package rules

import (
	"context"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository persists discounts and taxes.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) FindDiscount(ctx context.Context, id uint) (*models.Discount, error) {
	return repo.FindByID[models.Discount](r.DB(ctx), id)
}

func (r *Repository) ListDiscounts(ctx context.Context) ([]models.Discount, error) {
	var out []models.Discount
	if err := r.DB(ctx).Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) SaveDiscount(ctx context.Context, d *models.Discount) error {
	return r.DB(ctx).Save(d).Error
}

func (r *Repository) DeleteDiscount(ctx context.Context, id uint) error {
	return deleteByID[models.Discount](r.DB(ctx), id)
}

// SetCouponID stores the provider coupon id only if none is cached yet and
// reports whether this call wrote it.
func (r *Repository) SetCouponID(ctx context.Context, discountID uint, couponID string) (bool, error) {
	res := r.DB(ctx).Model(&models.Discount{}).
		Where("id = ? AND (stripe_coupon_id IS NULL OR stripe_coupon_id = '')", discountID).
		Update("stripe_coupon_id", couponID)
	return res.RowsAffected == 1, res.Error
}

func (r *Repository) FindTax(ctx context.Context, id uint) (*models.Tax, error) {
	return repo.FindByID[models.Tax](r.DB(ctx), id)
}

func (r *Repository) ListTaxes(ctx context.Context) ([]models.Tax, error) {
	var out []models.Tax
	if err := r.DB(ctx).Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) SaveTax(ctx context.Context, t *models.Tax) error {
	return r.DB(ctx).Save(t).Error
}

func (r *Repository) DeleteTax(ctx context.Context, id uint) error {
	return deleteByID[models.Tax](r.DB(ctx), id)
}

// SetTaxRateID mirrors SetCouponID for taxes.
func (r *Repository) SetTaxRateID(ctx context.Context, taxID uint, taxRateID string) (bool, error) {
	res := r.DB(ctx).Model(&models.Tax{}).
		Where("id = ? AND (stripe_tax_rate_id IS NULL OR stripe_tax_rate_id = '')", taxID).
		Update("stripe_tax_rate_id", taxRateID)
	return res.RowsAffected == 1, res.Error
}

func deleteByID[T any](db *gorm.DB, id uint) error {
	var zero T
	res := db.Delete(&zero, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
