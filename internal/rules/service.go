package rules

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

var maxPercentage = decimal.NewFromInt(100)

type rulesRepository interface {
	FindDiscount(ctx context.Context, id uint) (*models.Discount, error)
	ListDiscounts(ctx context.Context) ([]models.Discount, error)
	SaveDiscount(ctx context.Context, d *models.Discount) error
	DeleteDiscount(ctx context.Context, id uint) error
	FindTax(ctx context.Context, id uint) (*models.Tax, error)
	ListTaxes(ctx context.Context) ([]models.Tax, error)
	SaveTax(ctx context.Context, t *models.Tax) error
	DeleteTax(ctx context.Context, id uint) error
}

// Service manages discounts and taxes from the admin API.
type Service interface {
	ListDiscounts(ctx context.Context) ([]models.Discount, error)
	GetDiscount(ctx context.Context, id uint) (*models.Discount, error)
	CreateDiscount(ctx context.Context, input DiscountInput) (*models.Discount, error)
	UpdateDiscount(ctx context.Context, id uint, input DiscountInput) (*models.Discount, error)
	SetDiscountActive(ctx context.Context, id uint, active bool) (*models.Discount, error)
	DeleteDiscount(ctx context.Context, id uint) error

	ListTaxes(ctx context.Context) ([]models.Tax, error)
	GetTax(ctx context.Context, id uint) (*models.Tax, error)
	CreateTax(ctx context.Context, input TaxInput) (*models.Tax, error)
	UpdateTax(ctx context.Context, id uint, input TaxInput) (*models.Tax, error)
	SetTaxActive(ctx context.Context, id uint, active bool) (*models.Tax, error)
	DeleteTax(ctx context.Context, id uint) error
}

type service struct {
	repo rulesRepository
}

func NewService(repo rulesRepository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rules repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListDiscounts(ctx context.Context) ([]models.Discount, error) {
	out, err := s.repo.ListDiscounts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list discounts")
	}
	return out, nil
}

func (s *service) GetDiscount(ctx context.Context, id uint) (*models.Discount, error) {
	d, err := s.repo.FindDiscount(ctx, id)
	if err != nil {
		return nil, mapLookupErr(err, "discount")
	}
	return d, nil
}

func (s *service) CreateDiscount(ctx context.Context, input DiscountInput) (*models.Discount, error) {
	d := &models.Discount{IsActive: true}
	if err := applyDiscountInput(d, input); err != nil {
		return nil, err
	}
	if err := s.repo.SaveDiscount(ctx, d); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create discount")
	}
	return d, nil
}

// UpdateDiscount replaces the editable fields. Changing type or value drops the
// cached coupon id so the next checkout creates a matching coupon.
func (s *service) UpdateDiscount(ctx context.Context, id uint, input DiscountInput) (*models.Discount, error) {
	d, err := s.GetDiscount(ctx, id)
	if err != nil {
		return nil, err
	}
	prevType, prevValue := d.DiscountType, d.Value
	if err := applyDiscountInput(d, input); err != nil {
		return nil, err
	}
	if d.DiscountType != prevType || d.Value != prevValue {
		d.StripeCouponID = nil
	}
	if err := s.repo.SaveDiscount(ctx, d); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update discount")
	}
	return d, nil
}

func (s *service) SetDiscountActive(ctx context.Context, id uint, active bool) (*models.Discount, error) {
	d, err := s.GetDiscount(ctx, id)
	if err != nil {
		return nil, err
	}
	d.IsActive = active
	if err := s.repo.SaveDiscount(ctx, d); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "toggle discount")
	}
	return d, nil
}

func (s *service) DeleteDiscount(ctx context.Context, id uint) error {
	if err := s.repo.DeleteDiscount(ctx, id); err != nil {
		return mapLookupErr(err, "discount")
	}
	return nil
}

func (s *service) ListTaxes(ctx context.Context) ([]models.Tax, error) {
	out, err := s.repo.ListTaxes(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list taxes")
	}
	return out, nil
}

func (s *service) GetTax(ctx context.Context, id uint) (*models.Tax, error) {
	t, err := s.repo.FindTax(ctx, id)
	if err != nil {
		return nil, mapLookupErr(err, "tax")
	}
	return t, nil
}

func (s *service) CreateTax(ctx context.Context, input TaxInput) (*models.Tax, error) {
	t := &models.Tax{IsActive: true}
	if err := applyTaxInput(t, input); err != nil {
		return nil, err
	}
	if err := s.repo.SaveTax(ctx, t); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create tax")
	}
	return t, nil
}

func (s *service) UpdateTax(ctx context.Context, id uint, input TaxInput) (*models.Tax, error) {
	t, err := s.GetTax(ctx, id)
	if err != nil {
		return nil, err
	}
	prev := t.Percentage
	if err := applyTaxInput(t, input); err != nil {
		return nil, err
	}
	if !t.Percentage.Equal(prev) {
		t.StripeTaxRateID = nil
	}
	if err := s.repo.SaveTax(ctx, t); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update tax")
	}
	return t, nil
}

func (s *service) SetTaxActive(ctx context.Context, id uint, active bool) (*models.Tax, error) {
	t, err := s.GetTax(ctx, id)
	if err != nil {
		return nil, err
	}
	t.IsActive = active
	if err := s.repo.SaveTax(ctx, t); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "toggle tax")
	}
	return t, nil
}

func (s *service) DeleteTax(ctx context.Context, id uint) error {
	if err := s.repo.DeleteTax(ctx, id); err != nil {
		return mapLookupErr(err, "tax")
	}
	return nil
}

func applyDiscountInput(d *models.Discount, input DiscountInput) error {
	name, err := validateName(input.Name)
	if err != nil {
		return err
	}
	kind, err := enums.ParseDiscountType(input.DiscountType)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "discount_type must be percentage or fixed")
	}
	if input.Value < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "value must be non-negative")
	}
	if kind == enums.DiscountTypePercentage && input.Value > 100 {
		return pkgerrors.New(pkgerrors.CodeValidation, "percentage discount cannot exceed 100")
	}

	d.Name = name
	d.DiscountType = kind
	d.Value = input.Value
	if input.IsActive != nil {
		d.IsActive = *input.IsActive
	}
	return nil
}

func applyTaxInput(t *models.Tax, input TaxInput) error {
	name, err := validateName(input.Name)
	if err != nil {
		return err
	}
	pct := input.Percentage
	if pct.IsNegative() || pct.GreaterThan(maxPercentage) {
		return pkgerrors.New(pkgerrors.CodeValidation, "percentage must be between 0 and 100")
	}
	if !pct.Equal(pct.Truncate(2)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "percentage allows at most 2 decimal places")
	}

	t.Name = name
	t.Percentage = pct
	if input.IsActive != nil {
		t.IsActive = *input.IsActive
	}
	return nil
}

func validateName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if utf8.RuneCountInString(name) > 100 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "name must be at most 100 characters")
	}
	return name, nil
}

func mapLookupErr(err error, what string) error {
	if db.IsNotFound(err) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, what+" not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+what)
}
