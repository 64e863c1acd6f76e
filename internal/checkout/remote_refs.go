package checkout

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type refStore interface {
	FindDiscount(ctx context.Context, id uint) (*models.Discount, error)
	FindTax(ctx context.Context, id uint) (*models.Tax, error)
	SetCouponID(ctx context.Context, discountID uint, couponID string) (bool, error)
	SetTaxRateID(ctx context.Context, taxID uint, taxRateID string) (bool, error)
}

type refRecorder interface {
	IncRemoteRefCreated(kind string)
	IncProviderFailure(operation string)
}

// RemoteRefs lazily creates provider coupons and tax rates and caches their
// ids on the local rule rows.
type RemoteRefs struct {
	provider Provider
	store    refStore
	currency string
	metrics  refRecorder
	logg     *logger.Logger
}

func NewRemoteRefs(provider Provider, store refStore, currency string, metrics refRecorder, logg *logger.Logger) (*RemoteRefs, error) {
	if provider == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment provider is required")
	}
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rule store is required")
	}
	return &RemoteRefs{provider: provider, store: store, currency: currency, metrics: metrics, logg: logg}, nil
}

// EnsureCoupon returns the cached coupon id for discount or creates one. A
// discount worth nothing has no coupon.
func (r *RemoteRefs) EnsureCoupon(ctx context.Context, discount *models.Discount) (string, error) {
	if discount == nil || discount.Value <= 0 {
		return "", nil
	}
	if id := cached(discount.StripeCouponID); id != "" {
		return id, nil
	}

	req := CouponRequest{Name: discount.Name, Type: discount.DiscountType}
	if discount.DiscountType == enums.DiscountTypeFixed {
		req.AmountOff = discount.Value
		req.Currency = r.currency
	} else {
		req.PercentOff = discount.Value
	}
	id, err := r.provider.CreateCoupon(ctx, req)
	if err != nil {
		r.failure("create_coupon")
		return "", providerFailure(err)
	}

	wrote, err := r.store.SetCouponID(ctx, discount.ID, id)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store coupon id")
	}
	if !wrote {
		// another request cached an id first
		current, err := r.store.FindDiscount(ctx, discount.ID)
		if err == nil && cached(current.StripeCouponID) != "" {
			id = *current.StripeCouponID
		}
	} else {
		r.created("coupon")
	}
	discount.StripeCouponID = &id
	return id, nil
}

// EnsureTaxRate returns the cached tax rate id for tax or creates one.
func (r *RemoteRefs) EnsureTaxRate(ctx context.Context, tax *models.Tax) (string, error) {
	if tax == nil {
		return "", nil
	}
	if id := cached(tax.StripeTaxRateID); id != "" {
		return id, nil
	}

	id, err := r.provider.CreateTaxRate(ctx, TaxRateRequest{DisplayName: tax.Name, Percentage: tax.Percentage})
	if err != nil {
		r.failure("create_tax_rate")
		return "", providerFailure(err)
	}

	wrote, err := r.store.SetTaxRateID(ctx, tax.ID, id)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store tax rate id")
	}
	if !wrote {
		current, err := r.store.FindTax(ctx, tax.ID)
		if err == nil && cached(current.StripeTaxRateID) != "" {
			id = *current.StripeTaxRateID
		}
	} else {
		r.created("tax_rate")
	}
	tax.StripeTaxRateID = &id
	return id, nil
}

func (r *RemoteRefs) created(kind string) {
	if r.metrics != nil {
		r.metrics.IncRemoteRefCreated(kind)
	}
}

func (r *RemoteRefs) failure(op string) {
	if r.metrics != nil {
		r.metrics.IncProviderFailure(op)
	}
}

func cached(id *string) string {
	if id == nil {
		return ""
	}
	return strings.TrimSpace(*id)
}

// providerFailure exposes the provider's message to the caller unchanged.
func providerFailure(err error) error {
	msg := err.Error()
	var pe *ProviderError
	if errors.As(err, &pe) {
		msg = pe.Message
	}
	return pkgerrors.Wrap(pkgerrors.CodePaymentProvider, err, msg)
}
