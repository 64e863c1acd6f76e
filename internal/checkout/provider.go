// Package checkout turns items and session orders into hosted payment
// sessions, mirroring discounts and taxes as provider-side objects.
package checkout

import (
	"context"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// LineItem is one priced entry of a hosted checkout session.
type LineItem struct {
	Name        string
	Description string
	UnitAmount  int64
	Quantity    int64
	TaxRateIDs  []string
}

// SessionRequest describes a hosted checkout session in payment mode.
type SessionRequest struct {
	Currency          string
	Lines             []LineItem
	CouponID          string
	SuccessURL        string
	CancelURL         string
	ClientReferenceID string
	Metadata          map[string]string
}

// CouponRequest describes a single-use coupon. Fixed coupons carry AmountOff
// and Currency, percentage coupons carry PercentOff.
type CouponRequest struct {
	Name       string
	Type       enums.DiscountType
	PercentOff int64
	AmountOff  int64
	Currency   string
}

// TaxRateRequest describes an exclusive tax rate.
type TaxRateRequest struct {
	DisplayName string
	Percentage  decimal.Decimal
}

// Provider is the hosted payment capability the checkout service depends on.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, req SessionRequest) (string, error)
	CreateCoupon(ctx context.Context, req CouponRequest) (string, error)
	CreateTaxRate(ctx context.Context, req TaxRateRequest) (string, error)
}

// ProviderError carries the provider's own message for a failed call.
type ProviderError struct {
	Op      string
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	return e.Op + ": " + e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
