package checkout

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgstripe "github.com/angelmondragon/storefront-backend/pkg/stripe"
	"github.com/stripe/stripe-go/v84"
	checkoutsession "github.com/stripe/stripe-go/v84/checkout/session"
	"github.com/stripe/stripe-go/v84/coupon"
	"github.com/stripe/stripe-go/v84/taxrate"
)

type stripeProvider struct{}

// NewStripeProvider returns a Provider backed by the Stripe API configured on
// api. A nil client yields nil so callers can detect missing configuration.
func NewStripeProvider(api *pkgstripe.Client) Provider {
	if api == nil {
		return nil
	}
	return &stripeProvider{}
}

func (p *stripeProvider) CreateCheckoutSession(ctx context.Context, req SessionRequest) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	params.Context = ctx
	if req.ClientReferenceID != "" {
		params.ClientReferenceID = stripe.String(req.ClientReferenceID)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	for _, line := range req.Lines {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(line.Name),
		}
		// empty strings are rejected by the API
		if desc := strings.TrimSpace(line.Description); desc != "" {
			product.Description = stripe.String(desc)
		}
		item := &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(req.Currency),
				UnitAmount:  stripe.Int64(line.UnitAmount),
				ProductData: product,
			},
			Quantity: stripe.Int64(line.Quantity),
		}
		if len(line.TaxRateIDs) > 0 {
			item.TaxRates = stripe.StringSlice(line.TaxRateIDs)
		}
		params.LineItems = append(params.LineItems, item)
	}
	if req.CouponID != "" {
		params.Discounts = []*stripe.CheckoutSessionDiscountParams{{Coupon: stripe.String(req.CouponID)}}
	}

	sess, err := checkoutsession.New(params)
	if err != nil {
		return "", providerError("create checkout session", err)
	}
	return sess.ID, nil
}

func (p *stripeProvider) CreateCoupon(ctx context.Context, req CouponRequest) (string, error) {
	params := &stripe.CouponParams{
		Name:     stripe.String(req.Name),
		Duration: stripe.String(string(stripe.CouponDurationOnce)),
	}
	params.Context = ctx
	switch req.Type {
	case enums.DiscountTypeFixed:
		params.AmountOff = stripe.Int64(req.AmountOff)
		params.Currency = stripe.String(req.Currency)
	default:
		params.PercentOff = stripe.Float64(float64(req.PercentOff))
	}

	c, err := coupon.New(params)
	if err != nil {
		return "", providerError("create coupon", err)
	}
	return c.ID, nil
}

func (p *stripeProvider) CreateTaxRate(ctx context.Context, req TaxRateRequest) (string, error) {
	params := &stripe.TaxRateParams{
		DisplayName: stripe.String(req.DisplayName),
		Percentage:  stripe.Float64(req.Percentage.InexactFloat64()),
		Inclusive:   stripe.Bool(false),
	}
	params.Context = ctx

	rate, err := taxrate.New(params)
	if err != nil {
		return "", providerError("create tax rate", err)
	}
	return rate.ID, nil
}

func providerError(op string, err error) error {
	msg := err.Error()
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
		msg = stripeErr.Msg
	}
	return &ProviderError{Op: op, Message: msg, Err: err}
}
