// Package stripewebhook applies verified Stripe events to local orders.
package stripewebhook

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/stripe/stripe-go/v84"
)

type orderPayer interface {
	MarkPaid(ctx context.Context, id uint, source enums.PaidSource) (bool, error)
}

type Service struct {
	orders orderPayer
	logg   *logger.Logger
}

func NewService(orders orderPayer, logg *logger.Logger) (*Service, error) {
	if orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order service required")
	}
	return &Service{orders: orders, logg: logg}, nil
}

// HandleEvent marks the referenced order paid for completed, paid checkout
// sessions. Other event types are acknowledged without effect.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted, stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session")
		}
		return s.completeSession(ctx, &sess)
	default:
		return nil
	}
}

func (s *Service) completeSession(ctx context.Context, sess *stripe.CheckoutSession) error {
	if sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return nil
	}
	ref := orderReference(sess)
	if ref == "" {
		// single-item purchases carry no order
		return nil
	}
	orderID, err := strconv.ParseUint(ref, 10, 64)
	if err != nil || orderID == 0 {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid order reference %q", ref)
	}

	changed, err := s.orders.MarkPaid(ctx, uint(orderID), enums.PaidSourceWebhook)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			if s.logg != nil {
				s.logg.Warn(s.logg.WithOrderID(ctx, uint(orderID)), "checkout completed for unknown order")
			}
			return nil
		}
		return err
	}
	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, uint(orderID))
		logCtx = s.logg.WithFields(logCtx, map[string]any{"checkout_session": sess.ID, "changed": changed})
		s.logg.Info(logCtx, "checkout session completed")
	}
	return nil
}

func orderReference(sess *stripe.CheckoutSession) string {
	if ref := strings.TrimSpace(sess.ClientReferenceID); ref != "" {
		return ref
	}
	if sess.Metadata != nil {
		return strings.TrimSpace(sess.Metadata["order_id"])
	}
	return ""
}
