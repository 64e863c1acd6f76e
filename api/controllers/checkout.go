package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/api/views"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/session"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type orderBuyer interface {
	BuyOrder(ctx context.Context, orderID uint) (string, error)
}

type paymentRecorder interface {
	MarkPaid(ctx context.Context, orderID uint) error
}

type sessionClearer interface {
	ClearSession(ctx context.Context, sessionID string) error
}

// BuyOrder starts a hosted checkout for every line of the order.
func BuyOrder(svc orderBuyer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteFlatError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout unavailable"))
			return
		}

		orderID, err := validators.URLParamID(r, "order_id")
		if err != nil {
			responses.WriteFlatError(ctx, logg, w, err)
			return
		}
		sessionID, err := svc.BuyOrder(ctx, orderID)
		if err != nil {
			responses.WriteFlatError(ctx, logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, types.CheckoutSessionResponse{ID: sessionID})
	}
}

// CheckoutSuccess is the provider's success redirect target. When it carries
// an order id the order is marked paid and the session cart is released.
func CheckoutSuccess(payments paymentRecorder, sessions sessionClearer, renderer *views.Renderer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if payments == nil || sessions == nil || renderer == nil {
			responses.WriteFlatError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout unavailable"))
			return
		}

		page := views.SuccessPage{}
		if strings.TrimSpace(r.URL.Query().Get("order_id")) != "" {
			orderID, err := validators.ParseQueryID(r, "order_id")
			if err != nil {
				responses.WriteFlatError(ctx, logg, w, err)
				return
			}
			if err := payments.MarkPaid(ctx, orderID); err != nil {
				responses.WriteFlatError(ctx, logg, w, err)
				return
			}
			if err := sessions.ClearSession(ctx, session.IDFromContext(ctx)); err != nil && logg != nil {
				logg.Warn(logg.WithFields(ctx, map[string]any{"error": err.Error()}), "checkout.session_clear_failed")
			}
			page.OrderID = orderID
		}

		if err := renderer.Success(w, page); err != nil {
			responses.WriteFlatError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render success page"))
		}
	}
}

func CheckoutCancel(renderer *views.Renderer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if renderer == nil {
			responses.WriteFlatError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "page unavailable"))
			return
		}
		if err := renderer.Cancel(w); err != nil {
			responses.WriteFlatError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render cancel page"))
		}
	}
}
