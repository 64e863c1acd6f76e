package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/api/views"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/pricing"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/session"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

const cartPath = "/cart/"

type sessionCart interface {
	GetOrderFromSession(ctx context.Context, sessionID string) (*models.Order, error)
}

type lineEditor interface {
	ChangeQuantity(ctx context.Context, orderID, itemID uint, quantity int) (cart.LineChange, error)
	DeleteItem(ctx context.Context, orderID, itemID uint) (cart.LineChange, error)
	LineQuantity(ctx context.Context, orderID, itemID uint) (int, error)
}

// CartPage renders the session's open order, or an empty cart.
func CartPage(svc sessionCart, renderer *views.Renderer, publishableKey string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil || renderer == nil {
			responses.WriteFlatError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}

		order, err := svc.GetOrderFromSession(ctx, session.IDFromContext(ctx))
		if err != nil {
			responses.WriteFlatError(ctx, logg, w, err)
			return
		}
		if err := renderer.Cart(w, views.NewCartPage(order, publishableKey)); err != nil {
			responses.WriteFlatError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render cart page"))
		}
	}
}

// ChangeQuantity updates a cart line. The quantity comes from a JSON body or
// the quantity form field; anything unreadable keeps the stored quantity.
// Quantities of zero or less remove the line.
func ChangeQuantity(svc lineEditor, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteFlatError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}

		orderID, itemID, ok := lineParams(w, r, logg)
		if !ok {
			return
		}
		wantsJSON := validators.WantsJSON(r)

		quantity, parsed := validators.ParseQuantity(r)
		if !parsed {
			current, err := svc.LineQuantity(ctx, orderID, itemID)
			if err != nil {
				responses.WriteFlatError(ctx, logg, w, err)
				return
			}
			quantity = current
		}
		if quantity > pricing.MaxQuantity {
			responses.WriteFlatError(ctx, logg, w, pkgerrors.Newf(pkgerrors.CodeValidation, "quantity must be at most %d", pricing.MaxQuantity))
			return
		}

		change, err := svc.ChangeQuantity(ctx, orderID, itemID, quantity)
		if err != nil {
			responses.WriteFlatError(ctx, logg, w, err)
			return
		}
		writeLineChange(w, r, wantsJSON, change)
	}
}

// DeleteItem removes a cart line, answering in the same dual mode as ChangeQuantity.
func DeleteItem(svc lineEditor, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteFlatError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}

		orderID, itemID, ok := lineParams(w, r, logg)
		if !ok {
			return
		}
		change, err := svc.DeleteItem(ctx, orderID, itemID)
		if err != nil {
			responses.WriteFlatError(ctx, logg, w, err)
			return
		}
		writeLineChange(w, r, validators.WantsJSON(r), change)
	}
}

func lineParams(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (uint, uint, bool) {
	orderID, err := validators.URLParamID(r, "order_id")
	if err != nil {
		responses.WriteFlatError(r.Context(), logg, w, err)
		return 0, 0, false
	}
	itemID, err := validators.URLParamID(r, "item_id")
	if err != nil {
		responses.WriteFlatError(r.Context(), logg, w, err)
		return 0, 0, false
	}
	return orderID, itemID, true
}

func writeLineChange(w http.ResponseWriter, r *http.Request, wantsJSON bool, change cart.LineChange) {
	if !wantsJSON {
		http.Redirect(w, r, cartPath, http.StatusFound)
		return
	}
	responses.WriteJSON(w, http.StatusOK, types.CartLineChangeResponse{
		OK:       true,
		Removed:  change.Removed,
		Quantity: change.Quantity,
		Totals:   orders.TotalsResponse(change.Totals),
	})
}
