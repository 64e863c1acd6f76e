package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/api/views"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/session"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type itemReader interface {
	GetItem(ctx context.Context, id uint) (*models.Item, error)
}

type itemBuyer interface {
	BuyItem(ctx context.Context, itemID uint) (string, error)
}

type cartAdder interface {
	AddToCart(ctx context.Context, sessionID string, itemID uint) (cart.AddResult, error)
}

// ItemPage renders the product page with the publishable key for Stripe.js.
func ItemPage(items itemReader, renderer *views.Renderer, publishableKey string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if items == nil || renderer == nil {
			responses.WriteFlatError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "item page unavailable"))
			return
		}

		itemID, err := validators.URLParamID(r, "id")
		if err != nil {
			responses.WriteFlatError(ctx, logg, w, err)
			return
		}
		item, err := items.GetItem(ctx, itemID)
		if err != nil {
			responses.WriteFlatError(ctx, logg, w, err)
			return
		}
		if err := renderer.Item(w, views.NewItemPage(item, publishableKey)); err != nil {
			responses.WriteFlatError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render item page"))
		}
	}
}

// BuyItem starts a one-off hosted checkout for a single unit of the item.
func BuyItem(svc itemBuyer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteFlatError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout unavailable"))
			return
		}

		itemID, err := validators.URLParamID(r, "id")
		if err != nil {
			responses.WriteFlatError(ctx, logg, w, err)
			return
		}
		sessionID, err := svc.BuyItem(ctx, itemID)
		if err != nil {
			responses.WriteFlatError(ctx, logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, types.CheckoutSessionResponse{ID: sessionID})
	}
}

// AddToCart puts one unit of the item into the session's cart, creating the
// cart on first use. Items already in the cart are reported, not incremented.
func AddToCart(svc cartAdder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteFlatError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}

		itemID, err := validators.URLParamID(r, "id")
		if err != nil {
			responses.WriteFlatError(ctx, logg, w, err)
			return
		}
		result, err := svc.AddToCart(ctx, session.IDFromContext(ctx), itemID)
		if err != nil {
			responses.WriteFlatError(ctx, logg, w, err)
			return
		}

		if result.AlreadyInCart {
			responses.WriteJSON(w, http.StatusOK, types.AddToCartResponse{
				OK:            false,
				AlreadyInCart: true,
				ItemName:      result.ItemName,
			})
			return
		}
		if logg != nil {
			logg.Info(logg.WithOrderID(ctx, result.OrderID), "cart.item_added")
		}
		responses.WriteJSON(w, http.StatusOK, types.AddToCartResponse{
			OK:       true,
			OrderID:  result.OrderID,
			ItemID:   result.ItemID,
			ItemName: result.ItemName,
		})
	}
}
