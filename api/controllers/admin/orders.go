package admin

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type orderService interface {
	GetSummary(ctx context.Context, id uint) (*orders.OrderSummary, error)
	List(ctx context.Context, params orders.ListParams) (orders.OrderPage, error)
	MarkPaid(ctx context.Context, id uint, source enums.PaidSource) (bool, error)
	AttachDiscount(ctx context.Context, orderID uint, discountID *uint) (*orders.OrderSummary, error)
	AttachTax(ctx context.Context, orderID uint, taxID *uint) (*orders.OrderSummary, error)
}

type lineEditor interface {
	ChangeQuantity(ctx context.Context, orderID, itemID uint, quantity int) (cart.LineChange, error)
}

type attachDiscountRequest struct {
	DiscountID *uint `json:"discount_id"`
}

type attachTaxRequest struct {
	TaxID *uint `json:"tax_id"`
}

type lineQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,lte=9999"`
}

// markPaidRequest is optional; source records which payment path the admin is
// reconciling and defaults to admin.
type markPaidRequest struct {
	Source string `json:"source"`
}

type markPaidResponse struct {
	Order   *orders.OrderSummary `json:"order"`
	Changed bool                 `json:"changed"`
}

// Orders groups the order management handlers.
type Orders struct {
	svc   orderService
	lines lineEditor
	logg  *logger.Logger
}

func NewOrders(svc orderService, lines lineEditor, logg *logger.Logger) *Orders {
	return &Orders{svc: svc, lines: lines, logg: logg}
}

// List returns orders newest first, optionally filtered by ?is_paid=.
func (h *Orders) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		responses.WriteError(ctx, h.logg, w, err)
		return
	}
	isPaid, err := validators.ParseQueryBool(r, "is_paid")
	if err != nil {
		responses.WriteError(ctx, h.logg, w, err)
		return
	}

	page, err := h.svc.List(ctx, orders.ListParams{
		IsPaid: isPaid,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		Limit:  limit,
	})
	if err != nil {
		responses.WriteError(ctx, h.logg, w, err)
		return
	}
	responses.WriteSuccess(w, page)
}

func (h *Orders) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID, err := validators.URLParamID(r, "order_id")
	if err != nil {
		responses.WriteError(ctx, h.logg, w, err)
		return
	}
	summary, err := h.svc.GetSummary(ctx, orderID)
	if err != nil {
		responses.WriteError(ctx, h.logg, w, err)
		return
	}
	responses.WriteSuccess(w, summary)
}

// AttachDiscount sets or, with a null discount_id, clears the order discount.
func (h *Orders) AttachDiscount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID, err := validators.URLParamID(r, "order_id")
	if err != nil {
		responses.WriteError(ctx, h.logg, w, err)
		return
	}
	var req attachDiscountRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(ctx, h.logg, w, err)
		return
	}
	summary, err := h.svc.AttachDiscount(ctx, orderID, req.DiscountID)
	if err != nil {
		responses.WriteError(ctx, h.logg, w, err)
		return
	}
	responses.WriteSuccess(w, summary)
}

// AttachTax sets or, with a null tax_id, clears the order tax.
func (h *Orders) AttachTax(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID, err := validators.URLParamID(r, "order_id")
	if err != nil {
		responses.WriteError(ctx, h.logg, w, err)
		return
	}
	var req attachTaxRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(ctx, h.logg, w, err)
		return
	}
	summary, err := h.svc.AttachTax(ctx, orderID, req.TaxID)
	if err != nil {
		responses.WriteError(ctx, h.logg, w, err)
		return
	}
	responses.WriteSuccess(w, summary)
}

// SetLineQuantity applies the storefront quantity rules to an order line.
func (h *Orders) SetLineQuantity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID, err := validators.URLParamID(r, "order_id")
	if err != nil {
		responses.WriteError(ctx, h.logg, w, err)
		return
	}
	itemID, err := validators.URLParamID(r, "item_id")
	if err != nil {
		responses.WriteError(ctx, h.logg, w, err)
		return
	}
	var req lineQuantityRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(ctx, h.logg, w, err)
		return
	}

	change, err := h.lines.ChangeQuantity(ctx, orderID, itemID, *req.Quantity)
	if err != nil {
		responses.WriteError(ctx, h.logg, w, err)
		return
	}
	responses.WriteSuccess(w, types.CartLineChangeResponse{
		OK:       true,
		Removed:  change.Removed,
		Quantity: change.Quantity,
		Totals:   orders.TotalsResponse(change.Totals),
	})
}

// MarkPaid flags the order paid on behalf of the signed-in admin.
func (h *Orders) MarkPaid(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID, err := validators.URLParamID(r, "order_id")
	if err != nil {
		responses.WriteError(ctx, h.logg, w, err)
		return
	}
	source, err := paidSource(r)
	if err != nil {
		responses.WriteError(ctx, h.logg, w, err)
		return
	}
	changed, err := h.svc.MarkPaid(ctx, orderID, source)
	if err != nil {
		responses.WriteError(ctx, h.logg, w, err)
		return
	}
	if changed && h.logg != nil {
		logCtx := h.logg.WithAdmin(h.logg.WithOrderID(ctx, orderID), middleware.AdminUsernameFromContext(ctx))
		h.logg.Info(h.logg.WithField(logCtx, "paid_source", string(source)), "admin.order_marked_paid")
	}

	summary, err := h.svc.GetSummary(ctx, orderID)
	if err != nil {
		responses.WriteError(ctx, h.logg, w, err)
		return
	}
	responses.WriteSuccess(w, markPaidResponse{Order: summary, Changed: changed})
}

func paidSource(r *http.Request) (enums.PaidSource, error) {
	if r.Body == nil || r.ContentLength == 0 {
		return enums.PaidSourceAdmin, nil
	}
	var req markPaidRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		return "", err
	}
	if req.Source == "" {
		return enums.PaidSourceAdmin, nil
	}
	source, err := enums.ParsePaidSource(req.Source)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "source must be redirect, webhook or admin")
	}
	return source, nil
}
