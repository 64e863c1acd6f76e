package admin

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/rules"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// activeRequest toggles is_active on a discount or tax.
type activeRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// Rules groups the discount and tax handlers.
type Rules struct {
	svc  rules.Service
	logg *logger.Logger
}

func NewRules(svc rules.Service, logg *logger.Logger) *Rules {
	return &Rules{svc: svc, logg: logg}
}

func (h *Rules) ListDiscounts(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListDiscounts(r.Context())
	h.write(w, r, list, err)
}

func (h *Rules) GetDiscount(w http.ResponseWriter, r *http.Request) {
	h.withID(w, r, func(ctx context.Context, id uint) (any, error) {
		return h.svc.GetDiscount(ctx, id)
	})
}

func (h *Rules) CreateDiscount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var input rules.DiscountInput
	if err := validators.DecodeJSONBody(r, &input); err != nil {
		responses.WriteError(ctx, h.logg, w, err)
		return
	}
	discount, err := h.svc.CreateDiscount(ctx, input)
	if err != nil {
		responses.WriteError(ctx, h.logg, w, err)
		return
	}
	responses.WriteSuccessStatus(w, http.StatusCreated, discount)
}

func (h *Rules) UpdateDiscount(w http.ResponseWriter, r *http.Request) {
	var input rules.DiscountInput
	h.withBody(w, r, &input, func(ctx context.Context, id uint) (any, error) {
		return h.svc.UpdateDiscount(ctx, id, input)
	})
}

func (h *Rules) SetDiscountActive(w http.ResponseWriter, r *http.Request) {
	var req activeRequest
	h.withBody(w, r, &req, func(ctx context.Context, id uint) (any, error) {
		return h.svc.SetDiscountActive(ctx, id, *req.IsActive)
	})
}

func (h *Rules) DeleteDiscount(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, h.svc.DeleteDiscount)
}

func (h *Rules) ListTaxes(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListTaxes(r.Context())
	h.write(w, r, list, err)
}

func (h *Rules) GetTax(w http.ResponseWriter, r *http.Request) {
	h.withID(w, r, func(ctx context.Context, id uint) (any, error) {
		return h.svc.GetTax(ctx, id)
	})
}

func (h *Rules) CreateTax(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var input rules.TaxInput
	if err := validators.DecodeJSONBody(r, &input); err != nil {
		responses.WriteError(ctx, h.logg, w, err)
		return
	}
	tax, err := h.svc.CreateTax(ctx, input)
	if err != nil {
		responses.WriteError(ctx, h.logg, w, err)
		return
	}
	responses.WriteSuccessStatus(w, http.StatusCreated, tax)
}

func (h *Rules) UpdateTax(w http.ResponseWriter, r *http.Request) {
	var input rules.TaxInput
	h.withBody(w, r, &input, func(ctx context.Context, id uint) (any, error) {
		return h.svc.UpdateTax(ctx, id, input)
	})
}

func (h *Rules) SetTaxActive(w http.ResponseWriter, r *http.Request) {
	var req activeRequest
	h.withBody(w, r, &req, func(ctx context.Context, id uint) (any, error) {
		return h.svc.SetTaxActive(ctx, id, *req.IsActive)
	})
}

func (h *Rules) DeleteTax(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, h.svc.DeleteTax)
}

func (h *Rules) withID(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id uint) (any, error)) {
	id, err := validators.URLParamID(r, "id")
	if err != nil {
		responses.WriteError(r.Context(), h.logg, w, err)
		return
	}
	out, err := fn(r.Context(), id)
	h.write(w, r, out, err)
}

// withBody decodes the JSON body into dest before calling fn.
func (h *Rules) withBody(w http.ResponseWriter, r *http.Request, dest any, fn func(ctx context.Context, id uint) (any, error)) {
	id, err := validators.URLParamID(r, "id")
	if err != nil {
		responses.WriteError(r.Context(), h.logg, w, err)
		return
	}
	if err := validators.DecodeJSONBody(r, dest); err != nil {
		responses.WriteError(r.Context(), h.logg, w, err)
		return
	}
	out, err := fn(r.Context(), id)
	h.write(w, r, out, err)
}

func (h *Rules) deleteByID(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id uint) error) {
	id, err := validators.URLParamID(r, "id")
	if err != nil {
		responses.WriteError(r.Context(), h.logg, w, err)
		return
	}
	if err := fn(r.Context(), id); err != nil {
		responses.WriteError(r.Context(), h.logg, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Rules) write(w http.ResponseWriter, r *http.Request, out any, err error) {
	if err != nil {
		responses.WriteError(r.Context(), h.logg, w, err)
		return
	}
	responses.WriteSuccess(w, out)
}
