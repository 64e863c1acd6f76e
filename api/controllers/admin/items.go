package admin

import (
	"context"
	"math"
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

type catalogService interface {
	GetItem(ctx context.Context, id uint) (*models.Item, error)
	ListItems(ctx context.Context, afterID uint, limit int) (catalog.ItemPage, error)
	CreateItem(ctx context.Context, input catalog.ItemInput) (*models.Item, error)
	UpdateItem(ctx context.Context, id uint, input catalog.ItemInput) (*models.Item, error)
	DeleteItem(ctx context.Context, id uint) error
}

// Items groups the catalog handlers.
type Items struct {
	svc  catalogService
	logg *logger.Logger
}

func NewItems(svc catalogService, logg *logger.Logger) *Items {
	return &Items{svc: svc, logg: logg}
}

func (h *Items) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		responses.WriteError(ctx, h.logg, w, err)
		return
	}
	after, err := validators.ParseQueryInt(r, "cursor", 0, 0, math.MaxInt32)
	if err != nil {
		responses.WriteError(ctx, h.logg, w, err)
		return
	}
	page, err := h.svc.ListItems(ctx, uint(after), limit)
	if err != nil {
		responses.WriteError(ctx, h.logg, w, err)
		return
	}
	responses.WriteSuccess(w, page)
}

func (h *Items) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := validators.URLParamID(r, "id")
	if err != nil {
		responses.WriteError(ctx, h.logg, w, err)
		return
	}
	item, err := h.svc.GetItem(ctx, id)
	if err != nil {
		responses.WriteError(ctx, h.logg, w, err)
		return
	}
	responses.WriteSuccess(w, item)
}

func (h *Items) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var input catalog.ItemInput
	if err := validators.DecodeJSONBody(r, &input); err != nil {
		responses.WriteError(ctx, h.logg, w, err)
		return
	}
	item, err := h.svc.CreateItem(ctx, input)
	if err != nil {
		responses.WriteError(ctx, h.logg, w, err)
		return
	}
	responses.WriteSuccessStatus(w, http.StatusCreated, item)
}

func (h *Items) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := validators.URLParamID(r, "id")
	if err != nil {
		responses.WriteError(ctx, h.logg, w, err)
		return
	}
	var input catalog.ItemInput
	if err := validators.DecodeJSONBody(r, &input); err != nil {
		responses.WriteError(ctx, h.logg, w, err)
		return
	}
	item, err := h.svc.UpdateItem(ctx, id, input)
	if err != nil {
		responses.WriteError(ctx, h.logg, w, err)
		return
	}
	responses.WriteSuccess(w, item)
}

func (h *Items) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := validators.URLParamID(r, "id")
	if err != nil {
		responses.WriteError(ctx, h.logg, w, err)
		return
	}
	if err := h.svc.DeleteItem(ctx, id); err != nil {
		responses.WriteError(ctx, h.logg, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
