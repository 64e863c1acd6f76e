package orders

import (
	"context"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

type orderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uint) (*models.Order, error)
	FindDetailed(ctx context.Context, id uint) (*models.Order, error)
	MarkPaid(ctx context.Context, id uint) (bool, error)
	SetDiscount(ctx context.Context, orderID uint, discountID *uint) error
	SetTax(ctx context.Context, orderID uint, taxID *uint) error
	List(ctx context.Context, isPaid *bool, cursor *pagination.Cursor, limit int) ([]models.Order, error)
}

// RuleLookup resolves pricing rules before they are attached to an order.
type RuleLookup interface {
	GetDiscount(ctx context.Context, id uint) (*models.Discount, error)
	GetTax(ctx context.Context, id uint) (*models.Tax, error)
}

// PaidRecorder observes orders transitioning to paid.
type PaidRecorder interface {
	IncOrderPaid(source string)
}

// Service exposes order reads and the admin-side order mutations.
type Service interface {
	GetDetailed(ctx context.Context, id uint) (*models.Order, error)
	GetSummary(ctx context.Context, id uint) (*OrderSummary, error)
	List(ctx context.Context, params ListParams) (OrderPage, error)
	// MarkPaid sets is_paid; it is idempotent and reports whether this call
	// performed the transition.
	MarkPaid(ctx context.Context, id uint, source enums.PaidSource) (bool, error)
	AttachDiscount(ctx context.Context, orderID uint, discountID *uint) (*OrderSummary, error)
	AttachTax(ctx context.Context, orderID uint, taxID *uint) (*OrderSummary, error)
}

type service struct {
	repo    orderRepository
	rules   RuleLookup
	metrics PaidRecorder
	logg    *logger.Logger
}

func NewService(repo orderRepository, rules RuleLookup, metrics PaidRecorder, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order repository is required")
	}
	if rules == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rule lookup is required")
	}
	return &service{repo: repo, rules: rules, metrics: metrics, logg: logg}, nil
}

func (s *service) GetDetailed(ctx context.Context, id uint) (*models.Order, error) {
	order, err := s.repo.FindDetailed(ctx, id)
	if err != nil {
		return nil, mapLoadError(err)
	}
	return order, nil
}

func (s *service) GetSummary(ctx context.Context, id uint) (*OrderSummary, error) {
	order, err := s.GetDetailed(ctx, id)
	if err != nil {
		return nil, err
	}
	summary := Summarize(order)
	return &summary, nil
}

func (s *service) List(ctx context.Context, params ListParams) (OrderPage, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return OrderPage{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	size := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.List(ctx, params.IsPaid, cursor, size+1)
	if err != nil {
		return OrderPage{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	page := OrderPage{Orders: make([]OrderSummary, 0, len(rows))}
	if len(rows) > size {
		last := rows[size-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		rows = rows[:size]
	}
	for i := range rows {
		page.Orders = append(page.Orders, Summarize(&rows[i]))
	}
	return page, nil
}

func (s *service) MarkPaid(ctx context.Context, id uint, source enums.PaidSource) (bool, error) {
	if !source.IsValid() {
		return false, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid paid source %q", source)
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return false, mapLoadError(err)
	}
	changed, err := s.repo.MarkPaid(ctx, id)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
	}
	if changed {
		if s.metrics != nil {
			s.metrics.IncOrderPaid(string(source))
		}
		if s.logg != nil {
			logCtx := s.logg.WithOrderID(ctx, id)
			logCtx = s.logg.WithField(logCtx, "source", string(source))
			s.logg.Info(logCtx, "order marked paid")
		}
	}
	return changed, nil
}

func (s *service) AttachDiscount(ctx context.Context, orderID uint, discountID *uint) (*OrderSummary, error) {
	if err := s.ensureUnpaid(ctx, orderID); err != nil {
		return nil, err
	}
	if discountID != nil {
		if _, err := s.rules.GetDiscount(ctx, *discountID); err != nil {
			return nil, err
		}
	}
	if err := s.repo.SetDiscount(ctx, orderID, discountID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach discount")
	}
	return s.GetSummary(ctx, orderID)
}

func (s *service) AttachTax(ctx context.Context, orderID uint, taxID *uint) (*OrderSummary, error) {
	if err := s.ensureUnpaid(ctx, orderID); err != nil {
		return nil, err
	}
	if taxID != nil {
		if _, err := s.rules.GetTax(ctx, *taxID); err != nil {
			return nil, err
		}
	}
	if err := s.repo.SetTax(ctx, orderID, taxID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach tax")
	}
	return s.GetSummary(ctx, orderID)
}

func (s *service) ensureUnpaid(ctx context.Context, orderID uint) error {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return mapLoadError(err)
	}
	if order.IsPaid {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order is already paid")
	}
	return nil
}

func mapLoadError(err error) error {
	if db.IsNotFound(err) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
}
