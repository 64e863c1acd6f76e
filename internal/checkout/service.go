package checkout

import (
	"context"
	"net/url"
	"strconv"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const emptyCartMessage = "Cart is empty"

type itemLoader interface {
	GetItem(ctx context.Context, id uint) (*models.Item, error)
}

type orderLoader interface {
	FindDetailed(ctx context.Context, id uint) (*models.Order, error)
}

type paidMarker interface {
	MarkPaid(ctx context.Context, id uint, source enums.PaidSource) (bool, error)
}

type sessionRecorder interface {
	IncSessionCreated(kind string)
	IncProviderFailure(operation string)
}

// Config holds the public URLs and currency used for hosted sessions.
type Config struct {
	SuccessURL string
	CancelURL  string
	Currency   string
}

// Service starts hosted checkouts and records returning payments.
type Service interface {
	BuyItem(ctx context.Context, itemID uint) (string, error)
	BuyOrder(ctx context.Context, orderID uint) (string, error)
	// MarkPaid records payment reported by the success redirect.
	MarkPaid(ctx context.Context, orderID uint) error
}

type service struct {
	cfg      Config
	provider Provider
	refs     *RemoteRefs
	items    itemLoader
	orders   orderLoader
	paid     paidMarker
	metrics  sessionRecorder
	logg     *logger.Logger
}

type Deps struct {
	Provider Provider
	Refs     *RemoteRefs
	Items    itemLoader
	Orders   orderLoader
	Paid     paidMarker
	Metrics  sessionRecorder
	Logger   *logger.Logger
}

func NewService(cfg Config, deps Deps) (Service, error) {
	switch {
	case deps.Provider == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment provider is required")
	case deps.Refs == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "remote refs are required")
	case deps.Items == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item loader is required")
	case deps.Orders == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order loader is required")
	case deps.Paid == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "paid marker is required")
	case cfg.SuccessURL == "" || cfg.CancelURL == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "success and cancel urls are required")
	}
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	return &service{
		cfg:      cfg,
		provider: deps.Provider,
		refs:     deps.Refs,
		items:    deps.Items,
		orders:   deps.Orders,
		paid:     deps.Paid,
		metrics:  deps.Metrics,
		logg:     deps.Logger,
	}, nil
}

func (s *service) BuyItem(ctx context.Context, itemID uint) (string, error) {
	item, err := s.items.GetItem(ctx, itemID)
	if err != nil {
		return "", err
	}
	req := SessionRequest{
		Currency:   s.cfg.Currency,
		Lines:      []LineItem{{Name: item.Name, Description: item.Description, UnitAmount: item.Price, Quantity: 1}},
		SuccessURL: s.cfg.SuccessURL,
		CancelURL:  s.cfg.CancelURL,
	}
	return s.createSession(ctx, enums.CheckoutKindItem, req)
}

func (s *service) BuyOrder(ctx context.Context, orderID uint) (string, error) {
	order, err := s.orders.FindDetailed(ctx, orderID)
	if err != nil {
		if db.IsNotFound(err) {
			return "", pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order not found")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.IsEmpty() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, emptyCartMessage)
	}
	if order.IsPaid {
		return "", pkgerrors.New(pkgerrors.CodeStateConflict, "order is already paid")
	}

	var couponID string
	if order.Discount != nil && order.Discount.IsActive {
		if couponID, err = s.refs.EnsureCoupon(ctx, order.Discount); err != nil {
			return "", err
		}
	}
	var taxRateIDs []string
	if order.Tax != nil && order.Tax.IsActive {
		id, err := s.refs.EnsureTaxRate(ctx, order.Tax)
		if err != nil {
			return "", err
		}
		taxRateIDs = []string{id}
	}

	ref := strconv.FormatUint(uint64(order.ID), 10)
	req := SessionRequest{
		Currency:          s.cfg.Currency,
		Lines:             make([]LineItem, 0, len(order.Items)),
		CouponID:          couponID,
		SuccessURL:        withOrderID(s.cfg.SuccessURL, ref),
		CancelURL:         s.cfg.CancelURL,
		ClientReferenceID: ref,
		Metadata:          map[string]string{"order_id": ref},
	}
	for _, oi := range order.Items {
		line := LineItem{UnitAmount: oi.UnitPrice(), Quantity: int64(oi.Quantity), TaxRateIDs: taxRateIDs}
		if oi.Item != nil {
			line.Name = oi.Item.Name
			line.Description = oi.Item.Description
		}
		req.Lines = append(req.Lines, line)
	}

	if s.logg != nil {
		ctx = s.logg.WithOrderID(ctx, order.ID)
	}
	return s.createSession(ctx, enums.CheckoutKindOrder, req)
}

func (s *service) MarkPaid(ctx context.Context, orderID uint) error {
	_, err := s.paid.MarkPaid(ctx, orderID, enums.PaidSourceRedirect)
	return err
}

func (s *service) createSession(ctx context.Context, kind enums.CheckoutKind, req SessionRequest) (string, error) {
	id, err := s.provider.CreateCheckoutSession(ctx, req)
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncProviderFailure("create_checkout_session")
		}
		if s.logg != nil {
			s.logg.Error(s.logg.WithField(ctx, "checkout_kind", kind.String()), "checkout session failed", err)
		}
		return "", providerFailure(err)
	}
	if s.metrics != nil {
		s.metrics.IncSessionCreated(kind.String())
	}
	return id, nil
}

func withOrderID(raw, orderID string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw + "?order_id=" + orderID
	}
	q := u.Query()
	q.Set("order_id", orderID)
	u.RawQuery = q.Encode()
	return u.String()
}
