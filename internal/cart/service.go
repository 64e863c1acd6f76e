// Package cart binds an anonymous browser session to its open order and
// manages the order's lines.
package cart

import (
	"context"

	"github.com/angelmondragon/storefront-backend/internal/pricing"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const lineUniqueConstraint = "order_items_order_item_unique"

var lineUniqueColumns = []string{"order_items.order_id", "order_items.item_id"}

// SessionStore persists which order a browser session is building.
type SessionStore interface {
	OrderID(ctx context.Context, sessionID string) (uint, bool, error)
	SetOrderID(ctx context.Context, sessionID string, orderID uint) error
	Clear(ctx context.Context, sessionID string) error
}

type orderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uint) (*models.Order, error)
	FindDetailed(ctx context.Context, id uint) (*models.Order, error)
	FindLine(ctx context.Context, orderID, itemID uint) (*models.OrderItem, error)
	CreateLine(ctx context.Context, line *models.OrderItem) error
	UpdateLineQuantity(ctx context.Context, orderID, itemID uint, quantity int) error
	DeleteLine(ctx context.Context, orderID, itemID uint) error
}

type itemLoader interface {
	GetItem(ctx context.Context, id uint) (*models.Item, error)
}

// AddResult describes the outcome of adding an item to the session cart.
type AddResult struct {
	OrderID       uint
	ItemID        uint
	ItemName      string
	AlreadyInCart bool
}

// LineChange is the state of a line after a quantity change or removal,
// with the recomputed order totals.
type LineChange struct {
	Removed  bool
	Quantity int
	Totals   pricing.Totals
}

// Service is the cart surface used by the storefront and admin controllers.
type Service interface {
	// GetOrderFromSession returns the unpaid order bound to sessionID with
	// lines and rules loaded, or nil when there is none.
	GetOrderFromSession(ctx context.Context, sessionID string) (*models.Order, error)
	CreateOrderAndSaveToSession(ctx context.Context, sessionID string) (*models.Order, error)
	AddToCart(ctx context.Context, sessionID string, itemID uint) (AddResult, error)
	// ChangeQuantity sets the line quantity; values <= 0 remove the line.
	ChangeQuantity(ctx context.Context, orderID, itemID uint, quantity int) (LineChange, error)
	DeleteItem(ctx context.Context, orderID, itemID uint) (LineChange, error)
	// LineQuantity returns the stored quantity of a line.
	LineQuantity(ctx context.Context, orderID, itemID uint) (int, error)
	ClearSession(ctx context.Context, sessionID string) error
}

type service struct {
	orders   orderRepository
	items    itemLoader
	sessions SessionStore
	logg     *logger.Logger
}

func NewService(orders orderRepository, items itemLoader, sessions SessionStore, logg *logger.Logger) (Service, error) {
	if orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order repository is required")
	}
	if items == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item loader is required")
	}
	if sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session store is required")
	}
	return &service{orders: orders, items: items, sessions: sessions, logg: logg}, nil
}

func (s *service) GetOrderFromSession(ctx context.Context, sessionID string) (*models.Order, error) {
	if sessionID == "" {
		return nil, nil
	}
	orderID, ok, err := s.sessions.OrderID(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read session")
	}
	if !ok {
		return nil, nil
	}

	order, err := s.orders.FindDetailed(ctx, orderID)
	if err != nil {
		if db.IsNotFound(err) {
			s.dropBinding(ctx, sessionID)
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session order")
	}
	if order.IsPaid {
		s.dropBinding(ctx, sessionID)
		return nil, nil
	}
	return order, nil
}

func (s *service) CreateOrderAndSaveToSession(ctx context.Context, sessionID string) (*models.Order, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	order := &models.Order{}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}
	if err := s.sessions.SetOrderID(ctx, sessionID, order.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "bind order to session")
	}
	if s.logg != nil {
		logCtx := s.logg.WithOrderID(s.logg.WithSessionID(ctx, sessionID), order.ID)
		s.logg.Info(logCtx, "cart order created")
	}
	return order, nil
}

func (s *service) AddToCart(ctx context.Context, sessionID string, itemID uint) (AddResult, error) {
	item, err := s.items.GetItem(ctx, itemID)
	if err != nil {
		return AddResult{}, err
	}

	order, err := s.GetOrderFromSession(ctx, sessionID)
	if err != nil {
		return AddResult{}, err
	}
	if order == nil {
		order, err = s.CreateOrderAndSaveToSession(ctx, sessionID)
		if err != nil {
			return AddResult{}, err
		}
	}

	result := AddResult{OrderID: order.ID, ItemID: item.ID, ItemName: item.Name}
	if _, found := order.FindItem(item.ID); found {
		result.AlreadyInCart = true
		return result, nil
	}

	line := &models.OrderItem{OrderID: order.ID, ItemID: item.ID, Quantity: 1}
	if err := s.orders.CreateLine(ctx, line); err != nil {
		if db.IsUniqueViolation(err, lineUniqueConstraint, lineUniqueColumns...) {
			result.AlreadyInCart = true
			return result, nil
		}
		return AddResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart line")
	}
	return result, nil
}

func (s *service) ChangeQuantity(ctx context.Context, orderID, itemID uint, quantity int) (LineChange, error) {
	if quantity > pricing.MaxQuantity {
		return LineChange{}, pkgerrors.Newf(pkgerrors.CodeValidation, "quantity must be at most %d", pricing.MaxQuantity)
	}
	if err := s.ensureEditableLine(ctx, orderID, itemID); err != nil {
		return LineChange{}, err
	}
	if quantity <= 0 {
		if err := s.orders.DeleteLine(ctx, orderID, itemID); err != nil {
			return LineChange{}, mapLineError(err, "remove cart line")
		}
		return s.change(ctx, orderID, LineChange{Removed: true})
	}
	if err := s.orders.UpdateLineQuantity(ctx, orderID, itemID, quantity); err != nil {
		return LineChange{}, mapLineError(err, "update cart line")
	}
	return s.change(ctx, orderID, LineChange{Quantity: quantity})
}

func (s *service) DeleteItem(ctx context.Context, orderID, itemID uint) (LineChange, error) {
	if err := s.ensureEditableLine(ctx, orderID, itemID); err != nil {
		return LineChange{}, err
	}
	if err := s.orders.DeleteLine(ctx, orderID, itemID); err != nil {
		return LineChange{}, mapLineError(err, "remove cart line")
	}
	return s.change(ctx, orderID, LineChange{Removed: true})
}

func (s *service) LineQuantity(ctx context.Context, orderID, itemID uint) (int, error) {
	line, err := s.orders.FindLine(ctx, orderID, itemID)
	if err != nil {
		return 0, mapLineError(err, "load cart line")
	}
	return line.Quantity, nil
}

func (s *service) ClearSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Clear(ctx, sessionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear session")
	}
	return nil
}

func (s *service) ensureEditableLine(ctx context.Context, orderID, itemID uint) error {
	if _, err := s.orders.FindLine(ctx, orderID, itemID); err != nil {
		return mapLineError(err, "load cart line")
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return mapLineError(err, "load order")
	}
	if order.IsPaid {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order is already paid")
	}
	return nil
}

func (s *service) change(ctx context.Context, orderID uint, out LineChange) (LineChange, error) {
	order, err := s.orders.FindDetailed(ctx, orderID)
	if err != nil {
		return LineChange{}, mapLineError(err, "load order")
	}
	out.Totals = pricing.ForOrder(order)
	return out, nil
}

func (s *service) dropBinding(ctx context.Context, sessionID string) {
	if err := s.sessions.Clear(ctx, sessionID); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithSessionID(ctx, sessionID), "failed to clear stale session binding: "+err.Error())
	}
}

func mapLineError(err error, op string) error {
	if db.IsNotFound(err) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "cart line not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}
