package cart

import (
	"context"
	"testing"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/pricing"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type memorySessions struct {
	bindings map[string]uint
}

func newMemorySessions() *memorySessions {
	return &memorySessions{bindings: map[string]uint{}}
}

func (m *memorySessions) OrderID(_ context.Context, sessionID string) (uint, bool, error) {
	id, ok := m.bindings[sessionID]
	return id, ok, nil
}

func (m *memorySessions) SetOrderID(_ context.Context, sessionID string, orderID uint) error {
	m.bindings[sessionID] = orderID
	return nil
}

func (m *memorySessions) Clear(_ context.Context, sessionID string) error {
	delete(m.bindings, sessionID)
	return nil
}

// staleReads hides loaded lines so the duplicate check falls through to the
// unique constraint, as a concurrent add would.
type staleReads struct {
	*orders.Repository
}

func (s staleReads) FindDetailed(ctx context.Context, id uint) (*models.Order, error) {
	order, err := s.Repository.FindDetailed(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Items = nil
	return order, nil
}

type harness struct {
	conn     *gorm.DB
	repo     *orders.Repository
	sessions *memorySessions
	svc      Service
	itemA    *models.Item
	itemB    *models.Item
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	conn := dbtest.Open(t)
	items, err := catalog.NewService(catalog.NewRepository(conn))
	require.NoError(t, err)

	h := &harness{conn: conn, repo: orders.NewRepository(conn), sessions: newMemorySessions()}
	h.svc, err = NewService(h.repo, items, h.sessions, nil)
	require.NoError(t, err)

	ctx := context.Background()
	h.itemA, err = items.CreateItem(ctx, catalog.ItemInput{Name: "Item A", Price: 1000})
	require.NoError(t, err)
	h.itemB, err = items.CreateItem(ctx, catalog.ItemInput{Name: "Item B", Price: 2500})
	require.NoError(t, err)
	return h
}

func TestAddToCartCreatesAndBindsOrder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res, err := h.svc.AddToCart(ctx, "sid-1", h.itemA.ID)
	require.NoError(t, err)
	assert.False(t, res.AlreadyInCart)
	assert.Equal(t, "Item A", res.ItemName)
	assert.Equal(t, h.sessions.bindings["sid-1"], res.OrderID)

	res2, err := h.svc.AddToCart(ctx, "sid-1", h.itemB.ID)
	require.NoError(t, err)
	assert.Equal(t, res.OrderID, res2.OrderID)

	order, err := h.svc.GetOrderFromSession(ctx, "sid-1")
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Len(t, order.Items, 2)
}

func TestAddToCartTwiceKeepsQuantityOne(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.AddToCart(ctx, "sid", h.itemA.ID)
	require.NoError(t, err)
	res, err := h.svc.AddToCart(ctx, "sid", h.itemA.ID)
	require.NoError(t, err)
	assert.True(t, res.AlreadyInCart)
	assert.Equal(t, "Item A", res.ItemName)

	qty, err := h.svc.LineQuantity(ctx, res.OrderID, h.itemA.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, qty)
}

func TestAddToCartUniqueRaceReportsAlreadyInCart(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	items, err := catalog.NewService(catalog.NewRepository(h.conn))
	require.NoError(t, err)
	svc, err := NewService(staleReads{h.repo}, items, h.sessions, nil)
	require.NoError(t, err)

	_, err = svc.AddToCart(ctx, "sid", h.itemA.ID)
	require.NoError(t, err)
	res, err := svc.AddToCart(ctx, "sid", h.itemA.ID)
	require.NoError(t, err)
	assert.True(t, res.AlreadyInCart)

	var count int64
	require.NoError(t, h.conn.Model(&models.OrderItem{}).Where("order_id = ?", res.OrderID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

// blindSessions reports no binding for the first reads, as two requests that
// both read the session before either one binds an order.
type blindSessions struct {
	*memorySessions
	blindReads int
}

func (b *blindSessions) OrderID(ctx context.Context, sessionID string) (uint, bool, error) {
	if b.blindReads > 0 {
		b.blindReads--
		return 0, false, nil
	}
	return b.memorySessions.OrderID(ctx, sessionID)
}

func TestConcurrentFirstAddsKeepLastBinding(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	items, err := catalog.NewService(catalog.NewRepository(h.conn))
	require.NoError(t, err)
	sessions := &blindSessions{memorySessions: newMemorySessions(), blindReads: 2}
	svc, err := NewService(h.repo, items, sessions, nil)
	require.NoError(t, err)

	first, err := svc.AddToCart(ctx, "sid", h.itemA.ID)
	require.NoError(t, err)
	second, err := svc.AddToCart(ctx, "sid", h.itemB.ID)
	require.NoError(t, err)
	require.NotEqual(t, first.OrderID, second.OrderID)

	// no locking: the later binding wins and the earlier order is orphaned
	bound, ok, err := sessions.OrderID(ctx, "sid")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, second.OrderID, bound)

	order, err := svc.GetOrderFromSession(ctx, "sid")
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, h.itemB.ID, order.Items[0].ItemID)

	orphan, err := h.repo.FindDetailed(ctx, first.OrderID)
	require.NoError(t, err)
	require.Len(t, orphan.Items, 1)
	assert.Equal(t, h.itemA.ID, orphan.Items[0].ItemID)
}

func TestAddUnknownItem(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.AddToCart(context.Background(), "sid", 999)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Empty(t, h.sessions.bindings)
}

func TestChangeQuantity(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	res, err := h.svc.AddToCart(ctx, "sid", h.itemA.ID)
	require.NoError(t, err)

	change, err := h.svc.ChangeQuantity(ctx, res.OrderID, h.itemA.ID, 3)
	require.NoError(t, err)
	assert.False(t, change.Removed)
	assert.Equal(t, 3, change.Quantity)
	assert.Equal(t, int64(3000), change.Totals.Total)

	change, err = h.svc.ChangeQuantity(ctx, res.OrderID, h.itemA.ID, 0)
	require.NoError(t, err)
	assert.True(t, change.Removed)
	assert.Zero(t, change.Totals.Total)

	_, err = h.svc.LineQuantity(ctx, res.OrderID, h.itemA.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestChangeQuantityAboveLimitIsRejected(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	res, err := h.svc.AddToCart(ctx, "sid", h.itemA.ID)
	require.NoError(t, err)

	_, err = h.svc.ChangeQuantity(ctx, res.OrderID, h.itemA.ID, 2_000_000_000)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	qty, err := h.svc.LineQuantity(ctx, res.OrderID, h.itemA.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, qty)
}

func TestTotalsAtPriceAndQuantityLimits(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	items, err := catalog.NewService(catalog.NewRepository(h.conn))
	require.NoError(t, err)
	pricey, err := items.CreateItem(ctx, catalog.ItemInput{Name: "Pricey", Price: pricing.MaxUnitPrice})
	require.NoError(t, err)

	res, err := h.svc.AddToCart(ctx, "sid", pricey.ID)
	require.NoError(t, err)
	change, err := h.svc.ChangeQuantity(ctx, res.OrderID, pricey.ID, pricing.MaxQuantity)
	require.NoError(t, err)

	totals := change.Totals
	assert.Equal(t, pricing.MaxUnitPrice*pricing.MaxQuantity, totals.Subtotal)
	assert.Equal(t, totals.Subtotal, totals.Total)
	assert.GreaterOrEqual(t, totals.Total, int64(0))
}

func TestNegativeQuantityRemovesLine(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	res, err := h.svc.AddToCart(ctx, "sid", h.itemB.ID)
	require.NoError(t, err)

	change, err := h.svc.ChangeQuantity(ctx, res.OrderID, h.itemB.ID, -4)
	require.NoError(t, err)
	assert.True(t, change.Removed)
}

func TestDeleteItem(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	res, err := h.svc.AddToCart(ctx, "sid", h.itemA.ID)
	require.NoError(t, err)
	_, err = h.svc.AddToCart(ctx, "sid", h.itemB.ID)
	require.NoError(t, err)

	change, err := h.svc.DeleteItem(ctx, res.OrderID, h.itemA.ID)
	require.NoError(t, err)
	assert.True(t, change.Removed)
	assert.Equal(t, int64(2500), change.Totals.Subtotal)

	_, err = h.svc.DeleteItem(ctx, res.OrderID, h.itemA.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestChangeOnPaidOrderConflicts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	res, err := h.svc.AddToCart(ctx, "sid", h.itemA.ID)
	require.NoError(t, err)
	_, err = h.repo.MarkPaid(ctx, res.OrderID)
	require.NoError(t, err)

	_, err = h.svc.ChangeQuantity(ctx, res.OrderID, h.itemA.ID, 2)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	_, err = h.svc.DeleteItem(ctx, res.OrderID, h.itemA.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestPaidOrStaleBindingStartsFreshCart(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	res, err := h.svc.AddToCart(ctx, "sid", h.itemA.ID)
	require.NoError(t, err)
	_, err = h.repo.MarkPaid(ctx, res.OrderID)
	require.NoError(t, err)

	order, err := h.svc.GetOrderFromSession(ctx, "sid")
	require.NoError(t, err)
	assert.Nil(t, order)
	assert.NotContains(t, h.sessions.bindings, "sid")

	fresh, err := h.svc.AddToCart(ctx, "sid", h.itemA.ID)
	require.NoError(t, err)
	assert.NotEqual(t, res.OrderID, fresh.OrderID)
	assert.False(t, fresh.AlreadyInCart)

	h.sessions.bindings["ghost"] = 9999
	order, err = h.svc.GetOrderFromSession(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, order)
}

func TestTotalsFollowAttachedRules(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	res, err := h.svc.AddToCart(ctx, "sid", h.itemA.ID)
	require.NoError(t, err)

	discount := &models.Discount{Name: "Five", DiscountType: enums.DiscountTypeFixed, Value: 500, IsActive: true}
	require.NoError(t, h.conn.Create(discount).Error)
	tax := &models.Tax{Name: "Sales", Percentage: decimal.RequireFromString("8.25"), IsActive: true}
	require.NoError(t, h.conn.Create(tax).Error)
	require.NoError(t, h.repo.SetDiscount(ctx, res.OrderID, &discount.ID))
	require.NoError(t, h.repo.SetTax(ctx, res.OrderID, &tax.ID))

	change, err := h.svc.ChangeQuantity(ctx, res.OrderID, h.itemA.ID, 2)
	require.NoError(t, err)
	// 2000 - 500 = 1500; 8.25% of 1500 = 123.75 floors to 123.
	assert.Equal(t, int64(1500), change.Totals.SubtotalAfterDiscount)
	assert.Equal(t, int64(123), change.Totals.TaxAmount)
	assert.Equal(t, int64(1623), change.Totals.Total)
}
