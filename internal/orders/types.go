package orders

import (
	"time"

	"github.com/angelmondragon/storefront-backend/internal/pricing"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// LineSummary is one priced order line.
type LineSummary struct {
	ItemID      uint   `json:"item_id"`
	Name        string `json:"name"`
	UnitPrice   int64  `json:"unit_price"`
	Quantity    int    `json:"quantity"`
	LineTotal   int64  `json:"line_total"`
	UnitDollars string `json:"unit_price_dollars"`
}

// OrderSummary is an order with its computed totals.
type OrderSummary struct {
	ID        uint                 `json:"id"`
	CreatedAt time.Time            `json:"created_at"`
	IsPaid    bool                 `json:"is_paid"`
	Discount  *models.Discount     `json:"discount,omitempty"`
	Tax       *models.Tax          `json:"tax,omitempty"`
	Lines     []LineSummary        `json:"lines"`
	Totals    types.TotalsResponse `json:"totals"`
	Dollars   pricing.DollarTotals `json:"totals_dollars"`
}

// OrderPage is one page of orders, newest first.
type OrderPage struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// ListParams filters the admin order list.
type ListParams struct {
	IsPaid *bool
	Cursor string
	Limit  int
}

// TotalsResponse converts engine totals into the JSON shape shared by the
// storefront and admin API.
func TotalsResponse(t pricing.Totals) types.TotalsResponse {
	return types.TotalsResponse{
		Subtotal:              t.Subtotal,
		DiscountAmount:        t.DiscountAmount,
		SubtotalAfterDiscount: t.SubtotalAfterDiscount,
		TaxAmount:             t.TaxAmount,
		Total:                 t.Total,
	}
}

// Summarize prices a fully loaded order.
func Summarize(order *models.Order) OrderSummary {
	totals := pricing.ForOrder(order)
	out := OrderSummary{
		ID:        order.ID,
		CreatedAt: order.CreatedAt,
		IsPaid:    order.IsPaid,
		Discount:  order.Discount,
		Tax:       order.Tax,
		Lines:     make([]LineSummary, 0, len(order.Items)),
		Totals:    TotalsResponse(totals),
		Dollars:   totals.Dollars(),
	}
	for _, oi := range order.Items {
		line := LineSummary{
			ItemID:      oi.ItemID,
			UnitPrice:   oi.UnitPrice(),
			Quantity:    oi.Quantity,
			LineTotal:   oi.UnitPrice() * int64(oi.Quantity),
			UnitDollars: pricing.FormatDollars(oi.UnitPrice()),
		}
		if oi.Item != nil {
			line.Name = oi.Item.Name
		}
		out.Lines = append(out.Lines, line)
	}
	return out
}
