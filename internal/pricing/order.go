package pricing

import "github.com/angelmondragon/storefront-backend/pkg/db/models"

// ForOrder computes totals from an order with its lines, items, discount and
// tax preloaded.
func ForOrder(order *models.Order) Totals {
	if order == nil {
		return Totals{}
	}
	return Compute(LinesFromOrder(order), DiscountFromModel(order.Discount), TaxFromModel(order.Tax))
}

func LinesFromOrder(order *models.Order) []Line {
	lines := make([]Line, 0, len(order.Items))
	for _, oi := range order.Items {
		lines = append(lines, Line{UnitPrice: oi.UnitPrice(), Quantity: oi.Quantity})
	}
	return lines
}

func DiscountFromModel(d *models.Discount) *DiscountRule {
	if d == nil {
		return nil
	}
	return &DiscountRule{Type: d.DiscountType, Value: d.Value, Active: d.IsActive}
}

func TaxFromModel(t *models.Tax) *TaxRule {
	if t == nil {
		return nil
	}
	return &TaxRule{Percentage: t.Percentage, Active: t.IsActive}
}
