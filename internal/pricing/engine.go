// Package pricing derives order totals from line items and optional discount
// and tax rules. All amounts are integer minor units; results are never stored.
package pricing

import (
	"math"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

const (
	// MaxQuantity bounds a single cart line.
	MaxQuantity = 9999
	// MaxUnitPrice is the largest item price in minor units, the provider's
	// per-line unit amount limit.
	MaxUnitPrice int64 = 99_999_999

	// maxSubtotal leaves room for a 100% tax on top without overflowing.
	maxSubtotal int64 = math.MaxInt64 / 2
)

var (
	hundred  = decimal.NewFromInt(100)
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
)

// Line is one priced cart entry.
type Line struct {
	UnitPrice int64
	Quantity  int
}

// DiscountRule is the pricing view of a discount.
type DiscountRule struct {
	Type   enums.DiscountType
	Value  int64
	Active bool
}

// Amount returns the reduction for subtotal: floor(subtotal*value/100) for
// percentages and min(value, subtotal) for fixed amounts, never above subtotal.
func (d DiscountRule) Amount(subtotal int64) int64 {
	if !d.Active || subtotal <= 0 || d.Value <= 0 {
		return 0
	}
	var amount int64
	switch d.Type {
	case enums.DiscountTypeFixed:
		amount = d.Value
	default:
		amount = decimal.NewFromInt(subtotal).
			Mul(decimal.NewFromInt(d.Value)).
			Div(hundred).
			Floor().
			IntPart()
	}
	if amount > subtotal {
		return subtotal
	}
	return amount
}

// TaxRule is the pricing view of an exclusive tax.
type TaxRule struct {
	Percentage decimal.Decimal
	Active     bool
}

// Amount returns floor(base*percentage/100).
func (t TaxRule) Amount(base int64) int64 {
	if !t.Active || base <= 0 || !t.Percentage.IsPositive() {
		return 0
	}
	amount := decimal.NewFromInt(base).Mul(t.Percentage).Div(hundred).Floor()
	if amount.GreaterThan(maxInt64) {
		return math.MaxInt64
	}
	return amount.IntPart()
}

type Totals struct {
	Subtotal              int64
	DiscountAmount        int64
	SubtotalAfterDiscount int64
	TaxAmount             int64
	Total                 int64
}

// Compute runs subtotal → discount → tax → total. Nil or inactive rules
// contribute nothing and non-positive quantities are ignored. The subtotal
// saturates instead of overflowing so every amount stays non-negative.
func Compute(lines []Line, discount *DiscountRule, tax *TaxRule) Totals {
	var t Totals
	for _, line := range lines {
		if line.Quantity <= 0 || line.UnitPrice <= 0 {
			continue
		}
		t.Subtotal = addCapped(t.Subtotal, lineAmount(line))
	}

	if discount != nil {
		t.DiscountAmount = discount.Amount(t.Subtotal)
	}
	t.SubtotalAfterDiscount = t.Subtotal - t.DiscountAmount

	if tax != nil {
		t.TaxAmount = tax.Amount(t.SubtotalAfterDiscount)
		if t.TaxAmount > math.MaxInt64-t.SubtotalAfterDiscount {
			t.TaxAmount = math.MaxInt64 - t.SubtotalAfterDiscount
		}
	}
	t.Total = t.SubtotalAfterDiscount + t.TaxAmount
	return t
}

func lineAmount(line Line) int64 {
	qty := int64(line.Quantity)
	if line.UnitPrice > maxSubtotal/qty {
		return maxSubtotal
	}
	return line.UnitPrice * qty
}

func addCapped(a, b int64) int64 {
	if a > maxSubtotal-b {
		return maxSubtotal
	}
	return a + b
}

// DollarTotals mirrors Totals as two-decimal major-unit strings for display.
type DollarTotals struct {
	Subtotal              string `json:"subtotal"`
	DiscountAmount        string `json:"discount_amount"`
	SubtotalAfterDiscount string `json:"subtotal_after_discount"`
	TaxAmount             string `json:"tax_amount"`
	Total                 string `json:"total"`
}

func (t Totals) Dollars() DollarTotals {
	return DollarTotals{
		Subtotal:              FormatDollars(t.Subtotal),
		DiscountAmount:        FormatDollars(t.DiscountAmount),
		SubtotalAfterDiscount: FormatDollars(t.SubtotalAfterDiscount),
		TaxAmount:             FormatDollars(t.TaxAmount),
		Total:                 FormatDollars(t.Total),
	}
}

// FormatDollars renders minor units as a fixed two-decimal amount, e.g. 4374 → "43.74".
func FormatDollars(minor int64) string {
	return decimal.New(minor, -2).StringFixed(2)
}
