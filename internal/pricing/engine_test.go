package pricing

import (
	"math"
	"math/rand"
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

func percent(v int64) *DiscountRule {
	return &DiscountRule{Type: enums.DiscountTypePercentage, Value: v, Active: true}
}

func fixed(v int64) *DiscountRule {
	return &DiscountRule{Type: enums.DiscountTypeFixed, Value: v, Active: true}
}

func taxRule(pct string) *TaxRule {
	return &TaxRule{Percentage: decimal.RequireFromString(pct), Active: true}
}

func TestDiscountAmount(t *testing.T) {
	tests := []struct {
		name     string
		rule     DiscountRule
		subtotal int64
		want     int64
	}{
		{"percentage", *percent(20), 10000, 2000},
		{"percentage floors", *percent(10), 999, 99},
		{"percentage above 100 capped", *percent(150), 1000, 1000},
		{"fixed below subtotal", *fixed(500), 1000, 500},
		{"fixed capped at subtotal", *fixed(1500), 1000, 1000},
		{"zero subtotal", *percent(50), 0, 0},
		{"inactive", DiscountRule{Type: enums.DiscountTypeFixed, Value: 500}, 1000, 0},
	}
	for _, tt := range tests {
		if got := tt.rule.Amount(tt.subtotal); got != tt.want {
			t.Fatalf("%s: expected %d, got %d", tt.name, tt.want, got)
		}
	}
}

func TestTaxAmount(t *testing.T) {
	tests := []struct {
		pct  string
		base int64
		want int64
	}{
		{"8.25", 10000, 825},
		{"8", 4050, 324},
		{"7.5", 999, 74},
		{"0", 10000, 0},
	}
	for _, tt := range tests {
		if got := taxRule(tt.pct).Amount(tt.base); got != tt.want {
			t.Fatalf("tax %s%% of %d: expected %d, got %d", tt.pct, tt.base, tt.want, got)
		}
	}

	inactive := TaxRule{Percentage: decimal.NewFromInt(20)}
	if got := inactive.Amount(10000); got != 0 {
		t.Fatalf("inactive tax should contribute 0, got %d", got)
	}
}

func TestComputeEndToEnd(t *testing.T) {
	lines := []Line{
		{UnitPrice: 1000, Quantity: 2},
		{UnitPrice: 2500, Quantity: 1},
	}

	got := Compute(lines, percent(10), taxRule("8"))
	want := Totals{
		Subtotal:              4500,
		DiscountAmount:        450,
		SubtotalAfterDiscount: 4050,
		TaxAmount:             324,
		Total:                 4374,
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestComputeWithoutRules(t *testing.T) {
	got := Compute([]Line{{UnitPrice: 499, Quantity: 3}, {UnitPrice: 100, Quantity: 0}, {UnitPrice: 100, Quantity: -2}}, nil, nil)
	if got.Subtotal != 1497 || got.Total != 1497 || got.DiscountAmount != 0 || got.TaxAmount != 0 {
		t.Fatalf("unexpected totals %+v", got)
	}
	if empty := Compute(nil, percent(10), taxRule("8")); empty != (Totals{}) {
		t.Fatalf("expected zero totals for empty cart, got %+v", empty)
	}
}

func TestComputeInactiveRulesContributeNothing(t *testing.T) {
	d := percent(50)
	d.Active = false
	tx := taxRule("20")
	tx.Active = false

	got := Compute([]Line{{UnitPrice: 1000, Quantity: 1}}, d, tx)
	if got.DiscountAmount != 0 || got.TaxAmount != 0 || got.Total != 1000 {
		t.Fatalf("inactive rules should be ignored, got %+v", got)
	}
}

func TestComputeInvariantHolds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		var lines []Line
		for n := rng.Intn(5); n > 0; n-- {
			lines = append(lines, Line{UnitPrice: rng.Int63n(100000), Quantity: rng.Intn(6) - 1})
		}
		var d *DiscountRule
		switch rng.Intn(3) {
		case 0:
			d = percent(rng.Int63n(150))
		case 1:
			d = fixed(rng.Int63n(50000))
		}
		var tx *TaxRule
		if rng.Intn(2) == 0 {
			tx = &TaxRule{Percentage: decimal.New(rng.Int63n(3000), -2), Active: rng.Intn(4) != 0}
		}

		got := Compute(lines, d, tx)
		if got.Total != got.Subtotal-got.DiscountAmount+got.TaxAmount {
			t.Fatalf("invariant broken: %+v", got)
		}
		if got.Subtotal < 0 || got.DiscountAmount < 0 || got.TaxAmount < 0 || got.Total < 0 {
			t.Fatalf("negative amount: %+v", got)
		}
		if got.DiscountAmount > got.Subtotal {
			t.Fatalf("discount exceeds subtotal: %+v", got)
		}
	}
}

func TestComputeAtLineCaps(t *testing.T) {
	got := Compute([]Line{{UnitPrice: MaxUnitPrice, Quantity: MaxQuantity}}, percent(10), taxRule("8.25"))
	if got.Subtotal != 999_899_990_001 {
		t.Fatalf("expected exact subtotal at caps, got %d", got.Subtotal)
	}
	if got.Total != got.Subtotal-got.DiscountAmount+got.TaxAmount {
		t.Fatalf("invariant broken: %+v", got)
	}
}

func TestComputeSaturatesInsteadOfOverflowing(t *testing.T) {
	cases := [][]Line{
		{{UnitPrice: 5_000_000_000, Quantity: 2_000_000_000}},
		{{UnitPrice: math.MaxInt64, Quantity: 1}, {UnitPrice: math.MaxInt64, Quantity: 3}},
		{{UnitPrice: math.MaxInt64 / 3, Quantity: 1}, {UnitPrice: math.MaxInt64 / 3, Quantity: 1}},
	}
	for i, lines := range cases {
		got := Compute(lines, fixed(100), taxRule("100"))
		if got.Subtotal < 0 || got.DiscountAmount < 0 || got.TaxAmount < 0 || got.Total < 0 {
			t.Fatalf("case %d: negative amount: %+v", i, got)
		}
		if got.Total != got.Subtotal-got.DiscountAmount+got.TaxAmount {
			t.Fatalf("case %d: invariant broken: %+v", i, got)
		}
	}
}

func TestTaxAmountSaturates(t *testing.T) {
	if got := taxRule("1000").Amount(math.MaxInt64); got != math.MaxInt64 {
		t.Fatalf("expected saturated tax, got %d", got)
	}
}

func TestDollars(t *testing.T) {
	d := Totals{Subtotal: 4500, DiscountAmount: 450, SubtotalAfterDiscount: 4050, TaxAmount: 324, Total: 4374}.Dollars()
	if d.Total != "43.74" || d.Subtotal != "45.00" || d.TaxAmount != "3.24" {
		t.Fatalf("unexpected dollars %+v", d)
	}
	if FormatDollars(5) != "0.05" {
		t.Fatalf("unexpected format %q", FormatDollars(5))
	}
}

func TestForOrder(t *testing.T) {
	order := &models.Order{
		Items: []models.OrderItem{
			{Quantity: 2, Item: &models.Item{Price: 1000}},
			{Quantity: 1, Item: &models.Item{Price: 2500}},
		},
		Discount: &models.Discount{DiscountType: enums.DiscountTypePercentage, Value: 10, IsActive: true},
		Tax:      &models.Tax{Percentage: decimal.NewFromInt(8), IsActive: true},
	}
	if got := ForOrder(order); got.Total != 4374 {
		t.Fatalf("expected total 4374, got %+v", got)
	}
	if got := ForOrder(nil); got != (Totals{}) {
		t.Fatalf("expected zero totals for nil order, got %+v", got)
	}
}
