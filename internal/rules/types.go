package rules

import "github.com/shopspring/decimal"

type DiscountInput struct {
	Name         string `json:"name" validate:"required,max=100"`
	DiscountType string `json:"discount_type" validate:"omitempty,oneof=percentage fixed"`
	Value        int64  `json:"value" validate:"gte=0"`
	IsActive     *bool  `json:"is_active"`
}

type TaxInput struct {
	Name       string          `json:"name" validate:"required,max=100"`
	Percentage decimal.Decimal `json:"percentage"`
	IsActive   *bool           `json:"is_active"`
}
