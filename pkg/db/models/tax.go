package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tax is an exclusive percentage applied after discounts, e.g. 8.25.
type Tax struct {
	ID              uint            `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name            string          `gorm:"column:name;size:100;not null" json:"name"`
	Percentage      decimal.Decimal `gorm:"column:percentage;type:numeric(5,2);not null" json:"percentage"`
	StripeTaxRateID *string         `gorm:"column:stripe_tax_rate_id;size:255" json:"stripe_tax_rate_id,omitempty"`
	IsActive        bool            `gorm:"column:is_active;not null" json:"is_active"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Tax) TableName() string { return "taxes" }
