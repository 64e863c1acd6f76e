package models

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Discount reduces an order subtotal either by a percentage or a fixed amount
// in minor units. StripeCouponID caches the remote coupon once created.
type Discount struct {
	ID             uint               `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name           string             `gorm:"column:name;size:100;not null" json:"name"`
	DiscountType   enums.DiscountType `gorm:"column:discount_type;size:10;not null;default:'percentage'" json:"discount_type"`
	Value          int64              `gorm:"column:value;not null;check:value >= 0" json:"value"`
	StripeCouponID *string            `gorm:"column:stripe_coupon_id;size:255" json:"stripe_coupon_id,omitempty"`
	IsActive       bool               `gorm:"column:is_active;not null" json:"is_active"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Discount) TableName() string { return "discounts" }
