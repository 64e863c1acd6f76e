package models

import "time"

// Order doubles as the session cart until it is paid. Totals are never stored.
type Order struct {
	ID         uint        `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	CreatedAt  time.Time   `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	DiscountID *uint       `gorm:"column:discount_id" json:"discount_id,omitempty"`
	Discount   *Discount   `gorm:"foreignKey:DiscountID;constraint:OnDelete:SET NULL" json:"discount,omitempty"`
	TaxID      *uint       `gorm:"column:tax_id" json:"tax_id,omitempty"`
	Tax        *Tax        `gorm:"foreignKey:TaxID;constraint:OnDelete:SET NULL" json:"tax,omitempty"`
	IsPaid     bool        `gorm:"column:is_paid;not null;default:false" json:"is_paid"`
	Items      []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
}

func (Order) TableName() string { return "orders" }

// IsEmpty reports whether the order has no lines loaded.
func (o *Order) IsEmpty() bool {
	return o == nil || len(o.Items) == 0
}

// FindItem returns the line for itemID among the loaded lines.
func (o *Order) FindItem(itemID uint) (*OrderItem, bool) {
	if o == nil {
		return nil, false
	}
	for i := range o.Items {
		if o.Items[i].ItemID == itemID {
			return &o.Items[i], true
		}
	}
	return nil, false
}
