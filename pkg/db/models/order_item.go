package models

// OrderItem is one cart line; (order_id, item_id) is unique.
type OrderItem struct {
	ID       uint  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	OrderID  uint  `gorm:"column:order_id;not null;uniqueIndex:order_items_order_item_unique" json:"order_id"`
	ItemID   uint  `gorm:"column:item_id;not null;uniqueIndex:order_items_order_item_unique" json:"item_id"`
	Item     *Item `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE" json:"item,omitempty"`
	Quantity int   `gorm:"column:quantity;not null;default:1;check:quantity > 0" json:"quantity"`
}

func (OrderItem) TableName() string { return "order_items" }

// UnitPrice is the current catalog price, zero when the item is not loaded.
func (oi OrderItem) UnitPrice() int64 {
	if oi.Item == nil {
		return 0
	}
	return oi.Item.Price
}
