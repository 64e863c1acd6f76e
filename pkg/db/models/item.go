package models

import "time"

// Item is a sellable catalog entry; Price is in minor currency units.
type Item struct {
	ID          uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"column:name;size:60;not null" json:"name"`
	Description string    `gorm:"column:description;size:1000;not null;default:''" json:"description"`
	Price       int64     `gorm:"column:price;not null;check:price >= 0" json:"price"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Item) TableName() string { return "items" }
