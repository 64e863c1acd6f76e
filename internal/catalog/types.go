package catalog

import "github.com/angelmondragon/storefront-backend/pkg/db/models"

// ItemInput is the writable shape of an item.
type ItemInput struct {
	Name        string `json:"name" validate:"required,max=60"`
	Description string `json:"description" validate:"max=1000"`
	Price       int64  `json:"price" validate:"gte=0,lte=99999999"`
}

// ItemPage is one page of the catalog listing.
type ItemPage struct {
	Items      []models.Item `json:"items"`
	NextCursor uint          `json:"next_cursor,omitempty"`
}
