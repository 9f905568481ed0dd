package models

import (
	"time"

	"github.com/google/uuid"
)

// CartLineItem is one purchasable unit in a cart. Line identity is the
// (ProductID, Size) tuple: the same product in two sizes is two lines.
type CartLineItem struct {
	ID            uuid.UUID `json:"id"`
	ProductID     uuid.UUID `json:"product_id"`
	VariantID     uuid.UUID `json:"variant_id"`
	Name          string    `json:"name"`
	Size          string    `json:"size"`
	Price         float64   `json:"price"`
	OriginalPrice float64   `json:"original_price"`
	Quantity      int       `json:"quantity"`
	ImageURL      string    `json:"image_url,omitempty"`
	Available     bool      `json:"available"`
	MaxQuantity   int       `json:"max_quantity"`
}

// Cart holds the ordered line items for one session plus derived totals.
// Derived fields are recomputed after every mutation and are never set
// independently.
type Cart struct {
	OwnerKey  string         `json:"owner_key"` // user ID or guest session token
	Items     []CartLineItem `json:"items"`
	UpdatedAt time.Time      `json:"updated_at"`

	// Derived.
	Subtotal         float64 `json:"subtotal"`
	ItemCount        int     `json:"item_count"`
	ShippingCost     float64 `json:"shipping_cost"`
	FreeShipping     bool    `json:"free_shipping"`
	Total            float64 `json:"total"`
	AmountToFreeShip float64 `json:"amount_to_free_ship"`
}

// FindLine returns the index of the line matching the (productID, size)
// tuple, or -1.
func (c *Cart) FindLine(productID uuid.UUID, size string) int {
	for i, item := range c.Items {
		if item.ProductID == productID && item.Size == size {
			return i
		}
	}
	return -1
}

// FindLineByID returns the index of the line with the given line ID, or -1.
func (c *Cart) FindLineByID(lineID uuid.UUID) int {
	for i, item := range c.Items {
		if item.ID == lineID {
			return i
		}
	}
	return -1
}

// AddItemRequest is the payload for adding an item to the cart.
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Size      string    `json:"size" binding:"required"`
	Quantity  int       `json:"quantity" binding:"omitempty,min=1"`
}

// UpdateQuantityRequest is the payload for changing a line's quantity.
// Zero or negative removes the line.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}
