package models

import (
	"time"

	"github.com/google/uuid"
)

// WishlistItem pins a product to a user's wishlist. One row per
// (user, product) pair.
type WishlistItem struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_wishlist_user_product,unique" json:"user_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index:idx_wishlist_user_product,unique" json:"product_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// WishlistAddRequest is the payload for adding a product to the wishlist.
type WishlistAddRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
}

// WishlistStats summarises a user's wishlist.
type WishlistStats struct {
	TotalItems int     `json:"total_items"`
	TotalValue float64 `json:"total_value"`
	InStock    int     `json:"in_stock"`
	OutOfStock int     `json:"out_of_stock"`
}
