package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is a perfume listed in the catalogue. Pricing and stock live on
// the size variants; the product row carries shared metadata and review
// aggregates.
type Product struct {
	ID          uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string           `gorm:"not null;index" json:"name"`
	Brand       string           `gorm:"size:100;index" json:"brand"`
	Category    string           `gorm:"size:100;index" json:"category"`
	Description string           `gorm:"type:text" json:"description"`
	ImageURL    string           `gorm:"size:1024" json:"image_url"`
	Featured    bool             `gorm:"default:false" json:"featured"`
	Active      bool             `gorm:"default:true" json:"active"`
	AvgRating   float64          `gorm:"default:0" json:"avg_rating"`
	ReviewCount int              `gorm:"default:0" json:"review_count"`
	Variants    []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"variants"`
	CreatedAt   time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt   `gorm:"index" json:"-"`
}

// ProductVariant is one orderable size of a product (e.g. "50ml", "100ml").
type ProductVariant struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID     uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	Size          string    `gorm:"size:20;not null" json:"size"`
	Price         float64   `gorm:"not null" json:"price"`
	OriginalPrice float64   `gorm:"not null" json:"original_price"`
	Stock         int       `gorm:"not null;default:0" json:"stock"`
	WeightKg      float64   `gorm:"not null;default:0.35" json:"weight_kg"`
	MaxPerOrder   int       `gorm:"not null;default:10" json:"max_per_order"`
}

// ProductFilter captures list query parameters.
type ProductFilter struct {
	Category string
	Search   string
	Brand    string
	MinPrice float64
	MaxPrice float64
	Sort     string // "price_asc", "price_desc", "rating", "newest"
	Featured *bool
	Page     int
	Limit    int
}

// CreateProductRequest is the admin payload for creating a product.
type CreateProductRequest struct {
	Name        string                 `json:"name" binding:"required,min=2,max=200"`
	Brand       string                 `json:"brand" binding:"required"`
	Category    string                 `json:"category" binding:"required"`
	Description string                 `json:"description"`
	ImageURL    string                 `json:"image_url"`
	Featured    bool                   `json:"featured"`
	Variants    []CreateVariantRequest `json:"variants" binding:"required,min=1,dive"`
}

// CreateVariantRequest is one size variant in a product payload.
type CreateVariantRequest struct {
	Size          string  `json:"size" binding:"required"`
	Price         float64 `json:"price" binding:"required,gt=0"`
	OriginalPrice float64 `json:"original_price" binding:"omitempty,gt=0"`
	Stock         int     `json:"stock" binding:"gte=0"`
	WeightKg      float64 `json:"weight_kg" binding:"omitempty,gt=0"`
	MaxPerOrder   int     `json:"max_per_order" binding:"omitempty,gt=0"`
}

// UpdateProductRequest is the admin payload for partial product updates.
type UpdateProductRequest struct {
	Name        *string `json:"name"`
	Brand       *string `json:"brand"`
	Category    *string `json:"category"`
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url"`
	Featured    *bool   `json:"featured"`
	Active      *bool   `json:"active"`
}
