package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Review is a product review left by a verified account.
type Review struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID    uuid.UUID      `gorm:"type:uuid;not null;index:idx_reviews_product_user,unique" json:"product_id"`
	UserID       uuid.UUID      `gorm:"type:uuid;not null;index:idx_reviews_product_user,unique" json:"user_id"`
	UserName     string         `gorm:"size:100" json:"user_name"`
	Rating       int            `gorm:"not null" json:"rating"`
	Title        string         `gorm:"size:200" json:"title"`
	Comment      string         `gorm:"type:text" json:"comment"`
	HelpfulCount int            `gorm:"not null;default:0" json:"helpful_count"`
	Reported     bool           `gorm:"not null;default:false" json:"-"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// SubmitReviewRequest is the payload for posting a review.
type SubmitReviewRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Rating    int       `json:"rating" binding:"required,min=1,max=5"`
	Title     string    `json:"title" binding:"max=200"`
	Comment   string    `json:"comment" binding:"max=4000"`
}

// ReviewListFilter captures list-by-product query parameters.
type ReviewListFilter struct {
	ProductID uuid.UUID
	Sort      string // "newest", "helpful", "rating_high", "rating_low"
	Page      int
	Limit     int
}
