package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CouponType represents the kind of discount a coupon provides.
type CouponType string

const (
	CouponTypePercentage   CouponType = "percentage"
	CouponTypeFixed        CouponType = "fixed"
	CouponTypeFreeShipping CouponType = "freeshipping"
	CouponTypeBuy2Get1     CouponType = "buy2get1"
	CouponTypeBuy3Special  CouponType = "buy3special"
)

// Coupon is a promotional code stored in the coupons collection. Codes are
// unique case-insensitive and stored upper-cased.
type Coupon struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code           string             `bson:"code" json:"code"`
	Type           CouponType         `bson:"type" json:"type"`
	Value          float64            `bson:"value" json:"value"`
	MaxDiscount    float64            `bson:"max_discount,omitempty" json:"max_discount,omitempty"`
	SpecialPrice   float64            `bson:"special_price,omitempty" json:"special_price,omitempty"`
	MinOrderAmount float64            `bson:"min_order_amount" json:"min_order_amount"`
	UsageLimit     int                `bson:"usage_limit" json:"usage_limit"`           // 0 = unlimited
	UserUsageLimit int                `bson:"user_usage_limit" json:"user_usage_limit"` // 0 = unlimited
	UsedCount      int                `bson:"used_count" json:"used_count"`
	Active         bool               `bson:"active" json:"active"`
	StartsAt       *time.Time         `bson:"starts_at,omitempty" json:"starts_at,omitempty"`
	ExpiresAt      *time.Time         `bson:"expires_at,omitempty" json:"expires_at,omitempty"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}

// CouponUsage records one user's redemptions of a coupon, for per-user
// limit enforcement.
type CouponUsage struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Code     string             `bson:"code"`
	UserID   string             `bson:"user_id"`
	Count    int                `bson:"count"`
	LastUsed time.Time          `bson:"last_used"`
}

// CreateCouponRequest is the admin payload for creating a coupon.
type CreateCouponRequest struct {
	Code           string     `json:"code" binding:"required,min=3,max=64"`
	Type           CouponType `json:"type" binding:"required,oneof=percentage fixed freeshipping buy2get1 buy3special"`
	Value          float64    `json:"value" binding:"gte=0"`
	MaxDiscount    float64    `json:"max_discount" binding:"gte=0"`
	SpecialPrice   float64    `json:"special_price" binding:"gte=0"`
	MinOrderAmount float64    `json:"min_order_amount" binding:"gte=0"`
	UsageLimit     int        `json:"usage_limit" binding:"gte=0"`
	UserUsageLimit int        `json:"user_usage_limit" binding:"gte=0"`
	StartsAt       *time.Time `json:"starts_at"`
	ExpiresAt      *time.Time `json:"expires_at"`
}

// ApplyCouponRequest applies a coupon code to the caller's cart.
type ApplyCouponRequest struct {
	Code string `json:"code" binding:"required"`
}

// CouponEvaluation is the outcome of evaluating a coupon against a cart.
type CouponEvaluation struct {
	Valid          bool       `json:"valid"`
	Code           string     `json:"code"`
	Type           CouponType `json:"type,omitempty"`
	DiscountAmount float64    `json:"discount_amount"`
	FreeShipping   bool       `json:"free_shipping"`
	Reason         string     `json:"reason,omitempty"`
}
