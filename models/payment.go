package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus enumerates the payment lifecycle.
const (
	PaymentStatusProcessing = "PROCESSING"
	PaymentStatusSucceeded  = "SUCCEEDED"
	PaymentStatusFailed     = "FAILED"
)

// Payment records one payment attempt against an order.
type Payment struct {
	ID             uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID        uuid.UUID     `gorm:"type:uuid;not null;index" json:"order_id"`
	UserID         uuid.UUID     `gorm:"type:uuid;not null;index" json:"user_id"`
	Method         PaymentMethod `gorm:"type:varchar(20);not null" json:"method"`
	Amount         float64       `gorm:"not null" json:"amount"`
	Currency       string        `gorm:"type:varchar(3);not null;default:'inr'" json:"currency"`
	Status         string        `gorm:"type:varchar(20);not null" json:"status"`
	StripeIntentID string        `gorm:"size:256;index" json:"-"`
	FailureReason  string        `gorm:"size:512" json:"failure_reason,omitempty"`
	CreatedAt      time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

// PaymentMethodOption describes one method offered at checkout, with its
// processing fee rule.
type PaymentMethodOption struct {
	Method     PaymentMethod `json:"method"`
	Label      string        `json:"label"`
	FeePercent float64       `json:"fee_percent,omitempty"`
	FlatFee    float64       `json:"flat_fee,omitempty"`
}

// ShippingOption is one selectable shipping service at checkout.
type ShippingOption struct {
	Provider      string  `json:"provider"`
	ServiceLevel  string  `json:"service_level"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	EstimatedDays int     `json:"estimated_days"`
	RateID        string  `json:"rate_id"`
}

// PlaceOrderRequest is the checkout payload that finalises an order.
type PlaceOrderRequest struct {
	AddressID      string        `json:"address_id" binding:"required"`
	ShippingRateID string        `json:"shipping_rate_id"`
	CouponCode     string        `json:"coupon_code"`
	PaymentMethod  PaymentMethod `json:"payment_method" binding:"required,oneof=card upi netbanking wallet cod"`
}

// ShippingOptionsRequest asks for shipping options to a destination.
type ShippingOptionsRequest struct {
	PostalCode string `json:"postal_code" binding:"required"`
	AddressID  string `json:"address_id"`
}
