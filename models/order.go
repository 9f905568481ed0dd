package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderStatus enumerates the order lifecycle. Transitions move strictly
// forward, with cancellation allowed at any point before delivery.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var orderStatusRank = map[OrderStatus]int{
	OrderStatusPending:    0,
	OrderStatusConfirmed:  1,
	OrderStatusProcessing: 2,
	OrderStatusShipped:    3,
	OrderStatusDelivered:  4,
}

// CanTransitionTo reports whether a status change is allowed: forward-only
// through the rank order, with the cancellation escape available until the
// order is delivered.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s == OrderStatusCancelled || s == OrderStatusDelivered {
		return false
	}
	if next == OrderStatusCancelled {
		return true
	}
	from, ok := orderStatusRank[s]
	if !ok {
		return false
	}
	to, ok := orderStatusRank[next]
	if !ok {
		return false
	}
	return to > from
}

// PaymentMethod enumerates the accepted payment methods.
type PaymentMethod string

const (
	PaymentMethodCard       PaymentMethod = "card"
	PaymentMethodUPI        PaymentMethod = "upi"
	PaymentMethodNetBanking PaymentMethod = "netbanking"
	PaymentMethodWallet     PaymentMethod = "wallet"
	PaymentMethodCOD        PaymentMethod = "cod"
)

// Order is the checkout snapshot persisted in Postgres. Line prices are
// captured at purchase time and never re-read from the catalogue.
type Order struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderNumber    string         `gorm:"uniqueIndex;not null" json:"order_number"`
	UserID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Status         OrderStatus    `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	PaymentMethod  PaymentMethod  `gorm:"type:varchar(20);not null" json:"payment_method"`
	Subtotal       float64        `gorm:"not null" json:"subtotal"`
	Discount       float64        `gorm:"not null;default:0" json:"discount"`
	CouponCode     string         `gorm:"size:64" json:"coupon_code,omitempty"`
	ShippingCost   float64        `gorm:"not null;default:0" json:"shipping_cost"`
	Tax            float64        `gorm:"not null;default:0" json:"tax"`
	ProcessingFee  float64        `gorm:"not null;default:0" json:"processing_fee"`
	Total          float64        `gorm:"not null" json:"total"`
	AddressJSON    string         `gorm:"type:jsonb" json:"-"`
	TrackingNumber string         `gorm:"size:256" json:"tracking_number,omitempty"`
	CancelledAt    *time.Time     `json:"cancelled_at,omitempty"`
	DeliveredAt    *time.Time     `json:"delivered_at,omitempty"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	OrderItems     []OrderItem    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
}

// OrderItem is one captured cart line within an order.
type OrderItem struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null" json:"product_id"`
	VariantID uuid.UUID `gorm:"type:uuid;not null" json:"variant_id"`
	Name      string    `gorm:"not null" json:"name"`
	Size      string    `gorm:"size:20;not null" json:"size"`
	Price     float64   `gorm:"not null" json:"price"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	ImageURL  string    `gorm:"size:1024" json:"image_url,omitempty"`
}

// UpdateOrderStatusRequest is the admin payload for advancing an order.
type UpdateOrderStatusRequest struct {
	Status         OrderStatus `json:"status" binding:"required,oneof=pending confirmed processing shipped delivered cancelled"`
	TrackingNumber string      `json:"tracking_number"`
}
