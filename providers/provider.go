// Package providers holds carrier integrations for shipping rate quotes
// and shipment tracking.
package providers

import (
	"context"
	"time"

	"github.com/maisonarome/storefront/models"
)

// TrackingStatus is the current state of a shipment at the carrier.
type TrackingStatus struct {
	TrackingCode string    `json:"tracking_code"`
	Status       string    `json:"status"`
	SubStatus    string    `json:"sub_status,omitempty"`
	Location     string    `json:"location,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
	Carrier      string    `json:"carrier"`
}

// ShippingProvider defines the interface all carrier integrations implement.
type ShippingProvider interface {
	// GetRates returns the shipping options for a parcel of the given
	// weight between the two addresses.
	GetRates(ctx context.Context, weightKg float64, origin, destination models.Address) ([]models.ShippingOption, error)

	// TrackShipment returns the current tracking status for a tracking code.
	TrackShipment(ctx context.Context, carrier, trackingCode string) (TrackingStatus, error)
}
