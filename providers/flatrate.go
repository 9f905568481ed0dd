package providers

import (
	"context"
	"time"

	"github.com/maisonarome/storefront/models"
)

// FlatRateProvider is the fallback when no carrier API key is configured.
// It quotes a standard flat-fee service and an express upgrade.
type FlatRateProvider struct {
	standardFee float64
	expressFee  float64
}

// NewFlatRateProvider creates a FlatRateProvider. The standard fee should
// match the storefront's flat shipping fee so cart and checkout agree.
func NewFlatRateProvider(standardFee float64) *FlatRateProvider {
	return &FlatRateProvider{
		standardFee: standardFee,
		expressFee:  standardFee * 3,
	}
}

// GetRates returns the two flat-rate options regardless of destination.
func (p *FlatRateProvider) GetRates(_ context.Context, _ float64, _, _ models.Address) ([]models.ShippingOption, error) {
	return []models.ShippingOption{
		{
			Provider:      "Maison Arome",
			ServiceLevel:  "Standard",
			Amount:        p.standardFee,
			Currency:      "INR",
			EstimatedDays: 5,
			RateID:        "flat-standard",
		},
		{
			Provider:      "Maison Arome",
			ServiceLevel:  "Express",
			Amount:        p.expressFee,
			Currency:      "INR",
			EstimatedDays: 2,
			RateID:        "flat-express",
		},
	}, nil
}

// TrackShipment has nothing to consult for flat-rate shipments; the order
// status is authoritative.
func (p *FlatRateProvider) TrackShipment(_ context.Context, carrier, trackingCode string) (TrackingStatus, error) {
	return TrackingStatus{
		TrackingCode: trackingCode,
		Status:       "UNKNOWN",
		UpdatedAt:    time.Now(),
		Carrier:      carrier,
	}, nil
}
