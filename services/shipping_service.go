package services

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/maisonarome/storefront/models"
	"github.com/maisonarome/storefront/providers"
	"github.com/maisonarome/storefront/repository"
)

const defaultUnitWeightKg = 0.35

// ShippingService quotes shipping options for a cart and destination and
// exposes carrier tracking.
type ShippingService interface {
	GetOptions(ctx context.Context, userID string, req *models.ShippingOptionsRequest, cart *models.Cart) ([]models.ShippingOption, *ServiceError)
	Track(ctx context.Context, carrier, trackingCode string) (providers.TrackingStatus, *ServiceError)
}

type shippingServiceImpl struct {
	provider    providers.ShippingProvider
	addressRepo repository.AddressRepository
	productRepo repository.ProductRepository
	origin      models.Address
	logger      *zap.Logger
}

// NewShippingService creates a new ShippingService.
func NewShippingService(
	provider providers.ShippingProvider,
	addressRepo repository.AddressRepository,
	productRepo repository.ProductRepository,
	origin models.Address,
	logger *zap.Logger,
) ShippingService {
	return &shippingServiceImpl{
		provider:    provider,
		addressRepo: addressRepo,
		productRepo: productRepo,
		origin:      origin,
		logger:      logger,
	}
}

// GetOptions resolves the destination (a saved address or a bare postal
// code) and asks the carrier for rates on the cart's parcel weight.
func (s *shippingServiceImpl) GetOptions(ctx context.Context, userID string, req *models.ShippingOptionsRequest, cart *models.Cart) ([]models.ShippingOption, *ServiceError) {
	if cart == nil || len(cart.Items) == 0 {
		return nil, NewServiceError(http.StatusBadRequest, "Cart is empty")
	}

	destination := models.Address{PostalCode: req.PostalCode, Country: s.origin.Country}
	if req.AddressID != "" {
		addr, err := s.addressRepo.FindByID(ctx, userID, req.AddressID)
		if err != nil {
			return nil, NewServiceError(http.StatusNotFound, "Address not found")
		}
		destination = *addr
	}

	weight := s.parcelWeight(ctx, cart)

	options, err := s.provider.GetRates(ctx, weight, s.origin, destination)
	if err != nil {
		s.logger.Error("Failed to fetch shipping rates", zap.Error(err))
		return nil, NewServiceError(http.StatusBadGateway, "Failed to fetch shipping options")
	}
	if len(options) == 0 {
		return nil, NewServiceError(http.StatusUnprocessableEntity, "No shipping options for this destination")
	}
	return options, nil
}

// Track proxies a tracking lookup to the carrier.
func (s *shippingServiceImpl) Track(ctx context.Context, carrier, trackingCode string) (providers.TrackingStatus, *ServiceError) {
	status, err := s.provider.TrackShipment(ctx, carrier, trackingCode)
	if err != nil {
		s.logger.Error("Tracking lookup failed", zap.String("tracking_code", trackingCode), zap.Error(err))
		return providers.TrackingStatus{}, NewServiceError(http.StatusBadGateway, "Failed to fetch tracking status")
	}
	return status, nil
}

// parcelWeight sums the variant weights across the cart, falling back to a
// default per-unit weight when a variant cannot be resolved.
func (s *shippingServiceImpl) parcelWeight(ctx context.Context, cart *models.Cart) float64 {
	var weight float64
	for _, item := range cart.Items {
		unitWeight := defaultUnitWeightKg
		if variant, err := s.productRepo.FindVariant(ctx, item.ProductID, item.Size); err == nil && variant.WeightKg > 0 {
			unitWeight = variant.WeightKg
		}
		weight += unitWeight * float64(item.Quantity)
	}
	return weight
}
