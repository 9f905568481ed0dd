package services

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/maisonarome/storefront/models"
	"github.com/maisonarome/storefront/repository"
)

// AddressService manages a user's saved shipping addresses.
type AddressService interface {
	Create(ctx context.Context, userID string, req *models.AddressRequest) (*models.Address, *ServiceError)
	List(ctx context.Context, userID string) ([]models.Address, *ServiceError)
	Update(ctx context.Context, userID, addressID string, req *models.AddressRequest) (*models.Address, *ServiceError)
	Delete(ctx context.Context, userID, addressID string) *ServiceError
	SetDefault(ctx context.Context, userID, addressID string) *ServiceError
}

type addressServiceImpl struct {
	repo   repository.AddressRepository
	logger *zap.Logger
}

// NewAddressService creates a new AddressService.
func NewAddressService(repo repository.AddressRepository, logger *zap.Logger) AddressService {
	return &addressServiceImpl{repo: repo, logger: logger}
}

func fromAddressRequest(userID string, req *models.AddressRequest) *models.Address {
	return &models.Address{
		UserID:     userID,
		Name:       req.Name,
		Phone:      req.Phone,
		Street1:    req.Street1,
		Street2:    req.Street2,
		City:       req.City,
		State:      req.State,
		PostalCode: req.PostalCode,
		Country:    req.Country,
		Default:    req.Default,
	}
}

func (s *addressServiceImpl) Create(ctx context.Context, userID string, req *models.AddressRequest) (*models.Address, *ServiceError) {
	address := fromAddressRequest(userID, req)
	if err := s.repo.Create(ctx, address); err != nil {
		s.logger.Error("Failed to create address", zap.String("user_id", userID), zap.Error(err))
		return nil, NewServiceError(http.StatusInternalServerError, "Failed to save address")
	}
	return address, nil
}

func (s *addressServiceImpl) List(ctx context.Context, userID string) ([]models.Address, *ServiceError) {
	addresses, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to list addresses", zap.String("user_id", userID), zap.Error(err))
		return nil, NewServiceError(http.StatusInternalServerError, "Failed to fetch addresses")
	}
	return addresses, nil
}

func (s *addressServiceImpl) Update(ctx context.Context, userID, addressID string, req *models.AddressRequest) (*models.Address, *ServiceError) {
	existing, err := s.repo.FindByID(ctx, userID, addressID)
	if err != nil {
		return nil, NewServiceError(http.StatusNotFound, "Address not found")
	}

	address := fromAddressRequest(userID, req)
	address.ID = existing.ID
	address.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(ctx, address); err != nil {
		if errors.Is(err, repository.ErrAddressNotFound) {
			return nil, NewServiceError(http.StatusNotFound, "Address not found")
		}
		s.logger.Error("Failed to update address", zap.String("user_id", userID), zap.Error(err))
		return nil, NewServiceError(http.StatusInternalServerError, "Failed to update address")
	}
	return address, nil
}

func (s *addressServiceImpl) Delete(ctx context.Context, userID, addressID string) *ServiceError {
	if err := s.repo.Delete(ctx, userID, addressID); err != nil {
		if errors.Is(err, repository.ErrAddressNotFound) {
			return NewServiceError(http.StatusNotFound, "Address not found")
		}
		s.logger.Error("Failed to delete address", zap.String("user_id", userID), zap.Error(err))
		return NewServiceError(http.StatusInternalServerError, "Failed to delete address")
	}
	return nil
}

func (s *addressServiceImpl) SetDefault(ctx context.Context, userID, addressID string) *ServiceError {
	if err := s.repo.SetDefault(ctx, userID, addressID); err != nil {
		if errors.Is(err, repository.ErrAddressNotFound) {
			return NewServiceError(http.StatusNotFound, "Address not found")
		}
		s.logger.Error("Failed to set default address", zap.String("user_id", userID), zap.Error(err))
		return NewServiceError(http.StatusInternalServerError, "Failed to update address")
	}
	return nil
}
