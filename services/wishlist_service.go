package services

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/maisonarome/storefront/models"
	"github.com/maisonarome/storefront/repository"
)

// WishlistEntry is a wishlist row joined with its current product state.
type WishlistEntry struct {
	Item    models.WishlistItem `json:"item"`
	Product *models.Product     `json:"product,omitempty"`
}

// WishlistService manages per-user wishlists.
type WishlistService interface {
	Add(ctx context.Context, userID, productID uuid.UUID) *ServiceError
	Remove(ctx context.Context, userID, productID uuid.UUID) *ServiceError
	Toggle(ctx context.Context, userID, productID uuid.UUID) (bool, *ServiceError)
	Contains(ctx context.Context, userID, productID uuid.UUID) (bool, *ServiceError)
	List(ctx context.Context, userID uuid.UUID) ([]WishlistEntry, *models.WishlistStats, *ServiceError)
}

type wishlistServiceImpl struct {
	wishlistRepo repository.WishlistRepository
	productRepo  repository.ProductRepository
	logger       *zap.Logger
}

// NewWishlistService creates a new WishlistService.
func NewWishlistService(wishlistRepo repository.WishlistRepository, productRepo repository.ProductRepository, logger *zap.Logger) WishlistService {
	return &wishlistServiceImpl{wishlistRepo: wishlistRepo, productRepo: productRepo, logger: logger}
}

// Add pins a product. Adding an already-pinned product is a no-op.
func (s *wishlistServiceImpl) Add(ctx context.Context, userID, productID uuid.UUID) *ServiceError {
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return NewServiceError(http.StatusNotFound, "Product not found")
	}
	if err := s.wishlistRepo.Add(ctx, &models.WishlistItem{UserID: userID, ProductID: productID}); err != nil {
		s.logger.Error("Failed to add wishlist item", zap.Error(err))
		return NewServiceError(http.StatusInternalServerError, "Failed to update wishlist")
	}
	return nil
}

func (s *wishlistServiceImpl) Remove(ctx context.Context, userID, productID uuid.UUID) *ServiceError {
	if err := s.wishlistRepo.Remove(ctx, userID, productID); err != nil {
		s.logger.Error("Failed to remove wishlist item", zap.Error(err))
		return NewServiceError(http.StatusInternalServerError, "Failed to update wishlist")
	}
	return nil
}

// Toggle flips the pinned state, returning the new state.
func (s *wishlistServiceImpl) Toggle(ctx context.Context, userID, productID uuid.UUID) (bool, *ServiceError) {
	pinned, err := s.wishlistRepo.Contains(ctx, userID, productID)
	if err != nil {
		s.logger.Error("Failed to check wishlist", zap.Error(err))
		return false, NewServiceError(http.StatusInternalServerError, "Failed to update wishlist")
	}
	if pinned {
		return false, s.Remove(ctx, userID, productID)
	}
	return true, s.Add(ctx, userID, productID)
}

func (s *wishlistServiceImpl) Contains(ctx context.Context, userID, productID uuid.UUID) (bool, *ServiceError) {
	pinned, err := s.wishlistRepo.Contains(ctx, userID, productID)
	if err != nil {
		s.logger.Error("Failed to check wishlist", zap.Error(err))
		return false, NewServiceError(http.StatusInternalServerError, "Failed to check wishlist")
	}
	return pinned, nil
}

// List returns the wishlist with product details and summary stats. The
// value and stock counts use each product's cheapest variant.
func (s *wishlistServiceImpl) List(ctx context.Context, userID uuid.UUID) ([]WishlistEntry, *models.WishlistStats, *ServiceError) {
	items, err := s.wishlistRepo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to list wishlist", zap.Error(err))
		return nil, nil, NewServiceError(http.StatusInternalServerError, "Failed to fetch wishlist")
	}

	stats := &models.WishlistStats{TotalItems: len(items)}
	entries := make([]WishlistEntry, 0, len(items))
	for _, item := range items {
		entry := WishlistEntry{Item: item}
		if product, err := s.productRepo.FindByID(ctx, item.ProductID); err == nil {
			entry.Product = product
			price, inStock := cheapestVariant(product)
			stats.TotalValue += price
			if inStock {
				stats.InStock++
			} else {
				stats.OutOfStock++
			}
		} else {
			stats.OutOfStock++
		}
		entries = append(entries, entry)
	}
	return entries, stats, nil
}

func cheapestVariant(product *models.Product) (price float64, inStock bool) {
	for _, v := range product.Variants {
		if price == 0 || v.Price < price {
			price = v.Price
		}
		if v.Stock > 0 {
			inStock = true
		}
	}
	return price, inStock && product.Active
}
