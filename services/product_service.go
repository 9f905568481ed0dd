package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/maisonarome/storefront/models"
	"github.com/maisonarome/storefront/repository"
)

// ProductService serves the catalogue.
type ProductService interface {
	List(ctx context.Context, filter models.ProductFilter) ([]models.Product, int64, *ServiceError)
	Get(ctx context.Context, id uuid.UUID) (*models.Product, *ServiceError)

	Create(ctx context.Context, req *models.CreateProductRequest) (*models.Product, *ServiceError)
	Update(ctx context.Context, id uuid.UUID, req *models.UpdateProductRequest) (*models.Product, *ServiceError)
	Delete(ctx context.Context, id uuid.UUID) *ServiceError
}

type productServiceImpl struct {
	repo   repository.ProductRepository
	logger *zap.Logger
}

// NewProductService creates a new ProductService.
func NewProductService(repo repository.ProductRepository, logger *zap.Logger) ProductService {
	return &productServiceImpl{repo: repo, logger: logger}
}

func (s *productServiceImpl) List(ctx context.Context, filter models.ProductFilter) ([]models.Product, int64, *ServiceError) {
	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list products", zap.Error(err))
		return nil, 0, NewServiceError(http.StatusInternalServerError, "Failed to fetch products")
	}
	return products, total, nil
}

func (s *productServiceImpl) Get(ctx context.Context, id uuid.UUID) (*models.Product, *ServiceError) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewServiceError(http.StatusNotFound, "Product not found")
		}
		s.logger.Error("Failed to fetch product", zap.String("product_id", id.String()), zap.Error(err))
		return nil, NewServiceError(http.StatusInternalServerError, "Failed to fetch product")
	}
	return product, nil
}

func (s *productServiceImpl) Create(ctx context.Context, req *models.CreateProductRequest) (*models.Product, *ServiceError) {
	if len(req.Variants) == 0 {
		return nil, NewServiceError(http.StatusBadRequest, "Product needs at least one size variant")
	}
	seen := make(map[string]bool, len(req.Variants))
	for _, v := range req.Variants {
		if seen[v.Size] {
			return nil, NewServiceError(http.StatusBadRequest, "Duplicate size variant: "+v.Size)
		}
		seen[v.Size] = true
	}

	product := &models.Product{
		Name:        req.Name,
		Brand:       req.Brand,
		Description: req.Description,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
		Featured:    req.Featured,
		Active:      true,
	}
	for _, v := range req.Variants {
		product.Variants = append(product.Variants, models.ProductVariant{
			Size:          v.Size,
			Price:         v.Price,
			OriginalPrice: v.OriginalPrice,
			Stock:         v.Stock,
			WeightKg:      v.WeightKg,
			MaxPerOrder:   v.MaxPerOrder,
		})
	}

	if err := s.repo.Create(ctx, product); err != nil {
		s.logger.Error("Failed to create product", zap.Error(err))
		return nil, NewServiceError(http.StatusInternalServerError, "Failed to create product")
	}

	s.logger.Info("Product created", zap.String("product_id", product.ID.String()), zap.String("name", product.Name))
	return product, nil
}

func (s *productServiceImpl) Update(ctx context.Context, id uuid.UUID, req *models.UpdateProductRequest) (*models.Product, *ServiceError) {
	product, svcErr := s.Get(ctx, id)
	if svcErr != nil {
		return nil, svcErr
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Brand != nil {
		product.Brand = *req.Brand
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.Featured != nil {
		product.Featured = *req.Featured
	}
	if req.ImageURL != nil {
		product.ImageURL = *req.ImageURL
	}
	if req.Active != nil {
		product.Active = *req.Active
	}

	if err := s.repo.Update(ctx, product); err != nil {
		s.logger.Error("Failed to update product", zap.String("product_id", id.String()), zap.Error(err))
		return nil, NewServiceError(http.StatusInternalServerError, "Failed to update product")
	}
	return product, nil
}

func (s *productServiceImpl) Delete(ctx context.Context, id uuid.UUID) *ServiceError {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NewServiceError(http.StatusNotFound, "Product not found")
		}
		s.logger.Error("Failed to delete product", zap.String("product_id", id.String()), zap.Error(err))
		return NewServiceError(http.StatusInternalServerError, "Failed to delete product")
	}
	s.logger.Info("Product deleted", zap.String("product_id", id.String()))
	return nil
}
