package services

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/maisonarome/storefront/models"
	"github.com/maisonarome/storefront/repository"
)

// ReviewService manages product reviews and keeps the product rating
// aggregates in step with them.
type ReviewService interface {
	Submit(ctx context.Context, userID uuid.UUID, userName string, req *models.SubmitReviewRequest) (*models.Review, *ServiceError)
	ListByProduct(ctx context.Context, filter models.ReviewListFilter) ([]models.Review, int64, *ServiceError)
	MarkHelpful(ctx context.Context, reviewID uuid.UUID) *ServiceError
	Report(ctx context.Context, reviewID uuid.UUID) *ServiceError
	Delete(ctx context.Context, reviewID, userID uuid.UUID, isAdmin bool) *ServiceError
}

type reviewServiceImpl struct {
	reviewRepo  repository.ReviewRepository
	productRepo repository.ProductRepository
	logger      *zap.Logger
}

// NewReviewService creates a new ReviewService.
func NewReviewService(reviewRepo repository.ReviewRepository, productRepo repository.ProductRepository, logger *zap.Logger) ReviewService {
	return &reviewServiceImpl{reviewRepo: reviewRepo, productRepo: productRepo, logger: logger}
}

// Submit creates a review, one per (product, user). The product's average
// rating and review count refresh immediately.
func (s *reviewServiceImpl) Submit(ctx context.Context, userID uuid.UUID, userName string, req *models.SubmitReviewRequest) (*models.Review, *ServiceError) {
	if _, err := s.productRepo.FindByID(ctx, req.ProductID); err != nil {
		return nil, NewServiceError(http.StatusNotFound, "Product not found")
	}

	if existing, err := s.reviewRepo.FindByProductAndUser(ctx, req.ProductID, userID); err == nil && existing != nil {
		return nil, NewServiceError(http.StatusConflict, "You have already reviewed this product")
	}

	review := &models.Review{
		ProductID: req.ProductID,
		UserID:    userID,
		UserName:  userName,
		Rating:    req.Rating,
		Title:     strings.TrimSpace(req.Title),
		Comment:   strings.TrimSpace(req.Comment),
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		if strings.Contains(err.Error(), "duplicate") || strings.Contains(err.Error(), "unique") {
			return nil, NewServiceError(http.StatusConflict, "You have already reviewed this product")
		}
		s.logger.Error("Failed to create review", zap.Error(err))
		return nil, NewServiceError(http.StatusInternalServerError, "Failed to submit review")
	}

	s.refreshAggregates(ctx, req.ProductID)
	return review, nil
}

func (s *reviewServiceImpl) ListByProduct(ctx context.Context, filter models.ReviewListFilter) ([]models.Review, int64, *ServiceError) {
	reviews, total, err := s.reviewRepo.ListByProduct(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list reviews", zap.Error(err))
		return nil, 0, NewServiceError(http.StatusInternalServerError, "Failed to fetch reviews")
	}
	return reviews, total, nil
}

func (s *reviewServiceImpl) MarkHelpful(ctx context.Context, reviewID uuid.UUID) *ServiceError {
	if err := s.reviewRepo.IncrementHelpful(ctx, reviewID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NewServiceError(http.StatusNotFound, "Review not found")
		}
		s.logger.Error("Failed to mark review helpful", zap.Error(err))
		return NewServiceError(http.StatusInternalServerError, "Failed to update review")
	}
	return nil
}

func (s *reviewServiceImpl) Report(ctx context.Context, reviewID uuid.UUID) *ServiceError {
	if err := s.reviewRepo.MarkReported(ctx, reviewID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NewServiceError(http.StatusNotFound, "Review not found")
		}
		s.logger.Error("Failed to report review", zap.Error(err))
		return NewServiceError(http.StatusInternalServerError, "Failed to report review")
	}
	return nil
}

// Delete removes a review. Users can delete their own; admins can delete
// any. Aggregates refresh afterwards.
func (s *reviewServiceImpl) Delete(ctx context.Context, reviewID, userID uuid.UUID, isAdmin bool) *ServiceError {
	review, err := s.reviewRepo.FindByID(ctx, reviewID)
	if err != nil {
		return NewServiceError(http.StatusNotFound, "Review not found")
	}
	if !isAdmin && review.UserID != userID {
		return NewServiceError(http.StatusForbidden, "You can only delete your own reviews")
	}

	if err := s.reviewRepo.Delete(ctx, reviewID); err != nil {
		s.logger.Error("Failed to delete review", zap.Error(err))
		return NewServiceError(http.StatusInternalServerError, "Failed to delete review")
	}

	s.refreshAggregates(ctx, review.ProductID)
	return nil
}

// refreshAggregates recomputes the product's rating summary from the
// surviving reviews. Failures are logged; the next write repairs them.
func (s *reviewServiceImpl) refreshAggregates(ctx context.Context, productID uuid.UUID) {
	avg, count, err := s.reviewRepo.Aggregate(ctx, productID)
	if err != nil {
		s.logger.Error("Failed to aggregate reviews", zap.String("product_id", productID.String()), zap.Error(err))
		return
	}
	avg = math.Round(avg*10) / 10
	if err := s.productRepo.UpdateRating(ctx, productID, avg, count); err != nil {
		s.logger.Error("Failed to update product rating", zap.String("product_id", productID.String()), zap.Error(err))
	}
}
