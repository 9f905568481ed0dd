package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/maisonarome/storefront/models"
	"github.com/maisonarome/storefront/repository"
)

// OrderService serves order history for customers and the order pipeline
// for admins.
type OrderService interface {
	ListUserOrders(ctx context.Context, userID uuid.UUID, page, limit int) ([]models.Order, int64, *ServiceError)
	GetUserOrder(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, *ServiceError)
	CancelOrder(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, *ServiceError)

	ListAllOrders(ctx context.Context, page, limit int) ([]models.Order, int64, *ServiceError)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, *ServiceError)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, req *models.UpdateOrderStatusRequest) (*models.Order, *ServiceError)
}

type orderServiceImpl struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	events      EventPublisher
	logger      *zap.Logger
}

// NewOrderService creates a new OrderService.
func NewOrderService(orderRepo repository.OrderRepository, productRepo repository.ProductRepository, events EventPublisher, logger *zap.Logger) OrderService {
	return &orderServiceImpl{orderRepo: orderRepo, productRepo: productRepo, events: events, logger: logger}
}

func (s *orderServiceImpl) ListUserOrders(ctx context.Context, userID uuid.UUID, page, limit int) ([]models.Order, int64, *ServiceError) {
	orders, total, err := s.orderRepo.FindByUserID(ctx, userID, page, limit)
	if err != nil {
		s.logger.Error("Failed to list orders", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, 0, NewServiceError(http.StatusInternalServerError, "Failed to fetch orders")
	}
	return orders, total, nil
}

func (s *orderServiceImpl) GetUserOrder(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, *ServiceError) {
	order, err := s.orderRepo.FindByIDAndUserID(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewServiceError(http.StatusNotFound, "Order not found")
		}
		s.logger.Error("Failed to fetch order", zap.String("order_id", orderID.String()), zap.Error(err))
		return nil, NewServiceError(http.StatusInternalServerError, "Failed to fetch order")
	}
	return order, nil
}

// CancelOrder lets a customer cancel their own order while it is still
// cancellable. Stock from the order lines returns to the catalogue.
func (s *orderServiceImpl) CancelOrder(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, *ServiceError) {
	order, svcErr := s.GetUserOrder(ctx, orderID, userID)
	if svcErr != nil {
		return nil, svcErr
	}

	if !order.Status.CanTransitionTo(models.OrderStatusCancelled) {
		return nil, NewServiceError(http.StatusConflict,
			fmt.Sprintf("Order cannot be cancelled in status %q", order.Status))
	}

	now := time.Now()
	order.Status = models.OrderStatusCancelled
	order.CancelledAt = &now
	if err := s.orderRepo.Update(ctx, order); err != nil {
		s.logger.Error("Failed to cancel order", zap.String("order_id", orderID.String()), zap.Error(err))
		return nil, NewServiceError(http.StatusInternalServerError, "Failed to cancel order")
	}

	for _, item := range order.OrderItems {
		if err := s.productRepo.AdjustStock(ctx, item.VariantID, item.Quantity); err != nil {
			s.logger.Error("Failed to restock cancelled order item",
				zap.String("variant_id", item.VariantID.String()), zap.Error(err))
		}
	}

	if s.events != nil {
		s.events.Publish(ctx, userID.String(), "order.cancelled", order)
	}
	s.logger.Info("Order cancelled", zap.String("order_number", order.OrderNumber), zap.String("user_id", userID.String()))
	return order, nil
}

func (s *orderServiceImpl) ListAllOrders(ctx context.Context, page, limit int) ([]models.Order, int64, *ServiceError) {
	orders, total, err := s.orderRepo.FindAll(ctx, page, limit)
	if err != nil {
		s.logger.Error("Failed to list all orders", zap.Error(err))
		return nil, 0, NewServiceError(http.StatusInternalServerError, "Failed to fetch orders")
	}
	return orders, total, nil
}

func (s *orderServiceImpl) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, *ServiceError) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewServiceError(http.StatusNotFound, "Order not found")
		}
		s.logger.Error("Failed to fetch order", zap.String("order_id", orderID.String()), zap.Error(err))
		return nil, NewServiceError(http.StatusInternalServerError, "Failed to fetch order")
	}
	return order, nil
}

// UpdateStatus advances an order through the pipeline. Moving to shipped
// requires a tracking number; invalid transitions are rejected without
// touching the row.
func (s *orderServiceImpl) UpdateStatus(ctx context.Context, orderID uuid.UUID, req *models.UpdateOrderStatusRequest) (*models.Order, *ServiceError) {
	order, svcErr := s.GetOrder(ctx, orderID)
	if svcErr != nil {
		return nil, svcErr
	}

	if !order.Status.CanTransitionTo(req.Status) {
		return nil, NewServiceError(http.StatusConflict,
			fmt.Sprintf("Cannot move order from %q to %q", order.Status, req.Status))
	}
	if req.Status == models.OrderStatusShipped && req.TrackingNumber == "" && order.TrackingNumber == "" {
		return nil, NewServiceError(http.StatusBadRequest, "Tracking number is required to mark an order shipped")
	}

	now := time.Now()
	order.Status = req.Status
	if req.TrackingNumber != "" {
		order.TrackingNumber = req.TrackingNumber
	}
	switch req.Status {
	case models.OrderStatusDelivered:
		order.DeliveredAt = &now
	case models.OrderStatusCancelled:
		order.CancelledAt = &now
	}

	if err := s.orderRepo.Update(ctx, order); err != nil {
		s.logger.Error("Failed to update order status", zap.String("order_id", orderID.String()), zap.Error(err))
		return nil, NewServiceError(http.StatusInternalServerError, "Failed to update order")
	}

	if req.Status == models.OrderStatusCancelled {
		for _, item := range order.OrderItems {
			if err := s.productRepo.AdjustStock(ctx, item.VariantID, item.Quantity); err != nil {
				s.logger.Error("Failed to restock cancelled order item",
					zap.String("variant_id", item.VariantID.String()), zap.Error(err))
			}
		}
	}

	if s.events != nil {
		s.events.Publish(ctx, order.UserID.String(), "order.status_changed", order)
	}
	s.logger.Info("Order status updated",
		zap.String("order_number", order.OrderNumber),
		zap.String("status", string(req.Status)))
	return order, nil
}
