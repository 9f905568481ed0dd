package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/maisonarome/storefront/models"
	"github.com/maisonarome/storefront/repository"
)

// DashboardSummary is the admin landing snapshot.
type DashboardSummary struct {
	TotalOrders     int64   `json:"total_orders"`
	TotalRevenue    float64 `json:"total_revenue"`
	OrdersToday     int     `json:"orders_today"`
	RevenueToday    float64 `json:"revenue_today"`
	PendingOrders   int     `json:"pending_orders"`
	TotalProducts   int64   `json:"total_products"`
	NewUsersWeek    int64   `json:"new_users_week"`
	AverageOrderVal float64 `json:"average_order_value"`
}

// DailySales is one day's revenue in a sales report.
type DailySales struct {
	Date    string  `json:"date"`
	Orders  int     `json:"orders"`
	Revenue float64 `json:"revenue"`
}

// AdminService produces dashboards, sales analytics and exports.
type AdminService interface {
	Dashboard(ctx context.Context) (*DashboardSummary, *ServiceError)
	SalesReport(ctx context.Context, from, to time.Time) ([]DailySales, *ServiceError)
	ExportOrdersCSV(ctx context.Context, from, to time.Time) ([]byte, *ServiceError)
	ListUsers(ctx context.Context, page, limit int) ([]models.User, int64, *ServiceError)
}

type adminServiceImpl struct {
	orderRepo   repository.OrderRepository
	userRepo    repository.UserRepository
	productRepo repository.ProductRepository
	logger      *zap.Logger
}

// NewAdminService creates a new AdminService.
func NewAdminService(orderRepo repository.OrderRepository, userRepo repository.UserRepository, productRepo repository.ProductRepository, logger *zap.Logger) AdminService {
	return &adminServiceImpl{orderRepo: orderRepo, userRepo: userRepo, productRepo: productRepo, logger: logger}
}

func (s *adminServiceImpl) Dashboard(ctx context.Context) (*DashboardSummary, *ServiceError) {
	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	// Dashboards tolerate slightly stale numbers; a month of orders is
	// enough for the revenue figures shown here.
	orders, err := s.orderRepo.FindInRange(ctx, now.AddDate(0, -1, 0), now)
	if err != nil {
		s.logger.Error("Failed to load orders for dashboard", zap.Error(err))
		return nil, NewServiceError(http.StatusInternalServerError, "Failed to build dashboard")
	}

	summary := &DashboardSummary{TotalOrders: int64(len(orders))}
	for _, o := range orders {
		if o.Status == models.OrderStatusCancelled {
			continue
		}
		summary.TotalRevenue += o.Total
		if o.Status == models.OrderStatusPending {
			summary.PendingOrders++
		}
		if !o.CreatedAt.Before(startOfDay) {
			summary.OrdersToday++
			summary.RevenueToday += o.Total
		}
	}
	if summary.TotalOrders > 0 {
		summary.AverageOrderVal = summary.TotalRevenue / float64(summary.TotalOrders)
	}

	if n, err := s.productRepo.Count(ctx); err == nil {
		summary.TotalProducts = n
	}
	if n, err := s.userRepo.CountSince(ctx, now.AddDate(0, 0, -7)); err == nil {
		summary.NewUsersWeek = n
	}

	return summary, nil
}

// SalesReport buckets non-cancelled orders by calendar day.
func (s *adminServiceImpl) SalesReport(ctx context.Context, from, to time.Time) ([]DailySales, *ServiceError) {
	orders, err := s.orderRepo.FindInRange(ctx, from, to)
	if err != nil {
		s.logger.Error("Failed to load orders for report", zap.Error(err))
		return nil, NewServiceError(http.StatusInternalServerError, "Failed to build sales report")
	}

	byDay := make(map[string]*DailySales)
	for _, o := range orders {
		if o.Status == models.OrderStatusCancelled {
			continue
		}
		day := o.CreatedAt.Format("2006-01-02")
		bucket, ok := byDay[day]
		if !ok {
			bucket = &DailySales{Date: day}
			byDay[day] = bucket
		}
		bucket.Orders++
		bucket.Revenue += o.Total
	}

	var report []DailySales
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		day := d.Format("2006-01-02")
		if bucket, ok := byDay[day]; ok {
			report = append(report, *bucket)
		} else {
			report = append(report, DailySales{Date: day})
		}
	}
	return report, nil
}

// ExportOrdersCSV writes the orders in the range as a CSV document.
func (s *adminServiceImpl) ExportOrdersCSV(ctx context.Context, from, to time.Time) ([]byte, *ServiceError) {
	orders, err := s.orderRepo.FindInRange(ctx, from, to)
	if err != nil {
		s.logger.Error("Failed to load orders for export", zap.Error(err))
		return nil, NewServiceError(http.StatusInternalServerError, "Failed to export orders")
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"order_number", "created_at", "status", "payment_method", "subtotal", "discount", "shipping", "tax", "processing_fee", "total", "coupon"})
	for _, o := range orders {
		_ = w.Write([]string{
			o.OrderNumber,
			o.CreatedAt.Format(time.RFC3339),
			string(o.Status),
			string(o.PaymentMethod),
			fmt.Sprintf("%.2f", o.Subtotal),
			fmt.Sprintf("%.2f", o.Discount),
			fmt.Sprintf("%.2f", o.ShippingCost),
			fmt.Sprintf("%.2f", o.Tax),
			fmt.Sprintf("%.2f", o.ProcessingFee),
			fmt.Sprintf("%.2f", o.Total),
			o.CouponCode,
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, NewServiceError(http.StatusInternalServerError, "Failed to export orders")
	}
	return buf.Bytes(), nil
}

func (s *adminServiceImpl) ListUsers(ctx context.Context, page, limit int) ([]models.User, int64, *ServiceError) {
	users, total, err := s.userRepo.FindAll(ctx, page, limit)
	if err != nil {
		s.logger.Error("Failed to list users", zap.Error(err))
		return nil, 0, NewServiceError(http.StatusInternalServerError, "Failed to fetch users")
	}
	return users, total, nil
}
