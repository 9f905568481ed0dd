package services

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/maisonarome/storefront/models"
	"github.com/maisonarome/storefront/repository"
)

// Rejection reasons surfaced to the caller verbatim.
const (
	reasonNotFound      = "coupon not found or inactive"
	reasonNotStarted    = "coupon is not active yet"
	reasonExpired       = "coupon has expired"
	reasonMinOrder      = "minimum order amount not met"
	reasonUsageLimit    = "usage limit exceeded"
	reasonPerUserLimit  = "per-user limit exceeded"
	reasonUnknownCoupon = "unknown coupon type"
)

// CouponService evaluates and administers coupons.
type CouponService interface {
	// Evaluate checks a coupon against a cart without consuming a use.
	Evaluate(ctx context.Context, code, userID string, cart *models.Cart) (*models.CouponEvaluation, *ServiceError)
	// Redeem re-evaluates and, when valid, consumes one use globally and
	// for the user. Called by checkout at order placement.
	Redeem(ctx context.Context, code, userID string, cart *models.Cart) (*models.CouponEvaluation, *ServiceError)
	// Release returns a redeemed use when the order it paid for is rolled
	// back. Best-effort: failures are logged, never surfaced.
	Release(ctx context.Context, code, userID string)

	CreateCoupon(ctx context.Context, req *models.CreateCouponRequest) (*models.Coupon, *ServiceError)
	GetCoupon(ctx context.Context, code string) (*models.Coupon, *ServiceError)
	DeactivateCoupon(ctx context.Context, code string) *ServiceError
	ListCoupons(ctx context.Context, page, limit int) ([]models.Coupon, int64, *ServiceError)
}

type couponServiceImpl struct {
	repo   repository.CouponRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewCouponService creates a new CouponService.
func NewCouponService(repo repository.CouponRepository, logger *zap.Logger) CouponService {
	return &couponServiceImpl{repo: repo, logger: logger, now: time.Now}
}

// EvaluateCoupon applies the rule chain to a loaded coupon. Checks run in
// order and the first failure wins. Exported as a pure function so the
// checkout summary and tests can reuse it.
func EvaluateCoupon(coupon *models.Coupon, cart *models.Cart, userPriorUsage int, now time.Time) *models.CouponEvaluation {
	rejected := func(reason string) *models.CouponEvaluation {
		return &models.CouponEvaluation{Valid: false, Code: coupon.Code, Reason: reason}
	}

	if !coupon.Active {
		return rejected(reasonNotFound)
	}
	if coupon.StartsAt != nil && now.Before(*coupon.StartsAt) {
		return rejected(reasonNotStarted)
	}
	if coupon.ExpiresAt != nil && now.After(*coupon.ExpiresAt) {
		return rejected(reasonExpired)
	}
	if cart.Subtotal < coupon.MinOrderAmount {
		return rejected(reasonMinOrder)
	}
	if coupon.UsageLimit > 0 && coupon.UsedCount >= coupon.UsageLimit {
		return rejected(reasonUsageLimit)
	}
	if coupon.UserUsageLimit > 0 && userPriorUsage >= coupon.UserUsageLimit {
		return rejected(reasonPerUserLimit)
	}

	eval := &models.CouponEvaluation{Valid: true, Code: coupon.Code, Type: coupon.Type}

	switch coupon.Type {
	case models.CouponTypePercentage:
		discount := cart.Subtotal * coupon.Value / 100
		if coupon.MaxDiscount > 0 && discount > coupon.MaxDiscount {
			discount = coupon.MaxDiscount
		}
		eval.DiscountAmount = discount

	case models.CouponTypeFixed:
		discount := coupon.Value
		if discount > cart.Subtotal {
			discount = cart.Subtotal
		}
		eval.DiscountAmount = discount

	case models.CouponTypeFreeShipping:
		// No item discount; the price calculator zeroes the shipping.
		eval.FreeShipping = true

	case models.CouponTypeBuy2Get1:
		eval.DiscountAmount = buy2Get1Discount(cart)

	case models.CouponTypeBuy3Special:
		eval.DiscountAmount = buy3SpecialDiscount(cart, coupon.SpecialPrice)

	default:
		return rejected(reasonUnknownCoupon)
	}

	return eval
}

// buy2Get1Discount grants one free unit per full group of three units on a
// line. Leftover units that do not complete a group are billed normally.
func buy2Get1Discount(cart *models.Cart) float64 {
	var discount float64
	for _, item := range cart.Items {
		groups := item.Quantity / 3
		discount += float64(groups) * item.Price
	}
	return discount
}

// buy3SpecialDiscount bills every complete 3-unit group at the special
// price. Groups are filled with the most expensive units first, so the
// customer always gets the best combination.
func buy3SpecialDiscount(cart *models.Cart, specialPrice float64) float64 {
	var unitPrices []float64
	for _, item := range cart.Items {
		for i := 0; i < item.Quantity; i++ {
			unitPrices = append(unitPrices, item.Price)
		}
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(unitPrices)))

	groups := len(unitPrices) / 3
	var discount float64
	for g := 0; g < groups; g++ {
		var groupTotal float64
		for i := 0; i < 3; i++ {
			groupTotal += unitPrices[g*3+i]
		}
		if d := groupTotal - specialPrice; d > 0 {
			discount += d
		}
	}
	return discount
}

func (s *couponServiceImpl) Evaluate(ctx context.Context, code, userID string, cart *models.Cart) (*models.CouponEvaluation, *ServiceError) {
	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if err == repository.ErrCouponNotFound {
			return &models.CouponEvaluation{Valid: false, Code: strings.ToUpper(code), Reason: reasonNotFound}, nil
		}
		s.logger.Error("Coupon lookup failed", zap.String("code", code), zap.Error(err))
		return nil, NewServiceError(http.StatusInternalServerError, "Failed to look up coupon")
	}

	priorUsage := 0
	if userID != "" && coupon.UserUsageLimit > 0 {
		priorUsage, err = s.repo.UserUsageCount(ctx, code, userID)
		if err != nil {
			s.logger.Error("Coupon usage lookup failed", zap.String("code", code), zap.Error(err))
			return nil, NewServiceError(http.StatusInternalServerError, "Failed to look up coupon")
		}
	}

	return EvaluateCoupon(coupon, cart, priorUsage, s.now()), nil
}

func (s *couponServiceImpl) Redeem(ctx context.Context, code, userID string, cart *models.Cart) (*models.CouponEvaluation, *ServiceError) {
	eval, svcErr := s.Evaluate(ctx, code, userID, cart)
	if svcErr != nil {
		return nil, svcErr
	}
	if !eval.Valid {
		return eval, nil
	}

	if err := s.repo.IncrementUsedCount(ctx, code); err != nil {
		s.logger.Error("Failed to increment coupon usage", zap.String("code", code), zap.Error(err))
		return nil, NewServiceError(http.StatusInternalServerError, "Failed to apply coupon")
	}
	if userID != "" {
		if err := s.repo.RecordUserUsage(ctx, code, userID); err != nil {
			if derr := s.repo.DecrementUsedCount(ctx, code); derr != nil {
				s.logger.Error("Failed to return coupon use", zap.String("code", code), zap.Error(derr))
			}
			s.logger.Error("Failed to record per-user coupon usage", zap.String("code", code), zap.Error(err))
			return nil, NewServiceError(http.StatusInternalServerError, "Failed to apply coupon")
		}
	}

	s.logger.Info("Coupon redeemed",
		zap.String("code", eval.Code),
		zap.Float64("discount", eval.DiscountAmount),
		zap.String("user_id", userID))
	return eval, nil
}

func (s *couponServiceImpl) Release(ctx context.Context, code, userID string) {
	if err := s.repo.DecrementUsedCount(ctx, code); err != nil {
		s.logger.Error("Failed to return coupon use", zap.String("code", code), zap.Error(err))
	}
	if userID != "" {
		if err := s.repo.RemoveUserUsage(ctx, code, userID); err != nil {
			s.logger.Error("Failed to return per-user coupon use", zap.String("code", code), zap.Error(err))
		}
	}
	s.logger.Info("Coupon use returned", zap.String("code", code), zap.String("user_id", userID))
}

func (s *couponServiceImpl) CreateCoupon(ctx context.Context, req *models.CreateCouponRequest) (*models.Coupon, *ServiceError) {
	if req.ExpiresAt != nil && req.ExpiresAt.Before(s.now()) {
		return nil, NewServiceError(http.StatusBadRequest, "Expiry date must be in the future")
	}
	if req.Type == models.CouponTypePercentage && req.Value > 100 {
		return nil, NewServiceError(http.StatusBadRequest, "Percentage discount cannot exceed 100")
	}
	if req.Type == models.CouponTypeBuy3Special && req.SpecialPrice <= 0 {
		return nil, NewServiceError(http.StatusBadRequest, "Special price is required for buy3special coupons")
	}

	coupon := &models.Coupon{
		Code:           strings.ToUpper(req.Code),
		Type:           req.Type,
		Value:          req.Value,
		MaxDiscount:    req.MaxDiscount,
		SpecialPrice:   req.SpecialPrice,
		MinOrderAmount: req.MinOrderAmount,
		UsageLimit:     req.UsageLimit,
		UserUsageLimit: req.UserUsageLimit,
		StartsAt:       req.StartsAt,
		ExpiresAt:      req.ExpiresAt,
		Active:         true,
	}

	if err := s.repo.Create(ctx, coupon); err != nil {
		if strings.Contains(err.Error(), "duplicate") || strings.Contains(err.Error(), "E11000") {
			return nil, NewServiceError(http.StatusConflict, "Coupon code already exists")
		}
		s.logger.Error("Failed to create coupon", zap.Error(err))
		return nil, NewServiceError(http.StatusInternalServerError, "Failed to create coupon")
	}

	s.logger.Info("Coupon created", zap.String("code", coupon.Code), zap.String("type", string(coupon.Type)))
	return coupon, nil
}

func (s *couponServiceImpl) GetCoupon(ctx context.Context, code string) (*models.Coupon, *ServiceError) {
	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if err == repository.ErrCouponNotFound {
			return nil, NewServiceError(http.StatusNotFound, "Coupon not found")
		}
		return nil, NewServiceError(http.StatusInternalServerError, "Failed to look up coupon")
	}
	return coupon, nil
}

func (s *couponServiceImpl) DeactivateCoupon(ctx context.Context, code string) *ServiceError {
	if err := s.repo.Deactivate(ctx, code); err != nil {
		if err == repository.ErrCouponNotFound {
			return NewServiceError(http.StatusNotFound, "Coupon not found")
		}
		s.logger.Error("Failed to deactivate coupon", zap.String("code", code), zap.Error(err))
		return NewServiceError(http.StatusInternalServerError, "Failed to deactivate coupon")
	}
	s.logger.Info("Coupon deactivated", zap.String("code", code))
	return nil
}

func (s *couponServiceImpl) ListCoupons(ctx context.Context, page, limit int) ([]models.Coupon, int64, *ServiceError) {
	coupons, total, err := s.repo.FindAll(ctx, page, limit)
	if err != nil {
		s.logger.Error("Failed to list coupons", zap.Error(err))
		return nil, 0, NewServiceError(http.StatusInternalServerError, "Failed to list coupons")
	}
	return coupons, total, nil
}
