package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/maisonarome/storefront/models"
	"github.com/maisonarome/storefront/repository"
)

func cartWith(lines ...models.CartLineItem) *models.Cart {
	cart := &models.Cart{Items: lines}
	var subtotal float64
	for _, l := range lines {
		subtotal += l.Price * float64(l.Quantity)
	}
	cart.Subtotal = subtotal
	return cart
}

func line(price float64, qty int) models.CartLineItem {
	return models.CartLineItem{Price: price, Quantity: qty}
}

func TestEvaluatePercentageCouponCapsAtMaxDiscount(t *testing.T) {
	coupon := &models.Coupon{
		Code:           "WELCOME10",
		Type:           models.CouponTypePercentage,
		Value:          10,
		MaxDiscount:    500,
		MinOrderAmount: 1000,
		Active:         true,
	}

	// Two bottles at 1099: subtotal 2198, 10% = 219.8, under the cap.
	cart := cartWith(line(1099, 2))
	eval := EvaluateCoupon(coupon, cart, 0, time.Now())

	require.True(t, eval.Valid)
	assert.InDelta(t, 219.8, eval.DiscountAmount, 0.001)

	// A big cart hits the cap.
	bigCart := cartWith(line(4000, 2))
	eval = EvaluateCoupon(coupon, bigCart, 0, time.Now())
	require.True(t, eval.Valid)
	assert.Equal(t, 500.0, eval.DiscountAmount)
}

func TestEvaluateRuleChainOrder(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name   string
		coupon models.Coupon
		cart   *models.Cart
		prior  int
		reason string
	}{
		{
			name:   "inactive",
			coupon: models.Coupon{Active: false},
			cart:   cartWith(line(2000, 1)),
			reason: "coupon not found or inactive",
		},
		{
			name:   "not started",
			coupon: models.Coupon{Active: true, StartsAt: &future},
			cart:   cartWith(line(2000, 1)),
			reason: "coupon is not active yet",
		},
		{
			name:   "expired",
			coupon: models.Coupon{Active: true, ExpiresAt: &past},
			cart:   cartWith(line(2000, 1)),
			reason: "coupon has expired",
		},
		{
			name:   "below minimum",
			coupon: models.Coupon{Active: true, MinOrderAmount: 1000},
			cart:   cartWith(line(999, 1)),
			reason: "minimum order amount not met",
		},
		{
			name:   "global limit",
			coupon: models.Coupon{Active: true, UsageLimit: 5, UsedCount: 5},
			cart:   cartWith(line(2000, 1)),
			reason: "usage limit exceeded",
		},
		{
			name:   "per-user limit",
			coupon: models.Coupon{Active: true, UserUsageLimit: 1},
			cart:   cartWith(line(2000, 1)),
			prior:  1,
			reason: "per-user limit exceeded",
		},
		{
			// Window beats min-order when both fail: the chain checks
			// the window first.
			name:   "expired and below minimum",
			coupon: models.Coupon{Active: true, ExpiresAt: &past, MinOrderAmount: 5000},
			cart:   cartWith(line(999, 1)),
			reason: "coupon has expired",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eval := EvaluateCoupon(&tt.coupon, tt.cart, tt.prior, now)
			require.False(t, eval.Valid)
			assert.Equal(t, tt.reason, eval.Reason)
		})
	}
}

func TestEvaluateFixedCouponClampsToSubtotal(t *testing.T) {
	coupon := &models.Coupon{Code: "FLAT500", Type: models.CouponTypeFixed, Value: 500, Active: true}

	eval := EvaluateCoupon(coupon, cartWith(line(300, 1)), 0, time.Now())
	require.True(t, eval.Valid)
	assert.Equal(t, 300.0, eval.DiscountAmount, "discount never exceeds the subtotal")
}

func TestEvaluateFreeShippingCoupon(t *testing.T) {
	coupon := &models.Coupon{Code: "SHIPFREE", Type: models.CouponTypeFreeShipping, Active: true}

	eval := EvaluateCoupon(coupon, cartWith(line(800, 1)), 0, time.Now())
	require.True(t, eval.Valid)
	assert.True(t, eval.FreeShipping)
	assert.Equal(t, 0.0, eval.DiscountAmount)
}

func TestEvaluateBuy2Get1(t *testing.T) {
	coupon := &models.Coupon{Code: "B2G1", Type: models.CouponTypeBuy2Get1, Active: true}

	// 7 units on one line: two full groups of three, one unit free each.
	eval := EvaluateCoupon(coupon, cartWith(line(400, 7)), 0, time.Now())
	require.True(t, eval.Valid)
	assert.Equal(t, 800.0, eval.DiscountAmount)

	// Groups never span lines.
	eval = EvaluateCoupon(coupon, cartWith(line(400, 2), line(300, 2)), 0, time.Now())
	require.True(t, eval.Valid)
	assert.Equal(t, 0.0, eval.DiscountAmount)
}

func TestEvaluateBuy3SpecialUsesMostExpensiveUnitsFirst(t *testing.T) {
	coupon := &models.Coupon{
		Code:         "TRIO999",
		Type:         models.CouponTypeBuy3Special,
		SpecialPrice: 999,
		Active:       true,
	}

	// Units: 700, 600, 500, 300. The group is (700, 600, 500) = 1800,
	// discounted to 999; the 300 unit is billed normally.
	cart := cartWith(line(700, 1), line(600, 1), line(500, 1), line(300, 1))
	eval := EvaluateCoupon(coupon, cart, 0, time.Now())
	require.True(t, eval.Valid)
	assert.Equal(t, 801.0, eval.DiscountAmount)

	// A group already cheaper than the special price gets no discount.
	cheap := cartWith(line(200, 3))
	eval = EvaluateCoupon(coupon, cheap, 0, time.Now())
	require.True(t, eval.Valid)
	assert.Equal(t, 0.0, eval.DiscountAmount)
}

// fakeCouponRepo backs the service-level tests.
type fakeCouponRepo struct {
	coupons       map[string]*models.Coupon
	userUsage     map[string]int
	increments    int
	decrements    int
	failIncrement bool
}

func newFakeCouponRepo(coupons ...*models.Coupon) *fakeCouponRepo {
	r := &fakeCouponRepo{coupons: make(map[string]*models.Coupon), userUsage: make(map[string]int)}
	for _, c := range coupons {
		r.coupons[c.Code] = c
	}
	return r
}

func (r *fakeCouponRepo) Create(ctx context.Context, coupon *models.Coupon) error {
	r.coupons[coupon.Code] = coupon
	return nil
}

func (r *fakeCouponRepo) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	c, ok := r.coupons[code]
	if !ok {
		return nil, repository.ErrCouponNotFound
	}
	return c, nil
}

func (r *fakeCouponRepo) IncrementUsedCount(ctx context.Context, code string) error {
	if r.failIncrement {
		return errors.New("write failed")
	}
	r.increments++
	r.coupons[code].UsedCount++
	return nil
}

func (r *fakeCouponRepo) DecrementUsedCount(ctx context.Context, code string) error {
	if c, ok := r.coupons[code]; ok && c.UsedCount > 0 {
		r.decrements++
		c.UsedCount--
	}
	return nil
}

func (r *fakeCouponRepo) UserUsageCount(ctx context.Context, code, userID string) (int, error) {
	return r.userUsage[code+":"+userID], nil
}

func (r *fakeCouponRepo) RecordUserUsage(ctx context.Context, code, userID string) error {
	r.userUsage[code+":"+userID]++
	return nil
}

func (r *fakeCouponRepo) RemoveUserUsage(ctx context.Context, code, userID string) error {
	if r.userUsage[code+":"+userID] > 0 {
		r.userUsage[code+":"+userID]--
	}
	return nil
}

func (r *fakeCouponRepo) Deactivate(ctx context.Context, code string) error {
	c, ok := r.coupons[code]
	if !ok {
		return repository.ErrCouponNotFound
	}
	c.Active = false
	return nil
}

func (r *fakeCouponRepo) FindAll(ctx context.Context, page, limit int) ([]models.Coupon, int64, error) {
	var out []models.Coupon
	for _, c := range r.coupons {
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func TestEvaluateDoesNotConsumeUse(t *testing.T) {
	repo := newFakeCouponRepo(&models.Coupon{
		Code: "WELCOME10", Type: models.CouponTypePercentage, Value: 10, Active: true,
	})
	svc := NewCouponService(repo, zap.NewNop())

	eval, svcErr := svc.Evaluate(context.Background(), "WELCOME10", "u1", cartWith(line(2000, 1)))
	require.Nil(t, svcErr)
	require.True(t, eval.Valid)
	assert.Zero(t, repo.increments)
}

func TestRedeemConsumesGlobalAndPerUserUse(t *testing.T) {
	repo := newFakeCouponRepo(&models.Coupon{
		Code: "ONCE", Type: models.CouponTypeFixed, Value: 100, Active: true,
		UsageLimit: 2, UserUsageLimit: 1,
	})
	svc := NewCouponService(repo, zap.NewNop())
	cart := cartWith(line(2000, 1))

	eval, svcErr := svc.Redeem(context.Background(), "ONCE", "u1", cart)
	require.Nil(t, svcErr)
	require.True(t, eval.Valid)
	assert.Equal(t, 1, repo.increments)

	// Second redemption by the same user trips the per-user limit.
	eval, svcErr = svc.Redeem(context.Background(), "ONCE", "u1", cart)
	require.Nil(t, svcErr)
	require.False(t, eval.Valid)
	assert.Equal(t, "per-user limit exceeded", eval.Reason)
	assert.Equal(t, 1, repo.increments, "a failed redemption consumes nothing")
}

func TestReleaseReturnsConsumedUse(t *testing.T) {
	repo := newFakeCouponRepo(&models.Coupon{
		Code: "ONCE", Type: models.CouponTypeFixed, Value: 100, Active: true,
		UsageLimit: 1, UserUsageLimit: 1,
	})
	svc := NewCouponService(repo, zap.NewNop())
	cart := cartWith(line(2000, 1))

	eval, svcErr := svc.Redeem(context.Background(), "ONCE", "u1", cart)
	require.Nil(t, svcErr)
	require.True(t, eval.Valid)

	svc.Release(context.Background(), "ONCE", "u1")
	assert.Zero(t, repo.coupons["ONCE"].UsedCount)
	assert.Zero(t, repo.userUsage["ONCE:u1"])

	// The returned use is redeemable again.
	eval, svcErr = svc.Redeem(context.Background(), "ONCE", "u1", cart)
	require.Nil(t, svcErr)
	assert.True(t, eval.Valid)
}

func TestEvaluateUnknownCode(t *testing.T) {
	svc := NewCouponService(newFakeCouponRepo(), zap.NewNop())

	eval, svcErr := svc.Evaluate(context.Background(), "NOPE", "u1", cartWith(line(2000, 1)))
	require.Nil(t, svcErr)
	require.False(t, eval.Valid)
	assert.Equal(t, "coupon not found or inactive", eval.Reason)
}
