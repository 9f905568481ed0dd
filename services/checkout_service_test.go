package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/maisonarome/storefront/models"
	"github.com/maisonarome/storefront/providers"
	"github.com/maisonarome/storefront/repository"
)

// fakeCheckoutCart serves one fixed cart and records the Clear call.
type fakeCheckoutCart struct {
	cart    *models.Cart
	cleared bool
}

func (f *fakeCheckoutCart) Get(ctx context.Context, sess Session) (*models.Cart, *ServiceError) {
	return f.cart, nil
}

func (f *fakeCheckoutCart) Clear(ctx context.Context, sess Session) (*models.Cart, *ServiceError) {
	f.cleared = true
	return &models.Cart{}, nil
}

func (f *fakeCheckoutCart) Add(ctx context.Context, sess Session, req *models.AddItemRequest) (*models.Cart, *ServiceError) {
	return f.cart, nil
}

func (f *fakeCheckoutCart) UpdateQuantity(ctx context.Context, sess Session, lineID uuid.UUID, quantity int) (*models.Cart, *ServiceError) {
	return f.cart, nil
}

func (f *fakeCheckoutCart) Remove(ctx context.Context, sess Session, lineID uuid.UUID) (*models.Cart, *ServiceError) {
	return f.cart, nil
}

func (f *fakeCheckoutCart) MergeGuestCart(ctx context.Context, userID, sessionToken string) (*models.Cart, *ServiceError) {
	return f.cart, nil
}

type fakeShippingSvc struct {
	options []models.ShippingOption
}

func (f *fakeShippingSvc) GetOptions(ctx context.Context, userID string, req *models.ShippingOptionsRequest, cart *models.Cart) ([]models.ShippingOption, *ServiceError) {
	return f.options, nil
}

func (f *fakeShippingSvc) Track(ctx context.Context, carrier, trackingCode string) (providers.TrackingStatus, *ServiceError) {
	return providers.TrackingStatus{}, nil
}

type fakeOrderRepo struct {
	orders     []*models.Order
	failCreate bool
}

func (r *fakeOrderRepo) Create(ctx context.Context, order *models.Order) error {
	if r.failCreate {
		return errors.New("insert failed")
	}
	order.ID = uuid.New()
	r.orders = append(r.orders, order)
	return nil
}

func (r *fakeOrderRepo) FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	for _, o := range r.orders {
		if o.ID == orderID {
			return o, nil
		}
	}
	return nil, errors.New("not found")
}

func (r *fakeOrderRepo) FindByIDAndUserID(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	return r.FindByID(ctx, orderID)
}

func (r *fakeOrderRepo) FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]models.Order, int64, error) {
	return nil, 0, nil
}

func (r *fakeOrderRepo) FindAll(ctx context.Context, page, limit int) ([]models.Order, int64, error) {
	return nil, 0, nil
}

func (r *fakeOrderRepo) Update(ctx context.Context, order *models.Order) error { return nil }

func (r *fakeOrderRepo) FindInRange(ctx context.Context, from, to time.Time) ([]models.Order, error) {
	return nil, nil
}

type fakePaymentRepo struct {
	payments []*models.Payment
}

func (r *fakePaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	r.payments = append(r.payments, payment)
	return nil
}

func (r *fakePaymentRepo) FindByStripeIntentID(ctx context.Context, intentID string) (*models.Payment, error) {
	for _, p := range r.payments {
		if p.StripeIntentID == intentID {
			return p, nil
		}
	}
	return nil, errors.New("not found")
}

func (r *fakePaymentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status, failureReason string) error {
	return nil
}

type fakeAddressRepo struct {
	address *models.Address
}

func (r *fakeAddressRepo) FindByID(ctx context.Context, userID, addressID string) (*models.Address, error) {
	if r.address == nil {
		return nil, repository.ErrAddressNotFound
	}
	return r.address, nil
}

func (r *fakeAddressRepo) Create(ctx context.Context, address *models.Address) error { return nil }
func (r *fakeAddressRepo) ListByUser(ctx context.Context, userID string) ([]models.Address, error) {
	return nil, nil
}
func (r *fakeAddressRepo) Update(ctx context.Context, address *models.Address) error { return nil }
func (r *fakeAddressRepo) Delete(ctx context.Context, userID, addressID string) error {
	return nil
}
func (r *fakeAddressRepo) SetDefault(ctx context.Context, userID, addressID string) error {
	return nil
}

// stockRepo tracks variant stock so tests can observe reservations and
// restocks.
type stockRepo struct {
	fakeProductRepoBase
	stock map[uuid.UUID]int
}

func (r *stockRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return nil, errors.New("not found")
}

func (r *stockRepo) FindVariant(ctx context.Context, productID uuid.UUID, size string) (*models.ProductVariant, error) {
	return nil, errors.New("not found")
}

func (r *stockRepo) AdjustStock(ctx context.Context, variantID uuid.UUID, delta int) error {
	next := r.stock[variantID] + delta
	if next < 0 {
		return errors.New("insufficient stock")
	}
	r.stock[variantID] = next
	return nil
}

func checkoutLine(variantID uuid.UUID, name string, price float64, qty int) models.CartLineItem {
	return models.CartLineItem{
		ID:        uuid.New(),
		ProductID: uuid.New(),
		VariantID: variantID,
		Name:      name,
		Size:      "50ml",
		Price:     price,
		Quantity:  qty,
		Available: true,
	}
}

func checkoutCart(lines ...models.CartLineItem) *models.Cart {
	cart := cartWith(lines...)
	cart.FreeShipping = cart.Subtotal >= testPolicy.FreeShippingThreshold
	return cart
}

type checkoutFixture struct {
	svc      CheckoutService
	cart     *fakeCheckoutCart
	orders   *fakeOrderRepo
	payments *fakePaymentRepo
	stock    *stockRepo
	coupons  *fakeCouponRepo
	shipping *fakeShippingSvc
}

func newCheckoutFixture(cart *models.Cart, coupons ...*models.Coupon) *checkoutFixture {
	f := &checkoutFixture{
		cart:     &fakeCheckoutCart{cart: cart},
		orders:   &fakeOrderRepo{},
		payments: &fakePaymentRepo{},
		stock:    &stockRepo{stock: make(map[uuid.UUID]int)},
		coupons:  newFakeCouponRepo(coupons...),
		shipping: &fakeShippingSvc{},
	}
	for _, item := range cart.Items {
		f.stock.stock[item.VariantID] = 100
	}
	f.svc = NewCheckoutService(
		f.cart,
		NewCouponService(f.coupons, zap.NewNop()),
		f.shipping,
		nil, // Stripe disabled: tests drive the COD path
		f.orders,
		f.payments,
		&fakeAddressRepo{address: &models.Address{PostalCode: "400001"}},
		f.stock,
		testPolicy,
		nil,
		zap.NewNop(),
	)
	return f
}

var testUserID = uuid.NewString()

func TestPlaceOrderCODSuccess(t *testing.T) {
	variant := uuid.New()
	f := newCheckoutFixture(checkoutCart(checkoutLine(variant, "Noir Absolu", 1099, 2)))

	placed, svcErr := f.svc.PlaceOrder(context.Background(), testUserID, &models.PlaceOrderRequest{
		AddressID:     "addr-1",
		PaymentMethod: models.PaymentMethodCOD,
	})
	require.Nil(t, svcErr)

	// 2198 + 50 shipping + 396 tax + 40 COD fee.
	assert.Equal(t, 2684.0, placed.Breakdown.Total)
	assert.Equal(t, models.OrderStatusConfirmed, placed.Order.Status)
	assert.Empty(t, placed.ClientSecret)

	require.Len(t, f.payments.payments, 1)
	assert.Equal(t, models.PaymentMethodCOD, f.payments.payments[0].Method)
	assert.Equal(t, models.PaymentStatusProcessing, f.payments.payments[0].Status)

	assert.Equal(t, 98, f.stock.stock[variant])
	assert.True(t, f.cart.cleared)
}

func TestPlaceOrderCODOverLimit(t *testing.T) {
	variant := uuid.New()
	f := newCheckoutFixture(checkoutCart(checkoutLine(variant, "Noir Absolu", 6000, 2)))

	_, svcErr := f.svc.PlaceOrder(context.Background(), testUserID, &models.PlaceOrderRequest{
		AddressID:     "addr-1",
		PaymentMethod: models.PaymentMethodCOD,
	})
	require.NotNil(t, svcErr)
	assert.Equal(t, http.StatusUnprocessableEntity, svcErr.StatusCode)
	assert.Equal(t, 100, f.stock.stock[variant], "a rejected checkout leaves stock untouched")
	assert.Empty(t, f.orders.orders)
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	f := newCheckoutFixture(checkoutCart())

	_, svcErr := f.svc.PlaceOrder(context.Background(), testUserID, &models.PlaceOrderRequest{
		AddressID:     "addr-1",
		PaymentMethod: models.PaymentMethodCOD,
	})
	require.NotNil(t, svcErr)
	assert.Equal(t, http.StatusBadRequest, svcErr.StatusCode)
}

func TestPlaceOrderUnavailableLine(t *testing.T) {
	line := checkoutLine(uuid.New(), "Discontinued", 900, 1)
	line.Available = false
	f := newCheckoutFixture(checkoutCart(line))

	_, svcErr := f.svc.PlaceOrder(context.Background(), testUserID, &models.PlaceOrderRequest{
		AddressID:     "addr-1",
		PaymentMethod: models.PaymentMethodCOD,
	})
	require.NotNil(t, svcErr)
	assert.Equal(t, http.StatusConflict, svcErr.StatusCode)
}

func TestPlaceOrderStockConflictRollsBack(t *testing.T) {
	variantA := uuid.New()
	variantB := uuid.New()
	f := newCheckoutFixture(checkoutCart(
		checkoutLine(variantA, "Noir Absolu", 800, 2),
		checkoutLine(variantB, "Lumiere", 600, 3),
	))
	f.stock.stock[variantB] = 1 // second reservation fails

	_, svcErr := f.svc.PlaceOrder(context.Background(), testUserID, &models.PlaceOrderRequest{
		AddressID:     "addr-1",
		PaymentMethod: models.PaymentMethodCOD,
	})
	require.NotNil(t, svcErr)
	assert.Equal(t, http.StatusConflict, svcErr.StatusCode)
	assert.Equal(t, 100, f.stock.stock[variantA], "the first reservation is rolled back")
	assert.Equal(t, 1, f.stock.stock[variantB])
	assert.Empty(t, f.orders.orders)
	assert.False(t, f.cart.cleared)
}

func TestPlaceOrderInvalidCouponFailsLoudly(t *testing.T) {
	variant := uuid.New()
	f := newCheckoutFixture(checkoutCart(checkoutLine(variant, "Noir Absolu", 1099, 2)))

	_, svcErr := f.svc.PlaceOrder(context.Background(), testUserID, &models.PlaceOrderRequest{
		AddressID:     "addr-1",
		CouponCode:    "GHOST",
		PaymentMethod: models.PaymentMethodCOD,
	})
	require.NotNil(t, svcErr)
	assert.Equal(t, http.StatusUnprocessableEntity, svcErr.StatusCode)
	assert.Equal(t, "coupon not found or inactive", svcErr.Message)
	assert.Equal(t, 100, f.stock.stock[variant])
}

func TestPlaceOrderRedeemsCoupon(t *testing.T) {
	variant := uuid.New()
	f := newCheckoutFixture(
		checkoutCart(checkoutLine(variant, "Noir Absolu", 1099, 2)),
		&models.Coupon{Code: "WELCOME10", Type: models.CouponTypePercentage, Value: 10, Active: true},
	)

	placed, svcErr := f.svc.PlaceOrder(context.Background(), testUserID, &models.PlaceOrderRequest{
		AddressID:     "addr-1",
		CouponCode:    "WELCOME10",
		PaymentMethod: models.PaymentMethodCOD,
	})
	require.Nil(t, svcErr)

	// 2198 - 219.8 + 50 shipping + round(1978.2*0.18)=356 tax + 40 fee.
	assert.InDelta(t, 2424.2, placed.Breakdown.Total, 0.001)
	assert.Equal(t, 1, f.coupons.increments, "placement consumes the coupon use")
}

func TestPlaceOrderStockConflictLeavesCouponUnused(t *testing.T) {
	variant := uuid.New()
	f := newCheckoutFixture(
		checkoutCart(checkoutLine(variant, "Noir Absolu", 1099, 2)),
		&models.Coupon{Code: "ONCE10", Type: models.CouponTypePercentage, Value: 10, Active: true, UsageLimit: 1},
	)
	f.stock.stock[variant] = 1

	_, svcErr := f.svc.PlaceOrder(context.Background(), testUserID, &models.PlaceOrderRequest{
		AddressID:     "addr-1",
		CouponCode:    "ONCE10",
		PaymentMethod: models.PaymentMethodCOD,
	})
	require.NotNil(t, svcErr)
	assert.Equal(t, http.StatusConflict, svcErr.StatusCode)

	assert.Zero(t, f.coupons.increments, "a failed placement must not consume the coupon")
	assert.Zero(t, f.coupons.coupons["ONCE10"].UsedCount)
	assert.Zero(t, f.coupons.userUsage["ONCE10:"+testUserID])
}

func TestPlaceOrderRedeemFailureRollsBackOrder(t *testing.T) {
	variant := uuid.New()
	f := newCheckoutFixture(
		checkoutCart(checkoutLine(variant, "Noir Absolu", 1099, 2)),
		&models.Coupon{Code: "FLAKY10", Type: models.CouponTypePercentage, Value: 10, Active: true},
	)
	f.coupons.failIncrement = true

	_, svcErr := f.svc.PlaceOrder(context.Background(), testUserID, &models.PlaceOrderRequest{
		AddressID:     "addr-1",
		CouponCode:    "FLAKY10",
		PaymentMethod: models.PaymentMethodCOD,
	})
	require.NotNil(t, svcErr)

	require.Len(t, f.orders.orders, 1)
	assert.Equal(t, models.OrderStatusCancelled, f.orders.orders[0].Status)
	assert.Equal(t, 100, f.stock.stock[variant], "stock is returned with the order")
	assert.False(t, f.cart.cleared)
}

func TestPlaceOrderOnlinePaymentUnavailable(t *testing.T) {
	f := newCheckoutFixture(checkoutCart(checkoutLine(uuid.New(), "Noir Absolu", 1099, 2)))

	_, svcErr := f.svc.PlaceOrder(context.Background(), testUserID, &models.PlaceOrderRequest{
		AddressID:     "addr-1",
		PaymentMethod: models.PaymentMethodCard,
	})
	require.NotNil(t, svcErr)
	assert.Equal(t, http.StatusServiceUnavailable, svcErr.StatusCode)
}

func TestPlaceOrderSelectedRateSurvivesFreeShipping(t *testing.T) {
	variant := uuid.New()
	// Subtotal 4000 qualifies for free standard shipping.
	f := newCheckoutFixture(checkoutCart(checkoutLine(variant, "Noir Absolu", 2000, 2)))
	f.shipping.options = []models.ShippingOption{
		{Provider: "bluedart", ServiceLevel: "express", Amount: 120, Currency: "inr", RateID: "rate-express"},
	}

	placed, svcErr := f.svc.PlaceOrder(context.Background(), testUserID, &models.PlaceOrderRequest{
		AddressID:      "addr-1",
		ShippingRateID: "rate-express",
		PaymentMethod:  models.PaymentMethodCOD,
	})
	require.Nil(t, svcErr)
	assert.Equal(t, 120.0, placed.Breakdown.ShippingCost, "a chosen express rate is still billed")
}

func TestPlaceOrderFreeShippingCouponZeroesStandardRate(t *testing.T) {
	variant := uuid.New()
	f := newCheckoutFixture(
		checkoutCart(checkoutLine(variant, "Noir Absolu", 1099, 1)),
		&models.Coupon{Code: "SHIPFREE", Type: models.CouponTypeFreeShipping, Active: true},
	)

	placed, svcErr := f.svc.PlaceOrder(context.Background(), testUserID, &models.PlaceOrderRequest{
		AddressID:     "addr-1",
		CouponCode:    "SHIPFREE",
		PaymentMethod: models.PaymentMethodCOD,
	})
	require.Nil(t, svcErr)
	assert.Equal(t, 0.0, placed.Breakdown.ShippingCost)
}

func TestPlaceOrderStaleShippingRate(t *testing.T) {
	f := newCheckoutFixture(checkoutCart(checkoutLine(uuid.New(), "Noir Absolu", 1099, 2)))

	_, svcErr := f.svc.PlaceOrder(context.Background(), testUserID, &models.PlaceOrderRequest{
		AddressID:      "addr-1",
		ShippingRateID: "rate-gone",
		PaymentMethod:  models.PaymentMethodCOD,
	})
	require.NotNil(t, svcErr)
	assert.Equal(t, http.StatusBadRequest, svcErr.StatusCode)
}
