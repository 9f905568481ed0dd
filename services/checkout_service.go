package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v80"
	"go.uber.org/zap"

	"github.com/maisonarome/storefront/models"
	"github.com/maisonarome/storefront/pricing"
	"github.com/maisonarome/storefront/repository"
)

// PlacedOrder is the result of a successful checkout. ClientSecret is set
// for Stripe-backed payment methods so the client can confirm the payment.
type PlacedOrder struct {
	Order        *models.Order     `json:"order"`
	Breakdown    pricing.Breakdown `json:"breakdown"`
	ClientSecret string            `json:"client_secret,omitempty"`
}

// CheckoutService sequences the checkout flow: address, shipping option,
// coupon, payment method, payment, order creation. The flow is single-pass
// and keeps no state between requests beyond the cart itself.
type CheckoutService interface {
	ShippingOptions(ctx context.Context, userID string, req *models.ShippingOptionsRequest) ([]models.ShippingOption, *ServiceError)
	PaymentMethods(ctx context.Context, userID, couponCode string) ([]models.PaymentMethodOption, *ServiceError)
	ApplyCoupon(ctx context.Context, userID, code string) (*models.CouponEvaluation, pricing.Breakdown, *ServiceError)
	PlaceOrder(ctx context.Context, userID string, req *models.PlaceOrderRequest) (*PlacedOrder, *ServiceError)
	HandleStripeEvent(ctx context.Context, event stripe.Event) error
}

type checkoutServiceImpl struct {
	cartSvc     CartService
	couponSvc   CouponService
	shippingSvc ShippingService
	stripe      *StripeGateway
	orderRepo   repository.OrderRepository
	paymentRepo repository.PaymentRepository
	addressRepo repository.AddressRepository
	productRepo repository.ProductRepository
	policy      pricing.Policy
	events      EventPublisher
	logger      *zap.Logger
}

// NewCheckoutService creates a new CheckoutService.
func NewCheckoutService(
	cartSvc CartService,
	couponSvc CouponService,
	shippingSvc ShippingService,
	stripeGateway *StripeGateway,
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	addressRepo repository.AddressRepository,
	productRepo repository.ProductRepository,
	policy pricing.Policy,
	events EventPublisher,
	logger *zap.Logger,
) CheckoutService {
	return &checkoutServiceImpl{
		cartSvc:     cartSvc,
		couponSvc:   couponSvc,
		shippingSvc: shippingSvc,
		stripe:      stripeGateway,
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		addressRepo: addressRepo,
		productRepo: productRepo,
		policy:      policy,
		events:      events,
		logger:      logger,
	}
}

// feeRules maps each payment method to its processing fee. COD uses the
// policy's flat COD fee and is resolved separately.
func (s *checkoutServiceImpl) feeRule(method models.PaymentMethod) *pricing.FeeRule {
	switch method {
	case models.PaymentMethodCard:
		return &pricing.FeeRule{Percent: 2}
	case models.PaymentMethodWallet:
		return &pricing.FeeRule{Percent: 1}
	case models.PaymentMethodNetBanking:
		return &pricing.FeeRule{Flat: 15}
	case models.PaymentMethodCOD:
		return &pricing.FeeRule{Flat: s.policy.CODFee}
	default: // upi carries no fee
		return nil
	}
}

func (s *checkoutServiceImpl) methodLabel(method models.PaymentMethod) string {
	switch method {
	case models.PaymentMethodCard:
		return "Credit / Debit Card"
	case models.PaymentMethodUPI:
		return "UPI"
	case models.PaymentMethodNetBanking:
		return "Net Banking"
	case models.PaymentMethodWallet:
		return "Wallet"
	case models.PaymentMethodCOD:
		return "Cash on Delivery"
	}
	return string(method)
}

// ShippingOptions quotes carrier options for the user's cart.
func (s *checkoutServiceImpl) ShippingOptions(ctx context.Context, userID string, req *models.ShippingOptionsRequest) ([]models.ShippingOption, *ServiceError) {
	cart, svcErr := s.cartSvc.Get(ctx, Session{UserID: userID})
	if svcErr != nil {
		return nil, svcErr
	}
	return s.shippingSvc.GetOptions(ctx, userID, req, cart)
}

// PaymentMethods lists the methods available for the current cart. Cash on
// delivery is filtered out when the COD total would exceed the limit.
func (s *checkoutServiceImpl) PaymentMethods(ctx context.Context, userID, couponCode string) ([]models.PaymentMethodOption, *ServiceError) {
	cart, svcErr := s.cartSvc.Get(ctx, Session{UserID: userID})
	if svcErr != nil {
		return nil, svcErr
	}

	discount, freeShipping, svcErr := s.resolveCoupon(ctx, userID, couponCode, cart, false)
	if svcErr != nil {
		return nil, svcErr
	}

	lines := cartLines(cart)
	methods := []models.PaymentMethod{
		models.PaymentMethodCard,
		models.PaymentMethodUPI,
		models.PaymentMethodNetBanking,
		models.PaymentMethodWallet,
	}

	var options []models.PaymentMethodOption
	if s.stripe != nil && s.stripe.Enabled() {
		for _, m := range methods {
			opt := models.PaymentMethodOption{Method: m, Label: s.methodLabel(m)}
			if rule := s.feeRule(m); rule != nil {
				opt.FeePercent = rule.Percent
				opt.FlatFee = rule.Flat
			}
			options = append(options, opt)
		}
	}

	codQuote := s.policy.Quote(lines, discount, freeShipping, s.feeRule(models.PaymentMethodCOD))
	if s.policy.CODAvailable(codQuote.Total) {
		options = append(options, models.PaymentMethodOption{
			Method:  models.PaymentMethodCOD,
			Label:   s.methodLabel(models.PaymentMethodCOD),
			FlatFee: s.policy.CODFee,
		})
	}

	return options, nil
}

// ApplyCoupon validates a code against the current cart and returns the
// evaluation with a price preview. The redemption itself happens at order
// placement; applying a different code simply replaces the previous one.
func (s *checkoutServiceImpl) ApplyCoupon(ctx context.Context, userID, code string) (*models.CouponEvaluation, pricing.Breakdown, *ServiceError) {
	cart, svcErr := s.cartSvc.Get(ctx, Session{UserID: userID})
	if svcErr != nil {
		return nil, pricing.Breakdown{}, svcErr
	}
	if len(cart.Items) == 0 {
		return nil, pricing.Breakdown{}, NewServiceError(http.StatusBadRequest, "Cart is empty")
	}

	eval, svcErr := s.couponSvc.Evaluate(ctx, code, userID, cart)
	if svcErr != nil {
		return nil, pricing.Breakdown{}, svcErr
	}

	breakdown := s.policy.Quote(cartLines(cart), eval.DiscountAmount, eval.FreeShipping, nil)
	return eval, breakdown, nil
}

// PlaceOrder runs the final checkout pass. Any failure before the order is
// committed leaves the cart and stock untouched; after commit, a payment
// gateway failure cancels the order and restores stock.
func (s *checkoutServiceImpl) PlaceOrder(ctx context.Context, userID string, req *models.PlaceOrderRequest) (*PlacedOrder, *ServiceError) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, NewServiceError(http.StatusBadRequest, "Invalid user ID")
	}

	cart, svcErr := s.cartSvc.Get(ctx, Session{UserID: userID})
	if svcErr != nil {
		return nil, svcErr
	}
	if len(cart.Items) == 0 {
		return nil, NewServiceError(http.StatusBadRequest, "Cart is empty")
	}
	for _, item := range cart.Items {
		if !item.Available {
			return nil, NewServiceError(http.StatusConflict,
				fmt.Sprintf("%s (%s) is no longer available", item.Name, item.Size))
		}
	}

	address, err := s.addressRepo.FindByID(ctx, userID, req.AddressID)
	if err != nil {
		return nil, NewServiceError(http.StatusNotFound, "Shipping address not found")
	}

	shipping, svcErr := s.resolveShipping(ctx, userID, req, cart, address)
	if svcErr != nil {
		return nil, svcErr
	}

	discount, freeShipping, svcErr := s.resolveCoupon(ctx, userID, req.CouponCode, cart, false)
	if svcErr != nil {
		return nil, svcErr
	}
	// Free shipping covers standard delivery only; an explicitly chosen
	// carrier rate keeps its price.
	if req.ShippingRateID == "" && (freeShipping || cart.FreeShipping) {
		shipping = 0
	}

	breakdown := s.policy.QuoteWithShipping(cartLines(cart), discount, shipping, s.feeRule(req.PaymentMethod))

	if req.PaymentMethod == models.PaymentMethodCOD && !s.policy.CODAvailable(breakdown.Total) {
		return nil, NewServiceError(http.StatusUnprocessableEntity,
			fmt.Sprintf("Cash on delivery is unavailable for orders above %.0f", s.policy.CODLimit))
	}
	if req.PaymentMethod != models.PaymentMethodCOD && (s.stripe == nil || !s.stripe.Enabled()) {
		return nil, NewServiceError(http.StatusServiceUnavailable, "Online payments are currently unavailable")
	}

	reserved, svcErr := s.reserveStock(ctx, cart)
	if svcErr != nil {
		return nil, svcErr
	}

	order := s.buildOrder(userUUID, cart, address, req, breakdown)
	if err := s.orderRepo.Create(ctx, order); err != nil {
		s.restock(ctx, reserved)
		s.logger.Error("Failed to create order", zap.Error(err))
		return nil, NewServiceError(http.StatusInternalServerError, "Failed to create order")
	}

	// The coupon use is consumed only once the order exists, so a rejected
	// placement never burns it. A redemption lost to a concurrent limit
	// race rolls the order back instead.
	if order.CouponCode != "" {
		if _, _, svcErr := s.resolveCoupon(ctx, userID, order.CouponCode, cart, true); svcErr != nil {
			s.cancelFailedOrder(ctx, order, reserved)
			return nil, svcErr
		}
	}

	placed := &PlacedOrder{Order: order, Breakdown: breakdown}

	if req.PaymentMethod == models.PaymentMethodCOD {
		order.Status = models.OrderStatusConfirmed
		if err := s.orderRepo.Update(ctx, order); err != nil {
			s.logger.Error("Failed to confirm COD order", zap.String("order", order.OrderNumber), zap.Error(err))
		}
		payment := &models.Payment{
			OrderID:  order.ID,
			UserID:   userUUID,
			Method:   models.PaymentMethodCOD,
			Amount:   breakdown.Total,
			Currency: "inr",
			Status:   models.PaymentStatusProcessing,
		}
		if err := s.paymentRepo.Create(ctx, payment); err != nil {
			s.logger.Error("Failed to record COD payment", zap.Error(err))
		}
	} else {
		amountPaise := int64(math.Round(breakdown.Total * 100))
		intentID, clientSecret, err := s.stripe.CreateIntent(amountPaise, "inr", order.ID.String(), userID)
		if err != nil {
			s.cancelFailedOrder(ctx, order, reserved)
			if order.CouponCode != "" {
				s.couponSvc.Release(ctx, order.CouponCode, userID)
			}
			s.logger.Error("Stripe intent creation failed", zap.String("order", order.OrderNumber), zap.Error(err))
			return nil, NewServiceError(http.StatusBadGateway, "Payment could not be initiated")
		}
		payment := &models.Payment{
			OrderID:        order.ID,
			UserID:         userUUID,
			Method:         req.PaymentMethod,
			Amount:         breakdown.Total,
			Currency:       "inr",
			Status:         models.PaymentStatusProcessing,
			StripeIntentID: intentID,
		}
		if err := s.paymentRepo.Create(ctx, payment); err != nil {
			s.logger.Error("Failed to record payment", zap.Error(err))
		}
		placed.ClientSecret = clientSecret
	}

	if _, svcErr := s.cartSvc.Clear(ctx, Session{UserID: userID}); svcErr != nil {
		s.logger.Warn("Failed to clear cart after checkout", zap.String("user_id", userID))
	}

	if s.events != nil {
		s.events.Publish(ctx, userID, "order.created", order)
	}

	s.logger.Info("Order placed",
		zap.String("order_number", order.OrderNumber),
		zap.String("user_id", userID),
		zap.Float64("total", breakdown.Total),
		zap.String("method", string(req.PaymentMethod)))
	return placed, nil
}

// HandleStripeEvent reacts to payment confirmations from the gateway. The
// backend treats the gateway's word as final.
func (s *checkoutServiceImpl) HandleStripeEvent(ctx context.Context, event stripe.Event) error {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return fmt.Errorf("decode payment intent: %w", err)
	}

	payment, err := s.paymentRepo.FindByStripeIntentID(ctx, intent.ID)
	if err != nil {
		return fmt.Errorf("payment for intent %s: %w", intent.ID, err)
	}
	order, err := s.orderRepo.FindByID(ctx, payment.OrderID)
	if err != nil {
		return fmt.Errorf("order for payment %s: %w", payment.ID, err)
	}

	switch event.Type {
	case "payment_intent.succeeded":
		if err := s.paymentRepo.UpdateStatus(ctx, payment.ID, models.PaymentStatusSucceeded, ""); err != nil {
			return err
		}
		if order.Status == models.OrderStatusPending {
			order.Status = models.OrderStatusConfirmed
			if err := s.orderRepo.Update(ctx, order); err != nil {
				return err
			}
		}
		if s.events != nil {
			s.events.Publish(ctx, order.UserID.String(), "order.confirmed", order)
		}

	case "payment_intent.payment_failed":
		reason := "payment failed"
		if intent.LastPaymentError != nil {
			reason = intent.LastPaymentError.Msg
		}
		if err := s.paymentRepo.UpdateStatus(ctx, payment.ID, models.PaymentStatusFailed, reason); err != nil {
			return err
		}
		if order.Status.CanTransitionTo(models.OrderStatusCancelled) {
			now := time.Now()
			order.Status = models.OrderStatusCancelled
			order.CancelledAt = &now
			if err := s.orderRepo.Update(ctx, order); err != nil {
				return err
			}
			s.restockOrder(ctx, order)
			if order.CouponCode != "" {
				s.couponSvc.Release(ctx, order.CouponCode, order.UserID.String())
			}
		}
		if s.events != nil {
			s.events.Publish(ctx, order.UserID.String(), "order.payment_failed", order)
		}
	}
	return nil
}

// resolveShipping picks the shipping cost from the selected carrier rate,
// falling back to the policy's flat fee when no rate was chosen.
func (s *checkoutServiceImpl) resolveShipping(ctx context.Context, userID string, req *models.PlaceOrderRequest, cart *models.Cart, address *models.Address) (float64, *ServiceError) {
	if req.ShippingRateID == "" {
		return s.policy.ShippingCost(cart.Subtotal), nil
	}

	options, svcErr := s.shippingSvc.GetOptions(ctx, userID,
		&models.ShippingOptionsRequest{PostalCode: address.PostalCode, AddressID: req.AddressID}, cart)
	if svcErr != nil {
		return 0, svcErr
	}
	for _, opt := range options {
		if opt.RateID == req.ShippingRateID {
			return opt.Amount, nil
		}
	}
	return 0, NewServiceError(http.StatusBadRequest, "Selected shipping option is no longer available")
}

// resolveCoupon evaluates (or, at placement, redeems) the coupon. An
// invalid coupon fails the request with its specific reason: checkout
// never silently drops a discount the customer expects.
func (s *checkoutServiceImpl) resolveCoupon(ctx context.Context, userID, code string, cart *models.Cart, redeem bool) (float64, bool, *ServiceError) {
	if strings.TrimSpace(code) == "" {
		return 0, false, nil
	}

	var eval *models.CouponEvaluation
	var svcErr *ServiceError
	if redeem {
		eval, svcErr = s.couponSvc.Redeem(ctx, code, userID, cart)
	} else {
		eval, svcErr = s.couponSvc.Evaluate(ctx, code, userID, cart)
	}
	if svcErr != nil {
		return 0, false, svcErr
	}
	if !eval.Valid {
		return 0, false, NewServiceError(http.StatusUnprocessableEntity, eval.Reason)
	}
	return eval.DiscountAmount, eval.FreeShipping, nil
}

type reservedLine struct {
	variantID uuid.UUID
	quantity  int
}

// reserveStock decrements stock for every line, rolling back on the first
// failure so a rejected checkout leaves inventory untouched.
func (s *checkoutServiceImpl) reserveStock(ctx context.Context, cart *models.Cart) ([]reservedLine, *ServiceError) {
	var reserved []reservedLine
	for _, item := range cart.Items {
		if err := s.productRepo.AdjustStock(ctx, item.VariantID, -item.Quantity); err != nil {
			s.restock(ctx, reserved)
			return nil, NewServiceError(http.StatusConflict,
				fmt.Sprintf("%s (%s) is out of stock", item.Name, item.Size))
		}
		reserved = append(reserved, reservedLine{variantID: item.VariantID, quantity: item.Quantity})
	}
	return reserved, nil
}

func (s *checkoutServiceImpl) restock(ctx context.Context, reserved []reservedLine) {
	for _, r := range reserved {
		if err := s.productRepo.AdjustStock(ctx, r.variantID, r.quantity); err != nil {
			s.logger.Error("Failed to restock variant", zap.String("variant_id", r.variantID.String()), zap.Error(err))
		}
	}
}

func (s *checkoutServiceImpl) restockOrder(ctx context.Context, order *models.Order) {
	for _, item := range order.OrderItems {
		if err := s.productRepo.AdjustStock(ctx, item.VariantID, item.Quantity); err != nil {
			s.logger.Error("Failed to restock after cancellation",
				zap.String("variant_id", item.VariantID.String()), zap.Error(err))
		}
	}
}

func (s *checkoutServiceImpl) cancelFailedOrder(ctx context.Context, order *models.Order, reserved []reservedLine) {
	now := time.Now()
	order.Status = models.OrderStatusCancelled
	order.CancelledAt = &now
	if err := s.orderRepo.Update(ctx, order); err != nil {
		s.logger.Error("Failed to cancel order after payment failure", zap.Error(err))
	}
	s.restock(ctx, reserved)
}

func (s *checkoutServiceImpl) buildOrder(userID uuid.UUID, cart *models.Cart, address *models.Address, req *models.PlaceOrderRequest, breakdown pricing.Breakdown) *models.Order {
	items := make([]models.OrderItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, models.OrderItem{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Name:      item.Name,
			Size:      item.Size,
			Price:     item.Price,
			Quantity:  item.Quantity,
			ImageURL:  item.ImageURL,
		})
	}

	addressJSON, _ := json.Marshal(address)

	return &models.Order{
		OrderNumber:   newOrderNumber(),
		UserID:        userID,
		Status:        models.OrderStatusPending,
		PaymentMethod: req.PaymentMethod,
		Subtotal:      breakdown.Subtotal,
		Discount:      breakdown.Discount,
		CouponCode:    strings.ToUpper(strings.TrimSpace(req.CouponCode)),
		ShippingCost:  breakdown.ShippingCost,
		Tax:           breakdown.Tax,
		ProcessingFee: breakdown.ProcessingFee,
		Total:         breakdown.Total,
		AddressJSON:   string(addressJSON),
		OrderItems:    items,
	}
}

func newOrderNumber() string {
	return fmt.Sprintf("MA-%s-%s",
		time.Now().Format("20060102"),
		strings.ToUpper(uuid.NewString()[:8]))
}

func cartLines(cart *models.Cart) []pricing.Line {
	lines := make([]pricing.Line, 0, len(cart.Items))
	for _, item := range cart.Items {
		lines = append(lines, pricing.Line{UnitPrice: item.Price, Quantity: item.Quantity})
	}
	return lines
}
