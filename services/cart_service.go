package services

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/maisonarome/storefront/models"
	"github.com/maisonarome/storefront/pricing"
	"github.com/maisonarome/storefront/repository"
)

// EventPublisher delivers out-of-band events to the realtime channel.
// Publishing is best-effort; a nil publisher disables it.
type EventPublisher interface {
	Publish(ctx context.Context, userID, eventType string, payload interface{})
}

// CartService is the cart state machine. Every mutation recomputes the
// derived totals before the cart is persisted; a failed store write leaves
// the previously saved state untouched.
type CartService interface {
	Get(ctx context.Context, sess Session) (*models.Cart, *ServiceError)
	Add(ctx context.Context, sess Session, req *models.AddItemRequest) (*models.Cart, *ServiceError)
	UpdateQuantity(ctx context.Context, sess Session, lineID uuid.UUID, quantity int) (*models.Cart, *ServiceError)
	Remove(ctx context.Context, sess Session, lineID uuid.UUID) (*models.Cart, *ServiceError)
	Clear(ctx context.Context, sess Session) (*models.Cart, *ServiceError)
	MergeGuestCart(ctx context.Context, userID, sessionToken string) (*models.Cart, *ServiceError)
}

type cartServiceImpl struct {
	guestStore  repository.CartStore
	userStore   repository.CartStore
	productRepo repository.ProductRepository
	policy      pricing.Policy
	events      EventPublisher
	logger      *zap.Logger
}

// NewCartService creates a new CartService.
func NewCartService(
	guestStore repository.CartStore,
	userStore repository.CartStore,
	productRepo repository.ProductRepository,
	policy pricing.Policy,
	events EventPublisher,
	logger *zap.Logger,
) CartService {
	return &cartServiceImpl{
		guestStore:  guestStore,
		userStore:   userStore,
		productRepo: productRepo,
		policy:      policy,
		events:      events,
		logger:      logger,
	}
}

func (s *cartServiceImpl) store(sess Session) repository.CartStore {
	if sess.Authenticated() {
		return s.userStore
	}
	return s.guestStore
}

// recompute refreshes every derived field from the current lines. Derived
// fields are never written from anywhere else.
func (s *cartServiceImpl) recompute(cart *models.Cart) {
	lines := make([]pricing.Line, 0, len(cart.Items))
	itemCount := 0
	for _, item := range cart.Items {
		lines = append(lines, pricing.Line{UnitPrice: item.Price, Quantity: item.Quantity})
		itemCount += item.Quantity
	}

	cart.Subtotal = pricing.Subtotal(lines)
	cart.ItemCount = itemCount
	cart.ShippingCost = s.policy.ShippingCost(cart.Subtotal)
	cart.FreeShipping = cart.Subtotal >= s.policy.FreeShippingThreshold

	if len(cart.Items) == 0 {
		cart.Total = 0
		cart.AmountToFreeShip = s.policy.FreeShippingThreshold
		return
	}

	cart.Total = cart.Subtotal + cart.ShippingCost
	if cart.FreeShipping {
		cart.AmountToFreeShip = 0
	} else {
		cart.AmountToFreeShip = s.policy.FreeShippingThreshold - cart.Subtotal
	}
}

// load fetches the session's cart, returning a fresh empty cart when none
// is stored yet.
func (s *cartServiceImpl) load(ctx context.Context, sess Session) (*models.Cart, *ServiceError) {
	cart, err := s.store(sess).Get(ctx, sess.OwnerKey())
	if err != nil {
		s.logger.Error("Failed to load cart", zap.String("owner", sess.OwnerKey()), zap.Error(err))
		return nil, NewServiceError(http.StatusInternalServerError, "Failed to load cart")
	}
	if cart == nil {
		cart = &models.Cart{OwnerKey: sess.OwnerKey(), Items: []models.CartLineItem{}}
		s.recompute(cart)
	}
	return cart, nil
}

// save persists the mutated cart. For authenticated sessions a write
// failure aborts the mutation; guest store failures are logged and
// swallowed, leaving the in-memory result as the source of truth.
func (s *cartServiceImpl) save(ctx context.Context, sess Session, cart *models.Cart) *ServiceError {
	if err := s.store(sess).Save(ctx, cart); err != nil {
		if sess.Authenticated() {
			s.logger.Error("Failed to save cart", zap.String("owner", sess.OwnerKey()), zap.Error(err))
			return NewServiceError(http.StatusInternalServerError, "Failed to save cart")
		}
		s.logger.Warn("Guest cart write failed, keeping in-memory state",
			zap.String("owner", sess.OwnerKey()), zap.Error(err))
	}
	return nil
}

func (s *cartServiceImpl) publish(ctx context.Context, sess Session, eventType string, cart *models.Cart) {
	if s.events == nil || !sess.Authenticated() {
		return
	}
	s.events.Publish(ctx, sess.UserID, eventType, cart)
}

// Get returns the current cart snapshot, recomputed against the policy.
func (s *cartServiceImpl) Get(ctx context.Context, sess Session) (*models.Cart, *ServiceError) {
	cart, svcErr := s.load(ctx, sess)
	if svcErr != nil {
		return nil, svcErr
	}
	s.recompute(cart)
	return cart, nil
}

// Add puts quantity units of (product, size) in the cart. An existing line
// with the same identity absorbs the quantity; the result is clamped to
// [1, max per order].
func (s *cartServiceImpl) Add(ctx context.Context, sess Session, req *models.AddItemRequest) (*models.Cart, *ServiceError) {
	quantity := req.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	product, err := s.productRepo.FindByID(ctx, req.ProductID)
	if err != nil {
		return nil, NewServiceError(http.StatusNotFound, "Product not found")
	}
	variant, err := s.productRepo.FindVariant(ctx, req.ProductID, req.Size)
	if err != nil {
		return nil, NewServiceError(http.StatusNotFound, "Size not available for this product")
	}

	cart, svcErr := s.load(ctx, sess)
	if svcErr != nil {
		return nil, svcErr
	}

	if idx := cart.FindLine(req.ProductID, req.Size); idx >= 0 {
		cart.Items[idx].Quantity = clampQuantity(cart.Items[idx].Quantity+quantity, variant.MaxPerOrder)
		cart.Items[idx].Price = variant.Price
		cart.Items[idx].Available = product.Active && variant.Stock > 0
	} else {
		cart.Items = append(cart.Items, models.CartLineItem{
			ID:            uuid.New(),
			ProductID:     product.ID,
			VariantID:     variant.ID,
			Name:          product.Name,
			Size:          variant.Size,
			Price:         variant.Price,
			OriginalPrice: variant.OriginalPrice,
			Quantity:      clampQuantity(quantity, variant.MaxPerOrder),
			ImageURL:      product.ImageURL,
			Available:     product.Active && variant.Stock > 0,
			MaxQuantity:   variant.MaxPerOrder,
		})
	}

	s.recompute(cart)
	if svcErr := s.save(ctx, sess, cart); svcErr != nil {
		return nil, svcErr
	}
	s.publish(ctx, sess, "cart.updated", cart)
	return cart, nil
}

// UpdateQuantity replaces a line's quantity. Zero or negative removes the
// line; anything above the per-order maximum is clamped down to it.
func (s *cartServiceImpl) UpdateQuantity(ctx context.Context, sess Session, lineID uuid.UUID, quantity int) (*models.Cart, *ServiceError) {
	cart, svcErr := s.load(ctx, sess)
	if svcErr != nil {
		return nil, svcErr
	}

	idx := cart.FindLineByID(lineID)
	if idx < 0 {
		return nil, NewServiceError(http.StatusNotFound, "Cart item not found")
	}

	if quantity <= 0 {
		cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	} else {
		cart.Items[idx].Quantity = clampQuantity(quantity, cart.Items[idx].MaxQuantity)
	}

	s.recompute(cart)
	if svcErr := s.save(ctx, sess, cart); svcErr != nil {
		return nil, svcErr
	}
	s.publish(ctx, sess, "cart.updated", cart)
	return cart, nil
}

// Remove deletes a line by its ID.
func (s *cartServiceImpl) Remove(ctx context.Context, sess Session, lineID uuid.UUID) (*models.Cart, *ServiceError) {
	cart, svcErr := s.load(ctx, sess)
	if svcErr != nil {
		return nil, svcErr
	}

	idx := cart.FindLineByID(lineID)
	if idx < 0 {
		return nil, NewServiceError(http.StatusNotFound, "Cart item not found")
	}
	cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)

	s.recompute(cart)
	if svcErr := s.save(ctx, sess, cart); svcErr != nil {
		return nil, svcErr
	}
	s.publish(ctx, sess, "cart.updated", cart)
	return cart, nil
}

// Clear empties the cart.
func (s *cartServiceImpl) Clear(ctx context.Context, sess Session) (*models.Cart, *ServiceError) {
	cart := &models.Cart{OwnerKey: sess.OwnerKey(), Items: []models.CartLineItem{}, UpdatedAt: time.Now()}
	s.recompute(cart)

	if err := s.store(sess).Delete(ctx, sess.OwnerKey()); err != nil {
		if sess.Authenticated() {
			s.logger.Error("Failed to clear cart", zap.String("owner", sess.OwnerKey()), zap.Error(err))
			return nil, NewServiceError(http.StatusInternalServerError, "Failed to clear cart")
		}
		s.logger.Warn("Guest cart clear failed, keeping in-memory state",
			zap.String("owner", sess.OwnerKey()), zap.Error(err))
	}
	s.publish(ctx, sess, "cart.cleared", cart)
	return cart, nil
}

// MergeGuestCart folds a guest session's cart into the user's cart on
// login. Matching (product, size) lines sum their quantities up to the
// line maximum; the guest cart is deleted only after the merged cart is
// saved.
func (s *cartServiceImpl) MergeGuestCart(ctx context.Context, userID, sessionToken string) (*models.Cart, *ServiceError) {
	userSess := Session{UserID: userID}

	guestCart, err := s.guestStore.Get(ctx, sessionToken)
	if err != nil {
		s.logger.Error("Failed to load guest cart for merge", zap.Error(err))
		return nil, NewServiceError(http.StatusInternalServerError, "Failed to merge cart")
	}

	userCart, svcErr := s.load(ctx, userSess)
	if svcErr != nil {
		return nil, svcErr
	}

	if guestCart != nil {
		for _, item := range guestCart.Items {
			if idx := userCart.FindLine(item.ProductID, item.Size); idx >= 0 {
				userCart.Items[idx].Quantity = clampQuantity(
					userCart.Items[idx].Quantity+item.Quantity,
					userCart.Items[idx].MaxQuantity,
				)
			} else {
				userCart.Items = append(userCart.Items, item)
			}
		}
	}

	userCart.OwnerKey = userID
	s.recompute(userCart)
	if svcErr := s.save(ctx, userSess, userCart); svcErr != nil {
		return nil, svcErr
	}

	if guestCart != nil {
		if err := s.guestStore.Delete(ctx, sessionToken); err != nil {
			s.logger.Warn("Failed to delete guest cart after merge", zap.Error(err))
		}
	}

	s.publish(ctx, userSess, "cart.merged", userCart)
	return userCart, nil
}

func clampQuantity(q, max int) int {
	if max > 0 && q > max {
		return max
	}
	if q < 1 {
		return 1
	}
	return q
}
