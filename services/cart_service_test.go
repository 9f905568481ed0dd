package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/maisonarome/storefront/models"
	"github.com/maisonarome/storefront/pricing"
)

// memCartStore is an in-memory CartStore for tests. failSave simulates a
// store that reads fine but rejects writes.
type memCartStore struct {
	carts    map[string]*models.Cart
	failSave bool
}

func newMemCartStore() *memCartStore {
	return &memCartStore{carts: make(map[string]*models.Cart)}
}

func (s *memCartStore) Get(ctx context.Context, ownerKey string) (*models.Cart, error) {
	return s.carts[ownerKey], nil
}

func (s *memCartStore) Save(ctx context.Context, cart *models.Cart) error {
	if s.failSave {
		return errors.New("store down")
	}
	s.carts[cart.OwnerKey] = cart
	return nil
}

func (s *memCartStore) Delete(ctx context.Context, ownerKey string) error {
	if s.failSave {
		return errors.New("store down")
	}
	delete(s.carts, ownerKey)
	return nil
}

// fakeProductRepoBase supplies no-op implementations for the repository
// methods a test does not exercise.
type fakeProductRepoBase struct{}

func (fakeProductRepoBase) Create(ctx context.Context, product *models.Product) error { return nil }
func (fakeProductRepoBase) List(ctx context.Context, filter models.ProductFilter) ([]models.Product, int64, error) {
	return nil, 0, nil
}
func (fakeProductRepoBase) Update(ctx context.Context, product *models.Product) error { return nil }
func (fakeProductRepoBase) Delete(ctx context.Context, id uuid.UUID) error            { return nil }
func (fakeProductRepoBase) AdjustStock(ctx context.Context, variantID uuid.UUID, delta int) error {
	return nil
}
func (fakeProductRepoBase) UpdateRating(ctx context.Context, productID uuid.UUID, avgRating float64, reviewCount int) error {
	return nil
}
func (fakeProductRepoBase) Count(ctx context.Context) (int64, error) { return 0, nil }

// fakeProductRepo serves a fixed catalogue.
type fakeProductRepo struct {
	fakeProductRepoBase
	products map[uuid.UUID]*models.Product
}

func (r *fakeProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return p, nil
}

func (r *fakeProductRepo) FindVariant(ctx context.Context, productID uuid.UUID, size string) (*models.ProductVariant, error) {
	p, ok := r.products[productID]
	if !ok {
		return nil, errors.New("not found")
	}
	for i := range p.Variants {
		if p.Variants[i].Size == size {
			return &p.Variants[i], nil
		}
	}
	return nil, errors.New("not found")
}

var testPolicy = pricing.Policy{
	FreeShippingThreshold: 2999,
	FlatShippingFee:       50,
	TaxRatePercent:        18,
	CODLimit:              10000,
	CODFee:                40,
}

func testProduct(price float64, stock, maxPerOrder int) *models.Product {
	id := uuid.New()
	return &models.Product{
		ID:     id,
		Name:   "Noir Absolu",
		Active: true,
		Variants: []models.ProductVariant{{
			ID:          uuid.New(),
			ProductID:   id,
			Size:        "50ml",
			Price:       price,
			Stock:       stock,
			MaxPerOrder: maxPerOrder,
		}},
	}
}

func newTestCartService(products ...*models.Product) (CartService, *memCartStore, *memCartStore) {
	repo := &fakeProductRepo{products: make(map[uuid.UUID]*models.Product)}
	for _, p := range products {
		repo.products[p.ID] = p
	}
	guest := newMemCartStore()
	user := newMemCartStore()
	svc := NewCartService(guest, user, repo, testPolicy, nil, zap.NewNop())
	return svc, guest, user
}

func TestAddItemSumsQuantitiesForSameLine(t *testing.T) {
	product := testProduct(1099, 10, 5)
	svc, _, _ := newTestCartService(product)
	sess := Session{SessionToken: "guest-1"}

	_, svcErr := svc.Add(context.Background(), sess, &models.AddItemRequest{
		ProductID: product.ID, Size: "50ml", Quantity: 2,
	})
	require.Nil(t, svcErr)

	cart, svcErr := svc.Add(context.Background(), sess, &models.AddItemRequest{
		ProductID: product.ID, Size: "50ml", Quantity: 1,
	})
	require.Nil(t, svcErr)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.Equal(t, 3, cart.ItemCount)
	assert.Equal(t, 3297.0, cart.Subtotal)
}

func TestAddItemClampsToMaxPerOrder(t *testing.T) {
	product := testProduct(500, 100, 4)
	svc, _, _ := newTestCartService(product)
	sess := Session{SessionToken: "guest-1"}

	cart, svcErr := svc.Add(context.Background(), sess, &models.AddItemRequest{
		ProductID: product.ID, Size: "50ml", Quantity: 9,
	})
	require.Nil(t, svcErr)
	assert.Equal(t, 4, cart.Items[0].Quantity)

	cart, svcErr = svc.Add(context.Background(), sess, &models.AddItemRequest{
		ProductID: product.ID, Size: "50ml", Quantity: 2,
	})
	require.Nil(t, svcErr)
	assert.Equal(t, 4, cart.Items[0].Quantity, "adding past the cap stays at the cap")
}

func TestAddUnknownSizeFails(t *testing.T) {
	product := testProduct(500, 10, 5)
	svc, _, _ := newTestCartService(product)

	_, svcErr := svc.Add(context.Background(), Session{SessionToken: "g"}, &models.AddItemRequest{
		ProductID: product.ID, Size: "200ml", Quantity: 1,
	})
	require.NotNil(t, svcErr)
	assert.Equal(t, http.StatusNotFound, svcErr.StatusCode)
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	product := testProduct(800, 10, 5)
	svc, _, _ := newTestCartService(product)
	sess := Session{SessionToken: "guest-1"}

	cart, svcErr := svc.Add(context.Background(), sess, &models.AddItemRequest{
		ProductID: product.ID, Size: "50ml", Quantity: 2,
	})
	require.Nil(t, svcErr)
	lineID := cart.Items[0].ID

	cart, svcErr = svc.UpdateQuantity(context.Background(), sess, lineID, 0)
	require.Nil(t, svcErr)
	assert.Empty(t, cart.Items)
	assert.Equal(t, 0.0, cart.Total)
}

func TestUpdateQuantityUnknownLine(t *testing.T) {
	svc, _, _ := newTestCartService()
	_, svcErr := svc.UpdateQuantity(context.Background(), Session{SessionToken: "g"}, uuid.New(), 2)
	require.NotNil(t, svcErr)
	assert.Equal(t, http.StatusNotFound, svcErr.StatusCode)
}

func TestDerivedTotalsRecomputedOnEveryMutation(t *testing.T) {
	product := testProduct(1500, 10, 10)
	svc, _, _ := newTestCartService(product)
	sess := Session{SessionToken: "guest-1"}

	cart, svcErr := svc.Add(context.Background(), sess, &models.AddItemRequest{
		ProductID: product.ID, Size: "50ml", Quantity: 1,
	})
	require.Nil(t, svcErr)
	assert.Equal(t, 1500.0, cart.Subtotal)
	assert.Equal(t, 50.0, cart.ShippingCost)
	assert.False(t, cart.FreeShipping)
	assert.Equal(t, 1499.0, cart.AmountToFreeShip)

	cart, svcErr = svc.UpdateQuantity(context.Background(), sess, cart.Items[0].ID, 2)
	require.Nil(t, svcErr)
	assert.Equal(t, 3000.0, cart.Subtotal)
	assert.True(t, cart.FreeShipping)
	assert.Equal(t, 0.0, cart.ShippingCost)
	assert.Equal(t, 0.0, cart.AmountToFreeShip)
}

func TestGuestWriteFailureKeepsInMemoryCart(t *testing.T) {
	product := testProduct(700, 10, 5)
	svc, guest, _ := newTestCartService(product)
	sess := Session{SessionToken: "guest-1"}

	_, svcErr := svc.Add(context.Background(), sess, &models.AddItemRequest{
		ProductID: product.ID, Size: "50ml", Quantity: 1,
	})
	require.Nil(t, svcErr)

	guest.failSave = true
	cart, svcErr := svc.Add(context.Background(), sess, &models.AddItemRequest{
		ProductID: product.ID, Size: "50ml", Quantity: 1,
	})
	require.Nil(t, svcErr, "guest cart writes are best-effort")
	assert.Equal(t, 2, cart.Items[0].Quantity)
}

func TestUserWriteFailureAborts(t *testing.T) {
	product := testProduct(700, 10, 5)
	svc, _, user := newTestCartService(product)
	sess := Session{UserID: uuid.NewString()}

	user.failSave = true
	_, svcErr := svc.Add(context.Background(), sess, &models.AddItemRequest{
		ProductID: product.ID, Size: "50ml", Quantity: 1,
	})
	require.NotNil(t, svcErr)
	assert.Equal(t, http.StatusInternalServerError, svcErr.StatusCode)
}

func TestMergeGuestCartFoldsLines(t *testing.T) {
	product := testProduct(900, 10, 5)
	other := testProduct(1200, 10, 5)
	svc, guest, _ := newTestCartService(product, other)

	guestSess := Session{SessionToken: "guest-1"}
	userID := uuid.NewString()
	userSess := Session{UserID: userID}

	_, svcErr := svc.Add(context.Background(), guestSess, &models.AddItemRequest{
		ProductID: product.ID, Size: "50ml", Quantity: 2,
	})
	require.Nil(t, svcErr)
	_, svcErr = svc.Add(context.Background(), guestSess, &models.AddItemRequest{
		ProductID: other.ID, Size: "50ml", Quantity: 1,
	})
	require.Nil(t, svcErr)

	_, svcErr = svc.Add(context.Background(), userSess, &models.AddItemRequest{
		ProductID: product.ID, Size: "50ml", Quantity: 1,
	})
	require.Nil(t, svcErr)

	merged, svcErr := svc.MergeGuestCart(context.Background(), userID, "guest-1")
	require.Nil(t, svcErr)

	require.Len(t, merged.Items, 2)
	idx := merged.FindLine(product.ID, "50ml")
	require.GreaterOrEqual(t, idx, 0)
	assert.Equal(t, 3, merged.Items[idx].Quantity, "matching lines sum their quantities")

	assert.Nil(t, guest.carts["guest-1"], "guest cart is deleted after merge")
}

func TestClearEmptiesCart(t *testing.T) {
	product := testProduct(600, 10, 5)
	svc, _, _ := newTestCartService(product)
	sess := Session{SessionToken: "guest-1"}

	_, svcErr := svc.Add(context.Background(), sess, &models.AddItemRequest{
		ProductID: product.ID, Size: "50ml", Quantity: 2,
	})
	require.Nil(t, svcErr)

	cart, svcErr := svc.Clear(context.Background(), sess)
	require.Nil(t, svcErr)
	assert.Empty(t, cart.Items)
	assert.Equal(t, 0.0, cart.Total)

	cart, svcErr = svc.Get(context.Background(), sess)
	require.Nil(t, svcErr)
	assert.Empty(t, cart.Items)
}
