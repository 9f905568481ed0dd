package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/maisonarome/storefront/controllers"
	"github.com/maisonarome/storefront/middleware"
	"github.com/maisonarome/storefront/models"
	"github.com/maisonarome/storefront/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- Mock CartService ---

type mockCartService struct {
	getFn    func(ctx context.Context, sess services.Session) (*models.Cart, *services.ServiceError)
	addFn    func(ctx context.Context, sess services.Session, req *models.AddItemRequest) (*models.Cart, *services.ServiceError)
	updateFn func(ctx context.Context, sess services.Session, lineID uuid.UUID, quantity int) (*models.Cart, *services.ServiceError)
	removeFn func(ctx context.Context, sess services.Session, lineID uuid.UUID) (*models.Cart, *services.ServiceError)
	clearFn  func(ctx context.Context, sess services.Session) (*models.Cart, *services.ServiceError)
	mergeFn  func(ctx context.Context, userID, sessionToken string) (*models.Cart, *services.ServiceError)
}

func (m *mockCartService) Get(ctx context.Context, sess services.Session) (*models.Cart, *services.ServiceError) {
	return m.getFn(ctx, sess)
}
func (m *mockCartService) Add(ctx context.Context, sess services.Session, req *models.AddItemRequest) (*models.Cart, *services.ServiceError) {
	return m.addFn(ctx, sess, req)
}
func (m *mockCartService) UpdateQuantity(ctx context.Context, sess services.Session, lineID uuid.UUID, quantity int) (*models.Cart, *services.ServiceError) {
	return m.updateFn(ctx, sess, lineID, quantity)
}
func (m *mockCartService) Remove(ctx context.Context, sess services.Session, lineID uuid.UUID) (*models.Cart, *services.ServiceError) {
	return m.removeFn(ctx, sess, lineID)
}
func (m *mockCartService) Clear(ctx context.Context, sess services.Session) (*models.Cart, *services.ServiceError) {
	return m.clearFn(ctx, sess)
}
func (m *mockCartService) MergeGuestCart(ctx context.Context, userID, sessionToken string) (*models.Cart, *services.ServiceError) {
	return m.mergeFn(ctx, userID, sessionToken)
}

// --- Helpers ---

func setupCartRouter(svc services.CartService) *gin.Engine {
	r := gin.New()
	cc := controllers.NewCartController(svc)

	// Stand-in for OptionalAuth: expose the guest session header.
	r.Use(func(c *gin.Context) {
		if token := c.GetHeader("X-Session-Token"); token != "" {
			c.Set(middleware.ContextSessionToken, token)
		}
		c.Next()
	})

	r.GET("/cart", cc.Get)
	r.POST("/cart/items", cc.AddItem)
	r.PATCH("/cart/items/:id", cc.UpdateItem)
	r.DELETE("/cart/items/:id", cc.RemoveItem)
	r.DELETE("/cart", cc.Clear)
	return r
}

// --- Tests ---

func TestCartController_Get_Success(t *testing.T) {
	svc := &mockCartService{
		getFn: func(_ context.Context, sess services.Session) (*models.Cart, *services.ServiceError) {
			assert.Equal(t, "guest-42", sess.SessionToken)
			return &models.Cart{OwnerKey: "guest-42", Subtotal: 1099, ItemCount: 1}, nil
		},
	}
	r := setupCartRouter(svc)

	req, _ := http.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set("X-Session-Token", "guest-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Success bool        `json:"success"`
		Data    models.Cart `json:"data"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, 1099.0, resp.Data.Subtotal)
}

func TestCartController_Get_MissingSession(t *testing.T) {
	r := setupCartRouter(&mockCartService{})

	req, _ := http.NewRequest(http.MethodGet, "/cart", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
}

func TestCartController_AddItem_ServiceError(t *testing.T) {
	svc := &mockCartService{
		addFn: func(_ context.Context, _ services.Session, _ *models.AddItemRequest) (*models.Cart, *services.ServiceError) {
			return nil, services.NewServiceError(http.StatusNotFound, "Product not found")
		},
	}
	r := setupCartRouter(svc)

	body, _ := json.Marshal(models.AddItemRequest{
		ProductID: uuid.New(),
		Size:      "50ml",
		Quantity:  1,
	})
	req, _ := http.NewRequest(http.MethodPost, "/cart/items", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-Token", "guest-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCartController_UpdateItem_InvalidID(t *testing.T) {
	r := setupCartRouter(&mockCartService{})

	req, _ := http.NewRequest(http.MethodPatch, "/cart/items/not-a-uuid", bytes.NewBufferString(`{"quantity":2}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-Token", "guest-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCartController_RemoveItem_Success(t *testing.T) {
	lineID := uuid.New()
	svc := &mockCartService{
		removeFn: func(_ context.Context, _ services.Session, id uuid.UUID) (*models.Cart, *services.ServiceError) {
			assert.Equal(t, lineID, id)
			return &models.Cart{OwnerKey: "guest-42"}, nil
		},
	}
	r := setupCartRouter(svc)

	req, _ := http.NewRequest(http.MethodDelete, "/cart/items/"+lineID.String(), nil)
	req.Header.Set("X-Session-Token", "guest-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
