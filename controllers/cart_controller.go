package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maisonarome/storefront/models"
	"github.com/maisonarome/storefront/services"
)

// CartController exposes the cart endpoints. Requests identify either an
// authenticated user (bearer token) or a guest session (X-Session-Token).
type CartController struct {
	cartSvc services.CartService
}

// NewCartController creates a new CartController.
func NewCartController(cartSvc services.CartService) *CartController {
	return &CartController{cartSvc: cartSvc}
}

func (cc *CartController) session(c *gin.Context) (services.Session, bool) {
	sess := sessionFrom(c)
	if sess.UserID == "" && sess.SessionToken == "" {
		respondError(c, http.StatusBadRequest, "Missing session: authenticate or send X-Session-Token")
		return sess, false
	}
	return sess, true
}

// Get handles GET /cart.
func (cc *CartController) Get(c *gin.Context) {
	sess, ok := cc.session(c)
	if !ok {
		return
	}
	cart, svcErr := cc.cartSvc.Get(c.Request.Context(), sess)
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondOK(c, cart)
}

// AddItem handles POST /cart/items.
func (cc *CartController) AddItem(c *gin.Context) {
	sess, ok := cc.session(c)
	if !ok {
		return
	}
	var req models.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	cart, svcErr := cc.cartSvc.Add(c.Request.Context(), sess, &req)
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondOK(c, cart)
}

// UpdateItem handles PATCH /cart/items/:id.
func (cc *CartController) UpdateItem(c *gin.Context) {
	sess, ok := cc.session(c)
	if !ok {
		return
	}
	lineID, ok := uuidParam(c, "id")
	if !ok {
		respondError(c, http.StatusBadRequest, "Invalid cart item ID")
		return
	}
	var req models.UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	cart, svcErr := cc.cartSvc.UpdateQuantity(c.Request.Context(), sess, lineID, req.Quantity)
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondOK(c, cart)
}

// RemoveItem handles DELETE /cart/items/:id.
func (cc *CartController) RemoveItem(c *gin.Context) {
	sess, ok := cc.session(c)
	if !ok {
		return
	}
	lineID, ok := uuidParam(c, "id")
	if !ok {
		respondError(c, http.StatusBadRequest, "Invalid cart item ID")
		return
	}
	cart, svcErr := cc.cartSvc.Remove(c.Request.Context(), sess, lineID)
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondOK(c, cart)
}

// Clear handles DELETE /cart.
func (cc *CartController) Clear(c *gin.Context) {
	sess, ok := cc.session(c)
	if !ok {
		return
	}
	cart, svcErr := cc.cartSvc.Clear(c.Request.Context(), sess)
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondOK(c, cart)
}
