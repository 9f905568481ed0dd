package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maisonarome/storefront/models"
	"github.com/maisonarome/storefront/services"
)

// WishlistController exposes the wishlist endpoints.
type WishlistController struct {
	wishlistSvc services.WishlistService
}

// NewWishlistController creates a new WishlistController.
func NewWishlistController(wishlistSvc services.WishlistService) *WishlistController {
	return &WishlistController{wishlistSvc: wishlistSvc}
}

// List handles GET /wishlist.
func (wc *WishlistController) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Not authenticated")
		return
	}
	entries, stats, svcErr := wc.wishlistSvc.List(c.Request.Context(), userID)
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondOK(c, gin.H{"items": entries, "stats": stats})
}

// Add handles POST /wishlist.
func (wc *WishlistController) Add(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Not authenticated")
		return
	}
	var req models.WishlistAddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	if svcErr := wc.wishlistSvc.Add(c.Request.Context(), userID, req.ProductID); svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondMessage(c, "Added to wishlist")
}

// Check handles GET /wishlist/:productId.
func (wc *WishlistController) Check(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Not authenticated")
		return
	}
	productID, ok := uuidParam(c, "productId")
	if !ok {
		respondError(c, http.StatusBadRequest, "Invalid product ID")
		return
	}
	pinned, svcErr := wc.wishlistSvc.Contains(c.Request.Context(), userID, productID)
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondOK(c, gin.H{"pinned": pinned})
}

// Toggle handles POST /wishlist/:productId/toggle.
func (wc *WishlistController) Toggle(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Not authenticated")
		return
	}
	productID, ok := uuidParam(c, "productId")
	if !ok {
		respondError(c, http.StatusBadRequest, "Invalid product ID")
		return
	}
	pinned, svcErr := wc.wishlistSvc.Toggle(c.Request.Context(), userID, productID)
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondOK(c, gin.H{"pinned": pinned})
}

// Remove handles DELETE /wishlist/:productId.
func (wc *WishlistController) Remove(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Not authenticated")
		return
	}
	productID, ok := uuidParam(c, "productId")
	if !ok {
		respondError(c, http.StatusBadRequest, "Invalid product ID")
		return
	}
	if svcErr := wc.wishlistSvc.Remove(c.Request.Context(), userID, productID); svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondMessage(c, "Removed from wishlist")
}
