package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maisonarome/storefront/middleware"
	"github.com/maisonarome/storefront/models"
	"github.com/maisonarome/storefront/services"
)

// AddressController exposes saved-address endpoints.
type AddressController struct {
	addressSvc services.AddressService
}

// NewAddressController creates a new AddressController.
func NewAddressController(addressSvc services.AddressService) *AddressController {
	return &AddressController{addressSvc: addressSvc}
}

func (ac *AddressController) userID(c *gin.Context) (string, bool) {
	userID := c.GetString(middleware.ContextUserID)
	if userID == "" {
		respondError(c, http.StatusUnauthorized, "Not authenticated")
		return "", false
	}
	return userID, true
}

// List handles GET /addresses.
func (ac *AddressController) List(c *gin.Context) {
	userID, ok := ac.userID(c)
	if !ok {
		return
	}
	addresses, svcErr := ac.addressSvc.List(c.Request.Context(), userID)
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondOK(c, addresses)
}

// Create handles POST /addresses.
func (ac *AddressController) Create(c *gin.Context) {
	userID, ok := ac.userID(c)
	if !ok {
		return
	}
	var req models.AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	address, svcErr := ac.addressSvc.Create(c.Request.Context(), userID, &req)
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondCreated(c, address)
}

// Update handles PUT /addresses/:id.
func (ac *AddressController) Update(c *gin.Context) {
	userID, ok := ac.userID(c)
	if !ok {
		return
	}
	var req models.AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	address, svcErr := ac.addressSvc.Update(c.Request.Context(), userID, c.Param("id"), &req)
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondOK(c, address)
}

// Delete handles DELETE /addresses/:id.
func (ac *AddressController) Delete(c *gin.Context) {
	userID, ok := ac.userID(c)
	if !ok {
		return
	}
	if svcErr := ac.addressSvc.Delete(c.Request.Context(), userID, c.Param("id")); svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondMessage(c, "Address deleted")
}

// SetDefault handles POST /addresses/:id/default.
func (ac *AddressController) SetDefault(c *gin.Context) {
	userID, ok := ac.userID(c)
	if !ok {
		return
	}
	if svcErr := ac.addressSvc.SetDefault(c.Request.Context(), userID, c.Param("id")); svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondMessage(c, "Default address updated")
}
