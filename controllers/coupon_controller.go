package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maisonarome/storefront/models"
	"github.com/maisonarome/storefront/services"
)

// CouponController exposes admin coupon management.
type CouponController struct {
	couponSvc services.CouponService
}

// NewCouponController creates a new CouponController.
func NewCouponController(couponSvc services.CouponService) *CouponController {
	return &CouponController{couponSvc: couponSvc}
}

// Create handles POST /admin/coupons.
func (cc *CouponController) Create(c *gin.Context) {
	var req models.CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	coupon, svcErr := cc.couponSvc.CreateCoupon(c.Request.Context(), &req)
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondCreated(c, coupon)
}

// Get handles GET /admin/coupons/:code.
func (cc *CouponController) Get(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		respondError(c, http.StatusBadRequest, "Missing coupon code")
		return
	}
	coupon, svcErr := cc.couponSvc.GetCoupon(c.Request.Context(), code)
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondOK(c, coupon)
}

// List handles GET /admin/coupons.
func (cc *CouponController) List(c *gin.Context) {
	page, limit := pageParams(c)
	coupons, total, svcErr := cc.couponSvc.ListCoupons(c.Request.Context(), page, limit)
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondPaged(c, coupons, page, limit, total)
}

// Deactivate handles DELETE /admin/coupons/:code.
func (cc *CouponController) Deactivate(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		respondError(c, http.StatusBadRequest, "Missing coupon code")
		return
	}
	if svcErr := cc.couponSvc.DeactivateCoupon(c.Request.Context(), code); svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondMessage(c, "Coupon deactivated")
}
