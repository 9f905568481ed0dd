package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/maisonarome/storefront/middleware"
	"github.com/maisonarome/storefront/models"
	"github.com/maisonarome/storefront/services"
)

// CheckoutController exposes the checkout flow. All routes except the
// Stripe webhook require authentication.
type CheckoutController struct {
	checkoutSvc services.CheckoutService
	stripe      *services.StripeGateway
	logger      *zap.Logger
}

// NewCheckoutController creates a new CheckoutController.
func NewCheckoutController(checkoutSvc services.CheckoutService, stripe *services.StripeGateway, logger *zap.Logger) *CheckoutController {
	return &CheckoutController{checkoutSvc: checkoutSvc, stripe: stripe, logger: logger}
}

// ShippingOptions handles POST /checkout/shipping-options.
func (cc *CheckoutController) ShippingOptions(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)
	var req models.ShippingOptionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	options, svcErr := cc.checkoutSvc.ShippingOptions(c.Request.Context(), userID, &req)
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondOK(c, options)
}

// PaymentMethods handles GET /checkout/payment-methods.
func (cc *CheckoutController) PaymentMethods(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)
	options, svcErr := cc.checkoutSvc.PaymentMethods(c.Request.Context(), userID, c.Query("coupon"))
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondOK(c, options)
}

// ApplyCoupon handles POST /checkout/coupon.
func (cc *CheckoutController) ApplyCoupon(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)
	var req models.ApplyCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	eval, breakdown, svcErr := cc.checkoutSvc.ApplyCoupon(c.Request.Context(), userID, req.Code)
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	if !eval.Valid {
		c.JSON(http.StatusUnprocessableEntity, Response{Success: false, Error: eval.Reason, Data: eval})
		return
	}
	respondOK(c, gin.H{"coupon": eval, "breakdown": breakdown})
}

// PlaceOrder handles POST /checkout/place-order.
func (cc *CheckoutController) PlaceOrder(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)
	var req models.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	placed, svcErr := cc.checkoutSvc.PlaceOrder(c.Request.Context(), userID, &req)
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondCreated(c, placed)
}

// StripeWebhook handles POST /webhooks/stripe. The payload signature is
// verified before anything is acted on.
func (cc *CheckoutController) StripeWebhook(c *gin.Context) {
	event, err := cc.stripe.ParseWebhook(c.Request)
	if err != nil {
		cc.logger.Warn("Rejected stripe webhook", zap.Error(err))
		respondError(c, http.StatusBadRequest, "Invalid webhook payload")
		return
	}
	if err := cc.checkoutSvc.HandleStripeEvent(c.Request.Context(), event); err != nil {
		cc.logger.Error("Failed to process stripe event", zap.String("type", string(event.Type)), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to process event")
		return
	}
	respondOK(c, gin.H{"received": true})
}
