package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maisonarome/storefront/models"
	"github.com/maisonarome/storefront/services"
)

// OrderController exposes order history for customers and the pipeline
// for admins.
type OrderController struct {
	orderSvc    services.OrderService
	shippingSvc services.ShippingService
}

// NewOrderController creates a new OrderController.
func NewOrderController(orderSvc services.OrderService, shippingSvc services.ShippingService) *OrderController {
	return &OrderController{orderSvc: orderSvc, shippingSvc: shippingSvc}
}

// List handles GET /orders.
func (oc *OrderController) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Not authenticated")
		return
	}
	page, limit := pageParams(c)
	orders, total, svcErr := oc.orderSvc.ListUserOrders(c.Request.Context(), userID, page, limit)
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondPaged(c, orders, page, limit, total)
}

// Get handles GET /orders/:id.
func (oc *OrderController) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Not authenticated")
		return
	}
	orderID, ok := uuidParam(c, "id")
	if !ok {
		respondError(c, http.StatusBadRequest, "Invalid order ID")
		return
	}
	order, svcErr := oc.orderSvc.GetUserOrder(c.Request.Context(), orderID, userID)
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondOK(c, order)
}

// Cancel handles POST /orders/:id/cancel.
func (oc *OrderController) Cancel(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Not authenticated")
		return
	}
	orderID, ok := uuidParam(c, "id")
	if !ok {
		respondError(c, http.StatusBadRequest, "Invalid order ID")
		return
	}
	order, svcErr := oc.orderSvc.CancelOrder(c.Request.Context(), orderID, userID)
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondOK(c, order)
}

// Track handles GET /orders/:id/track.
func (oc *OrderController) Track(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Not authenticated")
		return
	}
	orderID, ok := uuidParam(c, "id")
	if !ok {
		respondError(c, http.StatusBadRequest, "Invalid order ID")
		return
	}
	order, svcErr := oc.orderSvc.GetUserOrder(c.Request.Context(), orderID, userID)
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	if order.TrackingNumber == "" {
		respondError(c, http.StatusConflict, "Order has no tracking number yet")
		return
	}
	status, svcErr := oc.shippingSvc.Track(c.Request.Context(), c.Query("carrier"), order.TrackingNumber)
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondOK(c, status)
}

// AdminList handles GET /admin/orders.
func (oc *OrderController) AdminList(c *gin.Context) {
	page, limit := pageParams(c)
	orders, total, svcErr := oc.orderSvc.ListAllOrders(c.Request.Context(), page, limit)
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondPaged(c, orders, page, limit, total)
}

// AdminGet handles GET /admin/orders/:id.
func (oc *OrderController) AdminGet(c *gin.Context) {
	orderID, ok := uuidParam(c, "id")
	if !ok {
		respondError(c, http.StatusBadRequest, "Invalid order ID")
		return
	}
	order, svcErr := oc.orderSvc.GetOrder(c.Request.Context(), orderID)
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondOK(c, order)
}

// UpdateStatus handles PATCH /admin/orders/:id/status.
func (oc *OrderController) UpdateStatus(c *gin.Context) {
	orderID, ok := uuidParam(c, "id")
	if !ok {
		respondError(c, http.StatusBadRequest, "Invalid order ID")
		return
	}
	var req models.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	order, svcErr := oc.orderSvc.UpdateStatus(c.Request.Context(), orderID, &req)
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondOK(c, order)
}
