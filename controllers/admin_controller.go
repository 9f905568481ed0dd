package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/maisonarome/storefront/services"
)

// AdminController exposes dashboards, reports and user management.
type AdminController struct {
	adminSvc services.AdminService
}

// NewAdminController creates a new AdminController.
func NewAdminController(adminSvc services.AdminService) *AdminController {
	return &AdminController{adminSvc: adminSvc}
}

// Dashboard handles GET /admin/dashboard.
func (ac *AdminController) Dashboard(c *gin.Context) {
	summary, svcErr := ac.adminSvc.Dashboard(c.Request.Context())
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondOK(c, summary)
}

func dateRange(c *gin.Context) (time.Time, time.Time, bool) {
	to := time.Now()
	from := to.AddDate(0, 0, -30)

	if v := c.Query("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			respondError(c, http.StatusBadRequest, "Invalid 'from' date, expected YYYY-MM-DD")
			return from, to, false
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			respondError(c, http.StatusBadRequest, "Invalid 'to' date, expected YYYY-MM-DD")
			return from, to, false
		}
		to = t.Add(24*time.Hour - time.Second)
	}
	if to.Before(from) {
		respondError(c, http.StatusBadRequest, "'to' must not precede 'from'")
		return from, to, false
	}
	return from, to, true
}

// SalesReport handles GET /admin/reports/sales.
func (ac *AdminController) SalesReport(c *gin.Context) {
	from, to, ok := dateRange(c)
	if !ok {
		return
	}
	report, svcErr := ac.adminSvc.SalesReport(c.Request.Context(), from, to)
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondOK(c, report)
}

// ExportOrders handles GET /admin/reports/orders.csv.
func (ac *AdminController) ExportOrders(c *gin.Context) {
	from, to, ok := dateRange(c)
	if !ok {
		return
	}
	data, svcErr := ac.adminSvc.ExportOrdersCSV(c.Request.Context(), from, to)
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="orders.csv"`)
	c.Data(http.StatusOK, "text/csv", data)
}

// ListUsers handles GET /admin/users.
func (ac *AdminController) ListUsers(c *gin.Context) {
	page, limit := pageParams(c)
	users, total, svcErr := ac.adminSvc.ListUsers(c.Request.Context(), page, limit)
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondPaged(c, users, page, limit, total)
}
