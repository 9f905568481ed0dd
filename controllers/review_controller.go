package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maisonarome/storefront/middleware"
	"github.com/maisonarome/storefront/models"
	"github.com/maisonarome/storefront/services"
)

// ReviewController exposes product review endpoints.
type ReviewController struct {
	reviewSvc services.ReviewService
}

// NewReviewController creates a new ReviewController.
func NewReviewController(reviewSvc services.ReviewService) *ReviewController {
	return &ReviewController{reviewSvc: reviewSvc}
}

// ListByProduct handles GET /products/:id/reviews.
func (rc *ReviewController) ListByProduct(c *gin.Context) {
	productID, ok := uuidParam(c, "id")
	if !ok {
		respondError(c, http.StatusBadRequest, "Invalid product ID")
		return
	}
	page, limit := pageParams(c)
	filter := models.ReviewListFilter{
		ProductID: productID,
		Sort:      c.Query("sort"),
		Page:      page,
		Limit:     limit,
	}
	reviews, total, svcErr := rc.reviewSvc.ListByProduct(c.Request.Context(), filter)
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondPaged(c, reviews, page, limit, total)
}

// Submit handles POST /reviews.
func (rc *ReviewController) Submit(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Not authenticated")
		return
	}
	var req models.SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	userName := c.GetString(middleware.ContextUserName)
	if userName == "" {
		userName = c.GetString(middleware.ContextUserEmail)
	}
	review, svcErr := rc.reviewSvc.Submit(c.Request.Context(), userID, userName, &req)
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondCreated(c, review)
}

// MarkHelpful handles POST /reviews/:id/helpful.
func (rc *ReviewController) MarkHelpful(c *gin.Context) {
	reviewID, ok := uuidParam(c, "id")
	if !ok {
		respondError(c, http.StatusBadRequest, "Invalid review ID")
		return
	}
	if svcErr := rc.reviewSvc.MarkHelpful(c.Request.Context(), reviewID); svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondMessage(c, "Marked helpful")
}

// Report handles POST /reviews/:id/report.
func (rc *ReviewController) Report(c *gin.Context) {
	reviewID, ok := uuidParam(c, "id")
	if !ok {
		respondError(c, http.StatusBadRequest, "Invalid review ID")
		return
	}
	if svcErr := rc.reviewSvc.Report(c.Request.Context(), reviewID); svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondMessage(c, "Review reported")
}

// Delete handles DELETE /reviews/:id.
func (rc *ReviewController) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Not authenticated")
		return
	}
	reviewID, ok := uuidParam(c, "id")
	if !ok {
		respondError(c, http.StatusBadRequest, "Invalid review ID")
		return
	}
	isAdmin := c.GetString(middleware.ContextUserRole) == "admin"
	if svcErr := rc.reviewSvc.Delete(c.Request.Context(), reviewID, userID, isAdmin); svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondMessage(c, "Review deleted")
}
