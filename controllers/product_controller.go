package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/maisonarome/storefront/models"
	"github.com/maisonarome/storefront/services"
)

// ProductController exposes the catalogue endpoints.
type ProductController struct {
	productSvc services.ProductService
}

// NewProductController creates a new ProductController.
func NewProductController(productSvc services.ProductService) *ProductController {
	return &ProductController{productSvc: productSvc}
}

// List handles GET /products.
func (pc *ProductController) List(c *gin.Context) {
	page, limit := pageParams(c)
	filter := models.ProductFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Brand:    c.Query("brand"),
		Sort:     c.Query("sort"),
		Page:     page,
		Limit:    limit,
	}
	if v := c.Query("min_price"); v != "" {
		filter.MinPrice, _ = strconv.ParseFloat(v, 64)
	}
	if v := c.Query("max_price"); v != "" {
		filter.MaxPrice, _ = strconv.ParseFloat(v, 64)
	}
	if v := c.Query("featured"); v != "" {
		featured := v == "true"
		filter.Featured = &featured
	}

	products, total, svcErr := pc.productSvc.List(c.Request.Context(), filter)
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondPaged(c, products, page, limit, total)
}

// Get handles GET /products/:id.
func (pc *ProductController) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		respondError(c, http.StatusBadRequest, "Invalid product ID")
		return
	}
	product, svcErr := pc.productSvc.Get(c.Request.Context(), id)
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondOK(c, product)
}

// Create handles POST /admin/products.
func (pc *ProductController) Create(c *gin.Context) {
	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	product, svcErr := pc.productSvc.Create(c.Request.Context(), &req)
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondCreated(c, product)
}

// Update handles PUT /admin/products/:id.
func (pc *ProductController) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		respondError(c, http.StatusBadRequest, "Invalid product ID")
		return
	}
	var req models.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	product, svcErr := pc.productSvc.Update(c.Request.Context(), id, &req)
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondOK(c, product)
}

// Delete handles DELETE /admin/products/:id.
func (pc *ProductController) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		respondError(c, http.StatusBadRequest, "Invalid product ID")
		return
	}
	if svcErr := pc.productSvc.Delete(c.Request.Context(), id); svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondMessage(c, "Product deleted")
}
