package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maisonarome/storefront/services"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

// Pagination is the list metadata attached to paged responses.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// PagedData wraps a list payload with its pagination.
type PagedData struct {
	Items      interface{} `json:"items"`
	Pagination Pagination  `json:"pagination"`
}

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func respondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

func respondMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, Response{Success: true, Message: message})
}

func respondPaged(c *gin.Context, items interface{}, page, limit int, total int64) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    PagedData{Items: items, Pagination: Pagination{Page: page, Limit: limit, Total: total}},
	})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, Response{Success: false, Error: message})
}

func respondServiceError(c *gin.Context, err *services.ServiceError) {
	respondError(c, err.StatusCode, err.Message)
}

func respondBadRequest(c *gin.Context, err error) {
	respondError(c, http.StatusBadRequest, "Invalid request: "+err.Error())
}
