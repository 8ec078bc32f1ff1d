package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gastro-elite/backend/internal/middleware"
	"github.com/gastro-elite/backend/internal/service"
	"github.com/gastro-elite/backend/internal/types"
)

type CategoryHandler struct {
	categoryService service.ICategoryService
	validator       middleware.TokenValidator
}

func NewCategoryHandler(categoryService service.ICategoryService, validator middleware.TokenValidator) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService, validator: validator}
}

func (h *CategoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	categories := router.Group("/categories")
	categories.Use(middleware.AuthMiddleware(h.validator))
	{
		categories.GET("", h.List)
		categories.POST("", h.Create)
		categories.DELETE("/:id", h.Delete)
	}
}

func (h *CategoryHandler) List(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	categories, err := h.categoryService.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (h *CategoryHandler) Create(c *gin.Context) {
	var req types.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	userID, _ := middleware.UserID(c)

	category, err := h.categoryService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *CategoryHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	userID, _ := middleware.UserID(c)

	if err := h.categoryService.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
