package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gastro-elite/backend/internal/middleware"
	"github.com/gastro-elite/backend/internal/service"
	"github.com/gastro-elite/backend/internal/types"
)

type RecipeHandler struct {
	recipeService service.IRecipeService
	imageService  *service.ImageService
	validator     middleware.TokenValidator
}

func NewRecipeHandler(recipeService service.IRecipeService, imageService *service.ImageService, validator middleware.TokenValidator) *RecipeHandler {
	return &RecipeHandler{
		recipeService: recipeService,
		imageService:  imageService,
		validator:     validator,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	recipes := router.Group("/recipes")
	recipes.Use(middleware.AuthMiddleware(h.validator))
	{
		recipes.GET("", h.ListRecipes)
		recipes.POST("", h.CreateRecipe)
		recipes.GET("/:id", h.GetRecipe)
		recipes.PUT("/:id", h.UpdateRecipe)
		recipes.DELETE("/:id", h.DeleteRecipe)
		recipes.POST("/:id/image", h.UploadImage)
	}
}

// ListRecipes returns every recipe visible to the caller, deduplicated by name.
func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	filter := types.RecipeFilter{
		CategoryID: c.Query("category"),
		Query:      c.Query("q"),
	}

	recipes, err := h.recipeService.ListRecipes(c.Request.Context(), userID, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	userID, _ := middleware.UserID(c)

	recipe, err := h.recipeService.GetRecipe(c.Request.Context(), userID, c.Query("scope"), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req types.RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	userID, _ := middleware.UserID(c)

	recipe, err := h.recipeService.CreateRecipe(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req types.RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	userID, _ := middleware.UserID(c)

	scope := c.Query("scope")
	if scope == "" {
		scope = req.Scope
	}
	recipe, err := h.recipeService.UpdateRecipe(c.Request.Context(), userID, scope, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	userID, _ := middleware.UserID(c)

	if err := h.recipeService.DeleteRecipe(c.Request.Context(), userID, c.Query("scope"), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadImage accepts a multipart "image" field and stores it in object storage.
func (h *RecipeHandler) UploadImage(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if !h.imageService.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image storage is not configured"})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, service.MaxImageSize+1<<20)
	fileHeader, err := c.FormFile("image")
	if err != nil {
		badRequest(c, "multipart field \"image\" is required")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		badRequest(c, "failed to read upload")
		return
	}
	defer file.Close()

	userID, _ := middleware.UserID(c)
	url, err := h.imageService.UploadRecipeImage(c.Request.Context(), userID, c.Query("scope"), id, file)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"image_url": url})
}
