package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gastro-elite/backend/internal/middleware"
	"github.com/gastro-elite/backend/internal/service"
	"github.com/gastro-elite/backend/internal/types"
)

type AdminHandler struct {
	adminService service.IAdminService
	auditService *service.AuditService
	authService  service.IAuthService
}

func NewAdminHandler(adminService service.IAdminService, auditService *service.AuditService, authService service.IAuthService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		auditService: auditService,
		authService:  authService,
	}
}

func (h *AdminHandler) RegisterRoutes(router *gin.RouterGroup) {
	admin := router.Group("/admin")
	admin.Use(middleware.AuthMiddleware(h.authService), middleware.AdminMiddleware(h.authService))
	{
		admin.GET("/stats", h.Stats)
		admin.GET("/users", h.ListUsers)
		admin.DELETE("/users/:id", h.DeleteUser)
		admin.PUT("/users/:id/admin", h.SetAdmin)
		admin.GET("/companies", h.ListCompanies)
		admin.POST("/companies/:id/approve", h.ApproveCompany)
		admin.POST("/companies/:id/reject", h.RejectCompany)
		admin.GET("/audit-logs", h.ListAuditLogs)
		admin.GET("/error-logs", h.ListErrorLogs)
	}
}

func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.adminService.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	page := pageFromQuery(c)
	users, total, err := h.adminService.ListUsers(c.Request.Context(), c.Query("q"), page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pageResponse(users, total, page))
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	actorID, _ := middleware.UserID(c)

	if err := h.adminService.DeleteUser(c.Request.Context(), actorID, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) SetAdmin(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req types.SetAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	actorID, _ := middleware.UserID(c)

	user, err := h.adminService.SetAdmin(c.Request.Context(), actorID, id, *req.IsAdmin)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AdminHandler) ListCompanies(c *gin.Context) {
	page := pageFromQuery(c)
	companies, total, err := h.adminService.ListCompanies(c.Request.Context(), c.Query("status"), page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pageResponse(companies, total, page))
}

func (h *AdminHandler) ApproveCompany(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	actorID, _ := middleware.UserID(c)

	company, err := h.adminService.ApproveCompany(c.Request.Context(), actorID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

func (h *AdminHandler) RejectCompany(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req types.RejectCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	actorID, _ := middleware.UserID(c)

	company, err := h.adminService.RejectCompany(c.Request.Context(), actorID, id, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

func (h *AdminHandler) ListAuditLogs(c *gin.Context) {
	page := pageFromQuery(c)
	logs, total, err := h.auditService.ListAuditLogs(c.Request.Context(), c.Query("action"), page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pageResponse(logs, total, page))
}

func (h *AdminHandler) ListErrorLogs(c *gin.Context) {
	page := pageFromQuery(c)
	logs, total, err := h.auditService.ListErrorLogs(c.Request.Context(), page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pageResponse(logs, total, page))
}
