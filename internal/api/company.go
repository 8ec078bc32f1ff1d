package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gastro-elite/backend/internal/middleware"
	"github.com/gastro-elite/backend/internal/service"
	"github.com/gastro-elite/backend/internal/types"
)

// CompanyHandler serves company details, employees and the invitations an
// owner manages.
type CompanyHandler struct {
	companyService    service.ICompanyService
	invitationService service.IInvitationService
	validator         middleware.TokenValidator
}

func NewCompanyHandler(companyService service.ICompanyService, invitationService service.IInvitationService, validator middleware.TokenValidator) *CompanyHandler {
	return &CompanyHandler{
		companyService:    companyService,
		invitationService: invitationService,
		validator:         validator,
	}
}

func (h *CompanyHandler) RegisterRoutes(router *gin.RouterGroup) {
	company := router.Group("/company")
	company.Use(middleware.AuthMiddleware(h.validator))
	{
		company.GET("", h.GetCompany)
		company.PUT("/:id", h.UpdateCompany)
		company.GET("/:id/employees", h.ListEmployees)
		company.POST("/:id/employees", h.InviteEmployee)
		company.DELETE("/:id/employees/:userId", h.RemoveEmployee)
		company.GET("/:id/invitations", h.ListInvitations)
		company.DELETE("/:id/invitations/:invitationId", h.RevokeInvitation)
	}

	invitations := router.Group("/invitations")
	{
		invitations.GET("/:token", h.LookupInvitation)
		invitations.POST("/:token/accept", middleware.AuthMiddleware(h.validator), h.AcceptInvitation)
	}
}

func (h *CompanyHandler) GetCompany(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	company, err := h.companyService.GetCompanyForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

func (h *CompanyHandler) UpdateCompany(c *gin.Context) {
	companyID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req types.CompanyDetails
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	userID, _ := middleware.UserID(c)

	company, err := h.companyService.UpdateCompany(c.Request.Context(), userID, companyID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

func (h *CompanyHandler) ListEmployees(c *gin.Context) {
	companyID, ok := paramID(c, "id")
	if !ok {
		return
	}
	userID, _ := middleware.UserID(c)

	employees, err := h.companyService.ListEmployees(c.Request.Context(), userID, companyID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"employees": employees})
}

func (h *CompanyHandler) InviteEmployee(c *gin.Context) {
	companyID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req types.InviteEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	userID, _ := middleware.UserID(c)

	invitation, err := h.invitationService.Invite(c.Request.Context(), userID, companyID, req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, invitation)
}

func (h *CompanyHandler) RemoveEmployee(c *gin.Context) {
	companyID, ok := paramID(c, "id")
	if !ok {
		return
	}
	employeeID, ok := paramID(c, "userId")
	if !ok {
		return
	}
	userID, _ := middleware.UserID(c)

	if err := h.companyService.RemoveEmployee(c.Request.Context(), userID, companyID, employeeID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CompanyHandler) ListInvitations(c *gin.Context) {
	companyID, ok := paramID(c, "id")
	if !ok {
		return
	}
	userID, _ := middleware.UserID(c)

	invitations, err := h.invitationService.List(c.Request.Context(), userID, companyID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invitations": invitations})
}

func (h *CompanyHandler) RevokeInvitation(c *gin.Context) {
	companyID, ok := paramID(c, "id")
	if !ok {
		return
	}
	invitationID, ok := paramID(c, "invitationId")
	if !ok {
		return
	}
	userID, _ := middleware.UserID(c)

	if err := h.invitationService.Revoke(c.Request.Context(), userID, companyID, invitationID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// LookupInvitation is public so the signup page can prefill the invitee.
func (h *CompanyHandler) LookupInvitation(c *gin.Context) {
	lookup, err := h.invitationService.Lookup(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lookup)
}

func (h *CompanyHandler) AcceptInvitation(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	membership, err := h.invitationService.Accept(c.Request.Context(), userID, c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, membership)
}
