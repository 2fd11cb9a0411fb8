// internal/handlers/admin.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/pokemart/pokemart-backend/internal/models"
	"github.com/pokemart/pokemart-backend/internal/services"
	"github.com/pokemart/pokemart-backend/internal/utils"
)

type AdminHandler struct {
	adminService *services.AdminService
}

func NewAdminHandler(adminService *services.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// GET /admin/dashboard
func (h *AdminHandler) GetDashboard(c *gin.Context) {
	stats, err := h.adminService.GetDashboardStats()
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to compute dashboard stats")
		return
	}

	utils.SuccessResponse(c, stats)
}

// GET /admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	filter := services.UserFilter{
		PaginationParams: utils.GetPaginationParams(c),
		Role:             c.Query("role"),
		Search:           c.Query("search"),
	}
	switch c.Query("active") {
	case "true":
		active := true
		filter.Active = &active
	case "false":
		active := false
		filter.Active = &active
	}

	users, total, err := h.adminService.ListUsers(filter)
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to fetch users")
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(users, total, filter.PaginationParams))
}

// PATCH /admin/users/:id/role
func (h *AdminHandler) SetUserRole(c *gin.Context) {
	adminID, ok := userIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	userID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "role is required", nil)
		return
	}

	user, err := h.adminService.SetUserRole(adminID, userID, models.UserRole(req.Role))
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, user)
}

// PATCH /admin/users/:id/active
func (h *AdminHandler) SetUserActive(c *gin.Context) {
	adminID, ok := userIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	userID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		IsActive *bool `json:"is_active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "is_active is required", nil)
		return
	}

	user, err := h.adminService.SetUserActive(adminID, userID, *req.IsActive)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, user)
}

// PATCH /admin/users/:id/review-ban
func (h *AdminHandler) SetReviewBan(c *gin.Context) {
	adminID, ok := userIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	userID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Banned *bool `json:"banned" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "banned is required", nil)
		return
	}

	user, err := h.adminService.SetReviewBan(adminID, userID, *req.Banned)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, user)
}

// GET /admin/audit-logs
func (h *AdminHandler) ListAuditLogs(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	logs, total, err := h.adminService.ListAuditLogs(params)
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to fetch audit logs")
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(logs, total, params))
}
