// internal/handlers/notification.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pokemart/pokemart-backend/internal/services"
	"github.com/pokemart/pokemart-backend/internal/utils"
)

type NotificationHandler struct {
	notificationService *services.NotificationService
}

func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// GET /notifications
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	notifications, unread, err := h.notificationService.ListForUser(userID, limit)
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to fetch notifications")
		return
	}

	utils.SuccessResponseWithMeta(c, notifications, gin.H{"unread_count": unread})
}

// PATCH /notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	notificationID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.notificationService.MarkRead(userID, notificationID); err != nil {
		utils.NotFoundResponse(c, "Notification")
		return
	}

	utils.SuccessResponse(c, gin.H{"message": "Notification marked read"})
}

// PATCH /notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	if err := h.notificationService.MarkAllRead(userID); err != nil {
		utils.InternalErrorResponse(c, "Failed to mark notifications read")
		return
	}

	utils.SuccessResponse(c, gin.H{"message": "All notifications marked read"})
}

// GET /notifications/settings
func (h *NotificationHandler) GetSettings(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	utils.SuccessResponse(c, h.notificationService.SettingsFor(userID))
}

// PUT /notifications/settings
func (h *NotificationHandler) UpdateSettings(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req struct {
		OrderUpdates    bool `json:"order_updates"`
		ProductRestock  bool `json:"product_restock"`
		PriceAlerts     bool `json:"price_alerts"`
		MarketingEmails bool `json:"marketing_emails"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	settings, err := h.notificationService.UpdateSettings(userID,
		req.OrderUpdates, req.ProductRestock, req.PriceAlerts, req.MarketingEmails)
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to update settings")
		return
	}

	utils.SuccessResponse(c, settings)
}
