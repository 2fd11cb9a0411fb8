// internal/handlers/subscription.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/pokemart/pokemart-backend/internal/services"
	"github.com/pokemart/pokemart-backend/internal/utils"
)

type SubscriptionHandler struct {
	subscriptionService *services.SubscriptionService
}

func NewSubscriptionHandler(subscriptionService *services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService}
}

// PUT /products/:id/subscription
//
// Subscribing twice is an update, not an error; the latest notify flags win.
func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	productID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		NotifyPriceChange bool `json:"notify_price_change"`
		NotifyRestock     bool `json:"notify_restock"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	subscription, err := h.subscriptionService.Subscribe(userID, productID, req.NotifyPriceChange, req.NotifyRestock)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, subscription)
}

// DELETE /products/:id/subscription
func (h *SubscriptionHandler) Unsubscribe(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	productID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.subscriptionService.Unsubscribe(userID, productID); err != nil {
		utils.InternalErrorResponse(c, "Failed to remove subscription")
		return
	}

	utils.SuccessResponse(c, gin.H{"message": "Unsubscribed"})
}

// GET /products/:id/subscription
func (h *SubscriptionHandler) GetSubscription(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	productID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	subscription, err := h.subscriptionService.GetSubscription(userID, productID)
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to load subscription")
		return
	}
	if subscription == nil {
		utils.SuccessResponse(c, gin.H{"subscribed": false})
		return
	}

	utils.SuccessResponse(c, gin.H{
		"subscribed":   true,
		"subscription": subscription,
	})
}
