// internal/handlers/cart.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pokemart/pokemart-backend/internal/services"
	"github.com/pokemart/pokemart-backend/internal/utils"
)

type CartHandler struct {
	orderService *services.OrderService
}

func NewCartHandler(orderService *services.OrderService) *CartHandler {
	return &CartHandler{orderService: orderService}
}

// GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	cart, err := h.orderService.ActiveCart(userID)
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to load cart")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"cart":  cart,
		"total": cart.TotalPrice(),
	})
}

// POST /cart/items
func (h *CartHandler) AddItem(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req struct {
		ProductID string `json:"product_id" binding:"required"`
		Quantity  int    `json:"quantity"`
		Size      string `json:"size"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product_id", nil)
		return
	}

	cart, err := h.orderService.AddToCart(userID, productID, req.Quantity, req.Size)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"cart":  cart,
		"total": cart.TotalPrice(),
	})
}

// PUT /cart/items/:id
func (h *CartHandler) UpdateItem(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	itemID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	cart, err := h.orderService.UpdateCartItem(userID, itemID, req.Quantity)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"cart":  cart,
		"total": cart.TotalPrice(),
	})
}

// DELETE /cart/items/:id
func (h *CartHandler) RemoveItem(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	itemID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	cart, err := h.orderService.RemoveCartItem(userID, itemID)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"cart":  cart,
		"total": cart.TotalPrice(),
	})
}
