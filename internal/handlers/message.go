// internal/handlers/message.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pokemart/pokemart-backend/internal/services"
	"github.com/pokemart/pokemart-backend/internal/utils"
)

type MessageHandler struct {
	messageService *services.MessageService
	userService    *services.UserService
}

func NewMessageHandler(messageService *services.MessageService, userService *services.UserService) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		userService:    userService,
	}
}

// GET /messages/conversations
func (h *MessageHandler) ListConversations(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	params := utils.GetPaginationParams(c)
	conversations, total, err := h.messageService.ListConversations(userID, params)
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to fetch conversations")
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(conversations, total, params))
}

// GET /messages/conversations/:id
func (h *MessageHandler) GetMessages(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	conversationID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	messages, total, err := h.messageService.Messages(userID, conversationID, params)
	if err != nil {
		utils.NotFoundResponse(c, "Conversation")
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(messages, total, params))
}

// POST /messages
func (h *MessageHandler) SendMessage(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	sender, err := h.userService.GetUserByID(userID)
	if err != nil {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req struct {
		RecipientID string `json:"recipient_id" binding:"required"`
		Content     string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	recipientID, err := uuid.Parse(req.RecipientID)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid recipient_id", nil)
		return
	}

	message, err := h.messageService.Send(sender, recipientID, req.Content)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.CreatedResponse(c, message)
}

// GET /messages/unread-count
func (h *MessageHandler) UnreadCount(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	count, err := h.messageService.UnreadCount(userID)
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to count unread messages")
		return
	}

	utils.SuccessResponse(c, gin.H{"unread_count": count})
}
