// internal/services/message_service.go
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pokemart/pokemart-backend/internal/models"
	"github.com/pokemart/pokemart-backend/internal/utils"
)

// MessageService is the customer-to-staff and buyer-to-seller messaging
// surface. Conversations are pairwise; sending to a new counterpart creates
// the conversation on the fly.
type MessageService struct {
	db                  *gorm.DB
	notificationService *NotificationService
}

func NewMessageService(db *gorm.DB, notificationService *NotificationService) *MessageService {
	return &MessageService{
		db:                  db,
		notificationService: notificationService,
	}
}

// conversationBetween finds the pairwise conversation, creating it when the
// two users have never talked.
func (s *MessageService) conversationBetween(userA, userB uuid.UUID) (*models.Conversation, error) {
	var conversation models.Conversation
	err := s.db.
		Joins("JOIN conversation_participants cp1 ON cp1.conversation_id = conversations.id AND cp1.user_id = ?", userA).
		Joins("JOIN conversation_participants cp2 ON cp2.conversation_id = conversations.id AND cp2.user_id = ?", userB).
		First(&conversation).Error
	if err == nil {
		return &conversation, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	var participants []models.User
	if err := s.db.Where("id IN ?", []uuid.UUID{userA, userB}).Find(&participants).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if len(participants) != 2 {
		return nil, errors.New("recipient not found")
	}

	conversation = models.Conversation{Participants: participants}
	if err := s.db.Create(&conversation).Error; err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return &conversation, nil
}

// Send delivers a message and notifies the recipient in-app.
func (s *MessageService) Send(sender *models.User, recipientID uuid.UUID, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errors.New("message content is required")
	}
	if sender.ID == recipientID {
		return nil, errors.New("cannot message yourself")
	}

	conversation, err := s.conversationBetween(sender.ID, recipientID)
	if err != nil {
		return nil, err
	}

	message := &models.Message{
		ConversationID: conversation.ID,
		SenderID:       sender.ID,
		RecipientID:    recipientID,
		Content:        content,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return fmt.Errorf("failed to create message: %w", err)
		}
		return tx.Model(conversation).Update("last_message_id", message.ID).Error
	})
	if err != nil {
		return nil, err
	}

	if s.notificationService != nil {
		s.notificationService.Notify(recipientID,
			fmt.Sprintf("New message from %s", sender.Username),
			models.NotificationTypeInfo,
			fmt.Sprintf("/messages/%s", conversation.ID))
	}

	return message, nil
}

// ListConversations returns the user's conversations, newest activity first.
func (s *MessageService) ListConversations(userID uuid.UUID, params utils.PaginationParams) ([]models.Conversation, int64, error) {
	query := s.db.Model(&models.Conversation{}).
		Joins("JOIN conversation_participants cp ON cp.conversation_id = conversations.id").
		Where("cp.user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count conversations: %w", err)
	}

	var conversations []models.Conversation
	err := utils.ApplyPagination(query.Order("conversations.updated_at DESC"), params).
		Preload("Participants").Preload("LastMessage").
		Find(&conversations).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch conversations: %w", err)
	}

	return conversations, total, nil
}

// Messages returns a conversation's messages oldest first, and marks the
// caller's incoming messages read.
func (s *MessageService) Messages(userID, conversationID uuid.UUID, params utils.PaginationParams) ([]models.Message, int64, error) {
	var membership int64
	err := s.db.Table("conversation_participants").
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&membership).Error
	if err != nil {
		return nil, 0, fmt.Errorf("database error: %w", err)
	}
	if membership == 0 {
		return nil, 0, errors.New("conversation not found")
	}

	query := s.db.Model(&models.Message{}).Where("conversation_id = ?", conversationID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	var messages []models.Message
	err = utils.ApplyPagination(query.Order("created_at ASC"), params).
		Find(&messages).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch messages: %w", err)
	}

	err = s.db.Model(&models.Message{}).
		Where("conversation_id = ? AND recipient_id = ? AND is_read = ?", conversationID, userID, false).
		Update("is_read", true).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to mark messages read: %w", err)
	}

	return messages, total, nil
}

// UnreadCount is the badge number shown in the storefront header.
func (s *MessageService) UnreadCount(userID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.Model(&models.Message{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return count, nil
}
