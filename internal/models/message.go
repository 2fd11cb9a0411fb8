// internal/models/message.go
package models

import (
	"github.com/google/uuid"
)

type Conversation struct {
	BaseModel
	LastMessageID *uuid.UUID `json:"last_message_id" gorm:"type:uuid"`

	Participants []User    `json:"participants,omitempty" gorm:"many2many:conversation_participants"`
	Messages     []Message `json:"messages,omitempty" gorm:"foreignKey:ConversationID"`
	LastMessage  *Message  `json:"last_message,omitempty" gorm:"foreignKey:LastMessageID"`
}

type Message struct {
	BaseModel
	ConversationID uuid.UUID `json:"conversation_id" gorm:"type:uuid;not null;index"`
	SenderID       uuid.UUID `json:"sender_id" gorm:"type:uuid;not null"`
	RecipientID    uuid.UUID `json:"recipient_id" gorm:"type:uuid;not null;index"`
	Content        string    `json:"content" gorm:"type:text;not null"`
	IsRead         bool      `json:"is_read" gorm:"default:false"`

	Sender    User `json:"-" gorm:"foreignKey:SenderID"`
	Recipient User `json:"-" gorm:"foreignKey:RecipientID"`
}
