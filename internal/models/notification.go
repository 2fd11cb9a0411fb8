// internal/models/notification.go
package models

import (
	"github.com/google/uuid"
)

type Notification struct {
	BaseModel
	UserID  uuid.UUID        `json:"user_id" gorm:"type:uuid;not null;index"`
	Message string           `json:"message" gorm:"type:text;not null"`
	Type    NotificationType `json:"type" gorm:"type:varchar(20);default:'info'"`
	Link    string           `json:"link" gorm:"size:255"`
	IsRead  bool             `json:"is_read" gorm:"default:false;index"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}

type NotificationSettings struct {
	BaseModel
	UserID          uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex"`
	OrderUpdates    bool      `json:"order_updates" gorm:"default:true"`
	ProductRestock  bool      `json:"product_restock" gorm:"default:true"`
	PriceAlerts     bool      `json:"price_alerts" gorm:"default:true"`
	MarketingEmails bool      `json:"marketing_emails" gorm:"default:true"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}
