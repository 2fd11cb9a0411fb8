// internal/services/notification_service.go
package services

import (
	"errors"
	"fmt"
	"net/smtp"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/pokemart/pokemart-backend/internal/config"
	"github.com/pokemart/pokemart-backend/internal/models"
)

type NotificationService struct {
	db     *gorm.DB
	config *config.Config
}

func NewNotificationService(db *gorm.DB, config *config.Config) *NotificationService {
	return &NotificationService{
		db:     db,
		config: config,
	}
}

// Notify stores an in-app notification for the user.
func (s *NotificationService) Notify(userID uuid.UUID, message string, notificationType models.NotificationType, link string) {
	notification := &models.Notification{
		UserID:  userID,
		Message: message,
		Type:    notificationType,
		Link:    link,
	}
	if err := s.db.Create(notification).Error; err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to create notification")
	}
}

// NotifyMany stores the same notification for a batch of users.
func (s *NotificationService) NotifyMany(userIDs []uuid.UUID, message string, notificationType models.NotificationType, link string) {
	if len(userIDs) == 0 {
		return
	}
	notifications := make([]models.Notification, 0, len(userIDs))
	for _, userID := range userIDs {
		notifications = append(notifications, models.Notification{
			UserID:  userID,
			Message: message,
			Type:    notificationType,
			Link:    link,
		})
	}
	if err := s.db.Create(&notifications).Error; err != nil {
		logrus.WithError(err).Error("Failed to create bulk notifications")
	}
}

// SettingsFor loads (or lazily creates) the user's notification preferences.
func (s *NotificationService) SettingsFor(userID uuid.UUID) *models.NotificationSettings {
	var settings models.NotificationSettings
	err := s.db.Where("user_id = ?", userID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = models.NotificationSettings{
			UserID:          userID,
			OrderUpdates:    true,
			ProductRestock:  true,
			PriceAlerts:     true,
			MarketingEmails: true,
		}
		if err := s.db.Create(&settings).Error; err != nil {
			logrus.WithError(err).WithField("user_id", userID).Error("Failed to create notification settings")
		}
	}
	return &settings
}

// UpdateSettings replaces the user's notification preferences.
func (s *NotificationService) UpdateSettings(userID uuid.UUID, orderUpdates, productRestock, priceAlerts, marketingEmails bool) (*models.NotificationSettings, error) {
	settings := s.SettingsFor(userID)
	settings.OrderUpdates = orderUpdates
	settings.ProductRestock = productRestock
	settings.PriceAlerts = priceAlerts
	settings.MarketingEmails = marketingEmails
	if err := s.db.Save(settings).Error; err != nil {
		return nil, fmt.Errorf("failed to update notification settings: %w", err)
	}
	return settings, nil
}

// ListForUser returns the user's newest notifications plus the unread count.
func (s *NotificationService) ListForUser(userID uuid.UUID, limit int) ([]models.Notification, int64, error) {
	var notifications []models.Notification
	err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch notifications: %w", err)
	}

	var unread int64
	err = s.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&unread).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return notifications, unread, nil
}

// MarkRead marks one notification read; scoped to the owner.
func (s *NotificationService) MarkRead(userID, notificationID uuid.UUID) error {
	result := s.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("is_read", true)
	if result.Error != nil {
		return fmt.Errorf("failed to mark notification read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.New("notification not found")
	}
	return nil
}

// MarkAllRead marks every unread notification for the user read.
func (s *NotificationService) MarkAllRead(userID uuid.UUID) error {
	err := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

// SendEmail delivers a plain-text email through the configured SMTP relay.
// Email is best effort; in-app notifications are the system of record.
func (s *NotificationService) SendEmail(to, subject, body string) error {
	if s.config == nil || s.config.Email.SMTPHost == "" {
		return nil
	}

	auth := smtp.PlainAuth("", s.config.Email.SMTPUsername, s.config.Email.SMTPPassword, s.config.Email.SMTPHost)
	addr := fmt.Sprintf("%s:%s", s.config.Email.SMTPHost, s.config.Email.SMTPPort)

	message := fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		s.config.Email.FromName, s.config.Email.FromEmail, to, subject, body)

	if err := smtp.SendMail(addr, auth, s.config.Email.FromEmail, []string{to}, []byte(message)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
