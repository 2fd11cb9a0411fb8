// internal/services/subscription_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pokemart/pokemart-backend/internal/models"
)

// SubscriptionService maintains product-update subscriptions and fans out
// price/restock notifications to subscribers.
type SubscriptionService struct {
	db                  *gorm.DB
	notificationService *NotificationService
}

func NewSubscriptionService(db *gorm.DB, notificationService *NotificationService) *SubscriptionService {
	return &SubscriptionService{
		db:                  db,
		notificationService: notificationService,
	}
}

// Subscribe upserts the (user, product) subscription. Re-subscribing updates
// the notify flags in place; there is never more than one row per pair.
func (s *SubscriptionService) Subscribe(userID, productID uuid.UUID, notifyPrice, notifyRestock bool) (*models.ProductSubscription, error) {
	var product models.Product
	if err := s.db.First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("product not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	subscription := &models.ProductSubscription{
		UserID:            userID,
		ProductID:         productID,
		NotifyPriceChange: notifyPrice,
		NotifyRestock:     notifyRestock,
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"notify_price_change", "notify_restock", "updated_at",
		}),
	}).Create(subscription).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save subscription: %w", err)
	}

	var saved models.ProductSubscription
	if err := s.db.Where("user_id = ? AND product_id = ?", userID, productID).
		First(&saved).Error; err != nil {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}
	return &saved, nil
}

func (s *SubscriptionService) Unsubscribe(userID, productID uuid.UUID) error {
	err := s.db.Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.ProductSubscription{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	return nil
}

func (s *SubscriptionService) GetSubscription(userID, productID uuid.UUID) (*models.ProductSubscription, error) {
	var subscription models.ProductSubscription
	err := s.db.Where("user_id = ? AND product_id = ?", userID, productID).
		First(&subscription).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &subscription, nil
}

// NotifyPriceChange tells subscribers who opted into price alerts. Users who
// disabled price alerts in their notification settings are skipped.
func (s *SubscriptionService) NotifyPriceChange(product *models.Product, oldPrice, newPrice float64) {
	var subscriptions []models.ProductSubscription
	err := s.db.Where("product_id = ? AND notify_price_change = ?", product.ID, true).
		Find(&subscriptions).Error
	if err != nil {
		logrus.WithError(err).Error("Failed to load price-change subscribers")
		return
	}

	var message string
	if newPrice < oldPrice {
		message = fmt.Sprintf("Price drop! %s is now $%.2f (was $%.2f)", product.Name, newPrice, oldPrice)
	} else {
		message = fmt.Sprintf("Price change: %s is now $%.2f (was $%.2f)", product.Name, newPrice, oldPrice)
	}

	recipients := make([]uuid.UUID, 0, len(subscriptions))
	for i := range subscriptions {
		if s.notificationService.SettingsFor(subscriptions[i].UserID).PriceAlerts {
			recipients = append(recipients, subscriptions[i].UserID)
		}
	}
	s.notificationService.NotifyMany(recipients, message,
		models.NotificationTypeInfo, fmt.Sprintf("/products/%s", product.ID))
}

// NotifyRestock tells subscribers a product is back in stock.
func (s *SubscriptionService) NotifyRestock(product *models.Product) {
	var subscriptions []models.ProductSubscription
	err := s.db.Where("product_id = ? AND notify_restock = ?", product.ID, true).
		Find(&subscriptions).Error
	if err != nil {
		logrus.WithError(err).Error("Failed to load restock subscribers")
		return
	}

	message := fmt.Sprintf("%s is back in stock!", product.Name)

	recipients := make([]uuid.UUID, 0, len(subscriptions))
	for i := range subscriptions {
		if s.notificationService.SettingsFor(subscriptions[i].UserID).ProductRestock {
			recipients = append(recipients, subscriptions[i].UserID)
		}
	}
	s.notificationService.NotifyMany(recipients, message,
		models.NotificationTypeSuccess, fmt.Sprintf("/products/%s", product.ID))
}
