// internal/services/subscription_service_test.go
package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pokemart/pokemart-backend/internal/models"
)

func TestSubscribeIsIdempotentPerPair(t *testing.T) {
	db := newTestDB(t)
	service := NewSubscriptionService(db, NewNotificationService(db, nil))

	user := createUser(t, db, "watcher")
	category := createCategory(t, db, "Medicine")
	product := createProduct(t, db, "Potion", category)

	first, err := service.Subscribe(user.ID, product.ID, true, false)
	require.NoError(t, err)
	assert.True(t, first.NotifyPriceChange)
	assert.False(t, first.NotifyRestock)

	// Re-subscribing updates the flags in place.
	second, err := service.Subscribe(user.ID, product.ID, false, true)
	require.NoError(t, err)
	assert.False(t, second.NotifyPriceChange)
	assert.True(t, second.NotifyRestock)

	var count int64
	db.Model(&models.ProductSubscription{}).
		Where("user_id = ? AND product_id = ?", user.ID, product.ID).
		Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestSubscribeUnknownProduct(t *testing.T) {
	db := newTestDB(t)
	service := NewSubscriptionService(db, NewNotificationService(db, nil))

	user := createUser(t, db, "watcher")
	_, err := service.Subscribe(user.ID, uuid.New(), true, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "product not found")
}

func TestUnsubscribeRemovesRow(t *testing.T) {
	db := newTestDB(t)
	service := NewSubscriptionService(db, NewNotificationService(db, nil))

	user := createUser(t, db, "watcher")
	category := createCategory(t, db, "Medicine")
	product := createProduct(t, db, "Potion", category)

	_, err := service.Subscribe(user.ID, product.ID, true, true)
	require.NoError(t, err)
	require.NoError(t, service.Unsubscribe(user.ID, product.ID))

	subscription, err := service.GetSubscription(user.ID, product.ID)
	require.NoError(t, err)
	assert.Nil(t, subscription)

	// Unsubscribing twice is harmless.
	assert.NoError(t, service.Unsubscribe(user.ID, product.ID))
}

func TestNotifyPriceChangeHonorsUserSettings(t *testing.T) {
	db := newTestDB(t)
	notificationService := NewNotificationService(db, nil)
	service := NewSubscriptionService(db, notificationService)

	category := createCategory(t, db, "Medicine")
	product := createProduct(t, db, "Potion", category)

	listening := createUser(t, db, "listening")
	muted := createUser(t, db, "muted")

	_, err := service.Subscribe(listening.ID, product.ID, true, false)
	require.NoError(t, err)
	_, err = service.Subscribe(muted.ID, product.ID, true, false)
	require.NoError(t, err)

	// The muted user turned price alerts off globally.
	_, err = notificationService.UpdateSettings(muted.ID, true, true, false, true)
	require.NoError(t, err)

	service.NotifyPriceChange(product, 10.0, 8.0)

	var notifications []models.Notification
	require.NoError(t, db.Find(&notifications).Error)
	require.Len(t, notifications, 1)
	assert.Equal(t, listening.ID, notifications[0].UserID)
	assert.Contains(t, notifications[0].Message, "Price drop!")
}

func TestNotifyRestockOnlyReachesOptedIn(t *testing.T) {
	db := newTestDB(t)
	notificationService := NewNotificationService(db, nil)
	service := NewSubscriptionService(db, notificationService)

	category := createCategory(t, db, "Medicine")
	product := createProduct(t, db, "Potion", category)

	priceOnly := createUser(t, db, "priceonly")
	restock := createUser(t, db, "restock")

	_, err := service.Subscribe(priceOnly.ID, product.ID, true, false)
	require.NoError(t, err)
	_, err = service.Subscribe(restock.ID, product.ID, false, true)
	require.NoError(t, err)

	service.NotifyRestock(product)

	var notifications []models.Notification
	require.NoError(t, db.Find(&notifications).Error)
	require.Len(t, notifications, 1)
	assert.Equal(t, restock.ID, notifications[0].UserID)
	assert.Contains(t, notifications[0].Message, "back in stock")
}
