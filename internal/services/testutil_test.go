// internal/services/testutil_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pokemart/pokemart-backend/internal/models"
)

// newTestDB opens a fresh in-memory database per test. The pool is pinned to
// one connection so every goroutine sees the same database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Product{},
		&models.ProductView{},
		&models.ProductInterest{},
		&models.ProductSubscription{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Review{},
		&models.Notification{},
		&models.NotificationSettings{},
		&models.Conversation{},
		&models.Message{},
		&models.AuditLog{},
	))

	return db
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Role:     models.RoleCustomer,
		IsActive: true,
	}
	require.NoError(t, user.SetPassword("Sup3rSecret!"))
	require.NoError(t, db.Create(user).Error)
	return user
}

func createCategory(t *testing.T, db *gorm.DB, name string) *models.Category {
	t.Helper()

	category := &models.Category{Name: name}
	require.NoError(t, db.Create(category).Error)
	return category
}

// createProduct inserts a listed product; mutators tweak fields before save.
func createProduct(t *testing.T, db *gorm.DB, name string, category *models.Category, mutators ...func(*models.Product)) *models.Product {
	t.Helper()

	product := &models.Product{
		Name:        name,
		Description: name + " description",
		Price:       9.99,
		CategoryID:  category.ID,
		Quantity:    10,
		IsListed:    true,
	}
	for _, mutate := range mutators {
		mutate(product)
	}
	require.NoError(t, db.Create(product).Error)
	product.Category = *category
	return product
}

// createFulfilledOrder marks the products as bought and received by the user.
func createFulfilledOrder(t *testing.T, db *gorm.DB, user *models.User, products ...*models.Product) *models.Order {
	t.Helper()

	order := &models.Order{
		UserID:        &user.ID,
		FullName:      user.Username,
		Email:         user.Email,
		TotalAmount:   0,
		PaymentMethod: models.PaymentMethodCreditCard,
		Status:        models.OrderStatusFulfilled,
		PaymentStatus: models.PaymentStatusPaid,
	}
	require.NoError(t, db.Create(order).Error)

	for _, product := range products {
		productID := product.ID
		item := &models.OrderItem{
			OrderID:     order.ID,
			ProductID:   &productID,
			ProductName: product.Name,
			Price:       product.Price,
			Quantity:    1,
		}
		require.NoError(t, db.Create(item).Error)
	}
	return order
}

func productNames(products []models.Product) []string {
	names := make([]string, 0, len(products))
	for i := range products {
		names = append(names, products[i].Name)
	}
	return names
}
