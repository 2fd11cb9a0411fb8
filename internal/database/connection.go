// internal/database/connection.go
package database

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pokemart/pokemart-backend/internal/config"
	"github.com/pokemart/pokemart-backend/internal/models"
)

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}
	if cfg.LogLevel == "info" {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.Info("Database connection established")
	return db, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Error("Failed to get underlying sql.DB")
		return
	}

	if err := sqlDB.Close(); err != nil {
		logrus.WithError(err).Error("Failed to close database connection")
	} else {
		logrus.Info("Database connection closed")
	}
}

func RunMigrations(db *gorm.DB) error {
	logrus.Info("Running database migrations")

	err := db.AutoMigrate(
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
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	logrus.Info("Database migrations completed")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// Catalog browse and keyword matching both filter on listed first.
		"CREATE INDEX IF NOT EXISTS idx_products_listed_created ON products(is_listed, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_products_listed_rating ON products(is_listed, rating DESC)",
		"CREATE INDEX IF NOT EXISTS idx_products_price ON products(price)",

		// Interest lookups are always (user, threshold) scans.
		"CREATE INDEX IF NOT EXISTS idx_interests_user_count ON product_interests(user_id, view_count DESC)",
		"CREATE INDEX IF NOT EXISTS idx_views_user_created ON product_views(user_id, created_at DESC)",

		"CREATE INDEX IF NOT EXISTS idx_orders_user_status ON orders(user_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_notifications_user_read ON notifications(user_id, is_read)",
		"CREATE INDEX IF NOT EXISTS idx_messages_recipient_read ON messages(recipient_id, is_read)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_created ON audit_logs(created_at DESC)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			logrus.WithError(err).WithField("index", index).Warn("Failed to create index")
		}
	}

	return nil
}

// defaultCategories seeds the storefront taxonomy on first boot.
var defaultCategories = []string{
	"Poke Balls",
	"Potions & Medicine",
	"Battle Items",
	"Evolution Stones",
	"Berries",
	"TMs & HMs",
	"Held Items",
	"Apparel",
}

func SeedInitialData(db *gorm.DB) error {
	logrus.Info("Seeding initial data")

	for _, name := range defaultCategories {
		var count int64
		db.Model(&models.Category{}).Where("name = ?", name).Count(&count)
		if count == 0 {
			if err := db.Create(&models.Category{Name: name}).Error; err != nil {
				logrus.WithError(err).WithField("category", name).Warn("Failed to seed category")
			}
		}
	}

	var adminCount int64
	db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&adminCount)

	if adminCount == 0 {
		admin := &models.User{
			Username:  "admin",
			Email:     "admin@pokemart.shop",
			FirstName: "System",
			LastName:  "Administrator",
			Role:      models.RoleAdmin,
			IsActive:  true,
		}

		if err := admin.SetPassword("ChangeMe123!"); err != nil {
			return fmt.Errorf("failed to set admin password: %w", err)
		}

		if err := db.Create(admin).Error; err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}

		logrus.Warn("Default admin user created; change its password immediately")
	}

	logrus.Info("Initial data seeding completed")
	return nil
}
