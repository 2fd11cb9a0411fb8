// internal/router/router.go
package router

import (
	"math/rand"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/pokemart/pokemart-backend/internal/cache"
	"github.com/pokemart/pokemart-backend/internal/config"
	"github.com/pokemart/pokemart-backend/internal/handlers"
	"github.com/pokemart/pokemart-backend/internal/middleware"
	"github.com/pokemart/pokemart-backend/internal/services"
	"github.com/pokemart/pokemart-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config, c *cache.Cache) *gin.Engine {
	// Services
	notificationService := services.NewNotificationService(db, cfg)
	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		logrus.WithError(err).Warn("Storage service unavailable, falling back to local uploads")
		storageService, _ = services.NewStorageService(&config.Config{Server: cfg.Server})
	}

	authService := services.NewAuthService(db, cfg, notificationService)
	userService := services.NewUserService(db)
	subscriptionService := services.NewSubscriptionService(db, notificationService)
	productService := services.NewProductService(db, subscriptionService, c)
	recommendationService := services.NewRecommendationService(db)
	suggestionService := services.NewSuggestionService(db, rand.NewSource(time.Now().UnixNano()))
	orderService := services.NewOrderService(db, notificationService)
	reviewService := services.NewReviewService(db)
	messageService := services.NewMessageService(db, notificationService)
	adminService := services.NewAdminService(db, notificationService)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService, storageService)
	productHandler := handlers.NewProductHandler(productService, recommendationService, suggestionService, storageService, userService)
	cartHandler := handlers.NewCartHandler(orderService)
	orderHandler := handlers.NewOrderHandler(orderService, userService)
	reviewHandler := handlers.NewReviewHandler(reviewService, userService)
	subscriptionHandler := handlers.NewSubscriptionHandler(subscriptionService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	messageHandler := handlers.NewMessageHandler(messageService, userService)
	adminHandler := handlers.NewAdminHandler(adminService)

	utils.SetJWTSecret(cfg.JWT.SecretKey)

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.CORS(cfg.Frontend.BaseURL))
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/logout", middleware.AuthRequired(), authHandler.Logout)
			auth.GET("/me", middleware.AuthRequired(), authHandler.Me)
		}

		users := v1.Group("/users")
		users.Use(middleware.AuthRequired())
		{
			users.GET("/profile", userHandler.GetProfile)
			users.PUT("/profile", userHandler.UpdateProfile)
			users.PUT("/password", userHandler.ChangePassword)
			users.POST("/avatar", middleware.UploadRateLimit(), userHandler.UploadAvatar)
			users.DELETE("/account", userHandler.DeactivateAccount)
		}

		// The storefront: browse, search and detail pages all work anonymously;
		// a valid token upgrades them with view tracking and personalization.
		products := v1.Group("/products")
		products.Use(middleware.OptionalAuth())
		{
			products.GET("", productHandler.SearchProducts)
			products.GET("/recommendations", productHandler.GetRecommendations)
			products.GET("/popular", productHandler.GetPopularProducts)
			products.GET("/new", productHandler.GetNewReleases)
			products.GET("/top-rated", productHandler.GetTopRatedProducts)
			products.GET("/:id", productHandler.GetProduct)
			products.GET("/:id/reviews", reviewHandler.ListReviews)

			protected := products.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.POST("/:id/reviews", reviewHandler.CreateReview)
				protected.GET("/:id/subscription", subscriptionHandler.GetSubscription)
				protected.PUT("/:id/subscription", subscriptionHandler.Subscribe)
				protected.DELETE("/:id/subscription", subscriptionHandler.Unsubscribe)
			}
		}

		v1.GET("/categories", productHandler.GetCategories)

		cart := v1.Group("/cart")
		cart.Use(middleware.AuthRequired())
		{
			cart.GET("", cartHandler.GetCart)
			cart.POST("/items", cartHandler.AddItem)
			cart.PUT("/items/:id", cartHandler.UpdateItem)
			cart.DELETE("/items/:id", cartHandler.RemoveItem)
		}

		orders := v1.Group("/orders")
		orders.Use(middleware.AuthRequired())
		{
			orders.POST("/checkout", orderHandler.Checkout)
			orders.GET("", orderHandler.ListOrders)
			orders.GET("/:id", orderHandler.GetOrder)
		}

		notifications := v1.Group("/notifications")
		notifications.Use(middleware.AuthRequired())
		{
			notifications.GET("", notificationHandler.ListNotifications)
			notifications.PATCH("/read-all", notificationHandler.MarkAllRead)
			notifications.PATCH("/:id/read", notificationHandler.MarkRead)
			notifications.GET("/settings", notificationHandler.GetSettings)
			notifications.PUT("/settings", notificationHandler.UpdateSettings)
		}

		messages := v1.Group("/messages")
		messages.Use(middleware.AuthRequired())
		{
			messages.GET("/conversations", messageHandler.ListConversations)
			messages.GET("/conversations/:id", messageHandler.GetMessages)
			messages.POST("", messageHandler.SendMessage)
			messages.GET("/unread-count", messageHandler.UnreadCount)
		}

		staff := v1.Group("/staff")
		staff.Use(middleware.AuthRequired(), middleware.StaffRequired())
		{
			staff.POST("/products", productHandler.CreateProduct)
			staff.PUT("/products/:id", productHandler.UpdateProduct)
			staff.PATCH("/products/:id/listing", productHandler.SetListing)
			staff.DELETE("/products/:id", productHandler.DeleteProduct)
			staff.POST("/products/images", middleware.UploadRateLimit(), productHandler.UploadProductImage)
			staff.POST("/categories", productHandler.CreateCategory)
			staff.PATCH("/orders/:id/status", orderHandler.UpdateStatus)
			staff.DELETE("/reviews/:id", reviewHandler.DeleteReview)
		}

		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.GET("/dashboard", adminHandler.GetDashboard)
			admin.GET("/users", adminHandler.ListUsers)
			admin.PATCH("/users/:id/role", adminHandler.SetUserRole)
			admin.PATCH("/users/:id/active", adminHandler.SetUserActive)
			admin.PATCH("/users/:id/review-ban", adminHandler.SetReviewBan)
			admin.GET("/audit-logs", adminHandler.ListAuditLogs)
		}
	}

	if cfg.Environment == "development" {
		r.Static("/uploads", "./uploads")
	}

	return r
}
