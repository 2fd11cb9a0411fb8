// internal/services/order_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pokemart/pokemart-backend/internal/models"
	"github.com/pokemart/pokemart-backend/internal/utils"
)

type OrderService struct {
	db                  *gorm.DB
	notificationService *NotificationService
}

type CheckoutRequest struct {
	FullName        string `json:"full_name,omitempty"`
	Email           string `json:"email,omitempty" validate:"omitempty,email"`
	ShippingAddress string `json:"shipping_address,omitempty"`
	PaymentMethod   string `json:"payment_method" validate:"required,oneof=credit_card bank_transfer ewallet cod"`
}

func NewOrderService(db *gorm.DB, notificationService *NotificationService) *OrderService {
	return &OrderService{
		db:                  db,
		notificationService: notificationService,
	}
}

// ActiveCart returns the user's active cart, creating one if none exists.
func (s *OrderService) ActiveCart(userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := s.db.Where("user_id = ? AND is_active = ?", userID, true).
		Preload("Items.Product").Preload("Items.Product.Category").
		First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cart = models.Cart{UserID: &userID, IsActive: true}
		if err := s.db.Create(&cart).Error; err != nil {
			return nil, fmt.Errorf("failed to create cart: %w", err)
		}
		return &cart, nil
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &cart, nil
}

// AddToCart adds a listed product, merging quantity when the same product and
// size is already in the cart.
func (s *OrderService) AddToCart(userID, productID uuid.UUID, quantity int, size string) (*models.Cart, error) {
	if quantity < 1 {
		quantity = 1
	}

	var product models.Product
	if err := s.db.Where("id = ? AND is_listed = ?", productID, true).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("product not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	cart, err := s.ActiveCart(userID)
	if err != nil {
		return nil, err
	}

	var item models.CartItem
	err = s.db.Where("cart_id = ? AND product_id = ? AND size = ?", cart.ID, productID, size).
		First(&item).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		item = models.CartItem{
			CartID:    cart.ID,
			ProductID: productID,
			Quantity:  quantity,
			Size:      size,
		}
		if err := s.db.Create(&item).Error; err != nil {
			return nil, fmt.Errorf("failed to add cart item: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("database error: %w", err)
	default:
		err := s.db.Model(&item).
			Update("quantity", gorm.Expr("quantity + ?", quantity)).Error
		if err != nil {
			return nil, fmt.Errorf("failed to update cart item: %w", err)
		}
	}

	return s.ActiveCart(userID)
}

func (s *OrderService) UpdateCartItem(userID, itemID uuid.UUID, quantity int) (*models.Cart, error) {
	cart, err := s.ActiveCart(userID)
	if err != nil {
		return nil, err
	}

	if quantity < 1 {
		return s.RemoveCartItem(userID, itemID)
	}

	result := s.db.Model(&models.CartItem{}).
		Where("id = ? AND cart_id = ?", itemID, cart.ID).
		Update("quantity", quantity)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update cart item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, errors.New("cart item not found")
	}

	return s.ActiveCart(userID)
}

func (s *OrderService) RemoveCartItem(userID, itemID uuid.UUID) (*models.Cart, error) {
	cart, err := s.ActiveCart(userID)
	if err != nil {
		return nil, err
	}

	err = s.db.Where("id = ? AND cart_id = ?", itemID, cart.ID).
		Delete(&models.CartItem{}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to remove cart item: %w", err)
	}

	return s.ActiveCart(userID)
}

// Checkout turns the active cart into a pending order. Stock is taken with a
// guarded decrement — quantity is only reduced when enough remains, so two
// simultaneous checkouts can never oversell a product. Payment itself is
// recorded, not processed.
func (s *OrderService) Checkout(user *models.User, req *CheckoutRequest) (*models.Order, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	cart, err := s.ActiveCart(user.ID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, errors.New("cart is empty")
	}

	fullName := req.FullName
	if fullName == "" {
		fullName = user.FullName()
	}
	email := req.Email
	if email == "" {
		email = user.Email
	}
	address := req.ShippingAddress
	if address == "" {
		address = user.Address
	}

	var order *models.Order
	err = s.db.Transaction(func(tx *gorm.DB) error {
		order = &models.Order{
			UserID:          &user.ID,
			FullName:        fullName,
			Email:           email,
			ShippingAddress: address,
			TotalAmount:     cart.TotalPrice(),
			PaymentMethod:   models.PaymentMethod(req.PaymentMethod),
			Status:          models.OrderStatusPending,
			PaymentStatus:   models.PaymentStatusPending,
		}
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		for i := range cart.Items {
			item := &cart.Items[i]

			// Guarded decrement: no row changes unless enough stock remains.
			result := tx.Model(&models.Product{}).
				Where("id = ? AND quantity >= ?", item.ProductID, item.Quantity).
				Update("quantity", gorm.Expr("quantity - ?", item.Quantity))
			if result.Error != nil {
				return fmt.Errorf("failed to reserve stock: %w", result.Error)
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("insufficient stock for %s", item.Product.Name)
			}

			productID := item.ProductID
			orderItem := &models.OrderItem{
				OrderID:     order.ID,
				ProductID:   &productID,
				ProductName: item.Product.Name,
				Price:       item.Product.Price,
				Quantity:    item.Quantity,
				Size:        item.Size,
			}
			if err := tx.Create(orderItem).Error; err != nil {
				return fmt.Errorf("failed to create order item: %w", err)
			}
		}

		if err := tx.Model(cart).Update("is_active", false).Error; err != nil {
			return fmt.Errorf("failed to close cart: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.db.Preload("Items").First(order, "id = ?", order.ID)

	if s.notificationService != nil {
		settings := s.notificationService.SettingsFor(user.ID)
		if settings.OrderUpdates {
			s.notificationService.Notify(user.ID,
				fmt.Sprintf("Order placed — total $%.2f", order.TotalAmount),
				models.NotificationTypeSuccess,
				fmt.Sprintf("/orders/%s", order.ID))
		}
	}

	return order, nil
}

func (s *OrderService) GetOrder(userID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := s.db.Where("id = ? AND user_id = ?", orderID, userID).
		Preload("Items").First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("order not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &order, nil
}

func (s *OrderService) ListOrders(userID uuid.UUID, params utils.PaginationParams) ([]models.Order, int64, error) {
	query := s.db.Model(&models.Order{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []models.Order
	err := utils.ApplyPagination(query.Order("created_at DESC"), params).
		Preload("Items").Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch orders: %w", err)
	}

	return orders, total, nil
}

// UpdateStatus is the staff transition between pending, fulfilled and
// cancelled. Cancelling a pending order returns its reserved stock.
func (s *OrderService) UpdateStatus(orderID uuid.UUID, status models.OrderStatus) (*models.Order, error) {
	var order models.Order
	if err := s.db.Preload("Items").First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("order not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if order.Status == status {
		return &order, nil
	}
	if order.Status != models.OrderStatusPending {
		return nil, fmt.Errorf("cannot change status of a %s order", order.Status)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if status == models.OrderStatusCancelled {
			for i := range order.Items {
				item := &order.Items[i]
				if item.ProductID == nil {
					continue
				}
				err := tx.Model(&models.Product{}).
					Where("id = ?", *item.ProductID).
					Update("quantity", gorm.Expr("quantity + ?", item.Quantity)).Error
				if err != nil {
					return fmt.Errorf("failed to restore stock: %w", err)
				}
			}
		}
		return tx.Model(&order).Update("status", status).Error
	})
	if err != nil {
		return nil, err
	}

	if s.notificationService != nil && order.UserID != nil {
		settings := s.notificationService.SettingsFor(*order.UserID)
		if settings.OrderUpdates {
			s.notificationService.Notify(*order.UserID,
				fmt.Sprintf("Your order is now %s", status),
				models.NotificationTypeInfo,
				fmt.Sprintf("/orders/%s", order.ID))
		}
	}

	order.Status = status
	return &order, nil
}
