// internal/models/order.go
package models

import (
	"github.com/google/uuid"
)

type Cart struct {
	BaseModel
	UserID    *uuid.UUID `json:"user_id" gorm:"type:uuid;index"`
	SessionID string     `json:"session_id" gorm:"size:255;index"`
	IsActive  bool       `json:"is_active" gorm:"default:true"`

	User  *User      `json:"-" gorm:"foreignKey:UserID"`
	Items []CartItem `json:"items,omitempty" gorm:"foreignKey:CartID"`
}

func (c *Cart) TotalPrice() float64 {
	var total float64
	for i := range c.Items {
		total += c.Items[i].Subtotal()
	}
	return total
}

type CartItem struct {
	BaseModel
	CartID    uuid.UUID `json:"cart_id" gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID `json:"product_id" gorm:"type:uuid;not null"`
	Quantity  int       `json:"quantity" gorm:"default:1"`
	Size      string    `json:"size" gorm:"size:10"`

	Product Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

func (i *CartItem) Subtotal() float64 {
	return i.Product.Price * float64(i.Quantity)
}

type Order struct {
	BaseModel
	UserID          *uuid.UUID    `json:"user_id" gorm:"type:uuid;index"`
	SessionID       string        `json:"session_id" gorm:"size:255"`
	FullName        string        `json:"full_name" gorm:"size:255;not null"`
	Email           string        `json:"email" gorm:"size:255;not null"`
	ShippingAddress string        `json:"shipping_address" gorm:"type:text"`
	TotalAmount     float64       `json:"total_amount" gorm:"type:decimal(10,2);not null"`
	PaymentMethod   PaymentMethod `json:"payment_method" gorm:"type:varchar(30);default:'credit_card'"`
	Status          OrderStatus   `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	PaymentStatus   PaymentStatus `json:"payment_status" gorm:"type:varchar(20);default:'pending'"`

	User  *User       `json:"-" gorm:"foreignKey:UserID"`
	Items []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID"`
}

type OrderItem struct {
	BaseModel
	OrderID     uuid.UUID  `json:"order_id" gorm:"type:uuid;not null;index"`
	ProductID   *uuid.UUID `json:"product_id" gorm:"type:uuid;index"`
	ProductName string     `json:"product_name" gorm:"size:255;not null"` // kept in case the product is deleted
	Price       float64    `json:"price" gorm:"type:decimal(10,2);not null"`
	Quantity    int        `json:"quantity" gorm:"default:1"`
	Size        string     `json:"size" gorm:"size:10"`

	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

func (i *OrderItem) Subtotal() float64 {
	return i.Price * float64(i.Quantity)
}
