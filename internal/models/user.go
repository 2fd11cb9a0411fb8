// internal/models/user.go
package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

type User struct {
	BaseModel
	Username       string   `json:"username" gorm:"uniqueIndex;size:150;not null"`
	Email          string   `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash   string   `json:"-" gorm:"size:255;not null"`
	FirstName      string   `json:"first_name" gorm:"size:150"`
	LastName       string   `json:"last_name" gorm:"size:150"`
	Role           UserRole `json:"role" gorm:"type:varchar(20);default:'customer';index"`
	Address        string   `json:"address" gorm:"type:text"`
	Country        string   `json:"country" gorm:"size:100"`
	Interest       string   `json:"interest" gorm:"type:text"`
	IsReviewBanned bool     `json:"is_review_banned" gorm:"default:false"`
	IsActive       bool     `json:"is_active" gorm:"default:true"`
	EmailVerified  bool     `json:"email_verified" gorm:"default:false"`

	LoginAttempts    int        `json:"-" gorm:"default:0"`
	LastLoginAttempt *time.Time `json:"-"`
	LockoutUntil     *time.Time `json:"-"`
	LastLoginAt      *time.Time `json:"last_login_at"`

	// Relationships
	Products      []Product             `json:"products,omitempty" gorm:"foreignKey:SellerID"`
	Orders        []Order               `json:"orders,omitempty" gorm:"foreignKey:UserID"`
	Interests     []ProductInterest     `json:"interests,omitempty" gorm:"foreignKey:UserID"`
	Subscriptions []ProductSubscription `json:"subscriptions,omitempty" gorm:"foreignKey:UserID"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

func (u *User) FullName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Username
	}
	return name
}

func (u *User) IsStaff() bool {
	for _, role := range StaffRoles {
		if u.Role == role {
			return true
		}
	}
	return false
}

func (u *User) IsLockedOut(now time.Time) bool {
	return u.LockoutUntil != nil && u.LockoutUntil.After(now)
}
