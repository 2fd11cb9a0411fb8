// internal/models/interest.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductView is an append-only log of product page views. One row per view,
// no uniqueness constraint.
type ProductView struct {
	BaseModel
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID `json:"product_id" gorm:"type:uuid;not null;index"`

	User    User    `json:"-" gorm:"foreignKey:UserID"`
	Product Product `json:"-" gorm:"foreignKey:ProductID"`
}

// ProductInterest accumulates per-keyword view counters for a user. A keyword
// counts as an active interest once ViewCount reaches InterestThreshold; the
// threshold is read by the ranker, never stored.
type ProductInterest struct {
	BaseModel
	UserID     uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_interests_user_keyword"`
	Keyword    string    `json:"keyword" gorm:"size:100;not null;uniqueIndex:idx_interests_user_keyword"`
	ViewCount  int       `json:"view_count" gorm:"default:1"`
	LastViewed time.Time `json:"last_viewed"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}

// InterestThreshold is the view count at which a keyword becomes an interest.
const InterestThreshold = 3

// ProductSubscription links a user to product update notifications. Unique per
// (user, product); re-subscribing updates the flags in place.
type ProductSubscription struct {
	BaseModel
	UserID            uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_subscriptions_user_product"`
	ProductID         uuid.UUID `json:"product_id" gorm:"type:uuid;not null;uniqueIndex:idx_subscriptions_user_product"`
	// No column defaults: a default tag makes GORM drop false values at
	// insert, and both flags are routinely created false.
	NotifyPriceChange bool      `json:"notify_price_change"`
	NotifyRestock     bool      `json:"notify_restock"`

	User    User    `json:"-" gorm:"foreignKey:UserID"`
	Product Product `json:"-" gorm:"foreignKey:ProductID"`
}
