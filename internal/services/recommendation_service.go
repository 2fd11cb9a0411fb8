// internal/services/recommendation_service.go
package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pokemart/pokemart-backend/internal/models"
)

// RecommendationService tracks per-user viewing interest and ranks products
// for the home feed.
type RecommendationService struct {
	db *gorm.DB
}

func NewRecommendationService(db *gorm.DB) *RecommendationService {
	return &RecommendationService{db: db}
}

// stopWords are skipped when deriving keywords from a product name.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true,
}

// ExtractKeywords derives keywords for a product that has no admin-curated
// keyword string: the category name, name tokens longer than 3 characters
// that are not stop words, and the species tag. Empty inputs yield an empty
// set; this never fails.
func ExtractKeywords(product *models.Product) []string {
	var keywords []string

	if product.Category.Name != "" {
		keywords = append(keywords, strings.ToLower(product.Category.Name))
	}

	for _, word := range strings.Fields(strings.ToLower(product.Name)) {
		if len(word) > 3 && !stopWords[word] {
			keywords = append(keywords, word)
		}
	}

	if product.Species != "" {
		keywords = append(keywords, strings.ToLower(product.Species))
	}

	return keywords
}

// productKeywords prefers the admin-curated keyword string; admin intent is
// authoritative and skips heuristic extraction entirely.
func productKeywords(product *models.Product) []string {
	if keywords := product.KeywordList(); len(keywords) > 0 {
		return keywords
	}
	return ExtractKeywords(product)
}

// RecordView logs a product page view and bumps the viewer's per-keyword
// interest counters. Anonymous viewers are a no-op. The counter update is a
// SQL-side increment so concurrent views never lose an update.
func (s *RecommendationService) RecordView(user *models.User, product *models.Product) error {
	if user == nil {
		return nil
	}

	view := &models.ProductView{UserID: user.ID, ProductID: product.ID}
	if err := s.db.Create(view).Error; err != nil {
		return fmt.Errorf("failed to record product view: %w", err)
	}

	now := time.Now()
	for _, keyword := range productKeywords(product) {
		keyword = strings.ToLower(keyword)
		if len(keyword) < 2 {
			continue
		}

		interest := &models.ProductInterest{
			UserID:     user.ID,
			Keyword:    keyword,
			ViewCount:  1,
			LastViewed: now,
		}
		err := s.db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "keyword"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"view_count":  gorm.Expr("view_count + 1"),
				"last_viewed": now,
				"updated_at":  now,
			}),
		}).Create(interest).Error
		if err != nil {
			return fmt.Errorf("failed to update interest for %q: %w", keyword, err)
		}

		var current models.ProductInterest
		if err := s.db.Where("user_id = ? AND keyword = ?", user.ID, keyword).
			First(&current).Error; err == nil && current.ViewCount >= models.InterestThreshold {
			logrus.WithFields(logrus.Fields{
				"user":       user.Username,
				"keyword":    keyword,
				"view_count": current.ViewCount,
			}).Info("Keyword promoted to user interest")
		}
	}

	return nil
}

// Recommend returns an ordered, deduplicated product list for the user,
// at most limit entries. Anonymous users get the popularity ordering; signed-in
// users get products matching their declared and accumulated interests, minus
// anything they already bought and received, padded with popular items when
// the interest pool runs short.
func (s *RecommendationService) Recommend(user *models.User, limit int) ([]models.Product, error) {
	if user == nil {
		var products []models.Product
		err := s.db.Where("is_listed = ?", true).
			Order("rating DESC, created_at DESC").
			Limit(limit).
			Preload("Category").
			Find(&products).Error
		if err != nil {
			return nil, fmt.Errorf("failed to fetch recommendations: %w", err)
		}
		return products, nil
	}

	keywords := s.interestKeywords(user)

	var recommended []models.Product
	if len(keywords) > 0 {
		query := s.db.Where("is_listed = ?", true).
			Where(s.keywordMatch(keywords)).
			Where("id NOT IN (?)", s.fulfilledProductIDs(user))
		err := query.Order("rating DESC, created_at DESC").
			Limit(limit).
			Preload("Category").
			Find(&recommended).Error
		if err != nil {
			return nil, fmt.Errorf("failed to fetch recommendations: %w", err)
		}
	} else {
		// No signal at all: new releases first.
		err := s.db.Where("is_listed = ?", true).
			Order("created_at DESC").
			Limit(limit).
			Preload("Category").
			Find(&recommended).Error
		if err != nil {
			return nil, fmt.Errorf("failed to fetch recommendations: %w", err)
		}
	}

	// Top up short lists with generically popular products, appended after
	// the primary results. The fill obeys the same purchase exclusion as the
	// primary query: a bought product must not sneak back in through padding.
	if len(recommended) < limit {
		existing := make([]interface{}, 0, len(recommended))
		for i := range recommended {
			existing = append(existing, recommended[i].ID)
		}

		fill := s.db.Where("is_listed = ?", true).
			Where("id NOT IN (?)", s.fulfilledProductIDs(user))
		if len(existing) > 0 {
			fill = fill.Where("id NOT IN ?", existing)
		}

		var popular []models.Product
		err := fill.Order("rating DESC").
			Limit(limit - len(recommended)).
			Preload("Category").
			Find(&popular).Error
		if err != nil {
			return nil, fmt.Errorf("failed to top up recommendations: %w", err)
		}
		recommended = append(recommended, popular...)
	}

	return recommended, nil
}

// interestKeywords gathers the union of the user's declared interests and
// their top accumulated viewing interests at or above the activation
// threshold.
func (s *RecommendationService) interestKeywords(user *models.User) []string {
	var keywords []string

	if user.Interest != "" {
		for _, k := range strings.Split(user.Interest, ",") {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				keywords = append(keywords, k)
			}
		}
	}

	var viewing []models.ProductInterest
	s.db.Where("user_id = ? AND view_count >= ?", user.ID, models.InterestThreshold).
		Order("view_count DESC").
		Limit(5).
		Find(&viewing)
	for i := range viewing {
		keywords = append(keywords, viewing[i].Keyword)
	}

	return keywords
}

// keywordMatch ORs a case-insensitive substring match per keyword over the
// product keyword string. Substring, not word-boundary: an interest like
// "cat" intentionally matches a keyword string containing "category".
func (s *RecommendationService) keywordMatch(keywords []string) *gorm.DB {
	match := s.db
	for i, keyword := range keywords {
		pattern := "%" + strings.ToLower(keyword) + "%"
		if i == 0 {
			match = match.Where("LOWER(keywords) LIKE ?", pattern)
		} else {
			match = match.Or("LOWER(keywords) LIKE ?", pattern)
		}
	}
	return match
}

// fulfilledProductIDs is a subquery of products the user has bought and
// received; those are never re-recommended.
func (s *RecommendationService) fulfilledProductIDs(user *models.User) *gorm.DB {
	return s.db.Model(&models.OrderItem{}).
		Select("order_items.product_id").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ? AND orders.status = ?", user.ID, models.OrderStatusFulfilled).
		Where("order_items.product_id IS NOT NULL")
}

// PopularProducts orders the listed catalog by times ordered, then rating.
func (s *RecommendationService) PopularProducts(limit int) ([]models.Product, error) {
	var products []models.Product
	err := s.db.Model(&models.Product{}).
		Select("products.*, COUNT(order_items.id) AS order_count").
		Joins("LEFT JOIN order_items ON order_items.product_id = products.id").
		Where("products.is_listed = ?", true).
		Group("products.id").
		Order("order_count DESC, products.rating DESC").
		Limit(limit).
		Preload("Category").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch popular products: %w", err)
	}
	return products, nil
}

// NewReleases returns listed products created in the last 30 days.
func (s *RecommendationService) NewReleases(limit int) ([]models.Product, error) {
	oneMonthAgo := time.Now().AddDate(0, 0, -30)

	var products []models.Product
	err := s.db.Where("is_listed = ? AND created_at >= ?", true, oneMonthAgo).
		Order("created_at DESC").
		Limit(limit).
		Preload("Category").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch new releases: %w", err)
	}
	return products, nil
}

// TopRatedProducts returns listed products rated 4.0 or better.
func (s *RecommendationService) TopRatedProducts(limit int) ([]models.Product, error) {
	var products []models.Product
	err := s.db.Where("is_listed = ? AND rating >= ?", true, 4.0).
		Order("rating DESC, created_at DESC").
		Limit(limit).
		Preload("Category").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch top rated products: %w", err)
	}
	return products, nil
}
