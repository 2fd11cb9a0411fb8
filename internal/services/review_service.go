// internal/services/review_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pokemart/pokemart-backend/internal/models"
	"github.com/pokemart/pokemart-backend/internal/utils"
)

type ReviewService struct {
	db *gorm.DB
}

type CreateReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required"`
}

func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{db: db}
}

// CanReview reports whether the user may review the product: admins always
// can, everyone else must have purchased it, and review-banned users never
// can.
func (s *ReviewService) CanReview(user *models.User, productID uuid.UUID) bool {
	if user.IsReviewBanned {
		return false
	}
	if user.Role == models.RoleAdmin {
		return true
	}

	var count int64
	s.db.Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ? AND order_items.product_id = ?", user.ID, productID).
		Count(&count)
	return count > 0
}

// CreateReview stores the review and recomputes the product's rating as the
// mean of all its reviews.
func (s *ReviewService) CreateReview(user *models.User, productID uuid.UUID, req *CreateReviewRequest) (*models.Review, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var product models.Product
	if err := s.db.First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("product not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !s.CanReview(user, productID) {
		return nil, errors.New("only verified purchasers can review this product")
	}

	review := &models.Review{
		ProductID: productID,
		UserID:    user.ID,
		Username:  user.Username,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(review).Error; err != nil {
			return fmt.Errorf("failed to create review: %w", err)
		}

		var average float64
		err := tx.Model(&models.Review{}).
			Where("product_id = ?", productID).
			Select("COALESCE(AVG(rating), 0)").
			Scan(&average).Error
		if err != nil {
			return fmt.Errorf("failed to compute rating: %w", err)
		}

		return tx.Model(&models.Product{}).
			Where("id = ?", productID).
			Update("rating", average).Error
	})
	if err != nil {
		return nil, err
	}

	return review, nil
}

func (s *ReviewService) ListForProduct(productID uuid.UUID, params utils.PaginationParams) ([]models.Review, int64, error) {
	query := s.db.Model(&models.Review{}).Where("product_id = ?", productID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	var reviews []models.Review
	err := utils.ApplyPagination(query.Order("created_at DESC"), params).
		Find(&reviews).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch reviews: %w", err)
	}

	return reviews, total, nil
}

// DeleteReview removes a review (moderation) and recomputes the product
// rating.
func (s *ReviewService) DeleteReview(reviewID uuid.UUID) error {
	var review models.Review
	if err := s.db.First(&review, "id = ?", reviewID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("review not found")
		}
		return fmt.Errorf("database error: %w", err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&review).Error; err != nil {
			return fmt.Errorf("failed to delete review: %w", err)
		}

		var average float64
		err := tx.Model(&models.Review{}).
			Where("product_id = ?", review.ProductID).
			Select("COALESCE(AVG(rating), 0)").
			Scan(&average).Error
		if err != nil {
			return fmt.Errorf("failed to compute rating: %w", err)
		}

		return tx.Model(&models.Product{}).
			Where("id = ?", review.ProductID).
			Update("rating", average).Error
	})
}
