// internal/handlers/review.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/pokemart/pokemart-backend/internal/services"
	"github.com/pokemart/pokemart-backend/internal/utils"
)

type ReviewHandler struct {
	reviewService *services.ReviewService
	userService   *services.UserService
}

func NewReviewHandler(reviewService *services.ReviewService, userService *services.UserService) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
		userService:   userService,
	}
}

// GET /products/:id/reviews
func (h *ReviewHandler) ListReviews(c *gin.Context) {
	productID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	reviews, total, err := h.reviewService.ListForProduct(productID, params)
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to fetch reviews")
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(reviews, total, params))
}

// POST /products/:id/reviews
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	productID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.GetUserByID(userID)
	if err != nil {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	review, err := h.reviewService.CreateReview(user, productID, &req)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.CreatedResponse(c, review)
}

// DELETE /staff/reviews/:id
func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	reviewID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.reviewService.DeleteReview(reviewID); err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{"message": "Review deleted"})
}
