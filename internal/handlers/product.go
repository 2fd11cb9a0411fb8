// internal/handlers/product.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pokemart/pokemart-backend/internal/models"
	"github.com/pokemart/pokemart-backend/internal/services"
	"github.com/pokemart/pokemart-backend/internal/utils"
)

type ProductHandler struct {
	productService        *services.ProductService
	recommendationService *services.RecommendationService
	suggestionService     *services.SuggestionService
	storageService        *services.StorageService
	userService           *services.UserService
}

func NewProductHandler(
	productService *services.ProductService,
	recommendationService *services.RecommendationService,
	suggestionService *services.SuggestionService,
	storageService *services.StorageService,
	userService *services.UserService,
) *ProductHandler {
	return &ProductHandler{
		productService:        productService,
		recommendationService: recommendationService,
		suggestionService:     suggestionService,
		storageService:        storageService,
		userService:           userService,
	}
}

// currentUser resolves the optionally-authenticated user, or nil for
// anonymous visitors.
func (h *ProductHandler) currentUser(c *gin.Context) *models.User {
	userID, ok := userIDFromContext(c)
	if !ok {
		return nil
	}
	user, err := h.userService.GetUserByID(userID)
	if err != nil {
		return nil
	}
	return user
}

// floatQuery parses an optional numeric filter. Malformed values are dropped
// rather than rejected so a bad filter widget never breaks the whole search.
func floatQuery(c *gin.Context, name string) *float64 {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &value
}

// GET /products
//
// The catalog search. When a text query comes back empty, the response
// carries substitute suggestions so the storefront never shows a dead end.
func (h *ProductHandler) SearchProducts(c *gin.Context) {
	params := services.SearchParams{
		PaginationParams: utils.GetPaginationParams(c),
		Query:            c.Query("q"),
		Category:         c.Query("category"),
		MinPrice:         floatQuery(c, "min_price"),
		MaxPrice:         floatQuery(c, "max_price"),
		MinRating:        floatQuery(c, "min_rating"),
	}

	products, total, err := h.productService.Search(params)
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to search products")
		return
	}

	meta := gin.H{
		"pagination": gin.H{
			"page":  params.Page,
			"limit": params.Limit,
			"total": total,
		},
	}

	if total == 0 && params.Query != "" {
		suggestions, err := h.suggestionService.SuggestForQuery(params.Query)
		if err != nil {
			logrus.WithError(err).WithField("query", params.Query).Error("Failed to build search suggestions")
		} else {
			meta["suggestions"] = models.Summaries(suggestions)
		}
	}

	utils.SuccessResponseWithMeta(c, models.Summaries(products), meta)
}

// GET /products/:id
//
// Viewing a product is also the signal feeding the recommendation engine:
// the view is recorded for signed-in visitors before the page renders.
func (h *ProductHandler) GetProduct(c *gin.Context) {
	productID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	product, err := h.productService.GetProduct(productID)
	if err != nil {
		utils.NotFoundResponse(c, "Product")
		return
	}

	user := h.currentUser(c)
	if !product.IsListed && (user == nil || !user.IsStaff()) {
		utils.NotFoundResponse(c, "Product")
		return
	}

	if user != nil && product.IsListed {
		if err := h.recommendationService.RecordView(user, product); err != nil {
			logrus.WithError(err).WithField("product_id", productID).Error("Failed to record product view")
		}
	}

	suggestions, err := h.suggestionService.SuggestForProduct(product)
	if err != nil {
		logrus.WithError(err).WithField("product_id", productID).Error("Failed to build product suggestions")
		suggestions = nil
	}

	utils.SuccessResponse(c, gin.H{
		"product":     product,
		"suggestions": models.Summaries(suggestions),
	})
}

// GET /products/recommendations
func (h *ProductHandler) GetRecommendations(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "12"))
	if limit < 1 || limit > 50 {
		limit = 12
	}

	products, err := h.recommendationService.Recommend(h.currentUser(c), limit)
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to build recommendations")
		return
	}

	utils.SuccessResponse(c, models.Summaries(products))
}

// GET /products/popular
func (h *ProductHandler) GetPopularProducts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if limit < 1 || limit > 50 {
		limit = 10
	}

	products, err := h.recommendationService.PopularProducts(limit)
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to fetch popular products")
		return
	}

	utils.SuccessResponse(c, models.Summaries(products))
}

// GET /products/new
func (h *ProductHandler) GetNewReleases(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if limit < 1 || limit > 50 {
		limit = 10
	}

	products, err := h.recommendationService.NewReleases(limit)
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to fetch new releases")
		return
	}

	utils.SuccessResponse(c, models.Summaries(products))
}

// GET /products/top-rated
func (h *ProductHandler) GetTopRatedProducts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if limit < 1 || limit > 50 {
		limit = 10
	}

	products, err := h.recommendationService.TopRatedProducts(limit)
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to fetch top rated products")
		return
	}

	utils.SuccessResponse(c, models.Summaries(products))
}

// GET /categories
func (h *ProductHandler) GetCategories(c *gin.Context) {
	categories, err := h.productService.ListCategories(c.Request.Context())
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to fetch categories")
		return
	}

	utils.SuccessResponse(c, categories)
}

// POST /staff/categories
func (h *ProductHandler) CreateCategory(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Category name is required", nil)
		return
	}

	category, err := h.productService.CreateCategory(req.Name)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.CreatedResponse(c, category)
}

// POST /staff/products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	product, err := h.productService.CreateProduct(userID, &req)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.CreatedResponse(c, product)
}

// PUT /staff/products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	productID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	product, err := h.productService.UpdateProduct(productID, &req)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, product)
}

// PATCH /staff/products/:id/listing
func (h *ProductHandler) SetListing(c *gin.Context) {
	productID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		IsListed *bool `json:"is_listed" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "is_listed is required", nil)
		return
	}

	if err := h.productService.SetListing(productID, *req.IsListed); err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{"is_listed": *req.IsListed})
}

// DELETE /staff/products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	productID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	product, err := h.productService.GetProduct(productID)
	if err != nil {
		utils.NotFoundResponse(c, "Product")
		return
	}

	if err := h.productService.DeleteProduct(productID); err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	// Stored images are orphaned once the row is gone; removal is best effort.
	for _, imageURL := range product.Images {
		if key := h.storageService.KeyFromURL(imageURL); key != "" {
			if err := h.storageService.DeleteImage(key); err != nil {
				logrus.WithError(err).WithField("key", key).Warn("Failed to delete product image")
			}
		}
	}

	utils.SuccessResponse(c, gin.H{"message": "Product deleted"})
}

// POST /staff/products/images
func (h *ProductHandler) UploadProductImage(c *gin.Context) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		utils.BadRequestResponse(c, "Image file is required", nil)
		return
	}
	defer file.Close()

	result, err := h.storageService.UploadImage(file, header, h.storageService.ProductImageOptions())
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.CreatedResponse(c, result)
}
