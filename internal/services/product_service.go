// internal/services/product_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/pokemart/pokemart-backend/internal/cache"
	"github.com/pokemart/pokemart-backend/internal/models"
	"github.com/pokemart/pokemart-backend/internal/utils"
)

const categoriesCacheKey = "catalog:categories"

type ProductService struct {
	db                  *gorm.DB
	subscriptionService *SubscriptionService
	cache               *cache.Cache
}

type CreateProductRequest struct {
	Name        string   `json:"name" validate:"required,min=2,max=255"`
	Description string   `json:"description" validate:"required"`
	Feature     string   `json:"feature,omitempty"`
	Price       float64  `json:"price" validate:"required,min=0.01"`
	CategoryID  string   `json:"category_id" validate:"required,uuid"`
	Species     string   `json:"species,omitempty"`
	Location    string   `json:"location,omitempty"`
	Keywords    string   `json:"keywords,omitempty"`
	Quantity    int      `json:"quantity" validate:"min=0"`
	Images      []string `json:"images,omitempty"`
	IsListed    *bool    `json:"is_listed,omitempty"`
}

type UpdateProductRequest struct {
	Name        string   `json:"name,omitempty" validate:"omitempty,min=2,max=255"`
	Description string   `json:"description,omitempty"`
	Feature     *string  `json:"feature,omitempty"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,min=0.01"`
	CategoryID  string   `json:"category_id,omitempty" validate:"omitempty,uuid"`
	Species     *string  `json:"species,omitempty"`
	Location    *string  `json:"location,omitempty"`
	Keywords    *string  `json:"keywords,omitempty"`
	Quantity    *int     `json:"quantity,omitempty" validate:"omitempty,min=0"`
	Images      []string `json:"images,omitempty"`
	IsListed    *bool    `json:"is_listed,omitempty"`
}

// SearchParams is the catalog query surface. All filters are optional and
// AND-ed; the query string OR-matches name and description. Only listed
// products are ever returned.
type SearchParams struct {
	utils.PaginationParams
	Query     string
	Category  string
	MinPrice  *float64
	MaxPrice  *float64
	MinRating *float64
}

func NewProductService(db *gorm.DB, subscriptionService *SubscriptionService, c *cache.Cache) *ProductService {
	return &ProductService{
		db:                  db,
		subscriptionService: subscriptionService,
		cache:               c,
	}
}

// Search runs the filtered catalog query. It does no ranking of its own
// beyond the requested sort; it is also the candidate pool feeding the
// recommendation and suggestion services.
func (s *ProductService) Search(params SearchParams) ([]models.Product, int64, error) {
	query := s.db.Model(&models.Product{}).Where("products.is_listed = ?", true)

	if params.Query != "" {
		term := "%" + strings.ToLower(params.Query) + "%"
		query = query.Where("LOWER(products.name) LIKE ? OR LOWER(products.description) LIKE ?", term, term)
	}

	if params.Category != "" {
		query = query.Joins("JOIN categories ON categories.id = products.category_id").
			Where("categories.name = ?", params.Category)
	}

	if params.MinPrice != nil {
		query = query.Where("products.price >= ?", *params.MinPrice)
	}

	if params.MaxPrice != nil {
		query = query.Where("products.price <= ?", *params.MaxPrice)
	}

	if params.MinRating != nil {
		query = query.Where("products.rating >= ?", *params.MinRating)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	// Qualified so the categories join can't make the sort column ambiguous.
	sortParams := params.PaginationParams
	switch sortParams.Sort {
	case "name", "price", "rating", "created_at":
	default:
		sortParams.Sort = "created_at"
	}
	sortParams.Sort = "products." + sortParams.Sort
	query = utils.ApplySort(query, sortParams, []string{
		"products.created_at", "products.name", "products.price", "products.rating",
	})
	query = utils.ApplyPagination(query, params.PaginationParams)

	var products []models.Product
	if err := query.Preload("Category").Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}

	return products, total, nil
}

func (s *ProductService) GetProduct(id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := s.db.Preload("Category").Preload("Seller").First(&product, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("product not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

func (s *ProductService) CreateProduct(sellerID uuid.UUID, req *CreateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		return nil, errors.New("invalid category id")
	}

	var category models.Category
	if err := s.db.First(&category, "id = ?", categoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("category not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	listed := true
	if req.IsListed != nil {
		listed = *req.IsListed
	}

	product := &models.Product{
		Name:        req.Name,
		Description: req.Description,
		Feature:     req.Feature,
		Price:       req.Price,
		CategoryID:  categoryID,
		Species:     req.Species,
		Location:    req.Location,
		Keywords:    req.Keywords,
		Quantity:    req.Quantity,
		Images:      pq.StringArray(req.Images),
		IsListed:    listed,
		SellerID:    &sellerID,
	}

	if err := s.db.Create(product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.db.Preload("Category").First(product, "id = ?", product.ID)
	return product, nil
}

// UpdateProduct applies a staff edit. Price drops and restocks fan out to
// subscribers after the row is committed.
func (s *ProductService) UpdateProduct(id uuid.UUID, req *UpdateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var product models.Product
	if err := s.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("product not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	oldPrice := product.Price
	oldQuantity := product.Quantity

	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.Feature != nil {
		updates["feature"] = *req.Feature
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.CategoryID != "" {
		categoryID, err := uuid.Parse(req.CategoryID)
		if err != nil {
			return nil, errors.New("invalid category id")
		}
		updates["category_id"] = categoryID
	}
	if req.Species != nil {
		updates["species"] = *req.Species
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if req.Keywords != nil {
		updates["keywords"] = *req.Keywords
	}
	if req.Quantity != nil {
		updates["quantity"] = *req.Quantity
	}
	if req.Images != nil {
		updates["images"] = pq.StringArray(req.Images)
	}
	if req.IsListed != nil {
		updates["is_listed"] = *req.IsListed
	}

	if err := s.db.Model(&product).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.db.Preload("Category").First(&product, "id = ?", id)

	if s.subscriptionService != nil {
		if req.Price != nil && *req.Price != oldPrice {
			s.subscriptionService.NotifyPriceChange(&product, oldPrice, *req.Price)
		}
		if req.Quantity != nil && oldQuantity == 0 && *req.Quantity > 0 {
			s.subscriptionService.NotifyRestock(&product)
		}
	}

	return &product, nil
}

// SetListing flips customer-facing visibility without touching stored data.
func (s *ProductService) SetListing(id uuid.UUID, listed bool) error {
	result := s.db.Model(&models.Product{}).Where("id = ?", id).
		Update("is_listed", listed)
	if result.Error != nil {
		return fmt.Errorf("failed to update listing: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.New("product not found")
	}
	return nil
}

func (s *ProductService) DeleteProduct(id uuid.UUID) error {
	var sold int64
	err := s.db.Model(&models.OrderItem{}).Where("product_id = ?", id).Count(&sold).Error
	if err != nil {
		return fmt.Errorf("failed to check order history: %w", err)
	}
	if sold > 0 {
		// Delisting keeps order history intact; hard delete is for mistakes.
		return errors.New("cannot delete a product with order history; delist it instead")
	}

	result := s.db.Delete(&models.Product{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.New("product not found")
	}
	return nil
}

// ListCategories serves the category list through the TTL cache; the list
// changes rarely and renders on every storefront page.
func (s *ProductService) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if s.cache.Get(ctx, categoriesCacheKey, &categories) {
		return categories, nil
	}

	if err := s.db.Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}

	s.cache.Set(ctx, categoriesCacheKey, categories, time.Hour)
	return categories, nil
}

func (s *ProductService) CreateCategory(name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("category name is required")
	}

	category := &models.Category{Name: name}
	if err := s.db.Create(category).Error; err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	s.cache.Delete(context.Background(), categoriesCacheKey)
	return category, nil
}
