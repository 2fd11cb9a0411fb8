// internal/services/product_service_test.go
package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pokemart/pokemart-backend/internal/models"
	"github.com/pokemart/pokemart-backend/internal/utils"
)

func floatPtr(v float64) *float64 { return &v }

func TestSearchOnlyReturnsListedProducts(t *testing.T) {
	db := newTestDB(t)
	service := NewProductService(db, nil, nil)

	category := createCategory(t, db, "Medicine")
	createProduct(t, db, "Potion", category)
	createProduct(t, db, "Secret Potion", category, func(p *models.Product) {
		p.IsListed = false
	})

	products, total, err := service.Search(SearchParams{
		PaginationParams: utils.PaginationParams{Page: 1, Limit: 20},
	})
	require.NoError(t, err)

	assert.EqualValues(t, 1, total)
	require.Len(t, products, 1)
	assert.Equal(t, "Potion", products[0].Name)
}

func TestSearchMatchesNameAndDescription(t *testing.T) {
	db := newTestDB(t)
	service := NewProductService(db, nil, nil)

	category := createCategory(t, db, "Medicine")
	createProduct(t, db, "Potion", category)
	createProduct(t, db, "Elixir", category, func(p *models.Product) {
		p.Description = "A potion-grade restorative"
	})
	createProduct(t, db, "Antidote", category)

	products, total, err := service.Search(SearchParams{
		PaginationParams: utils.PaginationParams{Page: 1, Limit: 20},
		Query:            "POTION",
	})
	require.NoError(t, err)

	assert.EqualValues(t, 2, total)
	assert.ElementsMatch(t, []string{"Potion", "Elixir"}, productNames(products))
}

func TestSearchFiltersAreAndEd(t *testing.T) {
	db := newTestDB(t)
	service := NewProductService(db, nil, nil)

	medicine := createCategory(t, db, "Medicine")
	apparel := createCategory(t, db, "Apparel")

	createProduct(t, db, "Potion", medicine, func(p *models.Product) {
		p.Price = 5.0
		p.Rating = 4.5
	})
	createProduct(t, db, "Hyper Potion", medicine, func(p *models.Product) {
		p.Price = 50.0
		p.Rating = 4.9
	})
	createProduct(t, db, "Potion T-Shirt", apparel, func(p *models.Product) {
		p.Price = 15.0
		p.Rating = 4.8
	})

	products, total, err := service.Search(SearchParams{
		PaginationParams: utils.PaginationParams{Page: 1, Limit: 20},
		Query:            "potion",
		Category:         "Medicine",
		MinPrice:         floatPtr(1.0),
		MaxPrice:         floatPtr(20.0),
		MinRating:        floatPtr(4.0),
	})
	require.NoError(t, err)

	assert.EqualValues(t, 1, total)
	require.Len(t, products, 1)
	assert.Equal(t, "Potion", products[0].Name)
}

func TestSearchSortsByPrice(t *testing.T) {
	db := newTestDB(t)
	service := NewProductService(db, nil, nil)

	category := createCategory(t, db, "Medicine")
	createProduct(t, db, "Hyper Potion", category, func(p *models.Product) { p.Price = 50.0 })
	createProduct(t, db, "Potion", category, func(p *models.Product) { p.Price = 5.0 })
	createProduct(t, db, "Super Potion", category, func(p *models.Product) { p.Price = 15.0 })

	products, _, err := service.Search(SearchParams{
		PaginationParams: utils.PaginationParams{Page: 1, Limit: 20, Sort: "price", Order: "asc"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Potion", "Super Potion", "Hyper Potion"}, productNames(products))
}

func TestCreateProductCanStartUnlisted(t *testing.T) {
	db := newTestDB(t)
	service := NewProductService(db, nil, nil)

	seller := createUser(t, db, "seller")
	category := createCategory(t, db, "Medicine")

	unlisted := false
	product, err := service.CreateProduct(seller.ID, &CreateProductRequest{
		Name:        "Prototype Brew",
		Description: "Not ready for the shelf",
		Price:       9.0,
		CategoryID:  category.ID.String(),
		IsListed:    &unlisted,
	})
	require.NoError(t, err)

	// The false flag must survive the insert as written.
	var stored models.Product
	require.NoError(t, db.First(&stored, "id = ?", product.ID).Error)
	assert.False(t, stored.IsListed)

	_, total, err := service.Search(SearchParams{
		PaginationParams: utils.PaginationParams{Page: 1, Limit: 20},
	})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestCreateProductRequiresExistingCategory(t *testing.T) {
	db := newTestDB(t)
	service := NewProductService(db, nil, nil)

	seller := createUser(t, db, "seller")

	_, err := service.CreateProduct(seller.ID, &CreateProductRequest{
		Name:        "Potion",
		Description: "Restores HP",
		Price:       5.0,
		CategoryID:  "8a6e0804-2bd0-4672-b79d-d97027f9071a",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "category not found")
}

func TestUpdateProductNotifiesSubscribersOnPriceDrop(t *testing.T) {
	db := newTestDB(t)
	notificationService := NewNotificationService(db, nil)
	subscriptionService := NewSubscriptionService(db, notificationService)
	service := NewProductService(db, subscriptionService, nil)

	category := createCategory(t, db, "Medicine")
	product := createProduct(t, db, "Potion", category, func(p *models.Product) {
		p.Price = 10.0
	})

	subscriber := createUser(t, db, "watcher")
	_, err := subscriptionService.Subscribe(subscriber.ID, product.ID, true, false)
	require.NoError(t, err)

	_, err = service.UpdateProduct(product.ID, &UpdateProductRequest{
		Price: floatPtr(7.5),
	})
	require.NoError(t, err)

	var notifications []models.Notification
	require.NoError(t, db.Where("user_id = ?", subscriber.ID).Find(&notifications).Error)
	require.Len(t, notifications, 1)
	assert.Contains(t, notifications[0].Message, "Price drop!")
}

func TestUpdateProductNotifiesSubscribersOnRestock(t *testing.T) {
	db := newTestDB(t)
	notificationService := NewNotificationService(db, nil)
	subscriptionService := NewSubscriptionService(db, notificationService)
	service := NewProductService(db, subscriptionService, nil)

	category := createCategory(t, db, "Medicine")
	product := createProduct(t, db, "Potion", category, func(p *models.Product) {
		p.Quantity = 0
	})

	subscriber := createUser(t, db, "watcher")
	_, err := subscriptionService.Subscribe(subscriber.ID, product.ID, false, true)
	require.NoError(t, err)

	quantity := 5
	_, err = service.UpdateProduct(product.ID, &UpdateProductRequest{
		Quantity: &quantity,
	})
	require.NoError(t, err)

	var notifications []models.Notification
	require.NoError(t, db.Where("user_id = ?", subscriber.ID).Find(&notifications).Error)
	require.Len(t, notifications, 1)
	assert.Contains(t, notifications[0].Message, "back in stock")
}

func TestDeleteProductRefusedWithOrderHistory(t *testing.T) {
	db := newTestDB(t)
	service := NewProductService(db, nil, nil)

	category := createCategory(t, db, "Medicine")
	product := createProduct(t, db, "Potion", category)
	buyer := createUser(t, db, "buyer")
	createFulfilledOrder(t, db, buyer, product)

	err := service.DeleteProduct(product.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delist")
}

func TestListCategoriesWithoutCache(t *testing.T) {
	db := newTestDB(t)
	service := NewProductService(db, nil, nil)

	createCategory(t, db, "Medicine")
	createCategory(t, db, "Apparel")

	categories, err := service.ListCategories(context.Background())
	require.NoError(t, err)

	require.Len(t, categories, 2)
	assert.Equal(t, "Apparel", categories[0].Name)
}
