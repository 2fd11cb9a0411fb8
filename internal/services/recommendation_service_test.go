// internal/services/recommendation_service_test.go
package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pokemart/pokemart-backend/internal/models"
)

func TestExtractKeywords(t *testing.T) {
	product := &models.Product{
		Name:     "The Ultra Trail Running Shoes",
		Species:  "Pikachu",
		Category: models.Category{Name: "Apparel"},
	}

	keywords := ExtractKeywords(product)

	// Category first, then name tokens longer than 3 chars minus stop words,
	// then the species tag. "The" is a stop word.
	assert.Equal(t, []string{"apparel", "ultra", "trail", "running", "shoes", "pikachu"}, keywords)
}

func TestExtractKeywordsEmptyProduct(t *testing.T) {
	assert.Empty(t, ExtractKeywords(&models.Product{Name: "A"}))
}

func TestProductKeywordsPreferAdminCurated(t *testing.T) {
	product := &models.Product{
		Name:     "Running Shoes",
		Keywords: " Marathon , TRAIL ,",
		Category: models.Category{Name: "Apparel"},
	}

	// The curated string wins outright; nothing is extracted from the name.
	assert.Equal(t, []string{"marathon", "trail"}, productKeywords(product))
}

func TestRecordViewAccumulatesInterest(t *testing.T) {
	db := newTestDB(t)
	service := NewRecommendationService(db)

	user := createUser(t, db, "ash")
	category := createCategory(t, db, "Apparel")
	product := createProduct(t, db, "Trail Shoes", category, func(p *models.Product) {
		p.Keywords = "running"
	})

	require.NoError(t, service.RecordView(user, product))
	require.NoError(t, service.RecordView(user, product))

	var interest models.ProductInterest
	require.NoError(t, db.Where("user_id = ? AND keyword = ?", user.ID, "running").First(&interest).Error)
	assert.Equal(t, 2, interest.ViewCount)

	// Two views is below the activation threshold.
	assert.Empty(t, service.interestKeywords(user))

	require.NoError(t, service.RecordView(user, product))
	assert.Equal(t, []string{"running"}, service.interestKeywords(user))

	var views int64
	db.Model(&models.ProductView{}).Where("user_id = ?", user.ID).Count(&views)
	assert.EqualValues(t, 3, views)
}

func TestRecordViewAnonymousIsNoop(t *testing.T) {
	db := newTestDB(t)
	service := NewRecommendationService(db)

	category := createCategory(t, db, "Apparel")
	product := createProduct(t, db, "Trail Shoes", category)

	require.NoError(t, service.RecordView(nil, product))

	var views int64
	db.Model(&models.ProductView{}).Count(&views)
	assert.Zero(t, views)
}

func TestRecordViewConcurrentIncrements(t *testing.T) {
	db := newTestDB(t)
	service := NewRecommendationService(db)

	user := createUser(t, db, "ash")
	category := createCategory(t, db, "Medicine")
	product := createProduct(t, db, "Hyper Potion", category, func(p *models.Product) {
		p.Keywords = "potion"
	})

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, service.RecordView(user, product))
		}()
	}
	wg.Wait()

	// The increment happens in SQL, so neither view can overwrite the other.
	var interest models.ProductInterest
	require.NoError(t, db.Where("user_id = ? AND keyword = ?", user.ID, "potion").First(&interest).Error)
	assert.Equal(t, 2, interest.ViewCount)
}

func TestRecommendAnonymousOrdersByRating(t *testing.T) {
	db := newTestDB(t)
	service := NewRecommendationService(db)

	category := createCategory(t, db, "Apparel")
	createProduct(t, db, "Mediocre", category, func(p *models.Product) { p.Rating = 2.0 })
	createProduct(t, db, "Great", category, func(p *models.Product) { p.Rating = 4.8 })
	createProduct(t, db, "Hidden", category, func(p *models.Product) {
		p.Rating = 5.0
		p.IsListed = false
	})

	products, err := service.Recommend(nil, 10)
	require.NoError(t, err)

	assert.Equal(t, []string{"Great", "Mediocre"}, productNames(products))
}

func TestRecommendMatchesAccumulatedInterests(t *testing.T) {
	db := newTestDB(t)
	service := NewRecommendationService(db)

	user := createUser(t, db, "misty")
	category := createCategory(t, db, "Apparel")

	viewed := createProduct(t, db, "Trail Shoes", category, func(p *models.Product) {
		p.Keywords = "running"
		p.Rating = 3.0
	})
	match := createProduct(t, db, "Marathon Singlet", category, func(p *models.Product) {
		p.Keywords = "running,marathon"
		p.Rating = 4.5
	})
	createProduct(t, db, "Camping Stove", category, func(p *models.Product) {
		p.Keywords = "camping"
		p.Rating = 5.0
	})

	for i := 0; i < models.InterestThreshold; i++ {
		require.NoError(t, service.RecordView(user, viewed))
	}

	products, err := service.Recommend(user, 2)
	require.NoError(t, err)

	// Both carry the "running" keyword; the higher-rated match ranks first.
	require.Len(t, products, 2)
	assert.Equal(t, match.Name, products[0].Name)
	assert.Equal(t, viewed.Name, products[1].Name)
}

func TestRecommendHonorsDeclaredInterest(t *testing.T) {
	db := newTestDB(t)
	service := NewRecommendationService(db)

	user := createUser(t, db, "brock")
	require.NoError(t, db.Model(user).Update("interest", "camping, fishing").Error)
	user.Interest = "camping, fishing"

	category := createCategory(t, db, "Outdoors")
	createProduct(t, db, "Camping Stove", category, func(p *models.Product) {
		p.Keywords = "camping,stove"
	})
	createProduct(t, db, "Trail Shoes", category, func(p *models.Product) {
		p.Keywords = "running"
	})

	products, err := service.Recommend(user, 1)
	require.NoError(t, err)

	require.Len(t, products, 1)
	assert.Equal(t, "Camping Stove", products[0].Name)
}

func TestRecommendExcludesFulfilledPurchases(t *testing.T) {
	db := newTestDB(t)
	service := NewRecommendationService(db)

	user := createUser(t, db, "gary")
	require.NoError(t, db.Model(user).Update("interest", "running").Error)
	user.Interest = "running"

	category := createCategory(t, db, "Apparel")
	bought := createProduct(t, db, "Trail Shoes", category, func(p *models.Product) {
		p.Keywords = "running"
		p.Rating = 5.0
	})
	other := createProduct(t, db, "Marathon Singlet", category, func(p *models.Product) {
		p.Keywords = "running"
		p.Rating = 4.0
	})

	createFulfilledOrder(t, db, user, bought)

	products, err := service.Recommend(user, 2)
	require.NoError(t, err)

	names := productNames(products)
	assert.NotContains(t, names, bought.Name)
	assert.Contains(t, names, other.Name)
}

func TestRecommendTopUpExcludesPurchases(t *testing.T) {
	db := newTestDB(t)
	service := NewRecommendationService(db)

	user := createUser(t, db, "james")
	require.NoError(t, db.Model(user).Update("interest", "running").Error)
	user.Interest = "running"

	category := createCategory(t, db, "Outdoors")
	createProduct(t, db, "Trail Shoes", category, func(p *models.Product) {
		p.Keywords = "running"
		p.Rating = 3.0
	})
	bought := createProduct(t, db, "Camping Stove", category, func(p *models.Product) {
		p.Keywords = "camping"
		p.Rating = 5.0
	})
	createProduct(t, db, "Fishing Rod", category, func(p *models.Product) {
		p.Keywords = "fishing"
		p.Rating = 4.0
	})

	createFulfilledOrder(t, db, user, bought)

	// One interest match leaves two open slots, and the highest-rated
	// remaining product is the one already bought. The padding must skip it.
	products, err := service.Recommend(user, 3)
	require.NoError(t, err)

	names := productNames(products)
	assert.NotContains(t, names, bought.Name)
	assert.Equal(t, []string{"Trail Shoes", "Fishing Rod"}, names)
}

func TestRecommendSignallessUserFallsBackToNewest(t *testing.T) {
	db := newTestDB(t)
	service := NewRecommendationService(db)

	user := createUser(t, db, "meowth")

	category := createCategory(t, db, "Apparel")
	now := time.Now()
	createProduct(t, db, "Oldest", category, func(p *models.Product) {
		p.CreatedAt = now.Add(-2 * time.Hour)
		p.Rating = 5.0
	})
	createProduct(t, db, "Middle", category, func(p *models.Product) {
		p.CreatedAt = now.Add(-time.Hour)
	})
	createProduct(t, db, "Newest", category, func(p *models.Product) {
		p.CreatedAt = now
	})

	// Signed in but with no declared interest and no views: new releases
	// first, regardless of rating.
	products, err := service.Recommend(user, 3)
	require.NoError(t, err)

	assert.Equal(t, []string{"Newest", "Middle", "Oldest"}, productNames(products))
}

func TestRecommendTopsUpShortResults(t *testing.T) {
	db := newTestDB(t)
	service := NewRecommendationService(db)

	user := createUser(t, db, "jessie")
	require.NoError(t, db.Model(user).Update("interest", "running").Error)
	user.Interest = "running"

	category := createCategory(t, db, "Apparel")
	createProduct(t, db, "Trail Shoes", category, func(p *models.Product) {
		p.Keywords = "running"
		p.Rating = 3.0
	})
	createProduct(t, db, "Camping Stove", category, func(p *models.Product) {
		p.Keywords = "camping"
		p.Rating = 4.9
	})
	createProduct(t, db, "Fishing Rod", category, func(p *models.Product) {
		p.Keywords = "fishing"
		p.Rating = 4.1
	})

	products, err := service.Recommend(user, 3)
	require.NoError(t, err)

	// The single interest match stays first; the rest is popularity fill.
	require.Len(t, products, 3)
	assert.Equal(t, "Trail Shoes", products[0].Name)
	assert.Equal(t, "Camping Stove", products[1].Name)
	assert.Equal(t, "Fishing Rod", products[2].Name)

	// No duplicates between primary results and the fill.
	seen := map[string]bool{}
	for _, name := range productNames(products) {
		assert.False(t, seen[name])
		seen[name] = true
	}
}

func TestPopularProductsOrderedBySales(t *testing.T) {
	db := newTestDB(t)
	service := NewRecommendationService(db)

	user := createUser(t, db, "buyer")
	category := createCategory(t, db, "Apparel")
	bestseller := createProduct(t, db, "Trail Shoes", category)
	createProduct(t, db, "Marathon Singlet", category, func(p *models.Product) { p.Rating = 5.0 })

	createFulfilledOrder(t, db, user, bestseller)

	products, err := service.PopularProducts(2)
	require.NoError(t, err)

	require.Len(t, products, 2)
	assert.Equal(t, bestseller.Name, products[0].Name)
}
