// internal/services/suggestion_service_test.go
package services

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pokemart/pokemart-backend/internal/models"
)

func TestSuggestForProductPrefersNameOverlap(t *testing.T) {
	db := newTestDB(t)
	service := NewSuggestionService(db, rand.NewSource(1))

	apparel := createCategory(t, db, "Apparel")
	outdoors := createCategory(t, db, "Outdoors")

	ref := createProduct(t, db, "Hiking Boots Pro", apparel)
	poles := createProduct(t, db, "Hiking Poles", outdoors)
	boots := createProduct(t, db, "Leather Boots", outdoors)
	tent := createProduct(t, db, "Tent", outdoors)

	suggestions, err := service.SuggestForProduct(ref)
	require.NoError(t, err)

	names := productNames(suggestions)
	require.Len(t, names, 3)

	// Word overlap fires first, alphabetical within the stage; the tent only
	// arrives through random fill.
	assert.Equal(t, []string{poles.Name, boots.Name}, names[:2])
	assert.Equal(t, tent.Name, names[2])
}

func TestSuggestForProductCategoryFallback(t *testing.T) {
	db := newTestDB(t)
	service := NewSuggestionService(db, rand.NewSource(1))

	medicine := createCategory(t, db, "Medicine")
	other := createCategory(t, db, "Outdoors")

	ref := createProduct(t, db, "Elixir", medicine)
	sibling := createProduct(t, db, "Antidote", medicine)
	createProduct(t, db, "Tent", other)

	suggestions, err := service.SuggestForProduct(ref)
	require.NoError(t, err)

	names := productNames(suggestions)
	require.Len(t, names, 2)
	// No name overlap anywhere, so same-category wins the first slot.
	assert.Equal(t, sibling.Name, names[0])
}

func TestSuggestForProductNeverExceedsLimit(t *testing.T) {
	db := newTestDB(t)
	service := NewSuggestionService(db, rand.NewSource(1))

	category := createCategory(t, db, "Medicine")
	ref := createProduct(t, db, "Elixir", category)
	for _, name := range []string{"Antidote", "Awakening", "Burn Heal", "Ice Heal", "Full Heal", "Revive"} {
		createProduct(t, db, name, category)
	}

	suggestions, err := service.SuggestForProduct(ref)
	require.NoError(t, err)

	assert.Len(t, suggestions, DetailSuggestionLimit)
	for i := range suggestions {
		assert.NotEqual(t, ref.ID, suggestions[i].ID)
	}
}

func TestSuggestForProductSpeciesMatch(t *testing.T) {
	db := newTestDB(t)
	service := NewSuggestionService(db, rand.NewSource(1))

	toys := createCategory(t, db, "Toys")
	apparel := createCategory(t, db, "Apparel")

	ref := createProduct(t, db, "Plush Doll", toys, func(p *models.Product) {
		p.Species = "Eevee"
	})
	sameSpecies := createProduct(t, db, "Winter Scarf", apparel, func(p *models.Product) {
		p.Species = "Eevee"
	})
	createProduct(t, db, "Rain Jacket", apparel)

	suggestions, err := service.SuggestForProduct(ref)
	require.NoError(t, err)

	names := productNames(suggestions)
	require.Len(t, names, 2)
	// No word overlap and no category sibling; the shared species tag comes
	// before random fill.
	assert.Equal(t, sameSpecies.Name, names[0])
}

func TestSuggestForQueryPrefixFirst(t *testing.T) {
	db := newTestDB(t)
	service := NewSuggestionService(db, rand.NewSource(1))

	category := createCategory(t, db, "Medicine")
	createProduct(t, db, "Super Potion", category)
	createProduct(t, db, "Potion", category)
	createProduct(t, db, "Teapot", category)

	suggestions, err := service.SuggestForQuery("pot")
	require.NoError(t, err)

	names := productNames(suggestions)
	require.Len(t, names, 3)
	// All three contain "pot"; the true prefix match leads, the rest stay
	// alphabetical.
	assert.Equal(t, []string{"Potion", "Super Potion", "Teapot"}, names)
}

func TestSuggestForQueryTrigramFallback(t *testing.T) {
	db := newTestDB(t)
	service := NewSuggestionService(db, rand.NewSource(1))

	category := createCategory(t, db, "Medicine")
	createProduct(t, db, "Potion", category)
	createProduct(t, db, "Elixir", category)

	// No name contains the whole token, but the "pot" window still hits.
	suggestions, err := service.SuggestForQuery("potxq")
	require.NoError(t, err)

	names := productNames(suggestions)
	assert.Contains(t, names, "Potion")
}

func TestSuggestForQueryTrigramHandlesMultibyteQuery(t *testing.T) {
	db := newTestDB(t)
	service := NewSuggestionService(db, rand.NewSource(1))

	category := createCategory(t, db, "Berries")
	createProduct(t, db, "Crème Berry Jam", category)
	createProduct(t, db, "Potion", category)

	// No whole-token match, so the query is windowed. The windows must be
	// whole characters: a byte window would split "è" into an invalid pattern.
	suggestions, err := service.SuggestForQuery("crèzz")
	require.NoError(t, err)

	assert.Contains(t, productNames(suggestions), "Crème Berry Jam")
}

func TestSuggestForQueryPrefixSurvivesFullStage(t *testing.T) {
	db := newTestDB(t)
	service := NewSuggestionService(db, rand.NewSource(1))

	category := createCategory(t, db, "Medicine")
	for _, name := range []string{
		"Abra Potion", "Bell Potion", "Cave Potion", "Dew Potion",
		"Echo Potion", "Fog Potion", "Gale Potion", "Haze Potion",
	} {
		createProduct(t, db, name, category)
	}
	createProduct(t, db, "Potionette", category)

	// Nine word matches compete for eight slots. The late-alphabet prefix
	// match must not lose its slot to an earlier substring match.
	suggestions, err := service.SuggestForQuery("potion")
	require.NoError(t, err)

	names := productNames(suggestions)
	require.Len(t, names, SearchSuggestionLimit)
	assert.Equal(t, "Potionette", names[0])
	assert.NotContains(t, names, "Haze Potion")
}

func TestSuggestForQueryEmptyQuery(t *testing.T) {
	db := newTestDB(t)
	service := NewSuggestionService(db, rand.NewSource(1))

	suggestions, err := service.SuggestForQuery("   ")
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

func TestSuggestForQueryNeverExceedsLimit(t *testing.T) {
	db := newTestDB(t)
	service := NewSuggestionService(db, rand.NewSource(1))

	category := createCategory(t, db, "Medicine")
	for _, name := range []string{
		"Potion", "Super Potion", "Hyper Potion", "Max Potion",
		"Potion Case", "Potion Holder", "Potion Flask", "Potion Kit",
		"Potion Stand", "Potion Rack",
	} {
		createProduct(t, db, name, category)
	}

	suggestions, err := service.SuggestForQuery("potion")
	require.NoError(t, err)
	assert.Len(t, suggestions, SearchSuggestionLimit)
}

func TestSuggestRandomFillIsDeterministicPerSeed(t *testing.T) {
	db := newTestDB(t)

	category := createCategory(t, db, "Misc")
	for _, name := range []string{"Alpha", "Bravo", "Charlie", "Delta", "Echo", "Foxtrot"} {
		createProduct(t, db, name, category)
	}
	ref := createProduct(t, db, "Zz", createCategory(t, db, "Empty"))

	first, err := NewSuggestionService(db, rand.NewSource(42)).SuggestForProduct(ref)
	require.NoError(t, err)
	second, err := NewSuggestionService(db, rand.NewSource(42)).SuggestForProduct(ref)
	require.NoError(t, err)

	assert.Equal(t, productNames(first), productNames(second))
	assert.Len(t, first, DetailSuggestionLimit)
}
