// internal/services/suggestion_service.go
package services

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pokemart/pokemart-backend/internal/models"
)

const (
	// DetailSuggestionLimit caps the "suggested products" block on a product
	// detail page.
	DetailSuggestionLimit = 4
	// SearchSuggestionLimit caps the substitutes offered when a search comes
	// back empty.
	SearchSuggestionLimit = 8
)

// SuggestionService finds substitute products for a free-text query or a
// reference product. Matching runs as a cascade of stages; each stage only
// fires while the accumulated result count is under budget and never re-picks
// a product selected by an earlier stage.
type SuggestionService struct {
	db  *gorm.DB
	mtx sync.Mutex
	rng *rand.Rand
}

// NewSuggestionService builds a suggester. src seeds the random fill stage;
// tests pass a fixed seed to make output reproducible.
func NewSuggestionService(db *gorm.DB, src rand.Source) *SuggestionService {
	return &SuggestionService{db: db, rng: rand.New(src)}
}

// suggestStage produces up to budget additional candidates, excluding ids
// already selected by earlier stages.
type suggestStage func(excluded []uuid.UUID, budget int) ([]models.Product, error)

func (s *SuggestionService) runCascade(max int, stages []suggestStage) ([]models.Product, error) {
	selected := make([]models.Product, 0, max)
	seen := make(map[uuid.UUID]bool)
	var excluded []uuid.UUID

	for _, stage := range stages {
		if len(selected) >= max {
			break
		}
		additions, err := stage(excluded, max-len(selected))
		if err != nil {
			return nil, err
		}
		for i := range additions {
			if len(selected) >= max {
				break
			}
			if seen[additions[i].ID] {
				continue
			}
			seen[additions[i].ID] = true
			excluded = append(excluded, additions[i].ID)
			selected = append(selected, additions[i])
		}
	}

	return selected, nil
}

// candidatePool scopes every stage to listed products, minus the reference
// product and anything already selected.
func (s *SuggestionService) candidatePool(exclude *uuid.UUID, excluded []uuid.UUID) *gorm.DB {
	query := s.db.Where("is_listed = ?", true)
	if exclude != nil {
		query = query.Where("id != ?", *exclude)
	}
	if len(excluded) > 0 {
		query = query.Where("id NOT IN ?", excluded)
	}
	return query
}

// SuggestForProduct fills the "suggested products" block on a product detail
// page: name-word overlap, then same category, then shared species tag, then
// random fill. Stage arrival order is preserved.
func (s *SuggestionService) SuggestForProduct(product *models.Product) ([]models.Product, error) {
	refID := product.ID

	stages := []suggestStage{
		// Word overlap on the reference name; at most 3 picks so the later
		// stages still get a say.
		func(excluded []uuid.UUID, budget int) ([]models.Product, error) {
			match := s.nameWordMatch(product.Name, 3)
			if match == nil {
				return nil, nil
			}
			if budget > 3 {
				budget = 3
			}
			var products []models.Product
			err := s.candidatePool(&refID, excluded).Where(match).
				Order("name ASC").Limit(budget).
				Preload("Category").Find(&products).Error
			if err != nil {
				return nil, fmt.Errorf("name match failed: %w", err)
			}
			return products, nil
		},
		// Same category.
		func(excluded []uuid.UUID, budget int) ([]models.Product, error) {
			var products []models.Product
			err := s.candidatePool(&refID, excluded).
				Where("category_id = ?", product.CategoryID).
				Order("name ASC").Limit(budget).
				Preload("Category").Find(&products).Error
			if err != nil {
				return nil, fmt.Errorf("category match failed: %w", err)
			}
			return products, nil
		},
		// Shared species tag, only when the reference carries one.
		func(excluded []uuid.UUID, budget int) ([]models.Product, error) {
			if product.Species == "" {
				return nil, nil
			}
			var products []models.Product
			err := s.candidatePool(&refID, excluded).
				Where("LOWER(species) LIKE ?", "%"+strings.ToLower(product.Species)+"%").
				Order("name ASC").Limit(budget).
				Preload("Category").Find(&products).Error
			if err != nil {
				return nil, fmt.Errorf("species match failed: %w", err)
			}
			return products, nil
		},
		s.randomFill(&refID),
	}

	return s.runCascade(DetailSuggestionLimit, stages)
}

// SuggestForQuery suggests substitutes when a keyword search found nothing:
// name-word overlap, a trigram pass when even that found nothing, then random
// fill. The accumulated set is re-sorted so names starting with the query come
// first, alphabetical within each group.
func (s *SuggestionService) SuggestForQuery(query string) ([]models.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	wordMatched := false

	stages := []suggestStage{
		func(excluded []uuid.UUID, budget int) ([]models.Product, error) {
			match := s.nameWordMatch(query, 2)
			if match == nil {
				return nil, nil
			}
			// Prefix matches sort first inside the stage too, so the budget
			// cap can never cut a prefix match in favor of an alphabetically
			// earlier substring match.
			prefixFirst := clause.OrderBy{Expression: clause.Expr{
				SQL:                "CASE WHEN LOWER(name) LIKE ? THEN 0 ELSE 1 END, name ASC",
				Vars:               []interface{}{strings.ToLower(query) + "%"},
				WithoutParentheses: true,
			}}
			var products []models.Product
			err := s.candidatePool(nil, excluded).Where(match).
				Clauses(prefixFirst).Limit(budget).
				Preload("Category").Find(&products).Error
			if err != nil {
				return nil, fmt.Errorf("name match failed: %w", err)
			}
			wordMatched = len(products) > 0
			return products, nil
		},
		// Trigram fallback, only when word matching came up empty and the
		// query is long enough to window. Windows are rune-based: slicing
		// bytes would split multibyte characters into invalid LIKE patterns.
		func(excluded []uuid.UUID, budget int) ([]models.Product, error) {
			runes := []rune(strings.ToLower(query))
			if wordMatched || len(runes) <= 3 {
				return nil, nil
			}
			match := s.db
			for i := 0; i+3 <= len(runes); i++ {
				pattern := "%" + string(runes[i:i+3]) + "%"
				if i == 0 {
					match = match.Where("LOWER(name) LIKE ?", pattern)
				} else {
					match = match.Or("LOWER(name) LIKE ?", pattern)
				}
			}
			var products []models.Product
			err := s.candidatePool(nil, excluded).Where(match).
				Order("name ASC").Limit(budget).
				Preload("Category").Find(&products).Error
			if err != nil {
				return nil, fmt.Errorf("trigram match failed: %w", err)
			}
			return products, nil
		},
		s.randomFill(nil),
	}

	suggestions, err := s.runCascade(SearchSuggestionLimit, stages)
	if err != nil {
		return nil, err
	}

	lowered := strings.ToLower(query)
	sort.SliceStable(suggestions, func(i, j int) bool {
		iPrefix := strings.HasPrefix(strings.ToLower(suggestions[i].Name), lowered)
		jPrefix := strings.HasPrefix(strings.ToLower(suggestions[j].Name), lowered)
		if iPrefix != jPrefix {
			return iPrefix
		}
		return suggestions[i].Name < suggestions[j].Name
	})

	return suggestions, nil
}

// nameWordMatch ORs a substring match per whitespace token longer than
// minLen. Returns nil when no token qualifies.
func (s *SuggestionService) nameWordMatch(text string, minLen int) *gorm.DB {
	var match *gorm.DB
	for _, word := range strings.Fields(strings.ToLower(text)) {
		if len(word) <= minLen {
			continue
		}
		pattern := "%" + word + "%"
		if match == nil {
			match = s.db.Where("LOWER(name) LIKE ?", pattern)
		} else {
			match = match.Or("LOWER(name) LIKE ?", pattern)
		}
	}
	return match
}

// randomFill pads a short result with a uniform sample, without replacement,
// of the unselected candidates.
func (s *SuggestionService) randomFill(exclude *uuid.UUID) suggestStage {
	return func(excluded []uuid.UUID, budget int) ([]models.Product, error) {
		var remaining []models.Product
		err := s.candidatePool(exclude, excluded).
			Order("id ASC").
			Preload("Category").Find(&remaining).Error
		if err != nil {
			return nil, fmt.Errorf("random fill failed: %w", err)
		}
		if len(remaining) == 0 {
			return nil, nil
		}

		s.mtx.Lock()
		s.rng.Shuffle(len(remaining), func(i, j int) {
			remaining[i], remaining[j] = remaining[j], remaining[i]
		})
		s.mtx.Unlock()

		if budget < len(remaining) {
			remaining = remaining[:budget]
		}
		return remaining, nil
	}
}
