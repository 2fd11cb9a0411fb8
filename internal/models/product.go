// internal/models/product.go
package models

import (
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Category struct {
	BaseModel
	Name string `json:"name" gorm:"uniqueIndex;size:100;not null"`

	Products []Product `json:"products,omitempty" gorm:"foreignKey:CategoryID"`
}

type Product struct {
	BaseModel
	Name        string         `json:"name" gorm:"size:255;not null;index"`
	Description string         `json:"description" gorm:"type:text"`
	Feature     string         `json:"feature" gorm:"type:text"`
	Rating      float64        `json:"rating" gorm:"type:decimal(3,2);default:0"`
	Price       float64        `json:"price" gorm:"type:decimal(10,2);not null"`
	CategoryID  uuid.UUID      `json:"category_id" gorm:"type:uuid;not null;index"`
	Species     string         `json:"species" gorm:"size:100"`
	Location    string         `json:"location" gorm:"size:100"`
	Keywords    string         `json:"keywords" gorm:"type:text"`
	Quantity    int            `json:"quantity" gorm:"default:0"`
	// No column default: GORM omits zero-valued fields that carry one, which
	// would silently flip a false value to true at insert. Callers set it.
	IsListed    bool           `json:"is_listed" gorm:"index"`
	Images      pq.StringArray `json:"images" gorm:"type:text[]"`
	SellerID    *uuid.UUID     `json:"seller_id" gorm:"type:uuid;index"`

	// Relationships
	Category Category  `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Seller   *User     `json:"seller,omitempty" gorm:"foreignKey:SellerID"`
	Reviews  []Review  `json:"reviews,omitempty" gorm:"foreignKey:ProductID"`
}

// KeywordList splits the admin-curated keyword string into normalized tokens.
// An empty keyword string yields an empty slice, never nil pointer surprises.
func (p *Product) KeywordList() []string {
	if p.Keywords == "" {
		return nil
	}
	var keywords []string
	for _, k := range strings.Split(p.Keywords, ",") {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			keywords = append(keywords, k)
		}
	}
	return keywords
}

// FeatureList splits the free-text feature string into its parts.
func (p *Product) FeatureList() []string {
	if p.Feature == "" {
		return nil
	}
	var features []string
	for _, f := range strings.Split(p.Feature, ",") {
		if f = strings.TrimSpace(f); f != "" {
			features = append(features, f)
		}
	}
	return features
}

// PrimaryImage returns the image shown on listings.
func (p *Product) PrimaryImage() string {
	if len(p.Images) > 0 {
		return p.Images[0]
	}
	return "default.jpg"
}

// Summary is the wire shape used on listings and suggestion lists.
type ProductSummary struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Price    float64   `json:"price"`
	Rating   float64   `json:"rating"`
	Category string    `json:"category"`
	Image    string    `json:"image"`
}

func (p *Product) Summary() ProductSummary {
	return ProductSummary{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Rating:   p.Rating,
		Category: p.Category.Name,
		Image:    p.PrimaryImage(),
	}
}

func Summaries(products []Product) []ProductSummary {
	summaries := make([]ProductSummary, 0, len(products))
	for i := range products {
		summaries = append(summaries, products[i].Summary())
	}
	return summaries
}
