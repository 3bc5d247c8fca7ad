package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryFruits     Category = "Fruits"
	CategoryVegetables Category = "Vegetables"
	CategoryBakery     Category = "Bakery"
	CategoryDairy      Category = "Dairy"
	CategoryJuice      Category = "Juice"
	CategoryGroceries  Category = "Groceries"
)

var knownCategories = map[Category]bool{
	CategoryFruits:     true,
	CategoryVegetables: true,
	CategoryBakery:     true,
	CategoryDairy:      true,
	CategoryJuice:      true,
	CategoryGroceries:  true,
}

// Known reports whether the category is one the storefront has a shelf for.
func (c Category) Known() bool {
	return knownCategories[c]
}

type Product struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	ImageURLs   []string        `json:"image_urls"`
	Category    Category        `json:"category"`
	Description string          `json:"description,omitempty"`
	Origin      string          `json:"origin,omitempty"`
	Quality     string          `json:"quality,omitempty"`
	Storage     string          `json:"storage,omitempty"`
	Packaging   string          `json:"packaging,omitempty"`
	Weight      string          `json:"weight,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at,omitempty"`
}

// PrimaryImage returns the first image url or an empty string.
func (p Product) PrimaryImage() string {
	if len(p.ImageURLs) == 0 {
		return ""
	}
	return p.ImageURLs[0]
}

func (p Product) InStock() bool {
	return p.Stock > 0
}
