package domain

import "time"

// Product is a figure listed in the catalog.
type Product struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Price        Money     `json:"price"`
	Stock        int       `json:"stock"`
	Images       []string  `json:"images,omitempty"`
	Manufacturer string    `json:"manufacturer,omitempty"`
	Scale        string    `json:"scale,omitempty"`
	Condition    string    `json:"condition,omitempty"`
	Category     string    `json:"category,omitempty"`
	IsFeatured   bool      `json:"isFeatured"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (p Product) InStock() bool {
	return p.Stock > 0
}

// ProductFilter narrows a catalog listing. Zero fields do not constrain.
type ProductFilter struct {
	// Search matches product names case-insensitively.
	Search       string
	Categories   []string
	MinPrice     *Money
	MaxPrice     *Money
	FeaturedOnly bool
	InStockOnly  bool
}
