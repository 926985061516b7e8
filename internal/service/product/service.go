package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hayase/internal/domain"
	productrepo "hayase/internal/repository/product"
)

// ErrOutOfStock is returned by Purchasable for a product with no stock left.
var ErrOutOfStock = errors.New("product is sold out")

// InsufficientStockError reports a cart quantity above what is in stock.
type InsufficientStockError struct {
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("only %d left in stock", e.Available)
}

type Service struct {
	repo productrepo.Repository
}

func New(repo productrepo.Repository) *Service {
	return &Service{repo: repo}
}

// List returns the catalog narrowed by filter. Blank search text and
// categories are ignored.
func (s *Service) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	categories := make([]string, 0, len(filter.Categories))
	for _, c := range filter.Categories {
		if c = strings.TrimSpace(c); c != "" {
			categories = append(categories, c)
		}
	}
	filter.Categories = categories
	if filter.MinPrice != nil && *filter.MinPrice < 0 {
		return nil, &domain.ValidationError{Field: "min", Message: "must not be negative"}
	}
	if filter.MaxPrice != nil && *filter.MaxPrice < 0 {
		return nil, &domain.ValidationError{Field: "max", Message: "must not be negative"}
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return nil, &domain.ValidationError{Field: "max", Message: "must not be below min"}
	}
	return s.repo.List(ctx, filter)
}

func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.repo.Categories(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// Purchasable loads the product a shopper wants quantity units of. It is the
// stock ceiling for the cart, which itself never checks stock.
func (s *Service) Purchasable(ctx context.Context, id string, quantity int) (*domain.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.InStock() {
		return nil, ErrOutOfStock
	}
	if quantity > p.Stock {
		return nil, &InsufficientStockError{Available: p.Stock}
	}
	return p, nil
}

// Upsert creates the product when ID is empty and replaces it otherwise.
func (s *Service) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	p.ID = strings.TrimSpace(p.ID)
	p.Name = strings.TrimSpace(p.Name)
	p.Category = strings.TrimSpace(p.Category)
	if p.Name == "" {
		return nil, &domain.ValidationError{Field: "name", Message: "required"}
	}
	if p.Price < 0 {
		return nil, &domain.ValidationError{Field: "price", Message: "must not be negative"}
	}
	if p.Stock < 0 {
		return nil, &domain.ValidationError{Field: "stock", Message: "must not be negative"}
	}
	return s.repo.Upsert(ctx, p)
}

func (s *Service) UpdatePrice(ctx context.Context, id string, price domain.Money) error {
	if price < 0 {
		return &domain.ValidationError{Field: "price", Message: "must not be negative"}
	}
	return s.repo.UpdatePrice(ctx, id, price)
}
