package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/Pesokrava/product_catalog/internal/domain"
)

// ProductRepository implements domain.ProductRepository in process memory.
// Stored and returned products are copies.
type ProductRepository struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
}

// NewProductRepository creates an empty in-memory product repository
func NewProductRepository() *ProductRepository {
	return &ProductRepository{
		products: make(map[string]*domain.Product),
	}
}

// FindAll returns every stored product
func (r *ProductRepository) FindAll(ctx context.Context) ([]*domain.Product, error) {
	return r.filter(func(*domain.Product) bool { return true }), nil
}

// FindByID retrieves a product by ID
func (r *ProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}

	return product.Clone(), nil
}

// Save upserts a product by ID
func (r *ProductRepository) Save(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.products[product.ID] = product.Clone()

	return product.Clone(), nil
}

// DeleteByID removes a product if present
func (r *ProductRepository) DeleteByID(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.products, id)

	return nil
}

// ExistsByName reports whether a product has exactly this name
func (r *ProductRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.products {
		if p.Name == name {
			return true, nil
		}
	}

	return false, nil
}

// FindByCategory returns products in the category
func (r *ProductRepository) FindByCategory(ctx context.Context, category string) ([]*domain.Product, error) {
	return r.filter(func(p *domain.Product) bool {
		return p.Category == category
	}), nil
}

// FindByNameContaining returns products whose name contains name (case-sensitive)
func (r *ProductRepository) FindByNameContaining(ctx context.Context, name string) ([]*domain.Product, error) {
	return r.filter(func(p *domain.Product) bool {
		return strings.Contains(p.Name, name)
	}), nil
}

// FindByPriceBetween returns products priced within [minPrice, maxPrice]
func (r *ProductRepository) FindByPriceBetween(ctx context.Context, minPrice, maxPrice float64) ([]*domain.Product, error) {
	return r.filter(func(p *domain.Product) bool {
		return p.Price >= minPrice && p.Price <= maxPrice
	}), nil
}

// FindByCategoryAndPriceLessThan returns products in category priced below maxPrice
func (r *ProductRepository) FindByCategoryAndPriceLessThan(ctx context.Context, category string, maxPrice float64) ([]*domain.Product, error) {
	return r.filter(func(p *domain.Product) bool {
		return p.Category == category && p.Price < maxPrice
	}), nil
}

func (r *ProductRepository) filter(match func(*domain.Product) bool) []*domain.Product {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Product, 0)
	for _, p := range r.products {
		if match(p) {
			result = append(result, p.Clone())
		}
	}

	return result
}
