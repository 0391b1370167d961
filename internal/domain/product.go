package domain

import (
	"context"
	"time"
)

// Product represents a catalog entry. Reviews and Supplier are embedded
// and share the product's lifecycle.
type Product struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Price         float64   `json:"price"`
	Category      string    `json:"category,omitempty"`
	Stock         int       `json:"stock"`
	Brand         string    `json:"brand,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Reviews       []*Review `json:"reviews"`
	Supplier      *Supplier `json:"supplier,omitempty"`
	AverageRating float64   `json:"average_rating"`
	TotalReviews  int       `json:"total_reviews"`
}

// Clone returns a deep copy of the product
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}

	cp := *p
	if p.Reviews != nil {
		cp.Reviews = make([]*Review, len(p.Reviews))
		for i, r := range p.Reviews {
			cp.Reviews[i] = r.Clone()
		}
	}
	cp.Supplier = p.Supplier.Clone()

	return &cp
}

// ProductRepository is the query contract a catalog store must satisfy
type ProductRepository interface {
	// FindAll returns every product in the catalog
	FindAll(ctx context.Context) ([]*Product, error)

	// FindByID retrieves a product by ID, returning ErrNotFound when absent
	FindByID(ctx context.Context, id string) (*Product, error)

	// Save upserts a product by ID
	Save(ctx context.Context, product *Product) (*Product, error)

	// DeleteByID removes a product; deleting a missing ID is not an error
	DeleteByID(ctx context.Context, id string) error

	// ExistsByName reports whether a product with exactly this name exists
	ExistsByName(ctx context.Context, name string) (bool, error)

	// FindByCategory returns products in the given category
	FindByCategory(ctx context.Context, category string) ([]*Product, error)

	// FindByNameContaining returns products whose name contains the substring
	FindByNameContaining(ctx context.Context, name string) ([]*Product, error)

	// FindByPriceBetween returns products priced within [minPrice, maxPrice]
	FindByPriceBetween(ctx context.Context, minPrice, maxPrice float64) ([]*Product, error)

	// FindByCategoryAndPriceLessThan returns products in category priced strictly below maxPrice
	FindByCategoryAndPriceLessThan(ctx context.Context, category string, maxPrice float64) ([]*Product, error)
}
