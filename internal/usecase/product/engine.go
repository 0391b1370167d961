package product

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Pesokrava/product_catalog/internal/domain"
	"github.com/Pesokrava/product_catalog/internal/pkg/clock"
	"github.com/Pesokrava/product_catalog/internal/pkg/validator"
)

// NameChecker reports whether a product name is already taken
type NameChecker interface {
	ExistsByName(ctx context.Context, name string) (bool, error)
}

// Engine applies the validation and aggregation rules a product must pass
// before it is handed to the store. It holds no mutable state.
type Engine struct {
	names NameChecker
	clock clock.Clock
	newID func() string
}

// NewEngine creates a new validation and aggregation engine
func NewEngine(names NameChecker, clk clock.Clock) *Engine {
	if clk == nil {
		clk = clock.NewRealClock()
	}

	return &Engine{
		names: names,
		clock: clk,
		newID: func() string { return uuid.NewString() },
	}
}

// PrepareForCreate validates a new product and fills in its generated and
// derived fields. The product is mutated in place.
func (e *Engine) PrepareForCreate(ctx context.Context, product *domain.Product) error {
	if product == nil {
		return fmt.Errorf("%w: product is required", domain.ErrInvalidInput)
	}

	if product.Name != "" {
		exists, err := e.names.ExistsByName(ctx, product.Name)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: product with name '%s' already exists", domain.ErrDuplicateName, product.Name)
		}
	}

	now := e.clock.Now()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now

	if product.ID == "" {
		product.ID = e.newID()
	}

	if len(product.Reviews) > 0 {
		if err := e.processReviews(product.Reviews, now); err != nil {
			return err
		}
		product.AverageRating, product.TotalReviews = domain.AggregateRatings(product.Reviews)
	} else {
		product.Reviews = []*domain.Review{}
		product.AverageRating = 0
		product.TotalReviews = 0
	}

	if product.Supplier != nil {
		if err := validateSupplier(product.Supplier); err != nil {
			return err
		}
	}

	return nil
}

// PrepareForUpdate copies the mutable scalar fields from incoming onto existing.
// Identity, both timestamps, reviews, supplier and derived fields are left as
// they are, and nothing is re-validated.
func (e *Engine) PrepareForUpdate(existing, incoming *domain.Product) *domain.Product {
	existing.Name = incoming.Name
	existing.Description = incoming.Description
	existing.Price = incoming.Price
	existing.Category = incoming.Category
	existing.Stock = incoming.Stock

	return existing
}

// processReviews assigns ids and timestamps and checks ratings in order.
// The first invalid review aborts the whole product.
func (e *Engine) processReviews(reviews []*domain.Review, now time.Time) error {
	for i, review := range reviews {
		if review == nil {
			return fmt.Errorf("%w: review %d is empty", domain.ErrInvalidRating, i)
		}

		if review.ID == "" {
			review.ID = e.newID()
		}

		if review.CreatedAt.IsZero() {
			review.CreatedAt = now
		}

		if review.Rating == nil || *review.Rating < 1 || *review.Rating > 5 {
			return fmt.Errorf("%w: review %d", domain.ErrInvalidRating, i)
		}
	}

	return nil
}

func validateSupplier(supplier *domain.Supplier) error {
	if strings.TrimSpace(supplier.Name) == "" {
		return domain.ErrInvalidSupplier
	}

	if supplier.ContactEmail != nil && !validator.IsValidEmail(*supplier.ContactEmail) {
		return fmt.Errorf("%w: %q", domain.ErrInvalidSupplierEmail, *supplier.ContactEmail)
	}

	if supplier.Rating != nil && (*supplier.Rating < 0 || *supplier.Rating > 5) {
		return fmt.Errorf("%w: got %.2f", domain.ErrInvalidSupplierRating, *supplier.Rating)
	}

	if supplier.IsActive == nil {
		active := true
		supplier.IsActive = &active
	}

	return nil
}
