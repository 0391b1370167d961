package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Pesokrava/product_catalog/internal/domain"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique constraint violations
const uniqueViolation = "23505"

// ProductRepository implements domain.ProductRepository for PostgreSQL.
// Each product is stored as a JSONB document next to the columns it is
// filtered on.
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new PostgreSQL product repository
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// FindAll returns every product
func (r *ProductRepository) FindAll(ctx context.Context) ([]*domain.Product, error) {
	query := `SELECT document FROM products`

	return r.selectDocuments(ctx, query)
}

// FindByID retrieves a product by ID
func (r *ProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	query := `SELECT document FROM products WHERE id = $1`

	var document []byte
	err := r.db.GetContext(ctx, &document, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	return decodeDocument(document)
}

// Save upserts a product by ID
func (r *ProductRepository) Save(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	query := `
		INSERT INTO products (id, name, category, price, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
			category = EXCLUDED.category,
			price = EXCLUDED.price,
			document = EXCLUDED.document,
			updated_at = EXCLUDED.updated_at
	`

	document, err := json.Marshal(product)
	if err != nil {
		return nil, fmt.Errorf("failed to encode product %s: %w", product.ID, err)
	}

	_, err = r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Category,
		product.Price,
		document,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, fmt.Errorf("%w: product with name '%s' already exists", domain.ErrDuplicateName, product.Name)
		}
		return nil, err
	}

	return product, nil
}

// DeleteByID deletes a product; a missing row is not an error
func (r *ProductRepository) DeleteByID(ctx context.Context, id string) error {
	query := `DELETE FROM products WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// ExistsByName reports whether a product has exactly this name
func (r *ProductRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM products WHERE name = $1)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, name); err != nil {
		return false, err
	}

	return exists, nil
}

// FindByCategory returns products in the category
func (r *ProductRepository) FindByCategory(ctx context.Context, category string) ([]*domain.Product, error) {
	query := `SELECT document FROM products WHERE category = $1`

	return r.selectDocuments(ctx, query, category)
}

// FindByNameContaining returns products whose name contains name (case-sensitive)
func (r *ProductRepository) FindByNameContaining(ctx context.Context, name string) ([]*domain.Product, error) {
	query := `SELECT document FROM products WHERE name LIKE $1 ESCAPE '\'`

	return r.selectDocuments(ctx, query, "%"+escapeLike(name)+"%")
}

// FindByPriceBetween returns products priced within [minPrice, maxPrice]
func (r *ProductRepository) FindByPriceBetween(ctx context.Context, minPrice, maxPrice float64) ([]*domain.Product, error) {
	query := `SELECT document FROM products WHERE price BETWEEN $1 AND $2`

	return r.selectDocuments(ctx, query, minPrice, maxPrice)
}

// FindByCategoryAndPriceLessThan returns products in category priced below maxPrice
func (r *ProductRepository) FindByCategoryAndPriceLessThan(ctx context.Context, category string, maxPrice float64) ([]*domain.Product, error) {
	query := `SELECT document FROM products WHERE category = $1 AND price < $2`

	return r.selectDocuments(ctx, query, category, maxPrice)
}

func (r *ProductRepository) selectDocuments(ctx context.Context, query string, args ...interface{}) ([]*domain.Product, error) {
	var documents [][]byte
	if err := r.db.SelectContext(ctx, &documents, query, args...); err != nil {
		return nil, err
	}

	products := make([]*domain.Product, 0, len(documents))
	for _, document := range documents {
		product, err := decodeDocument(document)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}

	return products, nil
}

func decodeDocument(document []byte) (*domain.Product, error) {
	var product domain.Product
	if err := json.Unmarshal(document, &product); err != nil {
		return nil, fmt.Errorf("failed to decode product document: %w", err)
	}
	return &product, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
