package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Pesokrava/product_catalog/internal/domain"
	"github.com/Pesokrava/product_catalog/internal/pkg/clock"
	"github.com/Pesokrava/product_catalog/internal/pkg/logger"
)

// EventsSubject is the subject catalog events are published to
const EventsSubject = "catalog.products.events"

// Catalog event types
const (
	EventProductCreated = "product.created"
	EventProductUpdated = "product.updated"
	EventProductDeleted = "product.deleted"
)

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// NameGuard reserves a product name while a create is in flight
type NameGuard interface {
	Claim(ctx context.Context, name string) (token string, ok bool, err error)
	Release(ctx context.Context, name, token string) error
}

// ProductEvent represents a change to a catalog product
type ProductEvent struct {
	EventType string          `json:"event_type"`
	Timestamp time.Time       `json:"timestamp"`
	ProductID string          `json:"product_id"`
	Product   *domain.Product `json:"product,omitempty"`
}

// Service handles catalog business logic. guard and publisher are optional.
type Service struct {
	repo      domain.ProductRepository
	engine    *Engine
	guard     NameGuard
	publisher EventPublisher
	clock     clock.Clock
	logger    *logger.Logger
}

// NewService creates a new product service
func NewService(
	repo domain.ProductRepository,
	guard NameGuard,
	publisher EventPublisher,
	clk clock.Clock,
	log *logger.Logger,
) *Service {
	if clk == nil {
		clk = clock.NewRealClock()
	}

	return &Service{
		repo:      repo,
		engine:    NewEngine(repo, clk),
		guard:     guard,
		publisher: publisher,
		clock:     clk,
		logger:    log,
	}
}

// GetAll returns every product in the catalog
func (s *Service) GetAll(ctx context.Context) ([]*domain.Product, error) {
	products, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.Error("Failed to list products", err)
		return nil, err
	}

	return products, nil
}

// GetByID retrieves a product by ID
func (s *Service) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == domain.ErrNotFound {
			s.logger.Debugf("Product not found: %s", id)
		} else {
			s.logger.Error("Failed to get product", err)
		}
		return nil, err
	}

	return product, nil
}

// Search returns products whose name contains the given text
func (s *Service) Search(ctx context.Context, name string) ([]*domain.Product, error) {
	products, err := s.repo.FindByNameContaining(ctx, name)
	if err != nil {
		s.logger.Error("Failed to search products by name", err)
		return nil, err
	}

	return products, nil
}

// ByCategory returns products in a category
func (s *Service) ByCategory(ctx context.Context, category string) ([]*domain.Product, error) {
	products, err := s.repo.FindByCategory(ctx, category)
	if err != nil {
		s.logger.Error("Failed to get products by category", err)
		return nil, err
	}

	return products, nil
}

// ByPriceRange returns products priced within [minPrice, maxPrice]
func (s *Service) ByPriceRange(ctx context.Context, minPrice, maxPrice float64) ([]*domain.Product, error) {
	products, err := s.repo.FindByPriceBetween(ctx, minPrice, maxPrice)
	if err != nil {
		s.logger.Error("Failed to get products by price range", err)
		return nil, err
	}

	return products, nil
}

// ByCategoryAndMaxPrice returns products in a category priced below maxPrice
func (s *Service) ByCategoryAndMaxPrice(ctx context.Context, category string, maxPrice float64) ([]*domain.Product, error) {
	products, err := s.repo.FindByCategoryAndPriceLessThan(ctx, category, maxPrice)
	if err != nil {
		s.logger.Error("Failed to get products by category and max price", err)
		return nil, err
	}

	return products, nil
}

// Create validates and stores a new product. Nothing is saved when
// validation fails.
func (s *Service) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if product == nil {
		return nil, fmt.Errorf("%w: product is required", domain.ErrInvalidInput)
	}

	if s.guard != nil && product.Name != "" {
		token, claimed, err := s.guard.Claim(ctx, product.Name)
		switch {
		case err != nil:
			s.logger.Warnf("Name guard unavailable for %q, falling back to store check: %v", product.Name, err)
		case !claimed:
			s.logger.Debugf("Name %q is being created concurrently", product.Name)
			return nil, fmt.Errorf("%w: product with name '%s' is being created", domain.ErrDuplicateName, product.Name)
		default:
			defer s.releaseName(ctx, product.Name, token)
		}
	}

	if err := s.engine.PrepareForCreate(ctx, product); err != nil {
		if domain.IsValidationError(err) || errors.Is(err, domain.ErrDuplicateName) {
			s.logger.WithFields(map[string]interface{}{
				"name":  product.Name,
				"error": err.Error(),
			}).Info("Product rejected")
		} else {
			s.logger.Error("Failed to prepare product", err)
		}
		return nil, err
	}

	saved, err := s.repo.Save(ctx, product)
	if err != nil {
		s.logger.Error("Failed to save product", err)
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"product_id":    saved.ID,
		"name":          saved.Name,
		"total_reviews": saved.TotalReviews,
	}).Info("Product created successfully")

	s.publishEvent(ctx, EventProductCreated, saved.ID, saved)

	return saved, nil
}

// Update overwrites the mutable fields of an existing product
func (s *Service) Update(ctx context.Context, id string, details *domain.Product) (*domain.Product, error) {
	if details == nil {
		return nil, fmt.Errorf("%w: product details are required", domain.ErrInvalidInput)
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == domain.ErrNotFound {
			s.logger.Debugf("Product not found for update: %s", id)
		} else {
			s.logger.Error("Failed to get product for update", err)
		}
		return nil, err
	}

	updated, err := s.repo.Save(ctx, s.engine.PrepareForUpdate(existing, details))
	if err != nil {
		s.logger.Error("Failed to update product", err)
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"product_id": updated.ID,
		"name":       updated.Name,
	}).Info("Product updated successfully")

	s.publishEvent(ctx, EventProductUpdated, updated.ID, updated)

	return updated, nil
}

// Delete removes a product. Deleting a missing product succeeds.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		s.logger.Error("Failed to delete product", err)
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"product_id": id,
	}).Info("Product deleted successfully")

	s.publishEvent(ctx, EventProductDeleted, id, nil)

	return nil
}

func (s *Service) releaseName(ctx context.Context, name, token string) {
	if err := s.guard.Release(context.WithoutCancel(ctx), name, token); err != nil {
		s.logger.Warnf("Failed to release name guard for %q: %v", name, err)
	}
}

// publishEvent publishes a catalog event; failures are logged only
func (s *Service) publishEvent(ctx context.Context, eventType, productID string, product *domain.Product) {
	if s.publisher == nil {
		return
	}

	event := ProductEvent{
		EventType: eventType,
		Timestamp: s.clock.Now(),
		ProductID: productID,
		Product:   product,
	}

	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Errorf(err, "Failed to marshal event for product %s", productID)
		return
	}

	if err := s.publisher.Publish(ctx, EventsSubject, data); err != nil {
		s.logger.Errorf(err, "Failed to publish %s event for product %s", eventType, productID)
	}
}
