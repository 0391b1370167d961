package product

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/product_catalog/internal/domain"
	"github.com/Pesokrava/product_catalog/internal/pkg/clock"
	"github.com/Pesokrava/product_catalog/internal/pkg/logger"
	"github.com/Pesokrava/product_catalog/internal/repository/memory"
)

func newTestService(repo *MockProductRepository, guard NameGuard, publisher EventPublisher) *Service {
	return NewService(repo, guard, publisher, clock.NewMockClock(fixedNow), logger.New("test"))
}

func TestService_Create_Success(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := newTestService(mockRepo, nil, nil)

	product := &domain.Product{
		Name:    "Widget",
		Price:   9.99,
		Stock:   10,
		Reviews: []*domain.Review{{Rating: intPtr(4)}, {Rating: intPtr(2)}},
	}

	mockRepo.On("ExistsByName", mock.Anything, "Widget").Return(false, nil)
	mockRepo.On("Save", mock.Anything, product).Return(product, nil)

	saved, err := service.Create(context.Background(), product)

	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, fixedNow, saved.CreatedAt)
	assert.Equal(t, fixedNow, saved.UpdatedAt)
	assert.InDelta(t, 3.0, saved.AverageRating, 1e-9)
	assert.Equal(t, 2, saved.TotalReviews)
	mockRepo.AssertExpectations(t)
}

func TestService_Create_DuplicateName(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := newTestService(mockRepo, nil, nil)

	mockRepo.On("ExistsByName", mock.Anything, "Widget").Return(true, nil)

	saved, err := service.Create(context.Background(), &domain.Product{Name: "Widget", Price: 1})

	assert.ErrorIs(t, err, domain.ErrDuplicateName)
	assert.Nil(t, saved)
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestService_Create_InvalidRatingPersistsNothing(t *testing.T) {
	mockRepo := new(MockProductRepository)
	publisher := new(MockEventPublisher)
	service := newTestService(mockRepo, nil, publisher)

	mockRepo.On("ExistsByName", mock.Anything, "Widget").Return(false, nil)

	product := &domain.Product{
		Name:    "Widget",
		Price:   1,
		Reviews: []*domain.Review{{Rating: intPtr(5)}, {Rating: intPtr(0)}},
	}

	_, err := service.Create(context.Background(), product)

	assert.ErrorIs(t, err, domain.ErrInvalidRating)
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Create_InvalidSupplierPersistsNothing(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := newTestService(mockRepo, nil, nil)

	mockRepo.On("ExistsByName", mock.Anything, "Widget").Return(false, nil)

	_, err := service.Create(context.Background(), &domain.Product{
		Name:     "Widget",
		Supplier: &domain.Supplier{Name: "Acme", ContactEmail: strPtr("not-an-email")},
	})

	assert.ErrorIs(t, err, domain.ErrInvalidSupplierEmail)
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestService_Create_RepositoryError(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := newTestService(mockRepo, nil, nil)
	storeErr := errors.New("index unavailable")

	mockRepo.On("ExistsByName", mock.Anything, "Widget").Return(false, nil)
	mockRepo.On("Save", mock.Anything, mock.Anything).Return(nil, storeErr)

	_, err := service.Create(context.Background(), &domain.Product{Name: "Widget", Price: 1})

	assert.Same(t, storeErr, err)
}

func TestService_Create_PublishesEvent(t *testing.T) {
	mockRepo := new(MockProductRepository)
	publisher := new(MockEventPublisher)
	service := newTestService(mockRepo, nil, publisher)

	product := &domain.Product{ID: "p-1", Name: "Widget", Price: 1}
	mockRepo.On("ExistsByName", mock.Anything, "Widget").Return(false, nil)
	mockRepo.On("Save", mock.Anything, product).Return(product, nil)

	var published ProductEvent
	publisher.On("Publish", mock.Anything, EventsSubject, mock.Anything).
		Run(func(args mock.Arguments) {
			require.NoError(t, json.Unmarshal(args.Get(2).([]byte), &published))
		}).
		Return(nil)

	_, err := service.Create(context.Background(), product)

	require.NoError(t, err)
	publisher.AssertExpectations(t)
	assert.Equal(t, EventProductCreated, published.EventType)
	assert.Equal(t, "p-1", published.ProductID)
	assert.Equal(t, fixedNow, published.Timestamp)
}

func TestService_Create_PublishFailureIsNotReturned(t *testing.T) {
	mockRepo := new(MockProductRepository)
	publisher := new(MockEventPublisher)
	service := newTestService(mockRepo, nil, publisher)

	product := &domain.Product{Name: "Widget", Price: 1}
	mockRepo.On("ExistsByName", mock.Anything, "Widget").Return(false, nil)
	mockRepo.On("Save", mock.Anything, product).Return(product, nil)
	publisher.On("Publish", mock.Anything, EventsSubject, mock.Anything).Return(errors.New("nats down"))

	_, err := service.Create(context.Background(), product)

	assert.NoError(t, err)
	publisher.AssertExpectations(t)
}

func TestService_Create_NameGuardClaimed(t *testing.T) {
	mockRepo := new(MockProductRepository)
	guard := new(MockNameGuard)
	service := newTestService(mockRepo, guard, nil)

	product := &domain.Product{Name: "Widget", Price: 1}
	guard.On("Claim", mock.Anything, "Widget").Return("tok-1", true, nil)
	guard.On("Release", mock.Anything, "Widget", "tok-1").Return(nil)
	mockRepo.On("ExistsByName", mock.Anything, "Widget").Return(false, nil)
	mockRepo.On("Save", mock.Anything, product).Return(product, nil)

	_, err := service.Create(context.Background(), product)

	require.NoError(t, err)
	guard.AssertExpectations(t)
	mockRepo.AssertExpectations(t)
}

func TestService_Create_NameGuardHeldElsewhere(t *testing.T) {
	mockRepo := new(MockProductRepository)
	guard := new(MockNameGuard)
	service := newTestService(mockRepo, guard, nil)

	guard.On("Claim", mock.Anything, "Widget").Return("", false, nil)

	_, err := service.Create(context.Background(), &domain.Product{Name: "Widget", Price: 1})

	assert.ErrorIs(t, err, domain.ErrDuplicateName)
	guard.AssertNotCalled(t, "Release", mock.Anything, mock.Anything, mock.Anything)
	mockRepo.AssertNotCalled(t, "ExistsByName", mock.Anything, mock.Anything)
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestService_Create_NameGuardErrorFallsBackToStore(t *testing.T) {
	mockRepo := new(MockProductRepository)
	guard := new(MockNameGuard)
	service := newTestService(mockRepo, guard, nil)

	product := &domain.Product{Name: "Widget", Price: 1}
	guard.On("Claim", mock.Anything, "Widget").Return("", false, errors.New("redis timeout"))
	mockRepo.On("ExistsByName", mock.Anything, "Widget").Return(false, nil)
	mockRepo.On("Save", mock.Anything, product).Return(product, nil)

	_, err := service.Create(context.Background(), product)

	require.NoError(t, err)
	guard.AssertNotCalled(t, "Release", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Create_ReleasesGuardOnValidationFailure(t *testing.T) {
	mockRepo := new(MockProductRepository)
	guard := new(MockNameGuard)
	service := newTestService(mockRepo, guard, nil)

	guard.On("Claim", mock.Anything, "Widget").Return("tok-1", true, nil)
	guard.On("Release", mock.Anything, "Widget", "tok-1").Return(nil)
	mockRepo.On("ExistsByName", mock.Anything, "Widget").Return(false, nil)

	_, err := service.Create(context.Background(), &domain.Product{
		Name:     "Widget",
		Supplier: &domain.Supplier{Name: "Acme", Rating: floatPtr(7)},
	})

	assert.ErrorIs(t, err, domain.ErrInvalidSupplierRating)
	guard.AssertExpectations(t)
}

func TestService_GetByID_Success(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := newTestService(mockRepo, nil, nil)

	expected := &domain.Product{ID: "p-1", Name: "Widget"}
	mockRepo.On("FindByID", mock.Anything, "p-1").Return(expected, nil)

	product, err := service.GetByID(context.Background(), "p-1")

	assert.NoError(t, err)
	assert.Equal(t, expected, product)
	mockRepo.AssertExpectations(t)
}

func TestService_GetByID_NotFound(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := newTestService(mockRepo, nil, nil)

	mockRepo.On("FindByID", mock.Anything, "missing").Return(nil, domain.ErrNotFound)

	product, err := service.GetByID(context.Background(), "missing")

	assert.Equal(t, domain.ErrNotFound, err)
	assert.Nil(t, product)
}

func TestService_Queries_Delegate(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := newTestService(mockRepo, nil, nil)
	ctx := context.Background()

	all := []*domain.Product{{ID: "1"}, {ID: "2"}}
	byName := []*domain.Product{{ID: "3"}}
	byCategory := []*domain.Product{{ID: "4"}}
	byRange := []*domain.Product{{ID: "5"}}
	byCategoryPrice := []*domain.Product{{ID: "6"}}

	mockRepo.On("FindAll", mock.Anything).Return(all, nil)
	mockRepo.On("FindByNameContaining", mock.Anything, "Wid").Return(byName, nil)
	mockRepo.On("FindByCategory", mock.Anything, "tools").Return(byCategory, nil)
	mockRepo.On("FindByPriceBetween", mock.Anything, 5.0, 10.0).Return(byRange, nil)
	mockRepo.On("FindByCategoryAndPriceLessThan", mock.Anything, "tools", 20.0).Return(byCategoryPrice, nil)

	got, err := service.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, all, got)

	got, err = service.Search(ctx, "Wid")
	require.NoError(t, err)
	assert.Equal(t, byName, got)

	got, err = service.ByCategory(ctx, "tools")
	require.NoError(t, err)
	assert.Equal(t, byCategory, got)

	got, err = service.ByPriceRange(ctx, 5, 10)
	require.NoError(t, err)
	assert.Equal(t, byRange, got)

	got, err = service.ByCategoryAndMaxPrice(ctx, "tools", 20)
	require.NoError(t, err)
	assert.Equal(t, byCategoryPrice, got)

	mockRepo.AssertExpectations(t)
}

func TestService_Queries_PassStoreErrorsThrough(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := newTestService(mockRepo, nil, nil)
	storeErr := errors.New("search_phase_execution_exception")

	mockRepo.On("FindAll", mock.Anything).Return(nil, storeErr)
	mockRepo.On("FindByCategory", mock.Anything, "tools").Return(nil, storeErr)

	_, err := service.GetAll(context.Background())
	assert.Same(t, storeErr, err)

	_, err = service.ByCategory(context.Background(), "tools")
	assert.Same(t, storeErr, err)
}

func TestService_Update_Success(t *testing.T) {
	mockRepo := new(MockProductRepository)
	publisher := new(MockEventPublisher)
	service := newTestService(mockRepo, nil, publisher)

	existing := &domain.Product{
		ID:            "p-1",
		Name:          "Widget",
		Price:         9.99,
		Reviews:       []*domain.Review{{ID: "r-1", Rating: intPtr(4)}},
		AverageRating: 4,
		TotalReviews:  1,
	}
	details := &domain.Product{Name: "Widget Pro", Price: 19.99, Stock: 5, Category: "tools"}

	mockRepo.On("FindByID", mock.Anything, "p-1").Return(existing, nil)
	mockRepo.On("Save", mock.Anything, existing).Return(existing, nil)
	publisher.On("Publish", mock.Anything, EventsSubject, mock.Anything).Return(nil)

	updated, err := service.Update(context.Background(), "p-1", details)

	require.NoError(t, err)
	assert.Equal(t, "p-1", updated.ID)
	assert.Equal(t, "Widget Pro", updated.Name)
	assert.Equal(t, 19.99, updated.Price)
	assert.Equal(t, 4.0, updated.AverageRating)
	assert.Len(t, updated.Reviews, 1)
	mockRepo.AssertNotCalled(t, "ExistsByName", mock.Anything, mock.Anything)
	mockRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestService_Update_NotFound(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := newTestService(mockRepo, nil, nil)

	mockRepo.On("FindByID", mock.Anything, "missing").Return(nil, domain.ErrNotFound)

	_, err := service.Update(context.Background(), "missing", &domain.Product{Name: "x"})

	assert.ErrorIs(t, err, domain.ErrNotFound)
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestService_Delete(t *testing.T) {
	mockRepo := new(MockProductRepository)
	publisher := new(MockEventPublisher)
	service := newTestService(mockRepo, nil, publisher)

	mockRepo.On("DeleteByID", mock.Anything, "missing").Return(nil)
	publisher.On("Publish", mock.Anything, EventsSubject, mock.Anything).Return(nil)

	err := service.Delete(context.Background(), "missing")

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestService_Delete_RepositoryError(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := newTestService(mockRepo, nil, nil)
	storeErr := errors.New("timeout")

	mockRepo.On("DeleteByID", mock.Anything, "p-1").Return(storeErr)

	assert.Same(t, storeErr, service.Delete(context.Background(), "p-1"))
}

func TestService_NilInput(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := newTestService(mockRepo, nil, nil)

	_, err := service.Create(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = service.Update(context.Background(), "p-1", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	mockRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestService_Update_KeepsTimestamps(t *testing.T) {
	clk := clock.NewMockClock(fixedNow)
	service := NewService(memory.NewProductRepository(), nil, nil, clk, logger.New("test"))
	ctx := context.Background()

	created, err := service.Create(ctx, &domain.Product{Name: "Widget", Price: 9.99, Stock: 1})
	require.NoError(t, err)

	clk.Advance(time.Hour)
	_, err = service.Update(ctx, created.ID, &domain.Product{Name: "Widget Pro", Price: 12.5, Stock: 2})
	require.NoError(t, err)

	stored, err := service.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Widget Pro", stored.Name)
	assert.Equal(t, fixedNow, stored.CreatedAt)
	assert.Equal(t, fixedNow, stored.UpdatedAt)
	assert.NotNil(t, stored.Reviews)
	assert.Empty(t, stored.Reviews)
}
