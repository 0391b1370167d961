// Package contract holds the behaviour every catalog store must share.
// Store packages run it from their tests against a fresh repository.
package contract

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/product_catalog/internal/domain"
)

// Factory returns an empty repository for one subtest
type Factory func(t *testing.T) domain.ProductRepository

var seedTime = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func seed(t *testing.T, repo domain.ProductRepository) {
	t.Helper()

	rating := 4
	products := []*domain.Product{
		{ID: "p-1", Name: "Widget", Category: "tools", Price: 9.99, Stock: 3, Reviews: []*domain.Review{
			{ID: "r-1", Rating: &rating, CreatedAt: seedTime},
		}, AverageRating: 4, TotalReviews: 1},
		{ID: "p-2", Name: "Gadget", Category: "tools", Price: 50, Stock: 0, Reviews: []*domain.Review{}},
		{ID: "p-3", Name: "widget mini", Category: "toys", Price: 20, Stock: 1, Reviews: []*domain.Review{}},
		{ID: "p-4", Name: "Spare_Part 100%", Category: "tools", Price: 5, Stock: 10, Reviews: []*domain.Review{}},
	}

	for _, p := range products {
		p.CreatedAt = seedTime
		p.UpdatedAt = seedTime
		_, err := repo.Save(context.Background(), p)
		require.NoError(t, err)
	}
}

func ids(products []*domain.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	sort.Strings(out)
	return out
}

// Run executes the shared store behaviour against repositories from newRepo
func Run(t *testing.T, newRepo Factory) {
	ctx := context.Background()

	t.Run("FindByID round trip", func(t *testing.T) {
		repo := newRepo(t)
		seed(t, repo)

		got, err := repo.FindByID(ctx, "p-1")
		require.NoError(t, err)
		assert.Equal(t, "Widget", got.Name)
		assert.Equal(t, 9.99, got.Price)
		assert.Equal(t, 1, got.TotalReviews)
		require.Len(t, got.Reviews, 1)
		assert.Equal(t, 4, *got.Reviews[0].Rating)
		assert.True(t, seedTime.Equal(got.CreatedAt))
	})

	t.Run("FindByID missing", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.FindByID(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Save overwrites by id", func(t *testing.T) {
		repo := newRepo(t)
		seed(t, repo)

		p, err := repo.FindByID(ctx, "p-2")
		require.NoError(t, err)
		p.Stock = 42

		_, err = repo.Save(ctx, p)
		require.NoError(t, err)

		got, err := repo.FindByID(ctx, "p-2")
		require.NoError(t, err)
		assert.Equal(t, 42, got.Stock)

		all, err := repo.FindAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 4)
	})

	t.Run("ExistsByName is exact", func(t *testing.T) {
		repo := newRepo(t)
		seed(t, repo)

		exists, err := repo.ExistsByName(ctx, "Widget")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsByName(ctx, "Widg")
		require.NoError(t, err)
		assert.False(t, exists)

		exists, err = repo.ExistsByName(ctx, "widget")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("FindByCategory", func(t *testing.T) {
		repo := newRepo(t)
		seed(t, repo)

		got, err := repo.FindByCategory(ctx, "tools")
		require.NoError(t, err)
		assert.Equal(t, []string{"p-1", "p-2", "p-4"}, ids(got))

		got, err = repo.FindByCategory(ctx, "garden")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("FindByNameContaining is case sensitive", func(t *testing.T) {
		repo := newRepo(t)
		seed(t, repo)

		got, err := repo.FindByNameContaining(ctx, "idget")
		require.NoError(t, err)
		assert.Equal(t, []string{"p-1", "p-3"}, ids(got))

		got, err = repo.FindByNameContaining(ctx, "Widget")
		require.NoError(t, err)
		assert.Equal(t, []string{"p-1"}, ids(got))
	})

	t.Run("FindByNameContaining treats wildcards literally", func(t *testing.T) {
		repo := newRepo(t)
		seed(t, repo)

		got, err := repo.FindByNameContaining(ctx, "_Part 100%")
		require.NoError(t, err)
		assert.Equal(t, []string{"p-4"}, ids(got))

		got, err = repo.FindByNameContaining(ctx, "%")
		require.NoError(t, err)
		assert.Equal(t, []string{"p-4"}, ids(got))
	})

	t.Run("FindByPriceBetween is inclusive", func(t *testing.T) {
		repo := newRepo(t)
		seed(t, repo)

		got, err := repo.FindByPriceBetween(ctx, 9.99, 50)
		require.NoError(t, err)
		assert.Equal(t, []string{"p-1", "p-2", "p-3"}, ids(got))

		got, err = repo.FindByPriceBetween(ctx, 100, 200)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("FindByCategoryAndPriceLessThan is strict", func(t *testing.T) {
		repo := newRepo(t)
		seed(t, repo)

		got, err := repo.FindByCategoryAndPriceLessThan(ctx, "tools", 50)
		require.NoError(t, err)
		assert.Equal(t, []string{"p-1", "p-4"}, ids(got))
	})

	t.Run("DeleteByID is idempotent", func(t *testing.T) {
		repo := newRepo(t)
		seed(t, repo)

		require.NoError(t, repo.DeleteByID(ctx, "p-1"))
		require.NoError(t, repo.DeleteByID(ctx, "p-1"))
		require.NoError(t, repo.DeleteByID(ctx, "never-existed"))

		_, err := repo.FindByID(ctx, "p-1")
		assert.ErrorIs(t, err, domain.ErrNotFound)

		exists, err := repo.ExistsByName(ctx, "Widget")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}
