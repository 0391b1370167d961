package elasticsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/elastic/go-elasticsearch/v8/esutil"

	"github.com/Pesokrava/product_catalog/internal/domain"
)

// ProductRepository implements domain.ProductRepository on an Elasticsearch index
type ProductRepository struct {
	client   *elasticsearch.Client
	index    string
	pageSize int
}

// NewProductRepository creates a new Elasticsearch product repository.
// Finders fetch pageSize documents per request and keep paging until the
// result set is exhausted.
func NewProductRepository(client *elasticsearch.Client, index string, pageSize int) *ProductRepository {
	return &ProductRepository{
		client:   client,
		index:    index,
		pageSize: pageSize,
	}
}

type getResponse struct {
	Found  bool            `json:"found"`
	Source *domain.Product `json:"_source"`
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string          `json:"_id"`
			Source *domain.Product `json:"_source"`
			Sort   []interface{}   `json:"sort"`
		} `json:"hits"`
	} `json:"hits"`
}

type countResponse struct {
	Count int `json:"count"`
}

// FindAll returns every product in the index
func (r *ProductRepository) FindAll(ctx context.Context) ([]*domain.Product, error) {
	return r.search(ctx, map[string]interface{}{
		"match_all": map[string]interface{}{},
	})
}

// FindByID retrieves a product by ID
func (r *ProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	res, err := r.client.Get(r.index, id, r.client.Get.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, domain.ErrNotFound
	}
	if res.IsError() {
		return nil, responseError("get", res)
	}

	var doc getResponse
	if err := json.NewDecoder(res.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode get response: %w", err)
	}
	if !doc.Found || doc.Source == nil {
		return nil, domain.ErrNotFound
	}

	return doc.Source, nil
}

// Save indexes a product under its ID and waits until it is searchable
func (r *ProductRepository) Save(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	res, err := r.client.Index(
		r.index,
		esutil.NewJSONReader(product),
		r.client.Index.WithDocumentID(product.ID),
		r.client.Index.WithRefresh("wait_for"),
		r.client.Index.WithContext(ctx),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, responseError("index", res)
	}

	return product, nil
}

// DeleteByID removes a product; a missing document is not an error
func (r *ProductRepository) DeleteByID(ctx context.Context, id string) error {
	res, err := r.client.Delete(
		r.index,
		id,
		r.client.Delete.WithRefresh("wait_for"),
		r.client.Delete.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.IsError() {
		return responseError("delete", res)
	}

	return nil
}

// ExistsByName reports whether a product has exactly this name
func (r *ProductRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{
				"name.keyword": name,
			},
		},
	}

	res, err := r.client.Count(
		r.client.Count.WithIndex(r.index),
		r.client.Count.WithBody(esutil.NewJSONReader(body)),
		r.client.Count.WithContext(ctx),
	)
	if err != nil {
		return false, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return false, responseError("count", res)
	}

	var count countResponse
	if err := json.NewDecoder(res.Body).Decode(&count); err != nil {
		return false, fmt.Errorf("failed to decode count response: %w", err)
	}

	return count.Count > 0, nil
}

// FindByCategory returns products in the category
func (r *ProductRepository) FindByCategory(ctx context.Context, category string) ([]*domain.Product, error) {
	return r.search(ctx, map[string]interface{}{
		"term": map[string]interface{}{
			"category": category,
		},
	})
}

// FindByNameContaining returns products whose name contains name (case-sensitive)
func (r *ProductRepository) FindByNameContaining(ctx context.Context, name string) ([]*domain.Product, error) {
	return r.search(ctx, map[string]interface{}{
		"wildcard": map[string]interface{}{
			"name.keyword": map[string]interface{}{
				"value": "*" + escapeWildcard(name) + "*",
			},
		},
	})
}

// FindByPriceBetween returns products priced within [minPrice, maxPrice]
func (r *ProductRepository) FindByPriceBetween(ctx context.Context, minPrice, maxPrice float64) ([]*domain.Product, error) {
	return r.search(ctx, map[string]interface{}{
		"range": map[string]interface{}{
			"price": map[string]interface{}{
				"gte": minPrice,
				"lte": maxPrice,
			},
		},
	})
}

// FindByCategoryAndPriceLessThan returns products in category priced below maxPrice
func (r *ProductRepository) FindByCategoryAndPriceLessThan(ctx context.Context, category string, maxPrice float64) ([]*domain.Product, error) {
	return r.search(ctx, map[string]interface{}{
		"bool": map[string]interface{}{
			"filter": []interface{}{
				map[string]interface{}{
					"term": map[string]interface{}{"category": category},
				},
				map[string]interface{}{
					"range": map[string]interface{}{
						"price": map[string]interface{}{"lt": maxPrice},
					},
				},
			},
		},
	})
}

// search pages through every hit of query, ordered by product id, using
// search_after on the last hit's sort values.
func (r *ProductRepository) search(ctx context.Context, query map[string]interface{}) ([]*domain.Product, error) {
	products := make([]*domain.Product, 0)
	var after []interface{}

	for {
		body := map[string]interface{}{
			"query": query,
			"size":  r.pageSize,
			"sort":  []interface{}{map[string]interface{}{"id": "asc"}},
		}
		if after != nil {
			body["search_after"] = after
		}

		result, err := r.searchPage(ctx, body)
		if err != nil {
			return nil, err
		}

		hits := result.Hits.Hits
		for _, hit := range hits {
			if hit.Source == nil {
				continue
			}
			if hit.Source.ID == "" {
				hit.Source.ID = hit.ID
			}
			products = append(products, hit.Source)
		}

		if len(hits) < r.pageSize || len(hits[len(hits)-1].Sort) == 0 {
			return products, nil
		}
		after = hits[len(hits)-1].Sort
	}
}

func (r *ProductRepository) searchPage(ctx context.Context, body map[string]interface{}) (*searchResponse, error) {
	res, err := r.client.Search(
		r.client.Search.WithIndex(r.index),
		r.client.Search.WithBody(esutil.NewJSONReader(body)),
		r.client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, responseError("search", res)
	}

	var result searchResponse
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	return &result, nil
}

func responseError(op string, res *esapi.Response) error {
	body, _ := io.ReadAll(res.Body)
	return fmt.Errorf("elasticsearch %s failed: %s: %s", op, res.Status(), strings.TrimSpace(string(body)))
}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

func escapeWildcard(s string) string {
	return wildcardEscaper.Replace(s)
}
