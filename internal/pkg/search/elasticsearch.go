package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"

	"github.com/Pesokrava/product_catalog/internal/config"
	"github.com/Pesokrava/product_catalog/internal/pkg/retry"
)

// productMapping is the index mapping for catalog product documents
var productMapping = map[string]interface{}{
	"mappings": map[string]interface{}{
		"properties": map[string]interface{}{
			"id": map[string]interface{}{"type": "keyword"},
			"name": map[string]interface{}{
				"type":     "text",
				"analyzer": "standard",
				"fields": map[string]interface{}{
					"keyword": map[string]interface{}{"type": "keyword"},
				},
			},
			"description":    map[string]interface{}{"type": "text"},
			"price":          map[string]interface{}{"type": "double"},
			"category":       map[string]interface{}{"type": "keyword"},
			"stock":          map[string]interface{}{"type": "integer"},
			"brand":          map[string]interface{}{"type": "keyword"},
			"created_at":     map[string]interface{}{"type": "date"},
			"updated_at":     map[string]interface{}{"type": "date"},
			"average_rating": map[string]interface{}{"type": "double"},
			"total_reviews":  map[string]interface{}{"type": "integer"},
			"reviews": map[string]interface{}{
				"type": "nested",
				"properties": map[string]interface{}{
					"id":                   map[string]interface{}{"type": "keyword"},
					"user_id":              map[string]interface{}{"type": "keyword"},
					"user_name":            map[string]interface{}{"type": "keyword"},
					"rating":               map[string]interface{}{"type": "integer"},
					"title":                map[string]interface{}{"type": "text"},
					"comment":              map[string]interface{}{"type": "text"},
					"created_at":           map[string]interface{}{"type": "date"},
					"is_verified_purchase": map[string]interface{}{"type": "boolean"},
				},
			},
			"supplier": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id":            map[string]interface{}{"type": "keyword"},
					"name":          map[string]interface{}{"type": "keyword"},
					"contact_email": map[string]interface{}{"type": "keyword"},
					"contact_phone": map[string]interface{}{"type": "keyword"},
					"country":       map[string]interface{}{"type": "keyword"},
					"rating":        map[string]interface{}{"type": "double"},
					"is_active":     map[string]interface{}{"type": "boolean"},
				},
			},
		},
	},
}

// NewElasticsearchClient creates a new Elasticsearch client and verifies the cluster answers.
// transport may be nil to use the default HTTP transport.
func NewElasticsearchClient(cfg *config.Config, transport http.RoundTripper) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Elasticsearch.Addresses,
		Username:  cfg.Elasticsearch.Username,
		Password:  cfg.Elasticsearch.Password,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("failed to connect to Elasticsearch: %s", res.Status())
	}

	return client, nil
}

// WaitForElasticsearch retries NewElasticsearchClient until the cluster answers
func WaitForElasticsearch(cfg *config.Config, maxRetries int, retryDelay time.Duration) (*elasticsearch.Client, error) {
	return retry.Connect("Elasticsearch", maxRetries, retryDelay, func() (*elasticsearch.Client, error) {
		return NewElasticsearchClient(cfg, nil)
	})
}

// EnsureIndex creates the product index with its mapping when it does not exist.
// It reports whether the index was created.
func EnsureIndex(ctx context.Context, client *elasticsearch.Client, index string) (bool, error) {
	res, err := client.Indices.Exists([]string{index}, client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("failed to check index %s: %w", index, err)
	}
	res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return false, nil
	case http.StatusNotFound:
	default:
		return false, fmt.Errorf("failed to check index %s: %s", index, res.Status())
	}

	res, err = client.Indices.Create(
		index,
		client.Indices.Create.WithBody(esutil.NewJSONReader(productMapping)),
		client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return false, fmt.Errorf("failed to create index %s: %w", index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return false, fmt.Errorf("failed to create index %s: %s: %s", index, res.Status(), body)
	}

	return true, nil
}
