package middleware

import (
	"net/http"
	"time"

	"github.com/Pesokrava/product_catalog/internal/pkg/metrics"
)

// Metrics returns a middleware that records request count and latency
// labelled by the matched route pattern.
func Metrics(m *metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := wrapWriter(w)

			next.ServeHTTP(rw, r)

			m.Observe(r.Method, routePattern(r), rw.statusCode, time.Since(start))
		})
	}
}
