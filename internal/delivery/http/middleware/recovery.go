package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Pesokrava/product_catalog/internal/delivery/http/response"
	"github.com/Pesokrava/product_catalog/internal/pkg/logger"
)

// Recovery turns a panicking handler into a 500 and logs the stack.
// http.ErrAbortHandler is re-raised so net/http can drop the connection.
func Recovery(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				fields := map[string]interface{}{
					"method": r.Method,
					"route":  routePattern(r),
					"stack":  string(debug.Stack()),
				}
				if reqID := chimiddleware.GetReqID(r.Context()); reqID != "" {
					fields["request_id"] = reqID
				}
				log.WithFields(fields).Error("Recovered from handler panic", fmt.Errorf("panic: %v", rec))

				response.Error(w, http.StatusInternalServerError, "Internal server error")
			}()

			next.ServeHTTP(w, r)
		})
	}
}
