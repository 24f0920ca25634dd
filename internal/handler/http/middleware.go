package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/utafrali/ReviewsGo/pkg/logger"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

// shopKey is the context key for the resolved shop domain.
const shopKey contextKey = "shop"

// ShopFromRequest is middleware that resolves the tenant from the
// X-Shop-Domain header (injected by the storefront proxy after session
// validation), falling back to the shop query parameter. Requests without a
// shop are rejected with 400.
func ShopFromRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		shop := r.Header.Get("X-Shop-Domain")
		if shop == "" {
			shop = r.URL.Query().Get("shop")
		}
		if shop == "" {
			writeBadRequest(w, "shop is required")
			return
		}

		ctx := context.WithValue(r.Context(), shopKey, shop)
		ctx = logger.WithShop(ctx, shop)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// shopFromContext extracts the resolved shop domain from the request context.
func shopFromContext(ctx context.Context) (string, bool) {
	shop, ok := ctx.Value(shopKey).(string)
	return shop, ok && shop != ""
}

// ContentTypeJSON enforces that requests with a body have Content-Type: application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnsupportedMediaType)
				_, _ = w.Write([]byte(`{"error":{"code":"UNSUPPORTED_MEDIA_TYPE","message":"Content-Type must be application/json"}}`))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// CORS adds Cross-Origin Resource Sharing headers for the admin UI.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Correlation-ID, X-Shop-Domain")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
