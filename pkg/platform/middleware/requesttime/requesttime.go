// Package requesttime pins a single "now" per HTTP request so grant issuance,
// expiry checks and audit timestamps within one call agree with each other.
package requesttime

import (
	"net/http"
	"time"

	"didgate/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request.
// Services read it back through requestcontext.Now.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
