// Package requestid propagates a request id from the X-Request-ID header,
// generating one when the caller sent none.
package requestid

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"intake/pkg/requestcontext"
)

const Header = "X-Request-ID"

// maxLength bounds ids accepted from callers.
const maxLength = 128

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(Header))
		if id == "" || len(id) > maxLength {
			id = uuid.NewString()
		}
		w.Header().Set(Header, id)
		ctx := requestcontext.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
