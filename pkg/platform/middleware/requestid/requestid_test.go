package requestid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intake/pkg/requestcontext"
)

func serve(t *testing.T, header string) (string, *httptest.ResponseRecorder) {
	t.Helper()
	var got string
	h := Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = requestcontext.RequestID(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(Header, header)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return got, rec
}

func TestMiddleware(t *testing.T) {
	t.Run("keeps caller id", func(t *testing.T) {
		got, rec := serve(t, "req-42")
		assert.Equal(t, "req-42", got)
		assert.Equal(t, "req-42", rec.Header().Get(Header))
	})

	t.Run("generates id when missing", func(t *testing.T) {
		got, rec := serve(t, "")
		_, err := uuid.Parse(got)
		require.NoError(t, err)
		assert.Equal(t, got, rec.Header().Get(Header))
	})

	t.Run("replaces oversized id", func(t *testing.T) {
		got, _ := serve(t, strings.Repeat("x", 500))
		assert.Len(t, got, 36)
	})
}
