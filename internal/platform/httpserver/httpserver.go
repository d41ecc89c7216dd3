package httpserver

import (
	"net/http"
	"time"
)

// New builds the ops HTTP server. Handlers are small, so write and idle
// timeouts stay short.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
