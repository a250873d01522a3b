// Package recovery converts handler panics into 500 responses so one bad
// request cannot take down the shared HTTP server.
package recovery

import (
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog"

	"github.com/peerpractice/server/internal/api/respond"
)

// Middleware returns a router middleware that logs panics from downstream
// handlers and answers with the standard error shape.
func Middleware(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error().
						Interface("panic", rec).
						Str("method", r.Method).
						Str("path", r.URL.Path).
						Str("remote", r.RemoteAddr).
						Bytes("stack", debug.Stack()).
						Msg("handler panicked")
					respond.WriteInternalError(w, "unexpected server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
