// Package api implements the read-only vault HTTP API using chi.
package api

import (
	"net/http"
)

// NoSniff sets X-Content-Type-Options so browsers honour the Content-Type
// chosen from the file extension.
func NoSniff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		next.ServeHTTP(w, r)
	})
}
