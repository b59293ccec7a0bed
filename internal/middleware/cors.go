package middleware

import (
	"net/http"
	"strings"
)

// CORSMiddleware builds the CORS handler for the given allowed origin
// (company deployments front this API from their own configured web
// origin rather than a hardcoded one; "*" remains the permissive default
// for local/kiosk-only deployments).
func CORSMiddleware(allowedOrigin string) func(http.Handler) http.Handler {
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := allowedOrigin
			if origin != "*" {
				// Support a comma-separated allowlist without pulling in a
				// full CORS library: echo back the request's Origin only if
				// it matches one of the configured entries.
				origin = ""
				requestOrigin := r.Header.Get("Origin")
				for _, allowed := range strings.Split(allowedOrigin, ",") {
					if strings.TrimSpace(allowed) == requestOrigin {
						origin = requestOrigin
						break
					}
				}
			}
			if origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Credentials", "true")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
