package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"shiftledger/internal/apperr"
	"shiftledger/internal/pkg/jwt"
)

type contextKey string

const claimsContextKey contextKey = "claims"

// AuthMiddleware validates the bearer access token and attaches its claims
// to the request context. Unlike the teacher's original middleware, an
// invalid or missing token is always rejected — there is no stub-claims
// fallback.
func AuthMiddleware(codec *jwt.Codec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeAuthError(w, apperr.Authentication("missing authorization header"))
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				writeAuthError(w, apperr.Authentication("invalid authorization header"))
				return
			}

			claims, err := codec.Parse(parts[1], jwt.TypeAccess)
			if err != nil {
				writeAuthError(w, apperr.Authentication("invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeAuthError(w http.ResponseWriter, err *apperr.Error) {
	WriteError(w, err)
}

// Claims retrieves the authenticated request's token claims, or nil if
// the request was never passed through AuthMiddleware.
func Claims(r *http.Request) *jwt.Claims {
	claims, ok := r.Context().Value(claimsContextKey).(*jwt.Claims)
	if !ok {
		return nil
	}
	return claims
}

// UserID extracts the authenticated user's id from context.
func UserID(r *http.Request) (uuid.UUID, bool) {
	claims := Claims(r)
	if claims == nil {
		return uuid.UUID{}, false
	}
	id, err := claims.UserID()
	if err != nil {
		return uuid.UUID{}, false
	}
	return id, true
}

// CompanyID extracts the authenticated caller's company from context.
func CompanyID(r *http.Request) (uuid.UUID, bool) {
	claims := Claims(r)
	if claims == nil {
		return uuid.UUID{}, false
	}
	return claims.CompanyID, true
}

// Role extracts the authenticated caller's role from context.
func Role(r *http.Request) string {
	claims := Claims(r)
	if claims == nil {
		return ""
	}
	return claims.Role
}
