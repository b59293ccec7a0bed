package middleware

import (
	"net/http"

	"shiftledger/internal/apperr"
	"shiftledger/internal/domain"
)

// PermissionLookup reports whether role has the named permission within
// companyID, falling back to the sentinel global-defaults row when no
// company-specific grant exists. ADMIN is never consulted — it is a
// static bypass, per §9.
type PermissionLookup func(role domain.Role, companyID string, permissionKey string) (bool, error)

// RequirePermission gates a route group behind a category.verb capability.
func RequirePermission(lookup PermissionLookup, permissionKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := domain.Role(Role(r))
			if role == domain.RoleAdmin {
				next.ServeHTTP(w, r)
				return
			}

			companyID, ok := CompanyID(r)
			if !ok {
				WriteError(w, apperr.Authentication("missing authenticated company"))
				return
			}

			granted, err := lookup(role, companyID.String(), permissionKey)
			if err != nil {
				WriteError(w, err)
				return
			}
			if !granted {
				WriteError(w, apperr.Authorization("missing required permission: "+permissionKey))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
