package middleware

import (
	"net/http"

	"shiftledger/internal/apperr"
)

// VerifiedUserLookup resolves the verification-required flag for a user id
// without coupling this middleware to the repository layer.
type VerifiedUserLookup func(r *http.Request, userID string) (required bool, email string, err error)

// RequireVerified gates protected actions behind the 30-day email
// verification window (§4.6). It re-checks on every request rather than
// trusting the access token, since verification can lapse mid-session.
func RequireVerified(lookup VerifiedUserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserID(r)
			if !ok {
				WriteError(w, apperr.Authentication("missing authenticated user"))
				return
			}

			required, email, err := lookup(r, userID.String())
			if err != nil {
				WriteError(w, err)
				return
			}
			if required {
				WriteError(w, apperr.VerificationRequired(email))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
