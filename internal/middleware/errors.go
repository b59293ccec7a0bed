package middleware

import (
	"encoding/json"
	"log"
	"net/http"

	"shiftledger/internal/apperr"
)

type errorBody struct {
	Detail string            `json:"detail"`
	Errors map[string]string `json:"errors,omitempty"`
	Email  string            `json:"email,omitempty"`
}

// WriteError maps a typed apperr.Error (or any other error) to an HTTP
// status and a {detail}/{detail, errors} JSON body, the middleware layer
// DESIGN NOTES calls for in place of decorator-style per-endpoint handling.
func WriteError(w http.ResponseWriter, err error) {
	appErr, ok := apperr.As(err)
	if !ok {
		log.Printf("unhandled error: %v", err)
		appErr = apperr.Internal("an unexpected error occurred", err)
	}

	status := statusFor(appErr.Kind)
	if appErr.Kind == apperr.KindInternal {
		log.Printf("internal error: %v", appErr)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorBody{
		Detail: appErr.Message,
		Errors: appErr.Fields,
		Email:  appErr.Email,
	})
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusUnprocessableEntity
	case apperr.KindAuthentication:
		return http.StatusUnauthorized
	case apperr.KindAuthorization:
		return http.StatusForbidden
	case apperr.KindVerificationRequired:
		return http.StatusForbidden
	case apperr.KindPolicy:
		return http.StatusBadRequest
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
