package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"shiftledger/internal/domain"
	"shiftledger/internal/pkg/jwt"
)

func requestWithClaims(role string, companyID uuid.UUID, userID uuid.UUID) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	claims := &jwt.Claims{CompanyID: companyID, Role: role, Type: jwt.TypeAccess}
	claims.Subject = userID.String()
	ctx := context.WithValue(req.Context(), claimsContextKey, claims)
	return req.WithContext(ctx)
}

func TestRequirePermissionBypassesAdmin(t *testing.T) {
	lookup := PermissionLookup(func(role domain.Role, companyID, key string) (bool, error) {
		t.Fatalf("lookup must not be consulted for ADMIN")
		return false, nil
	})
	handler := RequirePermission(lookup, "payroll.generate")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithClaims("ADMIN", uuid.New(), uuid.New()))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestRequirePermissionGrantedAndDenied(t *testing.T) {
	companyID := uuid.New()
	lookup := PermissionLookup(func(role domain.Role, gotCompanyID, key string) (bool, error) {
		if role != domain.RoleFrontdesk {
			t.Errorf("role = %v, want FRONTDESK", role)
		}
		if gotCompanyID != companyID.String() {
			t.Errorf("companyID = %q, want %q", gotCompanyID, companyID.String())
		}
		return key == "time_entries.punch", nil
	})

	handler := RequirePermission(lookup, "time_entries.punch")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithClaims("FRONTDESK", companyID, uuid.New()))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 for granted permission", rec.Code)
	}

	denyHandler := RequirePermission(lookup, "payroll.generate")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler must not run when permission is denied")
	}))
	rec = httptest.NewRecorder()
	denyHandler.ServeHTTP(rec, requestWithClaims("FRONTDESK", companyID, uuid.New()))
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403 for denied permission", rec.Code)
	}
}

func TestRequireVerifiedBlocksUnverifiedUser(t *testing.T) {
	lookup := VerifiedUserLookup(func(r *http.Request, userID string) (bool, string, error) {
		return true, "person@example.com", nil
	})
	handler := RequireVerified(lookup)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler must not run while verification is required")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithClaims("FRONTDESK", uuid.New(), uuid.New()))
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestRequireVerifiedAllowsVerifiedUser(t *testing.T) {
	lookup := VerifiedUserLookup(func(r *http.Request, userID string) (bool, string, error) {
		return false, "", nil
	})
	handler := RequireVerified(lookup)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithClaims("FRONTDESK", uuid.New(), uuid.New()))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
