package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"shiftledger/internal/pkg/jwt"
)

func testCodec() *jwt.Codec {
	return jwt.NewCodec("access-secret", "refresh-secret", time.Minute, time.Hour, 24*time.Hour, "shiftledger-test")
}

func TestAuthMiddlewareRejectsMissingHeader(t *testing.T) {
	handler := AuthMiddleware(testCodec())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler must not run without a bearer token")
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuthMiddlewareRejectsMalformedHeader(t *testing.T) {
	handler := AuthMiddleware(testCodec())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler must not run for a malformed header")
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Token abc123")
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuthMiddlewareAttachesClaims(t *testing.T) {
	codec := testCodec()
	userID, companyID := uuid.New(), uuid.New()
	token, err := codec.GenerateAccessToken(userID, companyID, "ADMIN")
	if err != nil {
		t.Fatalf("GenerateAccessToken returned error: %v", err)
	}

	var gotUserID, gotCompanyID uuid.UUID
	var gotRole string
	handler := AuthMiddleware(codec)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = UserID(r)
		gotCompanyID, _ = CompanyID(r)
		gotRole = Role(r)
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotUserID != userID {
		t.Errorf("UserID() = %v, want %v", gotUserID, userID)
	}
	if gotCompanyID != companyID {
		t.Errorf("CompanyID() = %v, want %v", gotCompanyID, companyID)
	}
	if gotRole != "ADMIN" {
		t.Errorf("Role() = %q, want ADMIN", gotRole)
	}
}

func TestAuthMiddlewareRejectsRefreshTokenAsAccess(t *testing.T) {
	codec := testCodec()
	token, err := codec.GenerateRefreshToken(uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("GenerateRefreshToken returned error: %v", err)
	}

	handler := AuthMiddleware(codec)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler must not run for a refresh token presented as access")
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestClaimsNilWithoutMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if Claims(req) != nil {
		t.Errorf("Claims() on a bare request = non-nil, want nil")
	}
	if _, ok := UserID(req); ok {
		t.Errorf("UserID() on a bare request = ok, want not-ok")
	}
}
