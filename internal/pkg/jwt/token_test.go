package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func testCodec() *Codec {
	return NewCodec("access-secret", "refresh-secret", time.Minute, time.Hour, 24*time.Hour, "shiftledger-test")
}

func TestAccessTokenRoundTrip(t *testing.T) {
	c := testCodec()
	userID, companyID := uuid.New(), uuid.New()

	token, err := c.GenerateAccessToken(userID, companyID, "ADMIN")
	if err != nil {
		t.Fatalf("GenerateAccessToken returned error: %v", err)
	}
	claims, err := c.Parse(token, TypeAccess)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	gotUserID, err := claims.UserID()
	if err != nil {
		t.Fatalf("claims.UserID() returned error: %v", err)
	}
	if gotUserID != userID {
		t.Errorf("claims.UserID() = %v, want %v", gotUserID, userID)
	}
	if claims.CompanyID != companyID {
		t.Errorf("claims.CompanyID = %v, want %v", claims.CompanyID, companyID)
	}
	if claims.Role != "ADMIN" {
		t.Errorf("claims.Role = %q, want ADMIN", claims.Role)
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	c := testCodec()
	userID, companyID := uuid.New(), uuid.New()

	token, err := c.GenerateRefreshToken(userID, companyID)
	if err != nil {
		t.Fatalf("GenerateRefreshToken returned error: %v", err)
	}
	claims, err := c.Parse(token, TypeRefresh)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if claims.Type != TypeRefresh {
		t.Errorf("claims.Type = %q, want refresh", claims.Type)
	}
}

func TestPasswordSetupTokenRoundTrip(t *testing.T) {
	c := testCodec()
	userID := uuid.New()

	token, err := c.GeneratePasswordSetupToken(userID, "person@example.com")
	if err != nil {
		t.Fatalf("GeneratePasswordSetupToken returned error: %v", err)
	}
	claims, err := c.Parse(token, TypePasswordSetup)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if claims.Email != "person@example.com" {
		t.Errorf("claims.Email = %q, want person@example.com", claims.Email)
	}
}

// TestParseRejectsWrongType ensures an access token can't be replayed as a
// refresh token even though both are signed HS256 tokens.
func TestParseRejectsWrongType(t *testing.T) {
	c := testCodec()
	token, err := c.GenerateAccessToken(uuid.New(), uuid.New(), "ADMIN")
	if err != nil {
		t.Fatalf("GenerateAccessToken returned error: %v", err)
	}
	if _, err := c.Parse(token, TypeRefresh); err == nil {
		t.Errorf("Parse(accessToken, TypeRefresh) = nil error, want rejection")
	}
}

// TestParseRejectsExpired confirms an already-expired token is rejected
// rather than silently accepted.
func TestParseRejectsExpired(t *testing.T) {
	c := NewCodec("access-secret", "refresh-secret", -time.Minute, time.Hour, time.Hour, "shiftledger-test")
	token, err := c.GenerateAccessToken(uuid.New(), uuid.New(), "ADMIN")
	if err != nil {
		t.Fatalf("GenerateAccessToken returned error: %v", err)
	}
	if _, err := c.Parse(token, TypeAccess); err == nil {
		t.Errorf("Parse(expiredToken, TypeAccess) = nil error, want rejection")
	}
}

// TestParseRejectsCrossSecret confirms an access token signed by one codec
// is rejected by a codec configured with a different access secret.
func TestParseRejectsCrossSecret(t *testing.T) {
	c1 := testCodec()
	c2 := NewCodec("different-access-secret", "refresh-secret", time.Minute, time.Hour, 24*time.Hour, "shiftledger-test")

	token, err := c1.GenerateAccessToken(uuid.New(), uuid.New(), "ADMIN")
	if err != nil {
		t.Fatalf("GenerateAccessToken returned error: %v", err)
	}
	if _, err := c2.Parse(token, TypeAccess); err == nil {
		t.Errorf("Parse with mismatched secret = nil error, want rejection")
	}
}
