// Package jwt is the access/refresh/password-setup token codec. It
// generalizes the teacher's single-purpose TokenService (access tokens
// only, jwt/v5) with the claim shape and expiry-configuration pattern of
// the teacher's jwt/v4-based JWTManager, consolidated onto jwt/v5 so only
// one JWT major version is a dependency.
package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenType string

const (
	TypeAccess        TokenType = "access"
	TypeRefresh       TokenType = "refresh"
	TypePasswordSetup TokenType = "password_setup"
)

// Claims is the payload shared by all three token kinds; fields unused by
// a given kind are left zero.
type Claims struct {
	CompanyID uuid.UUID `json:"company_id,omitempty"`
	Role      string    `json:"role,omitempty"`
	Email     string    `json:"email,omitempty"`
	Type      TokenType `json:"type"`
	jwt.RegisteredClaims
}

type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	setupExpiry   time.Duration
	issuer        string
}

func NewCodec(accessSecret, refreshSecret string, accessExpiry, refreshExpiry, setupExpiry time.Duration, issuer string) *Codec {
	return &Codec{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
		setupExpiry:   setupExpiry,
		issuer:        issuer,
	}
}

func (c *Codec) secretFor(t TokenType) []byte {
	if t == TypeAccess {
		return c.accessSecret
	}
	return c.refreshSecret
}

func (c *Codec) sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secretFor(claims.Type))
}

// GenerateAccessToken mints a short-TTL access token: sub=user_id,
// company_id, role, type=access.
func (c *Codec) GenerateAccessToken(userID, companyID uuid.UUID, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		CompanyID: companyID,
		Role:      role,
		Type:      TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.accessExpiry)),
		},
	}
	return c.sign(claims)
}

// GenerateRefreshToken mints a long-TTL refresh token carrying the same
// subject/company as the access token.
func (c *Codec) GenerateRefreshToken(userID, companyID uuid.UUID) (string, error) {
	now := time.Now()
	claims := Claims{
		CompanyID: companyID,
		Type:      TypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.refreshExpiry)),
		},
	}
	return c.sign(claims)
}

// GeneratePasswordSetupToken mints an invitation-redemption token: sub and
// email, type=password_setup, 7-day default TTL.
func (c *Codec) GeneratePasswordSetupToken(userID uuid.UUID, email string) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: email,
		Type:  TypePasswordSetup,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.setupExpiry)),
		},
	}
	return c.sign(claims)
}

// Parse validates tokenString against the secret for expectedType and
// confirms the claim's own type field matches.
func (c *Codec) Parse(tokenString string, expectedType TokenType) (*Claims, error) {
	secret := c.secretFor(expectedType)
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("jwt: unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("jwt: invalid token")
	}
	if claims.Type != expectedType {
		return nil, errors.New("jwt: unexpected token type")
	}
	return claims, nil
}

func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}
