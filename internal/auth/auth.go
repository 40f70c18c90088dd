package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey int

// ClaimsKey is where the authentication middleware stores verified claims
// in the request context.
const ClaimsKey ctxKey = 1

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Claims is the payload carried by every issued token. Subject holds the
// user id.
type Claims struct {
	jwt.RegisteredClaims
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

// Keys signs and verifies tokens with a single HS256 secret.
type Keys struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

func NewKeys(secret string, expiry time.Duration) (*Keys, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("jwt secret must be at least 32 characters, got %d", len(secret))
	}
	if expiry <= 0 {
		return nil, errors.New("jwt expiry must be positive")
	}
	return &Keys{secret: []byte(secret), expiry: expiry, now: time.Now}, nil
}

// GenerateToken issues a signed token for the user.
func (k *Keys) GenerateToken(userID, email string, isAdmin bool) (string, error) {
	now := k.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    "mephuongthitheo",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(k.expiry)),
		},
		Email:   email,
		IsAdmin: isAdmin,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(k.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// VerifyToken parses and validates a token, returning its claims. Expired,
// tampered and malformed tokens all come back as errors.
func (k *Keys) VerifyToken(tokenStr string) (Claims, error) {
	var claims Claims
	tok, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return k.secret, nil
	}, jwt.WithTimeFunc(k.now))
	if err != nil {
		return Claims{}, fmt.Errorf("parsing token: %w", err)
	}
	if !tok.Valid {
		return Claims{}, errors.New("invalid token")
	}
	return claims, nil
}

// ParseUser is the forgiving variant used outside the middleware: it returns
// nil on any failure instead of an error.
func (k *Keys) ParseUser(tokenStr string) *Claims {
	claims, err := k.VerifyToken(tokenStr)
	if err != nil {
		return nil
	}
	return &claims
}

// Role reports the role this token grants, for Authorize checks.
func (c Claims) Role() string {
	if c.IsAdmin {
		return RoleAdmin
	}
	return RoleUser
}
