package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims defines the custom claims carried by an admin session token.
// We embed jwt.RegisteredClaims to include standard claims like 'ExpiresAt'.
// The admin's identity travels in the token so admin routes never need a
// database lookup just to know who is calling.
type SessionClaims struct {
	AdminID int64  `json:"adminID"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// SessionDuration is how long an admin stays signed in before the cookie
// token expires.
const SessionDuration = 24 * time.Hour

// GenerateSessionToken creates a new signed JWT string for an admin session.
func GenerateSessionToken(adminID int64, email, name, role, secret string) (string, error) {
	claims := &SessionClaims{
		AdminID: adminID,
		Email:   email,
		Name:    name,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(SessionDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	// HS256 (HMAC using SHA-256) with a shared server secret. The signature
	// ensures the cookie cannot be tampered with by the client.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateSessionToken parses and validates a session token string, checking
// the signature and the standard expiry claim. If valid, it returns the
// session claims.
func ValidateSessionToken(tokenString string, secret string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Security check: ensure the token's signing method is what we expect.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		// Covers malformed tokens, bad signatures and jwt.ErrTokenExpired.
		return nil, err
	}

	if claims, ok := token.Claims.(*SessionClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
