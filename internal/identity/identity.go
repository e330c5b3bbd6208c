// Package identity adapts the external identity context.
//
// docbridge does not register or authenticate users. It verifies tokens
// the identity context issued, extracts the (userID, role) pair every
// operation needs, and resolves user ids to display names through a
// Directory when composing read models.
package identity

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles known to docbridge.
const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
)

// Claims is the token payload docbridge consumes.
type Claims struct {
	UserID string `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Sign issues a token for a user. Used by the dev `docbridge token`
// command and by tests; production tokens come from the identity context.
func Sign(secret, userID, role string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("identity: userID is required")
	}
	if role != RolePatient && role != RoleDoctor {
		return "", fmt.Errorf("identity: unknown role %q", role)
	}

	now := time.Now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("identity: sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies a token and returns its claims.
func Parse(secret, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("identity: parse token: %w", err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, fmt.Errorf("identity: invalid token")
	}
	return claims, nil
}
