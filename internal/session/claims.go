package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenClaims is what the bookbase API puts in its access tokens.
type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// readClaims decodes the token payload without verifying the signature.
// The console never trusts these values for authorization; the API does
// that on every call. ok is false for tokens that are not JWTs.
func readClaims(token string) (subject, role string, expiresAt time.Time, ok bool) {
	var c tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &c); err != nil {
		return "", "", time.Time{}, false
	}
	if c.ExpiresAt != nil {
		expiresAt = c.ExpiresAt.Time
	}
	return c.Subject, c.Role, expiresAt, true
}
