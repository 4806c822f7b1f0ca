package model

import (
	"fmt"
	"strings"
)

// User is a library patron or staff member, consumed read-only.
type User struct {
	ID       int    `json:"id"`
	Name     string `json:"nome"`
	Email    string `json:"email"`
	Role     string `json:"role,omitempty"`
	IsActive bool   `json:"is_active,omitempty"`
}

// Matches reports whether term is a case-insensitive substring of the
// name or the email. An empty term matches everything.
func (u User) Matches(term string) bool {
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(u.Name), term) ||
		strings.Contains(strings.ToLower(u.Email), term)
}

// Label is the "name (email)" text shown in the loan user picker.
func (u User) Label() string {
	return fmt.Sprintf("%s (%s)", u.Name, u.Email)
}

// Token is the body of a successful login.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
