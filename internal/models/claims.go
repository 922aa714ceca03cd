package models

import "github.com/golang-jwt/jwt"

const (
	RoleAdmin         = "admin"
	RoleAuthenticated = "authenticated"
)

// Claims are the fields read from the auth provider's access token.
type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
	jwt.StandardClaims
}
