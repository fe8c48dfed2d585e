package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims is the verified payload of an access token issued by the
// external identity provider. Subject carries the user id.
type JWTClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}
