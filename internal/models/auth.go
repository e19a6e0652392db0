package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims represents the JWT payload for access tokens issued by this
// service. Password and session management live in the record store's
// surrounding platform; only bearer validation happens here.
type JWTClaims struct {
	AccountID int  `json:"account_id"`
	Role      Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenResponse returns an issued access token.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	IssuedAt    time.Time `json:"issued_at"`
}
