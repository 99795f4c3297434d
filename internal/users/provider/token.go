// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package provider

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the fields read from a provider access token.
type TokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// TokenVerifier checks provider access tokens signed with the project's HS256 secret.
type TokenVerifier struct {
	secret []byte
}

// NewTokenVerifier returns nil when secret is empty, which disables verification.
func NewTokenVerifier(secret string) *TokenVerifier {
	if secret == "" {
		return nil
	}
	return &TokenVerifier{secret: []byte(secret)}
}

// Verify validates signature, algorithm and expiry, and returns the claims.
func (verifier *TokenVerifier) Verify(token string) (*TokenClaims, error) {
	claims := &TokenClaims{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return verifier.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("provider_token_invalid: %w", err)
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("provider_token_invalid")
	}

	return claims, nil
}
