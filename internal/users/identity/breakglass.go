// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"time"

	"github.com/samatechnicien/samatech/internal/platform/sec"
)

// # Break-glass Admin

// Breakglass is the optional operator credential that signs in as an admin even
// when the canonical store has no matching row. A nil *Breakglass is disabled.
type Breakglass struct {
	email string
	hash  string
}

// NewBreakglass returns nil unless both the email and the bcrypt hash are set.
func NewBreakglass(email, passwordHash string) *Breakglass {
	email = sec.NormalizeEmail(email)
	if email == "" || passwordHash == "" {
		return nil
	}
	return &Breakglass{email: email, hash: passwordHash}
}

// Covers reports whether email is the break-glass address.
func (breakglass *Breakglass) Covers(email string) bool {
	return breakglass != nil && sec.SameEmail(breakglass.email, email)
}

// Matches reports whether the pair is the break-glass credential.
func (breakglass *Breakglass) Matches(email, credential string) bool {
	if !breakglass.Covers(email) || credential == "" {
		return false
	}
	return sec.CheckPasswordHash(credential, breakglass.hash)
}

// User synthesizes the minimal admin row used when no canonical row exists.
// Its ID is 0, which no stored row ever has.
func (breakglass *Breakglass) User() *User {
	return &User{
		ID:              0,
		Email:           breakglass.email,
		PasswordHash:    breakglass.hash,
		FullName:        "Administrator",
		Role:            sec.RoleAdmin,
		CommentsEnabled: true,
		EmailVerified:   true,
		CreatedAt:       time.Unix(0, 0).UTC(),
	}
}
