// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a plain-text password using the bcrypt algorithm.
func HashPassword(plainTextPassword string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plainTextPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("sec_hash_password_failed: %w", err)
	}
	return string(hashedBytes), nil
}

// CheckPasswordHash compares a plain-text password with its bcrypt hash.
func CheckPasswordHash(plainTextPassword, existingHash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(existingHash), []byte(plainTextPassword))
	return err == nil
}

// IsBcryptHash reports whether a stored credential is a bcrypt hash
// ($2a$, $2b$ or $2y$ prefix) rather than a legacy plaintext-equivalent value.
func IsBcryptHash(stored string) bool {
	if len(stored) != 60 {
		return false
	}
	return strings.HasPrefix(stored, "$2a$") ||
		strings.HasPrefix(stored, "$2b$") ||
		strings.HasPrefix(stored, "$2y$")
}

/*
VerifyCredential checks a submitted credential against the stored column value.

Parameters:
  - submitted: string (what the user typed)
  - stored: string (bcrypt hash, or a legacy value imported from the old database)

Returns:
  - matched: bool
  - needsUpgrade: bool (true when a legacy value matched and should be re-hashed)
*/
func VerifyCredential(submitted, stored string) (matched bool, needsUpgrade bool) {
	if submitted == "" || stored == "" {
		return false, false
	}

	if IsBcryptHash(stored) {
		return CheckPasswordHash(submitted, stored), false
	}

	// Legacy rows: constant-time equality, then re-hash on success.
	if subtle.ConstantTimeCompare([]byte(submitted), []byte(stored)) == 1 {
		return true, true
	}
	return false, false
}
