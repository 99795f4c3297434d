// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizeEmail trims and lower-cases an email address. Both identity stores
// are correlated by this value, so every lookup key passes through it.
//
// Lowering is per rune and never rewrites letters (ß stays ß), matching the
// canonical store's lower(email) index.
func NormalizeEmail(email string) string {
	// Casers are stateful and must not be shared between goroutines.
	return cases.Lower(language.Und).String(strings.TrimSpace(email))
}

// SameEmail reports whether two addresses refer to the same identity.
func SameEmail(a, b string) bool {
	return NormalizeEmail(a) == NormalizeEmail(b)
}
