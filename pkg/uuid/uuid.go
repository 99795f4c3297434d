// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package uuid provides time-ordered identifiers for request ids and session slots.

Values are UUIDv7, so ids generated later sort after ids generated earlier.
*/
package uuid

import "github.com/google/uuid"

// New generates a new UUIDv7 string.
func New() string {
	id, err := uuid.NewV7()

	// entropy failure is an unrecoverable system-level error
	if err != nil {
		panic("uuid: failed to generate UUIDv7: " + err.Error())
	}

	return id.String()
}

// Valid reports whether s parses as a UUID. Session slot ids supplied by
// clients are checked with it before being used as storage keys.
func Valid(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
