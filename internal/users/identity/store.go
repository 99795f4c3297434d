// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"

	"github.com/samatechnicien/samatech/internal/users/session"
)

// # User Data Access

// UserRepository is the canonical store contract used by the reconciliation flow.
type UserRepository interface {

	/*
		FindByEmail returns the row whose email matches case-insensitively.

		Parameters:
		  - context: context.Context
		  - email: string (already normalized)

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		FindByID returns the row with the given id.

		Parameters:
		  - context: context.Context
		  - id: int64

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(context context.Context, id int64) (*User, error)

	/*
		Create inserts a new row and fills in its id and timestamps.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: apperr.Conflict on duplicate email, or storage failures
	*/
	Create(context context.Context, user *User) error

	/*
		MarkVerified sets email_verified = true. Idempotent.

		Parameters:
		  - context: context.Context
		  - id: int64

		Returns:
		  - error: Persistence failures
	*/
	MarkVerified(context context.Context, id int64) error

	/*
		UpdatePassword replaces only the stored credential.

		Parameters:
		  - context: context.Context
		  - id: int64
		  - hash: string (bcrypt)

		Returns:
		  - error: Persistence failures
	*/
	UpdatePassword(context context.Context, id int64, hash string) error
}

// # Session Slot Access

// SessionStore is the slot contract the flow writes Sessions into.
// *session.Manager satisfies it.
type SessionStore interface {
	Get(context context.Context, slot string) (*session.Session, error)
	Set(context context.Context, slot string, value *session.Session) error
	Clear(context context.Context, slot string) error
}
