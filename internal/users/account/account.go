// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account handles profile management for signed-in users and the admin
user-management console.

# Architecture

  - Entities: identity.User (shared with the identity package), UserSummary (admin DTO).
  - Profile: partial updates that re-normalize the caller's Session in its slot.
  - Admin: listing, block/unblock, comments flag, password reset and cascade delete.
*/
package account

import (
	"context"
	"time"

	"github.com/samatechnicien/samatech/internal/platform/sec"
	"github.com/samatechnicien/samatech/internal/users/identity"
	"github.com/samatechnicien/samatech/pkg/pagination"
)

// # Domain Entities

// UserSummary is the admin listing view of a user. It never carries the credential.
type UserSummary struct {
	ID              int64        `json:"id"`
	Email           string       `json:"email"`
	FullName        string       `json:"fullName"`
	Role            sec.UserRole `json:"role"`
	City            string       `json:"city,omitempty"`
	IsBlocked       bool         `json:"isBlocked"`
	CommentsEnabled bool         `json:"commentsEnabled"`
	EmailVerified   bool         `json:"emailVerified"`
	CreatedAt       time.Time    `json:"createdAt"`
}

// Summarize maps a user row to its admin view.
func Summarize(user *identity.User) UserSummary {
	return UserSummary{
		ID:              user.ID,
		Email:           user.Email,
		FullName:        user.FullName,
		Role:            user.Role,
		City:            user.City,
		IsBlocked:       user.IsBlocked,
		CommentsEnabled: user.CommentsEnabled,
		EmailVerified:   user.EmailVerified,
		CreatedAt:       user.CreatedAt,
	}
}

// TechnicianCard is the public listing a technician presents to clients.
type TechnicianCard struct {
	ID              int64  `json:"id"`
	FullName        string `json:"fullName"`
	Specialty       string `json:"specialty"`
	City            string `json:"city"`
	District        string `json:"district,omitempty"`
	Phone           string `json:"phone,omitempty"`
	Image           string `json:"image,omitempty"`
	Description     string `json:"description,omitempty"`
	CommentsEnabled bool   `json:"commentsEnabled"`
}

// CardOf maps a technician row to its public card.
func CardOf(user *identity.User) TechnicianCard {
	return TechnicianCard{
		ID:              user.ID,
		FullName:        user.FullName,
		Specialty:       user.Specialty,
		City:            user.City,
		District:        user.District,
		Phone:           user.Phone,
		Image:           user.Image,
		Description:     user.Description,
		CommentsEnabled: user.CommentsEnabled,
	}
}

// ListFilter narrows the admin listing.
type ListFilter struct {
	// Roles is empty for every role.
	Roles []sec.UserRole
	pagination.Params
}

// Flags are the admin-controlled switches. Nil fields are left unchanged.
type Flags struct {
	IsBlocked       *bool
	CommentsEnabled *bool
}

// # Repository Contracts

// ProfileRepository defines the persistence contract for self-service profile edits.
type ProfileRepository interface {
	/*
		FindByID retrieves a user record by id.

		Parameters:
		  - context: context.Context
		  - id: int64

		Returns:
		  - *identity.User: Loaded account entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(context context.Context, id int64) (*identity.User, error)

	/*
		UpdateProfile writes the mutable profile fields of an existing user.

		Parameters:
		  - context: context.Context
		  - user: *identity.User (Hydrated entity with changes)

		Returns:
		  - error: Storage or constraint failures
	*/
	UpdateProfile(context context.Context, user *identity.User) error

	/*
		UpdatePassword replaces the stored credential.

		Parameters:
		  - context: context.Context
		  - id: int64
		  - hash: string (bcrypt)

		Returns:
		  - error: apperr.NotFound or storage failures
	*/
	UpdatePassword(context context.Context, id int64, hash string) error
}

// AdminRepository defines the persistence contract of the admin console.
type AdminRepository interface {
	ProfileRepository

	/*
		List returns one page of users, newest first, and the total match count.

		Parameters:
		  - context: context.Context
		  - filter: ListFilter

		Returns:
		  - []*identity.User: Page of rows
		  - int: Total rows matching the filter
		  - error: Retrieval errors
	*/
	List(context context.Context, filter ListFilter) ([]*identity.User, int, error)

	/*
		UpdateFlags applies the non-nil flags and returns the updated row.

		Parameters:
		  - context: context.Context
		  - id: int64
		  - flags: Flags

		Returns:
		  - *identity.User: Updated row
		  - error: apperr.NotFound or storage failures
	*/
	UpdateFlags(context context.Context, id int64, flags Flags) (*identity.User, error)

	/*
		DeleteCascade removes the user and every marketplace row that references
		them, in one transaction.

		Parameters:
		  - context: context.Context
		  - id: int64

		Returns:
		  - error: apperr.NotFound or storage failures (nothing is removed on error)
	*/
	DeleteCascade(context context.Context, id int64) error
}
