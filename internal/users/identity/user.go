// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package identity reconciles the two identity sources of SamaTechnicien into one Session.

The canonical users table holds a legacy credential column plus the verified and
blocked flags; the managed auth provider holds its own credential and email
confirmation state. Login consults both, merges the verification flag back into
the canonical row, and emits a normalized Session into the client's slot.
*/
package identity

import (
	"time"

	"github.com/samatechnicien/samatech/internal/platform/sec"
	"github.com/samatechnicien/samatech/internal/users/session"
)

// # Domain Entities

// User is a row of the canonical users table.
type User struct {
	ID              int64        `json:"id"`
	AuthID          string       `json:"authId,omitempty"`
	Email           string       `json:"email"`
	PasswordHash    string       `json:"-"`
	FullName        string       `json:"fullName"`
	Role            sec.UserRole `json:"role"`
	Specialty       string       `json:"specialty,omitempty"`
	City            string       `json:"city,omitempty"`
	District        string       `json:"district,omitempty"`
	Phone           string       `json:"phone,omitempty"`
	Image           string       `json:"image,omitempty"`
	Description     string       `json:"description,omitempty"`
	CommentsEnabled bool         `json:"commentsEnabled"`
	IsBlocked       bool         `json:"isBlocked"`
	EmailVerified   bool         `json:"emailVerified"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

// IsAdmin reports whether the user holds the admin role.
func (user *User) IsAdmin() bool {
	return user.Role == sec.RoleAdmin
}

// Snapshot normalizes the user into the Session stored in slot.
// Timestamps are truncated to the second in UTC so the value survives a JSON round trip.
func (user *User) Snapshot(slot string) *session.Session {
	createdAt := user.CreatedAt
	if !createdAt.IsZero() {
		createdAt = createdAt.UTC().Truncate(time.Second)
	}

	return &session.Session{
		Slot:            slot,
		UserID:          user.ID,
		AuthID:          user.AuthID,
		Email:           sec.NormalizeEmail(user.Email),
		FullName:        user.FullName,
		Role:            string(user.Role),
		Specialty:       user.Specialty,
		City:            user.City,
		District:        user.District,
		Phone:           user.Phone,
		Image:           user.Image,
		Description:     user.Description,
		CommentsEnabled: user.CommentsEnabled,
		IsBlocked:       user.IsBlocked,
		EmailVerified:   user.EmailVerified,
		CreatedAt:       createdAt,
	}
}

// # Field Identifiers

const (
	FieldEmail       = "email"
	FieldPassword    = "password"
	FieldFullName    = "fullName"
	FieldRole        = "role"
	FieldSpecialty   = "specialty"
	FieldCity        = "city"
	FieldDistrict    = "district"
	FieldPhone       = "phone"
	FieldDescription = "description"
)

// # Constraints

const (
	// MinPasswordLength matches the original registration form.
	MinPasswordLength = 6

	// MaxNameLength bounds full names and short profile fields.
	MaxNameLength = 120

	// MaxDescriptionLength bounds the technician description.
	MaxDescriptionLength = 2000
)
