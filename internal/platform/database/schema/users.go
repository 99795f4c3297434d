// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package schema names the tables and columns of the SamaTechnicien database.
package schema

import "strings"

// UsersTable represents the 'users' table
type UsersTable struct {
	Table           string
	ID              string
	AuthID          string
	Email           string
	PasswordHash    string
	FullName        string
	Role            string
	Specialty       string
	City            string
	District        string
	Phone           string
	AvatarURL       string
	Description     string
	CommentsEnabled string
	IsBlocked       string
	EmailVerified   string
	CreatedAt       string
	UpdatedAt       string
}

// Users is the schema definition for public.users
var Users = UsersTable{
	Table:           "users",
	ID:              "id",
	AuthID:          "auth_id",
	Email:           "email",
	PasswordHash:    "password_hash",
	FullName:        "full_name",
	Role:            "role",
	Specialty:       "specialty",
	City:            "city",
	District:        "district",
	Phone:           "phone",
	AvatarURL:       "avatar_url",
	Description:     "description",
	CommentsEnabled: "comments_enabled",
	IsBlocked:       "is_blocked",
	EmailVerified:   "email_verified",
	CreatedAt:       "created_at",
	UpdatedAt:       "updated_at",
}

// Columns returns all standard column names, in scan order
func (t UsersTable) Columns() []string {
	return []string{
		t.ID, t.AuthID, t.Email, t.PasswordHash, t.FullName, t.Role,
		t.Specialty, t.City, t.District, t.Phone, t.AvatarURL, t.Description,
		t.CommentsEnabled, t.IsBlocked, t.EmailVerified, t.CreatedAt, t.UpdatedAt,
	}
}

// UserColumns is the comma-joined select list matching Columns.
var UserColumns = strings.Join(Users.Columns(), ", ")
