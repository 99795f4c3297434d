// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package session holds the client-visible Session snapshot and the single-slot
stores it is persisted in.

A slot is the per-client storage location for at most one Session. The server
keeps slots in Redis, the CLI keeps its slot in a local file, and tests use an
in-memory store. [Manager] wraps any [Store] and adds change notifications.
*/
package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/samatechnicien/samatech/pkg/convert"
)

// Session is the denormalized snapshot of a User handed to clients.
//
// Field names are the canonical camelCase spelling. Decoding also accepts the
// snake_case and legacy spellings written by older clients (see UnmarshalJSON).
type Session struct {
	Slot            string    `json:"slot"`
	UserID          int64     `json:"id"`
	AuthID          string    `json:"authId,omitempty"`
	Email           string    `json:"email"`
	FullName        string    `json:"fullName"`
	Role            string    `json:"role"`
	Specialty       string    `json:"specialty,omitempty"`
	City            string    `json:"city,omitempty"`
	District        string    `json:"district,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	Image           string    `json:"image,omitempty"`
	Description     string    `json:"description,omitempty"`
	CommentsEnabled bool      `json:"commentsEnabled"`
	IsBlocked       bool      `json:"isBlocked"`
	EmailVerified   bool      `json:"emailVerified"`
	CreatedAt       time.Time `json:"createdAt"`
}

// aliases lists accepted spellings per field, canonical name first.
var aliases = map[string][]string{
	"slot":            {"slot"},
	"id":              {"id", "userId", "user_id"},
	"authId":          {"authId", "auth_id"},
	"email":           {"email"},
	"fullName":        {"fullName", "full_name", "name"},
	"role":            {"role"},
	"specialty":       {"specialty"},
	"city":            {"city"},
	"district":        {"district"},
	"phone":           {"phone"},
	"image":           {"image", "avatarUrl", "avatar_url"},
	"description":     {"description"},
	"commentsEnabled": {"commentsEnabled", "comments_enabled"},
	"isBlocked":       {"isBlocked", "is_blocked"},
	"emailVerified":   {"emailVerified", "email_verified", "emailConfirmed", "email_confirmed"},
	"createdAt":       {"createdAt", "created_at"},
}

type rawFields map[string]any

func (raw rawFields) pick(field string) (any, bool) {
	for _, key := range aliases[field] {
		if value, found := raw[key]; found && value != nil {
			return value, true
		}
	}
	return nil, false
}

func (raw rawFields) text(field string) string {
	value, _ := raw.pick(field)
	return convert.ToString(value)
}

func (raw rawFields) flag(field string, fallback bool) bool {
	value, found := raw.pick(field)
	if !found {
		return fallback
	}
	return convert.ToBool(value)
}

// UnmarshalJSON decodes a Session from any known spelling.
//
// Booleans may be JSON booleans, 0/1 numbers or strings; ids may be numbers
// or numeric strings. A missing commentsEnabled defaults to true.
func (s *Session) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	raw := rawFields{}
	if err := decoder.Decode(&raw); err != nil {
		return fmt.Errorf("session: decode failed: %w", err)
	}

	id, _ := raw.pick("id")

	*s = Session{
		Slot:            raw.text("slot"),
		UserID:          convert.ToInt64(id),
		AuthID:          raw.text("authId"),
		Email:           raw.text("email"),
		FullName:        raw.text("fullName"),
		Role:            raw.text("role"),
		Specialty:       raw.text("specialty"),
		City:            raw.text("city"),
		District:        raw.text("district"),
		Phone:           raw.text("phone"),
		Image:           raw.text("image"),
		Description:     raw.text("description"),
		CommentsEnabled: raw.flag("commentsEnabled", true),
		IsBlocked:       raw.flag("isBlocked", false),
		EmailVerified:   raw.flag("emailVerified", false),
	}

	if createdAt := raw.text("createdAt"); createdAt != "" {
		parsed, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return fmt.Errorf("session: invalid createdAt: %w", err)
		}
		s.CreatedAt = parsed
	}

	return nil
}
