// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package provider is the client side of the managed auth provider (Supabase Auth).

The provider is consulted during login and registration, and pushes session
events (a user clicked the emailed link, signed out, ...) over NATS. It is never
the source of truth for User rows; the canonical users table is.
*/
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Classified sign-in failures. Any other error is a transport/provider failure.
var (
	// ErrCredentialRejected means the provider does not accept this email/credential
	// pair. The caller falls back to the legacy credential column.
	ErrCredentialRejected = errors.New("provider: credential rejected")

	// ErrIdentityUnverified means the identity exists but its email is not confirmed.
	ErrIdentityUnverified = errors.New("provider: identity unverified")
)

// Result is a successful provider sign-in.
type Result struct {
	AuthID         string
	Email          string
	AccessToken    string
	EmailConfirmed bool
}

/*
Client is the call contract of the managed auth provider.

Methods:
  - SignIn: returns ErrCredentialRejected, ErrIdentityUnverified or a transport error.
  - SignUp: creates the provider identity and triggers the confirmation email.
  - ResendVerification: re-sends the confirmation email.
  - RecoverPassword: sends the password reset email.
*/
type Client interface {
	SignIn(ctx context.Context, email, credential string) (*Result, error)
	SignUp(ctx context.Context, email, credential string) error
	ResendVerification(ctx context.Context, email string) error
	RecoverPassword(ctx context.Context, email string) error
}

// # Push Events

// EventType names a provider session event.
type EventType string

const (
	EventSignedIn         EventType = "SIGNED_IN"
	EventUserUpdated      EventType = "USER_UPDATED"
	EventSignedOut        EventType = "SIGNED_OUT"
	EventTokenRefreshed   EventType = "TOKEN_REFRESHED"
	EventPasswordRecovery EventType = "PASSWORD_RECOVERY"
)

// Event is one provider push notification, addressed to a client slot.
type Event struct {
	Type    EventType     `json:"event_type"`
	Slot    string        `json:"slot"`
	Session *EventSession `json:"session,omitempty"`
}

// EventSession is the provider session carried by an event.
type EventSession struct {
	AccessToken string    `json:"access_token"`
	User        EventUser `json:"user"`
}

// EventUser is the provider identity carried by an event.
type EventUser struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at,omitempty"`
}

// ReportsValidSession reports whether the event announces a usable session for
// a confirmed email, which is what auto-login reacts to.
func (event Event) ReportsValidSession() bool {
	if event.Type != EventSignedIn && event.Type != EventUserUpdated {
		return false
	}
	return event.Session != nil &&
		event.Session.User.Email != "" &&
		event.Session.User.EmailConfirmedAt != nil
}

// DecodeEvent parses and minimally validates an event payload.
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return Event{}, fmt.Errorf("provider_event_decode_failed: %w", err)
	}
	if event.Type == "" {
		return Event{}, fmt.Errorf("provider_event_decode_failed: missing event_type")
	}
	if event.Slot == "" {
		return Event{}, fmt.Errorf("provider_event_decode_failed: missing slot")
	}
	return event, nil
}
