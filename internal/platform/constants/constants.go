// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Sessions: Slot cookie, slot header and Redis key prefixes.
  - Messaging: NATS subjects for provider events and reload notifications.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "samatech-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 20.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 40

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Authentication

const (
	// AuthIssuer is the standard 'iss' claim in access tokens.
	AuthIssuer = "samatechnicien.sn"

	// AccessTokenTTL is the lifetime of access tokens issued at login.
	AccessTokenTTL = 15 * time.Minute

	// SessionSlotCookie holds the client's session slot id in browsers.
	SessionSlotCookie = "sama_slot"

	// SessionSlotCookiePath scopes the slot cookie to the API.
	SessionSlotCookiePath = "/api/v1"

	// ProviderEventSecretHeader authenticates the provider webhook bridge.
	ProviderEventSecretHeader = "X-Webhook-Secret"
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
	HeaderAuthorization = "Authorization"

	// HeaderSessionSlot carries the slot id for non-browser clients (CLI).
	HeaderSessionSlot = "X-Session-Slot"
)

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldError   = "error"
	FieldCode    = "code"
	FieldStatus  = "status"
	FieldApp     = "app"
	FieldVersion = "version"
	FieldChecks  = "checks"
)

// # Redis Prefixes

const (
	RedisPrefixSessionSlot = "session:slot:"
)

// # NATS Subjects

const (
	// SubjectProviderEvents carries provider session events (SIGNED_IN, USER_UPDATED, ...).
	SubjectProviderEvents = "auth.events"

	// SubjectReloadPrefix is suffixed with a slot id; UIs listening on it reload their view.
	SubjectReloadPrefix = "ui.reload."

	// SubjectSessionChangedPrefix is suffixed with a slot id; one notice per slot write.
	SubjectSessionChangedPrefix = "session.changed."
)
