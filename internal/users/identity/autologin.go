// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/samatechnicien/samatech/internal/platform/apperr"
	"github.com/samatechnicien/samatech/internal/platform/sec"
	"github.com/samatechnicien/samatech/internal/users/provider"
)

// # Auto-login on Link Click

// Auto-login outcome labels recorded in metrics.
const (
	AutoLoginSignedIn     = "signed_in"
	AutoLoginSignedOut    = "signed_out"
	AutoLoginIgnored      = "ignored"
	AutoLoginDuplicate    = "duplicate"
	AutoLoginSlotOccupied = "slot_occupied"
	AutoLoginRejected     = "rejected_token"
	AutoLoginUnknownUser  = "unknown_user"
	AutoLoginHalted       = "halted"
	AutoLoginFailed       = "failed"
)

// Reloader asks the client behind a slot to reload itself.
type Reloader interface {
	Reload(ctx context.Context, slot string) error
}

// AutoLogin signs a slot in when the provider reports that the user confirmed
// their email from the link, provided the slot is still empty.
type AutoLogin struct {
	service  *Service
	reloader Reloader
	verifier *provider.TokenVerifier
	logger   *slog.Logger

	mutex    sync.Mutex
	inFlight map[string]struct{}
}

// NewAutoLogin wires the handler. verifier may be nil, which trusts the event token.
func NewAutoLogin(service *Service, reloader Reloader, verifier *provider.TokenVerifier, logger *slog.Logger) *AutoLogin {
	return &AutoLogin{
		service:  service,
		reloader: reloader,
		verifier: verifier,
		logger:   logger,
		inFlight: make(map[string]struct{}),
	}
}

// Handle is a [provider.EventHandler].
func (autoLogin *AutoLogin) Handle(ctx context.Context, event provider.Event) {
	outcome, err := autoLogin.Process(ctx, event)
	autoLogin.service.metrics.AutoLogin(outcome)

	logger := autoLogin.logger.With(
		slog.String("event_type", string(event.Type)),
		slog.String("slot", event.Slot),
		slog.String("outcome", outcome),
	)
	if err != nil {
		logger.Warn("auto_login_failed", slog.Any("error", err))
		return
	}
	logger.Info("auto_login_handled")
}

/*
Process runs auto-login for one event and returns its outcome label.

Description: Only SIGNED_IN / USER_UPDATED events carrying a confirmed email
act, and only on an empty slot. Concurrent events for the same slot are
collapsed; the reload notifier fires once per successful run.

Parameters:
  - ctx: context.Context
  - event: provider.Event

Returns:
  - string: Outcome label
  - error: Non-nil for halting failures (rejected token, reconcile errors)
*/
func (autoLogin *AutoLogin) Process(ctx context.Context, event provider.Event) (string, error) {
	if event.Type == provider.EventSignedOut {
		if err := autoLogin.service.sessions.Clear(ctx, event.Slot); err != nil {
			return AutoLoginFailed, fmt.Errorf("auto_login_clear_failed: %w", err)
		}
		return AutoLoginSignedOut, nil
	}

	if !event.ReportsValidSession() {
		return AutoLoginIgnored, nil
	}

	if !autoLogin.acquire(event.Slot) {
		return AutoLoginDuplicate, nil
	}
	defer autoLogin.release(event.Slot)

	current, err := autoLogin.service.sessions.Get(ctx, event.Slot)
	if err != nil {
		return AutoLoginFailed, fmt.Errorf("auto_login_slot_read_failed: %w", err)
	}
	if current != nil {
		return AutoLoginSlotOccupied, nil
	}

	email := sec.NormalizeEmail(event.Session.User.Email)
	if autoLogin.verifier != nil {
		claims, err := autoLogin.verifier.Verify(event.Session.AccessToken)
		if err != nil {
			return AutoLoginRejected, err
		}
		if !sec.SameEmail(claims.Email, email) {
			return AutoLoginRejected, errors.New("auto_login_token_email_mismatch")
		}
	}

	users := autoLogin.service.users

	user, err := users.FindByEmail(ctx, email)
	if err != nil {
		if apperr.IsNotFound(err) {
			return AutoLoginUnknownUser, nil
		}
		return AutoLoginFailed, fmt.Errorf("auto_login_lookup_failed: %w", err)
	}

	// 1. Verification flag
	autoLogin.service.markVerified(ctx, user.ID)

	// 2. Fresh row
	user, err = users.FindByID(ctx, user.ID)
	if err != nil {
		return AutoLoginFailed, fmt.Errorf("auto_login_refresh_failed: %w", err)
	}

	// 3. Reconcile without a credential
	if _, err := autoLogin.service.Reconcile(ctx, ReconcileInput{
		Email:               user.Email,
		Slot:                event.Slot,
		SkipCredentialCheck: true,
		ProviderVerified:    true,
	}); err != nil {
		return AutoLoginHalted, err
	}

	// 4. Reload once
	if err := autoLogin.reloader.Reload(ctx, event.Slot); err != nil {
		return AutoLoginSignedIn, fmt.Errorf("auto_login_reload_failed: %w", err)
	}
	return AutoLoginSignedIn, nil
}

func (autoLogin *AutoLogin) acquire(slot string) bool {
	autoLogin.mutex.Lock()
	defer autoLogin.mutex.Unlock()

	if _, busy := autoLogin.inFlight[slot]; busy {
		return false
	}
	autoLogin.inFlight[slot] = struct{}{}
	return true
}

func (autoLogin *AutoLogin) release(slot string) {
	autoLogin.mutex.Lock()
	defer autoLogin.mutex.Unlock()
	delete(autoLogin.inFlight, slot)
}
