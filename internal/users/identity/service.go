// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samatechnicien/samatech/internal/platform/apperr"
	"github.com/samatechnicien/samatech/internal/platform/constants"
	"github.com/samatechnicien/samatech/internal/platform/ctxutil"
	"github.com/samatechnicien/samatech/internal/platform/metrics"
	"github.com/samatechnicien/samatech/internal/platform/sec"
	"github.com/samatechnicien/samatech/internal/users/provider"
	"github.com/samatechnicien/samatech/internal/users/session"
)

// # Contracts & Types

// TokenIssuer signs the access tokens returned by Login.
type TokenIssuer interface {
	GenerateAccessToken(input sec.AccessTokenInput, timeToLive time.Duration) (string, error)
}

// Login outcome labels recorded in metrics.
const (
	outcomeSuccess            = "success"
	outcomeInvalidCredentials = "invalid_credentials"
	outcomeNeedsVerification  = "needs_verification"
	outcomeBlocked            = "blocked"
	outcomeProviderError      = "provider_error"
)

// Service runs the identity reconciliation flow and the operations around it.
//
// # Review Process
//
// Changes to the order of checks in Reconcile change what an attacker can learn
// about an account. The block check must stay after credential validation.
type Service struct {
	users      UserRepository
	sessions   SessionStore
	provider   provider.Client
	tokens     TokenIssuer
	breakglass *Breakglass
	metrics    *metrics.Metrics
}

// Dependencies groups the collaborators of [Service]. Provider, Breakglass and
// Metrics may be nil.
type Dependencies struct {
	Users      UserRepository
	Sessions   SessionStore
	Provider   provider.Client
	Tokens     TokenIssuer
	Breakglass *Breakglass
	Metrics    *metrics.Metrics
}

// NewService constructs a new identity [Service].
func NewService(deps Dependencies) *Service {
	return &Service{
		users:      deps.Users,
		sessions:   deps.Sessions,
		provider:   deps.Provider,
		tokens:     deps.Tokens,
		breakglass: deps.Breakglass,
		metrics:    deps.Metrics,
	}
}

// # Reconciliation Flow

// ReconcileInput holds one sign-in attempt.
type ReconcileInput struct {
	Email      string
	Credential string
	Slot       string

	// SkipCredentialCheck is set by provider-driven callbacks, whose identity was
	// already proven by the provider session.
	SkipCredentialCheck bool

	// ProviderVerified is set when the caller already knows the provider has
	// confirmed the email (a trusted push event).
	ProviderVerified bool
}

// Outcome is a successful reconciliation.
type Outcome struct {
	Session     *session.Session `json:"session"`
	Destination string           `json:"destination"`
}

/*
Reconcile merges the provider and canonical identity stores into one Session.

Description: Consults the provider, resolves the canonical row, merges the
verification flag back into it, validates the credential, checks the block flag
and finally writes the Session into the slot. Best-effort writes (verification
flag, credential upgrade) never halt the flow.

Parameters:
  - context: context.Context
  - input: ReconcileInput

Returns:
  - *Outcome: Session and role-based destination
  - error: InvalidCredentials, NeedsVerification, AccountBlocked, ProviderUnavailable
*/
func (service *Service) Reconcile(context context.Context, input ReconcileInput) (*Outcome, error) {
	logger := ctxutil.GetLogger(context)
	email := sec.NormalizeEmail(input.Email)

	if email == "" || (!input.SkipCredentialCheck && input.Credential == "") {
		return nil, service.fail(outcomeInvalidCredentials, apperr.InvalidCredentials())
	}

	// 1. Managed-auth result
	providerVerified := input.ProviderVerified
	providerAuthenticated := false
	providerUnverified := false
	var providerAuthID string

	if !input.SkipCredentialCheck {
		result, err := service.signIn(context, email, input.Credential)
		switch {
		case err == nil:
			providerVerified = true
			providerAuthenticated = true
			providerAuthID = result.AuthID
		case errors.Is(err, provider.ErrCredentialRejected):
			// Legacy fallback
		case errors.Is(err, provider.ErrIdentityUnverified):
			providerUnverified = true
		default:
			return nil, service.fail(outcomeProviderError, apperr.ProviderUnavailable(err))
		}
	}

	// 2. Canonical row
	user, err := service.users.FindByEmail(context, email)
	if err != nil {
		if !apperr.IsNotFound(err) {
			return nil, fmt.Errorf("identity_reconcile_lookup_failed: %w", err)
		}
		if input.SkipCredentialCheck || !service.breakglass.Covers(email) {
			return nil, service.fail(outcomeInvalidCredentials, apperr.InvalidCredentials())
		}
		user = service.breakglass.User()
	}

	if providerUnverified && !user.IsAdmin() {
		return nil, service.fail(outcomeNeedsVerification, apperr.NeedsVerification())
	}

	// 3. Verification flag
	if providerVerified && !user.EmailVerified {
		service.markVerified(context, user.ID)
		user.EmailVerified = true
	}
	if !user.EmailVerified && !user.IsAdmin() {
		return nil, service.fail(outcomeNeedsVerification, apperr.NeedsVerification())
	}

	// 4. Credential
	if !input.SkipCredentialCheck && !providerAuthenticated {
		matched, needsUpgrade := sec.VerifyCredential(input.Credential, user.PasswordHash)
		usedBreakglass := user.ID == 0
		if !matched && service.breakglass.Matches(email, input.Credential) {
			matched, needsUpgrade, usedBreakglass = true, false, true
		}
		if !matched {
			return nil, service.fail(outcomeInvalidCredentials, apperr.InvalidCredentials())
		}
		if usedBreakglass {
			logger.Warn("breakglass_login_used", slog.String("email", email), slog.Int64("user_id", user.ID))
		}
		if needsUpgrade && user.ID != 0 {
			service.upgradeCredential(context, user.ID, input.Credential)
		}
	}

	// 5. Block status
	if user.IsBlocked {
		return nil, service.fail(outcomeBlocked, apperr.AccountBlocked())
	}

	// 6. Session
	if user.AuthID == "" {
		user.AuthID = providerAuthID
	}
	snapshot := user.Snapshot(input.Slot)
	if err := service.sessions.Set(context, input.Slot, snapshot); err != nil {
		return nil, fmt.Errorf("identity_session_write_failed: %w", err)
	}

	service.metrics.LoginOutcome(outcomeSuccess)
	logger.Info("identity_session_emitted",
		slog.Int64("user_id", user.ID),
		slog.String("role", string(user.Role)),
		slog.Bool("provider_authenticated", providerAuthenticated),
	)

	return &Outcome{Session: snapshot, Destination: user.Role.Destination()}, nil
}

// signIn treats a missing provider as one that rejects every credential.
func (service *Service) signIn(context context.Context, email, credential string) (*provider.Result, error) {
	if service.provider == nil {
		return nil, provider.ErrCredentialRejected
	}
	return service.provider.SignIn(context, email, credential)
}

func (service *Service) fail(outcome string, err *apperr.AppError) error {
	service.metrics.LoginOutcome(outcome)
	return err
}

// markVerified is best-effort: a failure is logged and counted, never returned.
func (service *Service) markVerified(context context.Context, userID int64) {
	if userID == 0 {
		return
	}
	if err := service.users.MarkVerified(context, userID); err != nil {
		service.reconcileWriteFailed(context, "mark_verified", userID, err)
	}
}

// upgradeCredential re-hashes a legacy credential column. Best-effort.
func (service *Service) upgradeCredential(context context.Context, userID int64, credential string) {
	hash, err := sec.HashPassword(credential)
	if err == nil {
		err = service.users.UpdatePassword(context, userID, hash)
	}
	if err != nil {
		service.reconcileWriteFailed(context, "upgrade_credential", userID, err)
		return
	}
	ctxutil.GetLogger(context).Info("identity_credential_upgraded", slog.Int64("user_id", userID))
}

func (service *Service) reconcileWriteFailed(context context.Context, operation string, userID int64, err error) {
	service.metrics.ReconcileWriteFailed(operation)
	ctxutil.GetLogger(context).Warn("reconcile_write_failed",
		slog.String("operation", operation),
		slog.Int64("user_id", userID),
		slog.Any("error", err),
	)
}

// # Login

// LoginInput holds the credentials submitted to the login endpoint.
type LoginInput struct {
	Email    string
	Password string
	Slot     string
}

// LoginResult is the login response body.
type LoginResult struct {
	Session     *session.Session `json:"session"`
	Destination string           `json:"destination"`
	AccessToken string           `json:"access_token"`
}

/*
Login reconciles the credentials and issues a short-lived access token bound to the slot.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *LoginResult: Session, destination and signed access token
  - error: Reconcile failures or signing errors
*/
func (service *Service) Login(context context.Context, input LoginInput) (*LoginResult, error) {
	outcome, err := service.Reconcile(context, ReconcileInput{
		Email:      input.Email,
		Credential: input.Password,
		Slot:       input.Slot,
	})
	if err != nil {
		return nil, err
	}

	accessToken, err := service.tokens.GenerateAccessToken(sec.AccessTokenInput{
		UserID: outcome.Session.UserID,
		Email:  outcome.Session.Email,
		Role:   outcome.Session.Role,
		Slot:   input.Slot,
	}, constants.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("identity_service_token_failed: %w", err)
	}

	return &LoginResult{
		Session:     outcome.Session,
		Destination: outcome.Destination,
		AccessToken: accessToken,
	}, nil
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new member.
type RegisterInput struct {
	Email     string
	Password  string
	FullName  string
	Role      sec.UserRole
	Specialty string
	City      string
	District  string
	Phone     string
}

/*
Register hashes the password, persists the canonical row and then creates the
provider identity.

Description: The provider sign-up is best-effort. When it fails the account
still signs in through the legacy credential column once its email is verified.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *User: Created entity
  - error: ValidationError (admin role), Conflict (email exists) or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*User, error) {
	role := input.Role
	if role == "" {
		role = sec.RoleClient
	}
	if role != sec.RoleClient && role != sec.RoleTechnician {
		return nil, apperr.ValidationError("Invalid role",
			apperr.FieldError{Field: FieldRole, Message: "must be client or technician"})
	}

	email := sec.NormalizeEmail(input.Email)

	// Verify email uniqueness. Return a client-safe Conflict err.
	if _, err := service.users.FindByEmail(context, email); err == nil {
		return nil, apperr.Conflict("Email is already registered")
	} else if !apperr.IsNotFound(err) {
		return nil, fmt.Errorf("identity_service_register_lookup_failed: %w", err)
	}

	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("identity_service_hash_failed: %w", err)
	}

	user := &User{
		Email:           email,
		PasswordHash:    hashedPassword,
		FullName:        input.FullName,
		Role:            role,
		Specialty:       input.Specialty,
		City:            input.City,
		District:        input.District,
		Phone:           input.Phone,
		CommentsEnabled: true,
		EmailVerified:   false,
	}

	if err := service.users.Create(context, user); err != nil {
		if apperr.IsAppError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("identity_service_register_failed: %w", err)
	}

	logger := ctxutil.GetLogger(context)
	if service.provider != nil {
		if err := service.provider.SignUp(context, email, input.Password); err != nil {
			logger.Warn("provider_signup_failed", slog.Int64("user_id", user.ID), slog.Any("error", err))
		}
	}

	logger.Info("identity_user_registered", slog.Int64("user_id", user.ID), slog.String("role", string(role)))
	return user, nil
}

// # Session Lifecycle

/*
CurrentSession returns the Session held in slot after re-checking its row.

Description: A deleted row clears the slot and yields 401; a blocked row clears
the slot and yields AccountBlocked. Profile changes made elsewhere are folded
into the stored Session.

Parameters:
  - context: context.Context
  - slot: string

Returns:
  - *session.Session: Current snapshot
  - error: Unauthorized, AccountBlocked or storage errors
*/
func (service *Service) CurrentSession(context context.Context, slot string) (*session.Session, error) {
	stored, err := service.sessions.Get(context, slot)
	if err != nil {
		return nil, fmt.Errorf("identity_session_read_failed: %w", err)
	}
	if stored == nil {
		return nil, apperr.Unauthorized("No active session")
	}

	// Break-glass sessions have no row to re-read.
	if stored.UserID == 0 {
		return stored, nil
	}

	logger := ctxutil.GetLogger(context)
	user, err := service.users.FindByID(context, stored.UserID)
	if err != nil {
		if !apperr.IsNotFound(err) {
			return nil, fmt.Errorf("identity_session_refresh_failed: %w", err)
		}
		service.invalidate(context, slot)
		logger.Info("identity_session_invalidated", slog.String("reason", "deleted"), slog.Int64("user_id", stored.UserID))
		return nil, apperr.Unauthorized("Session is no longer valid")
	}

	if user.IsBlocked {
		service.invalidate(context, slot)
		logger.Info("identity_session_invalidated", slog.String("reason", "blocked"), slog.Int64("user_id", user.ID))
		return nil, apperr.AccountBlocked()
	}

	if user.AuthID == "" {
		user.AuthID = stored.AuthID
	}
	fresh := user.Snapshot(slot)
	if *fresh == *stored {
		return stored, nil
	}
	if err := service.sessions.Set(context, slot, fresh); err != nil {
		return nil, fmt.Errorf("identity_session_write_failed: %w", err)
	}
	return fresh, nil
}

func (service *Service) invalidate(context context.Context, slot string) {
	if err := service.sessions.Clear(context, slot); err != nil {
		ctxutil.GetLogger(context).Warn("identity_session_clear_failed", slog.Any("error", err))
	}
}

// Logout clears the slot. Clearing an empty slot is not an error.
func (service *Service) Logout(context context.Context, slot string) error {
	if err := service.sessions.Clear(context, slot); err != nil {
		return fmt.Errorf("identity_service_logout_failed: %w", err)
	}
	return nil
}

// # Provider Mail

// ResendVerification asks the provider to re-send the confirmation email.
// It never fails towards the caller so the response reveals nothing about the address.
func (service *Service) ResendVerification(context context.Context, email string) {
	service.providerMail(context, "resend_verification", email, func(client provider.Client, address string) error {
		return client.ResendVerification(context, address)
	})
}

// ForgotPassword asks the provider to send a password reset email. Same contract as ResendVerification.
func (service *Service) ForgotPassword(context context.Context, email string) {
	service.providerMail(context, "recover_password", email, func(client provider.Client, address string) error {
		return client.RecoverPassword(context, address)
	})
}

func (service *Service) providerMail(context context.Context, action, email string, call func(provider.Client, string) error) {
	logger := ctxutil.GetLogger(context)
	if service.provider == nil {
		logger.Warn("provider_mail_skipped", slog.String("action", action), slog.String("reason", "provider_disabled"))
		return
	}
	if err := call(service.provider, sec.NormalizeEmail(email)); err != nil {
		logger.Warn("provider_mail_failed", slog.String("action", action), slog.Any("error", err))
	}
}
