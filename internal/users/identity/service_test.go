// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samatechnicien/samatech/internal/platform/apperr"
	"github.com/samatechnicien/samatech/internal/platform/sec"
	"github.com/samatechnicien/samatech/internal/users/identity"
	"github.com/samatechnicien/samatech/internal/users/provider"
)

func login(fx *fixture, email, credential string) (*identity.Outcome, error) {
	return fx.service.Reconcile(context.Background(), identity.ReconcileInput{
		Email:      email,
		Credential: credential,
		Slot:       testSlot,
	})
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, code), "expected %s, got %v", code, err)
}

func assertSlotEmpty(t *testing.T, fx *fixture) {
	t.Helper()
	current, err := fx.sessions.Get(context.Background(), testSlot)
	require.NoError(t, err)
	assert.Nil(t, current)
}

/*
TestReconcile_LoginOutcomes walks the end-to-end login outcomes against a provider
that rejects the credential, so every run takes the legacy path.
*/
func TestReconcile_LoginOutcomes(t *testing.T) {
	t.Run("verified unblocked user with correct credential", func(t *testing.T) {
		fx := newFixture(t, rejectingProvider())
		fx.users.add(diop(t))

		outcome, err := login(fx, "Diop@Example.com", testPassword)
		require.NoError(t, err)

		assert.Equal(t, "/", outcome.Destination)
		assert.Equal(t, int64(7), outcome.Session.UserID)
		assert.Equal(t, "diop@example.com", outcome.Session.Email)
		assert.Equal(t, testSlot, outcome.Session.Slot)

		stored, err := fx.sessions.Get(context.Background(), testSlot)
		require.NoError(t, err)
		assert.Equal(t, outcome.Session, stored)
		assert.Equal(t, 1.0, testutil.ToFloat64(fx.metrics.LoginAttempts.WithLabelValues("success")))
	})

	t.Run("blocked user", func(t *testing.T) {
		fx := newFixture(t, rejectingProvider())
		row := diop(t)
		row.IsBlocked = true
		fx.users.add(row)

		_, err := login(fx, row.Email, testPassword)
		assertCode(t, err, apperr.CodeAccountBlocked)
		assertSlotEmpty(t, fx)
	})

	t.Run("provider unverified, non-admin", func(t *testing.T) {
		fx := newFixture(t, &fakeProvider{signInErr: provider.ErrIdentityUnverified})
		fx.users.add(diop(t))

		_, err := login(fx, "diop@example.com", testPassword)
		assertCode(t, err, apperr.CodeNeedsVerification)
		assert.Equal(t, apperr.HintResendVerification, apperr.As(err).Hint)
		assertSlotEmpty(t, fx)
	})

	t.Run("unknown email", func(t *testing.T) {
		fx := newFixture(t, rejectingProvider())

		_, err := login(fx, "nobody@example.com", testPassword)
		assertCode(t, err, apperr.CodeInvalidCredentials)
		assertSlotEmpty(t, fx)
	})
}

/*
TestReconcile_BlockCheckedAfterCredential ensures a wrong credential on a
blocked account reports InvalidCredentials, never revealing the block.
*/
func TestReconcile_BlockCheckedAfterCredential(t *testing.T) {
	fx := newFixture(t, rejectingProvider())
	row := diop(t)
	row.IsBlocked = true
	fx.users.add(row)

	_, err := login(fx, row.Email, wrongPassword)
	assertCode(t, err, apperr.CodeInvalidCredentials)
}

/*
TestReconcile_ProviderSuccess verifies that a provider-authenticated login
skips the legacy column and merges the verification flag into the row.
*/
func TestReconcile_ProviderSuccess(t *testing.T) {
	client := &fakeProvider{signInResult: &provider.Result{
		AuthID: "0b6c1d5e-3d1f-4c39-9a43-0e8f8d0b2a11", Email: "awa@example.com", EmailConfirmed: true,
	}}
	fx := newFixture(t, client)
	row := fx.users.add(identity.User{
		Email:        "awa@example.com",
		PasswordHash: "not-the-password",
		FullName:     "Awa Ndiaye",
		Role:         sec.RoleClient,
	})

	outcome, err := login(fx, "awa@example.com", "provider-password")
	require.NoError(t, err)

	assert.True(t, outcome.Session.EmailVerified)
	assert.Equal(t, "0b6c1d5e-3d1f-4c39-9a43-0e8f8d0b2a11", outcome.Session.AuthID)
	assert.True(t, fx.users.get(row.ID).EmailVerified)
	assert.Equal(t, 1, fx.users.markVerifiedCalls)
	assert.Equal(t, 0, fx.users.updatePasswordCalls)
}

/*
TestReconcile_MarkVerifiedIdempotent runs the verification merge twice on the
same row: the second run observes a verified row and writes nothing.
*/
func TestReconcile_MarkVerifiedIdempotent(t *testing.T) {
	client := &fakeProvider{signInResult: &provider.Result{Email: "awa@example.com", EmailConfirmed: true}}
	fx := newFixture(t, client)
	row := fx.users.add(identity.User{Email: "awa@example.com", Role: sec.RoleClient})

	first, err := login(fx, row.Email, "pw")
	require.NoError(t, err)
	afterFirst := fx.users.get(row.ID)

	second, err := login(fx, row.Email, "pw")
	require.NoError(t, err)

	assert.Equal(t, 1, fx.users.markVerifiedCalls)
	assert.Equal(t, afterFirst, fx.users.get(row.ID))
	assert.Equal(t, first.Session, second.Session)
}

/*
TestReconcile_MarkVerifiedFailureIsSwallowed checks that a failed best-effort
write is counted but the login still succeeds with a verified Session.
*/
func TestReconcile_MarkVerifiedFailureIsSwallowed(t *testing.T) {
	client := &fakeProvider{signInResult: &provider.Result{EmailConfirmed: true}}
	fx := newFixture(t, client)
	fx.users.markVerifiedErr = errStoreDown
	fx.users.add(identity.User{Email: "awa@example.com", Role: sec.RoleClient})

	outcome, err := login(fx, "awa@example.com", "pw")
	require.NoError(t, err)

	assert.True(t, outcome.Session.EmailVerified)
	assert.Equal(t, 1.0, testutil.ToFloat64(fx.metrics.ReconcileWriteFailures.WithLabelValues("mark_verified")))
}

/*
TestReconcile_Verification covers the verification gate for the legacy path.
*/
func TestReconcile_Verification(t *testing.T) {
	tests := []struct {
		name     string
		role     sec.UserRole
		client   *fakeProvider
		wantCode string
	}{
		{"unverified client via legacy", sec.RoleClient, rejectingProvider(), apperr.CodeNeedsVerification},
		{"unverified technician via legacy", sec.RoleTechnician, rejectingProvider(), apperr.CodeNeedsVerification},
		{"unverified admin via legacy", sec.RoleAdmin, rejectingProvider(), ""},
		{"admin with provider unverified", sec.RoleAdmin, &fakeProvider{signInErr: provider.ErrIdentityUnverified}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t, tt.client)
			fx.users.add(identity.User{
				Email:        "fall@example.com",
				PasswordHash: hashed(t, testPassword),
				Role:         tt.role,
			})

			outcome, err := login(fx, "fall@example.com", testPassword)
			if tt.wantCode != "" {
				assertCode(t, err, tt.wantCode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "/dashboard", outcome.Destination)
		})
	}
}

/*
TestReconcile_ProviderOutage maps an unclassified provider failure to 502
without touching the canonical store.
*/
func TestReconcile_ProviderOutage(t *testing.T) {
	fx := newFixture(t, &fakeProvider{signInErr: errors.New("dial tcp: i/o timeout")})
	fx.users.add(diop(t))

	_, err := login(fx, "diop@example.com", testPassword)
	assertCode(t, err, apperr.CodeProviderError)
	assert.Equal(t, 502, apperr.As(err).HTTPStatus)
	assertSlotEmpty(t, fx)
}

/*
TestReconcile_LegacyCredentialUpgrade verifies that a plaintext-equivalent
column value is accepted once and replaced by a bcrypt hash.
*/
func TestReconcile_LegacyCredentialUpgrade(t *testing.T) {
	fx := newFixture(t, nil, withoutProvider())
	row := diop(t)
	row.PasswordHash = "legacy-secret"
	fx.users.add(row)

	_, err := login(fx, row.Email, "legacy-secret")
	require.NoError(t, err)

	upgraded := fx.users.get(row.ID).PasswordHash
	assert.True(t, sec.IsBcryptHash(upgraded))
	assert.True(t, sec.CheckPasswordHash("legacy-secret", upgraded))

	t.Run("upgrade failure does not block login", func(t *testing.T) {
		fx := newFixture(t, nil, withoutProvider())
		fx.users.updatePasswordErr = errStoreDown
		row := diop(t)
		row.PasswordHash = "legacy-secret"
		fx.users.add(row)

		_, err := login(fx, row.Email, "legacy-secret")
		require.NoError(t, err)
		assert.Equal(t, 1.0, testutil.ToFloat64(fx.metrics.ReconcileWriteFailures.WithLabelValues("upgrade_credential")))
	})
}

/*
TestReconcile_Breakglass covers the operator credential: it synthesizes an admin
when no row exists, and never applies to credential-less callbacks.
*/
func TestReconcile_Breakglass(t *testing.T) {
	breakglass := identity.NewBreakglass("Ops@SamaTechnicien.sn", hashed(t, "break-the-glass"))

	t.Run("no row, correct credential", func(t *testing.T) {
		fx := newFixture(t, rejectingProvider(), withBreakglass(breakglass))

		outcome, err := login(fx, "ops@samatechnicien.sn", "break-the-glass")
		require.NoError(t, err)
		assert.Equal(t, int64(0), outcome.Session.UserID)
		assert.Equal(t, string(sec.RoleAdmin), outcome.Session.Role)
		assert.Equal(t, "/dashboard", outcome.Destination)
	})

	t.Run("no row, wrong credential", func(t *testing.T) {
		fx := newFixture(t, rejectingProvider(), withBreakglass(breakglass))

		_, err := login(fx, "ops@samatechnicien.sn", wrongPassword)
		assertCode(t, err, apperr.CodeInvalidCredentials)
	})

	t.Run("skip credential check never synthesizes", func(t *testing.T) {
		fx := newFixture(t, rejectingProvider(), withBreakglass(breakglass))

		_, err := fx.service.Reconcile(context.Background(), identity.ReconcileInput{
			Email: "ops@samatechnicien.sn", Slot: testSlot, SkipCredentialCheck: true, ProviderVerified: true,
		})
		assertCode(t, err, apperr.CodeInvalidCredentials)
	})

	t.Run("disabled when unset", func(t *testing.T) {
		assert.Nil(t, identity.NewBreakglass("", "hash"))
		assert.Nil(t, identity.NewBreakglass("ops@samatechnicien.sn", ""))

		var disabled *identity.Breakglass
		assert.False(t, disabled.Matches("ops@samatechnicien.sn", "anything"))
	})
}

/*
TestReconcile_SkipCredentialCheck verifies the provider-driven path does not
call the provider and accepts a verified row without a credential.
*/
func TestReconcile_SkipCredentialCheck(t *testing.T) {
	client := rejectingProvider()
	fx := newFixture(t, client)
	fx.users.add(diop(t))

	outcome, err := fx.service.Reconcile(context.Background(), identity.ReconcileInput{
		Email: "diop@example.com", Slot: testSlot, SkipCredentialCheck: true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), outcome.Session.UserID)
	assert.Equal(t, 0, client.signInCalls)
}

/*
TestSnapshot_RoundTrip checks that the normalized Session survives the slot store.
*/
func TestSnapshot_RoundTrip(t *testing.T) {
	fx := newFixture(t, rejectingProvider())
	row := diop(t)

	snapshot := row.Snapshot(testSlot)
	assert.Equal(t, time.Date(2025, 11, 3, 9, 30, 15, 0, time.UTC), snapshot.CreatedAt)

	require.NoError(t, fx.sessions.Set(context.Background(), testSlot, snapshot))
	stored, err := fx.sessions.Get(context.Background(), testSlot)
	require.NoError(t, err)
	assert.Equal(t, snapshot, stored)
}

/*
TestLogin_IssuesAccessToken verifies Login wraps Reconcile with a token.
*/
func TestLogin_IssuesAccessToken(t *testing.T) {
	fx := newFixture(t, rejectingProvider())
	fx.users.add(diop(t))

	result, err := fx.service.Login(context.Background(), identity.LoginInput{
		Email: "diop@example.com", Password: testPassword, Slot: testSlot,
	})
	require.NoError(t, err)
	assert.Equal(t, "token-for-diop@example.com", result.AccessToken)
	assert.Equal(t, "/", result.Destination)
}

/*
TestRegister covers role restrictions, duplicates and the best-effort provider sign-up.
*/
func TestRegister(t *testing.T) {
	input := identity.RegisterInput{
		Email: "Sow@Example.com", Password: testPassword, FullName: "Fatou Sow", Role: sec.RoleTechnician,
	}

	t.Run("creates unverified row and provider identity", func(t *testing.T) {
		client := rejectingProvider()
		fx := newFixture(t, client)

		user, err := fx.service.Register(context.Background(), input)
		require.NoError(t, err)

		assert.Equal(t, "sow@example.com", user.Email)
		assert.False(t, user.EmailVerified)
		assert.True(t, sec.CheckPasswordHash(testPassword, fx.users.get(user.ID).PasswordHash))
		assert.Equal(t, []string{"sow@example.com"}, client.signUps)
	})

	t.Run("provider failure is tolerated", func(t *testing.T) {
		fx := newFixture(t, &fakeProvider{signUpErr: errors.New("rate limited")})

		_, err := fx.service.Register(context.Background(), input)
		require.NoError(t, err)
	})

	t.Run("duplicate email", func(t *testing.T) {
		fx := newFixture(t, rejectingProvider())
		fx.users.add(identity.User{Email: "sow@example.com", Role: sec.RoleClient})

		_, err := fx.service.Register(context.Background(), input)
		assertCode(t, err, "CONFLICT")
	})

	t.Run("admin role refused", func(t *testing.T) {
		fx := newFixture(t, rejectingProvider())
		admin := input
		admin.Role = sec.RoleAdmin

		_, err := fx.service.Register(context.Background(), admin)
		assertCode(t, err, "VALIDATION_ERROR")
	})
}

/*
TestCurrentSession covers explicit invalidation of stale slots.
*/
func TestCurrentSession(t *testing.T) {
	ctx := context.Background()

	t.Run("empty slot", func(t *testing.T) {
		fx := newFixture(t, rejectingProvider())
		_, err := fx.service.CurrentSession(ctx, testSlot)
		assertCode(t, err, "UNAUTHORIZED")
	})

	t.Run("profile changes are folded in", func(t *testing.T) {
		fx := newFixture(t, rejectingProvider())
		row := fx.users.add(diop(t))
		_, err := login(fx, row.Email, testPassword)
		require.NoError(t, err)

		updated := fx.users.get(row.ID)
		updated.City = "Thiès"
		fx.users.add(updated)

		current, err := fx.service.CurrentSession(ctx, testSlot)
		require.NoError(t, err)
		assert.Equal(t, "Thiès", current.City)
	})

	t.Run("blocked after login", func(t *testing.T) {
		fx := newFixture(t, rejectingProvider())
		row := fx.users.add(diop(t))
		_, err := login(fx, row.Email, testPassword)
		require.NoError(t, err)

		blocked := fx.users.get(row.ID)
		blocked.IsBlocked = true
		fx.users.add(blocked)

		_, err = fx.service.CurrentSession(ctx, testSlot)
		assertCode(t, err, apperr.CodeAccountBlocked)
		assertSlotEmpty(t, fx)
	})

	t.Run("deleted after login", func(t *testing.T) {
		fx := newFixture(t, rejectingProvider())
		row := fx.users.add(diop(t))
		_, err := login(fx, row.Email, testPassword)
		require.NoError(t, err)

		delete(fx.users.rows, row.ID)

		_, err = fx.service.CurrentSession(ctx, testSlot)
		assertCode(t, err, "UNAUTHORIZED")
		assertSlotEmpty(t, fx)
	})
}

/*
TestLogout_Idempotent clears a slot twice without error.
*/
func TestLogout_Idempotent(t *testing.T) {
	fx := newFixture(t, rejectingProvider())
	fx.users.add(diop(t))
	_, err := login(fx, "diop@example.com", testPassword)
	require.NoError(t, err)

	require.NoError(t, fx.service.Logout(context.Background(), testSlot))
	require.NoError(t, fx.service.Logout(context.Background(), testSlot))
	assertSlotEmpty(t, fx)
}

/*
TestProviderMail verifies resend and recovery reach the provider with a
normalized address and swallow provider failures.
*/
func TestProviderMail(t *testing.T) {
	client := &fakeProvider{mailErr: errors.New("smtp down")}
	fx := newFixture(t, client)

	fx.service.ResendVerification(context.Background(), "Diop@Example.com")
	fx.service.ForgotPassword(context.Background(), "Diop@Example.com")

	assert.Equal(t, []string{"diop@example.com"}, client.resends)
	assert.Equal(t, []string{"diop@example.com"}, client.recoveries)

	disabled := newFixture(t, nil, withoutProvider())
	assert.NotPanics(t, func() { disabled.service.ResendVerification(context.Background(), "x@example.com") })
}
