// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/samatechnicien/samatech/internal/platform/apperr"
	"github.com/samatechnicien/samatech/internal/platform/metrics"
	"github.com/samatechnicien/samatech/internal/platform/sec"
	"github.com/samatechnicien/samatech/internal/users/identity"
	"github.com/samatechnicien/samatech/internal/users/provider"
	"github.com/samatechnicien/samatech/internal/users/session"
)

const (
	testSlot      = "01920a4c-7a7b-7cc2-9d1e-3f5a6b7c8d9e"
	otherSlot     = "01920a4c-7a7b-7cc2-9d1e-3f5a6b7c8d9f"
	testPassword  = "correct-horse"
	wrongPassword = "battery-staple"
)

// # Canonical store fake

type fakeUsers struct {
	mu     sync.Mutex
	rows   map[int64]identity.User
	nextID int64

	markVerifiedCalls   int
	updatePasswordCalls int
	markVerifiedErr     error
	updatePasswordErr   error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{rows: make(map[int64]identity.User), nextID: 1}
}

func (repo *fakeUsers) add(user identity.User) *identity.User {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if user.ID == 0 {
		user.ID = repo.nextID
	}
	repo.nextID = user.ID + 1
	repo.rows[user.ID] = user
	return &user
}

func (repo *fakeUsers) get(id int64) identity.User {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	return repo.rows[id]
}

func (repo *fakeUsers) FindByEmail(_ context.Context, email string) (*identity.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	for _, row := range repo.rows {
		if sec.SameEmail(row.Email, email) {
			found := row
			return &found, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (repo *fakeUsers) FindByID(_ context.Context, id int64) (*identity.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	row, found := repo.rows[id]
	if !found {
		return nil, apperr.NotFound("User")
	}
	return &row, nil
}

func (repo *fakeUsers) Create(_ context.Context, user *identity.User) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	for _, row := range repo.rows {
		if sec.SameEmail(row.Email, user.Email) {
			return apperr.Conflict("User already exists")
		}
	}
	user.ID = repo.nextID
	repo.nextID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	repo.rows[user.ID] = *user
	return nil
}

func (repo *fakeUsers) MarkVerified(_ context.Context, id int64) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	repo.markVerifiedCalls++
	if repo.markVerifiedErr != nil {
		return repo.markVerifiedErr
	}
	row := repo.rows[id]
	row.EmailVerified = true
	repo.rows[id] = row
	return nil
}

func (repo *fakeUsers) UpdatePassword(_ context.Context, id int64, hash string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	repo.updatePasswordCalls++
	if repo.updatePasswordErr != nil {
		return repo.updatePasswordErr
	}
	row := repo.rows[id]
	row.PasswordHash = hash
	repo.rows[id] = row
	return nil
}

// # Provider fake

type fakeProvider struct {
	mu sync.Mutex

	signInResult *provider.Result
	signInErr    error
	signUpErr    error
	mailErr      error

	signInCalls int
	signUps     []string
	resends     []string
	recoveries  []string
}

func (client *fakeProvider) SignIn(_ context.Context, _, _ string) (*provider.Result, error) {
	client.mu.Lock()
	defer client.mu.Unlock()

	client.signInCalls++
	return client.signInResult, client.signInErr
}

func (client *fakeProvider) SignUp(_ context.Context, email, _ string) error {
	client.mu.Lock()
	defer client.mu.Unlock()

	client.signUps = append(client.signUps, email)
	return client.signUpErr
}

func (client *fakeProvider) ResendVerification(_ context.Context, email string) error {
	client.mu.Lock()
	defer client.mu.Unlock()

	client.resends = append(client.resends, email)
	return client.mailErr
}

func (client *fakeProvider) RecoverPassword(_ context.Context, email string) error {
	client.mu.Lock()
	defer client.mu.Unlock()

	client.recoveries = append(client.recoveries, email)
	return client.mailErr
}

func rejectingProvider() *fakeProvider {
	return &fakeProvider{signInErr: provider.ErrCredentialRejected}
}

// # Token issuer fake

type fakeTokens struct{}

func (fakeTokens) GenerateAccessToken(input sec.AccessTokenInput, _ time.Duration) (string, error) {
	return "token-for-" + input.Email, nil
}

// # Reloader fake

type fakeReloader struct {
	mu    sync.Mutex
	slots []string
	err   error
}

func (reloader *fakeReloader) Reload(_ context.Context, slot string) error {
	reloader.mu.Lock()
	defer reloader.mu.Unlock()

	reloader.slots = append(reloader.slots, slot)
	return reloader.err
}

func (reloader *fakeReloader) count() int {
	reloader.mu.Lock()
	defer reloader.mu.Unlock()
	return len(reloader.slots)
}

// # Fixture

type fixture struct {
	users    *fakeUsers
	provider *fakeProvider
	sessions *session.Manager
	metrics  *metrics.Metrics
	service  *identity.Service
}

type fixtureOption func(*identity.Dependencies)

func withBreakglass(breakglass *identity.Breakglass) fixtureOption {
	return func(deps *identity.Dependencies) { deps.Breakglass = breakglass }
}

func withoutProvider() fixtureOption {
	return func(deps *identity.Dependencies) { deps.Provider = nil }
}

func newFixture(t *testing.T, client *fakeProvider, options ...fixtureOption) *fixture {
	t.Helper()

	fx := &fixture{
		users:    newFakeUsers(),
		provider: client,
		sessions: session.NewManager(session.NewMemoryStore()),
		metrics:  metrics.New(),
	}

	deps := identity.Dependencies{
		Users:    fx.users,
		Sessions: fx.sessions,
		Provider: client,
		Tokens:   fakeTokens{},
		Metrics:  fx.metrics,
	}
	for _, option := range options {
		option(&deps)
	}

	fx.service = identity.NewService(deps)
	return fx
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	hash, err := sec.HashPassword(password)
	require.NoError(t, err)
	return hash
}

// diop is the verified technician used across these tests.
func diop(t *testing.T) identity.User {
	return identity.User{
		ID:              7,
		Email:           "diop@example.com",
		PasswordHash:    hashed(t, testPassword),
		FullName:        "Mamadou Diop",
		Role:            sec.RoleTechnician,
		Specialty:       "Plomberie",
		City:            "Dakar",
		CommentsEnabled: true,
		EmailVerified:   true,
		CreatedAt:       time.Date(2025, 11, 3, 9, 30, 15, 500, time.UTC),
	}
}

var errStoreDown = errors.New("connection refused")
