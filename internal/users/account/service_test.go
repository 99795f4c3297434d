// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samatechnicien/samatech/internal/platform/apperr"
	"github.com/samatechnicien/samatech/internal/platform/sec"
	"github.com/samatechnicien/samatech/internal/users/account"
	"github.com/samatechnicien/samatech/internal/users/identity"
	"github.com/samatechnicien/samatech/internal/users/session"
	"github.com/samatechnicien/samatech/pkg/pagination"
	"github.com/samatechnicien/samatech/pkg/pointer"
)

func seedUsers(t *testing.T) []identity.User {
	t.Helper()
	hash, err := sec.HashPassword("current-pass")
	require.NoError(t, err)

	created := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	return []identity.User{
		{ID: adminID, Email: "admin@samatechnicien.sn", Role: sec.RoleAdmin, EmailVerified: true, CreatedAt: created},
		{ID: 2, Email: "diop@example.com", FullName: "Mamadou Diop", PasswordHash: hash, Role: sec.RoleTechnician,
			City: "Dakar", CommentsEnabled: true, EmailVerified: true, CreatedAt: created},
		{ID: 3, Email: "awa@example.com", FullName: "Awa Ndiaye", Role: sec.RoleClient, CommentsEnabled: true, CreatedAt: created},
	}
}

func newService(t *testing.T) (*account.Service, *fakeRepository, *session.Manager) {
	t.Helper()
	repo := newFakeRepository(seedUsers(t)...)
	sessions := session.NewManager(session.NewMemoryStore())
	return account.NewService(repo, sessions), repo, sessions
}

// signIn puts the Session of user id into testSlot, as a login would.
func signIn(t *testing.T, repo *fakeRepository, sessions *session.Manager, id int64) {
	t.Helper()
	user, found := repo.get(id)
	require.True(t, found)
	require.NoError(t, sessions.Set(context.Background(), testSlot, user.Snapshot(testSlot)))
}

/*
TestUpdateProfile_PartialUpdate verifies omitted fields are kept and the
slot's Session is re-normalized from the updated row.
*/
func TestUpdateProfile_PartialUpdate(t *testing.T) {
	service, repo, sessions := newService(t)
	signIn(t, repo, sessions, 2)

	user, err := service.UpdateProfile(context.Background(), 2, testSlot, account.UpdateProfileInput{
		City:        pointer.To("Thiès"),
		Description: pointer.To("Plombier depuis 2010"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Mamadou Diop", user.FullName)
	assert.Equal(t, "Thiès", user.City)

	stored, _ := repo.get(2)
	assert.Equal(t, "Thiès", stored.City)

	current, err := sessions.Get(context.Background(), testSlot)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "Thiès", current.City)
	assert.Equal(t, "Plombier depuis 2010", current.Description)
}

/*
TestUpdateProfile_PasswordChange requires the current password.
*/
func TestUpdateProfile_PasswordChange(t *testing.T) {
	tests := []struct {
		name    string
		current string
		wantErr bool
	}{
		{"correct current password", "current-pass", false},
		{"wrong current password", "guess", true},
		{"missing current password", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, repo, sessions := newService(t)
			signIn(t, repo, sessions, 2)

			_, err := service.UpdateProfile(context.Background(), 2, testSlot, account.UpdateProfileInput{
				FullName:        pointer.To("Changed"),
				NewPassword:     pointer.To("new-password"),
				CurrentPassword: tt.current,
			})

			stored, _ := repo.get(2)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, 401, apperr.As(err).HTTPStatus)
				assert.Equal(t, "Mamadou Diop", stored.FullName)
				assert.True(t, sec.CheckPasswordHash("current-pass", stored.PasswordHash))

				current, _ := sessions.Get(context.Background(), testSlot)
				require.NotNil(t, current)
				assert.Equal(t, "Mamadou Diop", current.FullName)
				return
			}

			require.NoError(t, err)
			assert.True(t, sec.CheckPasswordHash("new-password", stored.PasswordHash))
		})
	}
}

/*
TestUpdateProfile_RequiresOwnSession refuses to write a slot that does not hold
the caller's Session.
*/
func TestUpdateProfile_RequiresOwnSession(t *testing.T) {
	tests := []struct {
		name     string
		occupant int64 // 0 leaves the slot empty
	}{
		{"empty slot", 0},
		{"slot held by another user", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, repo, sessions := newService(t)
			if tt.occupant != 0 {
				signIn(t, repo, sessions, tt.occupant)
			}

			_, err := service.UpdateProfile(context.Background(), 3, testSlot, account.UpdateProfileInput{
				City: pointer.To("Ziguinchor"),
			})
			require.Error(t, err)
			assert.True(t, apperr.HasCode(err, "UNAUTHORIZED"))

			stored, _ := repo.get(3)
			assert.NotEqual(t, "Ziguinchor", stored.City)

			current, err := sessions.Get(context.Background(), testSlot)
			require.NoError(t, err)
			if tt.occupant == 0 {
				assert.Nil(t, current)
			} else {
				require.NotNil(t, current)
				assert.Equal(t, tt.occupant, current.UserID)
			}
		})
	}
}

/*
TestUpdateProfile_BlockedClearsSlot drops the Session of a blocked user and
writes nothing.
*/
func TestUpdateProfile_BlockedClearsSlot(t *testing.T) {
	service, repo, sessions := newService(t)
	signIn(t, repo, sessions, 2)

	_, err := service.SetBlocked(context.Background(), adminID, 2, true)
	require.NoError(t, err)

	_, err = service.UpdateProfile(context.Background(), 2, testSlot, account.UpdateProfileInput{
		City: pointer.To("Kaolack"),
	})
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeAccountBlocked))

	stored, _ := repo.get(2)
	assert.Equal(t, "Dakar", stored.City)

	current, err := sessions.Get(context.Background(), testSlot)
	require.NoError(t, err)
	assert.Nil(t, current)
}

/*
TestListUsers filters by role and paginates.
*/
func TestListUsers(t *testing.T) {
	service, _, _ := newService(t)

	all, meta, err := service.ListUsers(context.Background(), account.ListFilter{Params: pagination.Params{Page: 1, Limit: 2}})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, 3, meta.Total)
	assert.Equal(t, 2, meta.TotalPages)

	technicians, meta, err := service.ListUsers(context.Background(), account.ListFilter{
		Roles: []sec.UserRole{sec.RoleTechnician}, Params: pagination.Params{Page: 1, Limit: 20},
	})
	require.NoError(t, err)
	require.Len(t, technicians, 1)
	assert.Equal(t, "diop@example.com", technicians[0].Email)
	assert.Equal(t, 1, meta.Total)

	empty, _, err := service.ListUsers(context.Background(), account.ListFilter{Params: pagination.Params{Page: 9, Limit: 20}})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

/*
TestAdminFlags covers block/unblock and the comments switch.
*/
func TestAdminFlags(t *testing.T) {
	service, repo, _ := newService(t)
	ctx := context.Background()

	blocked, err := service.SetBlocked(ctx, adminID, 2, true)
	require.NoError(t, err)
	assert.True(t, blocked.IsBlocked)
	assert.True(t, blocked.CommentsEnabled)

	_, err = service.SetBlocked(ctx, adminID, 2, false)
	require.NoError(t, err)
	stored, _ := repo.get(2)
	assert.False(t, stored.IsBlocked)

	muted, err := service.SetCommentsEnabled(ctx, 3, false)
	require.NoError(t, err)
	assert.False(t, muted.CommentsEnabled)

	_, err = service.SetBlocked(ctx, adminID, adminID, true)
	assert.True(t, apperr.HasCode(err, "FORBIDDEN"))

	_, err = service.SetBlocked(ctx, adminID, 99, true)
	assert.True(t, apperr.IsNotFound(err))
}

/*
TestAdminDeleteAndPassword covers the destructive admin actions.
*/
func TestAdminDeleteAndPassword(t *testing.T) {
	service, repo, _ := newService(t)
	ctx := context.Background()

	require.NoError(t, service.SetPassword(ctx, 3, "reset-pass"))
	stored, _ := repo.get(3)
	assert.True(t, sec.CheckPasswordHash("reset-pass", stored.PasswordHash))

	require.NoError(t, service.DeleteUser(ctx, adminID, 3))
	assert.Equal(t, []int64{3}, repo.deleted)
	assert.True(t, apperr.IsNotFound(service.DeleteUser(ctx, adminID, 3)))

	err := service.DeleteUser(ctx, adminID, adminID)
	assert.True(t, apperr.HasCode(err, "FORBIDDEN"))
}
