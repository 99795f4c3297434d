// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samatechnicien/samatech/internal/platform/apperr"
	"github.com/samatechnicien/samatech/internal/platform/ctxutil"
	"github.com/samatechnicien/samatech/internal/platform/sec"
	"github.com/samatechnicien/samatech/internal/users/identity"
	"github.com/samatechnicien/samatech/pkg/pagination"
	"github.com/samatechnicien/samatech/pkg/pointer"
	"github.com/samatechnicien/samatech/pkg/slice"
)

// # Service Layer

// Service orchestrates profile edits and admin user management.
type Service struct {
	repository AdminRepository
	sessions   identity.SessionStore
}

// NewService constructs a new [Service] with its dependencies.
func NewService(repository AdminRepository, sessions identity.SessionStore) *Service {
	return &Service{repository: repository, sessions: sessions}
}

// # Profile Management

/*
GetProfile retrieves the full private identity of a user.

Parameters:
  - context: context.Context
  - userID: int64

Returns:
  - *identity.User: The hydrated user profile
  - error: Not found or execution failures
*/
func (service *Service) GetProfile(context context.Context, userID int64) (*identity.User, error) {
	user, err := service.repository.FindByID(context, userID)
	if err != nil {
		return nil, fmt.Errorf("account_service_get_profile_failed: %w", err)
	}
	return user, nil
}

// UpdateProfileInput defines the mutable subset of user profile fields.
// Nil fields are left unchanged.
type UpdateProfileInput struct {
	FullName    *string
	Specialty   *string
	City        *string
	District    *string
	Phone       *string
	Image       *string
	Description *string

	// NewPassword requires CurrentPassword.
	NewPassword     *string
	CurrentPassword string
}

/*
UpdateProfile applies a partial set of changes and re-emits the caller's Session.

Description: Requires slot to hold the caller's Session. Fetches the existing
row, overrides provided fields, persists them, optionally replaces the password
after checking the current one, and finally overwrites the Session held in slot
with the new snapshot. A blocked account has its slot cleared instead.

Parameters:
  - context: context.Context
  - userID: int64
  - slot: string (the caller's session slot)
  - input: UpdateProfileInput

Returns:
  - *identity.User: The updated user profile
  - error: Unauthorized when slot holds no Session of userID or on a wrong
    current password, AccountBlocked, or storage failures
*/
func (service *Service) UpdateProfile(context context.Context, userID int64, slot string, input UpdateProfileInput) (*identity.User, error) {
	current, err := service.sessions.Get(context, slot)
	if err != nil {
		return nil, fmt.Errorf("account_service_session_read_failed: %w", err)
	}
	if current == nil || current.UserID != userID {
		return nil, apperr.Unauthorized("No active session")
	}

	user, err := service.repository.FindByID(context, userID)
	if err != nil {
		return nil, fmt.Errorf("account_service_update_lookup_failed: %w", err)
	}

	if user.IsBlocked {
		if err := service.sessions.Clear(context, slot); err != nil {
			return nil, fmt.Errorf("account_service_session_clear_failed: %w", err)
		}
		return nil, apperr.AccountBlocked()
	}

	// Check the password change before writing anything.
	var newHash string
	if input.NewPassword != nil {
		if matched, _ := sec.VerifyCredential(input.CurrentPassword, user.PasswordHash); !matched {
			return nil, apperr.Unauthorized("Current password is incorrect")
		}
		newHash, err = sec.HashPassword(*input.NewPassword)
		if err != nil {
			return nil, fmt.Errorf("account_service_hash_failed: %w", err)
		}
	}

	user.FullName = pointer.Fallback(input.FullName, user.FullName)
	user.Specialty = pointer.Fallback(input.Specialty, user.Specialty)
	user.City = pointer.Fallback(input.City, user.City)
	user.District = pointer.Fallback(input.District, user.District)
	user.Phone = pointer.Fallback(input.Phone, user.Phone)
	user.Image = pointer.Fallback(input.Image, user.Image)
	user.Description = pointer.Fallback(input.Description, user.Description)

	if err := service.repository.UpdateProfile(context, user); err != nil {
		return nil, fmt.Errorf("account_service_update_failed: %w", err)
	}

	if newHash != "" {
		if err := service.repository.UpdatePassword(context, userID, newHash); err != nil {
			return nil, fmt.Errorf("account_service_password_failed: %w", err)
		}
		user.PasswordHash = newHash
	}

	if err := service.sessions.Set(context, slot, user.Snapshot(slot)); err != nil {
		return nil, fmt.Errorf("account_service_session_write_failed: %w", err)
	}

	ctxutil.GetLogger(context).Info("user_profile_updated",
		slog.Int64("user_id", userID),
		slog.Bool("password_changed", newHash != ""),
	)

	return user, nil
}

// # Admin Console

/*
ListUsers returns one page of users for the admin console.

Parameters:
  - context: context.Context
  - filter: ListFilter

Returns:
  - []UserSummary: Page of users
  - pagination.Meta: Page metadata
  - error: Retrieval errors
*/
func (service *Service) ListUsers(context context.Context, filter ListFilter) ([]UserSummary, pagination.Meta, error) {
	users, total, err := service.repository.List(context, filter)
	if err != nil {
		return nil, pagination.Meta{}, fmt.Errorf("account_service_list_failed: %w", err)
	}

	summaries := slice.Map(users, func(user *identity.User) UserSummary { return Summarize(user) })
	if summaries == nil {
		summaries = []UserSummary{}
	}
	return summaries, pagination.NewMeta(filter.Params, total), nil
}

/*
SetBlocked blocks or unblocks a user. Existing sessions are not touched here;
the next session check of a blocked user clears its slot.

Parameters:
  - context: context.Context
  - actorID: int64 (the admin performing the change)
  - userID: int64
  - blocked: bool

Returns:
  - UserSummary: Updated user
  - error: Forbidden on self-block, NotFound or storage failures
*/
func (service *Service) SetBlocked(context context.Context, actorID, userID int64, blocked bool) (UserSummary, error) {
	if actorID == userID && blocked {
		return UserSummary{}, apperr.Forbidden("Administrators cannot block themselves")
	}
	return service.updateFlags(context, userID, Flags{IsBlocked: pointer.To(blocked)})
}

// SetCommentsEnabled toggles whether a user may post comments.
func (service *Service) SetCommentsEnabled(context context.Context, userID int64, enabled bool) (UserSummary, error) {
	return service.updateFlags(context, userID, Flags{CommentsEnabled: pointer.To(enabled)})
}

func (service *Service) updateFlags(context context.Context, userID int64, flags Flags) (UserSummary, error) {
	user, err := service.repository.UpdateFlags(context, userID, flags)
	if err != nil {
		return UserSummary{}, fmt.Errorf("account_service_flags_failed: %w", err)
	}

	ctxutil.GetLogger(context).Info("admin_user_flags_updated",
		slog.Int64("user_id", userID),
		slog.Bool("is_blocked", user.IsBlocked),
		slog.Bool("comments_enabled", user.CommentsEnabled),
	)
	return Summarize(user), nil
}

// SetPassword replaces a user's password without the current one.
func (service *Service) SetPassword(context context.Context, userID int64, password string) error {
	hash, err := sec.HashPassword(password)
	if err != nil {
		return fmt.Errorf("account_service_hash_failed: %w", err)
	}
	if err := service.repository.UpdatePassword(context, userID, hash); err != nil {
		return fmt.Errorf("account_service_set_password_failed: %w", err)
	}

	ctxutil.GetLogger(context).Warn("admin_password_reset", slog.Int64("user_id", userID))
	return nil
}

/*
DeleteUser hard-deletes a user and everything that references them.

Parameters:
  - context: context.Context
  - actorID: int64
  - userID: int64

Returns:
  - error: Forbidden on self-delete, NotFound or storage failures
*/
func (service *Service) DeleteUser(context context.Context, actorID, userID int64) error {
	if actorID == userID {
		return apperr.Forbidden("Administrators cannot delete themselves")
	}
	if err := service.repository.DeleteCascade(context, userID); err != nil {
		return fmt.Errorf("account_service_delete_failed: %w", err)
	}

	ctxutil.GetLogger(context).Warn("admin_user_deleted", slog.Int64("user_id", userID), slog.Int64("actor_id", actorID))
	return nil
}
