// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/samatechnicien/samatech/internal/platform/apperr"
	"github.com/samatechnicien/samatech/internal/platform/middleware"
	requestutil "github.com/samatechnicien/samatech/internal/platform/request"
	"github.com/samatechnicien/samatech/internal/platform/respond"
	"github.com/samatechnicien/samatech/internal/platform/sec"
	"github.com/samatechnicien/samatech/internal/platform/validate"
	"github.com/samatechnicien/samatech/internal/users/identity"
	"github.com/samatechnicien/samatech/pkg/pagination"
	"github.com/samatechnicien/samatech/pkg/query"
)

// Handler implements the HTTP layer for profile and admin user management.
//
// # Security
//
// Profile routes require an access token; admin routes additionally require the admin role.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// ProfileRoutes returns the routes mounted at /api/v1/account.
func (handler *Handler) ProfileRoutes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/profile", handler.getProfile)
	router.Put("/profile", handler.updateProfile)
	router.With(middleware.RequireRole(sec.RoleTechnician)).Get("/technician", handler.getTechnicianCard)

	return router
}

// AdminRoutes returns the routes mounted at /api/v1/admin.
func (handler *Handler) AdminRoutes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth, middleware.RequireRole(sec.RoleAdmin))

	router.Get("/users", handler.listUsers)
	router.Patch("/users/{id}/block", handler.setBlocked)
	router.Patch("/users/{id}/comments", handler.setComments)
	router.Put("/users/{id}/password", handler.setPassword)
	router.Delete("/users/{id}", handler.deleteUser)

	return router
}

// # Request Payloads

type updateProfileRequest struct {
	FullName        *string `json:"fullName"`
	Specialty       *string `json:"specialty"`
	City            *string `json:"city"`
	District        *string `json:"district"`
	Phone           *string `json:"phone"`
	Image           *string `json:"image"`
	Description     *string `json:"description"`
	NewPassword     *string `json:"newPassword"`
	CurrentPassword string  `json:"currentPassword"`
}

type blockRequest struct {
	Blocked bool `json:"blocked"`
}

type commentsRequest struct {
	Enabled bool `json:"enabled"`
}

type passwordRequest struct {
	Password string `json:"password"`
}

// # Profile Endpoints

/*
GET /api/v1/account/profile.

Response:
  - 200: User: Fully hydrated user profile
  - 401: Authentication required
*/
func (handler *Handler) getProfile(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.GetProfile(request.Context(), claims.NumericUserID())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
GET /api/v1/account/technician.

Description: The caller's public technician card, as clients see it.

Response:
  - 200: TechnicianCard
  - 403: Caller is not a technician
*/
func (handler *Handler) getTechnicianCard(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.GetProfile(request.Context(), claims.NumericUserID())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, CardOf(user))
}

/*
PUT /api/v1/account/profile.

Description: Partial update. Omitted fields keep their value. Changing the
password requires currentPassword.

Response:
  - 200: Session: The re-normalized Session now held in the caller's slot
  - 400: Validation failure
  - 401: Wrong current password, or the token and slot do not match
  - 403: Account blocked (the slot is cleared)
*/
func (handler *Handler) updateProfile(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	slot, err := requestutil.RequiredSlot(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if claims.Slot != slot {
		respond.Error(writer, request, apperr.Unauthorized("Token was not issued for this session slot"))
		return
	}

	var input updateProfileRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	if input.FullName != nil {
		validator.Required(identity.FieldFullName, *input.FullName).
			MaxLen(identity.FieldFullName, *input.FullName, identity.MaxNameLength)
	}
	if input.Specialty != nil {
		validator.MaxLen(identity.FieldSpecialty, *input.Specialty, identity.MaxNameLength)
	}
	if input.City != nil {
		validator.MaxLen(identity.FieldCity, *input.City, identity.MaxNameLength)
	}
	if input.District != nil {
		validator.MaxLen(identity.FieldDistrict, *input.District, identity.MaxNameLength)
	}
	if input.Phone != nil && *input.Phone != "" {
		validator.Phone(identity.FieldPhone, *input.Phone)
	}
	if input.Description != nil {
		validator.MaxLen(identity.FieldDescription, *input.Description, identity.MaxDescriptionLength)
	}
	if input.NewPassword != nil {
		validator.MinLen(identity.FieldPassword, *input.NewPassword, identity.MinPasswordLength)
	}

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.UpdateProfile(request.Context(), claims.NumericUserID(), slot, UpdateProfileInput{
		FullName:        input.FullName,
		Specialty:       input.Specialty,
		City:            input.City,
		District:        input.District,
		Phone:           input.Phone,
		Image:           input.Image,
		Description:     input.Description,
		NewPassword:     input.NewPassword,
		CurrentPassword: input.CurrentPassword,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user.Snapshot(slot))
}

// # Admin Endpoints

/*
GET /api/v1/admin/users?role=technician,client&page=1&limit=20.

Response:
  - 200: Paginated list of UserSummary
*/
func (handler *Handler) listUsers(writer http.ResponseWriter, request *http.Request) {
	var roles []sec.UserRole
	for _, role := range query.Values(request.URL.Query(), "role") {
		if !sec.UserRole(role).Valid() {
			respond.Error(writer, request, validate.RequiredError(identity.FieldRole, "unknown role "+role))
			return
		}
		roles = append(roles, sec.UserRole(role))
	}

	users, meta, err := handler.accountService.ListUsers(request.Context(), ListFilter{
		Roles:  roles,
		Params: pagination.FromRequest(request),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, users, meta)
}

/*
PATCH /api/v1/admin/users/{id}/block.

Request:
  - Body: {"blocked": bool}
*/
func (handler *Handler) setBlocked(writer http.ResponseWriter, request *http.Request) {
	claims, userID, ok := handler.adminTarget(writer, request)
	if !ok {
		return
	}

	var input blockRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	user, err := handler.accountService.SetBlocked(request.Context(), claims.NumericUserID(), userID, input.Blocked)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
PATCH /api/v1/admin/users/{id}/comments.

Request:
  - Body: {"enabled": bool}
*/
func (handler *Handler) setComments(writer http.ResponseWriter, request *http.Request) {
	_, userID, ok := handler.adminTarget(writer, request)
	if !ok {
		return
	}

	var input commentsRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	user, err := handler.accountService.SetCommentsEnabled(request.Context(), userID, input.Enabled)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
PUT /api/v1/admin/users/{id}/password.

Response:
  - 204: Password replaced
*/
func (handler *Handler) setPassword(writer http.ResponseWriter, request *http.Request) {
	_, userID, ok := handler.adminTarget(writer, request)
	if !ok {
		return
	}

	var input passwordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(identity.FieldPassword, input.Password).
		MinLen(identity.FieldPassword, input.Password, identity.MinPasswordLength)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.SetPassword(request.Context(), userID, input.Password); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
DELETE /api/v1/admin/users/{id}.

Description: Removes the user's products, reviews, discussion messages and
discussions, then the user, in one transaction.

Response:
  - 204: Deleted
  - 404: Unknown user
*/
func (handler *Handler) deleteUser(writer http.ResponseWriter, request *http.Request) {
	claims, userID, ok := handler.adminTarget(writer, request)
	if !ok {
		return
	}

	if err := handler.accountService.DeleteUser(request.Context(), claims.NumericUserID(), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

func (handler *Handler) adminTarget(writer http.ResponseWriter, request *http.Request) (*sec.AuthClaims, int64, bool) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return nil, 0, false
	}

	userID, err := requestutil.Int64Param(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return nil, 0, false
	}

	return claims, userID, true
}
