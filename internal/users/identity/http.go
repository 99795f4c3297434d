// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/samatechnicien/samatech/internal/platform/apperr"
	"github.com/samatechnicien/samatech/internal/platform/constants"
	requestutil "github.com/samatechnicien/samatech/internal/platform/request"
	"github.com/samatechnicien/samatech/internal/platform/respond"
	"github.com/samatechnicien/samatech/internal/platform/sec"
	"github.com/samatechnicien/samatech/internal/platform/validate"
	"github.com/samatechnicien/samatech/internal/users/provider"
)

// # Definitions & Constructors

// EventPublisher forwards webhook events onto the push channel.
type EventPublisher interface {
	Publish(ctx context.Context, event provider.Event) error
}

// Handler implements the /auth endpoints.
//
// # Scope
//
// Every endpoint works on the session slot attached by the SessionSlot middleware.
type Handler struct {
	identityService *Service
	events          EventPublisher
	webhookSecret   string
}

// NewHandler constructs a new [Handler]. The webhook route is mounted only when
// both events and webhookSecret are set.
func NewHandler(service *Service, events EventPublisher, webhookSecret string) *Handler {
	return &Handler{identityService: service, events: events, webhookSecret: webhookSecret}
}

// Routes returns a [chi.Router] configured with identity routes.
//
// # Endpoints
//   - POST /register            : Creates a new account.
//   - POST /login               : Reconciles credentials into the slot's Session.
//   - GET  /session             : Returns the slot's Session.
//   - POST /logout              : Clears the slot.
//   - POST /resend-verification : Re-sends the confirmation email.
//   - POST /forgot-password     : Sends the password reset email.
//   - POST /events              : Provider webhook bridge.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/register", handler.register)
	router.Post("/login", handler.login)
	router.Get("/session", handler.currentSession)
	router.Post("/logout", handler.logout)
	router.Post("/resend-verification", handler.resendVerification)
	router.Post("/forgot-password", handler.forgotPassword)

	if handler.events != nil && handler.webhookSecret != "" {
		router.Post("/events", handler.providerEvent)
	}

	return router
}

// # Request Payloads

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FullName  string `json:"fullName"`
	Role      string `json:"role"`
	Specialty string `json:"specialty"`
	City      string `json:"city"`
	District  string `json:"district"`
	Phone     string `json:"phone"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type emailRequest struct {
	Email string `json:"email"`
}

/*
Register handles the creation of a new user account.

POST /api/v1/auth/register

Request:
  - Body: registerRequest

Response:
  - 201: User: Created account (email not yet verified)
  - 400: ValidationError
  - 409: Conflict: Email already registered
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, MinPasswordLength).
		Required(FieldFullName, input.FullName).
		MaxLen(FieldFullName, input.FullName, MaxNameLength).
		MaxLen(FieldSpecialty, input.Specialty, MaxNameLength).
		MaxLen(FieldCity, input.City, MaxNameLength).
		MaxLen(FieldDistrict, input.District, MaxNameLength)

	if input.Role != "" {
		validator.OneOf(FieldRole, input.Role, string(sec.RoleClient), string(sec.RoleTechnician))
	}
	if input.Phone != "" {
		validator.Phone(FieldPhone, input.Phone)
	}

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.identityService.Register(request.Context(), RegisterInput{
		Email:     input.Email,
		Password:  input.Password,
		FullName:  input.FullName,
		Role:      sec.UserRole(input.Role),
		Specialty: input.Specialty,
		City:      input.City,
		District:  input.District,
		Phone:     input.Phone,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user)
}

/*
Login reconciles credentials into the caller's slot.

POST /api/v1/auth/login

Response:
  - 200: LoginResult: Session, destination and access token
  - 401: INVALID_CREDENTIALS
  - 403: NEEDS_VERIFICATION (resend_available) or ACCOUNT_BLOCKED
  - 502: PROVIDER_ERROR
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email)
	validator.Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	slot, err := requestutil.RequiredSlot(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.identityService.Login(request.Context(), LoginInput{
		Email:    input.Email,
		Password: input.Password,
		Slot:     slot,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, result)
}

/*
CurrentSession returns the Session held in the caller's slot.

GET /api/v1/auth/session

Response:
  - 200: Session
  - 401: No session, or the account was deleted
  - 403: ACCOUNT_BLOCKED (the slot is cleared)
*/
func (handler *Handler) currentSession(writer http.ResponseWriter, request *http.Request) {
	slot, err := requestutil.RequiredSlot(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	current, err := handler.identityService.CurrentSession(request.Context(), slot)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, current)
}

/*
Logout clears the caller's slot.

POST /api/v1/auth/logout

Response:
  - 204: No Content
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	slot, err := requestutil.RequiredSlot(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.identityService.Logout(request.Context(), slot); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
ResendVerification re-sends the confirmation email.

POST /api/v1/auth/resend-verification

Response:
  - 200: Always, once the body is valid
*/
func (handler *Handler) resendVerification(writer http.ResponseWriter, request *http.Request) {
	email, ok := handler.decodeEmail(writer, request)
	if !ok {
		return
	}

	handler.identityService.ResendVerification(request.Context(), email)
	respond.OK(writer, map[string]string{"message": "If the address is registered, a confirmation email is on its way"})
}

/*
ForgotPassword sends the password reset email.

POST /api/v1/auth/forgot-password

Response:
  - 200: Always, once the body is valid
*/
func (handler *Handler) forgotPassword(writer http.ResponseWriter, request *http.Request) {
	email, ok := handler.decodeEmail(writer, request)
	if !ok {
		return
	}

	handler.identityService.ForgotPassword(request.Context(), email)
	respond.OK(writer, map[string]string{"message": "If the address is registered, a reset link is on its way"})
}

func (handler *Handler) decodeEmail(writer http.ResponseWriter, request *http.Request) (string, bool) {
	var input emailRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return "", false
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).Email(FieldEmail, input.Email)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return "", false
	}

	return input.Email, true
}

/*
ProviderEvent republishes a provider session event onto the push channel.

POST /api/v1/auth/events

Request:
  - Header: X-Webhook-Secret
  - Body: provider.Event

Response:
  - 202: Accepted
  - 401: Missing or wrong secret
*/
func (handler *Handler) providerEvent(writer http.ResponseWriter, request *http.Request) {
	secret := request.Header.Get(constants.ProviderEventSecretHeader)
	if subtle.ConstantTimeCompare([]byte(secret), []byte(handler.webhookSecret)) != 1 {
		respond.Error(writer, request, apperr.Unauthorized("Invalid webhook secret"))
		return
	}

	var event provider.Event
	if err := requestutil.DecodeJSON(request, &event); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required("event_type", string(event.Type)).Required("slot", event.Slot)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.events.Publish(request.Context(), event); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.JSON(writer, http.StatusAccepted, respond.SuccessEnvelope{Data: map[string]string{"status": "accepted"}})
}
