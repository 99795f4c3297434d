// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/supabase-community/gotrue-go/types"
	"github.com/supabase-community/supabase-go"
)

// AuthAPI is the subset of the GoTrue client used here. The Supabase SDK's
// Auth client satisfies it.
type AuthAPI interface {
	SignInWithEmailPassword(email, password string) (*types.TokenResponse, error)
	Signup(req types.SignupRequest) (*types.SignupResponse, error)
	Recover(req types.RecoverRequest) error
}

// SupabaseConfig holds the project coordinates of the managed provider.
type SupabaseConfig struct {
	URL         string
	AnonKey     string
	Timeout     time.Duration
	RedirectURL string
}

// Supabase implements [Client] over supabase-go, plus a direct call to the
// GoTrue /resend endpoint which the SDK does not expose.
type Supabase struct {
	auth       AuthAPI
	httpClient *http.Client
	config     SupabaseConfig
	logger     *slog.Logger
}

// NewSupabase builds the SDK client for the configured project.
func NewSupabase(config SupabaseConfig, logger *slog.Logger) (*Supabase, error) {
	client, err := supabase.NewClient(config.URL, config.AnonKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("provider_supabase_init_failed: %w", err)
	}
	return NewSupabaseWithAuth(client.Auth, config, logger), nil
}

// NewSupabaseWithAuth wires an explicit AuthAPI, used by tests.
func NewSupabaseWithAuth(auth AuthAPI, config SupabaseConfig, logger *slog.Logger) *Supabase {
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	config.URL = strings.TrimRight(config.URL, "/")

	return &Supabase{
		auth:       auth,
		httpClient: &http.Client{Timeout: config.Timeout},
		config:     config,
		logger:     logger,
	}
}

// # Sign In

func (client *Supabase) SignIn(ctx context.Context, email, credential string) (*Result, error) {
	response, err := withTimeout(ctx, client.config.Timeout, func() (*types.TokenResponse, error) {
		return client.auth.SignInWithEmailPassword(email, credential)
	})
	if err != nil {
		return nil, classifySignInError(err)
	}

	result := &Result{
		AuthID:         response.User.ID.String(),
		Email:          response.User.Email,
		AccessToken:    response.AccessToken,
		EmailConfirmed: response.User.EmailConfirmedAt != nil,
	}

	// A provider that signs in an unconfirmed identity is configured without
	// confirmation; treat it like the explicit unverified response.
	if !result.EmailConfirmed {
		return nil, ErrIdentityUnverified
	}
	return result, nil
}

// classifySignInError maps GoTrue error bodies onto the sentinel errors.
// The SDK reports failures as "response status code <n>: <body>".
func classifySignInError(err error) error {
	message := strings.ToLower(err.Error())

	switch {
	case strings.Contains(message, "email_not_confirmed"),
		strings.Contains(message, "email not confirmed"):
		return ErrIdentityUnverified

	case strings.Contains(message, "invalid_grant"),
		strings.Contains(message, "invalid_credentials"),
		strings.Contains(message, "invalid login credentials"),
		strings.Contains(message, "user_not_found"):
		return ErrCredentialRejected

	default:
		return fmt.Errorf("provider_sign_in_failed: %w", err)
	}
}

// # Sign Up & Recovery

func (client *Supabase) SignUp(ctx context.Context, email, credential string) error {
	_, err := withTimeout(ctx, client.config.Timeout, func() (*types.SignupResponse, error) {
		return client.auth.Signup(types.SignupRequest{Email: email, Password: credential})
	})
	if err != nil {
		return fmt.Errorf("provider_sign_up_failed: %w", err)
	}
	return nil
}

func (client *Supabase) RecoverPassword(ctx context.Context, email string) error {
	_, err := withTimeout(ctx, client.config.Timeout, func() (struct{}, error) {
		return struct{}{}, client.auth.Recover(types.RecoverRequest{Email: email})
	})
	if err != nil {
		return fmt.Errorf("provider_recover_failed: %w", err)
	}
	return nil
}

// # Resend Verification

type resendRequest struct {
	Type  string `json:"type"`
	Email string `json:"email"`
}

// ResendVerification calls POST /auth/v1/resend for a signup confirmation.
func (client *Supabase) ResendVerification(ctx context.Context, email string) error {
	ctx, cancel := context.WithTimeout(ctx, client.config.Timeout)
	defer cancel()

	body, err := json.Marshal(resendRequest{Type: "signup", Email: email})
	if err != nil {
		return fmt.Errorf("provider_resend_failed: %w", err)
	}

	endpoint := client.config.URL + "/auth/v1/resend"
	if client.config.RedirectURL != "" {
		endpoint += "?redirect_to=" + url.QueryEscape(client.config.RedirectURL)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("provider_resend_failed: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("apikey", client.config.AnonKey)
	request.Header.Set("Authorization", "Bearer "+client.config.AnonKey)

	response, err := client.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("provider_resend_failed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(response.Body, 4096))
		client.logger.Debug("provider_resend_rejected", slog.String("body", string(detail)))
		return fmt.Errorf("provider_resend_failed: status %d", response.StatusCode)
	}
	return nil
}

// withTimeout runs a context-unaware SDK call and gives up when ctx or the
// timeout expires. The abandoned call finishes in the background.
func withTimeout[T any](ctx context.Context, timeout time.Duration, call func() (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)

	go func() {
		value, err := call()
		done <- outcome{value: value, err: err}
	}()

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case result := <-done:
		return result.value, result.err
	}
}
