// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package client is the HTTP client for the SamaTechnicien identity API used by
the samatech CLI.

Every request carries the caller's slot id in the X-Session-Slot header, so the
server reconciles into the same slot the CLI mirrors locally. Error responses
are decoded back into [apperr.AppError] values, which keeps the taxonomy codes
(INVALID_CREDENTIALS, NEEDS_VERIFICATION, ...) comparable with apperr.HasCode.
*/
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/samatechnicien/samatech/internal/platform/apperr"
	"github.com/samatechnicien/samatech/internal/platform/constants"
	"github.com/samatechnicien/samatech/internal/platform/respond"
	"github.com/samatechnicien/samatech/internal/users/session"
)

// DefaultPollInterval is how often WaitForSession asks the server for the slot.
const DefaultPollInterval = 2 * time.Second

// LoginResult mirrors the body of a successful POST /auth/login.
type LoginResult struct {
	Session     *session.Session `json:"session"`
	Destination string           `json:"destination"`
	AccessToken string           `json:"access_token"`
}

// Client talks to one API base URL on behalf of one slot.
type Client struct {
	baseURL    string
	slot       string
	httpClient *http.Client
}

// New returns a Client. A nil httpClient gets a 15s timeout default.
func New(baseURL, slot string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		slot:       slot,
		httpClient: httpClient,
	}
}

// Slot returns the slot id this client sends.
func (client *Client) Slot() string {
	return client.slot
}

// # Operations

/*
Login reconciles email and password into the client's slot.

Returns:
  - *LoginResult: Session, role destination and access token
  - error: *apperr.AppError carrying the server's code, or a transport error
*/
func (client *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var result LoginResult
	body := map[string]string{"email": email, "password": password}
	if err := client.do(ctx, http.MethodPost, "/auth/login", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Session returns the Session held in the slot, or (nil, nil) when the slot is empty.
func (client *Client) Session(ctx context.Context) (*session.Session, error) {
	var current session.Session
	err := client.do(ctx, http.MethodGet, "/auth/session", nil, &current)
	if apperr.HasCode(err, "UNAUTHORIZED") {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &current, nil
}

// Logout clears the slot on the server.
func (client *Client) Logout(ctx context.Context) error {
	return client.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// ResendVerification asks the server to send a fresh confirmation email.
func (client *Client) ResendVerification(ctx context.Context, email string) error {
	return client.do(ctx, http.MethodPost, "/auth/resend-verification", map[string]string{"email": email}, nil)
}

/*
WaitForSession polls the slot until a Session appears, the context ends, or the
server answers with an error other than an empty slot.

It is used after "resend verification": clicking the emailed link signs the
slot in on the server side, and the poll picks that up.
*/
func (client *Client) WaitForSession(ctx context.Context, interval time.Duration) (*session.Session, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		current, err := client.Session(ctx)
		if err != nil {
			return nil, err
		}
		if current != nil {
			return current, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// # Transport

func (client *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("client_encode_failed: %w", err)
		}
		body = bytes.NewReader(data)
	}

	request, err := http.NewRequestWithContext(ctx, method, client.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("client_request_failed: %w", err)
	}
	request.Header.Set("Accept", "application/json")
	if payload != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	request.Header.Set(constants.HeaderSessionSlot, client.slot)

	response, err := client.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("client_transport_failed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode >= http.StatusBadRequest {
		return decodeError(response)
	}
	if out == nil || response.StatusCode == http.StatusNoContent {
		return nil
	}

	envelope := respond.SuccessEnvelope{Data: out}
	if err := json.NewDecoder(response.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("client_decode_failed: %w", err)
	}
	return nil
}

// decodeError rebuilds an AppError from the error envelope. Bodies that are
// not an envelope (proxies, load balancers) keep the status text as message.
func decodeError(response *http.Response) error {
	appErr := &apperr.AppError{
		Code:       "HTTP_" + fmt.Sprint(response.StatusCode),
		Message:    http.StatusText(response.StatusCode),
		HTTPStatus: response.StatusCode,
	}

	var envelope respond.ErrorEnvelope
	if err := json.NewDecoder(response.Body).Decode(&envelope); err != nil && !errors.Is(err, io.EOF) {
		return appErr
	}
	if envelope.Code != "" {
		appErr.Code = envelope.Code
	}
	if envelope.Error != "" {
		appErr.Message = envelope.Error
	}
	appErr.Details = envelope.Details
	appErr.Hint = envelope.Hint
	if envelope.ResendAvailable && appErr.Hint == "" {
		appErr.Hint = apperr.HintResendVerification
	}
	return appErr
}
