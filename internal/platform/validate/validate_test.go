// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samatechnicien/samatech/internal/platform/apperr"
	"github.com/samatechnicien/samatech/internal/platform/validate"
)

/*
TestValidator_Required tests the mandatory field validation logic.
*/
func TestValidator_Required(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		hasError bool
	}{
		{"valid_string", "Awa Diop", false},
		{"empty_string", "", true},
		{"whitespace_only", "   ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.Required("fullName", tt.value)

			if !tt.hasError {
				assert.False(t, v.HasErrors())
				assert.Nil(t, v.Err())
				return
			}

			ae := apperr.As(v.Err())
			require.NotNil(t, ae)
			assert.Equal(t, "VALIDATION_ERROR", ae.Code)
			assert.Equal(t, "fullName", ae.Details[0].Field)
		})
	}
}

/*
TestValidator_Email checks the email format validation rule.
*/
func TestValidator_Email(t *testing.T) {
	tests := []struct {
		email   string
		isValid bool
	}{
		{"diop@example.com", true},
		{"awa.ndiaye+shop@samatechnicien.sn", true},
		{"not-an-email", false},
		{"Awa <awa@example.com>", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			v := &validate.Validator{}
			v.Email("email", tt.email)
			assert.Equal(t, !tt.isValid, v.HasErrors())
		})
	}
}

/*
TestValidator_Chain collects several failures into one error.
*/
func TestValidator_Chain(t *testing.T) {
	v := &validate.Validator{}
	v.Required("email", "").
		MinLen("password", "abc", 6).
		OneOf("role", "admin", "client", "technician").
		Phone("phone", "call me").
		Custom("currentPassword", true, "Required to change the password")

	ae := apperr.As(v.Err())
	require.NotNil(t, ae)
	assert.Len(t, ae.Details, 5)

	ok := &validate.Validator{}
	ok.Phone("phone", "+221 77 123 45 67").Phone("phone", "")
	assert.NoError(t, ok.Err())
}
