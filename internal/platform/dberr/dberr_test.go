// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package dberr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/samatechnicien/samatech/internal/platform/apperr"
	"github.com/samatechnicien/samatech/internal/platform/dberr"
)

func TestWrap(t *testing.T) {
	assert.NoError(t, dberr.Wrap(nil, "User", "user_find"))

	notFound := apperr.As(dberr.Wrap(fmt.Errorf("scan: %w", pgx.ErrNoRows), "User", "user_find"))
	if assert.NotNil(t, notFound) {
		assert.Equal(t, http.StatusNotFound, notFound.HTTPStatus)
		assert.True(t, apperr.IsNotFound(notFound))
	}

	duplicate := &pgconn.PgError{Code: pgerrcode.UniqueViolation}
	conflict := apperr.As(dberr.Wrap(duplicate, "User", "user_create"))
	if assert.NotNil(t, conflict) {
		assert.Equal(t, http.StatusConflict, conflict.HTTPStatus)
	}
	assert.True(t, dberr.IsUniqueViolation(fmt.Errorf("insert: %w", duplicate)))

	internal := apperr.As(dberr.Wrap(errors.New("connection reset"), "User", "user_find"))
	if assert.NotNil(t, internal) {
		assert.Equal(t, http.StatusInternalServerError, internal.HTTPStatus)
	}
}
