// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr maps low-level PostgreSQL errors onto application errors.
package dberr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/samatechnicien/samatech/internal/platform/apperr"
)

/*
Wrap inspects a database error and converts it into an [apperr.AppError].

Parameters:
  - err: error returned by pgx
  - resource: string (name used in NOT_FOUND / CONFLICT messages, e.g. "User")
  - action: string (snake_case operation name kept in the internal cause)

Returns:
  - error: nil, NOT_FOUND, CONFLICT or INTERNAL_ERROR
*/
func Wrap(err error, resource, action string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(resource)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			conflict := apperr.Conflict(resource + " already exists")
			conflict.Cause = err
			return conflict
		case pgerrcode.ForeignKeyViolation:
			conflict := apperr.Conflict(resource + " is still referenced")
			conflict.Cause = err
			return conflict
		}
	}

	return apperr.Internal(fmt.Errorf("%s: %w", action, err))
}

// IsUniqueViolation reports whether err is a PostgreSQL unique_violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
