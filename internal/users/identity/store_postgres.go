// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samatechnicien/samatech/internal/platform/database/schema"
	"github.com/samatechnicien/samatech/internal/platform/dberr"
)

// # User Repository

// PostgresUserRepository implements [UserRepository] over the public.users table.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// ScanUser reads one row selected with [schema.UserColumns] into a User.
func ScanUser(row pgx.Row) (*User, error) {
	user := &User{}
	var authID *string

	err := row.Scan(
		&user.ID,
		&authID,
		&user.Email,
		&user.PasswordHash,
		&user.FullName,
		&user.Role,
		&user.Specialty,
		&user.City,
		&user.District,
		&user.Phone,
		&user.Image,
		&user.Description,
		&user.CommentsEnabled,
		&user.IsBlocked,
		&user.EmailVerified,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if authID != nil {
		user.AuthID = *authID
	}
	return user, nil
}

/*
FindByEmail retrieves a user by case-insensitive email.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *User: Hydrated entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE lower(%s) = lower($1)`,
		schema.UserColumns, schema.Users.Table, schema.Users.Email)

	user, err := ScanUser(repository.pool.QueryRow(context, query, email))
	if err != nil {
		return nil, dberr.Wrap(err, "User", "identity_repo_find_by_email_failed")
	}
	return user, nil
}

/*
FindByID retrieves a user by primary key.
*/
func (repository *PostgresUserRepository) FindByID(context context.Context, id int64) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		schema.UserColumns, schema.Users.Table, schema.Users.ID)

	user, err := ScanUser(repository.pool.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "User", "identity_repo_find_by_id_failed")
	}
	return user, nil
}

/*
Create inserts a new user row. The database assigns id and timestamps.

Parameters:
  - context: context.Context
  - user: *User (ID, CreatedAt and UpdatedAt are filled in)

Returns:
  - error: apperr.Conflict on duplicate email, or database errors
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (
			%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING %s, %s, %s`,
		schema.Users.Table,
		schema.Users.Email, schema.Users.PasswordHash, schema.Users.FullName, schema.Users.Role,
		schema.Users.Specialty, schema.Users.City, schema.Users.District, schema.Users.Phone,
		schema.Users.AvatarURL, schema.Users.Description, schema.Users.CommentsEnabled,
		schema.Users.IsBlocked, schema.Users.EmailVerified,
		schema.Users.ID, schema.Users.CreatedAt, schema.Users.UpdatedAt,
	)

	err := repository.pool.QueryRow(context, query,
		user.Email,
		user.PasswordHash,
		user.FullName,
		user.Role,
		user.Specialty,
		user.City,
		user.District,
		user.Phone,
		user.Image,
		user.Description,
		user.CommentsEnabled,
		user.IsBlocked,
		user.EmailVerified,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		return dberr.Wrap(err, "User", "identity_repo_create_failed")
	}
	return nil
}

/*
MarkVerified flips email_verified to true. Rows already verified are untouched,
so repeated calls change nothing.
*/
func (repository *PostgresUserRepository) MarkVerified(context context.Context, id int64) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = TRUE, %s = NOW() WHERE %s = $1 AND %s = FALSE`,
		schema.Users.Table, schema.Users.EmailVerified, schema.Users.UpdatedAt,
		schema.Users.ID, schema.Users.EmailVerified)

	if _, err := repository.pool.Exec(context, query, id); err != nil {
		return fmt.Errorf("identity_repo_mark_verified_failed: %w", err)
	}
	return nil
}

/*
UpdatePassword replaces the stored credential of one user.
*/
func (repository *PostgresUserRepository) UpdatePassword(context context.Context, id int64, hash string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = NOW() WHERE %s = $1`,
		schema.Users.Table, schema.Users.PasswordHash, schema.Users.UpdatedAt, schema.Users.ID)

	tag, err := repository.pool.Exec(context, query, id, hash)
	if err != nil {
		return fmt.Errorf("identity_repo_update_password_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, "User", "identity_repo_update_password_failed")
	}
	return nil
}
