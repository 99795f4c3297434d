// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samatechnicien/samatech/internal/platform/database/schema"
	"github.com/samatechnicien/samatech/internal/platform/dberr"
	"github.com/samatechnicien/samatech/internal/platform/postgres"
	"github.com/samatechnicien/samatech/internal/platform/sec"
	"github.com/samatechnicien/samatech/internal/users/identity"
	"github.com/samatechnicien/samatech/pkg/slice"
)

// # Repository Implementation

// PostgresRepository implements [AdminRepository] over the users table.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Postgres implementation for profile and admin management.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

/*
FindByID retrieves a user record from the users table.

Parameters:
  - context: context.Context
  - id: int64

Returns:
  - *identity.User: Hydrated identity entity
  - error: apperr.NotFound or database execution failure
*/
func (repository *PostgresRepository) FindByID(context context.Context, id int64) (*identity.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		schema.UserColumns, schema.Users.Table, schema.Users.ID)

	user, err := identity.ScanUser(repository.pool.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "User", "account_repo_find_failed")
	}
	return user, nil
}

/*
UpdateProfile writes the profile columns. Email, role and flags are not touched.
*/
func (repository *PostgresRepository) UpdateProfile(context context.Context, user *identity.User) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = $4, %s = $5, %s = $6, %s = $7, %s = $8, %s = NOW()
		WHERE %s = $1
		RETURNING %s`,
		schema.Users.Table,
		schema.Users.FullName, schema.Users.Specialty, schema.Users.City, schema.Users.District,
		schema.Users.Phone, schema.Users.AvatarURL, schema.Users.Description, schema.Users.UpdatedAt,
		schema.Users.ID,
		schema.Users.UpdatedAt,
	)

	err := repository.pool.QueryRow(context, query,
		user.ID,
		user.FullName,
		user.Specialty,
		user.City,
		user.District,
		user.Phone,
		user.Image,
		user.Description,
	).Scan(&user.UpdatedAt)

	if err != nil {
		return dberr.Wrap(err, "User", "account_repo_update_failed")
	}
	return nil
}

/*
UpdatePassword replaces the stored credential of one user.
*/
func (repository *PostgresRepository) UpdatePassword(context context.Context, id int64, hash string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = NOW() WHERE %s = $1`,
		schema.Users.Table, schema.Users.PasswordHash, schema.Users.UpdatedAt, schema.Users.ID)

	tag, err := repository.pool.Exec(context, query, id, hash)
	if err != nil {
		return dberr.Wrap(err, "User", "account_repo_password_failed")
	}
	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, "User", "account_repo_password_failed")
	}
	return nil
}

/*
List returns one page of users, newest first.

Parameters:
  - context: context.Context
  - filter: ListFilter (empty Roles matches every role)

Returns:
  - []*identity.User: Page of rows
  - int: Total rows matching the filter
  - error: Database errors
*/
func (repository *PostgresRepository) List(context context.Context, filter ListFilter) ([]*identity.User, int, error) {
	where := fmt.Sprintf(`(coalesce(cardinality($1::text[]), 0) = 0 OR %s = ANY($1::text[]))`, schema.Users.Role)
	roles := slice.Map(filter.Roles, func(role sec.UserRole) string { return string(role) })

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s`, schema.Users.Table, where)
	if err := repository.pool.QueryRow(context, countQuery, roles).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "User", "account_repo_count_failed")
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE %s
		ORDER BY %s DESC, %s DESC
		LIMIT $2 OFFSET $3`,
		schema.UserColumns, schema.Users.Table, where, schema.Users.CreatedAt, schema.Users.ID)

	rows, err := repository.pool.Query(context, query, roles, filter.Limit, filter.Offset())
	if err != nil {
		return nil, 0, dberr.Wrap(err, "User", "account_repo_list_failed")
	}
	defer rows.Close()

	users := make([]*identity.User, 0, filter.Limit)
	for rows.Next() {
		user, err := identity.ScanUser(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "User", "account_repo_scan_failed")
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "User", "account_repo_list_failed")
	}

	return users, total, nil
}

/*
UpdateFlags applies the non-nil flags and returns the updated row.
*/
func (repository *PostgresRepository) UpdateFlags(context context.Context, id int64, flags Flags) (*identity.User, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = COALESCE($2, %s), %s = COALESCE($3, %s), %s = NOW()
		WHERE %s = $1
		RETURNING %s`,
		schema.Users.Table,
		schema.Users.IsBlocked, schema.Users.IsBlocked,
		schema.Users.CommentsEnabled, schema.Users.CommentsEnabled,
		schema.Users.UpdatedAt,
		schema.Users.ID,
		schema.UserColumns,
	)

	user, err := identity.ScanUser(repository.pool.QueryRow(context, query, id, flags.IsBlocked, flags.CommentsEnabled))
	if err != nil {
		return nil, dberr.Wrap(err, "User", "account_repo_flags_failed")
	}
	return user, nil
}

/*
DeleteCascade removes the rows referencing the user, children first, and then
the user row itself. Everything runs in one transaction.
*/
func (repository *PostgresRepository) DeleteCascade(context context.Context, id int64) error {
	return postgres.WithTx(context, repository.pool, func(tx pgx.Tx) error {
		for _, table := range schema.DependentsOfUser {
			if _, err := tx.Exec(context, dependentsQuery(table), id); err != nil {
				return dberr.Wrap(err, "User", "account_repo_cascade_"+table.Table+"_failed")
			}
		}

		query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.Users.Table, schema.Users.ID)
		tag, err := tx.Exec(context, query, id)
		if err != nil {
			return dberr.Wrap(err, "User", "account_repo_delete_failed")
		}
		if tag.RowsAffected() == 0 {
			return dberr.Wrap(pgx.ErrNoRows, "User", "account_repo_delete_failed")
		}
		return nil
	})
}

// dependentsQuery builds the DELETE for one owned table.
func dependentsQuery(table schema.OwnedTable) string {
	conditions := make([]string, len(table.OwnerColumns))
	for i, column := range table.OwnerColumns {
		conditions[i] = column + " = $1"
	}
	return fmt.Sprintf(`DELETE FROM %s WHERE %s`, table.Table, strings.Join(conditions, " OR "))
}
