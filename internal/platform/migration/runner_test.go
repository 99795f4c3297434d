// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package migration_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/samatechnicien/samatech/internal/platform/migration"
)

func TestPgxDSN(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@db:5432/sama", migration.PgxDSN("postgres://u:p@db:5432/sama"))
	assert.Equal(t, "pgx5://u:p@db:5432/sama", migration.PgxDSN("postgresql://u:p@db:5432/sama"))
	assert.Equal(t, "pgx5://u:p@db:5432/sama", migration.PgxDSN("pgx5://u:p@db:5432/sama"))
}
