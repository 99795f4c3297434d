// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pagination_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/samatechnicien/samatech/pkg/pagination"
)

/*
TestFromRequest verifies query parsing and clamping of page/limit.
*/
func TestFromRequest(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  pagination.Params
	}{
		{"defaults", "", pagination.Params{Page: 1, Limit: 20}},
		{"explicit", "?page=3&limit=50", pagination.Params{Page: 3, Limit: 50}},
		{"negative page", "?page=-2", pagination.Params{Page: 1, Limit: 20}},
		{"limit too large", "?limit=500", pagination.Params{Page: 1, Limit: 20}},
		{"garbage", "?page=abc&limit=x", pagination.Params{Page: 1, Limit: 20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest("GET", "/admin/users"+tt.query, nil)
			assert.Equal(t, tt.want, pagination.FromRequest(request))
		})
	}
}

/*
TestMeta verifies offset and total page computation.
*/
func TestMeta(t *testing.T) {
	params := pagination.Params{Page: 3, Limit: 20}
	assert.Equal(t, 40, params.Offset())

	meta := pagination.NewMeta(params, 41)
	assert.Equal(t, 3, meta.TotalPages)
	assert.Equal(t, 41, meta.Total)

	assert.Equal(t, 0, pagination.Params{Page: 1, Limit: 20}.Offset())
	assert.Equal(t, 0, pagination.NewMeta(pagination.Params{Page: 1}, 10).TotalPages)
}
