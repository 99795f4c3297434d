// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/samatechnicien/samatech/internal/platform/apperr"
	"github.com/samatechnicien/samatech/internal/users/account"
	"github.com/samatechnicien/samatech/internal/users/identity"
)

const (
	testSlot = "01920a4c-7a7b-7cc2-9d1e-3f5a6b7c8d9e"
	adminID  = int64(1)
)

type fakeRepository struct {
	mu      sync.Mutex
	rows    map[int64]identity.User
	deleted []int64
}

func newFakeRepository(users ...identity.User) *fakeRepository {
	repo := &fakeRepository{rows: make(map[int64]identity.User)}
	for _, user := range users {
		repo.rows[user.ID] = user
	}
	return repo
}

func (repo *fakeRepository) get(id int64) (identity.User, bool) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	user, found := repo.rows[id]
	return user, found
}

func (repo *fakeRepository) FindByID(_ context.Context, id int64) (*identity.User, error) {
	user, found := repo.get(id)
	if !found {
		return nil, apperr.NotFound("User")
	}
	return &user, nil
}

func (repo *fakeRepository) UpdateProfile(_ context.Context, user *identity.User) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	stored, found := repo.rows[user.ID]
	if !found {
		return apperr.NotFound("User")
	}
	stored.FullName, stored.Specialty, stored.City = user.FullName, user.Specialty, user.City
	stored.District, stored.Phone, stored.Image, stored.Description = user.District, user.Phone, user.Image, user.Description
	repo.rows[user.ID] = stored
	return nil
}

func (repo *fakeRepository) UpdatePassword(_ context.Context, id int64, hash string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	stored, found := repo.rows[id]
	if !found {
		return apperr.NotFound("User")
	}
	stored.PasswordHash = hash
	repo.rows[id] = stored
	return nil
}

func (repo *fakeRepository) List(_ context.Context, filter account.ListFilter) ([]*identity.User, int, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	var matched []*identity.User
	for _, row := range repo.rows {
		if len(filter.Roles) == 0 || slices.Contains(filter.Roles, row.Role) {
			copied := row
			matched = append(matched, &copied)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	start := min(filter.Offset(), len(matched))
	end := min(start+filter.Limit, len(matched))
	return matched[start:end], len(matched), nil
}

func (repo *fakeRepository) UpdateFlags(_ context.Context, id int64, flags account.Flags) (*identity.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	stored, found := repo.rows[id]
	if !found {
		return nil, apperr.NotFound("User")
	}
	if flags.IsBlocked != nil {
		stored.IsBlocked = *flags.IsBlocked
	}
	if flags.CommentsEnabled != nil {
		stored.CommentsEnabled = *flags.CommentsEnabled
	}
	repo.rows[id] = stored
	return &stored, nil
}

func (repo *fakeRepository) DeleteCascade(_ context.Context, id int64) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, found := repo.rows[id]; !found {
		return apperr.NotFound("User")
	}
	delete(repo.rows, id)
	repo.deleted = append(repo.deleted, id)
	return nil
}
