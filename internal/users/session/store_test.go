// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samatechnicien/samatech/internal/users/session"
)

const testSlot = "01920a4c-7a7b-7cc2-9d1e-3f5a6b7c8d9e"

func sampleSession() *session.Session {
	return &session.Session{
		Slot: testSlot, UserID: 42, Email: "diop@example.com", FullName: "Diop",
		Role: "technician", CommentsEnabled: true, EmailVerified: true,
		CreatedAt: time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC),
	}
}

func newStores(t *testing.T) map[string]session.Store {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	fileStore, err := session.NewFileStore(t.TempDir())
	require.NoError(t, err)

	return map[string]session.Store{
		"memory": session.NewMemoryStore(),
		"redis":  session.NewRedisStore(client, time.Hour),
		"file":   fileStore,
	}
}

/*
TestStores_RoundTrip verifies the single-slot contract on every implementation:
empty reads are (nil, nil), Set overwrites, Clear empties and is idempotent.
*/
func TestStores_RoundTrip(t *testing.T) {
	ctx := context.Background()

	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			empty, err := store.Get(ctx, testSlot)
			require.NoError(t, err)
			assert.Nil(t, empty)

			written := sampleSession()
			require.NoError(t, store.Set(ctx, testSlot, written))

			read, err := store.Get(ctx, testSlot)
			require.NoError(t, err)
			assert.Equal(t, written, read)

			updated := sampleSession()
			updated.FullName = "Awa Diop"
			require.NoError(t, store.Set(ctx, testSlot, updated))

			read, err = store.Get(ctx, testSlot)
			require.NoError(t, err)
			assert.Equal(t, "Awa Diop", read.FullName)

			require.NoError(t, store.Clear(ctx, testSlot))
			require.NoError(t, store.Clear(ctx, testSlot))

			cleared, err := store.Get(ctx, testSlot)
			require.NoError(t, err)
			assert.Nil(t, cleared)
		})
	}
}

/*
TestStores_InvalidSlot rejects ids that could escape the key namespace.
*/
func TestStores_InvalidSlot(t *testing.T) {
	ctx := context.Background()

	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			for _, slot := range []string{"", "../etc/passwd", "a/b", "session:slot:x"} {
				_, err := store.Get(ctx, slot)
				assert.ErrorIs(t, err, session.ErrInvalidSlot, slot)
			}
		})
	}
}

/*
TestRedisStore_TTL verifies slots expire after the configured lifetime.
*/
func TestRedisStore_TTL(t *testing.T) {
	ctx := context.Background()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	store := session.NewRedisStore(client, 7*24*time.Hour)
	require.NoError(t, store.Set(ctx, testSlot, sampleSession()))

	assert.Equal(t, 7*24*time.Hour, server.TTL("session:slot:"+testSlot))

	server.FastForward(7*24*time.Hour + time.Second)
	expired, err := store.Get(ctx, testSlot)
	require.NoError(t, err)
	assert.Nil(t, expired)
}

/*
TestFileStore_Permissions verifies the slot file is owner-only.
*/
func TestFileStore_Permissions(t *testing.T) {
	dir := t.TempDir()
	store, err := session.NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Set(context.Background(), testSlot, sampleSession()))

	info, err := os.Stat(filepath.Join(dir, testSlot+".json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

/*
TestManager_Notifications verifies slot and wildcard listeners fire on Set and
Clear, and stop firing after unsubscribe.
*/
func TestManager_Notifications(t *testing.T) {
	ctx := context.Background()
	manager := session.NewManager(session.NewMemoryStore())

	var mu sync.Mutex
	var slotChanges, allChanges []session.Change

	unsubscribe := manager.Subscribe(testSlot, func(_ context.Context, change session.Change) {
		mu.Lock()
		defer mu.Unlock()
		slotChanges = append(slotChanges, change)
	})
	manager.Subscribe(session.AnySlot, func(_ context.Context, change session.Change) {
		mu.Lock()
		defer mu.Unlock()
		allChanges = append(allChanges, change)
	})

	require.NoError(t, manager.Set(ctx, testSlot, sampleSession()))
	require.NoError(t, manager.Clear(ctx, testSlot))

	require.Len(t, slotChanges, 2)
	assert.NotNil(t, slotChanges[0].Session)
	assert.Nil(t, slotChanges[1].Session)
	assert.Len(t, allChanges, 2)

	unsubscribe()
	unsubscribe()

	other := "01920a4c-0000-7cc2-9d1e-3f5a6b7c8d9e"
	require.NoError(t, manager.Set(ctx, testSlot, sampleSession()))
	require.NoError(t, manager.Set(ctx, other, sampleSession()))

	assert.Len(t, slotChanges, 2)
	assert.Len(t, allChanges, 4)

	stored, err := manager.Get(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, other, stored.Slot)
}
