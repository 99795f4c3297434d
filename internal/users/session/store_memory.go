// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"sync"
)

// MemoryStore keeps slots in process memory. Values are copied on the way in
// and out so callers never share a *Session with the store.
type MemoryStore struct {
	mu    sync.RWMutex
	slots map[string]Session
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{slots: make(map[string]Session)}
}

func (store *MemoryStore) Get(_ context.Context, slot string) (*Session, error) {
	if err := validSlot(slot); err != nil {
		return nil, err
	}

	store.mu.RLock()
	defer store.mu.RUnlock()

	value, found := store.slots[slot]
	if !found {
		return nil, nil
	}
	return &value, nil
}

func (store *MemoryStore) Set(_ context.Context, slot string, session *Session) error {
	if err := validSlot(slot); err != nil {
		return err
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	store.slots[slot] = *session
	return nil
}

func (store *MemoryStore) Clear(_ context.Context, slot string) error {
	if err := validSlot(slot); err != nil {
		return err
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	delete(store.slots, slot)
	return nil
}
