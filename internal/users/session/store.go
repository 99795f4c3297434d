// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrInvalidSlot is returned for an empty slot id or one that is unsafe as a storage key.
var ErrInvalidSlot = errors.New("session: invalid slot id")

// # Storage Contract

/*
Store persists at most one Session per slot.

Methods:
  - Get: returns (nil, nil) when the slot is empty.
  - Set: overwrites whatever the slot held.
  - Clear: empties the slot; clearing an empty slot is not an error.
*/
type Store interface {
	Get(ctx context.Context, slot string) (*Session, error)
	Set(ctx context.Context, slot string, session *Session) error
	Clear(ctx context.Context, slot string) error
}

// validSlot rejects ids that could escape a key namespace or a directory.
func validSlot(slot string) error {
	if slot == "" || len(slot) > 128 || strings.ContainsAny(slot, `/\:*?"<>| `) || strings.Contains(slot, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidSlot, slot)
	}
	return nil
}

// # Change Notifications

// AnySlot subscribes a listener to changes on every slot.
const AnySlot = "*"

// Change describes one write to a slot. Session is nil when the slot was cleared.
type Change struct {
	Slot    string
	Session *Session
}

// Listener receives slot changes. It runs synchronously on the writer's goroutine.
type Listener func(ctx context.Context, change Change)

// Manager wraps a Store and notifies subscribers after every Set and Clear.
type Manager struct {
	store Store

	mu        sync.RWMutex
	nextID    uint64
	listeners map[string]map[uint64]Listener
}

// NewManager creates a Manager over store.
func NewManager(store Store) *Manager {
	return &Manager{
		store:     store,
		listeners: make(map[string]map[uint64]Listener),
	}
}

// Get returns the Session held by slot, or nil when the slot is empty.
func (manager *Manager) Get(ctx context.Context, slot string) (*Session, error) {
	return manager.store.Get(ctx, slot)
}

// Set overwrites slot with session and notifies subscribers.
func (manager *Manager) Set(ctx context.Context, slot string, session *Session) error {
	if session == nil {
		return manager.Clear(ctx, slot)
	}

	session.Slot = slot
	if err := manager.store.Set(ctx, slot, session); err != nil {
		return err
	}

	manager.notify(ctx, Change{Slot: slot, Session: session})
	return nil
}

// Clear empties slot and notifies subscribers.
func (manager *Manager) Clear(ctx context.Context, slot string) error {
	if err := manager.store.Clear(ctx, slot); err != nil {
		return err
	}

	manager.notify(ctx, Change{Slot: slot})
	return nil
}

// Subscribe registers listener for changes on slot (or [AnySlot]).
// The returned function removes the listener; calling it twice is harmless.
func (manager *Manager) Subscribe(slot string, listener Listener) (unsubscribe func()) {
	manager.mu.Lock()
	defer manager.mu.Unlock()

	manager.nextID++
	id := manager.nextID

	if manager.listeners[slot] == nil {
		manager.listeners[slot] = make(map[uint64]Listener)
	}
	manager.listeners[slot][id] = listener

	return func() {
		manager.mu.Lock()
		defer manager.mu.Unlock()

		delete(manager.listeners[slot], id)
		if len(manager.listeners[slot]) == 0 {
			delete(manager.listeners, slot)
		}
	}
}

func (manager *Manager) notify(ctx context.Context, change Change) {
	manager.mu.RLock()
	targets := make([]Listener, 0, len(manager.listeners[change.Slot])+len(manager.listeners[AnySlot]))
	for _, listener := range manager.listeners[change.Slot] {
		targets = append(targets, listener)
	}
	if change.Slot != AnySlot {
		for _, listener := range manager.listeners[AnySlot] {
			targets = append(targets, listener)
		}
	}
	manager.mu.RUnlock()

	for _, listener := range targets {
		listener(ctx, change)
	}
}
