// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package client

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/samatechnicien/samatech/internal/users/session"
	"github.com/samatechnicien/samatech/pkg/uuid"
)

const slotFileName = "slot"

// State is the CLI's on-disk identity: a stable slot id plus the last Session
// the server reported for it.
type State struct {
	Slot  string
	store session.Store
}

/*
OpenState loads the slot id from dir, minting and persisting a new one on first
use, and opens the file-backed Session store next to it.

Parameters:
  - dir: string (created with 0700 if missing)

Returns:
  - *State: Ready-to-use local state
  - error: Filesystem failures
*/
func OpenState(dir string) (*State, error) {
	store, err := session.NewFileStore(dir)
	if err != nil {
		return nil, err
	}

	slot, err := loadOrCreateSlot(filepath.Join(dir, slotFileName))
	if err != nil {
		return nil, err
	}

	return &State{Slot: slot, store: store}, nil
}

// Session returns the locally mirrored Session, or nil if none.
func (state *State) Session(ctx context.Context) (*session.Session, error) {
	return state.store.Get(ctx, state.Slot)
}

// Save mirrors current locally. A nil session empties the local slot.
func (state *State) Save(ctx context.Context, current *session.Session) error {
	if current == nil {
		return state.store.Clear(ctx, state.Slot)
	}
	return state.store.Set(ctx, state.Slot, current)
}

func loadOrCreateSlot(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		if slot := strings.TrimSpace(string(data)); uuid.Valid(slot) {
			return slot, nil
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("client_slot_read_failed: %w", err)
	}

	slot := uuid.New()
	if err := os.WriteFile(path, []byte(slot+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("client_slot_write_failed: %w", err)
	}
	return slot, nil
}
