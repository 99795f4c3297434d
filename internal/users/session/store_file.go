// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore keeps each slot as <dir>/<slot>.json with owner-only permissions.
// The CLI uses it as its client-side persisted slot.
type FileStore struct {
	dir string
}

// NewFileStore creates a FileStore rooted at dir, creating it (0700) if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("session_file_mkdir_failed: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (store *FileStore) path(slot string) string {
	return filepath.Join(store.dir, slot+".json")
}

func (store *FileStore) Get(_ context.Context, slot string) (*Session, error) {
	if err := validSlot(slot); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(store.path(slot))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session_file_read_failed: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("session_file_decode_failed: %w", err)
	}
	return &session, nil
}

// Set writes to a temporary file and renames it over the slot file, so a
// crash never leaves a half-written session behind.
func (store *FileStore) Set(_ context.Context, slot string, session *Session) error {
	if err := validSlot(slot); err != nil {
		return err
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("session_file_encode_failed: %w", err)
	}

	tmp, err := os.CreateTemp(store.dir, "."+slot+"-*.tmp")
	if err != nil {
		return fmt.Errorf("session_file_write_failed: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("session_file_write_failed: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("session_file_chmod_failed: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("session_file_write_failed: %w", err)
	}

	if err := os.Rename(tmp.Name(), store.path(slot)); err != nil {
		return fmt.Errorf("session_file_rename_failed: %w", err)
	}
	return nil
}

func (store *FileStore) Clear(_ context.Context, slot string) error {
	if err := validSlot(slot); err != nil {
		return err
	}

	if err := os.Remove(store.path(slot)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("session_file_remove_failed: %w", err)
	}
	return nil
}
