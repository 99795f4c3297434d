// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/samatechnicien/samatech/internal/platform/constants"
)

// ReloadPublisher sends a JSON payload on a subject. *natsbus.Bus satisfies it.
type ReloadPublisher interface {
	Publish(subject string, payload any) error
}

// ReloadNotice is published on ui.reload.<slot>.
type ReloadNotice struct {
	Slot string    `json:"slot"`
	At   time.Time `json:"at"`
}

// BusReloader publishes reload notices on the push channel.
type BusReloader struct {
	bus ReloadPublisher
}

// NewBusReloader creates a [Reloader] over bus.
func NewBusReloader(bus ReloadPublisher) *BusReloader {
	return &BusReloader{bus: bus}
}

// ReloadSubject returns the subject the client of slot listens on.
func ReloadSubject(slot string) string {
	return constants.SubjectReloadPrefix + slot
}

// Reload implements [Reloader].
func (reloader *BusReloader) Reload(_ context.Context, slot string) error {
	notice := ReloadNotice{Slot: slot, At: time.Now().UTC()}
	if err := reloader.bus.Publish(ReloadSubject(slot), notice); err != nil {
		return fmt.Errorf("identity_reload_publish_failed: %w", err)
	}
	return nil
}
