// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"log/slog"
	"time"

	"github.com/samatechnicien/samatech/internal/platform/constants"
	"github.com/samatechnicien/samatech/internal/users/session"
)

// SessionChangeNotice is published on session.changed.<slot> after every slot write.
type SessionChangeNotice struct {
	Slot     string    `json:"slot"`
	SignedIn bool      `json:"signedIn"`
	UserID   int64     `json:"userId,omitempty"`
	Role     string    `json:"role,omitempty"`
	At       time.Time `json:"at"`
}

// SessionChangedSubject returns the subject carrying changes of slot.
func SessionChangedSubject(slot string) string {
	return constants.SubjectSessionChangedPrefix + slot
}

/*
PublishSessionChanges returns a [session.Listener] that announces every slot
write on the push channel, so other instances and UIs learn about sign-ins and
sign-outs without polling.

Publishing is best-effort: a failure is logged and the write that triggered it
stands.
*/
func PublishSessionChanges(bus ReloadPublisher, logger *slog.Logger) session.Listener {
	return func(_ context.Context, change session.Change) {
		notice := SessionChangeNotice{Slot: change.Slot, At: time.Now().UTC()}
		if change.Session != nil {
			notice.SignedIn = true
			notice.UserID = change.Session.UserID
			notice.Role = change.Session.Role
		}

		if err := bus.Publish(SessionChangedSubject(change.Slot), notice); err != nil {
			logger.Warn("session_change_publish_failed",
				slog.String("slot", change.Slot),
				slog.Any("error", err),
			)
			return
		}

		logger.Debug("session_changed",
			slog.String("slot", change.Slot),
			slog.Bool("signed_in", notice.SignedIn),
		)
	}
}
