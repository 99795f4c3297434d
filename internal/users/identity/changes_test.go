// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samatechnicien/samatech/internal/users/identity"
	"github.com/samatechnicien/samatech/internal/users/session"
)

type failingBus struct{}

func (failingBus) Publish(string, any) error { return errors.New("nats: connection closed") }

/*
TestPublishSessionChanges announces sign-in and sign-out of a slot on its subject.
*/
func TestPublishSessionChanges(t *testing.T) {
	bus := &recordingBus{}
	sessions := session.NewManager(session.NewMemoryStore())
	unwatch := sessions.Subscribe(session.AnySlot, identity.PublishSessionChanges(bus, quietLogger()))
	defer unwatch()

	ctx := context.Background()
	require.NoError(t, sessions.Set(ctx, testSlot, &session.Session{Slot: testSlot, UserID: 7, Role: "technician"}))
	require.NoError(t, sessions.Clear(ctx, testSlot))

	require.Len(t, bus.subjects, 2)
	assert.Equal(t, "session.changed."+testSlot, bus.subjects[0])
	assert.Equal(t, identity.SessionChangedSubject(testSlot), bus.subjects[1])

	var signedIn, signedOut identity.SessionChangeNotice
	require.NoError(t, json.Unmarshal(bus.payloads[0], &signedIn))
	require.NoError(t, json.Unmarshal(bus.payloads[1], &signedOut))

	assert.True(t, signedIn.SignedIn)
	assert.Equal(t, int64(7), signedIn.UserID)
	assert.Equal(t, "technician", signedIn.Role)
	assert.False(t, signedOut.SignedIn)
	assert.Zero(t, signedOut.UserID)

	unwatch()
	require.NoError(t, sessions.Set(ctx, otherSlot, &session.Session{Slot: otherSlot, UserID: 7}))
	assert.Len(t, bus.subjects, 2)
}

/*
TestPublishSessionChanges_BusDown keeps the slot write when publishing fails.
*/
func TestPublishSessionChanges_BusDown(t *testing.T) {
	sessions := session.NewManager(session.NewMemoryStore())
	sessions.Subscribe(session.AnySlot, identity.PublishSessionChanges(failingBus{}, quietLogger()))

	ctx := context.Background()
	require.NoError(t, sessions.Set(ctx, testSlot, &session.Session{Slot: testSlot, UserID: 7}))

	current, err := sessions.Get(ctx, testSlot)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, int64(7), current.UserID)
}
