// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/samatechnicien/samatech/internal/platform/constants"
)

// RedisStore keeps one JSON-encoded Session per slot under session:slot:<id>.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisStore creates a RedisStore whose slots expire after ttl of inactivity.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (store *RedisStore) key(slot string) string {
	return constants.RedisPrefixSessionSlot + slot
}

func (store *RedisStore) Get(ctx context.Context, slot string) (*Session, error) {
	if err := validSlot(slot); err != nil {
		return nil, err
	}

	data, err := store.client.Get(ctx, store.key(slot)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session_redis_get_failed: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("session_redis_decode_failed: %w", err)
	}
	return &session, nil
}

func (store *RedisStore) Set(ctx context.Context, slot string, session *Session) error {
	if err := validSlot(slot); err != nil {
		return err
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("session_redis_encode_failed: %w", err)
	}

	if err := store.client.Set(ctx, store.key(slot), data, store.ttl).Err(); err != nil {
		return fmt.Errorf("session_redis_set_failed: %w", err)
	}
	return nil
}

func (store *RedisStore) Clear(ctx context.Context, slot string) error {
	if err := validSlot(slot); err != nil {
		return err
	}

	if err := store.client.Del(ctx, store.key(slot)).Err(); err != nil {
		return fmt.Errorf("session_redis_clear_failed: %w", err)
	}
	return nil
}
