// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package natsbus provides the NATS connection used as the provider push channel.

The provider webhook bridge publishes session events on one subject; the API
subscribes to it to drive auto-login and publishes per-slot reload notices.
*/
package natsbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	connectTimeout = 5 * time.Second
	reconnectWait  = 2 * time.Second
	flushTimeout   = 2 * time.Second
)

// Bus wraps a NATS connection with JSON publish and cancellable subscriptions.
type Bus struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// Connect dials NATS and installs logging connection handlers.
// The client reconnects forever once the first connection succeeds.
//
// # Parameters
//   - url: NATS server URL (nats://host:4222).
//   - name: Connection name shown in server monitoring.
//   - logger: Structured logger for connection events.
func Connect(url, name string, logger *slog.Logger) (*Bus, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.Timeout(connectTimeout),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(reconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats_disconnected", slog.Any("error", err))
			}
		}),
		nats.ReconnectHandler(func(conn *nats.Conn) {
			logger.Info("nats_reconnected", slog.String("url", conn.ConnectedUrl()))
		}),
		nats.ErrorHandler(func(_ *nats.Conn, subscription *nats.Subscription, err error) {
			subject := ""
			if subscription != nil {
				subject = subscription.Subject
			}
			logger.Error("nats_async_error", slog.String("subject", subject), slog.Any("error", err))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("natsbus: connect failed: %w", err)
	}

	logger.Info("nats_connected", slog.String("url", conn.ConnectedUrl()))
	return &Bus{conn: conn, logger: logger}, nil
}

// Ping round-trips to the server to confirm the connection is usable.
func (bus *Bus) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, flushTimeout)
	defer cancel()

	if err := bus.conn.FlushWithContext(pingCtx); err != nil {
		return fmt.Errorf("natsbus: ping failed: %w", err)
	}
	return nil
}

// Publish encodes payload as JSON and publishes it on subject.
func (bus *Bus) Publish(subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("natsbus: encode failed: %w", err)
	}

	if err := bus.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("natsbus: publish to %s failed: %w", subject, err)
	}
	return nil
}

// Subscribe delivers the raw payload of every message on subject to handler.
// The returned function cancels the subscription.
func (bus *Bus) Subscribe(subject string, handler func(data []byte)) (func() error, error) {
	subscription, err := bus.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("natsbus: subscribe to %s failed: %w", subject, err)
	}

	bus.logger.Info("nats_subscribed", slog.String("subject", subject))
	return subscription.Unsubscribe, nil
}

// Close drains pending messages and closes the connection.
func (bus *Bus) Close() error {
	if err := bus.conn.Drain(); err != nil {
		bus.conn.Close()
		return fmt.Errorf("natsbus: drain failed: %w", err)
	}
	return nil
}
