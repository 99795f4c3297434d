// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package provider

import (
	"context"
	"fmt"
	"log/slog"
)

// Subscriber delivers raw message payloads for a subject until unsubscribed.
type Subscriber interface {
	Subscribe(subject string, handler func(data []byte)) (func() error, error)
}

// Publisher sends a JSON payload on a subject.
type Publisher interface {
	Publish(subject string, payload any) error
}

// EventHandler processes one decoded provider event.
type EventHandler func(ctx context.Context, event Event)

// EventSource turns the push channel subject into typed [Event] callbacks.
type EventSource struct {
	bus     Subscriber
	subject string
	logger  *slog.Logger
}

// NewEventSource creates an EventSource over bus for subject.
func NewEventSource(bus Subscriber, subject string, logger *slog.Logger) *EventSource {
	return &EventSource{bus: bus, subject: subject, logger: logger}
}

// Subscribe starts delivering events to handler with ctx as their base context.
// Malformed payloads are logged and dropped. The returned function cancels the
// subscription and must be called on shutdown.
func (source *EventSource) Subscribe(ctx context.Context, handler EventHandler) (func() error, error) {
	unsubscribe, err := source.bus.Subscribe(source.subject, func(data []byte) {
		event, err := DecodeEvent(data)
		if err != nil {
			source.logger.Warn("provider_event_dropped", slog.Any("error", err))
			return
		}
		handler(ctx, event)
	})
	if err != nil {
		return nil, fmt.Errorf("provider_event_subscribe_failed: %w", err)
	}
	return unsubscribe, nil
}

// EventPublisher republishes events received by the webhook bridge.
type EventPublisher struct {
	bus     Publisher
	subject string
}

// NewEventPublisher creates an EventPublisher over bus for subject.
func NewEventPublisher(bus Publisher, subject string) *EventPublisher {
	return &EventPublisher{bus: bus, subject: subject}
}

// Publish validates and forwards event onto the push channel.
func (publisher *EventPublisher) Publish(_ context.Context, event Event) error {
	if event.Type == "" || event.Slot == "" {
		return fmt.Errorf("provider_event_publish_failed: event_type and slot are required")
	}
	if err := publisher.bus.Publish(publisher.subject, event); err != nil {
		return fmt.Errorf("provider_event_publish_failed: %w", err)
	}
	return nil
}
