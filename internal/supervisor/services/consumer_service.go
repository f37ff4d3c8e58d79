// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package services

import (
	"context"

	"github.com/tomtom215/playwise/internal/eventbus"
	"github.com/tomtom215/playwise/internal/models"
)

// ConsumerService feeds one event bus topic into a handler.
type ConsumerService[T any] struct {
	name   string
	bus    *eventbus.Bus
	topic  string
	handle func(context.Context, T) error
}

// NewConsumerService creates a consumer for topic.
func NewConsumerService[T any](name string, bus *eventbus.Bus, topic string, handle func(context.Context, T) error) *ConsumerService[T] {
	return &ConsumerService[T]{name: name, bus: bus, topic: topic, handle: handle}
}

// Serve implements suture.Service. A closed subscription returns nil and
// suture resubscribes.
func (c *ConsumerService[T]) Serve(ctx context.Context) error {
	return eventbus.Consume(ctx, c.bus, c.topic, c.handle)
}

func (c *ConsumerService[T]) String() string { return c.name }

// ActionCounter counts user actions by type. *observability.Aggregator
// implements it.
type ActionCounter interface {
	RecordAction(t models.ActionType)
}

// NewActionConsumer counts every action.recorded event.
func NewActionConsumer(bus *eventbus.Bus, counter ActionCounter) *ConsumerService[models.UserAction] {
	return NewConsumerService("action-consumer", bus, eventbus.TopicActionRecorded,
		func(_ context.Context, a models.UserAction) error {
			counter.RecordAction(a.Type)
			return nil
		})
}
