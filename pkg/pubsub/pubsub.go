// Package pubsub provides a named-event subscribe/broadcast primitive.
//
// A Bus is created with the set of event names it supports; subscribing to
// any other name is a caller error. Broadcasts are delivered synchronously,
// in subscription order, on the broadcaster's goroutine, so a subscriber
// always observes state at least as fresh as the event that reached it.
//
// The bus is built for a single logical caller (an event-loop style
// session) and is not safe for concurrent use.
package pubsub

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrUnknownEvent is returned when subscribing to an event name the bus was
// not created with.
var ErrUnknownEvent = errors.New("unknown event name")

// Callback receives the payload of a broadcast event.
type Callback func(payload any)

type subscriber struct {
	id string
	fn Callback
}

// Bus dispatches named events to subscribers.
type Bus struct {
	declared map[string]struct{}
	subs     map[string][]subscriber
}

// New creates a Bus supporting exactly the given event names.
func New(events ...string) *Bus {
	declared := make(map[string]struct{}, len(events))
	for _, e := range events {
		declared[e] = struct{}{}
	}
	return &Bus{
		declared: declared,
		subs:     make(map[string][]subscriber),
	}
}

// Subscription is a handle for undoing a Subscribe call.
type Subscription struct {
	bus   *Bus
	event string
	id    string
}

// Subscribe registers fn for event. It fails with ErrUnknownEvent when the
// event name was not declared at bus construction.
func (b *Bus) Subscribe(event string, fn Callback) (*Subscription, error) {
	if _, ok := b.declared[event]; !ok {
		return nil, fmt.Errorf("subscribing to %q: %w", event, ErrUnknownEvent)
	}
	id := uuid.NewString()
	b.subs[event] = append(b.subs[event], subscriber{id: id, fn: fn})
	return &Subscription{bus: b, event: event, id: id}, nil
}

// Unsubscribe removes the subscription from its bus. Unsubscribing an
// already-removed subscription is a no-op.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.bus == nil {
		return
	}
	subs := s.bus.subs[s.event]
	for n, sub := range subs {
		if sub.id == s.id {
			s.bus.subs[s.event] = append(subs[:n:n], subs[n+1:]...)
			return
		}
	}
}

// Broadcast delivers payload to every current subscriber of event, in
// subscription order. A panic raised by a callback propagates to the
// broadcaster; subscribers are not isolated from one another. Broadcasting
// an event with no subscribers does nothing.
func (b *Bus) Broadcast(event string, payload any) {
	// Snapshot so callbacks that unsubscribe mid-delivery still see the
	// subscriber set as of the broadcast.
	subs := b.subs[event]
	for _, sub := range subs {
		sub.fn(payload)
	}
}
