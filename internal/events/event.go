// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"github.com/google/uuid"

	"kazi_backend/platform/events"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// SideEffectDue is published by the scheduler worker when a queued side
// effect should be replayed.
type SideEffectDue struct {
	BaseEvent
	OutboxID uuid.UUID `json:"outboxId"`
}

func (e SideEffectDue) EventName() string { return "sideeffect.outbox.due" }
