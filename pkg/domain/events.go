package domain

import (
	"context"
	"time"
)

// EventType defines the category of a lifecycle event.
type EventType string

const (
	EventSubmit         EventType = "submit"
	EventResult         EventType = "result"
	EventFailure        EventType = "failure"
	EventReject         EventType = "reject"
	EventModeChange     EventType = "mode_change"
	EventDeviceStatus   EventType = "device_status"
	EventDomainNotified EventType = "domain_notification"
)

// EventBase contains common fields for all lifecycle events.
type EventBase struct {
	Timestamp     time.Time `json:"timestamp"`
	Type          EventType `json:"type"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// SubmissionEvent describes a canonical event handed to (or returned from) the domain engine.
type SubmissionEvent struct {
	EventBase
	EventType    string        `json:"event_type"`
	DeviceID     string        `json:"device_id"`
	LogicalState LogicalState  `json:"logical_state"`
	Mode         Mode          `json:"mode"`
	Duration     time.Duration `json:"duration,omitempty"`
	Err          error         `json:"-"`
	Fatal        bool          `json:"fatal,omitempty"`
}

// TransitionEvent describes an interaction state change.
type TransitionEvent struct {
	EventBase
	From InteractionState `json:"from"`
	To   InteractionState `json:"to"`
}

// RejectEvent describes an input refused by disambiguation.
type RejectEvent struct {
	EventBase
	Context LocalContext `json:"context"`
	Tag     InputTag     `json:"tag"`
	Reason  RejectReason `json:"reason"`
}

// NotificationEvent carries a push-style device or domain notification.
type NotificationEvent struct {
	EventBase
	Source  string `json:"source"`
	Payload any    `json:"payload"`
}

// LifecycleHooks defines callbacks for engine observability.
// Every hook is optional.
type LifecycleHooks struct {
	OnSubmit             func(context.Context, *SubmissionEvent)
	OnResult             func(context.Context, *SubmissionEvent)
	OnFailure            func(context.Context, *SubmissionEvent)
	OnReject             func(context.Context, *RejectEvent)
	OnTransition         func(context.Context, *TransitionEvent)
	OnDeviceStatus       func(context.Context, *NotificationEvent)
	OnDomainNotification func(context.Context, *NotificationEvent)
}

// Merge returns hooks that call h first, then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnSubmit:             chain(h.OnSubmit, other.OnSubmit),
		OnResult:             chain(h.OnResult, other.OnResult),
		OnFailure:            chain(h.OnFailure, other.OnFailure),
		OnReject:             chain(h.OnReject, other.OnReject),
		OnTransition:         chain(h.OnTransition, other.OnTransition),
		OnDeviceStatus:       chain(h.OnDeviceStatus, other.OnDeviceStatus),
		OnDomainNotification: chain(h.OnDomainNotification, other.OnDomainNotification),
	}
}

func chain[T any](a, b func(context.Context, T)) func(context.Context, T) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e T) {
		a(ctx, e)
		b(ctx, e)
	}
}
