// Package messagequeue defines the message queue port (interface) used for
// advisory audit events.
package messagequeue

import "context"

// Handler processes a message received from the queue.
// The context carries request-scoped values such as the request ID.
type Handler func(ctx context.Context, subject string, data []byte) error

// Queue is the port interface for publishing and subscribing to messages.
type Queue interface {
	// Publish sends a message to the given subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Subscribe registers a handler for messages on the given subject.
	// The returned function cancels the subscription.
	Subscribe(ctx context.Context, subject string, handler Handler) (cancel func(), err error)

	// Drain gracefully drains all subscriptions before closing.
	// Pending messages are processed; no new messages are accepted.
	Drain() error

	// Close shuts down the queue connection immediately.
	Close() error

	// IsConnected reports whether the queue is currently connected.
	IsConnected() bool
}

// Subject constants for the audit/event subjects emitted by Switchyard.
// Every state transition and decision is published here; publishing is
// advisory and must never block the transition itself.
const (
	SubjectDecisionCreated = "decisions.created"

	SubjectConsultationRequested = "consultations.requested"
	SubjectConsultationMessage   = "consultations.message"
	SubjectConsultationResolved  = "consultations.resolved"
	SubjectConsultationTimeout   = "consultations.timeout"

	SubjectTaskForceConvened = "taskforces.convened"
	SubjectTaskForceJoined   = "taskforces.joined"
	SubjectTaskForceLog      = "taskforces.log"
	SubjectTaskForceResolved = "taskforces.resolved"
	SubjectTaskForceFailed   = "taskforces.failed"

	SubjectAgentState = "agents.state"
)
