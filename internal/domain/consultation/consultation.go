// Package consultation defines the human-in-the-loop consultation entities:
// a request that pauses an agent pending human input, and the message log
// exchanged while the request is open.
package consultation

import (
	"fmt"
	"time"

	"github.com/Strob0t/Switchyard/internal/domain"
)

// Type classifies what the agent needs from the human.
type Type string

const (
	TypeApproval      Type = "approval"
	TypeGuidance      Type = "guidance"
	TypeClarification Type = "clarification"
	TypeEscalation    Type = "escalation"
)

// ValidType reports whether t is a known consultation type.
func ValidType(t string) bool {
	switch Type(t) {
	case TypeApproval, TypeGuidance, TypeClarification, TypeEscalation:
		return true
	}
	return false
}

// Status is the lifecycle state of a consultation request.
// Transitions are strictly forward: pending -> in_progress -> {resolved | timeout}.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusTimeout    Status = "timeout"
)

// IsOpen returns true while the consultation still accepts messages and
// resolution.
func (s Status) IsOpen() bool {
	return s == StatusPending || s == StatusInProgress
}

// SenderType identifies which side of the consultation sent a message.
type SenderType string

const (
	SenderAgent SenderType = "agent"
	SenderHuman SenderType = "human"
)

// ValidSenderType reports whether t is a known sender type.
func ValidSenderType(t string) bool {
	return SenderType(t) == SenderAgent || SenderType(t) == SenderHuman
}

// Request is one human-consultation request. Once resolved or timed out the
// record is immutable.
type Request struct {
	ID          string         `json:"id"`
	AgentID     string         `json:"agent_id"`
	TaskID      string         `json:"task_id"`
	TaskForceID string         `json:"task_force_id,omitempty"`
	Type        Type           `json:"type"`
	Context     map[string]any `json:"context,omitempty"`
	Status      Status         `json:"status"`
	Resolution  map[string]any `json:"resolution,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	TimeoutAt   time.Time      `json:"timeout_at"`
	ResolvedAt  *time.Time     `json:"resolved_at,omitempty"`
}

// Message is one append-only entry in a consultation's exchange.
type Message struct {
	ID             string     `json:"id"`
	ConsultationID string     `json:"consultation_id"`
	SenderType     SenderType `json:"sender_type"`
	SenderID       string     `json:"sender_id"`
	Content        string     `json:"content"`
	Seq            int64      `json:"seq"`
	CreatedAt      time.Time  `json:"created_at"`
}

// CreateRequest holds the fields needed to open a consultation.
type CreateRequest struct {
	AgentID        string         `json:"agent_id"`
	TaskID         string         `json:"task_id"`
	TaskForceID    string         `json:"task_force_id,omitempty"`
	Type           Type           `json:"type"`
	Context        map[string]any `json:"context,omitempty"`
	TimeoutMinutes *int           `json:"timeout_minutes,omitempty"`
}

// Validate checks that a CreateRequest is well-formed.
func (r *CreateRequest) Validate() error {
	if r.AgentID == "" {
		return fmt.Errorf("agent_id is required: %w", domain.ErrValidation)
	}
	if r.TaskID == "" {
		return fmt.Errorf("task_id is required: %w", domain.ErrValidation)
	}
	if !ValidType(string(r.Type)) {
		return fmt.Errorf("invalid consultation type %q: %w", r.Type, domain.ErrValidation)
	}
	if r.TimeoutMinutes != nil && *r.TimeoutMinutes < 0 {
		return fmt.Errorf("timeout_minutes must be >= 0: %w", domain.ErrValidation)
	}
	return nil
}
