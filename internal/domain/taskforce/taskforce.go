// Package taskforce defines the multi-agent collaboration session entities:
// the task force itself, its membership, and its append-only message log.
package taskforce

import (
	"fmt"
	"time"

	"github.com/Strob0t/Switchyard/internal/domain"
)

// Status is the lifecycle state of a task force.
type Status string

const (
	StatusActive   Status = "active"
	StatusPaused   Status = "paused"
	StatusResolved Status = "resolved"
	StatusFailed   Status = "failed"
)

// IsTerminal returns true if the task force is in a final state.
func (s Status) IsTerminal() bool {
	return s == StatusResolved || s == StatusFailed
}

// MessageType classifies a log entry in the collaboration exchange.
type MessageType string

const (
	MsgProposal   MessageType = "proposal"
	MsgCritique   MessageType = "critique"
	MsgRefinement MessageType = "refinement"
	MsgAgreement  MessageType = "agreement"
	MsgQuestion   MessageType = "question"
	MsgAnswer     MessageType = "answer"
)

// ValidMessageType reports whether t is a known log message type.
func ValidMessageType(t string) bool {
	switch MessageType(t) {
	case MsgProposal, MsgCritique, MsgRefinement, MsgAgreement, MsgQuestion, MsgAnswer:
		return true
	}
	return false
}

// TaskForce is an ad hoc collaboration session convened to jointly resolve
// one complex task. Destroyed only by external retention policy.
type TaskForce struct {
	ID                   string         `json:"id"`
	Objective            string         `json:"objective"`
	MasterOrchestratorID string         `json:"master_orchestrator_id"`
	Status               Status         `json:"status"`
	Members              []Member       `json:"members,omitempty"`
	ResolutionResult     map[string]any `json:"resolution_result,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
	ResolvedAt           *time.Time     `json:"resolved_at,omitempty"`
}

// Member is one agent's membership in a task force. The (TaskForceID,
// AgentID) pair is unique.
type Member struct {
	TaskForceID string    `json:"task_force_id"`
	AgentID     string    `json:"agent_id"`
	Role        string    `json:"role"`
	JoinedAt    time.Time `json:"joined_at"`
}

// LogEntry is one append-only entry in a task force's collaboration log.
// Entries for a force are totally ordered by Seq and never mutated.
type LogEntry struct {
	ID          string      `json:"id"`
	TaskForceID string      `json:"task_force_id"`
	AgentID     string      `json:"agent_id"`
	MessageType MessageType `json:"message_type"`
	Content     string      `json:"content"`
	Seq         int64       `json:"seq"`
	CreatedAt   time.Time   `json:"created_at"`
}

// ConveneMember names one founding member and its role.
type ConveneMember struct {
	AgentID string `json:"agent_id"`
	Role    string `json:"role"`
}

// ConveneRequest holds the fields needed to convene a task force.
type ConveneRequest struct {
	Objective            string          `json:"objective"`
	MasterOrchestratorID string          `json:"master_orchestrator_id"`
	Members              []ConveneMember `json:"members"`
}

// Validate checks that a ConveneRequest is well-formed: a non-empty
// objective, at least one member, the master orchestrator among them, and no
// duplicate members.
func (r *ConveneRequest) Validate() error {
	if r.Objective == "" {
		return fmt.Errorf("objective is required: %w", domain.ErrValidation)
	}
	if r.MasterOrchestratorID == "" {
		return fmt.Errorf("master_orchestrator_id is required: %w", domain.ErrValidation)
	}
	if len(r.Members) == 0 {
		return fmt.Errorf("at least one member is required: %w", domain.ErrValidation)
	}

	seen := make(map[string]bool, len(r.Members))
	masterIncluded := false
	for _, m := range r.Members {
		if m.AgentID == "" {
			return fmt.Errorf("agent_id is required for each member: %w", domain.ErrValidation)
		}
		if m.Role == "" {
			return fmt.Errorf("role is required for member %s: %w", m.AgentID, domain.ErrValidation)
		}
		if seen[m.AgentID] {
			return fmt.Errorf("duplicate member %s: %w", m.AgentID, domain.ErrValidation)
		}
		seen[m.AgentID] = true
		if m.AgentID == r.MasterOrchestratorID {
			masterIncluded = true
		}
	}
	if !masterIncluded {
		return fmt.Errorf("master orchestrator %s must be a member: %w", r.MasterOrchestratorID, domain.ErrValidation)
	}
	return nil
}
