// Package agentstate defines the per-agent execution state machine tracked
// by the agent state registry.
package agentstate

import "time"

// State is an agent's current execution state.
type State string

const (
	StateIdle                  State = "IDLE"
	StateActive                State = "ACTIVE"
	StatePausedForConsultation State = "PAUSED_FOR_CONSULTATION"
	StateError                 State = "ERROR"
	StateTerminated            State = "TERMINATED"
)

// Valid reports whether s is a known agent state.
func (s State) Valid() bool {
	switch s {
	case StateIdle, StateActive, StatePausedForConsultation, StateError, StateTerminated:
		return true
	}
	return false
}

// IsTerminal returns true if no further transitions are expected.
func (s State) IsTerminal() bool {
	return s == StateTerminated
}

// Info is the live state record for one agent. A record exists lazily: an
// agent that was never written reads as IDLE.
type Info struct {
	AgentID        string         `json:"agent_id"`
	State          State          `json:"state"`
	TaskID         string         `json:"task_id,omitempty"`
	ConsultationID string         `json:"consultation_id,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Idle returns the default record for an agent with no history.
func Idle(agentID string) Info {
	return Info{AgentID: agentID, State: StateIdle}
}
