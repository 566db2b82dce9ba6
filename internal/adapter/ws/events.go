package ws

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Event type constants for WebSocket messages.
const (
	EventDecisionCreated      = "decision.created"
	EventAgentState           = "agent.state"
	EventConsultationOpened   = "consultation.opened"
	EventConsultationMessage  = "consultation.message"
	EventConsultationResolved = "consultation.resolved"
	EventConsultationTimeout  = "consultation.timeout"
	EventTaskForceConvened    = "taskforce.convened"
	EventTaskForceJoined      = "taskforce.joined"
	EventTaskForceLog         = "taskforce.log"
	EventTaskForcePaused      = "taskforce.paused"
	EventTaskForceResumed     = "taskforce.resumed"
	EventTaskForceClosed      = "taskforce.closed"
)

// DecisionCreatedEvent is broadcast when the decision engine routes a task.
type DecisionCreatedEvent struct {
	DecisionID   string  `json:"decision_id"`
	TaskID       string  `json:"task_id"`
	DecisionType string  `json:"decision_type"`
	Score        float64 `json:"score"`
	Reasoning    string  `json:"reasoning"`
}

// ConsultationEvent is broadcast on consultation lifecycle changes.
type ConsultationEvent struct {
	ConsultationID string `json:"consultation_id"`
	AgentID        string `json:"agent_id"`
	TaskID         string `json:"task_id"`
	Type           string `json:"type,omitempty"`
	Status         string `json:"status"`
}

// TaskForceEvent is broadcast on task force lifecycle changes.
type TaskForceEvent struct {
	TaskForceID string `json:"task_force_id"`
	Status      string `json:"status"`
	AgentID     string `json:"agent_id,omitempty"`
}

// BroadcastEvent is a convenience method that marshals a typed event and broadcasts it.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.Broadcast(ctx, Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}
