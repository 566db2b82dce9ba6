package messagequeue

// DecisionCreatedPayload is the schema for decisions.created messages.
type DecisionCreatedPayload struct {
	ID              string  `json:"id"`
	TaskID          string  `json:"task_id"`
	DecisionType    string  `json:"decision_type"`
	ComplexityScore float64 `json:"complexity_score"`
	Reasoning       string  `json:"reasoning"`
}

// ConsultationRequestedPayload is the schema for consultations.requested messages.
type ConsultationRequestedPayload struct {
	ID          string `json:"id"`
	AgentID     string `json:"agent_id"`
	TaskID      string `json:"task_id"`
	TaskForceID string `json:"task_force_id"`
	Type        string `json:"type"`
	Status      string `json:"status"`
}

// ConsultationMessagePayload is the schema for consultations.message messages.
type ConsultationMessagePayload struct {
	ID             string `json:"id"`
	ConsultationID string `json:"consultation_id"`
	SenderType     string `json:"sender_type"`
	SenderID       string `json:"sender_id"`
	Content        string `json:"content"`
	Seq            int64  `json:"seq"`
}

// ConsultationClosedPayload is the schema for consultations.resolved and
// consultations.timeout messages.
type ConsultationClosedPayload struct {
	ID         string         `json:"id"`
	AgentID    string         `json:"agent_id"`
	TaskID     string         `json:"task_id"`
	Status     string         `json:"status"`
	Resolution map[string]any `json:"resolution"`
}

// TaskForceConvenedPayload is the schema for taskforces.convened messages.
type TaskForceConvenedPayload struct {
	ID                   string `json:"id"`
	Objective            string `json:"objective"`
	MasterOrchestratorID string `json:"master_orchestrator_id"`
	Status               string `json:"status"`
}

// TaskForceJoinedPayload is the schema for taskforces.joined messages.
type TaskForceJoinedPayload struct {
	TaskForceID string `json:"task_force_id"`
	AgentID     string `json:"agent_id"`
	Role        string `json:"role"`
}

// TaskForceLogPayload is the schema for taskforces.log messages.
type TaskForceLogPayload struct {
	ID          string `json:"id"`
	TaskForceID string `json:"task_force_id"`
	AgentID     string `json:"agent_id"`
	MessageType string `json:"message_type"`
	Content     string `json:"content"`
	Seq         int64  `json:"seq"`
}

// TaskForceClosedPayload is the schema for taskforces.resolved and
// taskforces.failed messages.
type TaskForceClosedPayload struct {
	ID               string         `json:"id"`
	Status           string         `json:"status"`
	ResolutionResult map[string]any `json:"resolution_result"`
}

// AgentStatePayload is the schema for agents.state messages.
type AgentStatePayload struct {
	AgentID        string `json:"agent_id"`
	State          string `json:"state"`
	TaskID         string `json:"task_id"`
	ConsultationID string `json:"consultation_id"`
}
