package messagequeue

import (
	"encoding/json"
	"fmt"
)

// Validate checks whether data is valid JSON conforming to the schema
// associated with the given subject. Unknown subjects pass validation
// (future-proof for new message types).
func Validate(subject string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON on subject %s", subject)
	}

	// Map subject to payload struct for structural validation.
	var target any
	switch subject {
	case SubjectDecisionCreated:
		target = &DecisionCreatedPayload{}
	case SubjectConsultationRequested:
		target = &ConsultationRequestedPayload{}
	case SubjectConsultationMessage:
		target = &ConsultationMessagePayload{}
	case SubjectConsultationResolved, SubjectConsultationTimeout:
		target = &ConsultationClosedPayload{}
	case SubjectTaskForceConvened:
		target = &TaskForceConvenedPayload{}
	case SubjectTaskForceJoined:
		target = &TaskForceJoinedPayload{}
	case SubjectTaskForceLog:
		target = &TaskForceLogPayload{}
	case SubjectTaskForceResolved, SubjectTaskForceFailed:
		target = &TaskForceClosedPayload{}
	case SubjectAgentState:
		target = &AgentStatePayload{}
	default:
		return nil
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("schema validation failed for %s: %w", subject, err)
	}
	return nil
}
