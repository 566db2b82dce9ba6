package messagequeue

import (
	"strings"
	"testing"
)

func TestValidateValidDecisionCreated(t *testing.T) {
	data := []byte(`{"id":"d1","task_id":"t1","decision_type":"sequential","complexity_score":0.2,"reasoning":"low complexity"}`)
	if err := Validate(SubjectDecisionCreated, data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateValidConsultationRequested(t *testing.T) {
	data := []byte(`{"id":"c1","agent_id":"a1","task_id":"t1","type":"approval","status":"pending"}`)
	if err := Validate(SubjectConsultationRequested, data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateValidConsultationMessage(t *testing.T) {
	data := []byte(`{"id":"m1","consultation_id":"c1","sender_type":"human","sender_id":"alice","content":"hold on","seq":1}`)
	if err := Validate(SubjectConsultationMessage, data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateValidConsultationClosed(t *testing.T) {
	data := []byte(`{"id":"c1","agent_id":"a1","task_id":"t1","status":"resolved","resolution":{"approved":true}}`)
	for _, subject := range []string{SubjectConsultationResolved, SubjectConsultationTimeout} {
		if err := Validate(subject, data); err != nil {
			t.Fatalf("%s: unexpected error: %v", subject, err)
		}
	}
}

func TestValidateValidTaskForceLog(t *testing.T) {
	data := []byte(`{"id":"l1","task_force_id":"tf1","agent_id":"a1","message_type":"proposal","content":"split by region","seq":3}`)
	if err := Validate(SubjectTaskForceLog, data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateValidAgentState(t *testing.T) {
	data := []byte(`{"agent_id":"a1","state":"PAUSED_FOR_CONSULTATION","task_id":"t1","consultation_id":"c1"}`)
	if err := Validate(SubjectAgentState, data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateUnknownSubject(t *testing.T) {
	// Unknown subjects should pass (future-proof).
	data := []byte(`{"foo":"bar"}`)
	if err := Validate("unknown.subject", data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateInvalidJSON(t *testing.T) {
	data := []byte(`{not valid json`)
	err := Validate(SubjectDecisionCreated, data)
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
	if !strings.Contains(err.Error(), "invalid JSON") {
		t.Fatalf("expected 'invalid JSON' in error, got: %v", err)
	}
}

func TestValidateInvalidSchema(t *testing.T) {
	// Valid JSON that cannot unmarshal into the payload struct.
	data := []byte(`"just a string"`)
	err := Validate(SubjectDecisionCreated, data)
	if err == nil {
		t.Fatal("expected schema validation error")
	}
	if !strings.Contains(err.Error(), "schema validation failed") {
		t.Fatalf("expected 'schema validation failed' in error, got: %v", err)
	}
}

func TestValidateEmptyJSON(t *testing.T) {
	// Empty object is valid JSON and valid for all schemas (all fields are zero-value).
	data := []byte(`{}`)
	if err := Validate(SubjectDecisionCreated, data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
