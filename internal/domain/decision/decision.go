// Package decision defines the OrchestrationDecision domain entity: the
// persisted, immutable record of how a task was routed.
package decision

import (
	"fmt"
	"time"

	"github.com/Strob0t/Switchyard/internal/domain"
)

// Type is the routing strategy chosen for a task.
type Type string

const (
	// TypeSequential routes the task to a single agent.
	TypeSequential Type = "sequential"
	// TypeTaskForce routes the task to a multi-agent collaboration session.
	TypeTaskForce Type = "task_force"
	// TypeEscalation routes the task to a human before any agent acts.
	TypeEscalation Type = "escalation"
)

// Valid reports whether t is a known decision type.
func (t Type) Valid() bool {
	switch t {
	case TypeSequential, TypeTaskForce, TypeEscalation:
		return true
	}
	return false
}

// OrchestrationDecision records one routing decision. Immutable once created.
type OrchestrationDecision struct {
	ID              string    `json:"id"`
	TaskID          string    `json:"task_id"`
	DecisionType    Type      `json:"decision_type"`
	ComplexityScore float64   `json:"complexity_score"`
	Reasoning       string    `json:"reasoning"`
	CreatedAt       time.Time `json:"created_at"`
}

// Validate checks a decision before persistence.
func (d *OrchestrationDecision) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("decision id is required: %w", domain.ErrValidation)
	}
	if d.TaskID == "" {
		return fmt.Errorf("task_id is required: %w", domain.ErrValidation)
	}
	if !d.DecisionType.Valid() {
		return fmt.Errorf("invalid decision type %q: %w", d.DecisionType, domain.ErrValidation)
	}
	if d.ComplexityScore < 0 || d.ComplexityScore > 1 {
		return fmt.Errorf("complexity score %v outside [0,1]: %w", d.ComplexityScore, domain.ErrValidation)
	}
	return nil
}
