// Package database defines the persistent store port for Switchyard's
// routing and collaboration records.
package database

import (
	"context"
	"time"

	"github.com/Strob0t/Switchyard/internal/domain/consultation"
	"github.com/Strob0t/Switchyard/internal/domain/decision"
	"github.com/Strob0t/Switchyard/internal/domain/taskforce"
)

// Store is the port interface for the relational store. Status transitions
// use per-row compare-and-set semantics: a transition method reports whether
// it committed, so racing writers (human resolve vs. timeout sweep) resolve
// to exactly one winner.
type Store interface {
	// --- Orchestration decisions ---

	// CreateDecision persists an immutable routing decision.
	CreateDecision(ctx context.Context, d *decision.OrchestrationDecision) error

	// GetDecision returns a decision by id, or domain.ErrNotFound.
	GetDecision(ctx context.Context, id string) (*decision.OrchestrationDecision, error)

	// ListDecisionsByTask returns all decisions for a task, newest first.
	ListDecisionsByTask(ctx context.Context, taskID string) ([]decision.OrchestrationDecision, error)

	// --- Consultations ---

	// CreateConsultation persists a new pending consultation request.
	CreateConsultation(ctx context.Context, req *consultation.Request) error

	// GetConsultation returns a consultation by id, or domain.ErrNotFound.
	GetConsultation(ctx context.Context, id string) (*consultation.Request, error)

	// MarkConsultationInProgress transitions pending -> in_progress.
	// Returns false if the consultation is not pending (already advanced or
	// closed) or does not exist.
	MarkConsultationInProgress(ctx context.Context, id string) (bool, error)

	// CloseConsultation transitions an open consultation to resolved or
	// timeout and records the resolution. Returns false if the consultation
	// does not exist or is already closed.
	CloseConsultation(ctx context.Context, id string, status consultation.Status, resolution map[string]any, resolvedAt time.Time) (bool, error)

	// ListOpenConsultations returns all pending/in_progress requests,
	// ordered by creation time ascending.
	ListOpenConsultations(ctx context.Context) ([]consultation.Request, error)

	// ListExpiredConsultations returns open requests whose timeout has
	// passed as of now, ordered by timeout time ascending.
	ListExpiredConsultations(ctx context.Context, now time.Time) ([]consultation.Request, error)

	// ListConsultationsByAgent returns all requests for an agent, newest first.
	ListConsultationsByAgent(ctx context.Context, agentID string) ([]consultation.Request, error)

	// AppendConsultationMessage appends a message; the store assigns Seq and
	// CreatedAt so the per-consultation order is the commit order.
	AppendConsultationMessage(ctx context.Context, msg *consultation.Message) error

	// ListConsultationMessages returns all messages for a consultation in
	// append order. Empty slice (not an error) when none exist.
	ListConsultationMessages(ctx context.Context, consultationID string) ([]consultation.Message, error)

	// --- Task forces ---

	// CreateTaskForce persists a task force and its founding members in one
	// transaction.
	CreateTaskForce(ctx context.Context, tf *taskforce.TaskForce) error

	// GetTaskForce returns a task force with its members, or domain.ErrNotFound.
	GetTaskForce(ctx context.Context, id string) (*taskforce.TaskForce, error)

	// AddTaskForceMember adds a member. Returns domain.ErrDuplicate if the
	// (task force, agent) pair already exists and domain.ErrNotFound if the
	// task force does not.
	AddTaskForceMember(ctx context.Context, m *taskforce.Member) error

	// IsTaskForceMember reports whether the agent is a member of the force.
	IsTaskForceMember(ctx context.Context, taskForceID, agentID string) (bool, error)

	// SetTaskForceStatus transitions between non-terminal statuses
	// (active <-> paused). Returns false if the current status is not in from.
	SetTaskForceStatus(ctx context.Context, id string, from []taskforce.Status, to taskforce.Status) (bool, error)

	// CloseTaskForce transitions an active/paused force to resolved or
	// failed and records the result. Returns false if already terminal,
	// domain.ErrNotFound if the force does not exist.
	CloseTaskForce(ctx context.Context, id string, status taskforce.Status, result map[string]any, resolvedAt time.Time) (bool, error)

	// AppendTaskForceLog appends a log entry; the store assigns Seq and
	// CreatedAt so the per-force order is the commit order.
	AppendTaskForceLog(ctx context.Context, entry *taskforce.LogEntry) error

	// ListTaskForceLog returns the full ordered collaboration log.
	ListTaskForceLog(ctx context.Context, taskForceID string) ([]taskforce.LogEntry, error)
}
