package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	otelx "github.com/Strob0t/Switchyard/internal/adapter/otel"
	"github.com/Strob0t/Switchyard/internal/adapter/ws"
	"github.com/Strob0t/Switchyard/internal/domain"
	"github.com/Strob0t/Switchyard/internal/domain/taskforce"
	"github.com/Strob0t/Switchyard/internal/port/broadcast"
	"github.com/Strob0t/Switchyard/internal/port/database"
	"github.com/Strob0t/Switchyard/internal/port/messagequeue"
)

// TaskForceService manages multi-agent collaboration sessions: convening,
// membership, the append-only collaboration log, and resolution.
type TaskForceService struct {
	store database.Store
	queue messagequeue.Queue
	hub   broadcast.Broadcaster

	metrics *otelx.Metrics
	now     func() time.Time // for testing
}

// NewTaskForceService creates a TaskForceService. hub may be nil.
func NewTaskForceService(store database.Store, queue messagequeue.Queue, hub broadcast.Broadcaster) *TaskForceService {
	return &TaskForceService{store: store, queue: queue, hub: hub, now: time.Now}
}

// SetMetrics attaches metric instruments. Nil metrics disable recording.
func (s *TaskForceService) SetMetrics(m *otelx.Metrics) {
	s.metrics = m
}

// Convene creates a new active task force with its founding members.
func (s *TaskForceService) Convene(ctx context.Context, req taskforce.ConveneRequest) (*taskforce.TaskForce, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, span := otelx.StartTaskForceSpan(ctx, "convene", "")
	defer span.End()

	createdAt := s.now().UTC()
	tf := &taskforce.TaskForce{
		ID:                   uuid.NewString(),
		Objective:            req.Objective,
		MasterOrchestratorID: req.MasterOrchestratorID,
		Status:               taskforce.StatusActive,
		Members:              make([]taskforce.Member, 0, len(req.Members)),
		CreatedAt:            createdAt,
	}
	for _, m := range req.Members {
		tf.Members = append(tf.Members, taskforce.Member{
			TaskForceID: tf.ID,
			AgentID:     m.AgentID,
			Role:        m.Role,
			JoinedAt:    createdAt,
		})
	}

	if err := s.store.CreateTaskForce(ctx, tf); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.TaskForcesConvened.Add(ctx, 1)
	}
	publishEvent(ctx, s.queue, messagequeue.SubjectTaskForceConvened, tf)
	s.broadcastStatus(ctx, ws.EventTaskForceConvened, tf.ID, taskforce.StatusActive, "")

	slog.Info("task force convened",
		"task_force_id", tf.ID,
		"master", tf.MasterOrchestratorID,
		"members", len(tf.Members),
	)
	return tf, nil
}

// Get returns a task force with its membership.
func (s *TaskForceService) Get(ctx context.Context, id string) (*taskforce.TaskForce, error) {
	return s.store.GetTaskForce(ctx, id)
}

// Join adds an agent to an existing task force. Joining a terminal force is
// rejected; joining twice returns domain.ErrDuplicate.
func (s *TaskForceService) Join(ctx context.Context, taskForceID, agentID, role string) (*taskforce.Member, error) {
	if agentID == "" {
		return nil, fmt.Errorf("agent_id is required: %w", domain.ErrValidation)
	}
	if role == "" {
		return nil, fmt.Errorf("role is required: %w", domain.ErrValidation)
	}

	tf, err := s.store.GetTaskForce(ctx, taskForceID)
	if err != nil {
		return nil, err
	}
	if tf.Status.IsTerminal() {
		return nil, fmt.Errorf("task force %s is %s: %w", taskForceID, tf.Status, domain.ErrInvalidState)
	}

	m := &taskforce.Member{
		TaskForceID: taskForceID,
		AgentID:     agentID,
		Role:        role,
		JoinedAt:    s.now().UTC(),
	}
	if err := s.store.AddTaskForceMember(ctx, m); err != nil {
		return nil, err
	}

	publishEvent(ctx, s.queue, messagequeue.SubjectTaskForceJoined, m)
	s.broadcastStatus(ctx, ws.EventTaskForceJoined, taskForceID, tf.Status, agentID)
	return m, nil
}

// AppendLog records one collaboration message. Only members of an active
// force may post; the store assigns the sequence number, so concurrent
// appends land in commit order without a coordination lock.
func (s *TaskForceService) AppendLog(ctx context.Context, taskForceID, agentID string, msgType taskforce.MessageType, content string) (*taskforce.LogEntry, error) {
	if !taskforce.ValidMessageType(string(msgType)) {
		return nil, fmt.Errorf("invalid message type %q: %w", msgType, domain.ErrValidation)
	}
	if content == "" {
		return nil, fmt.Errorf("content is required: %w", domain.ErrValidation)
	}

	tf, err := s.store.GetTaskForce(ctx, taskForceID)
	if err != nil {
		return nil, err
	}
	if tf.Status != taskforce.StatusActive {
		return nil, fmt.Errorf("task force %s is %s: %w", taskForceID, tf.Status, domain.ErrInvalidState)
	}

	member, err := s.store.IsTaskForceMember(ctx, taskForceID, agentID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, fmt.Errorf("agent %s is not a member of task force %s: %w", agentID, taskForceID, domain.ErrNotMember)
	}

	entry := &taskforce.LogEntry{
		ID:          uuid.NewString(),
		TaskForceID: taskForceID,
		AgentID:     agentID,
		MessageType: msgType,
		Content:     content,
	}
	if err := s.store.AppendTaskForceLog(ctx, entry); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.TaskForceMessages.Add(ctx, 1)
	}
	publishEvent(ctx, s.queue, messagequeue.SubjectTaskForceLog, entry)
	if s.hub != nil {
		s.hub.BroadcastEvent(ctx, ws.EventTaskForceLog, entry)
	}
	return entry, nil
}

// GetLog returns the full ordered collaboration log.
func (s *TaskForceService) GetLog(ctx context.Context, taskForceID string) ([]taskforce.LogEntry, error) {
	if _, err := s.store.GetTaskForce(ctx, taskForceID); err != nil {
		return nil, err
	}
	return s.store.ListTaskForceLog(ctx, taskForceID)
}

// Resolve closes the task force with a resolution result. Resolving an
// already-resolved force is idempotent; resolving a failed one is a conflict.
func (s *TaskForceService) Resolve(ctx context.Context, id string, result map[string]any) (*taskforce.TaskForce, error) {
	return s.close(ctx, id, taskforce.StatusResolved, result, messagequeue.SubjectTaskForceResolved)
}

// Fail closes the task force as failed.
func (s *TaskForceService) Fail(ctx context.Context, id string, result map[string]any) (*taskforce.TaskForce, error) {
	return s.close(ctx, id, taskforce.StatusFailed, result, messagequeue.SubjectTaskForceFailed)
}

func (s *TaskForceService) close(ctx context.Context, id string, status taskforce.Status, result map[string]any, subject string) (*taskforce.TaskForce, error) {
	ok, err := s.store.CloseTaskForce(ctx, id, status, result, s.now().UTC())
	if err != nil {
		return nil, err
	}

	tf, err := s.store.GetTaskForce(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost the close race or the force was already terminal. Same
		// terminal status reads as idempotent success.
		if tf.Status == status {
			return tf, nil
		}
		return nil, fmt.Errorf("task force %s is %s: %w", id, tf.Status, domain.ErrInvalidState)
	}

	publishEvent(ctx, s.queue, subject, tf)
	s.broadcastStatus(ctx, ws.EventTaskForceClosed, id, status, "")

	slog.Info("task force closed", "task_force_id", id, "status", status)
	return tf, nil
}

// Pause suspends an active force while one of its members consults a human.
// Returns false without error when the force was not active.
func (s *TaskForceService) Pause(ctx context.Context, id string) (bool, error) {
	ok, err := s.store.SetTaskForceStatus(ctx, id, []taskforce.Status{taskforce.StatusActive}, taskforce.StatusPaused)
	if err != nil || !ok {
		return ok, err
	}
	s.broadcastStatus(ctx, ws.EventTaskForcePaused, id, taskforce.StatusPaused, "")
	return true, nil
}

// Reactivate resumes a paused force after its consultation closed.
func (s *TaskForceService) Reactivate(ctx context.Context, id string) (bool, error) {
	ok, err := s.store.SetTaskForceStatus(ctx, id, []taskforce.Status{taskforce.StatusPaused}, taskforce.StatusActive)
	if err != nil || !ok {
		return ok, err
	}
	s.broadcastStatus(ctx, ws.EventTaskForceResumed, id, taskforce.StatusActive, "")
	return true, nil
}

func (s *TaskForceService) broadcastStatus(ctx context.Context, event, taskForceID string, status taskforce.Status, agentID string) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastEvent(ctx, event, ws.TaskForceEvent{
		TaskForceID: taskForceID,
		Status:      string(status),
		AgentID:     agentID,
	})
}
