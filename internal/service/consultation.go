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
	"github.com/Strob0t/Switchyard/internal/domain/consultation"
	"github.com/Strob0t/Switchyard/internal/port/broadcast"
	"github.com/Strob0t/Switchyard/internal/port/database"
	"github.com/Strob0t/Switchyard/internal/port/messagequeue"
)

// ConsultationService manages the human-in-the-loop consultation lifecycle:
// opening a request pauses the asking agent (and its task force, if any),
// resolution resumes it, and the timeout sweeper fails requests no human
// answered in time. Close transitions are compare-and-set in the store, so a
// human resolve racing the sweeper yields exactly one winner.
type ConsultationService struct {
	store   database.Store
	queue   messagequeue.Queue
	hub     broadcast.Broadcaster
	tracker *AgentStateTracker
	forces  *TaskForceService

	defaultTimeout time.Duration
	sweepInterval  time.Duration

	// locks serializes message appends against closes per consultation, so
	// a message cannot land on a request after it closed.
	locks *keyedMutex

	metrics *otelx.Metrics
	now     func() time.Time // for testing
}

// SetMetrics attaches metric instruments. Nil metrics disable recording.
func (s *ConsultationService) SetMetrics(m *otelx.Metrics) {
	s.metrics = m
}

// NewConsultationService creates a ConsultationService. hub may be nil;
// forces may be nil when task force pausing is not wired.
func NewConsultationService(store database.Store, queue messagequeue.Queue, hub broadcast.Broadcaster, tracker *AgentStateTracker, forces *TaskForceService, defaultTimeoutMinutes int, sweepInterval time.Duration) *ConsultationService {
	return &ConsultationService{
		store:          store,
		queue:          queue,
		hub:            hub,
		tracker:        tracker,
		forces:         forces,
		defaultTimeout: time.Duration(defaultTimeoutMinutes) * time.Minute,
		sweepInterval:  sweepInterval,
		locks:          newKeyedMutex(),
		now:            time.Now,
	}
}

// Request opens a consultation and pauses the asking agent. An agent already
// paused for another consultation is rejected with domain.ErrInvalidState.
// When the agent consults from inside a task force, the whole force pauses
// with it.
func (s *ConsultationService) Request(ctx context.Context, req consultation.CreateRequest) (*consultation.Request, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, span := otelx.StartConsultationSpan(ctx, "request", "")
	defer span.End()

	if req.TaskForceID != "" {
		tf, err := s.store.GetTaskForce(ctx, req.TaskForceID)
		if err != nil {
			return nil, fmt.Errorf("task force %s: %w", req.TaskForceID, err)
		}
		if tf.Status.IsTerminal() {
			return nil, fmt.Errorf("task force %s is %s: %w", req.TaskForceID, tf.Status, domain.ErrInvalidState)
		}
	}

	timeout := s.defaultTimeout
	if req.TimeoutMinutes != nil {
		timeout = time.Duration(*req.TimeoutMinutes) * time.Minute
	}

	createdAt := s.now().UTC()
	c := &consultation.Request{
		ID:          uuid.NewString(),
		AgentID:     req.AgentID,
		TaskID:      req.TaskID,
		TaskForceID: req.TaskForceID,
		Type:        req.Type,
		Context:     req.Context,
		Status:      consultation.StatusPending,
		CreatedAt:   createdAt,
		TimeoutAt:   createdAt.Add(timeout),
	}

	prev := s.tracker.GetState(req.AgentID)
	if _, err := s.tracker.PauseForConsultation(ctx, req.AgentID, req.TaskID, c.ID); err != nil {
		return nil, err
	}

	if err := s.store.CreateConsultation(ctx, c); err != nil {
		// Undo the pause; the consultation never came into existence.
		if _, rbErr := s.tracker.SetState(ctx, prev.AgentID, prev.State, prev.TaskID, prev.ConsultationID, prev.Metadata); rbErr != nil {
			slog.Error("roll back agent pause", "agent_id", req.AgentID, "error", rbErr)
		}
		return nil, err
	}

	if req.TaskForceID != "" && s.forces != nil {
		if _, err := s.forces.Pause(ctx, req.TaskForceID); err != nil {
			slog.Error("pause task force for consultation",
				"task_force_id", req.TaskForceID, "consultation_id", c.ID, "error", err)
		}
	}

	if s.metrics != nil {
		s.metrics.ConsultationsOpened.Add(ctx, 1)
	}
	publishEvent(ctx, s.queue, messagequeue.SubjectConsultationRequested, c)
	s.broadcast(ctx, ws.EventConsultationOpened, c)

	slog.Info("consultation opened",
		"consultation_id", c.ID,
		"agent_id", c.AgentID,
		"task_id", c.TaskID,
		"type", c.Type,
		"timeout_at", c.TimeoutAt,
	)
	return c, nil
}

// Get returns a consultation by id.
func (s *ConsultationService) Get(ctx context.Context, id string) (*consultation.Request, error) {
	return s.store.GetConsultation(ctx, id)
}

// Pending returns all open consultations, oldest first, for operator queues.
func (s *ConsultationService) Pending(ctx context.Context) ([]consultation.Request, error) {
	return s.store.ListOpenConsultations(ctx)
}

// ListByAgent returns all consultations ever opened by an agent, newest first.
func (s *ConsultationService) ListByAgent(ctx context.Context, agentID string) ([]consultation.Request, error) {
	return s.store.ListConsultationsByAgent(ctx, agentID)
}

// SendMessage appends one message to an open consultation's exchange. The
// first message, from either side, moves the request from pending to
// in_progress. The store assigns sequence numbers, so concurrent sends both
// land, in commit order.
func (s *ConsultationService) SendMessage(ctx context.Context, consultationID string, sender consultation.SenderType, senderID, content string) (*consultation.Message, error) {
	if !consultation.ValidSenderType(string(sender)) {
		return nil, fmt.Errorf("invalid sender type %q: %w", sender, domain.ErrValidation)
	}
	if senderID == "" {
		return nil, fmt.Errorf("sender_id is required: %w", domain.ErrValidation)
	}
	if content == "" {
		return nil, fmt.Errorf("content is required: %w", domain.ErrValidation)
	}

	unlock := s.locks.Lock(consultationID)
	defer unlock()

	c, err := s.store.GetConsultation(ctx, consultationID)
	if err != nil {
		return nil, err
	}
	if !c.Status.IsOpen() {
		return nil, fmt.Errorf("consultation %s is %s: %w", consultationID, c.Status, domain.ErrInvalidState)
	}

	if c.Status == consultation.StatusPending {
		if _, err := s.store.MarkConsultationInProgress(ctx, consultationID); err != nil {
			return nil, err
		}
	}

	msg := &consultation.Message{
		ID:             uuid.NewString(),
		ConsultationID: consultationID,
		SenderType:     sender,
		SenderID:       senderID,
		Content:        content,
	}
	if err := s.store.AppendConsultationMessage(ctx, msg); err != nil {
		return nil, err
	}

	publishEvent(ctx, s.queue, messagequeue.SubjectConsultationMessage, msg)
	if s.hub != nil {
		s.hub.BroadcastEvent(ctx, ws.EventConsultationMessage, msg)
	}
	return msg, nil
}

// GetMessages returns the full ordered exchange for a consultation.
func (s *ConsultationService) GetMessages(ctx context.Context, consultationID string) ([]consultation.Message, error) {
	if _, err := s.store.GetConsultation(ctx, consultationID); err != nil {
		return nil, err
	}
	return s.store.ListConsultationMessages(ctx, consultationID)
}

// Resolve closes a consultation with the human's resolution and resumes the
// paused agent. Resolving an already-resolved consultation is idempotent;
// resolving one that timed out is a conflict.
func (s *ConsultationService) Resolve(ctx context.Context, id string, resolution map[string]any) (*consultation.Request, error) {
	ctx, span := otelx.StartConsultationSpan(ctx, "resolve", id)
	defer span.End()

	unlock := s.locks.Lock(id)
	defer unlock()

	ok, err := s.store.CloseConsultation(ctx, id, consultation.StatusResolved, resolution, s.now().UTC())
	if err != nil {
		return nil, err
	}

	c, err := s.store.GetConsultation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		if c.Status == consultation.StatusResolved {
			return c, nil
		}
		return nil, fmt.Errorf("consultation %s is %s: %w", id, c.Status, domain.ErrInvalidState)
	}

	if _, err := s.tracker.ResumeFromConsultation(ctx, c.AgentID, resolution); err != nil {
		// The agent may have been cleared while paused; the consultation
		// record is still authoritative.
		slog.Warn("resume agent after consultation",
			"agent_id", c.AgentID, "consultation_id", id, "error", err)
	}

	if c.TaskForceID != "" && s.forces != nil {
		if _, err := s.forces.Reactivate(ctx, c.TaskForceID); err != nil {
			slog.Error("reactivate task force after consultation",
				"task_force_id", c.TaskForceID, "consultation_id", id, "error", err)
		}
	}

	if s.metrics != nil {
		s.metrics.ConsultationsResolved.Add(ctx, 1)
		if c.ResolvedAt != nil {
			s.metrics.ConsultationDuration.Record(ctx, c.ResolvedAt.Sub(c.CreatedAt).Seconds())
		}
	}
	publishEvent(ctx, s.queue, messagequeue.SubjectConsultationResolved, c)
	s.broadcast(ctx, ws.EventConsultationResolved, c)

	slog.Info("consultation resolved", "consultation_id", id, "agent_id", c.AgentID)
	return c, nil
}

// Start runs the timeout sweeper until ctx is cancelled. One sweep runs
// immediately so restarts do not delay overdue expirations.
func (s *ConsultationService) Start(ctx context.Context) error {
	s.sweepExpired(ctx)

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweepExpired(ctx)
		}
	}
}

// sweepExpired times out every open consultation whose deadline has passed.
// Each expiration is compare-and-set, so a human resolving concurrently
// keeps the win and the sweep skips that request.
func (s *ConsultationService) sweepExpired(ctx context.Context) {
	ctx, span := otelx.StartSweepSpan(ctx)
	defer span.End()

	expired, err := s.store.ListExpiredConsultations(ctx, s.now().UTC())
	if err != nil {
		slog.Error("list expired consultations", "error", err)
		return
	}

	for i := range expired {
		c := &expired[i]
		s.timeoutOne(ctx, c)
	}
}

func (s *ConsultationService) timeoutOne(ctx context.Context, c *consultation.Request) {
	unlock := s.locks.Lock(c.ID)
	defer unlock()

	ok, err := s.store.CloseConsultation(ctx, c.ID, consultation.StatusTimeout, nil, s.now().UTC())
	if err != nil {
		slog.Error("close timed-out consultation", "consultation_id", c.ID, "error", err)
		return
	}
	if !ok {
		return
	}

	if _, err := s.tracker.FailFromConsultation(ctx, c.AgentID, c.ID); err != nil {
		slog.Warn("fail agent after consultation timeout",
			"agent_id", c.AgentID, "consultation_id", c.ID, "error", err)
	}
	// A paused task force stays paused: no guidance was obtained, so an
	// operator has to decide whether the force resumes or fails.

	closed, err := s.store.GetConsultation(ctx, c.ID)
	if err != nil {
		closed = c
	}
	if s.metrics != nil {
		s.metrics.ConsultationsTimedOut.Add(ctx, 1)
		if closed.ResolvedAt != nil {
			s.metrics.ConsultationDuration.Record(ctx, closed.ResolvedAt.Sub(closed.CreatedAt).Seconds())
		}
	}
	publishEvent(ctx, s.queue, messagequeue.SubjectConsultationTimeout, closed)
	s.broadcast(ctx, ws.EventConsultationTimeout, closed)

	slog.Warn("consultation timed out",
		"consultation_id", c.ID,
		"agent_id", c.AgentID,
		"timeout_at", c.TimeoutAt,
	)
}

func (s *ConsultationService) broadcast(ctx context.Context, event string, c *consultation.Request) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastEvent(ctx, event, ws.ConsultationEvent{
		ConsultationID: c.ID,
		AgentID:        c.AgentID,
		TaskID:         c.TaskID,
		Type:           string(c.Type),
		Status:         string(c.Status),
	})
}
