package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	otelx "github.com/Strob0t/Switchyard/internal/adapter/otel"
	"github.com/Strob0t/Switchyard/internal/adapter/ws"
	"github.com/Strob0t/Switchyard/internal/domain"
	"github.com/Strob0t/Switchyard/internal/domain/complexity"
	"github.com/Strob0t/Switchyard/internal/domain/decision"
	"github.com/Strob0t/Switchyard/internal/port/broadcast"
	"github.com/Strob0t/Switchyard/internal/port/cache"
	"github.com/Strob0t/Switchyard/internal/port/database"
	"github.com/Strob0t/Switchyard/internal/port/messagequeue"
	"github.com/Strob0t/Switchyard/internal/resilience"
)

// decisionCacheTTL bounds how long a decision stays in the L1 cache.
// Decisions are immutable, so the TTL only limits memory, not staleness.
const decisionCacheTTL = 10 * time.Minute

// escalationReasoning is used when the scorer itself fails. A task the
// engine cannot rate is routed to a human, never silently to an agent.
const escalationReasoning = "scoring failed, routed to human review"

// escalationPreamble opens every scored escalation's reasoning, so the
// record itself states that no agent may act before a human weighs in.
const escalationPreamble = "task exceeds safe autonomous handling, human consultation required before any agent acts"

// DecisionService is the decision engine: it scores a task, picks a routing
// strategy, and records the decision. Routing never fails; persistence and
// event publication are advisory.
type DecisionService struct {
	store   database.Store
	queue   messagequeue.Queue
	hub     broadcast.Broadcaster
	cache   cache.Cache
	breaker *resilience.Breaker
	scorer  *complexity.Scorer

	collaborationThreshold float64
	escalationThreshold    float64

	metrics *otelx.Metrics
	now     func() time.Time // for testing
}

// SetMetrics attaches metric instruments. Nil metrics disable recording.
func (s *DecisionService) SetMetrics(m *otelx.Metrics) {
	s.metrics = m
}

// NewDecisionService creates a DecisionService. hub and l1 may be nil.
func NewDecisionService(store database.Store, queue messagequeue.Queue, hub broadcast.Broadcaster, l1 cache.Cache, breaker *resilience.Breaker, scorerCfg complexity.Config, escalationThreshold float64) *DecisionService {
	return &DecisionService{
		store:                  store,
		queue:                  queue,
		hub:                    hub,
		cache:                  l1,
		breaker:                breaker,
		scorer:                 complexity.NewScorer(scorerCfg),
		collaborationThreshold: scorerCfg.CollaborationThreshold,
		escalationThreshold:    escalationThreshold,
		now:                    time.Now,
	}
}

// Route scores the task and returns a routing decision. The decision is
// always returned: scorer panics fall back to escalation, and persistence
// failures are logged without blocking the caller.
func (s *DecisionService) Route(ctx context.Context, taskID, description string, taskCtx map[string]any) (*decision.OrchestrationDecision, error) {
	if taskID == "" {
		return nil, fmt.Errorf("task_id is required: %w", domain.ErrValidation)
	}

	ctx, span := otelx.StartDecisionSpan(ctx, taskID)
	defer span.End()

	score, reasoning := s.scoreSafe(taskID, description, taskCtx)
	decisionType := s.classify(score)
	if decisionType == decision.TypeEscalation && reasoning != escalationReasoning {
		reasoning = escalationPreamble + ": " + reasoning
	}

	d := &decision.OrchestrationDecision{
		ID:              uuid.NewString(),
		TaskID:          taskID,
		DecisionType:    decisionType,
		ComplexityScore: score,
		Reasoning:       reasoning,
		CreatedAt:       s.now().UTC(),
	}

	if err := s.store.CreateDecision(ctx, d); err != nil {
		// The decision stands even when the record does not. Execution must
		// not stall on the audit trail.
		slog.Error("persist orchestration decision",
			"decision_id", d.ID, "task_id", d.TaskID, "error", err)
	} else if s.cache != nil {
		s.cacheDecision(ctx, d)
	}

	if s.metrics != nil {
		s.metrics.DecisionsRouted.Add(ctx, 1,
			metric.WithAttributes(attribute.String("decision.type", string(d.DecisionType))))
		s.metrics.ComplexityScore.Record(ctx, d.ComplexityScore)
	}

	s.publish(ctx, messagequeue.SubjectDecisionCreated, d)
	if s.hub != nil {
		s.hub.BroadcastEvent(ctx, ws.EventDecisionCreated, ws.DecisionCreatedEvent{
			DecisionID:   d.ID,
			TaskID:       d.TaskID,
			DecisionType: string(d.DecisionType),
			Score:        d.ComplexityScore,
			Reasoning:    d.Reasoning,
		})
	}

	slog.Info("task routed",
		"task_id", taskID,
		"decision_id", d.ID,
		"decision_type", d.DecisionType,
		"score", d.ComplexityScore,
	)
	return d, nil
}

// Preview scores a task without recording a decision.
func (s *DecisionService) Preview(description string, taskCtx map[string]any) complexity.Score {
	return s.scorer.Score(description, taskCtx)
}

// Get returns a decision by id, consulting the L1 cache first.
func (s *DecisionService) Get(ctx context.Context, id string) (*decision.OrchestrationDecision, error) {
	if s.cache != nil {
		if data, ok, err := s.cache.Get(ctx, decisionCacheKey(id)); err == nil && ok {
			var d decision.OrchestrationDecision
			if err := json.Unmarshal(data, &d); err == nil {
				return &d, nil
			}
		}
	}

	d, err := s.store.GetDecision(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cacheDecision(ctx, d)
	}
	return d, nil
}

// ListByTask returns all decisions recorded for a task, newest first.
func (s *DecisionService) ListByTask(ctx context.Context, taskID string) ([]decision.OrchestrationDecision, error) {
	return s.store.ListDecisionsByTask(ctx, taskID)
}

// scoreSafe runs the scorer and converts any panic into a saturated score so
// the task escalates to a human.
func (s *DecisionService) scoreSafe(taskID, description string, taskCtx map[string]any) (total float64, reasoning string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("complexity scorer panic", "task_id", taskID, "panic", r)
			total = 1.0
			reasoning = escalationReasoning
		}
	}()

	sc := s.scorer.Score(description, taskCtx)
	return sc.Total, sc.Reasoning
}

// classify maps a total score to a routing strategy.
func (s *DecisionService) classify(total float64) decision.Type {
	switch {
	case total >= s.escalationThreshold:
		return decision.TypeEscalation
	case total > s.collaborationThreshold:
		return decision.TypeTaskForce
	default:
		return decision.TypeSequential
	}
}

func (s *DecisionService) cacheDecision(ctx context.Context, d *decision.OrchestrationDecision) {
	data, err := json.Marshal(d)
	if err != nil {
		return
	}
	_ = s.cache.Set(ctx, decisionCacheKey(d.ID), data, decisionCacheTTL)
}

// publish sends an advisory event through the circuit breaker. Failures are
// logged and never returned; the queue is an audit channel, not a dependency.
func (s *DecisionService) publish(ctx context.Context, subject string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal event payload", "subject", subject, "error", err)
		return
	}

	publishFn := func() error { return s.queue.Publish(ctx, subject, data) }
	if s.breaker != nil {
		err = s.breaker.Execute(publishFn)
	} else {
		err = publishFn()
	}
	if err != nil {
		slog.Error("publish event", "subject", subject, "error", err)
	}
}

func decisionCacheKey(id string) string {
	return "decision:" + id
}
