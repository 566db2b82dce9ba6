package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/Strob0t/Switchyard/internal/adapter/ws"
	"github.com/Strob0t/Switchyard/internal/domain"
	"github.com/Strob0t/Switchyard/internal/domain/agentstate"
	"github.com/Strob0t/Switchyard/internal/port/broadcast"
)

// stateShardCount is the number of mutex-guarded shards in the registry.
const stateShardCount = 32

// stateShard guards one slice of the agent registry.
type stateShard struct {
	mu     sync.Mutex
	agents map[string]agentstate.Info
}

// AgentStateTracker is the in-memory registry of each agent's execution
// state. Writes are serialized per agent via sharded mutexes; cross-agent
// operations take no global lock. All consultation-related transitions route
// through the ConsultationService, which is the sole writer of
// PAUSED_FOR_CONSULTATION.
type AgentStateTracker struct {
	shards [stateShardCount]stateShard
	hub    broadcast.Broadcaster
	now    func() time.Time // for testing
}

// NewAgentStateTracker creates an empty tracker. hub may be nil.
func NewAgentStateTracker(hub broadcast.Broadcaster) *AgentStateTracker {
	t := &AgentStateTracker{hub: hub, now: time.Now}
	for i := range t.shards {
		t.shards[i].agents = make(map[string]agentstate.Info)
	}
	return t
}

func (t *AgentStateTracker) shard(agentID string) *stateShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(agentID))
	return &t.shards[h.Sum32()%stateShardCount]
}

// GetState returns the agent's current state. Agents with no history read as
// IDLE; the call never fails.
func (t *AgentStateTracker) GetState(agentID string) agentstate.Info {
	s := t.shard(agentID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if info, ok := s.agents[agentID]; ok {
		return info
	}
	return agentstate.Idle(agentID)
}

// SetState unconditionally overwrites the agent's record (last-writer-wins).
// PAUSED_FOR_CONSULTATION requires a consultation id; use
// PauseForConsultation for that transition.
func (t *AgentStateTracker) SetState(ctx context.Context, agentID string, state agentstate.State, taskID, consultationID string, metadata map[string]any) (agentstate.Info, error) {
	if !state.Valid() {
		return agentstate.Info{}, fmt.Errorf("unknown agent state %q: %w", state, domain.ErrValidation)
	}
	if state == agentstate.StatePausedForConsultation && consultationID == "" {
		return agentstate.Info{}, fmt.Errorf("paused state requires a consultation id: %w", domain.ErrValidation)
	}

	info := agentstate.Info{
		AgentID:        agentID,
		State:          state,
		TaskID:         taskID,
		ConsultationID: consultationID,
		Metadata:       metadata,
		UpdatedAt:      t.now(),
	}

	s := t.shard(agentID)
	s.mu.Lock()
	s.agents[agentID] = info
	s.mu.Unlock()

	t.broadcastState(ctx, info)
	return info, nil
}

// PauseForConsultation moves the agent into PAUSED_FOR_CONSULTATION. An
// agent paused by one consultation cannot be paused by a second; the caller
// gets domain.ErrInvalidState and must wait for the first to close.
func (t *AgentStateTracker) PauseForConsultation(ctx context.Context, agentID, taskID, consultationID string) (agentstate.Info, error) {
	if consultationID == "" {
		return agentstate.Info{}, fmt.Errorf("consultation id is required: %w", domain.ErrValidation)
	}

	s := t.shard(agentID)
	s.mu.Lock()
	prev, ok := s.agents[agentID]
	if ok && prev.State == agentstate.StatePausedForConsultation {
		s.mu.Unlock()
		return agentstate.Info{}, fmt.Errorf("agent %s already paused for consultation %s: %w",
			agentID, prev.ConsultationID, domain.ErrInvalidState)
	}

	info := agentstate.Info{
		AgentID:        agentID,
		State:          agentstate.StatePausedForConsultation,
		TaskID:         taskID,
		ConsultationID: consultationID,
		UpdatedAt:      t.now(),
	}
	s.agents[agentID] = info
	s.mu.Unlock()

	t.broadcastState(ctx, info)
	return info, nil
}

// ResumeFromConsultation moves a paused agent back to ACTIVE, preserving its
// task and recording the human resolution in metadata.
func (t *AgentStateTracker) ResumeFromConsultation(ctx context.Context, agentID string, resolution map[string]any) (agentstate.Info, error) {
	s := t.shard(agentID)
	s.mu.Lock()
	prev, ok := s.agents[agentID]
	if !ok || prev.State != agentstate.StatePausedForConsultation {
		s.mu.Unlock()
		return agentstate.Info{}, fmt.Errorf("agent %s is not paused for consultation: %w", agentID, domain.ErrInvalidState)
	}

	info := agentstate.Info{
		AgentID:   agentID,
		State:     agentstate.StateActive,
		TaskID:    prev.TaskID,
		Metadata:  map[string]any{"resolution": resolution},
		UpdatedAt: t.now(),
	}
	s.agents[agentID] = info
	s.mu.Unlock()

	t.broadcastState(ctx, info)
	return info, nil
}

// FailFromConsultation moves a paused agent to ERROR after its consultation
// timed out. The agent is not silently resumed: no human guidance was ever
// obtained, so downstream retry policy decides what happens next.
func (t *AgentStateTracker) FailFromConsultation(ctx context.Context, agentID, consultationID string) (agentstate.Info, error) {
	s := t.shard(agentID)
	s.mu.Lock()
	prev, ok := s.agents[agentID]
	if !ok || prev.State != agentstate.StatePausedForConsultation {
		s.mu.Unlock()
		return agentstate.Info{}, fmt.Errorf("agent %s is not paused for consultation: %w", agentID, domain.ErrInvalidState)
	}

	info := agentstate.Info{
		AgentID:   agentID,
		State:     agentstate.StateError,
		TaskID:    prev.TaskID,
		Metadata:  map[string]any{"consultation_timeout": consultationID},
		UpdatedAt: t.now(),
	}
	s.agents[agentID] = info
	s.mu.Unlock()

	t.broadcastState(ctx, info)
	return info, nil
}

// ListPaused returns a snapshot of all agents currently paused for
// consultation, used by the timeout sweeper and operator tooling.
func (t *AgentStateTracker) ListPaused() []agentstate.Info {
	var paused []agentstate.Info
	for i := range t.shards {
		s := &t.shards[i]
		s.mu.Lock()
		for _, info := range s.agents {
			if info.State == agentstate.StatePausedForConsultation {
				paused = append(paused, info)
			}
		}
		s.mu.Unlock()
	}
	return paused
}

// Clear removes the agent's record; a later GetState reads IDLE again.
func (t *AgentStateTracker) Clear(ctx context.Context, agentID string) {
	s := t.shard(agentID)
	s.mu.Lock()
	delete(s.agents, agentID)
	s.mu.Unlock()

	t.broadcastState(ctx, agentstate.Idle(agentID))
}

func (t *AgentStateTracker) broadcastState(ctx context.Context, info agentstate.Info) {
	if t.hub == nil {
		return
	}
	t.hub.BroadcastEvent(ctx, ws.EventAgentState, info)
	slog.Debug("agent state changed",
		"agent_id", info.AgentID,
		"state", info.State,
		"task_id", info.TaskID,
		"consultation_id", info.ConsultationID,
	)
}
