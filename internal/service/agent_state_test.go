package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/Strob0t/Switchyard/internal/domain"
	"github.com/Strob0t/Switchyard/internal/domain/agentstate"
)

func TestTrackerUnknownAgentReadsIdle(t *testing.T) {
	tr := NewAgentStateTracker(nil)

	info := tr.GetState("never-seen")
	if info.State != agentstate.StateIdle {
		t.Fatalf("expected IDLE, got %q", info.State)
	}
	if info.AgentID != "never-seen" {
		t.Fatalf("expected agent id echoed back, got %q", info.AgentID)
	}
}

func TestTrackerSetState(t *testing.T) {
	hub := &mockBroadcaster{}
	tr := NewAgentStateTracker(hub)

	info, err := tr.SetState(context.Background(), "a1", agentstate.StateActive, "task-1", "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.State != agentstate.StateActive || info.TaskID != "task-1" {
		t.Fatalf("unexpected info: %+v", info)
	}

	got := tr.GetState("a1")
	if got.State != agentstate.StateActive {
		t.Fatalf("expected ACTIVE, got %q", got.State)
	}
	if len(hub.eventTypes()) != 1 {
		t.Fatalf("expected 1 broadcast, got %d", len(hub.eventTypes()))
	}
}

func TestTrackerSetStateRejectsUnknown(t *testing.T) {
	tr := NewAgentStateTracker(nil)

	if _, err := tr.SetState(context.Background(), "a1", "SLEEPING", "", "", nil); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestTrackerSetStatePausedRequiresConsultation(t *testing.T) {
	tr := NewAgentStateTracker(nil)

	_, err := tr.SetState(context.Background(), "a1", agentstate.StatePausedForConsultation, "task-1", "", nil)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestTrackerPauseAndResume(t *testing.T) {
	tr := NewAgentStateTracker(nil)
	ctx := context.Background()

	if _, err := tr.SetState(ctx, "a1", agentstate.StateActive, "task-1", "", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := tr.PauseForConsultation(ctx, "a1", "task-1", "c1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := tr.GetState("a1")
	if got.State != agentstate.StatePausedForConsultation || got.ConsultationID != "c1" {
		t.Fatalf("unexpected info: %+v", got)
	}

	resolution := map[string]any{"approved": true}
	info, err := tr.ResumeFromConsultation(ctx, "a1", resolution)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.State != agentstate.StateActive {
		t.Fatalf("expected ACTIVE after resume, got %q", info.State)
	}
	if info.TaskID != "task-1" {
		t.Fatalf("resume must preserve the task, got %q", info.TaskID)
	}
	if info.ConsultationID != "" {
		t.Fatalf("resume must clear the consultation id, got %q", info.ConsultationID)
	}
}

func TestTrackerSecondPauseRejected(t *testing.T) {
	tr := NewAgentStateTracker(nil)
	ctx := context.Background()

	if _, err := tr.PauseForConsultation(ctx, "a1", "task-1", "c1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := tr.PauseForConsultation(ctx, "a1", "task-1", "c2"); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}

	// The first pause is untouched.
	if got := tr.GetState("a1"); got.ConsultationID != "c1" {
		t.Fatalf("expected consultation c1, got %q", got.ConsultationID)
	}
}

func TestTrackerFailFromConsultation(t *testing.T) {
	tr := NewAgentStateTracker(nil)
	ctx := context.Background()

	if _, err := tr.PauseForConsultation(ctx, "a1", "task-1", "c1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	info, err := tr.FailFromConsultation(ctx, "a1", "c1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.State != agentstate.StateError {
		t.Fatalf("expected ERROR, got %q", info.State)
	}

	// A non-paused agent cannot fail from a consultation.
	if _, err := tr.FailFromConsultation(ctx, "a2", "c2"); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestTrackerResumeRequiresPaused(t *testing.T) {
	tr := NewAgentStateTracker(nil)

	_, err := tr.ResumeFromConsultation(context.Background(), "a1", nil)
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestTrackerListPaused(t *testing.T) {
	tr := NewAgentStateTracker(nil)
	ctx := context.Background()

	for i := range 5 {
		id := fmt.Sprintf("agent-%d", i)
		if _, err := tr.PauseForConsultation(ctx, id, "task", "c-"+id); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if _, err := tr.SetState(ctx, "active-one", agentstate.StateActive, "task", "", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	paused := tr.ListPaused()
	if len(paused) != 5 {
		t.Fatalf("expected 5 paused agents, got %d", len(paused))
	}
}

func TestTrackerClear(t *testing.T) {
	tr := NewAgentStateTracker(nil)
	ctx := context.Background()

	if _, err := tr.SetState(ctx, "a1", agentstate.StateError, "task-1", "", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tr.Clear(ctx, "a1")

	if got := tr.GetState("a1"); got.State != agentstate.StateIdle {
		t.Fatalf("expected IDLE after clear, got %q", got.State)
	}
}

func TestTrackerConcurrentUpdatesDistinctAgents(t *testing.T) {
	tr := NewAgentStateTracker(nil)
	ctx := context.Background()

	const agents = 64
	var wg sync.WaitGroup
	for i := range agents {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := fmt.Sprintf("agent-%d", i)
			for range 50 {
				if _, err := tr.SetState(ctx, id, agentstate.StateActive, "task", "", nil); err != nil {
					t.Errorf("SetState(%s): %v", id, err)
					return
				}
			}
		}()
	}
	wg.Wait()

	for i := range agents {
		id := fmt.Sprintf("agent-%d", i)
		if got := tr.GetState(id); got.State != agentstate.StateActive {
			t.Fatalf("agent %s expected ACTIVE, got %q", id, got.State)
		}
	}
}

func TestTrackerConcurrentPauseSingleWinner(t *testing.T) {
	tr := NewAgentStateTracker(nil)
	ctx := context.Background()

	const attempts = 20
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := tr.PauseForConsultation(ctx, "contended", "task", fmt.Sprintf("c-%d", i))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var wins int
	for err := range errs {
		if err == nil {
			wins++
		} else if !errors.Is(err, domain.ErrInvalidState) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one successful pause, got %d", wins)
	}
}
