package service

import (
	"context"
	"sync"
	"time"

	"github.com/Strob0t/Switchyard/internal/domain"
	"github.com/Strob0t/Switchyard/internal/domain/consultation"
	"github.com/Strob0t/Switchyard/internal/domain/decision"
	"github.com/Strob0t/Switchyard/internal/domain/taskforce"
	"github.com/Strob0t/Switchyard/internal/port/database"
	"github.com/Strob0t/Switchyard/internal/port/messagequeue"
)

// Ensure mockStore implements database.Store at compile time.
var _ database.Store = (*mockStore)(nil)

// mockStore is an in-memory implementation of database.Store for testing.
// All methods are safe for concurrent use, matching the real store.
type mockStore struct {
	mu sync.Mutex

	decisions     []decision.OrchestrationDecision
	consultations []consultation.Request
	messages      []consultation.Message
	forces        []taskforce.TaskForce
	members       []taskforce.Member
	logs          []taskforce.LogEntry

	msgSeq map[string]int64
	logSeq map[string]int64

	// Error hooks. Set these to inject failures.
	createDecisionErr     error
	createConsultationErr error
	appendMessageErr      error
	createTaskForceErr    error
	appendLogErr          error
}

// --- Decisions ---

func (m *mockStore) CreateDecision(_ context.Context, d *decision.OrchestrationDecision) error {
	if m.createDecisionErr != nil {
		return m.createDecisionErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decisions = append(m.decisions, *d)
	return nil
}

func (m *mockStore) GetDecision(_ context.Context, id string) (*decision.OrchestrationDecision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.decisions {
		if m.decisions[i].ID == id {
			d := m.decisions[i]
			return &d, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) ListDecisionsByTask(_ context.Context, taskID string) ([]decision.OrchestrationDecision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []decision.OrchestrationDecision
	for i := len(m.decisions) - 1; i >= 0; i-- {
		if m.decisions[i].TaskID == taskID {
			out = append(out, m.decisions[i])
		}
	}
	return out, nil
}

// --- Consultations ---

func (m *mockStore) CreateConsultation(_ context.Context, req *consultation.Request) error {
	if m.createConsultationErr != nil {
		return m.createConsultationErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.consultations = append(m.consultations, *req)
	return nil
}

func (m *mockStore) GetConsultation(_ context.Context, id string) (*consultation.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.consultations {
		if m.consultations[i].ID == id {
			c := m.consultations[i]
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) MarkConsultationInProgress(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.consultations {
		if m.consultations[i].ID == id {
			if m.consultations[i].Status != consultation.StatusPending {
				return false, nil
			}
			m.consultations[i].Status = consultation.StatusInProgress
			return true, nil
		}
	}
	return false, nil
}

func (m *mockStore) CloseConsultation(_ context.Context, id string, status consultation.Status, resolution map[string]any, resolvedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.consultations {
		if m.consultations[i].ID == id {
			if !m.consultations[i].Status.IsOpen() {
				return false, nil
			}
			m.consultations[i].Status = status
			m.consultations[i].Resolution = resolution
			t := resolvedAt
			m.consultations[i].ResolvedAt = &t
			return true, nil
		}
	}
	return false, nil
}

func (m *mockStore) ListOpenConsultations(_ context.Context) ([]consultation.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []consultation.Request
	for i := range m.consultations {
		if m.consultations[i].Status.IsOpen() {
			out = append(out, m.consultations[i])
		}
	}
	return out, nil
}

func (m *mockStore) ListExpiredConsultations(_ context.Context, now time.Time) ([]consultation.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []consultation.Request
	for i := range m.consultations {
		c := m.consultations[i]
		if c.Status.IsOpen() && !c.TimeoutAt.After(now) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockStore) ListConsultationsByAgent(_ context.Context, agentID string) ([]consultation.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []consultation.Request
	for i := len(m.consultations) - 1; i >= 0; i-- {
		if m.consultations[i].AgentID == agentID {
			out = append(out, m.consultations[i])
		}
	}
	return out, nil
}

func (m *mockStore) AppendConsultationMessage(_ context.Context, msg *consultation.Message) error {
	if m.appendMessageErr != nil {
		return m.appendMessageErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.msgSeq == nil {
		m.msgSeq = make(map[string]int64)
	}
	m.msgSeq[msg.ConsultationID]++
	msg.Seq = m.msgSeq[msg.ConsultationID]
	msg.CreatedAt = time.Now()
	m.messages = append(m.messages, *msg)
	return nil
}

func (m *mockStore) ListConsultationMessages(_ context.Context, consultationID string) ([]consultation.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []consultation.Message
	for i := range m.messages {
		if m.messages[i].ConsultationID == consultationID {
			out = append(out, m.messages[i])
		}
	}
	return out, nil
}

// --- Task forces ---

func (m *mockStore) CreateTaskForce(_ context.Context, tf *taskforce.TaskForce) error {
	if m.createTaskForceErr != nil {
		return m.createTaskForceErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forces = append(m.forces, *tf)
	m.members = append(m.members, tf.Members...)
	return nil
}

func (m *mockStore) GetTaskForce(_ context.Context, id string) (*taskforce.TaskForce, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.forces {
		if m.forces[i].ID == id {
			tf := m.forces[i]
			tf.Members = nil
			for j := range m.members {
				if m.members[j].TaskForceID == id {
					tf.Members = append(tf.Members, m.members[j])
				}
			}
			return &tf, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) AddTaskForceMember(_ context.Context, member *taskforce.Member) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	found := false
	for i := range m.forces {
		if m.forces[i].ID == member.TaskForceID {
			found = true
		}
	}
	if !found {
		return domain.ErrNotFound
	}
	for i := range m.members {
		if m.members[i].TaskForceID == member.TaskForceID && m.members[i].AgentID == member.AgentID {
			return domain.ErrDuplicate
		}
	}
	m.members = append(m.members, *member)
	return nil
}

func (m *mockStore) IsTaskForceMember(_ context.Context, taskForceID, agentID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.members {
		if m.members[i].TaskForceID == taskForceID && m.members[i].AgentID == agentID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockStore) SetTaskForceStatus(_ context.Context, id string, from []taskforce.Status, to taskforce.Status) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.forces {
		if m.forces[i].ID == id {
			for _, f := range from {
				if m.forces[i].Status == f {
					m.forces[i].Status = to
					return true, nil
				}
			}
			return false, nil
		}
	}
	return false, domain.ErrNotFound
}

func (m *mockStore) CloseTaskForce(_ context.Context, id string, status taskforce.Status, result map[string]any, resolvedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.forces {
		if m.forces[i].ID == id {
			if m.forces[i].Status.IsTerminal() {
				return false, nil
			}
			m.forces[i].Status = status
			m.forces[i].ResolutionResult = result
			t := resolvedAt
			m.forces[i].ResolvedAt = &t
			return true, nil
		}
	}
	return false, domain.ErrNotFound
}

func (m *mockStore) AppendTaskForceLog(_ context.Context, entry *taskforce.LogEntry) error {
	if m.appendLogErr != nil {
		return m.appendLogErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.logSeq == nil {
		m.logSeq = make(map[string]int64)
	}
	m.logSeq[entry.TaskForceID]++
	entry.Seq = m.logSeq[entry.TaskForceID]
	entry.CreatedAt = time.Now()
	m.logs = append(m.logs, *entry)
	return nil
}

func (m *mockStore) ListTaskForceLog(_ context.Context, taskForceID string) ([]taskforce.LogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []taskforce.LogEntry
	for i := range m.logs {
		if m.logs[i].TaskForceID == taskForceID {
			out = append(out, m.logs[i])
		}
	}
	return out, nil
}

// mockQueue implements messagequeue.Queue for testing.
type mockQueue struct {
	mu        sync.Mutex
	published []struct {
		subject string
		data    []byte
	}
	publishErr error
}

func (q *mockQueue) Publish(_ context.Context, subject string, data []byte) error {
	if q.publishErr != nil {
		return q.publishErr
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.published = append(q.published, struct {
		subject string
		data    []byte
	}{subject, data})
	return nil
}

func (q *mockQueue) Subscribe(_ context.Context, _ string, _ messagequeue.Handler) (func(), error) {
	return func() {}, nil
}

func (q *mockQueue) Drain() error      { return nil }
func (q *mockQueue) Close() error      { return nil }
func (q *mockQueue) IsConnected() bool { return true }

func (q *mockQueue) subjects() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, 0, len(q.published))
	for _, p := range q.published {
		out = append(out, p.subject)
	}
	return out
}

// mockBroadcaster implements broadcast.Broadcaster for testing.
type mockBroadcaster struct {
	mu     sync.Mutex
	events []string
}

func (b *mockBroadcaster) BroadcastEvent(_ context.Context, eventType string, _ any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, eventType)
}

func (b *mockBroadcaster) eventTypes() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.events...)
}
