package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Strob0t/Switchyard/internal/domain"
	"github.com/Strob0t/Switchyard/internal/domain/taskforce"
)

func (s *Store) CreateTaskForce(ctx context.Context, tf *taskforce.TaskForce) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create task force: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO task_forces (id, objective, master_orchestrator_id, status, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		tf.ID, tf.Objective, tf.MasterOrchestratorID, tf.Status, tf.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create task force %s: %w", tf.ID, domain.ErrDuplicate)
		}
		return fmt.Errorf("create task force %s: %w", tf.ID, err)
	}

	for i := range tf.Members {
		m := &tf.Members[i]
		_, err = tx.Exec(ctx,
			`INSERT INTO task_force_members (task_force_id, agent_id, role, joined_at)
			 VALUES ($1, $2, $3, $4)`,
			m.TaskForceID, m.AgentID, m.Role, m.JoinedAt)
		if err != nil {
			return fmt.Errorf("add founding member %s: %w", m.AgentID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create task force: %w", err)
	}
	return nil
}

func (s *Store) GetTaskForce(ctx context.Context, id string) (*taskforce.TaskForce, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, objective, master_orchestrator_id, status, resolution_result, created_at, resolved_at
		 FROM task_forces WHERE id = $1`, id)

	var (
		tf         taskforce.TaskForce
		resultJSON []byte
	)
	err := row.Scan(&tf.ID, &tf.Objective, &tf.MasterOrchestratorID, &tf.Status,
		&resultJSON, &tf.CreatedAt, &tf.ResolvedAt)
	if err != nil {
		return nil, notFoundWrap(err, "get task force %s", id)
	}
	if tf.ResolutionResult, err = unmarshalMap(resultJSON); err != nil {
		return nil, fmt.Errorf("unmarshal resolution result: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT task_force_id, agent_id, role, joined_at
		 FROM task_force_members WHERE task_force_id = $1 ORDER BY joined_at ASC, agent_id ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("list members for task force %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var m taskforce.Member
		if err := rows.Scan(&m.TaskForceID, &m.AgentID, &m.Role, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan task force member: %w", err)
		}
		tf.Members = append(tf.Members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &tf, nil
}

func (s *Store) AddTaskForceMember(ctx context.Context, m *taskforce.Member) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO task_force_members (task_force_id, agent_id, role, joined_at)
		 VALUES ($1, $2, $3, $4)`,
		m.TaskForceID, m.AgentID, m.Role, m.JoinedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("agent %s already in task force %s: %w", m.AgentID, m.TaskForceID, domain.ErrDuplicate)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("task force %s: %w", m.TaskForceID, domain.ErrNotFound)
		}
		return fmt.Errorf("add member %s to task force %s: %w", m.AgentID, m.TaskForceID, err)
	}
	return nil
}

func (s *Store) IsTaskForceMember(ctx context.Context, taskForceID, agentID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM task_force_members WHERE task_force_id = $1 AND agent_id = $2)`,
		taskForceID, agentID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check membership of %s in %s: %w", agentID, taskForceID, err)
	}
	return exists, nil
}

func (s *Store) SetTaskForceStatus(ctx context.Context, id string, from []taskforce.Status, to taskforce.Status) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE task_forces SET status = $2 WHERE id = $1 AND status = ANY($3)`,
		id, to, statusStrings(from))
	if err != nil {
		return false, fmt.Errorf("set task force %s status to %s: %w", id, to, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) CloseTaskForce(ctx context.Context, id string, status taskforce.Status, result map[string]any, resolvedAt time.Time) (bool, error) {
	resultJSON, err := marshalMap(result)
	if err != nil {
		return false, fmt.Errorf("marshal resolution result: %w", err)
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE task_forces SET status = $2, resolution_result = $3, resolved_at = $4
		 WHERE id = $1 AND status IN ($5, $6)`,
		id, status, resultJSON, resolvedAt, taskforce.StatusActive, taskforce.StatusPaused)
	if err != nil {
		return false, fmt.Errorf("close task force %s: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) AppendTaskForceLog(ctx context.Context, entry *taskforce.LogEntry) error {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO task_force_log (id, task_force_id, agent_id, message_type, content)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING seq, created_at`,
		entry.ID, entry.TaskForceID, entry.AgentID, entry.MessageType, entry.Content)
	if err := row.Scan(&entry.Seq, &entry.CreatedAt); err != nil {
		return fmt.Errorf("append task force log: %w", err)
	}
	return nil
}

func (s *Store) ListTaskForceLog(ctx context.Context, taskForceID string) ([]taskforce.LogEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, task_force_id, agent_id, message_type, content, seq, created_at
		 FROM task_force_log WHERE task_force_id = $1 ORDER BY seq ASC`, taskForceID)
	if err != nil {
		return nil, fmt.Errorf("list log for task force %s: %w", taskForceID, err)
	}
	defer rows.Close()

	entries := []taskforce.LogEntry{}
	for rows.Next() {
		var e taskforce.LogEntry
		if err := rows.Scan(&e.ID, &e.TaskForceID, &e.AgentID, &e.MessageType, &e.Content, &e.Seq, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan task force log entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func statusStrings(statuses []taskforce.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
