package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Strob0t/Switchyard/internal/domain"
	"github.com/Strob0t/Switchyard/internal/domain/consultation"
)

const consultationColumns = `id, agent_id, task_id, task_force_id, type, context, status, resolution, created_at, timeout_at, resolved_at`

func (s *Store) CreateConsultation(ctx context.Context, req *consultation.Request) error {
	contextJSON, err := marshalMap(req.Context)
	if err != nil {
		return fmt.Errorf("marshal consultation context: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO consultations (id, agent_id, task_id, task_force_id, type, context, status, created_at, timeout_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		req.ID, req.AgentID, req.TaskID, nullIfEmpty(req.TaskForceID), req.Type, contextJSON, req.Status, req.CreatedAt, req.TimeoutAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create consultation %s: %w", req.ID, domain.ErrDuplicate)
		}
		return fmt.Errorf("create consultation %s: %w", req.ID, err)
	}
	return nil
}

func (s *Store) GetConsultation(ctx context.Context, id string) (*consultation.Request, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+consultationColumns+` FROM consultations WHERE id = $1`, id)

	c, err := scanConsultation(row)
	if err != nil {
		return nil, notFoundWrap(err, "get consultation %s", id)
	}
	return &c, nil
}

func (s *Store) MarkConsultationInProgress(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE consultations SET status = $2 WHERE id = $1 AND status = $3`,
		id, consultation.StatusInProgress, consultation.StatusPending)
	if err != nil {
		return false, fmt.Errorf("mark consultation %s in progress: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) CloseConsultation(ctx context.Context, id string, status consultation.Status, resolution map[string]any, resolvedAt time.Time) (bool, error) {
	resolutionJSON, err := marshalMap(resolution)
	if err != nil {
		return false, fmt.Errorf("marshal resolution: %w", err)
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE consultations SET status = $2, resolution = $3, resolved_at = $4
		 WHERE id = $1 AND status IN ($5, $6)`,
		id, status, resolutionJSON, resolvedAt,
		consultation.StatusPending, consultation.StatusInProgress)
	if err != nil {
		return false, fmt.Errorf("close consultation %s: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) ListOpenConsultations(ctx context.Context) ([]consultation.Request, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+consultationColumns+` FROM consultations
		 WHERE status IN ($1, $2) ORDER BY created_at ASC`,
		consultation.StatusPending, consultation.StatusInProgress)
	if err != nil {
		return nil, fmt.Errorf("list open consultations: %w", err)
	}
	defer rows.Close()
	return collectConsultations(rows)
}

func (s *Store) ListExpiredConsultations(ctx context.Context, now time.Time) ([]consultation.Request, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+consultationColumns+` FROM consultations
		 WHERE status IN ($1, $2) AND timeout_at <= $3 ORDER BY timeout_at ASC`,
		consultation.StatusPending, consultation.StatusInProgress, now)
	if err != nil {
		return nil, fmt.Errorf("list expired consultations: %w", err)
	}
	defer rows.Close()
	return collectConsultations(rows)
}

func (s *Store) ListConsultationsByAgent(ctx context.Context, agentID string) ([]consultation.Request, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+consultationColumns+` FROM consultations
		 WHERE agent_id = $1 ORDER BY created_at DESC`, agentID)
	if err != nil {
		return nil, fmt.Errorf("list consultations for agent %s: %w", agentID, err)
	}
	defer rows.Close()
	return collectConsultations(rows)
}

func (s *Store) AppendConsultationMessage(ctx context.Context, msg *consultation.Message) error {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO consultation_messages (id, consultation_id, sender_type, sender_id, content)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING seq, created_at`,
		msg.ID, msg.ConsultationID, msg.SenderType, msg.SenderID, msg.Content)
	if err := row.Scan(&msg.Seq, &msg.CreatedAt); err != nil {
		return fmt.Errorf("append consultation message: %w", err)
	}
	return nil
}

func (s *Store) ListConsultationMessages(ctx context.Context, consultationID string) ([]consultation.Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, consultation_id, sender_type, sender_id, content, seq, created_at
		 FROM consultation_messages WHERE consultation_id = $1 ORDER BY seq ASC`, consultationID)
	if err != nil {
		return nil, fmt.Errorf("list messages for consultation %s: %w", consultationID, err)
	}
	defer rows.Close()

	msgs := []consultation.Message{}
	for rows.Next() {
		var m consultation.Message
		if err := rows.Scan(&m.ID, &m.ConsultationID, &m.SenderType, &m.SenderID, &m.Content, &m.Seq, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan consultation message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func scanConsultation(row scannable) (consultation.Request, error) {
	var (
		c              consultation.Request
		taskForceID    *string
		contextJSON    []byte
		resolutionJSON []byte
	)
	err := row.Scan(&c.ID, &c.AgentID, &c.TaskID, &taskForceID, &c.Type, &contextJSON,
		&c.Status, &resolutionJSON, &c.CreatedAt, &c.TimeoutAt, &c.ResolvedAt)
	if err != nil {
		return c, err
	}
	if taskForceID != nil {
		c.TaskForceID = *taskForceID
	}
	if c.Context, err = unmarshalMap(contextJSON); err != nil {
		return c, fmt.Errorf("unmarshal consultation context: %w", err)
	}
	if c.Resolution, err = unmarshalMap(resolutionJSON); err != nil {
		return c, fmt.Errorf("unmarshal consultation resolution: %w", err)
	}
	return c, nil
}

func collectConsultations(rows interface {
	scannable
	Next() bool
	Err() error
}) ([]consultation.Request, error) {
	var out []consultation.Request
	for rows.Next() {
		c, err := scanConsultation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan consultation: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
