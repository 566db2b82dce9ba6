package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/Switchyard/internal/domain/decision"
)

// Store implements database.Store using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// --- Orchestration decisions ---

func (s *Store) CreateDecision(ctx context.Context, d *decision.OrchestrationDecision) error {
	if err := d.Validate(); err != nil {
		return err
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO orchestration_decisions (id, task_id, decision_type, complexity_score, reasoning, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		d.ID, d.TaskID, d.DecisionType, d.ComplexityScore, d.Reasoning, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("create decision %s: %w", d.ID, err)
	}
	return nil
}

func (s *Store) GetDecision(ctx context.Context, id string) (*decision.OrchestrationDecision, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, task_id, decision_type, complexity_score, reasoning, created_at
		 FROM orchestration_decisions WHERE id = $1`, id)

	d, err := scanDecision(row)
	if err != nil {
		return nil, notFoundWrap(err, "get decision %s", id)
	}
	return &d, nil
}

func (s *Store) ListDecisionsByTask(ctx context.Context, taskID string) ([]decision.OrchestrationDecision, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, task_id, decision_type, complexity_score, reasoning, created_at
		 FROM orchestration_decisions WHERE task_id = $1 ORDER BY created_at DESC`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list decisions for task %s: %w", taskID, err)
	}
	defer rows.Close()

	var decisions []decision.OrchestrationDecision
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		decisions = append(decisions, d)
	}
	return decisions, rows.Err()
}

func scanDecision(row scannable) (decision.OrchestrationDecision, error) {
	var d decision.OrchestrationDecision
	err := row.Scan(&d.ID, &d.TaskID, &d.DecisionType, &d.ComplexityScore, &d.Reasoning, &d.CreatedAt)
	return d, err
}
