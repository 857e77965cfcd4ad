package agent

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("agent: not found")
	ErrInvalidArgument = errors.New("agent: invalid argument")
)

// Repository abstracts agent persistence. Reads are workspace-scoped.
type Repository interface {
	Get(ctx context.Context, workspaceID, agentID string) (Agent, bool, error)
	Put(ctx context.Context, a Agent) error
	List(ctx context.Context, workspaceID string) ([]Agent, error)
}

// Service validates and stores calling agents.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

func (s *Service) Get(ctx context.Context, workspaceID, agentID string) (Agent, bool, error) {
	if workspaceID == "" || agentID == "" {
		return Agent{}, false, ErrInvalidArgument
	}
	return s.repo.Get(ctx, workspaceID, agentID)
}

func (s *Service) List(ctx context.Context, workspaceID string) ([]Agent, error) {
	if workspaceID == "" {
		return nil, ErrInvalidArgument
	}
	return s.repo.List(ctx, workspaceID)
}

func (s *Service) Create(ctx context.Context, workspaceID, name, callerNumber, voice, scriptPrompt string) (Agent, error) {
	if workspaceID == "" || name == "" || callerNumber == "" {
		return Agent{}, ErrInvalidArgument
	}
	now := s.clock().UTC()
	a := Agent{
		ID:           uuid.NewString(),
		WorkspaceID:  workspaceID,
		Name:         name,
		CallerNumber: callerNumber,
		Voice:        voice,
		ScriptPrompt: scriptPrompt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Put(ctx, a); err != nil {
		return Agent{}, err
	}
	return a, nil
}

/* ===================== POSTGRES ===================== */

// PostgresRepo assumes a table `agents` keyed by id, scoped by workspace_id.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Get(ctx context.Context, workspaceID, agentID string) (Agent, bool, error) {
	const q = `
SELECT id, workspace_id, name, caller_number, voice, script_prompt, created_at, updated_at
FROM agents
WHERE workspace_id = $1 AND id = $2
`
	var a Agent
	err := r.db.QueryRowContext(ctx, q, workspaceID, agentID).Scan(
		&a.ID,
		&a.WorkspaceID,
		&a.Name,
		&a.CallerNumber,
		&a.Voice,
		&a.ScriptPrompt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Agent{}, false, nil
		}
		return Agent{}, false, err
	}
	return a, true, nil
}

func (r *PostgresRepo) Put(ctx context.Context, a Agent) error {
	const q = `
INSERT INTO agents (id, workspace_id, name, caller_number, voice, script_prompt, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id)
DO UPDATE SET name = EXCLUDED.name, caller_number = EXCLUDED.caller_number,
              voice = EXCLUDED.voice, script_prompt = EXCLUDED.script_prompt,
              updated_at = EXCLUDED.updated_at
`
	_, err := r.db.ExecContext(ctx, q,
		a.ID, a.WorkspaceID, a.Name, a.CallerNumber, a.Voice, a.ScriptPrompt, a.CreatedAt, a.UpdatedAt)
	return err
}

func (r *PostgresRepo) List(ctx context.Context, workspaceID string) ([]Agent, error) {
	const q = `
SELECT id, workspace_id, name, caller_number, voice, script_prompt, created_at, updated_at
FROM agents
WHERE workspace_id = $1
ORDER BY created_at
`
	rows, err := r.db.QueryContext(ctx, q, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Agent, 0)
	for rows.Next() {
		var a Agent
		if err := rows.Scan(&a.ID, &a.WorkspaceID, &a.Name, &a.CallerNumber, &a.Voice, &a.ScriptPrompt, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
