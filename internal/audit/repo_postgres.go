package audit

import (
	"context"
	"database/sql"
)

// PostgresRepo appends to the audit_events table. Insert-only.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO audit_events (
  id, workspace_id, type, actor_user_id, actor_role,
  campaign_id, call_id, agent_id, message, metadata, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
)
`
	_, err := r.db.ExecContext(ctx, q,
		e.ID,
		e.WorkspaceID,
		e.Type,
		e.ActorUserID,
		e.ActorRole,
		e.CampaignID,
		e.CallID,
		e.AgentID,
		e.Message,
		e.Metadata,
		e.CreatedAt,
	)
	return err
}
