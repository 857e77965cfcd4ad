package reporting

import (
	"context"
	"database/sql"
	"time"

	"outreach-platform/internal/campaign"
)

// PostgresRepo stores attempt records in the call_attempts table.
// The table is append-only; attempts are never rewritten.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) AppendAttempt(ctx context.Context, rec campaign.AttemptRecord) error {
	const q = `
INSERT INTO call_attempts (
  id, workspace_id, campaign_id, call_id, ordinal, phone,
  attempt, outcome, duration_seconds, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10
)
`
	_, err := r.db.ExecContext(ctx, q,
		rec.ID,
		rec.WorkspaceID,
		rec.CampaignID,
		rec.CallID,
		rec.Ordinal,
		rec.Phone,
		rec.Attempt,
		rec.Outcome,
		rec.DurationSeconds,
		rec.CreatedAt,
	)
	return err
}

func (r *PostgresRepo) ListAttempts(ctx context.Context, workspaceID string, from, to time.Time, campaignID string) ([]campaign.AttemptRecord, error) {
	q := `
SELECT id, workspace_id, campaign_id, call_id, ordinal, phone,
       attempt, outcome, duration_seconds, created_at
FROM call_attempts
WHERE workspace_id = $1 AND created_at >= $2 AND created_at < $3
`
	args := []any{workspaceID, from, to}
	if campaignID != "" {
		q += "AND campaign_id = $4\n"
		args = append(args, campaignID)
	}
	q += "ORDER BY created_at"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]campaign.AttemptRecord, 0)
	for rows.Next() {
		var a campaign.AttemptRecord
		if err := rows.Scan(
			&a.ID,
			&a.WorkspaceID,
			&a.CampaignID,
			&a.CallID,
			&a.Ordinal,
			&a.Phone,
			&a.Attempt,
			&a.Outcome,
			&a.DurationSeconds,
			&a.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
