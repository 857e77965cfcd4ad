package campaign

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"outreach-platform/pkg/utils"
)

// PostgresStore persists campaigns with per-contact status child rows.
//
// Assumed tables:
// - campaigns (PK id, scoped by workspace_id)
// - campaign_contacts (PK (campaign_id, ordinal)): roster fields plus the
//   mutable execution status, one row per roster contact
//
// Mutate locks the campaign row (FOR UPDATE) for the whole read-modify-write,
// so concurrent transitions on one campaign are serialized while campaigns
// remain fully independent of each other.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// RetryDelay is stored as integer seconds.

func (s *PostgresStore) Create(ctx context.Context, c Campaign) error {
	if c.WorkspaceID == "" || c.ID == "" {
		return ErrInvalidArgument
	}
	return utils.WithTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		if err := insertCampaign(ctx, tx, c); err != nil {
			return err
		}
		return replaceContacts(ctx, tx, c)
	})
}

func (s *PostgresStore) Get(ctx context.Context, workspaceID, campaignID string) (Campaign, error) {
	if workspaceID == "" || campaignID == "" {
		return Campaign{}, ErrInvalidArgument
	}
	var out Campaign
	err := utils.WithTx(ctx, s.db, &sql.TxOptions{ReadOnly: true}, func(ctx context.Context, tx *sql.Tx) error {
		c, err := selectCampaign(ctx, tx, workspaceID, campaignID, false)
		if err != nil {
			return err
		}
		if err := loadContacts(ctx, tx, &c); err != nil {
			return err
		}
		out = c
		return nil
	})
	return out, err
}

func (s *PostgresStore) Mutate(ctx context.Context, workspaceID, campaignID string, fn func(c *Campaign) error) (Campaign, error) {
	if workspaceID == "" || campaignID == "" {
		return Campaign{}, ErrInvalidArgument
	}
	var out Campaign
	err := utils.WithTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		c, err := selectCampaign(ctx, tx, workspaceID, campaignID, true)
		if err != nil {
			return err
		}
		if err := loadContacts(ctx, tx, &c); err != nil {
			return err
		}

		before := cloneCampaign(c)
		if err := fn(&c); err != nil {
			return err
		}

		if err := updateCampaign(ctx, tx, c); err != nil {
			return err
		}
		if rosterChanged(before, c) {
			if err := replaceContacts(ctx, tx, c); err != nil {
				return err
			}
		} else {
			for i := range c.Statuses {
				if i < len(before.Statuses) && before.Statuses[i] == c.Statuses[i] {
					continue
				}
				if err := updateContactStatus(ctx, tx, c.ID, c.Statuses[i]); err != nil {
					return err
				}
			}
		}
		out = c
		return nil
	})
	return out, err
}

func (s *PostgresStore) ListActiveRefs(ctx context.Context) ([]Ref, error) {
	const q = `
SELECT workspace_id, id
FROM campaigns
WHERE status = $1
ORDER BY updated_at
`
	rows, err := s.db.QueryContext(ctx, q, StatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Ref, 0)
	for rows.Next() {
		var r Ref
		if err := rows.Scan(&r.WorkspaceID, &r.CampaignID); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

/* ===================== ROW HELPERS ===================== */

func selectCampaign(ctx context.Context, tx *sql.Tx, workspaceID, campaignID string, forUpdate bool) (Campaign, error) {
	q := `
SELECT id, workspace_id, name, agent_id, status, max_attempts, retry_delay_seconds,
       created_by_user_id, started_at, paused_at, completed_at, created_at, updated_at
FROM campaigns
WHERE workspace_id = $1 AND id = $2
`
	if forUpdate {
		q += "FOR UPDATE\n"
	}
	var (
		c          Campaign
		retrySecs  int64
		agentID    sql.NullString
		createdBy  sql.NullString
		startedAt  sql.NullTime
		pausedAt   sql.NullTime
		completedAt sql.NullTime
	)
	if err := tx.QueryRowContext(ctx, q, workspaceID, campaignID).Scan(
		&c.ID,
		&c.WorkspaceID,
		&c.Name,
		&agentID,
		&c.Status,
		&c.Retry.MaxAttempts,
		&retrySecs,
		&createdBy,
		&startedAt,
		&pausedAt,
		&completedAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Campaign{}, ErrNotFound
		}
		return Campaign{}, err
	}
	c.Retry.RetryDelay = time.Duration(retrySecs) * time.Second
	c.AgentID = agentID.String
	c.CreatedByUserID = createdBy.String
	c.StartedAt = timePtr(startedAt)
	c.PausedAt = timePtr(pausedAt)
	c.CompletedAt = timePtr(completedAt)
	return c, nil
}

func loadContacts(ctx context.Context, tx *sql.Tx, c *Campaign) error {
	const q = `
SELECT ordinal, name, phone, crm_ref, notes,
       status, attempts, call_id, provider_call_id, outcome, error, last_attempt_at, updated_at
FROM campaign_contacts
WHERE campaign_id = $1
ORDER BY ordinal
`
	rows, err := tx.QueryContext(ctx, q, c.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	c.Roster = c.Roster[:0]
	c.Statuses = c.Statuses[:0]
	started := false
	for rows.Next() {
		var (
			ct            Contact
			st            ContactCallStatus
			lastAttemptAt sql.NullTime
		)
		if err := rows.Scan(
			&ct.Ordinal,
			&ct.Name,
			&ct.Phone,
			&ct.CRMRef,
			&ct.Notes,
			&st.Status,
			&st.Attempts,
			&st.CallID,
			&st.ProviderCallID,
			&st.Outcome,
			&st.Error,
			&lastAttemptAt,
			&st.UpdatedAt,
		); err != nil {
			return err
		}
		st.CampaignID = c.ID
		st.Ordinal = ct.Ordinal
		st.LastAttemptAt = timePtr(lastAttemptAt)
		if st.Status != "" {
			started = true
		}
		c.Roster = append(c.Roster, ct)
		c.Statuses = append(c.Statuses, st)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	// An empty status column means execution has not started; the service
	// treats the absence of statuses as first-start.
	if !started {
		c.Statuses = nil
	}
	return nil
}

func insertCampaign(ctx context.Context, tx *sql.Tx, c Campaign) error {
	const q = `
INSERT INTO campaigns (
  id, workspace_id, name, agent_id, status, max_attempts, retry_delay_seconds,
  created_by_user_id, started_at, paused_at, completed_at, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13
)
`
	_, err := tx.ExecContext(ctx, q,
		c.ID,
		c.WorkspaceID,
		c.Name,
		nullString(c.AgentID),
		c.Status,
		c.Retry.MaxAttempts,
		int64(c.Retry.RetryDelay/time.Second),
		nullString(c.CreatedByUserID),
		c.StartedAt,
		c.PausedAt,
		c.CompletedAt,
		c.CreatedAt,
		c.UpdatedAt,
	)
	return err
}

func updateCampaign(ctx context.Context, tx *sql.Tx, c Campaign) error {
	const q = `
UPDATE campaigns
SET name = $3, agent_id = $4, status = $5, max_attempts = $6, retry_delay_seconds = $7,
    started_at = $8, paused_at = $9, completed_at = $10, updated_at = $11
WHERE workspace_id = $1 AND id = $2
`
	_, err := tx.ExecContext(ctx, q,
		c.WorkspaceID,
		c.ID,
		c.Name,
		nullString(c.AgentID),
		c.Status,
		c.Retry.MaxAttempts,
		int64(c.Retry.RetryDelay/time.Second),
		c.StartedAt,
		c.PausedAt,
		c.CompletedAt,
		c.UpdatedAt,
	)
	return err
}

func replaceContacts(ctx context.Context, tx *sql.Tx, c Campaign) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM campaign_contacts WHERE campaign_id = $1`, c.ID); err != nil {
		return err
	}
	const q = `
INSERT INTO campaign_contacts (
  campaign_id, ordinal, name, phone, crm_ref, notes,
  status, attempts, call_id, provider_call_id, outcome, error, last_attempt_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14
)
`
	for i, ct := range c.Roster {
		st := ContactCallStatus{UpdatedAt: c.UpdatedAt}
		if i < len(c.Statuses) {
			st = c.Statuses[i]
		}
		if _, err := tx.ExecContext(ctx, q,
			c.ID,
			ct.Ordinal,
			ct.Name,
			ct.Phone,
			ct.CRMRef,
			ct.Notes,
			string(st.Status),
			st.Attempts,
			st.CallID,
			st.ProviderCallID,
			st.Outcome,
			st.Error,
			st.LastAttemptAt,
			st.UpdatedAt,
		); err != nil {
			return err
		}
	}
	return nil
}

func updateContactStatus(ctx context.Context, tx *sql.Tx, campaignID string, st ContactCallStatus) error {
	const q = `
UPDATE campaign_contacts
SET status = $3, attempts = $4, call_id = $5, provider_call_id = $6,
    outcome = $7, error = $8, last_attempt_at = $9, updated_at = $10
WHERE campaign_id = $1 AND ordinal = $2
`
	_, err := tx.ExecContext(ctx, q,
		campaignID,
		st.Ordinal,
		string(st.Status),
		st.Attempts,
		st.CallID,
		st.ProviderCallID,
		st.Outcome,
		st.Error,
		st.LastAttemptAt,
		st.UpdatedAt,
	)
	return err
}

func rosterChanged(before, after Campaign) bool {
	if len(before.Roster) != len(after.Roster) {
		return true
	}
	for i := range after.Roster {
		if before.Roster[i] != after.Roster[i] {
			return true
		}
	}
	// A status reset (re-import) also requires a row rewrite.
	return len(before.Statuses) != len(after.Statuses)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
