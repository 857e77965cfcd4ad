package reporting

import (
	"context"
	"errors"
	"sync"
	"time"

	"outreach-platform/internal/campaign"
)

// MemoryRepo is a simple in-memory attempt store for tests and early
// development. It implements both the reporting Repository and the
// orchestrator's AttemptSink, so a test wiring can share one instance.
// It enforces workspace isolation on reads.

type MemoryRepo struct {
	mu       sync.Mutex
	attempts []campaign.AttemptRecord
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) AppendAttempt(ctx context.Context, rec campaign.AttemptRecord) error {
	_ = ctx
	if rec.WorkspaceID == "" {
		return errors.New("workspace_id required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, rec)
	return nil
}

func (r *MemoryRepo) ListAttempts(ctx context.Context, workspaceID string, from, to time.Time, campaignID string) ([]campaign.AttemptRecord, error) {
	_ = ctx
	if workspaceID == "" {
		return nil, errors.New("workspace_id required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]campaign.AttemptRecord, 0)
	for _, a := range r.attempts {
		if a.WorkspaceID != workspaceID {
			continue
		}
		if !a.CreatedAt.IsZero() {
			if a.CreatedAt.Before(from) || !a.CreatedAt.Before(to) {
				continue
			}
		}
		if campaignID != "" && a.CampaignID != campaignID {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}
