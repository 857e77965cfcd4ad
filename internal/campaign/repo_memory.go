package campaign

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store for tests and early development.
// It enforces workspace isolation on reads and serializes Mutate with a
// single mutex, which satisfies the per-campaign locking contract.
//
// NOTE: not intended for production; use the Postgres store.
type MemoryStore struct {
	mu        sync.Mutex
	campaigns map[string]Campaign // key: workspace_id|campaign_id
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{campaigns: map[string]Campaign{}}
}

func memKey(workspaceID, campaignID string) string {
	return workspaceID + "|" + campaignID
}

func (s *MemoryStore) Create(ctx context.Context, c Campaign) error {
	_ = ctx
	if c.WorkspaceID == "" || c.ID == "" {
		return ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.campaigns[memKey(c.WorkspaceID, c.ID)] = cloneCampaign(c)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, workspaceID, campaignID string) (Campaign, error) {
	_ = ctx
	if workspaceID == "" || campaignID == "" {
		return Campaign{}, ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[memKey(workspaceID, campaignID)]
	if !ok {
		return Campaign{}, ErrNotFound
	}
	return cloneCampaign(c), nil
}

func (s *MemoryStore) Mutate(ctx context.Context, workspaceID, campaignID string, fn func(c *Campaign) error) (Campaign, error) {
	_ = ctx
	if workspaceID == "" || campaignID == "" {
		return Campaign{}, ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.campaigns[memKey(workspaceID, campaignID)]
	if !ok {
		return Campaign{}, ErrNotFound
	}
	c := cloneCampaign(stored)
	if err := fn(&c); err != nil {
		return Campaign{}, err
	}
	s.campaigns[memKey(workspaceID, campaignID)] = cloneCampaign(c)
	return c, nil
}

func (s *MemoryStore) ListActiveRefs(ctx context.Context) ([]Ref, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Ref, 0)
	for _, c := range s.campaigns {
		if c.Status == StatusActive {
			out = append(out, Ref{WorkspaceID: c.WorkspaceID, CampaignID: c.ID})
		}
	}
	return out, nil
}

func cloneCampaign(c Campaign) Campaign {
	out := c
	out.Roster = make([]Contact, len(c.Roster))
	copy(out.Roster, c.Roster)
	out.Statuses = make([]ContactCallStatus, len(c.Statuses))
	copy(out.Statuses, c.Statuses)
	return out
}
