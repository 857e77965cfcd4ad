package campaign

import (
	"context"
	"errors"
)

var (
	ErrNotFound        = errors.New("campaign: not found")
	ErrAgentMissing    = errors.New("campaign: no calling agent assigned")
	ErrEmptyRoster     = errors.New("campaign: roster is empty")
	ErrInvalidArgument = errors.New("campaign: invalid argument")
	ErrNotActive       = errors.New("campaign: not active")
	ErrCampaignLocked  = errors.New("campaign: configuration cannot change while campaign is active")
)

// Ref identifies a campaign for cross-workspace scans (the stall sweep).
type Ref struct {
	WorkspaceID string
	CampaignID  string
}

// Store is the persistence contract for campaigns.
//
// Mutate is the only write path for execution state. Implementations must
// serialize concurrent Mutate calls per campaign (row lock or equivalent):
// every state transition is a read-modify-write under that lock, which is what
// makes the single-flight claim in Advance safe against racing invocations.
type Store interface {
	Create(ctx context.Context, c Campaign) error
	Get(ctx context.Context, workspaceID, campaignID string) (Campaign, error)

	// Mutate loads the campaign under a per-campaign lock, applies fn, and
	// persists the result if fn returns nil. fn must not retain the pointer.
	Mutate(ctx context.Context, workspaceID, campaignID string, fn func(c *Campaign) error) (Campaign, error)

	// ListActiveRefs returns every campaign currently in StatusActive,
	// across workspaces. Used by the scheduler's stall sweep.
	ListActiveRefs(ctx context.Context) ([]Ref, error)
}
