package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only; no Update/Delete methods exist.

type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service logs internal audit information.
//
// IMPORTANT:
// - Audit is internal-only. Do not expose these records to tenant users by default.
// - Callers should treat audit logging as best-effort.

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.WorkspaceID == "" {
		return ErrInvalidEvent
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}

	now := s.clock().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	return s.repo.Append(ctx, e)
}

// LogCampaignEvent records a campaign lifecycle or call event. A non-empty
// callID marks the record as a call event.
func (s *Service) LogCampaignEvent(ctx context.Context, workspaceID, actorUserID, campaignID, callID, message string) error {
	typ := EventTypeCampaignAction
	if callID != "" {
		typ = EventTypeCallEvent
	}
	return s.Append(ctx, Event{
		WorkspaceID: workspaceID,
		Type:        typ,
		ActorUserID: actorUserID,
		CampaignID:  campaignID,
		CallID:      callID,
		Message:     message,
	})
}
