package reporting

import (
	"context"
	"errors"
	"time"

	"outreach-platform/internal/campaign"
	"outreach-platform/internal/telephony"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Repository abstracts data access for reporting.
//
// IMPORTANT:
// - Methods must enforce workspace filtering.
// - Attempt records are immutable; summaries are stable for closed ranges.

type Repository interface {
	ListAttempts(ctx context.Context, workspaceID string, from, to time.Time, campaignID string) ([]campaign.AttemptRecord, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

func (s *Service) AttemptsSummary(ctx context.Context, req AttemptsSummaryRequest) (AttemptsSummary, error) {
	if req.WorkspaceID == "" {
		return AttemptsSummary{}, ErrInvalidRequest
	}
	if req.Range.From.IsZero() || req.Range.To.IsZero() || !req.Range.To.After(req.Range.From) {
		return AttemptsSummary{}, ErrInvalidRequest
	}
	if s.repo == nil {
		return AttemptsSummary{}, errors.New("reporting: repository not configured")
	}

	rows, err := s.repo.ListAttempts(ctx, req.WorkspaceID, req.Range.From, req.Range.To, req.CampaignID)
	if err != nil {
		return AttemptsSummary{}, err
	}

	out := AttemptsSummary{WorkspaceID: req.WorkspaceID, CampaignID: req.CampaignID}
	seen := map[string]struct{}{}
	for _, a := range rows {
		out.TotalAttempts++
		out.TotalDurationSeconds += a.DurationSeconds
		seen[a.CampaignID+"|"+a.Phone] = struct{}{}
		switch a.Outcome {
		case telephony.OutcomeCompleted:
			out.Connected++
		case telephony.OutcomeNoAnswer:
			out.NoAnswer++
		case telephony.OutcomeBusy:
			out.Busy++
		case telephony.OutcomeVoicemail:
			out.Voicemail++
		case telephony.OutcomeFailed, telephony.OutcomeCanceled:
			out.FailedAttempts++
		default:
			out.OtherOutcomes++
		}
	}
	out.UniqueContacts = len(seen)
	if out.TotalAttempts > 0 {
		out.AverageDurationSeconds = out.TotalDurationSeconds / out.TotalAttempts
		out.ConnectRate = float64(out.Connected) / float64(out.TotalAttempts)
	}
	return out, nil
}
