package reporting

import (
	"context"
	"errors"
	"testing"
	"time"

	"outreach-platform/internal/campaign"
	"outreach-platform/internal/telephony"
)

func seedAttempts(t *testing.T, repo *MemoryRepo, base time.Time) {
	t.Helper()
	recs := []campaign.AttemptRecord{
		{ID: "a1", WorkspaceID: "ws1", CampaignID: "c1", Phone: "+15550001", Attempt: 1, Outcome: telephony.OutcomeNoAnswer, CreatedAt: base},
		{ID: "a2", WorkspaceID: "ws1", CampaignID: "c1", Phone: "+15550001", Attempt: 2, Outcome: telephony.OutcomeCompleted, DurationSeconds: 90, CreatedAt: base.Add(time.Minute)},
		{ID: "a3", WorkspaceID: "ws1", CampaignID: "c1", Phone: "+15550002", Attempt: 1, Outcome: telephony.OutcomeVoicemail, DurationSeconds: 30, CreatedAt: base.Add(2 * time.Minute)},
		{ID: "a4", WorkspaceID: "ws1", CampaignID: "c2", Phone: "+15550003", Attempt: 1, Outcome: telephony.OutcomeFailed, CreatedAt: base.Add(3 * time.Minute)},
		// Different workspace, must never leak into ws1 summaries.
		{ID: "a5", WorkspaceID: "ws2", CampaignID: "c9", Phone: "+15550009", Attempt: 1, Outcome: telephony.OutcomeCompleted, DurationSeconds: 600, CreatedAt: base},
	}
	for _, rec := range recs {
		if err := repo.AppendAttempt(context.Background(), rec); err != nil {
			t.Fatalf("AppendAttempt: %v", err)
		}
	}
}

func TestAttemptsSummaryAggregates(t *testing.T) {
	repo := NewMemoryRepo()
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	seedAttempts(t, repo, base)
	svc := NewService(repo)

	got, err := svc.AttemptsSummary(context.Background(), AttemptsSummaryRequest{
		WorkspaceID: "ws1",
		Range:       TimeRange{From: base, To: base.Add(time.Hour)},
	})
	if err != nil {
		t.Fatalf("AttemptsSummary: %v", err)
	}

	if got.TotalAttempts != 4 {
		t.Fatalf("TotalAttempts = %d, want 4", got.TotalAttempts)
	}
	if got.Connected != 1 || got.NoAnswer != 1 || got.Voicemail != 1 || got.FailedAttempts != 1 {
		t.Fatalf("outcome counts = %+v", got)
	}
	if got.UniqueContacts != 3 {
		t.Fatalf("UniqueContacts = %d, want 3", got.UniqueContacts)
	}
	if got.TotalDurationSeconds != 120 {
		t.Fatalf("TotalDurationSeconds = %d, want 120", got.TotalDurationSeconds)
	}
	if got.AverageDurationSeconds != 30 {
		t.Fatalf("AverageDurationSeconds = %d, want 30", got.AverageDurationSeconds)
	}
	if got.ConnectRate != 0.25 {
		t.Fatalf("ConnectRate = %v, want 0.25", got.ConnectRate)
	}
}

func TestAttemptsSummaryCampaignFilter(t *testing.T) {
	repo := NewMemoryRepo()
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	seedAttempts(t, repo, base)
	svc := NewService(repo)

	got, err := svc.AttemptsSummary(context.Background(), AttemptsSummaryRequest{
		WorkspaceID: "ws1",
		Range:       TimeRange{From: base, To: base.Add(time.Hour)},
		CampaignID:  "c2",
	})
	if err != nil {
		t.Fatalf("AttemptsSummary: %v", err)
	}
	if got.TotalAttempts != 1 || got.FailedAttempts != 1 {
		t.Fatalf("campaign filter summary = %+v", got)
	}
}

func TestAttemptsSummaryRangeExcludesOutside(t *testing.T) {
	repo := NewMemoryRepo()
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	seedAttempts(t, repo, base)
	svc := NewService(repo)

	// Half-open range [From, To): only the first two attempts fall inside.
	got, err := svc.AttemptsSummary(context.Background(), AttemptsSummaryRequest{
		WorkspaceID: "ws1",
		Range:       TimeRange{From: base, To: base.Add(2 * time.Minute)},
	})
	if err != nil {
		t.Fatalf("AttemptsSummary: %v", err)
	}
	if got.TotalAttempts != 2 {
		t.Fatalf("TotalAttempts = %d, want 2", got.TotalAttempts)
	}
}

func TestAttemptsSummaryValidation(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	now := time.Now()

	cases := []AttemptsSummaryRequest{
		{Range: TimeRange{From: now, To: now.Add(time.Hour)}},
		{WorkspaceID: "ws1"},
		{WorkspaceID: "ws1", Range: TimeRange{From: now.Add(time.Hour), To: now}},
	}
	for i, req := range cases {
		if _, err := svc.AttemptsSummary(context.Background(), req); !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("case %d: err = %v, want ErrInvalidRequest", i, err)
		}
	}
}
