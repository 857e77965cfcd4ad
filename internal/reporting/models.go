package reporting

import "time"

// Common filtering inputs.

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// AttemptsSummaryRequest requests aggregated call-attempt metrics.
// Workspace isolation: WorkspaceID is required.

type AttemptsSummaryRequest struct {
	WorkspaceID string    `json:"workspace_id"`
	Range       TimeRange `json:"range"`
	CampaignID  string    `json:"campaign_id,omitempty"`
}

type AttemptsSummary struct {
	WorkspaceID string `json:"workspace_id"`
	CampaignID  string `json:"campaign_id,omitempty"`

	TotalAttempts  int `json:"total_attempts"`
	Connected      int `json:"connected"`
	NoAnswer       int `json:"no_answer"`
	Busy           int `json:"busy"`
	Voicemail      int `json:"voicemail"`
	FailedAttempts int `json:"failed_attempts"`
	OtherOutcomes  int `json:"other_outcomes"`

	// UniqueContacts counts distinct contacts attempted at least once.
	UniqueContacts int `json:"unique_contacts"`

	TotalDurationSeconds   int `json:"total_duration_seconds"`
	AverageDurationSeconds int `json:"average_duration_seconds"`

	// ConnectRate is connected attempts over total attempts.
	ConnectRate float64 `json:"connect_rate"`
}
