package campaign

import "time"

// Campaign is a tenant-scoped batch of outbound calls to a contact roster,
// driven by one calling agent configuration.
//
// Multi-tenant invariant: WorkspaceID is required on every row.
//
// Execution invariant: at most one roster contact holds StatusCalling at any
// time (single-flight per campaign). The persisted claim write in Advance is
// the guard; see Store.Mutate.
type Campaign struct {
	ID          string `json:"id" db:"id"`
	WorkspaceID string `json:"workspace_id" db:"workspace_id"`

	Name    string `json:"name" db:"name"`
	AgentID string `json:"agent_id,omitempty" db:"agent_id"`

	Status Status `json:"status" db:"status"`

	// Roster is the ordered contact list. Immutable for a given run;
	// re-importing replaces it and resets all per-contact statuses.
	Roster []Contact `json:"roster"`

	// Statuses holds one entry per roster contact, matched by ordinal.
	// Invariant: len(Statuses) == len(Roster) once execution has started.
	Statuses []ContactCallStatus `json:"statuses"`

	Retry RetryPolicy `json:"retry_policy"`

	CreatedByUserID string `json:"created_by_user_id,omitempty" db:"created_by_user_id"`

	StartedAt   *time.Time `json:"started_at,omitempty" db:"started_at"`
	PausedAt    *time.Time `json:"paused_at,omitempty" db:"paused_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Status string

const (
	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

// Contact is one roster entry. Ordinal is its zero-based position and the
// stable key for the parallel status entry.
type Contact struct {
	Ordinal int    `json:"ordinal" db:"ordinal"`
	Name    string `json:"name" db:"name"`
	Phone   string `json:"phone" db:"phone"`

	// CRMRef optionally links the contact back to an external CRM record.
	CRMRef string `json:"crm_ref,omitempty" db:"crm_ref"`
	Notes  string `json:"notes,omitempty" db:"notes"`
}

// ContactCallStatus is the mutable execution state for one roster contact.
type ContactCallStatus struct {
	CampaignID string `json:"campaign_id" db:"campaign_id"`
	Ordinal    int    `json:"ordinal" db:"ordinal"`

	Status ContactStatus `json:"status" db:"status"`

	// Attempts counts call initiations for this contact.
	Attempts int `json:"attempts" db:"attempts"`

	// CallID correlates the most recent attempt with its completion event.
	// Set when the contact is claimed for dialing, cleared if initiation fails.
	CallID string `json:"call_id,omitempty" db:"call_id"`

	// ProviderCallID is the telephony provider's identifier, kept for diagnostics.
	ProviderCallID string `json:"provider_call_id,omitempty" db:"provider_call_id"`

	// Outcome is the provider's terminal result vocabulary, recorded verbatim.
	Outcome string `json:"outcome,omitempty" db:"outcome"`

	Error string `json:"error,omitempty" db:"error"`

	LastAttemptAt *time.Time `json:"last_attempt_at,omitempty" db:"last_attempt_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

type ContactStatus string

const (
	ContactStatusPending   ContactStatus = "pending"
	ContactStatusCalling   ContactStatus = "calling"
	ContactStatusCompleted ContactStatus = "completed"
	ContactStatusFailed    ContactStatus = "failed"
	ContactStatusSkipped   ContactStatus = "skipped"
	ContactStatusRetry     ContactStatus = "retry"
)

// Terminal reports whether no further automatic transition applies.
func (s ContactStatus) Terminal() bool {
	switch s {
	case ContactStatusCompleted, ContactStatusFailed, ContactStatusSkipped:
		return true
	default:
		return false
	}
}

// Eligible reports whether the contact can be selected for dialing.
func (s ContactStatus) Eligible() bool {
	return s == ContactStatusPending || s == ContactStatusRetry
}

// RetryPolicy bounds re-dial behavior per contact.
type RetryPolicy struct {
	// MaxAttempts caps call initiations per contact. Checked when a retry
	// contact is selected, not when the retry is recorded.
	MaxAttempts int `json:"max_attempts" db:"max_attempts"`

	// RetryDelay is the inter-retry trigger delay.
	RetryDelay time.Duration `json:"retry_delay" db:"retry_delay"`
}

// Progress is derived from stored state; it is never persisted.
type Progress struct {
	CampaignID  string `json:"campaign_id"`
	WorkspaceID string `json:"workspace_id"`
	Status      Status `json:"status"`

	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Retry     int `json:"retry"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
	Remaining int `json:"remaining"`

	InFlight bool `json:"in_flight"`

	// ActiveContact is the contact currently being called, if any.
	ActiveContact *Contact `json:"active_contact,omitempty"`

	StartedAt   *time.Time `json:"started_at,omitempty"`
	PausedAt    *time.Time `json:"paused_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// AttemptRecord is an immutable, append-only record of one finished call
// attempt. Reporting aggregates over these rather than over the mutable
// per-contact status rows.
type AttemptRecord struct {
	ID          string `json:"id" db:"id"`
	WorkspaceID string `json:"workspace_id" db:"workspace_id"`
	CampaignID  string `json:"campaign_id" db:"campaign_id"`
	CallID      string `json:"call_id" db:"call_id"`

	Ordinal int    `json:"ordinal" db:"ordinal"`
	Phone   string `json:"phone" db:"phone"`

	Attempt         int    `json:"attempt" db:"attempt"`
	Outcome         string `json:"outcome" db:"outcome"`
	DurationSeconds int    `json:"duration_seconds" db:"duration_seconds"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
