package telephony

import "context"

// Provider defines the provider-agnostic outbound dialing interface used by
// the orchestrator.
//
// Rules:
// - No provider SDK calls outside telephony adapters.
// - All requests must be workspace-scoped (workspace_id required).
// - PlaceCall may fail synchronously; the terminal result of a placed call
//   arrives later through the provider's status callback, out of process.
type Provider interface {
	Name() string
	HealthCheck(ctx context.Context) error

	PlaceCall(ctx context.Context, req PlaceCallRequest) (PlaceCallResult, error)
}

// PlaceCallRequest asks the provider to dial one contact.
type PlaceCallRequest struct {
	WorkspaceID string `json:"workspace_id"`
	CampaignID  string `json:"campaign_id"`

	// CallID is the internal correlator. Adapters must arrange for the
	// provider's completion callback to carry it back (here: embedded in the
	// status callback URL).
	CallID string `json:"call_id"`

	// To and From are E.164 where possible. From is the agent's caller number.
	To   string `json:"to"`
	From string `json:"from"`

	// AgentID selects the calling persona configuration.
	AgentID string `json:"agent_id"`
}

type PlaceCallResult struct {
	// ProviderCallID is the provider's unique identifier for this call.
	ProviderCallID string `json:"provider_call_id"`
}

// Outcome vocabulary delivered to the completion handler. Provider adapters
// map their native status strings onto these; unknown statuses pass through
// verbatim and are treated as terminal.
const (
	OutcomeCompleted = "completed"
	OutcomeNoAnswer  = "no_answer"
	OutcomeBusy      = "busy"
	OutcomeVoicemail = "voicemail"
	OutcomeFailed    = "failed"
	OutcomeCanceled  = "canceled"
)
