package agent

import "time"

// Agent is a workspace-scoped calling persona: the caller number and script
// configuration a campaign dials with. A campaign cannot start without one.
type Agent struct {
	ID          string `json:"id" db:"id"`
	WorkspaceID string `json:"workspace_id" db:"workspace_id"`

	Name string `json:"name" db:"name"`

	// CallerNumber is the E.164 number calls are placed from.
	CallerNumber string `json:"caller_number" db:"caller_number"`

	Voice string `json:"voice,omitempty" db:"voice"`

	// ScriptPrompt configures the conversational behavior; consumed by the
	// voice layer, opaque to the orchestrator.
	ScriptPrompt string `json:"script_prompt,omitempty" db:"script_prompt"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
