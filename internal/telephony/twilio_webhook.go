package telephony

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// TwilioStatusForm captures the subset of status-callback fields we care
// about. Twilio sends application/x-www-form-urlencoded by default.
//
// Correlation identifiers (workspace_id, campaign_id, call_id) travel in the
// callback URL query, not the form; the adapter put them there when placing
// the call.
type TwilioStatusForm struct {
	CallSid        string
	CallStatus     string
	CallDuration   string
	AnsweredBy     string
	From           string
	To             string
	ErrorCode      string
	SipResponseCode string
}

func ParseTwilioStatusCallback(r *http.Request) (TwilioStatusForm, error) {
	if err := r.ParseForm(); err != nil {
		return TwilioStatusForm{}, err
	}
	return TwilioStatusForm{
		CallSid:         r.PostFormValue("CallSid"),
		CallStatus:      r.PostFormValue("CallStatus"),
		CallDuration:    r.PostFormValue("CallDuration"),
		AnsweredBy:      r.PostFormValue("AnsweredBy"),
		From:            strings.TrimSpace(r.PostFormValue("From")),
		To:              strings.TrimSpace(r.PostFormValue("To")),
		ErrorCode:       r.PostFormValue("ErrorCode"),
		SipResponseCode: r.PostFormValue("SipCode"),
	}, nil
}

// Outcome maps Twilio's terminal call status onto the orchestrator's outcome
// vocabulary. A completed call answered by a machine counts as voicemail so
// the contact can be retried.
func (f TwilioStatusForm) Outcome() string {
	switch f.CallStatus {
	case "completed":
		if strings.HasPrefix(f.AnsweredBy, "machine") {
			return OutcomeVoicemail
		}
		return OutcomeCompleted
	case "no-answer":
		return OutcomeNoAnswer
	case "busy":
		return OutcomeBusy
	case "failed":
		return OutcomeFailed
	case "canceled":
		return OutcomeCanceled
	default:
		return f.CallStatus
	}
}

func (f TwilioStatusForm) DurationSeconds() int {
	n, err := strconv.Atoi(strings.TrimSpace(f.CallDuration))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// CompletionSink is the orchestrator-side handler for finished calls.
type CompletionSink interface {
	OnCallCompleted(ctx context.Context, workspaceID, campaignID, callID, outcome string, durationSeconds int) error
}

// StatusWebhookHandler turns Twilio status callbacks into completion events.
//
// NOTE: protect this endpoint with Twilio signature validation in production.
type StatusWebhookHandler struct {
	Completions CompletionSink
}

func (h StatusWebhookHandler) HandleStatusCallback(c *gin.Context) {
	workspaceID := c.Query("workspace_id")
	campaignID := c.Query("campaign_id")
	callID := c.Query("call_id")
	if workspaceID == "" || campaignID == "" || callID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing correlation params"})
		return
	}

	form, err := ParseTwilioStatusCallback(c.Request)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}
	if form.CallStatus == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "CallStatus required"})
		return
	}

	if err := h.Completions.OnCallCompleted(c.Request.Context(),
		workspaceID, campaignID, callID, form.Outcome(), form.DurationSeconds()); err != nil {
		// 5xx makes Twilio retry the callback; completion handling is
		// idempotent, so redelivery is safe.
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "completion handling failed"})
		return
	}
	c.Status(http.StatusNoContent)
}
