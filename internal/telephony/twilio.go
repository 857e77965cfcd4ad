package telephony

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const twilioAPIBase = "https://api.twilio.com/2010-04-01"

// TwilioConfig carries the credentials and callback wiring for the Twilio
// adapter. StatusCallbackBaseURL is this service's public base URL; the
// adapter appends the status webhook path with correlation identifiers.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string

	// VoiceURL serves the TwiML that runs the calling agent once the callee
	// answers. Campaign, call and agent ids are appended as query params.
	VoiceURL string

	StatusCallbackBaseURL string

	// MachineDetection asks Twilio to classify answering machines so
	// voicemail pickups can be retried. Enabled by default.
	MachineDetection bool
}

// TwilioProvider places outbound calls through the Twilio REST API.
type TwilioProvider struct {
	cfg    TwilioConfig
	client *http.Client
	base   string
}

func NewTwilioProvider(cfg TwilioConfig) (*TwilioProvider, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, errors.New("telephony: twilio credentials are required")
	}
	if cfg.StatusCallbackBaseURL == "" {
		return nil, errors.New("telephony: status callback base url is required")
	}
	return &TwilioProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
		base:   twilioAPIBase,
	}, nil
}

func (p *TwilioProvider) Name() string { return "twilio" }

func (p *TwilioProvider) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/Accounts/%s.json", p.base, p.cfg.AccountSID), nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(p.cfg.AccountSID, p.cfg.AuthToken)
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telephony: twilio health check status %d", resp.StatusCode)
	}
	return nil
}

func (p *TwilioProvider) PlaceCall(ctx context.Context, req PlaceCallRequest) (PlaceCallResult, error) {
	if req.WorkspaceID == "" || req.CampaignID == "" || req.CallID == "" {
		return PlaceCallResult{}, errors.New("telephony: workspace_id, campaign_id, call_id required")
	}
	if req.To == "" || req.From == "" {
		return PlaceCallResult{}, errors.New("telephony: to and from numbers required")
	}

	form := url.Values{}
	form.Set("To", req.To)
	form.Set("From", req.From)
	form.Set("Url", p.voiceURL(req))
	form.Set("StatusCallback", p.statusCallbackURL(req))
	form.Set("StatusCallbackEvent", "completed")
	form.Set("StatusCallbackMethod", http.MethodPost)
	if p.cfg.MachineDetection {
		form.Set("MachineDetection", "DetectMessageEnd")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/Accounts/%s/Calls.json", p.base, p.cfg.AccountSID),
		strings.NewReader(form.Encode()))
	if err != nil {
		return PlaceCallResult{}, err
	}
	httpReq.SetBasicAuth(p.cfg.AccountSID, p.cfg.AuthToken)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return PlaceCallResult{}, fmt.Errorf("telephony: twilio request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return PlaceCallResult{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return PlaceCallResult{}, fmt.Errorf("telephony: twilio rejected call: status %d: %s",
			resp.StatusCode, truncate(string(body), 200))
	}

	var out struct {
		Sid string `json:"sid"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return PlaceCallResult{}, fmt.Errorf("telephony: twilio response decode failed: %w", err)
	}
	if out.Sid == "" {
		return PlaceCallResult{}, errors.New("telephony: twilio response missing call sid")
	}
	return PlaceCallResult{ProviderCallID: out.Sid}, nil
}

func (p *TwilioProvider) voiceURL(req PlaceCallRequest) string {
	q := url.Values{}
	q.Set("workspace_id", req.WorkspaceID)
	q.Set("campaign_id", req.CampaignID)
	q.Set("call_id", req.CallID)
	q.Set("agent_id", req.AgentID)
	base := p.cfg.VoiceURL
	if base == "" {
		base = strings.TrimRight(p.cfg.StatusCallbackBaseURL, "/") + "/webhooks/twilio/voice"
	}
	return base + "?" + q.Encode()
}

func (p *TwilioProvider) statusCallbackURL(req PlaceCallRequest) string {
	q := url.Values{}
	q.Set("workspace_id", req.WorkspaceID)
	q.Set("campaign_id", req.CampaignID)
	q.Set("call_id", req.CallID)
	return strings.TrimRight(p.cfg.StatusCallbackBaseURL, "/") + "/webhooks/twilio/status?" + q.Encode()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
