package telephony

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func testProvider(t *testing.T, handler http.HandlerFunc) *TwilioProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	p, err := NewTwilioProvider(TwilioConfig{
		AccountSID:            "AC123",
		AuthToken:             "secret",
		StatusCallbackBaseURL: "https://api.example.com",
		MachineDetection:      true,
	})
	if err != nil {
		t.Fatalf("NewTwilioProvider: %v", err)
	}
	p.base = srv.URL
	return p
}

func TestPlaceCallRequestShape(t *testing.T) {
	var gotPath string
	var gotForm url.Values
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		gotForm = r.PostForm
		if user, pass, ok := r.BasicAuth(); !ok || user != "AC123" || pass != "secret" {
			t.Errorf("basic auth = %s:%s ok=%v", user, pass, ok)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"sid": "CA999"})
	})

	res, err := p.PlaceCall(context.Background(), PlaceCallRequest{
		WorkspaceID: "ws1",
		CampaignID:  "camp1",
		CallID:      "call1",
		To:          "+15550001",
		From:        "+15550100",
		AgentID:     "ag1",
	})
	if err != nil {
		t.Fatalf("PlaceCall: %v", err)
	}
	if res.ProviderCallID != "CA999" {
		t.Fatalf("ProviderCallID = %s, want CA999", res.ProviderCallID)
	}
	if gotPath != "/Accounts/AC123/Calls.json" {
		t.Fatalf("path = %s", gotPath)
	}
	if gotForm.Get("To") != "+15550001" || gotForm.Get("From") != "+15550100" {
		t.Fatalf("form numbers = %v", gotForm)
	}
	if gotForm.Get("MachineDetection") != "DetectMessageEnd" {
		t.Fatalf("MachineDetection = %q", gotForm.Get("MachineDetection"))
	}

	// Correlation ids must round-trip through the status callback URL.
	cb, err := url.Parse(gotForm.Get("StatusCallback"))
	if err != nil {
		t.Fatalf("StatusCallback parse: %v", err)
	}
	if !strings.HasSuffix(cb.Path, "/webhooks/twilio/status") {
		t.Fatalf("StatusCallback path = %s", cb.Path)
	}
	q := cb.Query()
	if q.Get("workspace_id") != "ws1" || q.Get("campaign_id") != "camp1" || q.Get("call_id") != "call1" {
		t.Fatalf("StatusCallback query = %v", q)
	}
}

func TestPlaceCallRejection(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code": 21211, "message": "invalid To number"}`))
	})

	_, err := p.PlaceCall(context.Background(), PlaceCallRequest{
		To: "+bad", From: "+15550100", CallID: "c1",
	})
	if err == nil || !strings.Contains(err.Error(), "status 400") {
		t.Fatalf("err = %v, want rejection with status 400", err)
	}
}

func TestPlaceCallRequiresNumbers(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	if _, err := p.PlaceCall(context.Background(), PlaceCallRequest{To: "+15550001"}); err == nil {
		t.Fatal("missing From accepted")
	}
}

func TestNewTwilioProviderValidation(t *testing.T) {
	if _, err := NewTwilioProvider(TwilioConfig{StatusCallbackBaseURL: "https://x"}); err == nil {
		t.Fatal("missing credentials accepted")
	}
	if _, err := NewTwilioProvider(TwilioConfig{AccountSID: "AC", AuthToken: "t"}); err == nil {
		t.Fatal("missing callback base accepted")
	}
}
