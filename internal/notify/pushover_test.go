package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/hoffmang9/greenfloor/internal/ladder"
)

func TestRenderLowInventoryMessage(t *testing.T) {
	msg := RenderLowInventoryMessage(ladder.AlertEvent{
		MarketID:        "xch-usdc",
		Ticker:          "XCH",
		RemainingAmount: 42,
		ReceiveAddress:  "xch1abc",
	})
	want := "[xch-usdc] Running low on XCH. Remaining: 42. Send more to receive address: xch1abc."
	if msg != want {
		t.Fatalf("got %q want %q", msg, want)
	}
}

func TestSendLowInventoryAlertDisabledIsNoop(t *testing.T) {
	s := NewPushoverSender()
	err := s.SendLowInventoryAlert(context.Background(), PushoverConfig{Enabled: false}, ladder.AlertEvent{})
	if err != nil {
		t.Fatalf("expected no-op, got error: %v", err)
	}
}

func TestSendLowInventoryAlertMissingCredentialsIsNoop(t *testing.T) {
	t.Setenv("GF_TEST_USER_KEY", "")
	t.Setenv("GF_TEST_APP_TOKEN", "")
	s := NewPushoverSender()
	err := s.SendLowInventoryAlert(context.Background(), PushoverConfig{
		Enabled:     true,
		UserKeyEnv:  "GF_TEST_USER_KEY",
		AppTokenEnv: "GF_TEST_APP_TOKEN",
	}, ladder.AlertEvent{})
	if err != nil {
		t.Fatalf("expected no-op, got error: %v", err)
	}
}

func TestSendLowInventoryAlertPostsFormEncoded(t *testing.T) {
	var capturedForm url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("failed to parse posted form: %v", err)
		}
		capturedForm = r.Form
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	t.Setenv("GF_TEST_USER_KEY", "user-123")
	t.Setenv("GF_TEST_APP_TOKEN", "token-456")

	s := &PushoverSender{HTTP: server.Client()}
	orig := pushoverURLForTest
	pushoverURLForTest = server.URL
	defer func() { pushoverURLForTest = orig }()

	err := s.SendLowInventoryAlert(context.Background(), PushoverConfig{
		Enabled:     true,
		UserKeyEnv:  "GF_TEST_USER_KEY",
		AppTokenEnv: "GF_TEST_APP_TOKEN",
	}, ladder.AlertEvent{MarketID: "m", Ticker: "XCH", RemainingAmount: 5, ReceiveAddress: "xch1abc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if capturedForm.Get("token") != "token-456" || capturedForm.Get("user") != "user-123" {
		t.Fatalf("unexpected form: %+v", capturedForm)
	}
}
