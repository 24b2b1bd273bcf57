// Package notify delivers low-inventory alerts to Pushover, ported
// from original_source/greenfloor/notify/pushover.py's
// send_pushover_alert/render_low_inventory_message.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/hoffmang9/greenfloor/internal/ladder"
)

const pushoverURL = "https://api.pushover.net/1/messages.json"

// pushoverURLForTest lets tests redirect delivery to an httptest
// server instead of the real Pushover endpoint.
var pushoverURLForTest = pushoverURL

// PushoverConfig is the subset of config.Program the sender needs —
// kept as its own small struct rather than importing internal/config
// directly, so internal/notify doesn't need to know the full program
// config shape to be tested.
type PushoverConfig struct {
	Enabled         bool
	UserKeyEnv      string
	AppTokenEnv     string
	RecipientKeyEnv string
}

// PushoverSender posts to Pushover's messages API over plain
// net/http, matching the source's single form-encoded POST — no pack
// example wraps a notification provider in a dedicated SDK.
type PushoverSender struct {
	HTTP *http.Client
}

func NewPushoverSender() *PushoverSender {
	return &PushoverSender{HTTP: &http.Client{Timeout: 10 * time.Second}}
}

// RenderLowInventoryMessage mirrors render_low_inventory_message.
func RenderLowInventoryMessage(event ladder.AlertEvent) string {
	return fmt.Sprintf(
		"[%s] Running low on %s. Remaining: %d. Send more to receive address: %s.",
		event.MarketID, event.Ticker, event.RemainingAmount, event.ReceiveAddress,
	)
}

// SendLowInventoryAlert mirrors send_pushover_alert: silently returns
// (no error) when the provider is disabled or credentials are
// missing. A request-construction or network failure is returned as a
// pushover_request_error/pushover_network_error; the response status is
// not checked.
func (s *PushoverSender) SendLowInventoryAlert(ctx context.Context, cfg PushoverConfig, event ladder.AlertEvent) error {
	return s.sendTo(ctx, pushoverURLForTest, cfg, event)
}

func (s *PushoverSender) sendTo(ctx context.Context, endpoint string, cfg PushoverConfig, event ladder.AlertEvent) error {
	if !cfg.Enabled {
		return nil
	}

	userKey := firstNonEmptyEnv(cfg.UserKeyEnv, cfg.RecipientKeyEnv)
	appToken := strings.TrimSpace(os.Getenv(cfg.AppTokenEnv))
	if userKey == "" || appToken == "" {
		return nil
	}

	form := url.Values{
		"token":    {appToken},
		"user":     {userKey},
		"title":    {fmt.Sprintf("GreenFloor Low Inventory: %s", event.Ticker)},
		"message":  {RenderLowInventoryMessage(event)},
		"priority": {"0"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("pushover_request_error:%w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := s.HTTP
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("pushover_network_error:%w", err)
	}
	defer resp.Body.Close()
	return nil
}

func firstNonEmptyEnv(names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}
