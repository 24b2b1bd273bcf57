package venue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// SplashClient is the second venue adapter, grounded on
// original_source/greenfloor/adapters/splash.py — a much thinner surface
// than dexie (post_offer only).
type SplashClient struct {
	baseURL string
	http    *http.Client
}

func NewSplashClient(baseURL string) *SplashClient {
	return &SplashClient{baseURL: strings.TrimRight(baseURL, "/"), http: &http.Client{Timeout: 20 * time.Second}}
}

func (c *SplashClient) PostOffer(ctx context.Context, offerText string) (map[string]any, error) {
	body, _ := json.Marshal(map[string]any{"offer": offerText})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/offers", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return map[string]any{"success": false, "error": fmt.Sprintf("splash_network_error:%v", err)}, nil
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return map[string]any{"success": false, "error": fmt.Sprintf("splash_http_error:%d", resp.StatusCode)}, nil
	}
	var result map[string]any
	if err := json.Unmarshal(raw, &result); err != nil {
		return map[string]any{"success": false, "error": "invalid_response_format"}, nil
	}
	return result, nil
}
