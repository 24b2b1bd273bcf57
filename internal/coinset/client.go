// Package coinset is the indexer client (spec §4.2): a request/response
// contract over an external coin/mempool indexer (coinset.org-shaped).
package coinset

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	MainnetBaseURL   = "https://api.coinset.org"
	Testnet11BaseURL = "https://api-testnet11.coinset.org"
)

// Client is a thin hand-rolled HTTP wrapper, following the teacher's
// internal/bitcoin/client.go pattern of a typed client struct with
// context-aware methods, over plain net/http rather than a framework —
// no pack example wraps outbound REST calls in a third-party HTTP client.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, network string) *Client {
	if baseURL == "" {
		if network == "testnet11" {
			baseURL = Testnet11BaseURL
		} else {
			baseURL = MainnetBaseURL
		}
	}
	return &Client{
		baseURL: trimTrailingSlash(baseURL),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

func trimTrailingSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}

func (c *Client) postJSON(ctx context.Context, endpoint string, body map[string]any) (map[string]any, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("invalid_response:%w", err)
	}
	url := c.baseURL + "/" + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("network_error:%w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network_error:%w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		snippet := string(raw)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return nil, fmt.Errorf("http_error:%d:%s", resp.StatusCode, snippet)
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("invalid_response:%w", err)
	}
	return payload, nil
}

// CoinRecord is the indexer's wire shape for a coin record.
type CoinRecord struct {
	Coin            map[string]any `json:"coin"`
	SpentBlockIndex *uint32        `json:"spent_block_index"`
}

func (c *Client) GetCoinRecordsByPuzzleHash(ctx context.Context, puzzleHashHex string, includeSpent bool) ([]map[string]any, error) {
	payload, err := c.postJSON(ctx, "get_coin_records_by_puzzle_hash", map[string]any{
		"puzzle_hash":         puzzleHashHex,
		"include_spent_coins": includeSpent,
	})
	if err != nil {
		return nil, err
	}
	if ok, _ := payload["success"].(bool); !ok {
		return nil, nil
	}
	records, _ := payload["coin_records"].([]any)
	out := make([]map[string]any, 0, len(records))
	for _, r := range records {
		if m, ok := r.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (c *Client) GetCoinRecordByName(ctx context.Context, coinIDHex string) (map[string]any, error) {
	payload, err := c.postJSON(ctx, "get_coin_record_by_name", map[string]any{"name": coinIDHex})
	if err != nil {
		return nil, err
	}
	if ok, _ := payload["success"].(bool); !ok {
		return nil, nil
	}
	record, _ := payload["coin_record"].(map[string]any)
	return record, nil
}

func (c *Client) GetPuzzleAndSolution(ctx context.Context, coinIDHex string, height *uint32) (map[string]any, error) {
	body := map[string]any{"coin_id": coinIDHex}
	if height != nil && *height > 0 {
		body["height"] = *height
	}
	payload, err := c.postJSON(ctx, "get_puzzle_and_solution", body)
	if err != nil {
		return nil, err
	}
	if ok, _ := payload["success"].(bool); !ok {
		return nil, nil
	}
	solution, _ := payload["coin_solution"].(map[string]any)
	return solution, nil
}

func (c *Client) PushTx(ctx context.Context, spendBundleHex string) (map[string]any, error) {
	payload, err := c.postJSON(ctx, "push_tx", map[string]any{"spend_bundle": spendBundleHex})
	if err != nil {
		return map[string]any{"success": false, "error": err.Error()}, nil
	}
	return payload, nil
}

func (c *Client) GetAllMempoolTxIDs(ctx context.Context) ([]string, error) {
	payload, err := c.postJSON(ctx, "get_all_mempool_tx_ids", map[string]any{})
	if err != nil {
		return nil, err
	}
	if ok, _ := payload["success"].(bool); !ok {
		return nil, nil
	}
	raw, _ := payload["tx_ids"].([]any)
	if raw == nil {
		raw, _ = payload["mempool_tx_ids"].([]any)
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (c *Client) GetFeeEstimate(ctx context.Context, targetTimes []int) ([]uint64, error) {
	body := map[string]any{}
	if len(targetTimes) > 0 {
		body["target_times"] = targetTimes
	}
	payload, err := c.postJSON(ctx, "get_fee_estimate", body)
	if err != nil {
		return nil, err
	}
	if ok, _ := payload["success"].(bool); !ok {
		return nil, nil
	}
	raw, _ := payload["estimates"].([]any)
	out := make([]uint64, 0, len(raw))
	for _, v := range raw {
		if f, ok := v.(float64); ok {
			out = append(out, uint64(f))
		}
	}
	return out, nil
}

func (c *Client) PeakHeight(ctx context.Context) (uint32, error) {
	payload, err := c.postJSON(ctx, "get_blockchain_state", map[string]any{})
	if err != nil {
		return 0, err
	}
	state, _ := payload["blockchain_state"].(map[string]any)
	peak, _ := state["peak"].(map[string]any)
	height, _ := peak["height"].(float64)
	return uint32(height), nil
}

// BuildWebhookCallbackURL mirrors original_source's build_webhook_callback_url:
// derives the http callback URL the indexer should POST tx-block events to.
func BuildWebhookCallbackURL(listenAddr, path string) string {
	if path == "" {
		path = "/coinset/tx-block"
	}
	host, port := splitHostPort(listenAddr)
	if port == "" {
		port = "8787"
	}
	return fmt.Sprintf("http://%s:%s%s", host, port, path)
}

func splitHostPort(addr string) (host, port string) {
	for i := 0; i < len(addr); i++ {
		if addr[i] == ':' {
			return addr[:i], addr[i+1:]
		}
	}
	return addr, ""
}
