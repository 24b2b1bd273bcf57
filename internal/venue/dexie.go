// Package venue is the venue client (spec §4.3): an HTTP contract over the
// offer marketplace(s) — dexie.space and splash, grounded on
// original_source/greenfloor/adapters/dexie.py and adapters/splash.py.
package venue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Offer is the venue's wire shape for an offer listing.
type Offer struct {
	ID     string `json:"id"`
	Status int    `json:"status"`
	Raw    map[string]any `json:"-"`
}

type DexieClient struct {
	baseURL string
	http    *http.Client
}

func NewDexieClient(baseURL string) *DexieClient {
	return &DexieClient{baseURL: strings.TrimRight(baseURL, "/"), http: &http.Client{Timeout: 20 * time.Second}}
}

func (c *DexieClient) GetTokens(ctx context.Context) ([]map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/swap/tokens", nil)
	if err != nil {
		return nil, err
	}
	var payload map[string]any
	if err := c.doJSON(req, &payload); err != nil {
		return nil, err
	}
	return asMapSlice(firstNonNil(payload["tokens"], payload)), nil
}

func (c *DexieClient) GetOffers(ctx context.Context, offered, requested string) ([]Offer, error) {
	q := url.Values{"offered": {offered}, "requested": {requested}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/offers?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	var payload map[string]any
	if err := c.doJSON(req, &payload); err != nil {
		return nil, err
	}
	raw, _ := payload["offers"].([]any)
	out := make([]Offer, 0, len(raw))
	for _, r := range raw {
		m, ok := r.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, offerFromMap(m))
	}
	return out, nil
}

func offerFromMap(m map[string]any) Offer {
	id, _ := m["id"].(string)
	status := 0
	if v, ok := m["status"].(float64); ok {
		status = int(v)
	}
	return Offer{ID: id, Status: status, Raw: m}
}

func (c *DexieClient) GetOffer(ctx context.Context, offerID string) (map[string]any, error) {
	clean := strings.TrimSpace(offerID)
	if clean == "" {
		return nil, fmt.Errorf("missing_offer_id")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/offers/"+url.PathEscape(clean), nil)
	if err != nil {
		return nil, err
	}
	var payload map[string]any
	if err := c.doJSON(req, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// PostOffer returns a result map rather than an error on HTTP/network
// failure, matching the Python source's {"success": false, "error": ...}
// contract so the retry controller (§4.9) can inspect the tagged reason.
func (c *DexieClient) PostOffer(ctx context.Context, offerText string, dropOnly bool, claimRewards *bool) (map[string]any, error) {
	body := map[string]any{"offer": offerText, "drop_only": dropOnly}
	if claimRewards != nil {
		body["claim_rewards"] = *claimRewards
	}
	data, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/offers", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return map[string]any{"success": false, "error": fmt.Sprintf("dexie_network_error:%v", err)}, nil
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		snippet := string(raw)
		if len(snippet) > 500 {
			snippet = snippet[:500]
		}
		errMsg := fmt.Sprintf("dexie_http_error:%d", resp.StatusCode)
		if snippet != "" {
			errMsg = fmt.Sprintf("%s:%s", errMsg, snippet)
		}
		return map[string]any{"success": false, "error": errMsg}, nil
	}
	var result map[string]any
	if err := json.Unmarshal(raw, &result); err != nil {
		return map[string]any{"success": false, "error": "invalid_response_format"}, nil
	}
	return result, nil
}

func (c *DexieClient) CancelOffer(ctx context.Context, offerID string) (map[string]any, error) {
	clean := strings.TrimSpace(offerID)
	body, _ := json.Marshal(map[string]any{"id": clean})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/offers/"+url.PathEscape(clean)+"/cancel", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	var result map[string]any
	if err := c.doJSON(req, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// LookupTokenByCatID finds a token by CAT asset id across swap tokens and
// v3 tickers, grounded on dexie.py's lookup_token_by_cat_id.
func (c *DexieClient) LookupTokenByCatID(ctx context.Context, catIDHex string) (map[string]any, bool) {
	target := strings.ToLower(strings.TrimSpace(catIDHex))
	if target == "" {
		return nil, false
	}
	tokens, _ := c.GetTokens(ctx)
	for _, row := range tokens {
		if rowMatchesCatTarget(row, target, false) {
			return row, true
		}
	}
	tickers := c.fetchTickerRows(ctx)
	for _, row := range tickers {
		if rowMatchesCatTarget(row, target, true) {
			return row, true
		}
	}
	return nil, false
}

func (c *DexieClient) fetchTickerRows(ctx context.Context) []map[string]any {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v3/prices/tickers", nil)
	if err != nil {
		return nil
	}
	var payload any
	if err := c.doJSONAny(req, &payload); err != nil {
		return nil
	}
	switch v := payload.(type) {
	case []any:
		return asMapSlice(v)
	case map[string]any:
		return asMapSlice(v["tickers"])
	}
	return nil
}

func rowMatchesCatTarget(row map[string]any, target string, includeTickerSplit bool) bool {
	candidates := map[string]bool{}
	for _, key := range []string{"assetId", "asset_id", "id", "tokenId", "token_id", "base_currency", "target_currency"} {
		if v, ok := row[key].(string); ok {
			candidates[strings.ToLower(strings.TrimSpace(v))] = true
		}
	}
	if v, ok := row["ticker_id"].(string); ok {
		tid := strings.ToLower(strings.TrimSpace(v))
		if tid != "" {
			candidates[tid] = true
			if includeTickerSplit && strings.Contains(tid, "_") {
				parts := strings.SplitN(tid, "_", 2)
				candidates[parts[0]] = true
				candidates[parts[1]] = true
			}
		}
	}
	return candidates[target]
}

func (c *DexieClient) doJSON(req *http.Request, out *map[string]any) error {
	var v any
	if err := c.doJSONAny(req, &v); err != nil {
		return err
	}
	if m, ok := v.(map[string]any); ok {
		*out = m
		return nil
	}
	*out = map[string]any{}
	return nil
}

func (c *DexieClient) doJSONAny(req *http.Request, out *any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("dexie_network_error:%w", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return fmt.Errorf("dexie_http_error:%d", resp.StatusCode)
	}
	return json.Unmarshal(raw, out)
}

func firstNonNil(a, b any) any {
	if a != nil {
		return a
	}
	return b
}

func asMapSlice(v any) []map[string]any {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(raw))
	for _, r := range raw {
		if m, ok := r.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
