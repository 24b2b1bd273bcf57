package coinset

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// WebsocketClient is the "indexer WebSocket reader" auxiliary task from
// spec §5, supplemented from original_source/greenfloor/daemon/coinset_ws.py's
// CoinsetWebsocketClient: reconnect-with-backoff, a recovery poll run on
// every (re)connect, and payload classification into mempool/confirmed tx
// ids. Uses gorilla/websocket (the teacher's own dependency, already used
// by internal/api/websocket.go) in place of the Python source's aiohttp.
type WebsocketClient struct {
	URL                       string
	ReconnectIntervalSeconds  int
	OnMempoolTxIDs            func([]string)
	OnConfirmedTxIDs          func([]string)
	OnAuditEvent              func(eventType string, payload map[string]any)
	RecoveryPoll              func(ctx context.Context) ([]string, error)
}

// Run blocks, reconnecting until ctx is cancelled.
func (c *WebsocketClient) Run(ctx context.Context) {
	interval := c.ReconnectIntervalSeconds
	if interval < 1 {
		interval = 1
	}
	for {
		if ctx.Err() != nil {
			return
		}
		c.audit("coinset_ws_connecting", map[string]any{"ws_url": c.URL})
		if err := c.connectAndConsume(ctx); err != nil {
			c.audit("coinset_ws_disconnected", map[string]any{"error": err.Error()})
		}
		if ctx.Err() != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(interval) * time.Second):
		}
	}
}

func (c *WebsocketClient) connectAndConsume(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.URL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	c.audit("coinset_ws_connected", map[string]any{"ws_url": c.URL})
	c.runRecoveryPoll(ctx, "connected")

	for {
		if ctx.Err() != nil {
			return nil
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		c.handleText(data)
	}
}

func (c *WebsocketClient) runRecoveryPoll(ctx context.Context, reason string) {
	if c.RecoveryPoll == nil {
		return
	}
	txIDs, err := c.RecoveryPoll(ctx)
	if err != nil {
		c.audit("coinset_ws_recovery_poll_error", map[string]any{"reason": reason, "error": err.Error()})
		return
	}
	if c.OnMempoolTxIDs != nil {
		c.OnMempoolTxIDs(txIDs)
	}
	c.audit("coinset_ws_recovery_poll", map[string]any{"reason": reason, "tx_id_count": len(txIDs)})
}

func (c *WebsocketClient) handleText(raw []byte) {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		snippet := string(raw)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		c.audit("coinset_ws_payload_parse_error", map[string]any{"raw": snippet})
		return
	}
	mempoolIDs, confirmedIDs := classifyPayloadTxIDs(payload)
	if len(mempoolIDs) > 0 {
		if c.OnMempoolTxIDs != nil {
			c.OnMempoolTxIDs(mempoolIDs)
		}
		c.audit("coinset_ws_mempool_event", map[string]any{"tx_id_count": len(mempoolIDs)})
	}
	if len(confirmedIDs) > 0 {
		if c.OnConfirmedTxIDs != nil {
			c.OnConfirmedTxIDs(confirmedIDs)
		}
		c.audit("coinset_ws_tx_block_event", map[string]any{"tx_id_count": len(confirmedIDs)})
	}
}

func (c *WebsocketClient) audit(eventType string, payload map[string]any) {
	if c.OnAuditEvent != nil {
		c.OnAuditEvent(eventType, payload)
	}
}

func classifyPayloadTxIDs(payload map[string]any) (mempool, confirmed []string) {
	eventHint := ""
	if v, ok := payload["event"].(string); ok {
		eventHint = strings.ToLower(v)
	} else if v, ok := payload["type"].(string); ok {
		eventHint = strings.ToLower(v)
	}
	txIDs := extractTxIDs(payload)
	if len(txIDs) == 0 {
		return nil, nil
	}
	isConfirmed := boolField(payload, "confirmed") ||
		boolField(payload, "in_block") ||
		strings.Contains(eventHint, "confirm") ||
		strings.Contains(eventHint, "block")
	if isConfirmed {
		return nil, txIDs
	}
	return txIDs, nil
}

func boolField(payload map[string]any, key string) bool {
	v, _ := payload[key].(bool)
	return v
}

// extractTxIDs pulls tx ids out of a generic offer/coinset websocket
// payload; field names vary across message types so this is deliberately
// permissive, matching the Python source's own fallback chain.
func extractTxIDs(payload map[string]any) []string {
	for _, key := range []string{"tx_ids", "spent_coin_ids", "additions", "removals"} {
		if raw, ok := payload[key].([]any); ok {
			out := make([]string, 0, len(raw))
			for _, v := range raw {
				if s, ok := v.(string); ok {
					out = append(out, s)
				}
			}
			if len(out) > 0 {
				return out
			}
		}
	}
	if s, ok := payload["tx_id"].(string); ok && s != "" {
		return []string{s}
	}
	return nil
}
