package daemon

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"time"
)

// WebhookServer listens for coinset's tx-block confirmation callback,
// ported from daemon/webhook.py's build_coinset_handler/
// start_coinset_webhook_server: a single POST endpoint, JSON body,
// never anything fancier than net/http — the Python source itself
// reaches for nothing beyond its own stdlib ThreadingHTTPServer here,
// so this stays on net/http rather than the teacher's gin router,
// which internal/api's admin surface uses instead.
type WebhookServer struct {
	srv *http.Server
}

// StartCoinsetWebhookServer starts listening in the background and
// returns immediately; call Shutdown to stop it.
func StartCoinsetWebhookServer(listenAddr string, onEvent func(payload map[string]any)) (*WebhookServer, error) {
	mux := http.NewServeMux()
	mux.HandleFunc("/coinset/tx-block", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		var payload map[string]any
		if len(body) == 0 {
			payload = map[string]any{}
		} else if err := json.Unmarshal(body, &payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		onEvent(payload)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok":true}`))
	})

	host, port, err := net.SplitHostPort(listenAddr)
	if err != nil {
		host, port = "127.0.0.1", "8787"
	}
	if host == "" {
		host = "127.0.0.1"
	}
	if port == "" {
		port = "8787"
	}

	srv := &http.Server{Addr: net.JoinHostPort(host, port), Handler: mux}
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return nil, err
	}
	go srv.Serve(ln)
	return &WebhookServer{srv: srv}, nil
}

// Shutdown stops the webhook server, giving in-flight requests a
// bounded grace period.
func (w *WebhookServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return w.srv.Shutdown(ctx)
}

// ExtractTxIDs mirrors _extract_tx_ids: the webhook payload can carry
// either a "tx_ids" array or a single "tx_id" scalar.
func ExtractTxIDs(payload map[string]any) []string {
	if raw, ok := payload["tx_ids"].([]any); ok {
		out := make([]string, 0, len(raw))
		for _, v := range raw {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	if v, ok := payload["tx_id"]; ok {
		if s, ok := v.(string); ok {
			return []string{s}
		}
	}
	return nil
}
