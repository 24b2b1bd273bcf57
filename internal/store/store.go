// Package store is GreenFloor's persistent store (spec §4.1): a
// single-file embedded relational database holding alert state, audit
// events, price-policy history, tx-signal state, offer state, and the
// coin-op ledger. It is the sole writer of on-disk state; every other
// component reads through it or proposes mutations back to it (spec §3
// Ownership).
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Store wraps a *sql.DB over modernc.org/sqlite, the pure-Go driver swapped
// in for the teacher's jackc/pgx/v5 because spec §4.1/§6 require a single
// embedded file rather than a Postgres server.
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) the database at <home_dir>/db/greenfloor.sqlite.
func Open(homeDir string) (*Store, error) {
	return OpenAt(filepath.Join(homeDir, "db", "greenfloor.sqlite"))
}

// OpenAt opens (creating if absent) the database at an explicit path,
// mirroring _resolve_db_path's explicit-override branch: an operator
// can point the daemon at a state file outside home_dir/db/ (e.g. for
// a test run or an alternate data volume).
func OpenAt(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // single-file sqlite: serialize writers, see spec §5
	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(schemaSQL)
	if err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

func utcNowISO() string { return time.Now().UTC().Format(time.RFC3339Nano) }

// AlertState is per-market low-inventory alert state (spec §3).
type AlertState struct {
	MarketID    string
	IsLow       bool
	LastAlertAt *time.Time
}

func (s *Store) GetAlertState(ctx context.Context, marketID string) (AlertState, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT market_id, is_low, last_alert_at FROM alert_state WHERE market_id = ?`, marketID)
	var (
		mid       string
		isLow     int
		lastAlert sql.NullString
	)
	if err := row.Scan(&mid, &isLow, &lastAlert); err != nil {
		if err == sql.ErrNoRows {
			return AlertState{MarketID: marketID, IsLow: false, LastAlertAt: nil}, nil
		}
		return AlertState{}, fmt.Errorf("get_alert_state: %w", err)
	}
	out := AlertState{MarketID: mid, IsLow: isLow != 0}
	if lastAlert.Valid {
		t, err := time.Parse(time.RFC3339Nano, lastAlert.String)
		if err == nil {
			out.LastAlertAt = &t
		}
	}
	return out, nil
}

func (s *Store) UpsertAlertState(ctx context.Context, st AlertState) error {
	var lastAlert any
	if st.LastAlertAt != nil {
		lastAlert = st.LastAlertAt.UTC().Format(time.RFC3339Nano)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO alert_state (market_id, is_low, last_alert_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(market_id) DO UPDATE SET
		  is_low = excluded.is_low,
		  last_alert_at = excluded.last_alert_at,
		  updated_at = excluded.updated_at
	`, st.MarketID, boolInt(st.IsLow), lastAlert, utcNowISO())
	if err != nil {
		return fmt.Errorf("upsert_alert_state: %w", err)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// AddAuditEvent inserts an audit event with a canonically-serialized
// (sorted-keys) JSON payload, per spec §3/§4.1.
func (s *Store) AddAuditEvent(ctx context.Context, eventType string, payload map[string]any, marketID *string) error {
	body, err := canonicalJSON(payload)
	if err != nil {
		return fmt.Errorf("add_audit_event: encode payload: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_event (event_type, market_id, payload_json, created_at)
		VALUES (?, ?, ?, ?)
	`, eventType, nullableString(marketID), body, utcNowISO())
	if err != nil {
		return fmt.Errorf("add_audit_event: %w", err)
	}
	return nil
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// canonicalJSON serializes payload with keys sorted, matching the Python
// source's json.dumps(..., sort_keys=True).
func canonicalJSON(payload map[string]any) (string, error) {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ordered := make([]byte, 0, 256)
	ordered = append(ordered, '{')
	for i, k := range keys {
		if i > 0 {
			ordered = append(ordered, ',')
		}
		kb, _ := json.Marshal(k)
		vb, err := json.Marshal(payload[k])
		if err != nil {
			return "", err
		}
		ordered = append(ordered, kb...)
		ordered = append(ordered, ':')
		ordered = append(ordered, vb...)
	}
	ordered = append(ordered, '}')
	return string(ordered), nil
}

func (s *Store) AddPricePolicySnapshot(ctx context.Context, marketID string, payload map[string]any, source string) error {
	body, err := canonicalJSON(payload)
	if err != nil {
		return fmt.Errorf("add_price_policy_snapshot: encode payload: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO price_policy_history (market_id, source, payload_json, created_at)
		VALUES (?, ?, ?, ?)
	`, marketID, source, body, utcNowISO())
	if err != nil {
		return fmt.Errorf("add_price_policy_snapshot: %w", err)
	}
	return nil
}

// GetLatestXCHPriceSnapshot reads the most recent xch_price_snapshot audit
// event's price_usd, returning nil for missing, non-positive, or malformed
// payloads (spec §4.1).
func (s *Store) GetLatestXCHPriceSnapshot(ctx context.Context) (*float64, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT payload_json FROM audit_event
		WHERE event_type = 'xch_price_snapshot'
		ORDER BY id DESC LIMIT 1
	`)
	var payloadJSON string
	if err := row.Scan(&payloadJSON); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get_latest_xch_price_snapshot: %w", err)
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
		return nil, nil
	}
	raw, ok := payload["price_usd"]
	if !ok || raw == nil {
		return nil, nil
	}
	value, ok := raw.(float64)
	if !ok || value <= 0 {
		return nil, nil
	}
	return &value, nil
}

// ObserveMempoolTxIDs inserts-or-ignores tx ids into tx_signal_state,
// returning the count newly inserted (spec §4.1/§8 idempotence law).
func (s *Store) ObserveMempoolTxIDs(ctx context.Context, txIDs []string) (int, error) {
	inserted := 0
	now := utcNowISO()
	for _, id := range txIDs {
		if len(trimSpace(id)) == 0 {
			continue
		}
		res, err := s.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO tx_signal_state (tx_id, mempool_observed_at, tx_block_confirmed_at)
			VALUES (?, ?, NULL)
		`, id, now)
		if err != nil {
			return inserted, fmt.Errorf("observe_mempool_tx_ids: %w", err)
		}
		n, _ := res.RowsAffected()
		inserted += int(n)
	}
	return inserted, nil
}

func trimSpace(s string) string {
	start, end := 0, len(s)
	for start < end && (s[start] == ' ' || s[start] == '\t' || s[start] == '\n') {
		start++
	}
	for end > start && (s[end-1] == ' ' || s[end-1] == '\t' || s[end-1] == '\n') {
		end--
	}
	return s[start:end]
}

// ConfirmTxIDs monotonically sets tx_block_confirmed_at (COALESCE — never
// overwrites a prior confirmation), returning the count of rows updated.
func (s *Store) ConfirmTxIDs(ctx context.Context, txIDs []string) (int, error) {
	updated := 0
	now := utcNowISO()
	for _, id := range txIDs {
		res, err := s.db.ExecContext(ctx, `
			UPDATE tx_signal_state
			SET tx_block_confirmed_at = COALESCE(tx_block_confirmed_at, ?)
			WHERE tx_id = ?
		`, now, id)
		if err != nil {
			return updated, fmt.Errorf("confirm_tx_ids: %w", err)
		}
		n, _ := res.RowsAffected()
		updated += int(n)
	}
	return updated, nil
}

// OfferStateRow mirrors the offer_state table (spec §3/§4.8).
type OfferStateRow struct {
	OfferID        string
	MarketID       string
	State          string
	LastSeenStatus *int
	UpdatedAt      string
}

func (s *Store) UpsertOfferState(ctx context.Context, offerID, marketID, state string, lastSeenStatus *int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO offer_state (offer_id, market_id, state, last_seen_status, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(offer_id) DO UPDATE SET
		  market_id = excluded.market_id,
		  state = excluded.state,
		  last_seen_status = excluded.last_seen_status,
		  updated_at = excluded.updated_at
	`, offerID, marketID, state, nullableInt(lastSeenStatus), utcNowISO())
	if err != nil {
		return fmt.Errorf("upsert_offer_state: %w", err)
	}
	return nil
}

func nullableInt(i *int) any {
	if i == nil {
		return nil
	}
	return *i
}

func (s *Store) ListOfferStates(ctx context.Context, marketID string, limit int) ([]OfferStateRow, error) {
	if limit <= 0 {
		return nil, nil
	}
	var rows *sql.Rows
	var err error
	if marketID != "" {
		rows, err = s.db.QueryContext(ctx, `
			SELECT offer_id, market_id, state, last_seen_status, updated_at
			FROM offer_state WHERE market_id = ? ORDER BY updated_at DESC LIMIT ?
		`, marketID, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT offer_id, market_id, state, last_seen_status, updated_at
			FROM offer_state ORDER BY updated_at DESC LIMIT ?
		`, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list_offer_states: %w", err)
	}
	defer rows.Close()
	var out []OfferStateRow
	for rows.Next() {
		var r OfferStateRow
		var lastSeen sql.NullInt64
		if err := rows.Scan(&r.OfferID, &r.MarketID, &r.State, &lastSeen, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("list_offer_states: scan: %w", err)
		}
		if lastSeen.Valid {
			v := int(lastSeen.Int64)
			r.LastSeenStatus = &v
		}
		out = append(out, r)
	}
	return out, nil
}

// AuditEventRow mirrors the audit_event table.
type AuditEventRow struct {
	ID        int64
	EventType string
	MarketID  *string
	Payload   any
	CreatedAt string
}

func (s *Store) ListRecentAuditEvents(ctx context.Context, eventTypes []string, marketID string, limit int) ([]AuditEventRow, error) {
	if limit <= 0 {
		return nil, nil
	}
	query := "SELECT id, event_type, market_id, payload_json, created_at FROM audit_event"
	var clauses []string
	var args []any
	if len(eventTypes) > 0 {
		placeholders := ""
		for i, et := range eventTypes {
			if i > 0 {
				placeholders += ","
			}
			placeholders += "?"
			args = append(args, et)
		}
		clauses = append(clauses, "event_type IN ("+placeholders+")")
	}
	if marketID != "" {
		clauses = append(clauses, "market_id = ?")
		args = append(args, marketID)
	}
	if len(clauses) > 0 {
		query += " WHERE "
		for i, c := range clauses {
			if i > 0 {
				query += " AND "
			}
			query += c
		}
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list_recent_audit_events: %w", err)
	}
	defer rows.Close()
	var out []AuditEventRow
	for rows.Next() {
		var (
			id          int64
			eventType   string
			marketIDVal sql.NullString
			payloadJSON string
			createdAt   string
		)
		if err := rows.Scan(&id, &eventType, &marketIDVal, &payloadJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("list_recent_audit_events: scan: %w", err)
		}
		var payload any
		if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
			payload = payloadJSON
		}
		row := AuditEventRow{ID: id, EventType: eventType, Payload: payload, CreatedAt: createdAt}
		if marketIDVal.Valid {
			v := marketIDVal.String
			row.MarketID = &v
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *Store) AddCoinOpLedgerEntry(ctx context.Context, marketID, opType string, opCount int, feeMojos int64, status, reason string, operationID *string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO coin_op_ledger (market_id, op_type, op_count, fee_mojos, status, reason, operation_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, marketID, opType, opCount, feeMojos, status, reason, nullableString(operationID), utcNowISO())
	if err != nil {
		return fmt.Errorf("add_coin_op_ledger_entry: %w", err)
	}
	return nil
}

func (s *Store) GetDailyFeeSpentMojosUTC(ctx context.Context) (int64, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(fee_mojos), 0) FROM coin_op_ledger
		WHERE date(created_at) = date('now') AND status = 'executed'
	`)
	var total int64
	if err := row.Scan(&total); err != nil {
		return 0, fmt.Errorf("get_daily_fee_spent_mojos_utc: %w", err)
	}
	return total, nil
}

// CoinOpBudgetReport summarizes today's coin-op ledger for the admin API.
type CoinOpBudgetReport struct {
	SpentMojos           int64
	ExecutedOps          int64
	PlannedOps           int64
	SkippedOps           int64
	FeeBudgetSkippedOps  int64
}

func (s *Store) GetCoinOpBudgetReportUTC(ctx context.Context) (CoinOpBudgetReport, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT
		  COALESCE(SUM(CASE WHEN status = 'executed' THEN fee_mojos ELSE 0 END), 0),
		  COALESCE(SUM(CASE WHEN status = 'executed' THEN op_count ELSE 0 END), 0),
		  COALESCE(SUM(CASE WHEN status = 'planned' THEN op_count ELSE 0 END), 0),
		  COALESCE(SUM(CASE WHEN status = 'skipped' THEN op_count ELSE 0 END), 0),
		  COALESCE(SUM(CASE WHEN status = 'skipped' AND reason = 'fee_budget_guard' THEN op_count ELSE 0 END), 0)
		FROM coin_op_ledger WHERE date(created_at) = date('now')
	`)
	var rep CoinOpBudgetReport
	if err := row.Scan(&rep.SpentMojos, &rep.ExecutedOps, &rep.PlannedOps, &rep.SkippedOps, &rep.FeeBudgetSkippedOps); err != nil {
		return CoinOpBudgetReport{}, fmt.Errorf("get_coin_op_budget_report_utc: %w", err)
	}
	return rep, nil
}
