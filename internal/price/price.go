// Package price fetches and TTL-caches the XCH/USD spot price used to
// gate XCH-quoted strategy actions and the unstable-leg cancel policy
// (spec §4.1/§4.9), ported from
// original_source/greenfloor/adapters/price.py's PriceAdapter.
package price

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

const defaultURL = "https://coincodex.com/api/coincodex/get_coin/xch"
const defaultTTL = 60 * time.Second

// Fetcher caches the last-fetched XCH/USD price for TTL, refetching on
// expiry and falling back to the stale cached value (never an error) if
// the refetch itself fails — matching get_xch_price's
// "degrade to cache, not to failure" contract.
type Fetcher struct {
	URL  string
	TTL  time.Duration
	HTTP *http.Client
	Now  func() time.Time

	mu       sync.Mutex
	cached   *float64
	cachedAt time.Time
}

func NewFetcher() *Fetcher {
	return &Fetcher{
		URL:  defaultURL,
		TTL:  defaultTTL,
		HTTP: &http.Client{Timeout: 10 * time.Second},
	}
}

func (f *Fetcher) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

// GetXCHPriceUSD returns the cached price if its TTL hasn't elapsed,
// otherwise refetches. A refetch failure falls back to any previously
// cached value; only a cold cache on a failed fetch returns an error.
func (f *Fetcher) GetXCHPriceUSD(ctx context.Context) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ttl := f.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	now := f.now()
	if f.cached != nil && now.Sub(f.cachedAt) <= ttl {
		return *f.cached, nil
	}

	price, err := f.fetch(ctx)
	if err != nil {
		if f.cached != nil {
			return *f.cached, nil
		}
		return 0, err
	}
	f.cached = &price
	f.cachedAt = now
	return price, nil
}

type coincodexSingle struct {
	LastPriceUSD *float64 `json:"last_price_usd"`
}

type coincodexRow struct {
	CurrentPrice *float64 `json:"current_price"`
}

func (f *Fetcher) fetch(ctx context.Context) (float64, error) {
	url := f.URL
	if url == "" {
		url = defaultURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("xch_price_request_error:%w", err)
	}
	client := f.HTTP
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("xch_price_network_error:%w", err)
	}
	defer resp.Body.Close()

	var single coincodexSingle
	var rows []coincodexRow
	dec := json.NewDecoder(resp.Body)
	raw := json.RawMessage{}
	if err := dec.Decode(&raw); err != nil {
		return 0, fmt.Errorf("xch_price_invalid_json:%w", err)
	}
	if err := json.Unmarshal(raw, &single); err == nil && single.LastPriceUSD != nil {
		return *single.LastPriceUSD, nil
	}
	if err := json.Unmarshal(raw, &rows); err == nil && len(rows) > 0 && rows[0].CurrentPrice != nil {
		return *rows[0].CurrentPrice, nil
	}
	return 0, fmt.Errorf("coincodex_response_missing_price")
}
