package price

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGetXCHPriceUSDFetchesAndCaches(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"last_price_usd": 19.5}`))
	}))
	defer server.Close()

	now := time.Unix(1000, 0)
	f := &Fetcher{URL: server.URL, TTL: 60 * time.Second, HTTP: server.Client(), Now: func() time.Time { return now }}

	price, err := f.GetXCHPriceUSD(context.Background())
	if err != nil || price != 19.5 {
		t.Fatalf("unexpected result: %v %v", price, err)
	}
	if _, err := f.GetXCHPriceUSD(context.Background()); err != nil || calls != 1 {
		t.Fatalf("expected cached hit (1 call), got %d calls, err=%v", calls, err)
	}
}

func TestGetXCHPriceUSDRefetchesAfterTTL(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"last_price_usd": 20}`))
	}))
	defer server.Close()

	now := time.Unix(1000, 0)
	f := &Fetcher{URL: server.URL, TTL: 10 * time.Second, HTTP: server.Client(), Now: func() time.Time { return now }}
	if _, err := f.GetXCHPriceUSD(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	now = now.Add(11 * time.Second)
	if _, err := f.GetXCHPriceUSD(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected refetch after TTL, got %d calls", calls)
	}
}

func TestGetXCHPriceUSDFallsBackToStaleCacheOnFetchError(t *testing.T) {
	fail := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"last_price_usd": 21}`))
	}))
	defer server.Close()

	now := time.Unix(1000, 0)
	f := &Fetcher{URL: server.URL, TTL: 1 * time.Second, HTTP: server.Client(), Now: func() time.Time { return now }}
	if _, err := f.GetXCHPriceUSD(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fail = true
	now = now.Add(2 * time.Second)
	price, err := f.GetXCHPriceUSD(context.Background())
	if err != nil {
		t.Fatalf("expected fallback to stale cache, got error: %v", err)
	}
	if price != 21 {
		t.Fatalf("expected stale price 21, got %v", price)
	}
}

func TestGetXCHPriceUSDErrorsOnColdCache(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	f := &Fetcher{URL: server.URL, HTTP: server.Client()}
	if _, err := f.GetXCHPriceUSD(context.Background()); err == nil {
		t.Fatalf("expected error on cold cache with a failing fetch")
	}
}

func TestGetXCHPriceUSDParsesRowArrayShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"current_price": 22.25}]`))
	}))
	defer server.Close()

	f := &Fetcher{URL: server.URL, HTTP: server.Client()}
	price, err := f.GetXCHPriceUSD(context.Background())
	if err != nil || price != 22.25 {
		t.Fatalf("unexpected result: %v %v", price, err)
	}
}
