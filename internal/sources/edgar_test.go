package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/ihaichao/stock-pulse/internal/models"
)

func newEdgarTestServer(t *testing.T, tickerHits, submissionHits *int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/company_tickers.json":
			atomic.AddInt64(tickerHits, 1)
			writeJSON(t, w, map[string]interface{}{
				"0": map[string]interface{}{"cik_str": 320193, "ticker": "AAPL", "title": "Apple Inc."},
				"1": map[string]interface{}{"cik_str": 789019, "ticker": "MSFT", "title": "Microsoft Corp"},
			})
		case "/submissions/CIK0000320193.json":
			atomic.AddInt64(submissionHits, 1)
			writeJSON(t, w, map[string]interface{}{
				"cik":  "320193",
				"name": "Apple Inc.",
				"filings": map[string]interface{}{
					"recent": map[string]interface{}{
						"form":                  []string{"10-Q", "4", "8-K", "4"},
						"filingDate":            []string{"2026-08-20", "2026-08-18", "2026-08-15", "2026-08-10"},
						"accessionNumber":       []string{"0001-26-000001", "0001-26-000002", "0001-26-000003", "0001-26-000004"},
						"primaryDocDescription": []string{"FORM 10-Q", "FORM 4", "FORM 8-K", ""},
					},
				},
			})
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestFetchInsiderFilings(t *testing.T) {
	var tickerHits, submissionHits int64
	server := newEdgarTestServer(t, &tickerHits, &submissionHits)
	defer server.Close()

	client := NewEdgarClient(EdgarConfig{
		BaseURL:    server.URL,
		TickersURL: server.URL + "/company_tickers.json",
	})

	drafts, err := client.FetchInsiderFilings(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("FetchInsiderFilings: %v", err)
	}
	if len(drafts) != 2 {
		t.Fatalf("expected 2 Form 4 drafts, got %d", len(drafts))
	}

	first := drafts[0]
	if first.EventType != models.EventTypeInsider {
		t.Errorf("unexpected event type: %s", first.EventType)
	}
	if first.Status != models.StatusCompleted {
		t.Errorf("expected completed status, got %s", first.Status)
	}
	if first.FilingType == nil || *first.FilingType != "4" {
		t.Errorf("unexpected filing type: %v", first.FilingType)
	}
	if first.FilingURL == nil {
		t.Fatal("expected a filing URL")
	}
	if first.EventDate.Format("2006-01-02") != "2026-08-18" {
		t.Errorf("unexpected event date: %v", first.EventDate)
	}

	// The fourth filing has no primary doc description, so a fallback
	// description is synthesized.
	if drafts[1].Description == "" {
		t.Error("expected fallback description for Form 4 without doc description")
	}
}

func TestCIKCacheAvoidsRefetch(t *testing.T) {
	var tickerHits, submissionHits int64
	server := newEdgarTestServer(t, &tickerHits, &submissionHits)
	defer server.Close()

	client := NewEdgarClient(EdgarConfig{
		BaseURL:    server.URL,
		TickersURL: server.URL + "/company_tickers.json",
	})

	ctx := context.Background()
	if _, err := client.FetchInsiderFilings(ctx, "AAPL"); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if _, err := client.FetchInsiderFilings(ctx, "AAPL"); err != nil {
		t.Fatalf("second fetch: %v", err)
	}

	if got := atomic.LoadInt64(&tickerHits); got != 1 {
		t.Errorf("expected 1 ticker index fetch, got %d", got)
	}
	if got := atomic.LoadInt64(&submissionHits); got != 2 {
		t.Errorf("expected 2 submission fetches, got %d", got)
	}

	// The index fetch caches every ticker, so MSFT resolves without
	// another index round trip.
	cik, err := client.LookupCIK(ctx, "MSFT")
	if err != nil {
		t.Fatalf("LookupCIK: %v", err)
	}
	if cik != "0000789019" {
		t.Errorf("unexpected CIK: %s", cik)
	}
	if got := atomic.LoadInt64(&tickerHits); got != 1 {
		t.Errorf("expected cached index to serve MSFT, got %d fetches", got)
	}
}

func TestFetchInsiderFilingsUnknownTicker(t *testing.T) {
	var tickerHits, submissionHits int64
	server := newEdgarTestServer(t, &tickerHits, &submissionHits)
	defer server.Close()

	client := NewEdgarClient(EdgarConfig{
		BaseURL:    server.URL,
		TickersURL: server.URL + "/company_tickers.json",
	})

	drafts, err := client.FetchInsiderFilings(context.Background(), "NOPE")
	if err != nil {
		t.Fatalf("FetchInsiderFilings: %v", err)
	}
	if len(drafts) != 0 {
		t.Errorf("expected no drafts for unknown ticker, got %d", len(drafts))
	}
}
