package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ihaichao/stock-pulse/internal/models"
)

func TestFetchEarningsUpcomingAndHistory(t *testing.T) {
	releaseDate := time.Date(2026, 9, 10, 20, 0, 0, 0, time.UTC)
	quarterDate := time.Date(2026, 6, 11, 0, 0, 0, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v10/finance/quoteSummary/AAPL" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		writeJSON(t, w, map[string]interface{}{
			"quoteSummary": map[string]interface{}{
				"result": []map[string]interface{}{{
					"calendarEvents": map[string]interface{}{
						"earnings": map[string]interface{}{
							"earningsDate":    []map[string]interface{}{{"raw": releaseDate.Unix()}},
							"earningsAverage": map[string]interface{}{"raw": 1.85},
							"revenueAverage":  map[string]interface{}{"raw": 95000000000.0},
						},
					},
					"earningsHistory": map[string]interface{}{
						"history": []map[string]interface{}{{
							"quarter":     map[string]interface{}{"raw": quarterDate.Unix()},
							"epsEstimate": map[string]interface{}{"raw": 1.50},
							"epsActual":   map[string]interface{}{"raw": 1.62},
						}},
					},
					"price": map[string]interface{}{
						"shortName": "Apple Inc.",
					},
				}},
			},
		})
	}))
	defer server.Close()

	client := NewYahooClient(YahooConfig{BaseURL: server.URL})
	drafts, err := client.FetchEarnings(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("FetchEarnings: %v", err)
	}
	if len(drafts) != 2 {
		t.Fatalf("expected 2 drafts, got %d", len(drafts))
	}

	upcoming := drafts[0]
	if upcoming.Status != models.StatusUpcoming {
		t.Errorf("expected upcoming status, got %s", upcoming.Status)
	}
	if upcoming.Title != "AAPL Earnings Release" {
		t.Errorf("unexpected title: %s", upcoming.Title)
	}
	if !upcoming.EventDate.Equal(releaseDate) {
		t.Errorf("unexpected event date: %v", upcoming.EventDate)
	}
	if upcoming.EPSEstimate == nil || *upcoming.EPSEstimate != 1.85 {
		t.Errorf("unexpected eps estimate: %v", upcoming.EPSEstimate)
	}
	if upcoming.RevenueEstimate == nil || *upcoming.RevenueEstimate != 95000000000 {
		t.Errorf("unexpected revenue estimate: %v", upcoming.RevenueEstimate)
	}

	hist := drafts[1]
	if hist.Status != models.StatusCompleted {
		t.Errorf("expected completed status, got %s", hist.Status)
	}
	if hist.EPSActual == nil || *hist.EPSActual != 1.62 {
		t.Errorf("unexpected eps actual: %v", hist.EPSActual)
	}
	if hist.Importance != models.ImportanceMedium {
		t.Errorf("unexpected importance: %s", hist.Importance)
	}
}

func TestFetchEarningsNoData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]interface{}{
			"quoteSummary": map[string]interface{}{"result": []interface{}{}},
		})
	}))
	defer server.Close()

	client := NewYahooClient(YahooConfig{BaseURL: server.URL})
	drafts, err := client.FetchEarnings(context.Background(), "ZZZZ")
	if err != nil {
		t.Fatalf("FetchEarnings: %v", err)
	}
	if len(drafts) != 0 {
		t.Errorf("expected no drafts, got %d", len(drafts))
	}
}

func TestFetchEarningsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewYahooClient(YahooConfig{BaseURL: server.URL})
	if _, err := client.FetchEarnings(context.Background(), "AAPL"); err == nil {
		t.Fatal("expected error on 502")
	}
}

func TestFetchProfile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]interface{}{
			"quoteSummary": map[string]interface{}{
				"result": []map[string]interface{}{{
					"price": map[string]interface{}{
						"shortName":                  "Apple Inc.",
						"currency":                   "USD",
						"regularMarketPrice":         map[string]interface{}{"raw": 232.50},
						"regularMarketPreviousClose": map[string]interface{}{"raw": 230.00},
						"marketCap":                  map[string]interface{}{"raw": 3500000000000.0},
					},
					"assetProfile": map[string]interface{}{
						"sector":   "Technology",
						"industry": "Consumer Electronics",
					},
					"summaryDetail": map[string]interface{}{
						"trailingPE": map[string]interface{}{"raw": 35.2},
					},
				}},
			},
		})
	}))
	defer server.Close()

	client := NewYahooClient(YahooConfig{BaseURL: server.URL})
	profile, err := client.FetchProfile(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("FetchProfile: %v", err)
	}
	if profile == nil {
		t.Fatal("expected a profile")
	}
	if profile.CompanyName != "Apple Inc." {
		t.Errorf("unexpected company name: %s", profile.CompanyName)
	}
	if profile.Sector == nil || *profile.Sector != "Technology" {
		t.Errorf("unexpected sector: %v", profile.Sector)
	}
	if profile.PriceChange == nil || *profile.PriceChange != 2.5 {
		t.Errorf("unexpected price change: %v", profile.PriceChange)
	}
	if profile.PriceChangePercent == nil || *profile.PriceChangePercent != 1.09 {
		t.Errorf("unexpected price change percent: %v", profile.PriceChangePercent)
	}
}
