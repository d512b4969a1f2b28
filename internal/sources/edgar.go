package sources

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ihaichao/stock-pulse/internal/models"
)

// EdgarClient fetches Form 4 insider filings from the SEC EDGAR
// submissions API. SEC requires a User-Agent with contact details and
// allows roughly 10 requests per second.
type EdgarClient struct {
	baseURL      string
	tickersURL   string
	userAgent    string
	maxPerTicker int
	httpClient   *http.Client

	mu       sync.Mutex
	cikCache map[string]string // ticker -> zero-padded CIK
}

// EdgarConfig holds client configuration. TickersURL points at the SEC
// company tickers index, which lives on www.sec.gov rather than the
// data API host.
type EdgarConfig struct {
	BaseURL      string
	TickersURL   string
	UserAgent    string
	MaxPerTicker int
	Timeout      time.Duration
}

// NewEdgarClient creates a new EDGAR submissions client.
func NewEdgarClient(cfg EdgarConfig) *EdgarClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "StockPulse/1.0 (contact@stockpulse.dev)"
	}
	maxPerTicker := cfg.MaxPerTicker
	if maxPerTicker == 0 {
		maxPerTicker = 20
	}
	tickersURL := cfg.TickersURL
	if tickersURL == "" {
		tickersURL = "https://www.sec.gov/files/company_tickers.json"
	}
	return &EdgarClient{
		baseURL:      cfg.BaseURL,
		tickersURL:   tickersURL,
		userAgent:    userAgent,
		maxPerTicker: maxPerTicker,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		cikCache: make(map[string]string),
	}
}

type companyTickersEntry struct {
	CIK    int64  `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

type submissionsResponse struct {
	CIK     interface{} `json:"cik"`
	Name    string      `json:"name"`
	Filings struct {
		Recent struct {
			Form                  []string `json:"form"`
			FilingDate            []string `json:"filingDate"`
			AccessionNumber       []string `json:"accessionNumber"`
			PrimaryDocDescription []string `json:"primaryDocDescription"`
		} `json:"recent"`
	} `json:"filings"`
}

// LookupCIK resolves a ticker to its zero-padded SEC CIK using the
// company tickers index, caching results in memory for the process
// lifetime.
func (c *EdgarClient) LookupCIK(ctx context.Context, ticker string) (string, error) {
	ticker = strings.ToUpper(ticker)

	c.mu.Lock()
	if cik, ok := c.cikCache[ticker]; ok {
		c.mu.Unlock()
		return cik, nil
	}
	c.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, "GET", c.tickersURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("company tickers request: %w", err)
	}

	var entries map[string]companyTickersEntry
	if err := decodeResponse(resp, &entries); err != nil {
		return "", err
	}

	// Cache the whole index while we have it; the file covers every
	// registered ticker and changes rarely.
	c.mu.Lock()
	var found string
	for _, entry := range entries {
		padded := fmt.Sprintf("%010d", entry.CIK)
		c.cikCache[strings.ToUpper(entry.Ticker)] = padded
		if strings.EqualFold(entry.Ticker, ticker) {
			found = padded
		}
	}
	c.mu.Unlock()

	if found == "" {
		return "", nil
	}
	return found, nil
}

// FetchInsiderFilings returns recent Form 4 filings for a ticker as
// completed insider events. An unknown ticker yields an empty slice.
func (c *EdgarClient) FetchInsiderFilings(ctx context.Context, ticker string) ([]models.Draft, error) {
	ticker = strings.ToUpper(ticker)

	cik, err := c.LookupCIK(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("cik lookup for %s: %w", ticker, err)
	}
	if cik == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, "GET",
		fmt.Sprintf("%s/submissions/CIK%s.json", c.baseURL, cik), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submissions request: %w", err)
	}

	var subs submissionsResponse
	if err := decodeResponse(resp, &subs); err != nil {
		return nil, err
	}

	recent := subs.Filings.Recent
	var drafts []models.Draft

	for i, formType := range recent.Form {
		if formType != "4" {
			continue
		}
		if i >= len(recent.FilingDate) {
			break
		}

		filingDate, err := time.Parse("2006-01-02", recent.FilingDate[i])
		if err != nil {
			continue
		}

		accession := ""
		if i < len(recent.AccessionNumber) {
			accession = recent.AccessionNumber[i]
		}
		desc := ""
		if i < len(recent.PrimaryDocDescription) {
			desc = recent.PrimaryDocDescription[i]
		}
		if desc == "" {
			desc = fmt.Sprintf("%s filed a Form 4 insider transaction report.", ticker)
		}

		filingURL := fmt.Sprintf(
			"https://www.sec.gov/Archives/edgar/data/%s/%s/%s-index.htm",
			strings.TrimLeft(cik, "0"),
			strings.ReplaceAll(accession, "-", ""),
			accession,
		)

		drafts = append(drafts, models.Draft{
			Ticker:      ticker,
			EventType:   models.EventTypeInsider,
			EventDate:   filingDate.UTC(),
			Title:       fmt.Sprintf("%s Insider Transaction (Form 4)", ticker),
			Description: desc,
			Importance:  models.ImportanceMedium,
			Status:      models.StatusCompleted,
			FilingType:  strPtr("4"),
			FilingURL:   strPtr(filingURL),
			Source:      "edgar",
			RawData: models.JSONB{
				"cik":       cik,
				"accession": accession,
				"form":      formType,
			},
		})

		if len(drafts) >= c.maxPerTicker {
			break
		}
	}

	return drafts, nil
}
