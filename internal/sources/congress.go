package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ihaichao/stock-pulse/internal/models"
)

// CongressClient fetches recent stock trades by US congress members
// from the Capitol Trades public API. No API key is required.
type CongressClient struct {
	baseURL    string
	window     time.Duration
	pageSize   int
	httpClient *http.Client
}

// CongressConfig holds client configuration.
type CongressConfig struct {
	BaseURL  string
	Window   time.Duration
	PageSize int
	Timeout  time.Duration
}

// NewCongressClient creates a new Capitol Trades client.
func NewCongressClient(cfg CongressConfig) *CongressClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	window := cfg.Window
	if window == 0 {
		window = 30 * 24 * time.Hour
	}
	pageSize := cfg.PageSize
	if pageSize == 0 {
		pageSize = 96
	}
	return &CongressClient{
		baseURL:  cfg.BaseURL,
		window:   window,
		pageSize: pageSize,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type congressTradesResponse struct {
	Data []congressTrade `json:"data"`
}

type congressTrade struct {
	TxType   string `json:"txType"`
	TxDate   string `json:"txDate"`
	TxAmount string `json:"txAmount"`
	Asset    struct {
		TickerSymbol string `json:"assetTickerSymbol"`
	} `json:"asset"`
	Politician struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Chamber   string `json:"chamber"`
		Party     string `json:"party"`
	} `json:"politician"`
}

// FetchTrades returns recent congressional trades as completed events.
// When tickers is non-empty, only trades in those tickers are kept.
func (c *CongressClient) FetchTrades(ctx context.Context, tickers []string) ([]models.Draft, error) {
	params := url.Values{}
	params.Set("page", "1")
	params.Set("pageSize", fmt.Sprintf("%d", c.pageSize))
	params.Set("txDate", time.Now().UTC().Add(-c.window).Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/trades?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("capitol trades request: %w", err)
	}

	var parsed congressTradesResponse
	if err := decodeResponse(resp, &parsed); err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(tickers))
	for _, t := range tickers {
		wanted[strings.ToUpper(t)] = true
	}

	var drafts []models.Draft
	for _, trade := range parsed.Data {
		ticker := strings.ToUpper(trade.Asset.TickerSymbol)
		if ticker == "" {
			continue
		}
		if len(wanted) > 0 && !wanted[ticker] {
			continue
		}

		dateStr := trade.TxDate
		if len(dateStr) > 10 {
			dateStr = dateStr[:10]
		}
		eventDate, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}

		name := strings.TrimSpace(trade.Politician.FirstName + " " + trade.Politician.LastName)
		action := describeTradeAction(trade.TxType)
		chamber := describeChamber(trade.Politician.Chamber)

		drafts = append(drafts, models.Draft{
			Ticker:    ticker,
			EventType: models.EventTypeCongressTrade,
			EventDate: eventDate.UTC(),
			Title:     fmt.Sprintf("%s Congress Trade: %s %s", ticker, name, action),
			Description: fmt.Sprintf("%s %s (%s) %s %s, amount range %s.",
				chamber, name, trade.Politician.Party, strings.ToLower(action), ticker, trade.TxAmount),
			Importance: models.ImportanceMedium,
			Status:     models.StatusCompleted,
			Source:     "capitoltrades",
			RawData: models.JSONB{
				"tx_type":   trade.TxType,
				"tx_amount": trade.TxAmount,
				"chamber":   trade.Politician.Chamber,
				"party":     trade.Politician.Party,
			},
		})
	}

	return drafts, nil
}

func describeTradeAction(txType string) string {
	lower := strings.ToLower(txType)
	switch {
	case strings.Contains(lower, "purchase"):
		return "Bought"
	case strings.Contains(lower, "sale"):
		return "Sold"
	default:
		return txType
	}
}

func describeChamber(chamber string) string {
	switch strings.ToLower(chamber) {
	case "senate":
		return "Senator"
	case "house":
		return "Representative"
	default:
		return chamber
	}
}
