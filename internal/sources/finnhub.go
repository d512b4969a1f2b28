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

// FinnhubClient fetches the economic calendar, analyst rating changes,
// and option chain aggregates from the Finnhub API. Without an API key
// every fetch returns empty rather than failing, so the service degrades
// to the sources that need no key.
type FinnhubClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// FinnhubConfig holds client configuration.
type FinnhubConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// NewFinnhubClient creates a new Finnhub API client.
func NewFinnhubClient(cfg FinnhubConfig) *FinnhubClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &FinnhubClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *FinnhubClient) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	params.Set("token", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("finnhub request: %w", err)
	}
	return decodeResponse(resp, out)
}

// macroImportance maps known event-name keywords to an importance level.
// Unmatched events default to low.
var macroImportance = []struct {
	keyword    string
	importance string
}{
	{"FOMC", models.ImportanceHigh},
	{"FED INTEREST RATE DECISION", models.ImportanceHigh},
	{"CORE CPI", models.ImportanceHigh},
	{"CPI", models.ImportanceHigh},
	{"CONSUMER PRICE INDEX", models.ImportanceHigh},
	{"NON-FARM PAYROLLS", models.ImportanceHigh},
	{"NONFARM PAYROLLS", models.ImportanceHigh},
	{"GDP", models.ImportanceHigh},
	{"GROSS DOMESTIC PRODUCT", models.ImportanceHigh},
	{"CORE PCE", models.ImportanceHigh},
	{"PCE PRICE INDEX", models.ImportanceHigh},
	{"PPI", models.ImportanceMedium},
	{"PRODUCER PRICE INDEX", models.ImportanceMedium},
	{"INITIAL JOBLESS CLAIMS", models.ImportanceMedium},
	{"ISM MANUFACTURING PMI", models.ImportanceMedium},
	{"ISM SERVICES PMI", models.ImportanceMedium},
	{"PMI", models.ImportanceMedium},
	{"RETAIL SALES", models.ImportanceMedium},
	{"CONSUMER CONFIDENCE", models.ImportanceLow},
	{"DURABLE GOODS ORDERS", models.ImportanceLow},
}

type economicCalendarResponse struct {
	EconomicCalendar []struct {
		Event    string      `json:"event"`
		Country  string      `json:"country"`
		Time     string      `json:"time"`
		Estimate interface{} `json:"estimate"`
		Prev     interface{} `json:"prev"`
		Actual   interface{} `json:"actual"`
	} `json:"economicCalendar"`
}

// FetchMacroEvents returns US macro events between from and to. Events
// with a published actual value arrive as completed, the rest as
// upcoming.
func (c *FinnhubClient) FetchMacroEvents(ctx context.Context, from, to time.Time) ([]models.Draft, error) {
	if c.apiKey == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("from", from.UTC().Format("2006-01-02"))
	params.Set("to", to.UTC().Format("2006-01-02"))

	var parsed economicCalendarResponse
	if err := c.get(ctx, "/calendar/economic", params, &parsed); err != nil {
		return nil, err
	}

	var drafts []models.Draft
	for _, item := range parsed.EconomicCalendar {
		if item.Country != "" && !strings.EqualFold(item.Country, "US") {
			continue
		}

		eventDate, ok := parseFinnhubTime(item.Time)
		if !ok {
			continue
		}

		status := models.StatusUpcoming
		if item.Actual != nil {
			status = models.StatusCompleted
		}

		drafts = append(drafts, models.Draft{
			EventType:      models.EventTypeMacro,
			EventDate:      eventDate,
			Title:          item.Event,
			Description:    macroDesc(item.Event, item.Estimate, item.Prev, item.Actual),
			Importance:     classifyMacroImportance(item.Event),
			Status:         status,
			MacroEventName: strPtr(item.Event),
			Consensus:      stringifyValue(item.Estimate),
			ActualValue:    stringifyValue(item.Actual),
			PreviousValue:  stringifyValue(item.Prev),
			Source:         "finnhub",
		})
	}

	return drafts, nil
}

func classifyMacroImportance(eventName string) string {
	upper := strings.ToUpper(eventName)
	for _, entry := range macroImportance {
		if strings.Contains(upper, entry.keyword) {
			return entry.importance
		}
	}
	return models.ImportanceLow
}

func macroDesc(name string, consensus, previous, actual interface{}) string {
	desc := name + "."
	if consensus != nil {
		desc += fmt.Sprintf(" Consensus: %v.", consensus)
	}
	if previous != nil {
		desc += fmt.Sprintf(" Previous: %v.", previous)
	}
	if actual != nil {
		desc += fmt.Sprintf(" Actual: %v.", actual)
	}
	return desc
}

func parseFinnhubTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func stringifyValue(v interface{}) *string {
	if v == nil {
		return nil
	}
	s := fmt.Sprintf("%v", v)
	return &s
}
