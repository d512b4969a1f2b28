package sources

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/ihaichao/stock-pulse/internal/models"
)

// YahooClient fetches earnings calendars, earnings history, and company
// profiles from the Yahoo Finance quote-summary API.
type YahooClient struct {
	baseURL    string
	httpClient *http.Client
}

// YahooConfig holds client configuration.
type YahooConfig struct {
	BaseURL string
	Timeout time.Duration
}

// NewYahooClient creates a new quote-summary API client.
func NewYahooClient(cfg YahooConfig) *YahooClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &YahooClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// rawValue is Yahoo's number envelope: {"raw": 1.23, "fmt": "1.23"}.
type rawValue struct {
	Raw *float64 `json:"raw"`
	Fmt string   `json:"fmt"`
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []quoteSummaryResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

type quoteSummaryResult struct {
	CalendarEvents *struct {
		Earnings struct {
			EarningsDate    []rawValue `json:"earningsDate"`
			EarningsAverage rawValue   `json:"earningsAverage"`
			RevenueAverage  rawValue   `json:"revenueAverage"`
		} `json:"earnings"`
	} `json:"calendarEvents"`
	EarningsHistory *struct {
		History []struct {
			Quarter     rawValue `json:"quarter"`
			EPSEstimate rawValue `json:"epsEstimate"`
			EPSActual   rawValue `json:"epsActual"`
		} `json:"history"`
	} `json:"earningsHistory"`
	Price *struct {
		ShortName                  string   `json:"shortName"`
		LongName                   string   `json:"longName"`
		Currency                   string   `json:"currency"`
		RegularMarketPrice         rawValue `json:"regularMarketPrice"`
		RegularMarketPreviousClose rawValue `json:"regularMarketPreviousClose"`
		MarketCap                  rawValue `json:"marketCap"`
	} `json:"price"`
	AssetProfile *struct {
		Sector              string `json:"sector"`
		Industry            string `json:"industry"`
		Country             string `json:"country"`
		Website             string `json:"website"`
		LongBusinessSummary string `json:"longBusinessSummary"`
	} `json:"assetProfile"`
	SummaryDetail *struct {
		TrailingPE       rawValue `json:"trailingPE"`
		ForwardPE        rawValue `json:"forwardPE"`
		DividendYield    rawValue `json:"dividendYield"`
		Beta             rawValue `json:"beta"`
		FiftyTwoWeekHigh rawValue `json:"fiftyTwoWeekHigh"`
		FiftyTwoWeekLow  rawValue `json:"fiftyTwoWeekLow"`
		AverageVolume    rawValue `json:"averageVolume"`
	} `json:"summaryDetail"`
	DefaultKeyStatistics *struct {
		TrailingEps rawValue `json:"trailingEps"`
	} `json:"defaultKeyStatistics"`
}

func (c *YahooClient) quoteSummary(ctx context.Context, ticker string, modules ...string) (*quoteSummaryResult, error) {
	endpoint := fmt.Sprintf("%s/v10/finance/quoteSummary/%s", c.baseURL, url.PathEscape(ticker))
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	q := req.URL.Query()
	mods := ""
	for i, m := range modules {
		if i > 0 {
			mods += ","
		}
		mods += m
	}
	q.Set("modules", mods)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("User-Agent", "StockPulse/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("quote summary request: %w", err)
	}

	var parsed quoteSummaryResponse
	if err := decodeResponse(resp, &parsed); err != nil {
		return nil, err
	}
	if parsed.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("quote summary error: %s", parsed.QuoteSummary.Error.Description)
	}
	if len(parsed.QuoteSummary.Result) == 0 {
		return nil, nil
	}
	return &parsed.QuoteSummary.Result[0], nil
}

// FetchEarnings returns the upcoming earnings release (when a date is
// published) plus recent historical quarters for a ticker.
func (c *YahooClient) FetchEarnings(ctx context.Context, ticker string) ([]models.Draft, error) {
	result, err := c.quoteSummary(ctx, ticker,
		"calendarEvents", "earningsHistory", "price")
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}

	var drafts []models.Draft

	if result.CalendarEvents != nil && len(result.CalendarEvents.Earnings.EarningsDate) > 0 {
		if raw := result.CalendarEvents.Earnings.EarningsDate[0].Raw; raw != nil {
			eventDate := time.Unix(int64(*raw), 0).UTC()
			companyName := ticker
			if result.Price != nil && result.Price.ShortName != "" {
				companyName = result.Price.ShortName
			}

			draft := models.Draft{
				Ticker:      ticker,
				EventType:   models.EventTypeEarnings,
				EventDate:   eventDate,
				Title:       fmt.Sprintf("%s Earnings Release", ticker),
				Description: fmt.Sprintf("%s is scheduled to report earnings.", companyName),
				Importance:  models.ImportanceHigh,
				Status:      models.StatusUpcoming,
				Source:      "yahoo",
			}
			if est := result.CalendarEvents.Earnings.EarningsAverage.Raw; est != nil {
				draft.EPSEstimate = est
			}
			if rev := result.CalendarEvents.Earnings.RevenueAverage.Raw; rev != nil {
				revEst := int64(*rev)
				draft.RevenueEstimate = &revEst
			}
			drafts = append(drafts, draft)
		}
	}

	if result.EarningsHistory != nil {
		for _, q := range result.EarningsHistory.History {
			if q.Quarter.Raw == nil {
				continue
			}
			quarterDate := time.Unix(int64(*q.Quarter.Raw), 0).UTC()
			draft := models.Draft{
				Ticker:      ticker,
				EventType:   models.EventTypeEarnings,
				EventDate:   quarterDate,
				Title:       fmt.Sprintf("%s Earnings (Historical)", ticker),
				Description: historicalEarningsDesc(ticker, q.EPSActual.Raw, q.EPSEstimate.Raw),
				Importance:  models.ImportanceMedium,
				Status:      models.StatusCompleted,
				EPSEstimate: q.EPSEstimate.Raw,
				EPSActual:   q.EPSActual.Raw,
				Source:      "yahoo",
			}
			drafts = append(drafts, draft)
		}
	}

	return drafts, nil
}

// FetchProfile returns a company profile snapshot for the stock detail
// view. It is not an event source.
func (c *YahooClient) FetchProfile(ctx context.Context, ticker string) (*models.StockProfile, error) {
	result, err := c.quoteSummary(ctx, ticker,
		"price", "assetProfile", "summaryDetail", "defaultKeyStatistics", "calendarEvents")
	if err != nil {
		return nil, err
	}
	if result == nil || result.Price == nil {
		return nil, nil
	}

	profile := &models.StockProfile{
		Ticker:      ticker,
		CompanyName: ticker,
		Currency:    "USD",
	}

	if result.Price.ShortName != "" {
		profile.CompanyName = result.Price.ShortName
	} else if result.Price.LongName != "" {
		profile.CompanyName = result.Price.LongName
	}
	profile.LongName = strPtr(result.Price.LongName)
	if result.Price.Currency != "" {
		profile.Currency = result.Price.Currency
	}
	profile.CurrentPrice = result.Price.RegularMarketPrice.Raw
	profile.PreviousClose = result.Price.RegularMarketPreviousClose.Raw
	if mc := result.Price.MarketCap.Raw; mc != nil {
		marketCap := int64(*mc)
		profile.MarketCap = &marketCap
	}

	if result.AssetProfile != nil {
		profile.Sector = strPtr(result.AssetProfile.Sector)
		profile.Industry = strPtr(result.AssetProfile.Industry)
		profile.Country = strPtr(result.AssetProfile.Country)
		profile.Website = strPtr(result.AssetProfile.Website)
		profile.Description = strPtr(result.AssetProfile.LongBusinessSummary)
	}

	if result.SummaryDetail != nil {
		profile.PERatio = result.SummaryDetail.TrailingPE.Raw
		profile.ForwardPE = result.SummaryDetail.ForwardPE.Raw
		profile.DividendYield = result.SummaryDetail.DividendYield.Raw
		profile.Beta = result.SummaryDetail.Beta.Raw
		profile.FiftyTwoWeekHigh = result.SummaryDetail.FiftyTwoWeekHigh.Raw
		profile.FiftyTwoWeekLow = result.SummaryDetail.FiftyTwoWeekLow.Raw
		if av := result.SummaryDetail.AverageVolume.Raw; av != nil {
			avgVol := int64(*av)
			profile.AvgVolume = &avgVol
		}
	}

	if result.DefaultKeyStatistics != nil {
		profile.EPSTTM = result.DefaultKeyStatistics.TrailingEps.Raw
	}

	if profile.CurrentPrice != nil && profile.PreviousClose != nil && *profile.PreviousClose != 0 {
		change := *profile.CurrentPrice - *profile.PreviousClose
		pct := change / *profile.PreviousClose * 100
		profile.PriceChange = floatPtr(math.Round(change*100) / 100)
		profile.PriceChangePercent = floatPtr(math.Round(pct*100) / 100)
	}

	if result.CalendarEvents != nil && len(result.CalendarEvents.Earnings.EarningsDate) > 0 {
		if raw := result.CalendarEvents.Earnings.EarningsDate[0].Raw; raw != nil {
			next := time.Unix(int64(*raw), 0).UTC().Format(time.RFC3339)
			profile.EarningsDate = &next
		}
	}

	return profile, nil
}

func historicalEarningsDesc(ticker string, actual, estimate *float64) string {
	desc := fmt.Sprintf("%s reported earnings.", ticker)
	if actual != nil && estimate != nil {
		verdict := "missed"
		if *actual >= *estimate {
			verdict = "beat"
		}
		desc += fmt.Sprintf(" EPS: %.2f vs estimate %.2f (%s).", *actual, *estimate, verdict)
	}
	return desc
}
