package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultYahooBaseURL   = "https://query1.finance.yahoo.com"
	DefaultEdgarBaseURL   = "https://data.sec.gov"
	DefaultEdgarTickers   = "https://www.sec.gov/files/company_tickers.json"
	DefaultFinnhubBaseURL = "https://finnhub.io/api/v1"
	DefaultCapitolBaseURL = "https://bff.capitoltrades.com"

	DefaultFetchTimeout    = 15 * time.Second
	DefaultCongressWindow  = 30 * 24 * time.Hour
	DefaultAnalystWindow   = 90 * 24 * time.Hour
	DefaultMaxPerTicker    = 20
	DefaultCongressPerPage = 96
)

func (c *Config) applyDefaults() {
	if len(c.Jobs.Earnings) == 0 {
		c.Jobs.Earnings = []string{"06:00", "18:00"}
	}
	if len(c.Jobs.Filings) == 0 {
		c.Jobs.Filings = []string{"07:00", "19:00"}
	}
	if len(c.Jobs.Macro) == 0 {
		c.Jobs.Macro = []string{"06:30"}
	}
	if len(c.Jobs.Analyst) == 0 {
		c.Jobs.Analyst = []string{"08:00"}
	}
	if len(c.Jobs.Congress) == 0 {
		c.Jobs.Congress = []string{"09:00"}
	}
	if len(c.Jobs.Options) == 0 {
		c.Jobs.Options = []string{"14:30"}
	}
	if len(c.Jobs.Summaries) == 0 {
		c.Jobs.Summaries = []string{"12:00"}
	}

	if c.Cache.UpcomingTTL == 0 {
		c.Cache.UpcomingTTL = 30 * time.Minute
	}
	if c.Cache.TodayTTL == 0 {
		c.Cache.TodayTTL = 15 * time.Minute
	}
	if c.Cache.StockEventsTTL == 0 {
		c.Cache.StockEventsTTL = time.Hour
	}
	if c.Cache.MacroMonthTTL == 0 {
		c.Cache.MacroMonthTTL = 6 * time.Hour
	}
	if c.Cache.DailySummaryTTL == 0 {
		c.Cache.DailySummaryTTL = time.Hour
	}
	if c.Cache.StockProfileTTL == 0 {
		c.Cache.StockProfileTTL = time.Hour
	}
	if c.Cache.EarningsHistoryTTL == 0 {
		c.Cache.EarningsHistoryTTL = 6 * time.Hour
	}

	if c.Sources.YahooBaseURL == "" {
		c.Sources.YahooBaseURL = DefaultYahooBaseURL
	}
	if c.Sources.EdgarBaseURL == "" {
		c.Sources.EdgarBaseURL = DefaultEdgarBaseURL
	}
	if c.Sources.EdgarTickersURL == "" {
		c.Sources.EdgarTickersURL = DefaultEdgarTickers
	}
	if c.Sources.FinnhubBaseURL == "" {
		c.Sources.FinnhubBaseURL = DefaultFinnhubBaseURL
	}
	if c.Sources.CapitolBaseURL == "" {
		c.Sources.CapitolBaseURL = DefaultCapitolBaseURL
	}
	if c.Sources.FetchTimeout == 0 {
		c.Sources.FetchTimeout = DefaultFetchTimeout
	}
	if c.Sources.CongressWindow == 0 {
		c.Sources.CongressWindow = DefaultCongressWindow
	}
	if c.Sources.AnalystWindow == 0 {
		c.Sources.AnalystWindow = DefaultAnalystWindow
	}
	if c.Sources.MaxPerTicker == 0 {
		c.Sources.MaxPerTicker = DefaultMaxPerTicker
	}
	if c.Sources.CongressPerPage == 0 {
		c.Sources.CongressPerPage = DefaultCongressPerPage
	}
}
