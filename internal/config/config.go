package config

import "time"

// Config is the file-based configuration for the pulse service. Everything
// here has a working default; the YAML file only overrides policy knobs
// (job schedules, cache TTLs, source endpoints). Credentials and connection
// URLs stay in the environment.
type Config struct {
	Jobs    JobsConfig    `yaml:"jobs"`
	Cache   CacheConfig   `yaml:"cache"`
	Sources SourcesConfig `yaml:"sources"`
}

// JobsConfig holds the UTC fire times ("HH:MM") for each ingestion job.
type JobsConfig struct {
	Earnings  []string `yaml:"earnings"`
	Filings   []string `yaml:"filings"`
	Macro     []string `yaml:"macro"`
	Analyst   []string `yaml:"analyst"`
	Congress  []string `yaml:"congress"`
	Options   []string `yaml:"options"`
	Summaries []string `yaml:"summaries"`
}

// CacheConfig holds the per-view TTLs. Scheduled ingestion never purges
// the cache, so these TTLs are the staleness bound for each view.
type CacheConfig struct {
	UpcomingTTL        time.Duration `yaml:"upcoming_ttl"`
	TodayTTL           time.Duration `yaml:"today_ttl"`
	StockEventsTTL     time.Duration `yaml:"stock_events_ttl"`
	MacroMonthTTL      time.Duration `yaml:"macro_month_ttl"`
	DailySummaryTTL    time.Duration `yaml:"daily_summary_ttl"`
	StockProfileTTL    time.Duration `yaml:"stock_profile_ttl"`
	EarningsHistoryTTL time.Duration `yaml:"earnings_history_ttl"`
}

// SourcesConfig holds per-provider endpoint overrides and timeouts.
// Base URLs default to the public APIs; tests point them at httptest servers.
type SourcesConfig struct {
	YahooBaseURL    string        `yaml:"yahoo_base_url"`
	EdgarBaseURL    string        `yaml:"edgar_base_url"`
	EdgarTickersURL string        `yaml:"edgar_tickers_url"`
	FinnhubBaseURL  string        `yaml:"finnhub_base_url"`
	CapitolBaseURL  string        `yaml:"capitol_base_url"`
	FetchTimeout    time.Duration `yaml:"fetch_timeout"`
	CongressWindow  time.Duration `yaml:"congress_window"`
	AnalystWindow   time.Duration `yaml:"analyst_window"`
	MaxPerTicker    int           `yaml:"max_per_ticker"`
	CongressPerPage int           `yaml:"congress_per_page"`
}
