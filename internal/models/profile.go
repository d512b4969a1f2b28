package models

// StockProfile is a point-in-time company snapshot for the stock detail
// view. It is served cache-aside and never persisted.
type StockProfile struct {
	Ticker      string  `json:"ticker"`
	CompanyName string  `json:"company_name"`
	LongName    *string `json:"long_name,omitempty"`
	Sector      *string `json:"sector,omitempty"`
	Industry    *string `json:"industry,omitempty"`
	Country     *string `json:"country,omitempty"`
	Website     *string `json:"website,omitempty"`
	Description *string `json:"description,omitempty"`

	CurrentPrice       *float64 `json:"current_price,omitempty"`
	PreviousClose      *float64 `json:"previous_close,omitempty"`
	PriceChange        *float64 `json:"price_change,omitempty"`
	PriceChangePercent *float64 `json:"price_change_percent,omitempty"`
	MarketCap          *int64   `json:"market_cap,omitempty"`
	Currency           string   `json:"currency"`

	PERatio          *float64 `json:"pe_ratio,omitempty"`
	ForwardPE        *float64 `json:"forward_pe,omitempty"`
	EPSTTM           *float64 `json:"eps_ttm,omitempty"`
	DividendYield    *float64 `json:"dividend_yield,omitempty"`
	Beta             *float64 `json:"beta,omitempty"`
	FiftyTwoWeekHigh *float64 `json:"fifty_two_week_high,omitempty"`
	FiftyTwoWeekLow  *float64 `json:"fifty_two_week_low,omitempty"`
	AvgVolume        *int64   `json:"avg_volume,omitempty"`

	EarningsDate *string `json:"earnings_date,omitempty"`
}
