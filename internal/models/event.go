package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types stored in events.event_type
const (
	EventTypeEarnings       = "earnings"
	EventTypeMacro          = "macro"
	EventTypeInsider        = "insider"
	EventTypeAnalystRating  = "analyst_rating"
	EventTypeCongressTrade  = "congress_trade"
	EventTypeUnusualOptions = "unusual_options"
)

// Importance levels
const (
	ImportanceLow    = "low"
	ImportanceMedium = "medium"
	ImportanceHigh   = "high"
)

// Event status
const (
	StatusUpcoming  = "upcoming"
	StatusCompleted = "completed"
)

// JSONB is a custom type for handling JSONB fields
type JSONB map[string]interface{}

// Value implements the driver.Valuer interface for JSONB
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements the sql.Scanner interface for JSONB
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Event is the canonical stored record for a financial event. A nil Ticker
// marks a market-wide (macro) event. Fields that do not apply to the
// event type stay nil.
type Event struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Ticker    *string   `json:"ticker" db:"ticker"`
	EventType string    `json:"event_type" db:"event_type"`
	EventDate time.Time `json:"event_date" db:"event_date"`
	Title     string    `json:"title" db:"title"`

	Description *string `json:"description,omitempty" db:"description"`
	Importance  string  `json:"importance" db:"importance"`
	Status      string  `json:"status" db:"status"`

	// Earnings
	EPSEstimate     *float64 `json:"eps_estimate,omitempty" db:"eps_estimate"`
	EPSActual       *float64 `json:"eps_actual,omitempty" db:"eps_actual"`
	RevenueEstimate *int64   `json:"revenue_estimate,omitempty" db:"revenue_estimate"`
	RevenueActual   *int64   `json:"revenue_actual,omitempty" db:"revenue_actual"`
	ReportTime      *string  `json:"report_time,omitempty" db:"report_time"` // BMO / AMC

	// Macro
	MacroEventName *string `json:"macro_event_name,omitempty" db:"macro_event_name"`
	Consensus      *string `json:"consensus,omitempty" db:"consensus"`
	ActualValue    *string `json:"actual_value,omitempty" db:"actual_value"`
	PreviousValue  *string `json:"previous_value,omitempty" db:"previous_value"`

	// SEC filings
	FilingType *string `json:"filing_type,omitempty" db:"filing_type"`
	FilingURL  *string `json:"filing_url,omitempty" db:"filing_url"`

	// Analyst ratings
	AnalystFirm *string  `json:"analyst_firm,omitempty" db:"analyst_firm"`
	FromRating  *string  `json:"from_rating,omitempty" db:"from_rating"`
	ToRating    *string  `json:"to_rating,omitempty" db:"to_rating"`
	TargetPrice *float64 `json:"target_price,omitempty" db:"target_price"`

	// AI annotations, filled lazily by the summarizer, never by ingestion
	AISummary *string `json:"ai_summary,omitempty" db:"ai_summary"`
	AIDetail  *string `json:"ai_detail,omitempty" db:"ai_detail"`

	// Provenance
	Source  *string `json:"source,omitempty" db:"source"`
	RawData JSONB   `json:"raw_data,omitempty" db:"raw_data"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Draft is an unpersisted event emitted by a source adapter. It has no
// identity yet; the aggregator decides whether it becomes a new Event or
// merges into an existing one. An empty Ticker means market-wide.
type Draft struct {
	Ticker    string    `json:"ticker"`
	EventType string    `json:"event_type"`
	EventDate time.Time `json:"event_date"`
	Title     string    `json:"title"`

	Description string `json:"description,omitempty"`
	Importance  string `json:"importance,omitempty"`
	Status      string `json:"status,omitempty"`

	EPSEstimate     *float64 `json:"eps_estimate,omitempty"`
	EPSActual       *float64 `json:"eps_actual,omitempty"`
	RevenueEstimate *int64   `json:"revenue_estimate,omitempty"`
	RevenueActual   *int64   `json:"revenue_actual,omitempty"`
	ReportTime      *string  `json:"report_time,omitempty"`

	MacroEventName *string `json:"macro_event_name,omitempty"`
	Consensus      *string `json:"consensus,omitempty"`
	ActualValue    *string `json:"actual_value,omitempty"`
	PreviousValue  *string `json:"previous_value,omitempty"`

	FilingType *string `json:"filing_type,omitempty"`
	FilingURL  *string `json:"filing_url,omitempty"`

	AnalystFirm *string  `json:"analyst_firm,omitempty"`
	FromRating  *string  `json:"from_rating,omitempty"`
	ToRating    *string  `json:"to_rating,omitempty"`
	TargetPrice *float64 `json:"target_price,omitempty"`

	Source  string `json:"source,omitempty"`
	RawData JSONB  `json:"raw_data,omitempty"`
}

// NormalizeDate coerces a zone-less event date to UTC. Drafts arrive from
// several providers and some emit naive timestamps.
func (d *Draft) NormalizeDate() {
	if d.EventDate.IsZero() {
		return
	}
	d.EventDate = d.EventDate.UTC()
}
