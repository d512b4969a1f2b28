package handlers

import (
	"context"
	"database/sql"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ihaichao/stock-pulse/internal/aggregator"
	"github.com/ihaichao/stock-pulse/internal/cache"
	"github.com/ihaichao/stock-pulse/internal/config"
	"github.com/ihaichao/stock-pulse/internal/models"
	"github.com/ihaichao/stock-pulse/pkg/logging"
)

// ProfileSource fetches company profile snapshots for the stock view.
type ProfileSource interface {
	FetchProfile(ctx context.Context, ticker string) (*models.StockProfile, error)
}

// Explainer generates the on-demand detail text for the event page.
type Explainer interface {
	Enabled() bool
	Explain(ctx context.Context, event *models.Event) (string, error)
}

// JobRunner triggers ingestion jobs by name.
type JobRunner interface {
	JobNames() []string
	RunJob(ctx context.Context, name string) error
}

// Handlers carries the dependencies for every HTTP route.
type Handlers struct {
	db           *sql.DB
	agg          *aggregator.Aggregator
	cache        *cache.Cache
	profiles     ProfileSource
	explainer    Explainer
	jobs         JobRunner
	cfg          *config.Config
	logger       logging.Logger
	serviceToken string
}

func New(db *sql.DB, agg *aggregator.Aggregator, c *cache.Cache, profiles ProfileSource, explainer Explainer, jobs JobRunner, cfg *config.Config, logger logging.Logger, serviceToken string) *Handlers {
	return &Handlers{
		db:           db,
		agg:          agg,
		cache:        c,
		profiles:     profiles,
		explainer:    explainer,
		jobs:         jobs,
		cfg:          cfg,
		logger:       logger,
		serviceToken: serviceToken,
	}
}

// RegisterRoutes attaches all API routes to the router.
func (h *Handlers) RegisterRoutes(router *gin.Engine) {
	events := router.Group("/events")
	{
		events.GET("/upcoming", h.RequireUser(), h.GetUpcomingEvents)
		events.GET("/today", h.GetTodayEvents)
		events.GET("/yesterday", h.GetYesterdayEvents)
		events.GET("/stock/:ticker", h.GetStockEvents)
		events.GET("/:id", h.GetEventDetail)
	}

	router.GET("/daily-summary", h.RequireUser(), h.GetDailySummary)
	router.GET("/macro/calendar", h.GetMacroCalendar)

	stock := router.Group("/stock")
	{
		stock.GET("/:ticker/profile", h.GetStockProfile)
		stock.GET("/:ticker/earnings-history", h.GetEarningsHistory)
	}

	portfolio := router.Group("/portfolio", h.RequireUser())
	{
		portfolio.GET("", h.ListPortfolio)
		portfolio.POST("", h.AddTicker)
		portfolio.DELETE("/:ticker", h.RemoveTicker)
	}

	admin := router.Group("/", h.RequireServiceToken())
	{
		admin.POST("/ingest", h.IngestEvents)
		admin.POST("/jobs/:name/run", h.RunJob)
	}
}

// EventResponse is the wire shape for a stored event.
type EventResponse struct {
	ID              string   `json:"id"`
	Ticker          *string  `json:"ticker"`
	EventType       string   `json:"event_type"`
	EventDate       string   `json:"event_date"`
	Title           string   `json:"title"`
	Description     *string  `json:"description,omitempty"`
	Importance      string   `json:"importance"`
	Status          string   `json:"status"`
	EPSEstimate     *float64 `json:"eps_estimate,omitempty"`
	EPSActual       *float64 `json:"eps_actual,omitempty"`
	RevenueEstimate *int64   `json:"revenue_estimate,omitempty"`
	RevenueActual   *int64   `json:"revenue_actual,omitempty"`
	ReportTime      *string  `json:"report_time,omitempty"`
	MacroEventName  *string  `json:"macro_event_name,omitempty"`
	Consensus       *string  `json:"consensus,omitempty"`
	ActualValue     *string  `json:"actual_value,omitempty"`
	PreviousValue   *string  `json:"previous_value,omitempty"`
	FilingType      *string  `json:"filing_type,omitempty"`
	FilingURL       *string  `json:"filing_url,omitempty"`
	AnalystFirm     *string  `json:"analyst_firm,omitempty"`
	FromRating      *string  `json:"from_rating,omitempty"`
	ToRating        *string  `json:"to_rating,omitempty"`
	TargetPrice     *float64 `json:"target_price,omitempty"`
	AISummary       *string  `json:"ai_summary,omitempty"`
	AIDetail        *string  `json:"ai_detail,omitempty"`
}

func eventResponse(e *models.Event) EventResponse {
	return EventResponse{
		ID:              e.ID.String(),
		Ticker:          e.Ticker,
		EventType:       e.EventType,
		EventDate:       e.EventDate.UTC().Format(time.RFC3339),
		Title:           e.Title,
		Description:     e.Description,
		Importance:      e.Importance,
		Status:          e.Status,
		EPSEstimate:     e.EPSEstimate,
		EPSActual:       e.EPSActual,
		RevenueEstimate: e.RevenueEstimate,
		RevenueActual:   e.RevenueActual,
		ReportTime:      e.ReportTime,
		MacroEventName:  e.MacroEventName,
		Consensus:       e.Consensus,
		ActualValue:     e.ActualValue,
		PreviousValue:   e.PreviousValue,
		FilingType:      e.FilingType,
		FilingURL:       e.FilingURL,
		AnalystFirm:     e.AnalystFirm,
		FromRating:      e.FromRating,
		ToRating:        e.ToRating,
		TargetPrice:     e.TargetPrice,
		AISummary:       e.AISummary,
	}
}

func eventResponses(events []*models.Event) []EventResponse {
	responses := make([]EventResponse, 0, len(events))
	for _, e := range events {
		responses = append(responses, eventResponse(e))
	}
	return responses
}

func userID(c *gin.Context) uuid.UUID {
	return c.MustGet(ctxUserID).(uuid.UUID)
}
