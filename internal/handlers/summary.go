package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ihaichao/stock-pulse/internal/aggregator"
	"github.com/ihaichao/stock-pulse/internal/cache"
	"github.com/ihaichao/stock-pulse/internal/models"
)

// DailySummary is the morning-briefing view: today's events split into
// what touches the caller's watchlist versus the broad market.
type DailySummary struct {
	Date                string          `json:"date"`
	TotalEvents         int             `json:"total_events"`
	HighImportanceCount int             `json:"high_importance_count"`
	Events              []EventResponse `json:"events"`
	PortfolioEvents     []EventResponse `json:"portfolio_events"`
	MacroEvents         []EventResponse `json:"macro_events"`
	OtherEvents         []EventResponse `json:"other_events"`
}

// GetDailySummary builds the briefing for the caller's watchlist.
func (h *Handlers) GetDailySummary(c *gin.Context) {
	user := userID(c)
	ctx := c.Request.Context()

	h.respondCached(c, cache.DailySummaryKey(user.String()), h.cfg.Cache.DailySummaryTTL, func() (interface{}, error) {
		tickers, err := h.watchedTickers(ctx, user)
		if err != nil {
			return nil, err
		}
		return h.buildDailySummary(ctx, tickers)
	})
}

func (h *Handlers) buildDailySummary(ctx context.Context, tickers []string) (*DailySummary, error) {
	start, end := dayWindow(time.Now(), 0)
	events, err := h.queryEvents(ctx, `
		SELECT `+aggregator.EventColumns+`
		FROM events
		WHERE event_date >= $1 AND event_date < $2
		ORDER BY `+importanceRank+` DESC, event_date ASC`,
		start, end)
	if err != nil {
		return nil, err
	}

	watched := make(map[string]bool, len(tickers))
	for _, t := range tickers {
		watched[t] = true
	}

	portfolio := []EventResponse{}
	macro := []EventResponse{}
	other := []EventResponse{}
	for _, e := range events {
		resp := eventResponse(e)
		switch {
		case e.Ticker != nil && watched[*e.Ticker]:
			portfolio = append(portfolio, resp)
		case e.Ticker == nil:
			macro = append(macro, resp)
		default:
			other = append(other, resp)
		}
	}

	combined := make([]EventResponse, 0, len(portfolio)+len(macro))
	combined = append(combined, portfolio...)
	combined = append(combined, macro...)

	highCount := 0
	for _, e := range combined {
		if e.Importance == models.ImportanceHigh {
			highCount++
		}
	}

	return &DailySummary{
		Date:                start.Format("2006-01-02"),
		TotalEvents:         len(combined),
		HighImportanceCount: highCount,
		Events:              combined,
		PortfolioEvents:     portfolio,
		MacroEvents:         macro,
		OtherEvents:         other,
	}, nil
}
