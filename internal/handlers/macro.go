package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ihaichao/stock-pulse/internal/aggregator"
	"github.com/ihaichao/stock-pulse/internal/cache"
	"github.com/ihaichao/stock-pulse/internal/models"
)

// GetMacroCalendar lists the macro events for one calendar month. The
// month query parameter is "YYYY-MM"; anything unparseable falls back to
// the current month.
func (h *Handlers) GetMacroCalendar(c *gin.Context) {
	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	if raw := c.Query("month"); raw != "" {
		if parsed, err := time.ParseInLocation("2006-01", raw, time.UTC); err == nil {
			start = parsed
		}
	}
	end := start.AddDate(0, 1, 0)

	ctx := c.Request.Context()
	h.respondCached(c, cache.MacroMonthKey(start.Year(), start.Month()), h.cfg.Cache.MacroMonthTTL, func() (interface{}, error) {
		events, err := h.queryEvents(ctx, `
			SELECT `+aggregator.EventColumns+`
			FROM events
			WHERE event_type = $1 AND event_date >= $2 AND event_date < $3
			ORDER BY event_date ASC`,
			models.EventTypeMacro, start, end)
		if err != nil {
			return nil, err
		}
		return gin.H{
			"month":  start.Format("2006-01"),
			"events": eventResponses(events),
		}, nil
	})
}
