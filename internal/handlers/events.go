package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ihaichao/stock-pulse/internal/aggregator"
	"github.com/ihaichao/stock-pulse/internal/cache"
	"github.com/ihaichao/stock-pulse/internal/models"
	"github.com/ihaichao/stock-pulse/pkg/logging"
)

// importanceRank orders the text importance column semantically.
const importanceRank = `CASE importance WHEN 'high' THEN 3 WHEN 'medium' THEN 2 ELSE 1 END`

const (
	defaultStockEventLimit = 50
	maxStockEventLimit     = 200
)

func (h *Handlers) queryEvents(ctx context.Context, query string, args ...interface{}) ([]*models.Event, error) {
	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []*models.Event{}
	for rows.Next() {
		event, err := aggregator.ScanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// watchedTickers returns the user's watchlist tickers, sorted by when
// they were added.
func (h *Handlers) watchedTickers(ctx context.Context, user uuid.UUID) ([]string, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT ticker FROM watchlist WHERE user_id = $1 ORDER BY added_at DESC`, user)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tickers = append(tickers, t)
	}
	return tickers, rows.Err()
}

// respondCached serves a cached JSON payload when present, otherwise runs
// build, caches its serialized result, and serves it.
func (h *Handlers) respondCached(c *gin.Context, key string, ttl time.Duration, build func() (interface{}, error)) {
	ctx := c.Request.Context()
	if payload, ok := h.cache.Get(ctx, key); ok {
		c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
		return
	}

	body, err := build()
	if err != nil {
		h.logger.WithFields(logging.Fields{"error": err.Error(), "path": c.FullPath()}).Error("Failed to build response")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	payload, err := json.Marshal(body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	h.cache.Put(ctx, key, payload, ttl)
	c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
}

// GetUpcomingEvents lists future events for the caller's watchlist plus
// market-wide events. An empty watchlist still sees macro events.
func (h *Handlers) GetUpcomingEvents(c *gin.Context) {
	user := userID(c)
	ctx := c.Request.Context()

	h.respondCached(c, cache.UpcomingKey(user.String()), h.cfg.Cache.UpcomingTTL, func() (interface{}, error) {
		tickers, err := h.watchedTickers(ctx, user)
		if err != nil {
			return nil, err
		}

		var events []*models.Event
		if len(tickers) == 0 {
			events, err = h.queryEvents(ctx, `
				SELECT `+aggregator.EventColumns+`
				FROM events
				WHERE event_date >= NOW() AND ticker IS NULL
				ORDER BY event_date ASC, `+importanceRank+` DESC`)
		} else {
			events, err = h.queryEvents(ctx, `
				SELECT `+aggregator.EventColumns+`
				FROM events
				WHERE event_date >= NOW() AND (ticker = ANY($1) OR ticker IS NULL)
				ORDER BY event_date ASC, `+importanceRank+` DESC`,
				pq.Array(tickers))
		}
		if err != nil {
			return nil, err
		}
		return eventResponses(events), nil
	})
}

func dayWindow(now time.Time, daysAgo int) (time.Time, time.Time) {
	day := now.UTC().Truncate(24*time.Hour).AddDate(0, 0, -daysAgo)
	return day, day.AddDate(0, 0, 1)
}

func (h *Handlers) eventsForDay(ctx context.Context, daysAgo int) ([]EventResponse, error) {
	start, end := dayWindow(time.Now(), daysAgo)
	events, err := h.queryEvents(ctx, `
		SELECT `+aggregator.EventColumns+`
		FROM events
		WHERE event_date >= $1 AND event_date < $2
		ORDER BY `+importanceRank+` DESC, event_date ASC`,
		start, end)
	if err != nil {
		return nil, err
	}
	return eventResponses(events), nil
}

// GetTodayEvents lists today's events (UTC day), most important first.
// The view is identical for everyone, so the cache key is global.
func (h *Handlers) GetTodayEvents(c *gin.Context) {
	ctx := c.Request.Context()
	h.respondCached(c, cache.TodayKey(), h.cfg.Cache.TodayTTL, func() (interface{}, error) {
		return h.eventsForDay(ctx, 0)
	})
}

// GetYesterdayEvents lists yesterday's events. Served straight from the
// database: the window shifts at midnight and the view is rarely hit.
func (h *Handlers) GetYesterdayEvents(c *gin.Context) {
	events, err := h.eventsForDay(c.Request.Context(), 1)
	if err != nil {
		h.logger.WithFields(logging.Fields{"error": err.Error()}).Error("Failed to list yesterday's events")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, events)
}

// GetStockEvents lists a ticker's event timeline, newest first.
func (h *Handlers) GetStockEvents(c *gin.Context) {
	ticker := normalizeTicker(c.Param("ticker"))
	ctx := c.Request.Context()

	limit := defaultStockEventLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxStockEventLimit {
		limit = maxStockEventLimit
	}

	key := cache.StockEventsKey(ticker)
	if limit == defaultStockEventLimit {
		h.respondCached(c, key, h.cfg.Cache.StockEventsTTL, func() (interface{}, error) {
			return h.stockEvents(ctx, ticker, limit)
		})
		return
	}

	events, err := h.stockEvents(ctx, ticker, limit)
	if err != nil {
		h.logger.WithFields(logging.Fields{"error": err.Error(), "ticker": ticker}).Error("Failed to list stock events")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *Handlers) stockEvents(ctx context.Context, ticker string, limit int) ([]EventResponse, error) {
	events, err := h.queryEvents(ctx, `
		SELECT `+aggregator.EventColumns+`
		FROM events
		WHERE ticker = $1
		ORDER BY event_date DESC
		LIMIT $2`, ticker, limit)
	if err != nil {
		return nil, err
	}
	return eventResponses(events), nil
}

// GetEventDetail returns a single event with its long-form explanation,
// generating and persisting the explanation on first view.
func (h *Handlers) GetEventDetail(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	ctx := c.Request.Context()
	event, err := h.agg.GetEvent(ctx, id)
	if err != nil {
		h.logger.WithFields(logging.Fields{"error": err.Error(), "event_id": id.String()}).Error("Failed to load event")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if event == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	}

	if event.AIDetail == nil && h.explainer != nil && h.explainer.Enabled() {
		detail, err := h.explainer.Explain(ctx, event)
		if err != nil {
			h.logger.WithFields(logging.Fields{"error": err.Error(), "event_id": id.String()}).Warn("Failed to generate event detail")
		} else if detail != "" {
			if err := h.agg.SaveDetail(ctx, id, detail); err != nil {
				h.logger.WithFields(logging.Fields{"error": err.Error(), "event_id": id.String()}).Warn("Failed to persist event detail")
			}
			event.AIDetail = &detail
		}
	}

	resp := eventResponse(event)
	resp.AIDetail = event.AIDetail
	c.JSON(http.StatusOK, resp)
}
