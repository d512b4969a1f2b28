package handlers

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ihaichao/stock-pulse/internal/aggregator"
	"github.com/ihaichao/stock-pulse/internal/cache"
	"github.com/ihaichao/stock-pulse/internal/models"
	"github.com/ihaichao/stock-pulse/pkg/logging"
)

const (
	defaultEarningsQuarters = 8
	maxEarningsQuarters     = 20
)

func normalizeTicker(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// GetStockProfile returns the live company snapshot for a ticker.
func (h *Handlers) GetStockProfile(c *gin.Context) {
	ticker := normalizeTicker(c.Param("ticker"))
	ctx := c.Request.Context()

	if payload, ok := h.cache.Get(ctx, cache.StockProfileKey(ticker)); ok {
		c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
		return
	}

	profile, err := h.profiles.FetchProfile(ctx, ticker)
	if err != nil {
		h.logger.WithFields(logging.Fields{"error": err.Error(), "ticker": ticker}).Error("Failed to fetch profile")
		c.JSON(http.StatusBadGateway, gin.H{"error": "profile source unavailable"})
		return
	}
	if profile == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "ticker not found"})
		return
	}

	h.cachePut(ctx, cache.StockProfileKey(ticker), profile, h.cfg.Cache.StockProfileTTL)
	c.JSON(http.StatusOK, profile)
}

// EarningsQuarter is one reported quarter with its beat verdict.
type EarningsQuarter struct {
	EventDate       string   `json:"event_date"`
	Title           string   `json:"title"`
	EPSEstimate     *float64 `json:"eps_estimate"`
	EPSActual       *float64 `json:"eps_actual"`
	RevenueEstimate *int64   `json:"revenue_estimate"`
	RevenueActual   *int64   `json:"revenue_actual"`
	Beat            *bool    `json:"beat"`
	SurprisePercent *float64 `json:"surprise_percent"`
}

// EarningsHistory is the per-ticker earnings track record.
type EarningsHistory struct {
	Ticker        string            `json:"ticker"`
	TotalQuarters int               `json:"total_quarters"`
	BeatRate      *float64          `json:"beat_rate"`
	History       []EarningsQuarter `json:"history"`
}

// GetEarningsHistory returns recent reported quarters for a ticker with
// beat/miss verdicts and the aggregate beat rate. Quarters missing the
// estimate or the actual are listed but excluded from the rate.
func (h *Handlers) GetEarningsHistory(c *gin.Context) {
	ticker := normalizeTicker(c.Param("ticker"))
	ctx := c.Request.Context()

	limit := defaultEarningsQuarters
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxEarningsQuarters {
		limit = maxEarningsQuarters
	}

	build := func() (interface{}, error) {
		events, err := h.queryEvents(ctx, `
			SELECT `+aggregator.EventColumns+`
			FROM events
			WHERE ticker = $1 AND event_type = $2 AND status = $3
			ORDER BY event_date DESC
			LIMIT $4`,
			ticker, models.EventTypeEarnings, models.StatusCompleted, limit)
		if err != nil {
			return nil, err
		}
		return buildEarningsHistory(ticker, events), nil
	}

	if limit == defaultEarningsQuarters {
		h.respondCached(c, cache.EarningsHistoryKey(ticker), h.cfg.Cache.EarningsHistoryTTL, build)
		return
	}

	body, err := build()
	if err != nil {
		h.logger.WithFields(logging.Fields{"error": err.Error(), "ticker": ticker}).Error("Failed to build earnings history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, body)
}

func buildEarningsHistory(ticker string, events []*models.Event) *EarningsHistory {
	history := make([]EarningsQuarter, 0, len(events))
	beats, scored := 0, 0
	for _, e := range events {
		q := EarningsQuarter{
			EventDate:       e.EventDate.UTC().Format("2006-01-02"),
			Title:           e.Title,
			EPSEstimate:     e.EPSEstimate,
			EPSActual:       e.EPSActual,
			RevenueEstimate: e.RevenueEstimate,
			RevenueActual:   e.RevenueActual,
		}
		if e.EPSEstimate != nil && e.EPSActual != nil {
			beat := *e.EPSActual >= *e.EPSEstimate
			q.Beat = &beat
			scored++
			if beat {
				beats++
			}
			if *e.EPSEstimate != 0 {
				surprise := round2((*e.EPSActual - *e.EPSEstimate) / math.Abs(*e.EPSEstimate) * 100)
				q.SurprisePercent = &surprise
			}
		}
		history = append(history, q)
	}

	result := &EarningsHistory{
		Ticker:        ticker,
		TotalQuarters: len(history),
		History:       history,
	}
	if scored > 0 {
		rate := round1(float64(beats) / float64(scored) * 100)
		result.BeatRate = &rate
	}
	return result
}

func round2(x float64) float64 { return math.Round(x*100) / 100 }
func round1(x float64) float64 { return math.Round(x*10) / 10 }

func (h *Handlers) cachePut(ctx context.Context, key string, body interface{}, ttl time.Duration) {
	payload, err := json.Marshal(body)
	if err != nil {
		return
	}
	h.cache.Put(ctx, key, payload, ttl)
}
