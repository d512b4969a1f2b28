package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ihaichao/stock-pulse/internal/models"
	"github.com/ihaichao/stock-pulse/pkg/logging"
)

const maxTickerLength = 16

type addTickerRequest struct {
	Ticker string  `json:"ticker"`
	Notes  *string `json:"notes"`
}

// ListPortfolio returns the caller's watchlist, newest first.
func (h *Handlers) ListPortfolio(c *gin.Context) {
	user := userID(c)
	rows, err := h.db.QueryContext(c.Request.Context(),
		`SELECT id, user_id, ticker, notes, added_at FROM watchlist WHERE user_id = $1 ORDER BY added_at DESC`, user)
	if err != nil {
		h.logger.WithFields(logging.Fields{"error": err.Error()}).Error("Failed to list watchlist")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	defer rows.Close()

	entries := []models.WatchlistItem{}
	for rows.Next() {
		var e models.WatchlistItem
		if err := rows.Scan(&e.ID, &e.UserID, &e.Ticker, &e.Notes, &e.AddedAt); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, entries)
}

// AddTicker puts a ticker on the caller's watchlist and purges the cached
// views the new ticker changes.
func (h *Handlers) AddTicker(c *gin.Context) {
	user := userID(c)

	var req addTickerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	ticker := normalizeTicker(req.Ticker)
	if ticker == "" || len(ticker) > maxTickerLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ticker"})
		return
	}

	ctx := c.Request.Context()
	res, err := h.db.ExecContext(ctx,
		`INSERT INTO watchlist (id, user_id, ticker, notes, added_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 ON CONFLICT (user_id, ticker) DO NOTHING`,
		uuid.New(), user, ticker, req.Notes)
	if err != nil {
		h.logger.WithFields(logging.Fields{"error": err.Error(), "ticker": ticker}).Error("Failed to add ticker")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "ticker already in portfolio"})
		return
	}

	h.cache.InvalidateTicker(ctx, user.String(), ticker)
	c.JSON(http.StatusCreated, gin.H{"ticker": ticker})
}

// RemoveTicker drops a ticker from the caller's watchlist.
func (h *Handlers) RemoveTicker(c *gin.Context) {
	user := userID(c)
	ticker := normalizeTicker(c.Param("ticker"))

	ctx := c.Request.Context()
	res, err := h.db.ExecContext(ctx,
		`DELETE FROM watchlist WHERE user_id = $1 AND ticker = $2`, user, ticker)
	if err != nil {
		h.logger.WithFields(logging.Fields{"error": err.Error(), "ticker": ticker}).Error("Failed to remove ticker")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "ticker not in portfolio"})
		return
	}

	h.cache.InvalidateTicker(ctx, user.String(), ticker)
	c.Status(http.StatusNoContent)
}
