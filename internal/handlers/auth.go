package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ihaichao/stock-pulse/internal/models"
	"github.com/ihaichao/stock-pulse/pkg/logging"
)

const ctxUserID = "user_id"

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// RequireUser resolves the opaque bearer token to a user row, creating the
// row on first sight. Anonymous tokens double as account identity.
func (h *Handlers) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			c.Abort()
			return
		}

		var user models.User
		err := h.db.QueryRowContext(c.Request.Context(),
			`INSERT INTO users (id, token, created_at) VALUES ($1, $2, NOW())
			 ON CONFLICT (token) DO UPDATE SET token = EXCLUDED.token
			 RETURNING id, token, created_at, updated_at`,
			uuid.New(), token).Scan(&user.ID, &user.Token, &user.CreatedAt, &user.UpdatedAt)
		if err != nil {
			h.logger.WithFields(logging.Fields{"error": err.Error()}).Error("Failed to resolve user")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve user"})
			c.Abort()
			return
		}

		c.Set(ctxUserID, user.ID)
		c.Next()
	}
}

// RequireServiceToken guards the ingestion and job-trigger endpoints.
func (h *Handlers) RequireServiceToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.serviceToken == "" {
			c.JSON(http.StatusForbidden, gin.H{"error": "service endpoints disabled"})
			c.Abort()
			return
		}
		if bearerToken(c) != h.serviceToken {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid service token"})
			c.Abort()
			return
		}
		c.Next()
	}
}
