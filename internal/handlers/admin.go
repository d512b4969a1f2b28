package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ihaichao/stock-pulse/internal/models"
	"github.com/ihaichao/stock-pulse/pkg/logging"
)

type ingestRequest struct {
	Drafts []models.Draft `json:"drafts"`
}

// IngestEvents accepts a batch of drafts from an out-of-band producer and
// runs it through the aggregation pipeline. Counts are returned so the
// caller can tell merges from inserts.
func (h *Handlers) IngestEvents(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if len(req.Drafts) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty batch"})
		return
	}

	result, err := h.agg.IngestBatch(c.Request.Context(), req.Drafts)
	if err != nil {
		h.logger.WithFields(logging.Fields{"error": err.Error()}).Error("Ingest batch failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ingest failed", "result": result})
		return
	}
	c.JSON(http.StatusOK, result)
}

// RunJob triggers one ingestion job outside its schedule. The run happens
// in the background; failures land in the logs like scheduled runs.
func (h *Handlers) RunJob(c *gin.Context) {
	name := c.Param("name")
	known := false
	for _, n := range h.jobs.JobNames() {
		if n == name {
			known = true
			break
		}
	}
	if !known {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown job"})
		return
	}

	go func() {
		if err := h.jobs.RunJob(context.Background(), name); err != nil {
			h.logger.WithFields(logging.Fields{"error": err.Error(), "job": name}).Error("Manual job run failed")
		}
	}()
	c.JSON(http.StatusAccepted, gin.H{"job": name, "status": "started"})
}
