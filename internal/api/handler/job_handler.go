package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/cuongbtq/video-intake/internal/domain"
	"github.com/cuongbtq/video-intake/internal/intake"
	"github.com/gin-gonic/gin"
)

// CreateJob handles POST /api/v1/jobs.
// The raw body goes to the intake pipeline untouched; the envelope decides the status.
func (h *JobHandler) CreateJob(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"message": "Request body too large",
			})
			return
		}
		h.logger.Warn("Failed to read request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "Invalid request body: unreadable",
		})
		return
	}

	env := h.pipeline.Handle(c.Request.Context(), intake.Request{
		Headers: c.Request.Header,
		Body:    json.RawMessage(body),
	})

	c.JSON(env.StatusCode, env.Body)
}

// GetJob handles GET /api/v1/jobs/:job_id.
// Callers only see their own jobs; anything else is reported as not found.
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID := c.Param("job_id")

	owner, err := h.pipeline.Resolver().Resolve(c.Request.Context(), c.Request.Header)
	if err != nil {
		env := intake.Shape(nil, err)
		c.JSON(env.StatusCode, env.Body)
		return
	}

	record, err := h.records.Get(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Job not found"})
			return
		}
		h.logger.Error("Failed to get job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"message": intake.GenericFailureMessage})
		return
	}

	if record.Owner != owner {
		h.logger.Info("Job requested by non-owner",
			slog.String("job_id", jobID),
			slog.String("user_name", owner),
		)
		c.JSON(http.StatusNotFound, gin.H{"message": "Job not found"})
		return
	}

	c.JSON(http.StatusOK, record)
}
