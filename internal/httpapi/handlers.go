package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"tramita_backend/internal/domain"
	"tramita_backend/internal/engine"
	"tramita_backend/internal/telemetry"
	"tramita_backend/platform/apperr"
	"tramita_backend/platform/logger"
	"tramita_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EngineSurface is the slice of the engine the API exposes.
type EngineSurface interface {
	RunSweep(ctx context.Context, now time.Time) (engine.SweepResult, error)
	RequestExtension(ctx context.Context, id uuid.UUID) (domain.Requirement, error)
}

type handlers struct {
	engine EngineSurface
	lock   Locker
	health HealthChecker
	val    *validator.Validator
	log    *logger.Logger
}

type sweepRequest struct {
	// AsOf fixes the sweep's reference instant, RFC3339. Empty means now.
	AsOf string `json:"asOf" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

func (h *handlers) triggerSweep(c *gin.Context) {
	var req sweepRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			errorResponse(c, apperr.Validation("body must be JSON with an optional asOf field"))
			return
		}
	}
	if err := h.val.Struct(req); err != nil {
		errorResponse(c, apperr.Validation("asOf must be RFC3339"))
		return
	}

	now := time.Now().UTC()
	if req.AsOf != "" {
		parsed, err := time.Parse(time.RFC3339, req.AsOf)
		if err != nil {
			errorResponse(c, apperr.Validation("asOf must be RFC3339"))
			return
		}
		now = parsed
	}

	acquired, release, err := h.lock.Acquire(c.Request.Context())
	if err != nil {
		errorResponse(c, apperr.Store("sweep lock unavailable", err))
		return
	}
	if !acquired {
		errorResponse(c, apperr.Conflict("a sweep is already running"))
		return
	}
	defer release()

	result, err := h.engine.RunSweep(c.Request.Context(), now)
	if err != nil {
		telemetry.SweepsFailed.Inc()
		errorResponse(c, err)
		return
	}
	telemetry.ObserveSweep(result)
	c.JSON(http.StatusOK, result)
}

func (h *handlers) requestExtension(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		errorResponse(c, apperr.Validation("id must be a UUID"))
		return
	}

	req, err := h.engine.RequestExtension(c.Request.Context(), id)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":               req.ID,
		"status":           req.Status,
		"officialDeadline": req.OfficialDeadline,
		"extensionCount":   req.ExtensionCount,
	})
}

func (h *handlers) healthz(c *gin.Context) {
	if err := h.health.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func errorResponse(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		status = appErr.HTTPStatus()
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
