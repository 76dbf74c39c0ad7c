package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/grachmannico95/oms-bulk-import/internal/domain"
	"github.com/grachmannico95/oms-bulk-import/internal/service"
	"github.com/grachmannico95/oms-bulk-import/pkg/logger"
)

type JobHandler struct {
	service service.ImportService
	logger  *logger.Logger
}

func NewJobHandler(service service.ImportService, log *logger.Logger) *JobHandler {
	return &JobHandler{
		service: service,
		logger:  log,
	}
}

// Get returns the status, progress and result of one import job.
func (h *JobHandler) Get(c echo.Context) error {
	jobID := c.Param("id")
	ctx := logger.WithJobID(c.Request().Context(), jobID)

	if jobID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "job id is required",
		})
	}

	job, err := h.service.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{
				"error": "job not found",
			})
		}

		h.logger.Error(ctx, "Failed to get job",
			"error", err,
		)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to get job",
		})
	}

	return c.JSON(http.StatusOK, job)
}
