package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"catalogsync/internal/common"
	"catalogsync/internal/jobs/background"

	"github.com/labstack/echo/v4"
)

// JobRunner is the part of the background scheduler exposed to admins.
type JobRunner interface {
	RunNow(name string) error
	GetJobStatus() []background.JobStatus
}

type JobHandlers struct {
	jobs   JobRunner
	logger *slog.Logger
}

func NewJobHandlers(jobs JobRunner, logger *slog.Logger) *JobHandlers {
	return &JobHandlers{jobs: jobs, logger: logger}
}

// ListJobs godoc
// @Summary      List scheduled background jobs
// @Tags         jobs
// @Produce      json
// @Success      200  {array}  background.JobStatus
// @Security     BearerAuth
// @Router       /v1/sync/jobs [get]
func (h *JobHandlers) ListJobs(c echo.Context) error {
	return c.JSON(http.StatusOK, h.jobs.GetJobStatus())
}

// RunJob godoc
// @Summary      Run a scheduled job now
// @Description  Queues the job outside its schedule. The run itself is reported in the logs.
// @Tags         jobs
// @Produce      json
// @Param        name  path  string  true  "job name"
// @Success      202  {object}  map[string]interface{}
// @Failure      404  {object}  common.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/sync/jobs/{name}/run [post]
func (h *JobHandlers) RunJob(c echo.Context) error {
	name := c.Param("name")
	if err := h.jobs.RunNow(name); err != nil {
		if errors.Is(err, background.ErrJobNotFound) {
			return common.SendNotFoundError(c, "Job", map[string]string{"name": name})
		}
		h.logger.Error("failed to run job", "job", name, "error", err)
		return common.SendServerError(c, err.Error())
	}

	h.logger.Info("job queued by admin", "job", name)
	return c.JSON(http.StatusAccepted, map[string]interface{}{
		"message": "Job queued",
		"job":     name,
	})
}
