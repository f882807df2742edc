package router

import (
	"context"
	"net/http"

	"github.com/DjordjeVuckovic/news-feed/internal/ingest"
	"github.com/labstack/echo/v4"
)

type Trigger interface {
	Trigger(ctx context.Context, job string) error
}

type CycleReporter interface {
	LastResult() *ingest.CycleResult
}

type IngestRouter struct {
	e        *echo.Echo
	trigger  Trigger
	reporter CycleReporter
	job      string
}

// NewIngestRouter exposes manual runs of job. trigger is nil when ingestion is disabled.
func NewIngestRouter(e *echo.Echo, trigger Trigger, reporter CycleReporter, job string) *IngestRouter {
	return &IngestRouter{
		e:        e,
		trigger:  trigger,
		reporter: reporter,
		job:      job,
	}
}

func (r *IngestRouter) Bind() {
	r.e.POST("/ingest/run", r.runHandler)
	r.e.GET("/ingest/status", r.statusHandler)
}

// runHandler godoc
// @Summary Start an ingestion cycle
// @Description Runs the main plan in the background. Returns 409 when a cycle is already running.
// @Tags ingest
// @Produce json
// @Success 202 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /ingest/run [post]
func (r *IngestRouter) runHandler(c echo.Context) error {
	if r.trigger == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "ingestion is not enabled")
	}
	if err := r.trigger.Trigger(c.Request().Context(), r.job); err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, map[string]string{"status": "accepted", "job": r.job})
}

// statusHandler godoc
// @Summary Last ingestion cycle
// @Tags ingest
// @Produce json
// @Success 200 {object} ingest.CycleResult
// @Success 204
// @Router /ingest/status [get]
func (r *IngestRouter) statusHandler(c echo.Context) error {
	if r.reporter == nil {
		return c.NoContent(http.StatusNoContent)
	}
	res := r.reporter.LastResult()
	if res == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, res)
}
