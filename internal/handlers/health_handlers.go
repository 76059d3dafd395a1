package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger is any dependency that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlers handles health check and monitoring endpoints
type HealthHandlers struct {
	db        Pinger
	cache     Pinger
	storage   Pinger
	version   string
	startedAt time.Time
}

// NewHealthHandlers creates a new health handlers instance. cache and
// storage may be nil when the role does not use them.
func NewHealthHandlers(db, cache, storage Pinger, version string) *HealthHandlers {
	return &HealthHandlers{
		db:        db,
		cache:     cache,
		storage:   storage,
		version:   version,
		startedAt: time.Now(),
	}
}

type HealthCheck struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

type DetailedHealth struct {
	OverallStatus string                 `json:"overall_status"`
	Checks        map[string]HealthCheck `json:"checks"`
	Timestamp     string                 `json:"timestamp"`
	Version       string                 `json:"version"`
	Uptime        string                 `json:"uptime"`
	Goroutines    int                    `json:"goroutines"`
}

// LivenessCheck godoc
// @Summary  Liveness probe
// @Tags     health
// @Success  200  {object}  map[string]string
// @Router   /health [get]
func (h *HealthHandlers) LivenessCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":    "alive",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// ReadinessCheck godoc
// @Summary  Readiness probe; fails when the database is unreachable
// @Tags     health
// @Success  200  {object}  map[string]string
// @Failure  503  {object}  map[string]string
// @Router   /health/ready [get]
func (h *HealthHandlers) ReadinessCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if check := checkDependency(ctx, h.db); check.Status != "healthy" {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status":  "not_ready",
			"message": "Critical services unavailable",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ready",
		"message": "All systems operational",
	})
}

// DetailedHealthCheck godoc
// @Summary  Dependency health of database, redis and object storage
// @Tags     health
// @Success  200  {object}  DetailedHealth
// @Success  206  {object}  DetailedHealth
// @Router   /health/detailed [get]
func (h *HealthHandlers) DetailedHealthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	health := &DetailedHealth{
		OverallStatus: "healthy",
		Checks:        make(map[string]HealthCheck),
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       h.version,
		Uptime:        time.Since(h.startedAt).Round(time.Second).String(),
		Goroutines:    runtime.NumGoroutine(),
	}

	for name, dep := range map[string]Pinger{"database": h.db, "redis": h.cache, "storage": h.storage} {
		if dep == nil {
			continue
		}
		check := checkDependency(ctx, dep)
		if check.Status != "healthy" {
			health.OverallStatus = "degraded"
		}
		health.Checks[name] = check
	}

	statusCode := http.StatusOK
	if health.OverallStatus == "degraded" {
		statusCode = http.StatusPartialContent
	}
	return c.JSON(statusCode, health)
}

func checkDependency(ctx context.Context, dep Pinger) HealthCheck {
	if dep == nil {
		return HealthCheck{Status: "unhealthy", Message: "not configured"}
	}
	start := time.Now()
	err := dep.Ping(ctx)
	check := HealthCheck{Status: "healthy", LatencyMS: time.Since(start).Milliseconds()}
	if err != nil {
		check.Status = "unhealthy"
		check.Message = err.Error()
	}
	return check
}
