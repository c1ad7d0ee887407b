package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"github.com/spacesugam/RA/internal/services"
)

// HandleMetrics returns the arena metrics snapshot
func HandleMetrics(metrics *services.Metrics) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		return e.JSON(http.StatusOK, metrics.Snapshot())
	}
}

// HandleHealth returns server health status
func HandleHealth(metrics *services.Metrics) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		snapshot := metrics.Snapshot()

		status := http.StatusOK
		if snapshot.HealthStatus == "critical" {
			status = http.StatusServiceUnavailable
		}

		return e.JSON(status, map[string]any{
			"status":             snapshot.HealthStatus,
			"active_connections": snapshot.ActiveConnections,
			"active_battles":     snapshot.ActiveBattles,
			"queue_depth":        snapshot.QueueDepth,
			"uptime_seconds":     snapshot.UptimeSeconds,
		})
	}
}
