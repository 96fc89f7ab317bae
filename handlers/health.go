package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"projectcamp/models"
	"time"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck reports liveness and whether the store and session backends answer.
func HealthCheck(w http.ResponseWriter, r *http.Request, deps map[string]pinger) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{}
	var failed []string
	for name, dep := range deps {
		if err := dep.Ping(ctx); err != nil {
			slog.Error("health check failed", "dependency", name, "error", err)
			status[name] = "down"
			failed = append(failed, name+": down")
			continue
		}
		status[name] = "up"
	}

	if len(failed) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, models.NewApiErrorResponse(&models.APIError{
			StatusCode: http.StatusServiceUnavailable,
			Message:    "Dependency unavailable",
			Errors:     failed,
		}))
		return
	}
	respond(w, http.StatusOK, status, "Server is running")
}
