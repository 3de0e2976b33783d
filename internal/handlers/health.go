package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neurondb/NeuronIP/api/internal/db"
)

/* HealthHandler handles health check requests */
type HealthHandler struct {
	pool      *pgxpool.Pool
	startTime time.Time
}

/* NewHealthHandler creates a new health handler */
func NewHealthHandler(pool *pgxpool.Pool) *HealthHandler {
	return &HealthHandler{
		pool:      pool,
		startTime: time.Now(),
	}
}

/* HealthResponse represents the health check response */
type HealthResponse struct {
	Status    string                 `json:"status"`
	Service   string                 `json:"service"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks,omitempty"`
}

/* CheckStatus represents the status of a health check */
type CheckStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

/* ServeHTTP handles health check requests */
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:    "ok",
		Service:   "neuronip-scan-api",
		Timestamp: time.Now(),
		Checks:    make(map[string]CheckStatus),
	}

	if h.pool != nil {
		healthChecker := db.NewHealthChecker(h.pool)
		healthy, results := healthChecker.IsHealthy(ctx)

		if !healthy {
			response.Status = "unhealthy"
		}

		for checkName, result := range results {
			status := "healthy"
			if !result.Healthy {
				status = "error"
				if response.Status == "ok" {
					response.Status = "unhealthy"
				}
			}

			message := result.Message
			if result.Latency > 0 {
				message = fmt.Sprintf("%s (latency: %v)", message, result.Latency)
			}
			if result.Connections != nil {
				message = fmt.Sprintf("%s [Pool: %d/%d acquired, %d idle]",
					message, result.Connections.AcquiredConns, result.Connections.MaxConns, result.Connections.IdleConns)
			}

			response.Checks[fmt.Sprintf("database_%s", checkName)] = CheckStatus{
				Status:  status,
				Message: message,
			}
		}
	} else {
		response.Status = "unhealthy"
		response.Checks["database"] = CheckStatus{
			Status:  "error",
			Message: "Database pool not initialized",
		}
	}

	uptime := time.Since(h.startTime)
	response.Checks["uptime"] = CheckStatus{
		Status:  "healthy",
		Message: fmt.Sprintf("Server uptime: %s", uptime.Round(time.Second).String()),
	}

	statusCode := http.StatusOK
	if response.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}
